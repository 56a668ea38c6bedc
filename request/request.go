// Package request is a small helper around net/http with functional options.
package request

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Options holds the settings for a single request.
type Options struct {
	Timeout       time.Duration
	Body          io.Reader
	Headers       map[string]string
	Query         url.Values
	Ctx           context.Context
	CookieJar     http.CookieJar
	UpdateCookies bool
}

// Option applies a setting to Options.
type Option func(*Options)

// WithTimeout overrides the default request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}

// WithBody sets the request body.
func WithBody(body io.Reader) Option {
	return func(o *Options) {
		o.Body = body
	}
}

// WithForm sets a URL-encoded form body and the matching Content-Type header.
func WithForm(form url.Values) Option {
	return func(o *Options) {
		o.Body = strings.NewReader(form.Encode())
		if o.Headers == nil {
			o.Headers = make(map[string]string)
		}
		o.Headers["Content-Type"] = "application/x-www-form-urlencoded"
	}
}

// WithQuery appends query parameters to the request URL.
func WithQuery(query url.Values) Option {
	return func(o *Options) {
		o.Query = query
	}
}

// WithHeader sets a single request header.
func WithHeader(key, value string) Option {
	return func(o *Options) {
		if o.Headers == nil {
			o.Headers = make(map[string]string)
		}
		o.Headers[key] = value
	}
}

// WithHeaders sets multiple request headers at once.
func WithHeaders(headers map[string]string) Option {
	return func(o *Options) {
		if o.Headers == nil {
			o.Headers = make(map[string]string)
		}
		for k, v := range headers {
			o.Headers[k] = v
		}
	}
}

// WithContext attaches a context to the request.
func WithContext(ctx context.Context) Option {
	return func(o *Options) {
		o.Ctx = ctx
	}
}

// WithCookieJar uses a jar to carry cookies between requests.
func WithCookieJar(jar http.CookieJar) Option {
	return func(o *Options) {
		o.CookieJar = jar
	}
}

// WithUpdateCookies stores the response cookies back into the jar.
func WithUpdateCookies() Option {
	return func(o *Options) {
		o.UpdateCookies = true
	}
}

// Do executes an HTTP request with the given method, URL and options.
func Do(method, rawURL string, opts ...Option) (*http.Response, error) {
	options := &Options{
		Timeout: 10 * time.Second,
		Ctx:     context.Background(),
	}

	for _, opt := range opts {
		opt(options)
	}

	if len(options.Query) > 0 {
		sep := "?"
		if strings.Contains(rawURL, "?") {
			sep = "&"
		}
		rawURL += sep + options.Query.Encode()
	}

	client := &http.Client{Timeout: options.Timeout}
	if options.CookieJar != nil {
		client.Jar = options.CookieJar
	}

	req, err := http.NewRequestWithContext(options.Ctx, method, rawURL, options.Body)
	if err != nil {
		return nil, err
	}

	for k, v := range options.Headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	if options.UpdateCookies && options.CookieJar != nil {
		options.CookieJar.SetCookies(req.URL, resp.Cookies())
	}

	return resp, nil
}
