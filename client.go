package qbt

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/seedboxkit/qbt-mcp/request"
)

// Defaults applied by New when the corresponding Config field is zero.
const (
	DefaultTimeout = 30 * time.Second

	// loginOKBody is the exact body qBittorrent returns on successful
	// login; any other body means the credentials were rejected, even
	// with status 200.
	loginOKBody = "Ok."
)

// Config contains connection settings and credentials for one
// qBittorrent instance.
type Config struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
	Logger   zerolog.Logger
}

// Client owns one authenticated session against a qBittorrent Web API.
//
// Operations are not safe for concurrent use against the same instance
// without external serialization; the client holds a single session
// handle. A 403 from any endpoint surfaces as an AuthError and it is the
// caller's responsibility to Login again.
type Client struct {
	config Config
	jar    *cookiejar.Jar
	logger zerolog.Logger

	mu     sync.Mutex
	active bool

	// SearchPollInterval and SearchMaxPolls bound the blocking Search
	// helper. Defaults: 1s and 30.
	SearchPollInterval time.Duration
	SearchMaxPolls     int
}

// New creates a client for the given instance. It does not contact the
// network; call Login to open the session.
func New(config Config) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("error creating cookie jar: %w", err)
	}

	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}

	return &Client{
		config:             config,
		jar:                jar,
		logger:             config.Logger,
		SearchPollInterval: DefaultSearchPollInterval,
		SearchMaxPolls:     DefaultSearchMaxPolls,
	}, nil
}

// Login authenticates against auth/login. Success requires status 200 and
// the literal body "Ok."; the session cookie is retained for reuse. Any
// transport failure here is an AuthError, not an APIError, so callers can
// distinguish a dead session from a failing call.
func (qb *Client) Login(ctx context.Context) error {
	form := url.Values{
		"username": {qb.config.Username},
		"password": {qb.config.Password},
	}

	resp, err := request.Do(http.MethodPost, qb.apiURL("auth/login"),
		request.WithContext(ctx),
		request.WithForm(form),
		request.WithTimeout(qb.config.Timeout),
		request.WithCookieJar(qb.jar),
		request.WithUpdateCookies(),
	)
	if err != nil {
		return &AuthError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &AuthError{Err: err}
	}

	if resp.StatusCode != http.StatusOK || string(body) != loginOKBody {
		return &AuthError{Status: resp.StatusCode, Body: string(body)}
	}

	qb.mu.Lock()
	qb.active = true
	qb.mu.Unlock()

	qb.logger.Debug().Str("base_url", qb.config.BaseURL).Msg("authenticated with qBittorrent")
	return nil
}

// Close logs out and clears the session. It is idempotent: calling it
// with no active session is a no-op. Logout failures are logged and
// dropped; the session is considered released either way.
func (qb *Client) Close() error {
	qb.mu.Lock()
	wasActive := qb.active
	qb.active = false
	qb.mu.Unlock()

	if !wasActive {
		return nil
	}

	resp, err := request.Do(http.MethodPost, qb.apiURL("auth/logout"),
		request.WithForm(url.Values{}),
		request.WithTimeout(qb.config.Timeout),
		request.WithCookieJar(qb.jar),
	)
	if err != nil {
		qb.logger.Warn().Err(err).Msg("logout request failed")
		return nil
	}
	resp.Body.Close()

	return nil
}

func (qb *Client) apiURL(path string) string {
	return fmt.Sprintf("%s/api/v2/%s", qb.config.BaseURL, path)
}

// do is the request primitive behind every public operation. It fails
// fast with an AuthError when no session is held, before touching the
// network. A 403 on any endpoint means the session expired; other >=400
// responses become APIErrors carrying status and body.
func (qb *Client) do(ctx context.Context, method, path string, form url.Values, query url.Values) ([]byte, error) {
	qb.mu.Lock()
	active := qb.active
	qb.mu.Unlock()

	if !active {
		return nil, &AuthError{}
	}

	opts := []request.Option{
		request.WithContext(ctx),
		request.WithTimeout(qb.config.Timeout),
		request.WithCookieJar(qb.jar),
	}
	if form != nil {
		opts = append(opts, request.WithForm(form))
	}
	if len(query) > 0 {
		opts = append(opts, request.WithQuery(query))
	}

	resp, err := request.Do(method, qb.apiURL(path), opts...)
	if err != nil {
		return nil, &APIError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Err: err}
	}

	if resp.StatusCode == http.StatusForbidden {
		return nil, &AuthError{Status: resp.StatusCode, Body: string(body)}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}

// filterValues builds form/query values, omitting empty entries rather
// than sending them as blanks; upstream treats parameter presence as
// meaningful.
func filterValues(pairs map[string]string) url.Values {
	values := url.Values{}
	for k, v := range pairs {
		if v != "" {
			values.Set(k, v)
		}
	}
	return values
}
