package qbt

import (
	"errors"
	"fmt"
)

// AuthError indicates a missing, rejected or expired session. The caller
// must re-login before retrying; retrying the same call cannot succeed.
type AuthError struct {
	// Status is the HTTP status code, if a response was received.
	Status int
	// Body is the response body text, if a response was received.
	Body string
	// Err is the underlying transport error, if any.
	Err error
}

func (e *AuthError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("authentication failed: %v", e.Err)
	case e.Status != 0:
		return fmt.Sprintf("authentication failed: status %d: %s", e.Status, e.Body)
	default:
		return "not authenticated: call Login first"
	}
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// APIError indicates a non-auth API failure: a response with status >= 400,
// an invalid control action, or a transport error on an authenticated call.
type APIError struct {
	// Status is the HTTP status code, if a response was received.
	Status int
	// Body is the response body text, if a response was received.
	Body string
	// Err is the underlying transport or validation error, if any.
	Err error
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("api request failed: status %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("api request failed: %v", e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsAuthError reports whether err is (or wraps) an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// IsAPIError reports whether err is (or wraps) an APIError.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
