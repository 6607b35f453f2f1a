package rest

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for Microsoft API responses. API errors returned by
// Connection wrap one of these, so callers can match with errors.Is.
var (
	// ErrBadRequest indicates the request was malformed.
	ErrBadRequest = errors.New("m365: bad request")

	// ErrUnauthorized indicates the access token is invalid or expired.
	ErrUnauthorized = errors.New("m365: unauthorized")

	// ErrForbidden indicates the user lacks permission for the resource.
	ErrForbidden = errors.New("m365: forbidden")

	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("m365: not found")

	// ErrGone indicates the resource (or a sync token) is no longer valid.
	ErrGone = errors.New("m365: gone")

	// ErrRateLimited indicates the request was throttled.
	ErrRateLimited = errors.New("m365: rate limited")

	// ErrServer indicates a server-side error.
	ErrServer = errors.New("m365: server error")

	// ErrAuthRequired indicates no usable token exists and an
	// authentication flow must be run.
	ErrAuthRequired = errors.New("m365: authentication required")

	// ErrNoRefreshToken indicates the stored token expired and cannot be
	// refreshed. Authenticate with the offline_access scope to obtain a
	// refresh token.
	ErrNoRefreshToken = errors.New("m365: token expired and no refresh token available")
)

// WrapStatus converts an HTTP status code to the matching sentinel error,
// or nil for non-error codes.
func WrapStatus(statusCode int) error {
	switch statusCode {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusGone:
		return ErrGone
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		if statusCode >= 500 {
			return ErrServer
		}
		return nil
	}
}

// APIError is a 4xx/5xx response from the service, carrying the decoded
// Microsoft error envelope when one was present.
type APIError struct {
	// StatusCode is the HTTP status of the response.
	StatusCode int
	// Code is the machine-readable error code from the envelope,
	// e.g. "ErrorItemNotFound".
	Code string
	// Message is the human-readable error message from the envelope.
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" || e.Message != "" {
		return fmt.Sprintf("m365: status %d: %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("m365: status %d", e.StatusCode)
}

// Unwrap maps the status code onto the matching sentinel error.
func (e *APIError) Unwrap() error {
	return WrapStatus(e.StatusCode)
}

// IsRetryable reports whether a status code is worth retrying.
func IsRetryable(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// errorEnvelope is the JSON error body returned by Graph and the Office 365
// REST API.
type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
