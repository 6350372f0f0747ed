package vesync

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
)

// Sentinel errors returned by the VeSync client.
var (
	// ErrMissingCredentials reports that email or password was empty at
	// login time.
	ErrMissingCredentials = errors.New("vesync: email and password are required")

	// ErrNotAuthenticated reports that an operation requiring a session was
	// called before a successful login.
	ErrNotAuthenticated = errors.New("vesync: not logged in")

	// ErrThrottled reports a rate-limit rejection from the vendor cloud.
	ErrThrottled = errors.New("vesync: too many requests")

	// ErrIdentityRejected reports that the vendor refused the client
	// fingerprint used for login.
	ErrIdentityRejected = errors.New("vesync: client identity rejected")

	// ErrIncompleteSession reports a login response that carried a success
	// code but no usable token/account pair.
	ErrIncompleteSession = errors.New("vesync: login response missing token or account id")

	// ErrClosed reports an operation on a client after Close.
	ErrClosed = errors.New("vesync: client closed")
)

// APIError represents a failure response from the VeSync cloud: either an
// HTTP-level error or an envelope with a non-zero vendor code.
type APIError struct {
	// HTTPStatus is the HTTP status code, zero when the failure was
	// reported inside a 200 envelope.
	HTTPStatus int

	// Code is the vendor envelope code; zero is never an error.
	Code int64

	// Msg is the vendor-supplied message, if any.
	Msg string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	switch {
	case e.HTTPStatus != 0 && e.Msg != "":
		return fmt.Sprintf("vesync: API error: http %d: %s", e.HTTPStatus, e.Msg)
	case e.HTTPStatus != 0:
		return fmt.Sprintf("vesync: API error: http %d", e.HTTPStatus)
	case e.Msg != "":
		return fmt.Sprintf("vesync: API error: code %d: %s", e.Code, e.Msg)
	default:
		return fmt.Sprintf("vesync: API error: code %d", e.Code)
	}
}

// IsThrottled returns true if the error indicates a rate-limit rejection.
func IsThrottled(err error) bool {
	if errors.Is(err, ErrThrottled) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatus == http.StatusTooManyRequests
	}
	return false
}

// IsIdentityRejected returns true if the error indicates the vendor refused
// the presented client fingerprint. The signal is either an HTTP 400/403 or
// an explicit rejection message inside a 200 envelope.
func IsIdentityRejected(err error) bool {
	if errors.Is(err, ErrIdentityRejected) {
		return true
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.HTTPStatus == http.StatusBadRequest || apiErr.HTTPStatus == http.StatusForbidden {
		return true
	}
	msg := strings.ToLower(apiErr.Msg)
	return strings.Contains(msg, "forbidden") || strings.Contains(msg, "cross region")
}

// IsTransportFailure returns true for HTTP-level failures, as opposed to
// vendor envelope codes and local validation errors.
func IsTransportFailure(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatus != 0
	}
	return false
}

// maskEmail redacts the local part of an address for log output.
func maskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return "***"
	}
	return "***" + email[at:]
}
