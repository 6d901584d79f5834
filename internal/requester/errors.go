package requester

import (
	"errors"
	"fmt"
)

// ErrNoRefreshToken is reported to the revoke callback when a 401 cannot be
// recovered because no refresh token is available.
var ErrNoRefreshToken = errors.New("no refresh token available")

// NetworkError is the error surfaced to callers of the session layer. Details
// carries the server-provided payload for field-level messages.
type NetworkError struct {
	Message string
	Details any
	Err     error
}

func NewNetworkError(message string, err error) *NetworkError {
	return &NetworkError{
		Message: message,
		Details: ErrorDetails(err),
		Err:     err,
	}
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// TransportError is a failure before any response was received
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request failed: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPStatusError is a response outside the 2xx range
type HTTPStatusError struct {
	StatusCode int
	Details    any
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("invalid status code: %d", e.StatusCode)
}

// AuthExpiredError means a 401 could not be recovered by refreshing the
// token; the session has been revoked.
type AuthExpiredError struct {
	Err error
}

func (e *AuthExpiredError) Error() string {
	if e.Err != nil {
		return "authentication expired: " + e.Err.Error()
	}
	return "authentication expired"
}

func (e *AuthExpiredError) Unwrap() error {
	return e.Err
}

// ErrorDetails returns the first details payload found in err's chain
func ErrorDetails(err error) any {
	var netErr *NetworkError
	if errors.As(err, &netErr) && netErr.Details != nil {
		return netErr.Details
	}
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.Details
	}
	return nil
}

// IsAuthExpired reports whether err means the session was revoked
func IsAuthExpired(err error) bool {
	var expired *AuthExpiredError
	return errors.As(err, &expired)
}

// StatusCode returns the HTTP status carried by err, or 0
func StatusCode(err error) int {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}
