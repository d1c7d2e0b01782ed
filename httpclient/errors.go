package httpclient

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/influencore/apiclient/apierror"
)

// ErrClosed is returned for requests submitted after Close and for requests
// still waiting in the offline queue when the client closes.
var ErrClosed = errors.New("httpclient: client closed")

// Kind classifies request failures.
type Kind int

const (
	// KindUnknown covers anything not classified below, including malformed
	// success bodies.
	KindUnknown Kind = iota
	// KindTimeout means an attempt exceeded its timeout.
	KindTimeout
	// KindNetwork is a transport failure (refused, reset, DNS).
	KindNetwork
	// KindNetworkUnavailable means the request was issued while offline and
	// could not be queued.
	KindNetworkUnavailable
	// KindUnauthorized is a 401 response.
	KindUnauthorized
	// KindConflict is a 409 response.
	KindConflict
	// KindValidationFailed is a 400 or 422 response, or a request rejected
	// before dispatch.
	KindValidationFailed
	// KindRateLimited is a 429 response.
	KindRateLimited
	// KindServerError is a 5xx response.
	KindServerError
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindNetwork:
		return "network"
	case KindNetworkUnavailable:
		return "network_unavailable"
	case KindUnauthorized:
		return "unauthorized"
	case KindConflict:
		return "conflict"
	case KindValidationFailed:
		return "validation_failed"
	case KindRateLimited:
		return "rate_limited"
	case KindServerError:
		return "server_error"
	default:
		return "unknown"
	}
}

// Retryable reports whether failures of this kind may succeed on retry.
func (k Kind) Retryable() bool {
	switch k {
	case KindTimeout, KindNetwork, KindRateLimited:
		return true
	default:
		return false
	}
}

// Error is a classified request failure.
type Error struct {
	// Kind classifies the error.
	Kind Kind
	// StatusCode is the HTTP status code (0 when no response was received).
	StatusCode int
	// Message describes the error. For HTTP errors it comes from the error
	// payload or falls back to "HTTP {status}".
	Message string
	// Body is the raw response body (may be nil).
	Body []byte
	// Attempts is the number of attempts made before giving up.
	Attempts int
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("httpclient: %s (HTTP %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("httpclient: %s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether the error may succeed on retry.
func (e *Error) Retryable() bool {
	return e.Kind.Retryable()
}

func newTimeoutError(err error, timeout time.Duration) *Error {
	return &Error{
		Kind:    KindTimeout,
		Message: "request timed out after " + timeout.String(),
		Err:     err,
	}
}

func newNetworkError(err error) *Error {
	return &Error{
		Kind:    KindNetwork,
		Message: err.Error(),
		Err:     err,
	}
}

func newUnavailableError(err error) *Error {
	return &Error{
		Kind:    KindNetworkUnavailable,
		Message: "network unavailable",
		Err:     err,
	}
}

func newValidationError(err error) *Error {
	return &Error{
		Kind:    KindValidationFailed,
		Message: err.Error(),
		Err:     err,
	}
}

func newMalformedError(statusCode int, body []byte, err error) *Error {
	return &Error{
		Kind:       KindUnknown,
		StatusCode: statusCode,
		Message:    "malformed response",
		Body:       body,
		Err:        err,
	}
}

// ClassifyStatusCode converts an HTTP status code into a typed error.
// Returns nil for 2xx status codes.
func ClassifyStatusCode(statusCode int, body []byte) *Error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	e := &Error{
		Kind:       kindForStatus(statusCode),
		StatusCode: statusCode,
		Message:    fmt.Sprintf("HTTP %d", statusCode),
		Body:       body,
	}
	if msg, ok := apierror.ParseMessage(body); ok {
		e.Message = msg
	}
	return e
}

func kindForStatus(statusCode int) Kind {
	switch {
	case statusCode == http.StatusUnauthorized:
		return KindUnauthorized
	case statusCode == http.StatusConflict:
		return KindConflict
	case statusCode == http.StatusBadRequest || statusCode == http.StatusUnprocessableEntity:
		return KindValidationFailed
	case statusCode == http.StatusTooManyRequests:
		return KindRateLimited
	case statusCode >= 500 && statusCode < 600:
		return KindServerError
	default:
		return KindUnknown
	}
}

// KindOf returns the Kind of err, or KindUnknown when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func isKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool { return isKind(err, KindTimeout) }

// IsNetwork checks if an error is a transport failure.
func IsNetwork(err error) bool { return isKind(err, KindNetwork) }

// IsNetworkUnavailable checks if a request failed because the client was offline.
func IsNetworkUnavailable(err error) bool { return isKind(err, KindNetworkUnavailable) }

// IsUnauthorized checks if an error is a 401.
func IsUnauthorized(err error) bool { return isKind(err, KindUnauthorized) }

// IsConflict checks if an error is a 409.
func IsConflict(err error) bool { return isKind(err, KindConflict) }

// IsValidationFailed checks if an error is a validation failure.
func IsValidationFailed(err error) bool { return isKind(err, KindValidationFailed) }

// IsRateLimited checks if an error is a 429.
func IsRateLimited(err error) bool { return isKind(err, KindRateLimited) }

// IsServerError checks if an error is a 5xx.
func IsServerError(err error) bool { return isKind(err, KindServerError) }

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable()
}
