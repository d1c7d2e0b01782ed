package apierror

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Code is the machine-readable identifier carried in an error body.
type Code string

const (
	CodeUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimited   Code = "RATE_LIMITED"
	CodeAlreadyExists Code = "ALREADY_EXISTS"
	CodeInvalidInput  Code = "INVALID_INPUT"
	CodeMalformed     Code = "MALFORMED_REQUEST"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeTokenExpired  Code = "TOKEN_EXPIRED"
	CodeInvalidToken  Code = "INVALID_TOKEN"
	CodeInternal      Code = "INTERNAL_ERROR"
)

type codeInfo struct {
	status    int
	retryable bool
}

var codeTable = map[Code]codeInfo{
	CodeUnavailable:   {http.StatusServiceUnavailable, true},
	CodeRateLimited:   {http.StatusTooManyRequests, true},
	CodeAlreadyExists: {http.StatusConflict, false},
	CodeInvalidInput:  {http.StatusUnprocessableEntity, false},
	CodeMalformed:     {http.StatusBadRequest, false},
	CodeUnauthorized:  {http.StatusUnauthorized, false},
	CodeTokenExpired:  {http.StatusUnauthorized, false},
	CodeInvalidToken:  {http.StatusUnauthorized, false},
	CodeInternal:      {http.StatusInternalServerError, false},
}

// Status returns the HTTP status a code is served with. Unknown codes map
// to 500.
func (c Code) Status() int {
	if info, ok := codeTable[c]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// Retryable reports whether a client may repeat a request that failed
// with this code.
func (c Code) Retryable() bool {
	return codeTable[c].retryable
}

// AppError is an error the mock backend renders as a JSON error body.
type AppError struct {
	Code    Code
	Message string
	Details map[string]any
	Cause   error
}

// New builds an AppError for code.
func New(code Code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s (%s)", e.Message, e.Code)
	}
	return fmt.Sprintf("%s (%s): %v", e.Message, e.Code, e.Cause)
}

func (e *AppError) Unwrap() error { return e.Cause }

// Status is the HTTP status for the error's code.
func (e *AppError) Status() int { return e.Code.Status() }

// WithCause attaches the underlying error.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail adds key to the details map sent to clients.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = value
	return e
}

// AsAppError finds an AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := stderrors.As(err, &appErr)
	return appErr, ok
}

func ServiceUnavailable(service string) *AppError {
	return New(CodeUnavailable, "The "+service+" is temporarily unavailable. Please try again.").
		WithDetail("service", service)
}

func RateLimited() *AppError {
	return New(CodeRateLimited, "Too many requests. Please wait a moment and try again.")
}

// AlreadyExists is returned when signing up with a registered email.
func AlreadyExists(resource string) *AppError {
	return New(CodeAlreadyExists, "A "+resource+" with these details already exists.").
		WithDetail("resource", resource)
}

// Validation reports input that parsed but failed field checks.
func Validation(message string) *AppError {
	return New(CodeInvalidInput, message)
}

// Malformed reports a body that could not be decoded at all.
func Malformed(cause error) *AppError {
	return New(CodeMalformed, "Malformed request body.").WithCause(cause)
}

func Unauthorized(reason string) *AppError {
	if reason == "" {
		reason = "Authentication required."
	}
	return New(CodeUnauthorized, reason)
}

func TokenExpired() *AppError {
	return New(CodeTokenExpired, "Your session has expired. Please log in again.")
}

func InvalidToken() *AppError {
	return New(CodeInvalidToken, "Invalid authentication token. Please log in again.")
}

// Internal hides cause from the response body; it stays on the error for
// logging.
func Internal(cause error) *AppError {
	return New(CodeInternal, "An unexpected error occurred. Please try again or contact support.").
		WithCause(cause)
}
