package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork         ErrorType = "network"
	ErrorTypeHTTP            ErrorType = "http"
	ErrorTypeRateLimit       ErrorType = "rate_limit"
	ErrorTypeNotFound        ErrorType = "not_found"
	ErrorTypeServerError     ErrorType = "server_error"
	ErrorTypeParsing         ErrorType = "parsing"
	ErrorTypeAlreadyExists   ErrorType = "already_exists"
	ErrorTypeUnsupportedType ErrorType = "unsupported_type"
	ErrorTypeInvalidURL      ErrorType = "invalid_url"
	ErrorTypeInterrupted     ErrorType = "interrupted"
	ErrorTypeUnknown         ErrorType = "unknown"
)

// Error is a typed error carrying the HTTP status (0 when not applicable)
// and the URL being processed.
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	URL     string
	Err     error
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error for url.
func New(t ErrorType, url, msg string) *Error {
	return &Error{Type: t, URL: url, Message: msg}
}

// Wrap creates a typed error for url around cause.
func Wrap(t ErrorType, url string, cause error) *Error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return &Error{Type: t, URL: url, Message: msg, Err: cause}
}

// FromStatus maps a non-2xx HTTP status to a typed error.
func FromStatus(code int, url string) *Error {
	t := ErrorTypeHTTP
	switch {
	case code == 404 || code == 410:
		t = ErrorTypeNotFound
	case code == 429:
		t = ErrorTypeRateLimit
	case code >= 500:
		t = ErrorTypeServerError
	}
	return &Error{
		Type:    t,
		Message: fmt.Sprintf("HTTP ERROR: Code %d for %s", code, url),
		Code:    code,
		URL:     url,
	}
}

// TypeOf returns the type of the first *Error in err's chain, or
// ErrorTypeUnknown.
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsType reports whether err's chain holds an *Error of type t.
func IsType(err error, t ErrorType) bool {
	var e *Error
	return errors.As(err, &e) && e.Type == t
}

// IsRetryable checks if an error type should be retried. Fetching a file is
// retried on any transport or status failure; local conditions are not.
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeAlreadyExists, ErrorTypeUnsupportedType, ErrorTypeInvalidURL,
		ErrorTypeParsing, ErrorTypeInterrupted:
		return false
	default:
		return true
	}
}
