// internal/portal/errors.go
package portal

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies a failed portal call
type ErrorCode string

const (
	ErrCodeSessionExpired ErrorCode = "SESSION_EXPIRED"
	ErrCodeTransient      ErrorCode = "TRANSIENT"
	ErrCodeHTTPStatus     ErrorCode = "HTTP_STATUS"
	ErrCodeParse          ErrorCode = "PARSE"
)

// ErrSessionExpired matches any session expiry error with errors.Is
var ErrSessionExpired = &Error{Code: ErrCodeSessionExpired, Message: "session expired"}

// Error is a failed portal call
type Error struct {
	Code       ErrorCode
	Message    string
	StatusCode int
	URL        string
	// CredentialVersion is the credential version the request was sent with
	CredentialVersion uint64
	Underlying        error
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.URL != "" {
		msg += " " + e.URL
	}
	if e.Underlying != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Underlying)
	}
	return msg
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Underlying
}

// Is matches errors with the same code
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// GetStatusCode exposes the HTTP status to the retry classifier
func (e *Error) GetStatusCode() int {
	return e.StatusCode
}

// statusError maps an HTTP status to the portal error taxonomy
func statusError(status int, url string, version uint64) *Error {
	e := &Error{
		StatusCode:        status,
		URL:               url,
		CredentialVersion: version,
		Message:           http.StatusText(status),
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.Code = ErrCodeSessionExpired
	case status == http.StatusTooManyRequests || status >= 500:
		e.Code = ErrCodeTransient
	default:
		e.Code = ErrCodeHTTPStatus
	}
	return e
}

// IsSessionExpired reports whether err is a credential rejection
func IsSessionExpired(err error) bool {
	return errors.Is(err, ErrSessionExpired)
}

// ExpiredVersion returns the credential version a session expiry error was raised for
func ExpiredVersion(err error) (uint64, bool) {
	var pe *Error
	if errors.As(err, &pe) && pe.Code == ErrCodeSessionExpired {
		return pe.CredentialVersion, true
	}
	return 0, false
}
