package giterror

import (
	"errors"
	"strings"

	openerrors "github.com/sirseerhq/sirseer-open/internal/errors"
)

// Inspector provides methods for analyzing API and run errors.
type Inspector interface {
	// IsAuthError returns true if the server rejected the credentials.
	IsAuthError(err error) bool

	// IsNotFoundError returns true if the requested resource does not exist.
	IsNotFoundError(err error) bool

	// IsNetworkError returns true if the request never produced a response.
	IsNetworkError(err error) bool

	// IsConnectionError returns true for any failed API call.
	IsConnectionError(err error) bool

	// IsTooManyResults returns true if the pull request limit aborted the run.
	IsTooManyResults(err error) bool
}

// MessageInspector classifies errors by their message only. It is the
// fallback for errors that lost their type on the way up.
type MessageInspector struct{}

// NewInspector returns the default inspector: error chain first, message second.
func NewInspector() Inspector {
	return NewErrorChainInspector(&MessageInspector{})
}

// IsAuthError checks if the error is an authentication or authorization error.
func (i *MessageInspector) IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "401") ||
		strings.Contains(errStr, "403") ||
		strings.Contains(errStr, "unauthorized") ||
		strings.Contains(errStr, "forbidden")
}

// IsNotFoundError checks if the error is a not found error.
func (i *MessageInspector) IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "404") ||
		strings.Contains(errStr, "not found")
}

// IsNetworkError checks if the error is a network connectivity error.
func (i *MessageInspector) IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") ||
		strings.Contains(errStr, "dial tcp") ||
		strings.Contains(errStr, "tls handshake") ||
		strings.Contains(errStr, "network is unreachable")
}

// IsConnectionError reports auth, not-found and network failures alike.
func (i *MessageInspector) IsConnectionError(err error) bool {
	return i.IsAuthError(err) || i.IsNotFoundError(err) || i.IsNetworkError(err)
}

// IsTooManyResults checks the message for the limit abort.
func (i *MessageInspector) IsTooManyResults(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "too many pull requests")
}

// ErrorChainInspector wraps a base inspector and checks the error chain with
// errors.Is and errors.As before falling back to the base.
type ErrorChainInspector struct {
	base Inspector
}

// NewErrorChainInspector creates a new ErrorChainInspector.
func NewErrorChainInspector(base Inspector) Inspector {
	return &ErrorChainInspector{base: base}
}

// IsAuthError checks the error chain first, then falls back to base inspector.
func (e *ErrorChainInspector) IsAuthError(err error) bool {
	var authErr interface{ IsAuthError() bool }
	if errors.As(err, &authErr) {
		return authErr.IsAuthError()
	}
	return e.base.IsAuthError(err)
}

// IsNotFoundError checks the error chain first, then falls back to base inspector.
func (e *ErrorChainInspector) IsNotFoundError(err error) bool {
	var notFoundErr interface{ IsNotFoundError() bool }
	if errors.As(err, &notFoundErr) {
		return notFoundErr.IsNotFoundError()
	}
	return e.base.IsNotFoundError(err)
}

// IsNetworkError checks the error chain first, then falls back to base inspector.
func (e *ErrorChainInspector) IsNetworkError(err error) bool {
	if errors.Is(err, openerrors.ErrNetworkFailure) {
		return true
	}
	if errors.Is(err, openerrors.ErrConnection) {
		return false
	}
	return e.base.IsNetworkError(err)
}

// IsConnectionError checks the error chain first, then falls back to base inspector.
func (e *ErrorChainInspector) IsConnectionError(err error) bool {
	if errors.Is(err, openerrors.ErrConnection) ||
		errors.Is(err, openerrors.ErrNetworkFailure) ||
		errors.Is(err, openerrors.ErrNotConnected) {
		return true
	}
	if errors.Is(err, openerrors.ErrTooManyResults) {
		return false
	}
	return e.base.IsConnectionError(err)
}

// IsTooManyResults checks the error chain first, then falls back to base inspector.
func (e *ErrorChainInspector) IsTooManyResults(err error) bool {
	if errors.Is(err, openerrors.ErrTooManyResults) {
		return true
	}
	return e.base.IsTooManyResults(err)
}
