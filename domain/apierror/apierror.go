// Package apierror defines the typed failures surfaced by the client SDK.
// Every failed request yields exactly one of APIError, NetworkError, or
// TimeoutError; callers branch with errors.As instead of string matching.
package apierror

import (
	"fmt"

	"github.com/wellgate/wellgate/domain/envelope"
)

// APIError means a response was received and signalled failure, either via a
// non-2xx status or a failure envelope on a 2xx. Fields are copied verbatim
// from the failure envelope; none are mutated after construction.
type APIError struct {
	Message    string
	StatusCode int
	Path       string
	Method     string
	Errors     map[string]any
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Method != "" && e.Path != "" {
		return fmt.Sprintf("api error: %s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error: %d %s", e.StatusCode, e.Message)
}

// FromFailure constructs an APIError from a parsed failure envelope.
func FromFailure(f *envelope.Failure) *APIError {
	return &APIError{
		Message:    f.Message,
		StatusCode: f.StatusCode,
		Path:       f.Path,
		Method:     f.Method,
		Errors:     f.Errors,
	}
}

// IsClientError reports a 4xx status.
func (e *APIError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// IsServerError reports a 5xx status.
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// IsAuthError reports 401 or 403.
func (e *APIError) IsAuthError() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

// IsValidationError reports a 400 carrying field errors.
func (e *APIError) IsValidationError() bool {
	return e.StatusCode == 400 && len(e.Errors) > 0
}

// NetworkError means no response was received at all: connection refused,
// DNS failure, or the transport gave up before headers arrived.
type NetworkError struct {
	Message string
}

// NewNetworkError returns a NetworkError, defaulting the message when the
// transport gave none.
func NewNetworkError(message string) *NetworkError {
	if message == "" {
		message = "Network error occurred"
	}
	return &NetworkError{Message: message}
}

// Error implements the error interface.
func (e *NetworkError) Error() string { return e.Message }

// TimeoutError means the request was aborted or timed out before a response
// arrived. Distinct from NetworkError so callers can treat cancellation
// differently from connectivity loss.
type TimeoutError struct {
	Message string
}

// NewTimeoutError returns a TimeoutError with the default message unless one
// is given.
func NewTimeoutError(message string) *TimeoutError {
	if message == "" {
		message = "Request timeout"
	}
	return &TimeoutError{Message: message}
}

// Error implements the error interface.
func (e *TimeoutError) Error() string { return e.Message }
