package types

import (
	"fmt"
	"net/http"
)

// ErrorCode categorizes provider errors
type ErrorCode string

const (
	ErrCodeNetwork             ErrorCode = "network"
	ErrCodeTimeout             ErrorCode = "timeout"
	ErrCodeNotFound            ErrorCode = "not_found"
	ErrCodeMalformedResponse   ErrorCode = "malformed_response"
	ErrCodeProviderUnavailable ErrorCode = "provider_unavailable"
)

// String returns the string representation of the error code.
func (c ErrorCode) String() string {
	return string(c)
}

// ProviderError represents a standardized failure from a lookup provider
type ProviderError struct {
	Code        ErrorCode // Categorized error code
	Provider    string    // Which provider generated this error
	Message     string    // Human-readable message
	StatusCode  int       // HTTP status code (0 if not applicable)
	OriginalErr error     // Wrapped original error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("[%s] %s (status=%d, code=%s)", e.Provider, e.Message, e.StatusCode, e.Code)
	}
	return fmt.Sprintf("[%s] %s (code=%s)", e.Provider, e.Message, e.Code)
}

// Unwrap returns the original error for errors.Is/As
func (e *ProviderError) Unwrap() error {
	return e.OriginalErr
}

// Is reports whether target is a *ProviderError with the same code. When the target
// also names a provider, the provider must match as well.
func (e *ProviderError) Is(target error) bool {
	t, ok := target.(*ProviderError)
	if !ok || t == nil {
		return false
	}
	if t.Code != e.Code {
		return false
	}
	return t.Provider == "" || t.Provider == e.Provider
}

// Equal compares code, provider and message. StatusCode and OriginalErr are ignored.
func (e *ProviderError) Equal(other *ProviderError) bool {
	if e == nil || other == nil {
		return e == other
	}
	return e.Code == other.Code && e.Provider == other.Provider && e.Message == other.Message
}

// WithStatusCode sets the status code field and returns the error for chaining
func (e *ProviderError) WithStatusCode(statusCode int) *ProviderError {
	e.StatusCode = statusCode
	return e
}

// WithOriginalErr sets the original error field and returns the error for chaining
func (e *ProviderError) WithOriginalErr(err error) *ProviderError {
	e.OriginalErr = err
	return e
}

// WithProvider sets the provider field and returns the error for chaining
func (e *ProviderError) WithProvider(provider string) *ProviderError {
	e.Provider = provider
	return e
}

// NewProviderError creates a new ProviderError
func NewProviderError(provider string, code ErrorCode, message string) *ProviderError {
	return &ProviderError{
		Code:     code,
		Message:  message,
		Provider: provider,
	}
}

// NewNetworkError creates a new network error
func NewNetworkError(provider, message string) *ProviderError {
	return NewProviderError(provider, ErrCodeNetwork, message)
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(provider, message string) *ProviderError {
	return NewProviderError(provider, ErrCodeTimeout, message)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(provider, message string) *ProviderError {
	return NewProviderError(provider, ErrCodeNotFound, message)
}

// NewMalformedResponseError creates a new malformed response error
func NewMalformedResponseError(provider, message string) *ProviderError {
	return NewProviderError(provider, ErrCodeMalformedResponse, message)
}

// NewUnavailableError creates a new provider unavailable error
func NewUnavailableError(provider, message string) *ProviderError {
	return NewProviderError(provider, ErrCodeProviderUnavailable, message)
}

// ClassifyHTTPStatus determines the error code for a non-2xx HTTP status.
// Client errors other than 408 and 429 mean the postal code could not be resolved.
func ClassifyHTTPStatus(statusCode int) ErrorCode {
	switch {
	case statusCode == http.StatusRequestTimeout, statusCode == http.StatusGatewayTimeout:
		return ErrCodeTimeout
	case statusCode == http.StatusTooManyRequests:
		return ErrCodeProviderUnavailable
	case statusCode >= 400 && statusCode < 500:
		return ErrCodeNotFound
	default:
		return ErrCodeProviderUnavailable
	}
}
