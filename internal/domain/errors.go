package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates resource not found
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidRequest indicates invalid request
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUnauthorized indicates unauthorized access
	ErrUnauthorized = errors.New("unauthorized")
	// ErrRateLimited indicates rate limit exceeded
	ErrRateLimited = errors.New("rate limit exceeded")
)

// ErrorCode classifies a gateway failure. The retry loop and the error-log
// writer branch on these values rather than on concrete error types.
type ErrorCode string

const (
	// CodeValidation covers caller or provider contract violations; never retried.
	CodeValidation ErrorCode = "validation_error"
	// CodeAPI covers transient transport or provider failures; retried up to the cap.
	CodeAPI ErrorCode = "api_error"
	// CodeRateLimit is the provider's explicit backpressure signal; never retried.
	CodeRateLimit ErrorCode = "rate_limit_error"
	// CodeUnexpected wraps anything else; never retried.
	CodeUnexpected ErrorCode = "unexpected_error"
)

// GatewayError is a classified failure from the outbound chat gateway.
type GatewayError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// NewValidationError creates a terminal validation failure
func NewValidationError(msg string) *GatewayError {
	return &GatewayError{Code: CodeValidation, Message: msg}
}

// NewAPIError creates a retryable provider/transport failure
func NewAPIError(msg string) *GatewayError {
	return &GatewayError{Code: CodeAPI, Message: msg}
}

// NewRateLimitError creates a terminal backpressure failure
func NewRateLimitError(msg string) *GatewayError {
	return &GatewayError{Code: CodeRateLimit, Message: msg}
}

// WrapUnexpected wraps an unanticipated error so it surfaces classified
func WrapUnexpected(err error) *GatewayError {
	return &GatewayError{Code: CodeUnexpected, Message: "unexpected error", Err: err}
}

// ClassifyError maps any error to its gateway code. Errors that did not come
// out of the gateway fall back to CodeUnexpected, except the service-level
// sentinels which keep their own codes in error logs.
func ClassifyError(err error) ErrorCode {
	var gw *GatewayError
	if errors.As(err, &gw) {
		return gw.Code
	}
	if errors.Is(err, ErrRateLimited) {
		return CodeRateLimit
	}
	if errors.Is(err, ErrInvalidRequest) {
		return CodeValidation
	}
	return CodeUnexpected
}
