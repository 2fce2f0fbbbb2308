package models

import "fmt"

// Error codes used in API responses and internal error handling.
const (
	ErrCodeNetwork      = "NETWORK_FAILURE"
	ErrCodeParse        = "PARSE_FAILURE"
	ErrCodeRender       = "RENDER_FAILURE"
	ErrCodeBrowserCrash = "BROWSER_CRASH"
	ErrCodeTimeout      = "TIMEOUT"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeInternal     = "INTERNAL_ERROR"

	// Provider-related error codes. These never reach end users; the
	// orchestrator logs them and moves on to the next provider.
	ErrCodeProviderFailure     = "PROVIDER_FAILURE"
	ErrCodeProviderTimeout     = "PROVIDER_TIMEOUT"
	ErrCodeProviderUnavailable = "PROVIDER_UNAVAILABLE"
)

// ErrorDetail is the structured error carried in logs and MCP tool output.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PageError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type PageError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *PageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PageError) Unwrap() error {
	return e.Err
}

// NewPageError creates a new PageError.
func NewPageError(code, message string, err error) *PageError {
	return &PageError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *PageError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}
