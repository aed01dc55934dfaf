package http

import (
	"fmt"
	"net/http"
)

// Error codes returned in AppError.Code.
const (
	CodeValidation       = "ERR_VALIDATION"
	CodeUpstream         = "ERR_UPSTREAM"
	CodeSuperseded       = "ERR_SUPERSEDED"
	CodeModelUnavailable = "ERR_MODEL_UNAVAILABLE"
	CodeCancelled        = "ERR_CANCELLED"
	CodeRateLimited      = "ERR_RATE_LIMITED"
	CodeInternal         = "ERR_INTERNAL"
)

// AppError is an error the API reports to clients with its own status code.
type AppError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Field   string                 `json:"field,omitempty"`
	Params  map[string]interface{} `json:"params,omitempty"`
	Status  int                    `json:"-"`
	Err     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates an error with the given code and status.
func NewAppError(code, field, message string, status int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Field:   field,
		Status:  status,
	}
}

// WithParam attaches a detail the client can render, e.g. the accepted range.
func (e *AppError) WithParam(key string, value interface{}) *AppError {
	if e.Params == nil {
		e.Params = make(map[string]interface{})
	}
	e.Params[key] = value
	return e
}

// WithError keeps the cause for logs. It is never serialized.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// ValidationFailedError rejects one input field with 400.
func ValidationFailedError(field, message string) *AppError {
	return NewAppError(CodeValidation, field, message, http.StatusBadRequest)
}

// SupersededError reports a request replaced by a newer one for the same slot.
func SupersededError(message string) *AppError {
	return NewAppError(CodeSuperseded, "", message, http.StatusConflict)
}

// ModelUnavailableError reports a model the scoring API has disabled.
func ModelUnavailableError(message string) *AppError {
	return NewAppError(CodeModelUnavailable, "model", message, http.StatusConflict)
}

// CancelledError reports work abandoned because the request or server went away.
func CancelledError(err error) *AppError {
	return NewAppError(CodeCancelled, "", "request cancelled", http.StatusServiceUnavailable).WithError(err)
}

func TooManyRequestsError(message string) *AppError {
	return NewAppError(CodeRateLimited, "", message, http.StatusTooManyRequests)
}

// BadGatewayError reports a failure of the scoring API.
func BadGatewayError(message string) *AppError {
	return NewAppError(CodeUpstream, "", message, http.StatusBadGateway)
}

func InternalError(message string) *AppError {
	return NewAppError(CodeInternal, "", message, http.StatusInternalServerError)
}
