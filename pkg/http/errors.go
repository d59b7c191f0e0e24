package http

import (
	"errors"
	"fmt"
	"net/http"

	"CoinPulse/internal/domain/models"
)

// AppError represents application-level error with HTTP status.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new application error.
func NewAppError(code, field, message string, status int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Field:   field,
		Status:  status,
	}
}

// WithError wraps an underlying error.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// InternalError creates a 500 error.
func InternalError(message string) *AppError {
	return NewAppError("ERR_INTERNAL", "", message, http.StatusInternalServerError)
}

// FromDomainError maps a pipeline failure to an AppError.
func FromDomainError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	switch models.ClassifyError(err) {
	case models.KindConfig:
		return NewAppError("ERR_CONFIG", "", "service is misconfigured", http.StatusInternalServerError).WithError(err)
	case models.KindTimeout:
		return NewAppError("ERR_TIMEOUT", "", "research timed out", http.StatusGatewayTimeout).WithError(err)
	case models.KindCancelled:
		return NewAppError("ERR_CANCELLED", "", "request cancelled", http.StatusServiceUnavailable).WithError(err)
	case models.KindProvider:
		return NewAppError("ERR_UPSTREAM", "", "upstream provider failed", http.StatusBadGateway).WithError(err)
	}
	return InternalError("research failed").WithError(err)
}
