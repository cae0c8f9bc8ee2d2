package advisor

import (
	"fmt"
	"net/http"

	"finadvisor/internal/models"
)

// ServiceError represents errors from the advisor service with HTTP context
type ServiceError struct {
	Code       string
	Message    string
	StatusCode int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Error constructors for common service errors

func NewSymbolNotFoundError(symbol string) *ServiceError {
	return &ServiceError{
		Code:       models.ErrorCodeSymbolNotFound,
		Message:    fmt.Sprintf("symbol '%s' not found", symbol),
		StatusCode: http.StatusNotFound,
	}
}

func NewUpstreamTimeoutError(message string, err error) *ServiceError {
	return &ServiceError{
		Code:       models.ErrorCodeUpstreamTimeout,
		Message:    message,
		StatusCode: http.StatusGatewayTimeout,
		Err:        err,
	}
}

func NewUpstreamUnavailableError(message string, err error) *ServiceError {
	return &ServiceError{
		Code:       models.ErrorCodeUpstreamError,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Err:        err,
	}
}

func NewModelRefusalError() *ServiceError {
	return &ServiceError{
		Code:       models.ErrorCodeModelRefusal,
		Message:    "model returned no usable answer",
		StatusCode: http.StatusBadGateway,
	}
}

func NewInvalidRequestError(message string, err error) *ServiceError {
	return &ServiceError{
		Code:       models.ErrorCodeInvalidRequest,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Err:        err,
	}
}

func NewInternalError(message string, err error) *ServiceError {
	return &ServiceError{
		Code:       models.ErrorCodeInternalError,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}
