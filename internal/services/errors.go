// Package services provides the business logic layer between handlers and
// the analytics packages. Services validate requests, orchestrate methods
// and shape results for presentation.
package services

import (
	"errors"
	"fmt"
)

// Error codes carried by ServiceError and MethodWarning.
const (
	CodeDataLoad         = "DATA_LOAD_FAILED"
	CodeInvalidRange     = "INVALID_RANGE"
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeInvalidParameter = "INVALID_PARAMETER"
	CodeNoData           = "NO_DATA"
	CodeInternal         = "INTERNAL_ERROR"

	CodeInsufficientData = "INSUFFICIENT_DATA"
	CodeDegenerateSeries = "DEGENERATE_SERIES"
	CodeModelFit         = "MODEL_FIT_FAILED"
)

// ErrInvalidRange is wrapped by ServiceErrors for bad date ranges or horizons.
var ErrInvalidRange = errors.New("invalid range")

// ServiceError represents a service layer error
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`

	err error
}

func (e *ServiceError) Error() string {
	return e.Message
}

// Unwrap exposes the underlying error for errors.Is.
func (e *ServiceError) Unwrap() error {
	return e.err
}

// NewServiceError creates a new ServiceError
func NewServiceError(code, message string) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
	}
}

// NewServiceErrorWithDetails creates a new ServiceError with details
func NewServiceErrorWithDetails(code, message string, details map[string]interface{}) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// WrapServiceError creates a ServiceError whose message is err's message.
func WrapServiceError(code string, err error) *ServiceError {
	return &ServiceError{Code: code, Message: err.Error(), err: err}
}

func invalidRange(format string, args ...interface{}) *ServiceError {
	err := fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidRange}, args...)...)
	return WrapServiceError(CodeInvalidRange, err)
}
