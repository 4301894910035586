package errors

import (
	"errors"
	"fmt"
)

// Common application errors
var (
	ErrEmptyDataset         = errors.New("dataset has no samples")
	ErrShapeMismatch        = errors.New("tensor shape mismatch")
	ErrInvalidSensorIndex   = errors.New("sensor index out of range")
	ErrInvalidLags          = errors.New("lags must be positive")
	ErrSplitOverlap         = errors.New("index splits are not disjoint")
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrScalerNotFitted      = errors.New("scaler has not been fitted")
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeConfiguration ErrorType = "configuration"
	ErrorTypeTraining      ErrorType = "training"
	ErrorTypeInternal      ErrorType = "internal"
)

// AppError represents an application-specific error with additional context
type AppError struct {
	Type    ErrorType              `json:"type"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details string                 `json:"details,omitempty"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:    errType,
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error with application context
func WrapError(err error, errType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// NewValidationError creates a validation error
func NewValidationError(code, message string) *AppError {
	return NewAppError(ErrorTypeValidation, code, message)
}

// NewConfigurationError creates a configuration error wrapping the
// ErrInvalidConfiguration sentinel
func NewConfigurationError(code, message string) *AppError {
	return WrapError(ErrInvalidConfiguration, ErrorTypeConfiguration, code, message)
}

// NewTrainingError creates a training error
func NewTrainingError(code, message string) *AppError {
	return NewAppError(ErrorTypeTraining, code, message)
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return NewAppError(ErrorTypeInternal, "INTERNAL_ERROR", message)
}

// Error codes for different error scenarios
const (
	// Validation error codes
	CodeInvalidInput    = "INVALID_INPUT"
	CodeShapeMismatch   = "SHAPE_MISMATCH"
	CodeEmptyDataset    = "EMPTY_DATASET"
	CodeIndexOutOfRange = "INDEX_OUT_OF_RANGE"
	CodeSplitOverlap    = "SPLIT_OVERLAP"
	CodeScalerNotFitted = "SCALER_NOT_FITTED"

	// Configuration error codes
	CodeInvalidParameter = "INVALID_PARAMETER"
	CodeMissingParameter = "MISSING_PARAMETER"

	// Training error codes
	CodeTrainingFailed   = "TRAINING_FAILED"
	CodeSnapshotMismatch = "SNAPSHOT_MISMATCH"
)
