package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeDownloadTimeout ErrorType = "DOWNLOAD_TIMEOUT"
	ErrTypeExtraction      ErrorType = "EXTRACTION"
	ErrTypeMissingArtifact ErrorType = "MISSING_ARTIFACT"
	ErrTypeTransform       ErrorType = "TRANSFORM"
	ErrTypeAutomation      ErrorType = "AUTOMATION"
	ErrTypeNotification    ErrorType = "NOTIFICATION"
	ErrTypeConfig          ErrorType = "CONFIG"
)

// Sentinel errors. Compare with errors.Is; never call WithContext on them.
var (
	ErrDownloadTimeout  = NewAppError(ErrTypeDownloadTimeout, "no completed archive before timeout", nil)
	ErrWorkbookNotFound = NewAppError(ErrTypeMissingArtifact, "no .xlsx entry in archive", nil)
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// TypeOf returns the type of the first AppError in err's chain, or "".
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// IsType reports whether err's chain holds an AppError of type t
func IsType(err error, t ErrorType) bool {
	return TypeOf(err) == t
}

// NewExtractionError creates an archive extraction error
func NewExtractionError(message string, cause error) *AppError {
	return NewAppError(ErrTypeExtraction, message, cause)
}

// NewMissingArtifactError creates an error for a file that should exist but does not
func NewMissingArtifactError(path string) *AppError {
	return NewAppError(ErrTypeMissingArtifact, fmt.Sprintf("%s not found", path), nil).
		WithContext("path", path)
}

// NewTransformError creates a data loading or reporting error
func NewTransformError(message string, cause error) *AppError {
	return NewAppError(ErrTypeTransform, message, cause)
}

// NewAutomationError creates a browser automation error
func NewAutomationError(message string, cause error) *AppError {
	return NewAppError(ErrTypeAutomation, message, cause)
}

// NewNotificationError creates an email delivery error
func NewNotificationError(message string, cause error) *AppError {
	return NewAppError(ErrTypeNotification, message, cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}
