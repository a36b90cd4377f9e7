package operations

import (
	"context"
	"errors"
	"fmt"
)

// ErrorType represents the type of operation error
type ErrorType string

const (
	ErrorTypeExecution    ErrorType = "execution"
	ErrorTypeTimeout      ErrorType = "timeout"
	ErrorTypeCancellation ErrorType = "cancellation"
	ErrorTypeExhausted    ErrorType = "exhausted"
	ErrorTypeInvalidState ErrorType = "invalid_state"
)

// OperationError tags a failure with the step it happened in
type OperationError struct {
	Type     ErrorType
	Step     string
	Message  string
	Cause    error
	Attempts int
}

// Error implements the error interface
func (e *OperationError) Error() string {
	if e == nil {
		return "unknown operation error"
	}
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Step != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Type, e.Step, msg)
	}
	return fmt.Sprintf("[%s] %s", e.Type, msg)
}

// Unwrap returns the underlying error
func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewExecutionError creates a new execution error
func NewExecutionError(step string, cause error) *OperationError {
	return &OperationError{
		Type:    ErrorTypeExecution,
		Step:    step,
		Message: "step execution failed",
		Cause:   cause,
	}
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(step string, timeout string, cause error) *OperationError {
	return &OperationError{
		Type:    ErrorTypeTimeout,
		Step:    step,
		Message: fmt.Sprintf("step exceeded timeout of %s", timeout),
		Cause:   cause,
	}
}

// NewCancellationError creates a new cancellation error
func NewCancellationError(step string, cause error) *OperationError {
	return &OperationError{
		Type:    ErrorTypeCancellation,
		Step:    step,
		Message: "operation was cancelled",
		Cause:   cause,
	}
}

// NewExhaustedError reports that every attempt failed; cause is the last failure
func NewExhaustedError(attempts int, cause error) *OperationError {
	return &OperationError{
		Type:     ErrorTypeExhausted,
		Message:  fmt.Sprintf("pipeline failed after %d attempt(s)", attempts),
		Cause:    cause,
		Attempts: attempts,
	}
}

// GetErrorType returns the type of the error
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ""
	}
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Type
	}
	return ErrorTypeExecution
}

// FailedStep returns the step an error was tagged with, or ""
func FailedStep(err error) string {
	var opErr *OperationError
	for errors.As(err, &opErr) {
		if opErr.Step != "" {
			return opErr.Step
		}
		err = opErr.Cause
	}
	return ""
}

// WrapError wraps an error with step context. Errors that already carry a
// step keep it.
func WrapError(err error, step string) error {
	if err == nil {
		return nil
	}

	var opErr *OperationError
	if errors.As(err, &opErr) && opErr.Step != "" {
		return err
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return NewTimeoutError(step, "deadline", err)
	case errors.Is(err, context.Canceled):
		return NewCancellationError(step, err)
	default:
		return NewExecutionError(step, err)
	}
}

// ErrStepNotFound is returned when a step is not registered
var ErrStepNotFound = &OperationError{
	Type:    ErrorTypeInvalidState,
	Message: "step not found",
}
