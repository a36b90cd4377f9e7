package operations

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapError(t *testing.T) {
	base := errors.New("boom")

	tests := []struct {
		name     string
		err      error
		wantType ErrorType
		wantStep string
	}{
		{"plain", base, ErrorTypeExecution, "extract"},
		{"deadline", fmt.Errorf("wait: %w", context.DeadlineExceeded), ErrorTypeTimeout, "extract"},
		{"canceled", context.Canceled, ErrorTypeCancellation, "extract"},
		{"already tagged", NewExecutionError("download", base), ErrorTypeExecution, "download"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := WrapError(tt.err, "extract")
			assert.Equal(t, tt.wantType, GetErrorType(err))
			assert.Equal(t, tt.wantStep, FailedStep(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}

	assert.NoError(t, WrapError(nil, "extract"))
}

func TestFailedStepThroughExhausted(t *testing.T) {
	err := NewExhaustedError(3, WrapError(errors.New("no archive"), StageIDDownload))

	assert.Equal(t, ErrorTypeExhausted, GetErrorType(err))
	assert.Equal(t, StageIDDownload, FailedStep(err))
	assert.Contains(t, err.Error(), "after 3 attempt(s)")
	assert.Contains(t, err.Error(), "no archive")
	assert.Empty(t, FailedStep(errors.New("untagged")))
}
