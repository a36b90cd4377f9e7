package operations

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrreport/internal/config"
)

func TestRetryPolicyAlwaysFailing(t *testing.T) {
	failure := errors.New("boom")
	policy := RetryPolicy{MaxAttempts: 3, Delay: 20 * time.Millisecond}

	var seen []int
	start := time.Now()
	attempts, err := policy.Do(context.Background(), func(_ context.Context, attempt int) error {
		seen = append(seen, attempt)
		return failure
	})
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, failure)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []int{1, 2, 3}, seen)
	// two delays, none after the last attempt
	assert.GreaterOrEqual(t, elapsed, 40*time.Millisecond)
	assert.Less(t, elapsed, 60*time.Millisecond+time.Second/2)
}

func TestRetryPolicyStopsOnSuccess(t *testing.T) {
	calls := 0
	attempts, err := RetryPolicy{MaxAttempts: 3}.Do(context.Background(), func(context.Context, int) error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, 2, calls)
}

func TestRetryPolicyCancelledDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := RetryPolicy{MaxAttempts: 3, Delay: time.Hour}

	attempts, err := policy.Do(ctx, func(context.Context, int) error {
		cancel()
		return errors.New("fail")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestRetryPolicyZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_, _ = RetryPolicy{}.Do(context.Background(), func(context.Context, int) error {
		calls++
		return errors.New("fail")
	})
	assert.Equal(t, 1, calls)
}

func TestNewRetryPolicy(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.RetryConfig
		want RetryPolicy
	}{
		{"configured", config.RetryConfig{MaxAttempts: 5, Delay: 2 * time.Second}, RetryPolicy{5, 2 * time.Second}},
		{"defaults", config.RetryConfig{MaxAttempts: 0, Delay: -1}, DefaultRetryPolicy()},
		{"zero delay kept", config.RetryConfig{MaxAttempts: 3}, RetryPolicy{3, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewRetryPolicy(tt.cfg))
		})
	}
	assert.Equal(t, RetryPolicy{MaxAttempts: 3, Delay: time.Second}, DefaultRetryPolicy())
}
