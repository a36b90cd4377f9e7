package operations

import (
	"context"
	"time"

	"hrreport/internal/config"
)

// RetryPolicy runs an operation up to MaxAttempts times with a fixed Delay
// between attempts
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// NewRetryPolicy builds a policy from config, falling back to the defaults
func NewRetryPolicy(cfg config.RetryConfig) RetryPolicy {
	p := RetryPolicy{MaxAttempts: cfg.MaxAttempts, Delay: cfg.Delay}
	if p.MaxAttempts < 1 {
		p.MaxAttempts = config.DefaultMaxAttempts
	}
	if p.Delay < 0 {
		p.Delay = config.DefaultRetryDelay
	}
	return p
}

// DefaultRetryPolicy is three attempts one second apart
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: config.DefaultMaxAttempts, Delay: config.DefaultRetryDelay}
}

// Do calls fn until it succeeds or MaxAttempts calls have failed, and
// returns the number of calls made with the last error. There is no delay
// after the final attempt. A cancelled ctx stops the loop with ctx.Err().
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) (int, error) {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	attempts := 0
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return attempts, err
		}

		attempts = attempt
		lastErr = fn(ctx, attempt)
		if lastErr == nil {
			return attempts, nil
		}
		if attempt == maxAttempts {
			break
		}

		timer := time.NewTimer(p.Delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return attempts, ctx.Err()
		}
	}
	return attempts, lastErr
}
