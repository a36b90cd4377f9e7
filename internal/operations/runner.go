package operations

import (
	"context"
	"log/slog"

	"hrreport/internal/infrastructure"
)

// ErrorReporter emails a failure report. *notify.Mailer satisfies it.
type ErrorReporter interface {
	SendError(ctx context.Context, runID string, attempts int, errText string) error
}

// Result summarises a finished run
type Result struct {
	RunID    string
	Attempts int
	// State is the last attempt's state
	State *RunState
}

// Runner wraps the pipeline in the retry policy and reports exhaustion
type Runner struct {
	pipeline *Pipeline
	policy   RetryPolicy
	reporter ErrorReporter
	tracer   *OperationTracer
	logger   *slog.Logger
}

// NewRunner creates a runner. reporter may be nil to skip the error email.
func NewRunner(pipeline *Pipeline, policy RetryPolicy, reporter ErrorReporter, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		pipeline: pipeline,
		policy:   policy,
		reporter: reporter,
		tracer:   pipeline.tracer,
		logger:   logger,
	}
}

// Run attempts the pipeline until it succeeds or the policy gives up. When
// every attempt has failed the error email is sent and an *OperationError of
// type exhausted wrapping the last failure is returned.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	runID := infrastructure.RunID(ctx)
	if runID == "" {
		ctx = infrastructure.NewRunContext(ctx)
		runID = infrastructure.RunID(ctx)
	}
	result := &Result{RunID: runID}

	r.logger.InfoContext(ctx, "Run started",
		slog.Int("max_attempts", r.policy.MaxAttempts),
		slog.Duration("retry_delay", r.policy.Delay))

	attempts, err := r.policy.Do(ctx, func(ctx context.Context, attempt int) error {
		state, err := r.pipeline.RunOnce(ctx, runID, attempt)
		result.State = state
		if err != nil {
			r.logger.WarnContext(ctx, "Attempt failed",
				slog.Int("attempt", attempt),
				slog.Int("max_attempts", r.policy.MaxAttempts),
				slog.String("step", FailedStep(err)),
				slog.String("error", err.Error()))
		}
		return err
	})
	result.Attempts = attempts

	if err == nil {
		r.logger.InfoContext(ctx, "Run completed", slog.Int("attempts", attempts))
		return result, nil
	}

	if ctx.Err() != nil {
		r.logger.WarnContext(ctx, "Run cancelled", slog.Int("attempts", attempts))
		return result, NewCancellationError("", err)
	}

	r.logger.ErrorContext(ctx, "All attempts failed",
		slog.Int("attempts", attempts),
		slog.String("error", err.Error()))
	r.reportFailure(ctx, runID, attempts, err)
	return result, NewExhaustedError(attempts, err)
}

func (r *Runner) reportFailure(ctx context.Context, runID string, attempts int, err error) {
	if r.reporter == nil {
		return
	}
	if sendErr := r.reporter.SendError(ctx, runID, attempts, err.Error()); sendErr != nil {
		r.logger.ErrorContext(ctx, "Failed to send error email", slog.String("error", sendErr.Error()))
		return
	}
	r.tracer.RecordEmail(ctx, "error")
}
