package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Pipeline runs the registered steps in order, once per call to RunOnce
type Pipeline struct {
	registry *Registry
	config   *Config
	tracer   *OperationTracer
	logger   *slog.Logger
}

// NewPipeline creates a pipeline over registry
func NewPipeline(registry *Registry, config *Config, tracer *OperationTracer, logger *slog.Logger) *Pipeline {
	if registry == nil {
		registry = NewRegistry()
	}
	if config == nil {
		config = &Config{Retry: DefaultRetryPolicy()}
	}
	if tracer == nil {
		tracer = NewOperationTracer(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{registry: registry, config: config, tracer: tracer, logger: logger}
}

// Registry returns the step registry
func (p *Pipeline) Registry() *Registry {
	return p.registry
}

// RunOnce executes every step from scratch. The first failing step stops the
// attempt and the remaining steps are marked skipped. Any browser opened
// during the attempt is closed before returning.
func (p *Pipeline) RunOnce(ctx context.Context, runID string, attempt int) (*RunState, error) {
	state := NewRunState(runID, attempt)
	defer func() {
		if err := state.CloseBrowser(); err != nil {
			p.logger.WarnContext(ctx, "Failed to close browser", slog.String("error", err.Error()))
		}
	}()

	ctx, span := p.tracer.TraceAttempt(ctx, runID, attempt)
	defer span.End()

	steps := p.registry.List()
	for _, step := range steps {
		state.SetStep(step.ID(), NewStepState(step.ID(), step.Name()))
	}

	state.Start()
	p.logger.InfoContext(ctx, "Attempt started",
		slog.Int("attempt", attempt),
		slog.Int("step_count", len(steps)))

	err := p.executeSequential(ctx, state, steps)
	if err != nil {
		state.Fail(err)
	} else {
		state.Complete()
	}
	p.tracer.RecordAttemptCompletion(ctx, span, state.Duration(), err)
	return state, err
}

// executeSequential executes steps one by one
func (p *Pipeline) executeSequential(ctx context.Context, state *RunState, steps []Step) error {
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			p.skipRemaining(state, steps[i:], "operation cancelled")
			return NewCancellationError(step.ID(), err)
		}

		p.logger.InfoContext(ctx, "Executing step",
			slog.String("step", step.ID()),
			slog.Int("step_number", i+1),
			slog.Int("total_steps", len(steps)))

		if err := p.executeStep(ctx, state, step); err != nil {
			p.skipRemaining(state, steps[i+1:], fmt.Sprintf("previous step %s failed", step.ID()))
			return err
		}
	}

	p.logger.InfoContext(ctx, "All steps completed", slog.Duration("duration", state.Duration()))
	return nil
}

// executeStep runs one step under its timeout
func (p *Pipeline) executeStep(ctx context.Context, state *RunState, step Step) error {
	stepState := state.GetStep(step.ID())
	timeout := p.config.GetStageTimeout(step.ID())

	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	stepCtx, span := p.tracer.TraceStep(stepCtx, step.ID())
	defer span.End()

	stepState.Start()
	start := time.Now()
	err := step.Execute(stepCtx, state)
	duration := time.Since(start)

	if err != nil && ctx.Err() == nil && errors.Is(stepCtx.Err(), context.DeadlineExceeded) {
		err = NewTimeoutError(step.ID(), timeout.String(), err)
	}
	err = WrapError(err, step.ID())
	p.tracer.RecordStepCompletion(stepCtx, span, step.ID(), duration, err)

	if err != nil {
		stepState.Fail(err)
		p.logger.ErrorContext(ctx, "Step failed",
			slog.String("step", step.ID()),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return err
	}

	stepState.Complete()
	p.logger.InfoContext(ctx, "Step completed",
		slog.String("step", step.ID()),
		slog.Duration("duration", duration))
	return nil
}

func (p *Pipeline) skipRemaining(state *RunState, steps []Step, reason string) {
	for _, step := range steps {
		if s := state.GetStep(step.ID()); s != nil && s.GetStatus() == StepStatusPending {
			s.Skip(reason)
		}
	}
}
