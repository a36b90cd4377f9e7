package operations

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"hrreport/internal/infrastructure"
)

const (
	TracerName = "hrreport.pipeline"
)

// OperationTracer provides spans and metrics for pipeline attempts and steps.
// A tracer built from nil telemetry records nothing.
type OperationTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
}

// NewOperationTracer creates a tracer on tel
func NewOperationTracer(tel *infrastructure.Telemetry) *OperationTracer {
	if tel == nil {
		return &OperationTracer{tracer: noop.NewTracerProvider().Tracer(TracerName)}
	}
	return &OperationTracer{tracer: tel.Tracer, metrics: tel.Metrics}
}

// TraceAttempt creates a span for one pipeline attempt
func (pt *OperationTracer) TraceAttempt(ctx context.Context, runID string, attempt int) (context.Context, trace.Span) {
	ctx, span := pt.tracer.Start(ctx, "pipeline.attempt",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.Int("run.attempt", attempt),
		),
	)

	if pt.metrics != nil {
		pt.metrics.AttemptsTotal.Add(ctx, 1)
	}
	return ctx, span
}

// TraceStep creates a span for a single step
func (pt *OperationTracer) TraceStep(ctx context.Context, stepID string) (context.Context, trace.Span) {
	return pt.tracer.Start(ctx, fmt.Sprintf("pipeline.step.%s", stepID),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("step.id", stepID)),
	)
}

// RecordStepCompletion records the step duration and outcome
func (pt *OperationTracer) RecordStepCompletion(ctx context.Context, span trace.Span, stepID string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	span.SetAttributes(
		attribute.String("step.status", status),
		attribute.Float64("step.duration_seconds", duration.Seconds()),
	)

	if pt.metrics != nil {
		pt.metrics.StageDuration.Record(ctx, duration.Seconds(),
			metric.WithAttributes(
				attribute.String("stage", stepID),
				attribute.String("status", status),
			),
		)
	}

	if err != nil {
		infrastructure.RecordError(ctx, err)
		return
	}
	span.SetStatus(codes.Ok, "step completed")
}

// RecordAttemptCompletion closes out an attempt span
func (pt *OperationTracer) RecordAttemptCompletion(ctx context.Context, span trace.Span, duration time.Duration, err error) {
	span.SetAttributes(attribute.Float64("run.duration_seconds", duration.Seconds()))
	if err == nil {
		span.SetStatus(codes.Ok, "attempt completed")
		return
	}

	infrastructure.RecordError(ctx, err)
	if pt.metrics != nil {
		pt.metrics.FailuresTotal.Add(ctx, 1,
			metric.WithAttributes(attribute.String("stage", FailedStep(err))),
		)
	}
}

// RecordRows counts rows written to the report
func (pt *OperationTracer) RecordRows(ctx context.Context, rows int) {
	if pt.metrics != nil {
		pt.metrics.RowsProcessed.Add(ctx, int64(rows))
	}
}

// RecordDownloadWait records how long the archive took to land
func (pt *OperationTracer) RecordDownloadWait(ctx context.Context, waited time.Duration) {
	if pt.metrics != nil {
		pt.metrics.DownloadWaited.Record(ctx, waited.Seconds())
	}
}

// RecordEmail counts an email sent of the given kind
func (pt *OperationTracer) RecordEmail(ctx context.Context, kind string) {
	if pt.metrics != nil {
		pt.metrics.EmailsSent.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
	}
}
