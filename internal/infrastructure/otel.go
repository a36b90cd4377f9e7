package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"hrreport/internal/config"
)

const (
	ServiceName = config.AppName
	MeterName   = "hrreport"
)

// Telemetry holds the tracer and meter providers for one process
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	Metrics        *PipelineMetrics

	registry    *promclient.Registry
	metricsFile string
	traceFile   *os.File
	logger      *slog.Logger
}

// PipelineMetrics are the instruments recorded by the pipeline runner
type PipelineMetrics struct {
	AttemptsTotal  metric.Int64Counter
	FailuresTotal  metric.Int64Counter
	StageDuration  metric.Float64Histogram
	RowsProcessed  metric.Int64Counter
	EmailsSent     metric.Int64Counter
	DownloadWaited metric.Float64Histogram
}

// InitializeTelemetry sets up tracing and metrics from cfg.
// Tracing is a no-op when cfg.TraceExporter is "none".
func InitializeTelemetry(cfg config.TelemetryConfig, logger *slog.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = GetLogger()
	}
	ctx := context.Background()

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(config.AppVersion),
	)

	t := &Telemetry{
		metricsFile: cfg.MetricsFile,
		logger:      logger,
	}

	if err := t.initTracing(cfg, res); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	if err := t.initMetrics(res); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	logger.InfoContext(ctx, "Telemetry initialized",
		slog.String("trace_exporter", cfg.TraceExporter),
		slog.String("metrics_file", cfg.MetricsFile))

	return t, nil
}

func (t *Telemetry) initTracing(cfg config.TelemetryConfig, res *resource.Resource) error {
	var w io.Writer
	switch cfg.TraceExporter {
	case "", "none":
		t.Tracer = noop.NewTracerProvider().Tracer(MeterName)
		return nil
	case "stdout":
		w = os.Stdout
	case "file":
		if err := os.MkdirAll(filepath.Dir(cfg.TraceFile), 0755); err != nil {
			return fmt.Errorf("failed to create trace directory: %w", err)
		}
		f, err := os.OpenFile(cfg.TraceFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("failed to open trace file: %w", err)
		}
		t.traceFile = f
		w = f
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	t.TracerProvider = tp
	t.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(config.AppVersion))
	return nil
}

func (t *Telemetry) initMetrics(res *resource.Resource) error {
	t.registry = promclient.NewRegistry()

	exporter, err := prometheus.New(prometheus.WithRegisterer(t.registry))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	t.MeterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(t.MeterProvider)
	t.Meter = t.MeterProvider.Meter(MeterName, metric.WithInstrumentationVersion(config.AppVersion))

	t.Metrics, err = CreatePipelineMetrics(t.Meter)
	return err
}

// CreatePipelineMetrics registers the pipeline instruments on meter
func CreatePipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	attempts, err := meter.Int64Counter(
		"hrreport_attempts_total",
		metric.WithDescription("Pipeline attempts started"),
	)
	if err != nil {
		return nil, err
	}

	failures, err := meter.Int64Counter(
		"hrreport_failures_total",
		metric.WithDescription("Pipeline attempts that failed, by stage"),
	)
	if err != nil {
		return nil, err
	}

	stageDuration, err := meter.Float64Histogram(
		"hrreport_stage_duration_seconds",
		metric.WithDescription("Duration of each pipeline stage"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	rows, err := meter.Int64Counter(
		"hrreport_rows_processed_total",
		metric.WithDescription("Employee rows written to the report"),
	)
	if err != nil {
		return nil, err
	}

	emails, err := meter.Int64Counter(
		"hrreport_emails_sent_total",
		metric.WithDescription("Emails sent, by kind"),
	)
	if err != nil {
		return nil, err
	}

	waited, err := meter.Float64Histogram(
		"hrreport_download_wait_seconds",
		metric.WithDescription("Time spent waiting for the archive download"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		AttemptsTotal:  attempts,
		FailuresTotal:  failures,
		StageDuration:  stageDuration,
		RowsProcessed:  rows,
		EmailsSent:     emails,
		DownloadWaited: waited,
	}, nil
}

// StartSpan starts a span on the telemetry tracer
func (t *Telemetry) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.Tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// Shutdown flushes spans, writes the metrics textfile and closes the trace file.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if t.TracerProvider != nil {
		keep(t.TracerProvider.Shutdown(ctx))
	}
	if t.metricsFile != "" && t.registry != nil {
		keep(t.WriteMetrics(t.metricsFile))
	}
	if t.MeterProvider != nil {
		keep(t.MeterProvider.Shutdown(ctx))
	}
	if t.traceFile != nil {
		keep(t.traceFile.Close())
		t.traceFile = nil
	}

	if firstErr != nil {
		t.logger.ErrorContext(ctx, "Telemetry shutdown failed", slog.String("error", firstErr.Error()))
	}
	return firstErr
}

// WriteMetrics writes the registry in Prometheus text format to path
func (t *Telemetry) WriteMetrics(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := promclient.WriteToTextfile(path, t.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

// RecordError marks the span in ctx as failed
func RecordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// TraceIDFromContext returns the OpenTelemetry trace ID in ctx, if any
func TraceIDFromContext(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}
