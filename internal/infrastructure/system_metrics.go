package infrastructure

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// SystemMetrics records a process resource snapshot at the end of a run
type SystemMetrics struct {
	goRoutines  metric.Int64Gauge
	heapInUse   metric.Int64Gauge
	totalAlloc  metric.Int64Gauge
	gcCount     metric.Int64Gauge
	runDuration metric.Float64Gauge
}

// SystemStats is one snapshot of runtime resource usage
type SystemStats struct {
	GoRoutines  int64
	HeapInUse   int64
	TotalAlloc  int64
	NumGC       int64
	RunDuration time.Duration
}

// NewSystemMetrics creates the runtime gauges on meter
func NewSystemMetrics(meter metric.Meter) (*SystemMetrics, error) {
	goRoutines, err := meter.Int64Gauge("hrreport_goroutines",
		metric.WithDescription("Number of goroutines at end of run"))
	if err != nil {
		return nil, err
	}

	heapInUse, err := meter.Int64Gauge("hrreport_heap_inuse_bytes",
		metric.WithDescription("Heap bytes in use at end of run"),
		metric.WithUnit("By"))
	if err != nil {
		return nil, err
	}

	totalAlloc, err := meter.Int64Gauge("hrreport_alloc_bytes_total",
		metric.WithDescription("Cumulative bytes allocated during the run"),
		metric.WithUnit("By"))
	if err != nil {
		return nil, err
	}

	gcCount, err := meter.Int64Gauge("hrreport_gc_cycles",
		metric.WithDescription("Completed GC cycles during the run"))
	if err != nil {
		return nil, err
	}

	runDuration, err := meter.Float64Gauge("hrreport_run_duration_seconds",
		metric.WithDescription("Wall time of the whole run"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return &SystemMetrics{
		goRoutines:  goRoutines,
		heapInUse:   heapInUse,
		totalAlloc:  totalAlloc,
		gcCount:     gcCount,
		runDuration: runDuration,
	}, nil
}

// Collect reads runtime stats, records them and logs a summary line
func (sm *SystemMetrics) Collect(ctx context.Context, startTime time.Time, logger *slog.Logger) *SystemStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	stats := &SystemStats{
		GoRoutines:  int64(runtime.NumGoroutine()),
		HeapInUse:   int64(memStats.HeapInuse),
		TotalAlloc:  int64(memStats.TotalAlloc),
		NumGC:       int64(memStats.NumGC),
		RunDuration: time.Since(startTime),
	}

	sm.goRoutines.Record(ctx, stats.GoRoutines)
	sm.heapInUse.Record(ctx, stats.HeapInUse)
	sm.totalAlloc.Record(ctx, stats.TotalAlloc)
	sm.gcCount.Record(ctx, stats.NumGC)
	sm.runDuration.Record(ctx, stats.RunDuration.Seconds())

	if logger != nil {
		logger.InfoContext(ctx, "Run resource usage",
			slog.Int64("goroutines", stats.GoRoutines),
			slog.Int64("heap_inuse_bytes", stats.HeapInUse),
			slog.Int64("gc_cycles", stats.NumGC),
			slog.Duration("duration", stats.RunDuration))
	}
	return stats
}
