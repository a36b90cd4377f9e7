package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// Record is one captured log line. Attrs include those added through With.
type Record struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

type store struct {
	mu      sync.Mutex
	records []Record
}

// LogCapture is a slog.Handler that keeps every record in memory
type LogCapture struct {
	store *store
	attrs []slog.Attr
	t     *testing.T
}

// NewLogger returns a logger writing into a fresh LogCapture. Records are
// echoed to t.Log when t is not nil.
func NewLogger(t *testing.T) (*slog.Logger, *LogCapture) {
	c := &LogCapture{store: &store{}, t: t}
	return slog.New(c), c
}

// Enabled captures every level
func (c *LogCapture) Enabled(context.Context, slog.Level) bool { return true }

// Handle implements slog.Handler
func (c *LogCapture) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, len(c.attrs)+r.NumAttrs())
	for _, a := range c.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	c.store.mu.Lock()
	c.store.records = append(c.store.records, Record{Level: r.Level, Message: r.Message, Attrs: attrs})
	c.store.mu.Unlock()

	if c.t != nil {
		c.t.Logf("[%s] %s %v", r.Level, r.Message, attrs)
	}
	return nil
}

// WithAttrs returns a handler sharing this capture's records
func (c *LogCapture) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(c.attrs)+len(attrs))
	merged = append(merged, c.attrs...)
	merged = append(merged, attrs...)
	return &LogCapture{store: c.store, attrs: merged, t: c.t}
}

// WithGroup is a no-op; groups are flattened
func (c *LogCapture) WithGroup(string) slog.Handler { return c }

// Records returns a copy of everything captured so far
func (c *LogCapture) Records() []Record {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	return append([]Record(nil), c.store.records...)
}

// Find returns the records at level whose message contains msg
func (c *LogCapture) Find(level slog.Level, msg string) []Record {
	var out []Record
	for _, r := range c.Records() {
		if r.Level == level && strings.Contains(r.Message, msg) {
			out = append(out, r)
		}
	}
	return out
}

// RequireLogged fails t unless a record at level containing msg was captured,
// and returns the first match.
func RequireLogged(t *testing.T, c *LogCapture, level slog.Level, msg string) Record {
	t.Helper()
	found := c.Find(level, msg)
	if len(found) == 0 {
		for _, r := range c.Records() {
			t.Logf("  captured [%s] %s %v", r.Level, r.Message, r.Attrs)
		}
		t.Fatalf("no %s log containing %q", level, msg)
	}
	return found[0]
}
