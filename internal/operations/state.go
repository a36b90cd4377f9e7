package operations

import (
	"sync"
	"time"

	"hrreport/internal/browser"
	"hrreport/internal/dataprocessing"
	"hrreport/internal/files"
)

// RunStatus is the status of one pipeline attempt
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunState carries one attempt's artifacts from step to step. Every attempt
// starts from a fresh RunState.
type RunState struct {
	mu sync.RWMutex

	ID        string
	Attempt   int
	Status    RunStatus
	StartTime time.Time
	EndTime   *time.Time
	Error     error

	Steps map[string]*StepState

	// Browser stays open between fetch and download so Chrome can finish
	Browser         browser.Session
	DownloadStarted time.Time
	Archive         *files.Archive
	ExtractDir      string
	Entries         []string
	SourceWorkbook  string

	Table      *dataprocessing.Table
	CleanStats dataprocessing.CleanStats
	Filtered   *dataprocessing.Table
	Pivot      *dataprocessing.Pivot
	Insights   *dataprocessing.Insights

	WorkbookPath string
	CSVPath      string
	SnapshotPath string
}

// NewRunState creates the state for attempt number attempt of run id
func NewRunState(id string, attempt int) *RunState {
	return &RunState{
		ID:        id,
		Attempt:   attempt,
		Status:    RunStatusPending,
		StartTime: time.Now(),
		Steps:     make(map[string]*StepState),
	}
}

// Start marks the attempt as running
func (r *RunState) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Status = RunStatusRunning
	r.StartTime = time.Now()
}

// Complete marks the attempt as completed
func (r *RunState) Complete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.EndTime = &now
	r.Status = RunStatusCompleted
}

// Fail marks the attempt as failed
func (r *RunState) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.EndTime = &now
	r.Status = RunStatusFailed
	r.Error = err
}

// GetStep returns the state of a specific Step
func (r *RunState) GetStep(id string) *StepState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.Steps[id]
}

// SetStep updates the state of a specific Step
func (r *RunState) SetStep(id string, state *StepState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Steps[id] = state
}

// Duration returns how long the attempt ran
func (r *RunState) Duration() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.EndTime != nil {
		return r.EndTime.Sub(r.StartTime)
	}
	return time.Since(r.StartTime)
}

// CloseBrowser quits the attempt's browser session if one is open
func (r *RunState) CloseBrowser() error {
	r.mu.Lock()
	s := r.Browser
	r.Browser = nil
	r.mu.Unlock()

	if s == nil {
		return nil
	}
	return s.Quit()
}
