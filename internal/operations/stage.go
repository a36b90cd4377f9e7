package operations

import (
	"context"
	"sync"
	"time"
)

// Step is a single unit of work in one pipeline attempt
type Step interface {
	// ID returns the unique identifier for this Step
	ID() string

	// Name returns the human-readable name for this Step
	Name() string

	// Execute runs the Step against the attempt's state
	Execute(ctx context.Context, state *RunState) error
}

// StepStatus represents the current status of a Step
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusActive    StepStatus = "active"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// StepState tracks one step within an attempt. Started and Ended are zero
// until the matching transition happens.
type StepState struct {
	mu      sync.RWMutex
	ID      string
	Name    string
	Status  StepStatus
	Started time.Time
	Ended   time.Time
	// Message holds the skip reason
	Message string
	Error   error
}

// NewStepState returns a pending step
func NewStepState(id, name string) *StepState {
	return &StepState{ID: id, Name: name, Status: StepStatusPending}
}

// Start marks the step active
func (s *StepState) Start() {
	s.mu.Lock()
	s.Started = time.Now()
	s.Status = StepStatusActive
	s.mu.Unlock()
}

// Complete marks the step done
func (s *StepState) Complete() { s.finish(StepStatusCompleted, "", nil) }

// Fail records err as the reason the step stopped
func (s *StepState) Fail(err error) { s.finish(StepStatusFailed, "", err) }

// Skip marks a step that never ran because an earlier one stopped the attempt
func (s *StepState) Skip(reason string) { s.finish(StepStatusSkipped, reason, nil) }

func (s *StepState) finish(status StepStatus, msg string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Ended = time.Now()
	s.Status = status
	s.Message = msg
	s.Error = err
}

// GetStatus returns the current status
func (s *StepState) GetStatus() StepStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

// Duration is the time between Start and the final transition, or until now
// while the step is still active. Skipped steps report zero.
func (s *StepState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch {
	case s.Started.IsZero():
		return 0
	case s.Ended.IsZero():
		return time.Since(s.Started)
	default:
		return s.Ended.Sub(s.Started)
	}
}

// BaseStage is embedded by the concrete steps for ID and Name
type BaseStage struct {
	id   string
	name string
}

// NewBaseStage creates a BaseStage
func NewBaseStage(id, name string) BaseStage {
	return BaseStage{id: id, name: name}
}

func (b BaseStage) ID() string   { return b.id }
func (b BaseStage) Name() string { return b.name }
