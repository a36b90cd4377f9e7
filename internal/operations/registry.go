package operations

import (
	"errors"
	"fmt"
	"sync"
)

var errEmptyStepID = errors.New("step ID cannot be empty")

// Registry holds the pipeline steps in registration order
type Registry struct {
	mu    sync.RWMutex
	steps []Step
	index map[string]int
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Register appends step. IDs must be unique and non-empty.
func (r *Registry) Register(step Step) error {
	if step == nil {
		return errors.New("cannot register a nil step")
	}
	id := step.ID()
	if id == "" {
		return errEmptyStepID
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.index[id]; dup {
		return fmt.Errorf("step %q already registered", id)
	}
	r.index[id] = len(r.steps)
	r.steps = append(r.steps, step)
	return nil
}

// Get returns the step registered under id
func (r *Registry) Get(id string) (Step, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStepNotFound, id)
	}
	return r.steps[i], nil
}

// Has reports whether id is registered
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.index[id]
	return ok
}

// List returns the steps in run order
func (r *Registry) List() []Step {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Step(nil), r.steps...)
}

// Count returns the number of registered steps
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.steps)
}
