package param

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrUnknownParameter is returned when an ID is not registered
var ErrUnknownParameter = errors.New("unknown parameter")

// Registry manages a set of parameters keyed by string ID.
//
// Registration and lookup take a lock and belong on the control thread.
// The audio thread holds *Parameter handles resolved up front and polls
// Version to find out whether anything changed since it last looked.
type Registry struct {
	params  map[string]*Parameter
	order   []string
	mu      sync.RWMutex
	version atomic.Uint64
}

// NewRegistry creates a new parameter registry
func NewRegistry() *Registry {
	return &Registry{
		params: make(map[string]*Parameter),
		order:  make([]string, 0),
	}
}

// Add registers parameters. Duplicate IDs are skipped.
func (r *Registry) Add(params ...*Parameter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range params {
		if p.ID == "" {
			return fmt.Errorf("register %q: empty parameter id", p.Name)
		}
		if _, exists := r.params[p.ID]; exists {
			continue
		}
		p.version = &r.version
		r.params[p.ID] = p
		r.order = append(r.order, p.ID)
	}
	r.version.Add(1)

	return nil
}

// Get retrieves a parameter by ID, or nil
func (r *Registry) Get(id string) *Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.params[id]
}

// Lookup retrieves a parameter by ID or returns ErrUnknownParameter
func (r *Registry) Lookup(id string) (*Parameter, error) {
	p := r.Get(id)
	if p == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownParameter, id)
	}
	return p, nil
}

// GetByIndex retrieves a parameter by registration index
func (r *Registry) GetByIndex(index int) *Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if index < 0 || index >= len(r.order) {
		return nil
	}

	return r.params[r.order[index]]
}

// Count returns the number of parameters
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.order)
}

// All returns all parameters in registration order
func (r *Registry) All() []*Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Parameter, len(r.order))
	for i, id := range r.order {
		result[i] = r.params[id]
	}

	return result
}

// SetPlain sets a parameter by ID to a plain value
func (r *Registry) SetPlain(id string, value float64) error {
	p, err := r.Lookup(id)
	if err != nil {
		return err
	}
	p.SetValue(value)
	return nil
}

// SetText parses a display string (e.g. "Saw", "250 ms", "30L") and sets
// the parameter to the result.
func (r *Registry) SetText(id, text string) error {
	p, err := r.Lookup(id)
	if err != nil {
		return err
	}
	v, err := p.ParseValue(text)
	if err != nil {
		return fmt.Errorf("parse %s value %q: %w", id, text, err)
	}
	p.SetValue(v)
	return nil
}

// Reset restores every parameter to its default
func (r *Registry) Reset() {
	for _, p := range r.All() {
		p.Reset()
	}
}

// Version returns a counter that increases on every parameter write
func (r *Registry) Version() uint64 {
	return r.version.Load()
}
