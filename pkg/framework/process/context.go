// Package process provides the per-block audio processing context.
package process

import (
	"github.com/justyntemme/pocketsynth/pkg/midi"
)

// Context carries one block of work: the output buffer and the note events
// that fall inside the block. It is reused across blocks and never
// allocates after NewContext.
type Context struct {
	Output *Buffer

	events []midi.Event
}

// NewContext creates a new process context with pre-allocated buffers
func NewContext(numChannels, maxBlockSize, maxEvents int) *Context {
	return &Context{
		Output: NewBuffer(numChannels, maxBlockSize),
		events: make([]midi.Event, 0, maxEvents),
	}
}

// NumSamples returns the number of samples to process
func (c *Context) NumSamples() int {
	if c.Output == nil {
		return 0
	}
	return c.Output.NumSamples()
}

// SetBlockSize sets the number of samples in the next block
func (c *Context) SetBlockSize(n int) {
	c.Output.SetNumSamples(n)
}

// Clear zeros the output buffers
func (c *Context) Clear() {
	c.Output.Clear()
}

// AddInputEvent schedules an event, keeping events ordered by offset.
// Events at the same offset keep their arrival order. It returns false when
// the event list is full.
func (c *Context) AddInputEvent(e midi.Event) bool {
	if len(c.events) == cap(c.events) {
		return false
	}
	c.events = append(c.events, e)
	for i := len(c.events) - 1; i > 0 && c.events[i-1].Offset > c.events[i].Offset; i-- {
		c.events[i-1], c.events[i] = c.events[i], c.events[i-1]
	}
	return true
}

// InputEvents returns the scheduled events in offset order
func (c *Context) InputEvents() []midi.Event {
	return c.events
}

// ClearInputEvents drops all scheduled events
func (c *Context) ClearInputEvents() {
	c.events = c.events[:0]
}
