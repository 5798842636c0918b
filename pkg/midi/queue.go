package midi

import (
	"sync/atomic"
)

// Ring is a bounded single-producer single-consumer event queue.
//
// One goroutine may Push while another Pops. Neither side locks or
// allocates, so the consumer can run on the audio thread.
type Ring struct {
	buf  []Event
	mask uint64
	head atomic.Uint64 // next slot to read
	tail atomic.Uint64 // next slot to write
}

// NewRing creates a ring holding at least capacity events.
// Capacity is rounded up to a power of two.
func NewRing(capacity int) *Ring {
	size := 1
	for size < capacity {
		size <<= 1
	}
	return &Ring{
		buf:  make([]Event, size),
		mask: uint64(size - 1),
	}
}

// Push enqueues an event. It returns false if the ring is full.
func (r *Ring) Push(e Event) bool {
	tail := r.tail.Load()
	if tail-r.head.Load() >= uint64(len(r.buf)) {
		return false
	}
	r.buf[tail&r.mask] = e
	r.tail.Store(tail + 1)
	return true
}

// Pop dequeues the oldest event
func (r *Ring) Pop() (Event, bool) {
	head := r.head.Load()
	if head == r.tail.Load() {
		return Event{}, false
	}
	e := r.buf[head&r.mask]
	r.head.Store(head + 1)
	return e, true
}

// Peek returns the oldest event without removing it
func (r *Ring) Peek() (Event, bool) {
	head := r.head.Load()
	if head == r.tail.Load() {
		return Event{}, false
	}
	return r.buf[head&r.mask], true
}

// Drain appends queued events to dst without growing it past its capacity
// and returns the extended slice. Events that do not fit stay queued.
func (r *Ring) Drain(dst []Event) []Event {
	for len(dst) < cap(dst) {
		e, ok := r.Pop()
		if !ok {
			break
		}
		dst = append(dst, e)
	}
	return dst
}

// Len returns the number of queued events
func (r *Ring) Len() int {
	return int(r.tail.Load() - r.head.Load())
}

// Cap returns the ring capacity
func (r *Ring) Cap() int {
	return len(r.buf)
}
