package debug

import (
	"math"
	"sync/atomic"
	"time"
)

// LoadMeter measures how much of the real-time budget each render call
// uses. Begin/End run on the audio thread and only touch atomics; Load and
// Peak may be read from any goroutine.
type LoadMeter struct {
	sampleRate atomic.Uint64 // float64 bits
	smoothing  float64

	load  atomic.Uint64 // float64 bits, smoothed percent
	peak  atomic.Uint64 // float64 bits, percent
	calls atomic.Uint64
}

// NewLoadMeter creates a load meter. smoothing in [0, 1) weights the
// previous reading; 0 disables smoothing.
func NewLoadMeter(sampleRate float64, smoothing float64) *LoadMeter {
	m := &LoadMeter{smoothing: smoothing}
	m.SetSampleRate(sampleRate)
	return m
}

// SetSampleRate updates the sample rate used to compute the budget
func (m *LoadMeter) SetSampleRate(sampleRate float64) {
	m.sampleRate.Store(math.Float64bits(sampleRate))
}

// Begin marks the start of a render call
func (m *LoadMeter) Begin() time.Time {
	return time.Now()
}

// End records a render call of frames samples started at start
func (m *LoadMeter) End(start time.Time, frames int) {
	m.Record(time.Since(start), frames)
}

// Record stores one measurement directly
func (m *LoadMeter) Record(elapsed time.Duration, frames int) {
	sr := math.Float64frombits(m.sampleRate.Load())
	if sr <= 0 || frames <= 0 {
		return
	}
	budget := float64(frames) / sr * float64(time.Second)
	percent := float64(elapsed) / budget * 100.0

	prev := math.Float64frombits(m.load.Load())
	if m.calls.Load() > 0 {
		percent = prev*m.smoothing + percent*(1-m.smoothing)
	}
	m.load.Store(math.Float64bits(percent))
	if percent > math.Float64frombits(m.peak.Load()) {
		m.peak.Store(math.Float64bits(percent))
	}
	m.calls.Add(1)
}

// Load returns the smoothed CPU load in percent of the real-time budget
func (m *LoadMeter) Load() float64 {
	return math.Float64frombits(m.load.Load())
}

// Peak returns the highest smoothed load seen since the last Reset
func (m *LoadMeter) Peak() float64 {
	return math.Float64frombits(m.peak.Load())
}

// Calls returns the number of recorded render calls
func (m *LoadMeter) Calls() uint64 {
	return m.calls.Load()
}

// Reset clears all readings
func (m *LoadMeter) Reset() {
	m.load.Store(0)
	m.peak.Store(0)
	m.calls.Store(0)
}
