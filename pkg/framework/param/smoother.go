// Package param provides named, atomically updated control values.
package param

import (
	"math"
)

// SmoothingType selects the curve a Smoother ramps along.
type SmoothingType int

const (
	// LinearSmoothing steps the value by a constant amount per sample
	LinearSmoothing SmoothingType = iota
	// LogarithmicSmoothing steps the logarithm of the value, so pitch
	// glides move at a constant rate in cents
	LogarithmicSmoothing
)

const (
	// Changes smaller than this are applied without a ramp
	smoothingThreshold = 1e-4
	// Floor for values ramped in log space
	minLogValue = 1e-3
)

// Smoother ramps a control value to a new target over a fixed number of
// samples. It is used on the audio thread and never allocates.
type Smoother struct {
	curve  SmoothingType
	length int

	current float64
	target  float64

	// Ramp state in the curve's domain (plain or log)
	pos       float64
	step      float64
	remaining int
}

// NewSmoother creates a smoother whose ramps last length samples
func NewSmoother(curve SmoothingType, length int) *Smoother {
	return &Smoother{
		curve:  curve,
		length: max(length, 1),
	}
}

// SetTime sets the ramp length to ms milliseconds at sampleRate.
// A ramp in progress keeps its old length.
func (s *Smoother) SetTime(sampleRate, ms float64) {
	s.length = max(int(math.Round(sampleRate*ms/1000.0)), 1)
}

// Reset jumps to value and stops any ramp
func (s *Smoother) Reset(value float64) {
	s.current = value
	s.target = value
	s.remaining = 0
}

// SetTarget starts a ramp from the current value to target. A target within
// the threshold of the current value is applied at once.
func (s *Smoother) SetTarget(target float64) {
	if math.Abs(target-s.current) < smoothingThreshold {
		s.Reset(target)
		return
	}
	if s.remaining > 0 && math.Abs(target-s.target) < smoothingThreshold {
		return
	}

	s.target = target
	s.remaining = s.length
	from, to := s.current, target
	if s.curve == LogarithmicSmoothing {
		from = math.Log(max(from, minLogValue))
		to = math.Log(max(to, minLogValue))
	}
	s.pos = from
	s.step = (to - from) / float64(s.length)
}

// Next advances one sample and returns the smoothed value
func (s *Smoother) Next() float64 {
	if s.remaining == 0 {
		return s.current
	}

	s.remaining--
	if s.remaining == 0 {
		s.current = s.target
		return s.current
	}

	s.pos += s.step
	if s.curve == LogarithmicSmoothing {
		s.current = math.Exp(s.pos)
	} else {
		s.current = s.pos
	}
	return s.current
}

// Fill writes successive smoothed values into dst
func (s *Smoother) Fill(dst []float64) {
	i := 0
	for ; i < len(dst) && s.remaining > 0; i++ {
		dst[i] = s.Next()
	}
	for ; i < len(dst); i++ {
		dst[i] = s.current
	}
}

// Current returns the last smoothed value without advancing
func (s *Smoother) Current() float64 {
	return s.current
}

// IsSmoothing reports whether a ramp is in progress
func (s *Smoother) IsSmoothing() bool {
	return s.remaining > 0
}
