// Package oscillator provides audio oscillators for synthesis
package oscillator

import (
	"math"
)

// TwoPi is the length of one oscillator cycle in radians.
const TwoPi = 2.0 * math.Pi

// Waveform selects the periodic function an oscillator generates
type Waveform int

const (
	// Sine generates sin(phase)
	Sine Waveform = iota
	// Square generates +1 for the first half cycle and -1 for the second
	Square
	// Saw generates a rising ramp from -1 to 1
	Saw
	// Triangle generates a piecewise-linear wave between -1 and 1
	Triangle
	// Noise generates uniform white noise, ignoring phase
	Noise

	numWaveforms
)

var waveformNames = [numWaveforms]string{"Sine", "Square", "Saw", "Triangle", "Noise"}

// String returns the display name of the waveform.
func (w Waveform) String() string {
	if w < 0 || w >= numWaveforms {
		return "Unknown"
	}
	return waveformNames[w]
}

// Names returns the display names of all waveforms in index order.
func Names() []string {
	return waveformNames[:]
}

// FromIndex converts a choice parameter value into a waveform.
// Fractional values round to the nearest index; out-of-range values clamp.
func FromIndex(index float64) Waveform {
	i := int(math.Round(index))
	if i < 0 {
		return Sine
	}
	if i >= int(numWaveforms) {
		return Noise
	}
	return Waveform(i)
}

// Shape evaluates a deterministic waveform at phase (radians, [0, 2π)).
// Noise has no deterministic shape and evaluates to 0.
func Shape(w Waveform, phase float64) float64 {
	switch w {
	case Sine:
		return math.Sin(phase)
	case Square:
		if phase < math.Pi {
			return 1.0
		}
		return -1.0
	case Saw:
		return phase/math.Pi - 1.0
	case Triangle:
		return 2.0*math.Abs(2.0*(phase/TwoPi)-1.0) - 1.0
	default:
		return 0.0
	}
}

// Oscillator generates a naive (non band-limited) periodic waveform.
type Oscillator struct {
	waveform  Waveform
	frequency float64
	phase     float64 // radians, always in [0, 2π)
	phaseInc  float64
	gain      float64
	active    bool
	noise     *NoiseSource
}

// New creates an active sine oscillator with unity gain
func New() *Oscillator {
	return &Oscillator{
		waveform: Sine,
		gain:     1.0,
		active:   true,
		noise:    NewNoiseSource(nextSeed()),
	}
}

// SetWaveform changes the generator function without touching the phase
func (o *Oscillator) SetWaveform(w Waveform) {
	o.waveform = w
}

// Waveform returns the current waveform
func (o *Oscillator) Waveform() Waveform {
	return o.waveform
}

// SetFrequency sets the oscillator frequency for the given sample rate
func (o *Oscillator) SetFrequency(hz, sampleRate float64) {
	o.frequency = hz
	if sampleRate <= 0 {
		o.phaseInc = 0
		return
	}
	o.phaseInc = TwoPi * hz / sampleRate
}

// Frequency returns the frequency last set in Hz
func (o *Oscillator) Frequency() float64 {
	return o.frequency
}

// Phase returns the current phase in radians
func (o *Oscillator) Phase() float64 {
	return o.phase
}

// SetVolume sets the output gain multiplier
func (o *Oscillator) SetVolume(gain float64) {
	o.gain = gain
}

// SetActive enables or mutes the oscillator
func (o *Oscillator) SetActive(active bool) {
	o.active = active
}

// IsActive reports whether the oscillator produces output
func (o *Oscillator) IsActive() bool {
	return o.active
}

// SetSeed makes the noise waveform reproducible
func (o *Oscillator) SetSeed(seed uint64) {
	o.noise.SetSeed(seed)
}

// Reset resets the oscillator phase to 0
func (o *Oscillator) Reset() {
	o.phase = 0.0
}

// NextSample returns the sample at the current phase and advances it.
// Inactive oscillators keep advancing so re-enabling them stays in phase.
func (o *Oscillator) NextSample() float64 {
	var sample float64
	if o.active {
		if o.waveform == Noise {
			sample = o.noise.Next()
		} else {
			sample = Shape(o.waveform, o.phase)
		}
		sample *= o.gain
	}

	o.phase += o.phaseInc
	if o.phase >= TwoPi || o.phase < 0 {
		o.phase = wrap(o.phase)
	}
	return sample
}

// Process fills buffer with successive samples - no allocations
func (o *Oscillator) Process(buffer []float64) {
	for i := range buffer {
		buffer[i] = o.NextSample()
	}
}

func wrap(phase float64) float64 {
	phase = math.Mod(phase, TwoPi)
	if phase < 0 {
		phase += TwoPi
	}
	// Mod can round up to exactly 2π for tiny negative inputs
	if phase >= TwoPi {
		phase = 0
	}
	return phase
}
