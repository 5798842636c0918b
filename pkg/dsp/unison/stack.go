// Package unison stacks detuned copies of an oscillator for a thicker sound.
//
// A Stack owns a fixed arena of MaxVoices oscillators. Changing the voice
// count only changes how many slots take part, so a stack never allocates
// after construction and can be reconfigured from the audio thread.
package unison

import (
	"math"

	"github.com/justyntemme/pocketsynth/pkg/dsp/oscillator"
)

// MaxVoices is the largest supported unison voice count
const MaxVoices = 16

// Stack manages up to MaxVoices detuned oscillators sharing one waveform
type Stack struct {
	oscs    [MaxVoices]*oscillator.Oscillator
	offsets [MaxVoices]float64 // cents
	ratios  [MaxVoices]float64
	gains   [MaxVoices]float64

	numVoices     int
	detune        float64 // total spread in cents
	mix           float64
	baseFrequency float64
	sampleRate    float64
	waveform      oscillator.Waveform
	active        bool

	rebuilds int
}

// New creates a single-voice stack
func New(sampleRate float64) *Stack {
	s := &Stack{
		numVoices:     1,
		mix:           1.0,
		baseFrequency: 440.0,
		sampleRate:    sampleRate,
		active:        true,
	}
	for i := range s.oscs {
		s.oscs[i] = oscillator.New()
		s.ratios[i] = 1.0
	}
	s.updateLayout()
	s.applyActive()
	return s
}

// SetSampleRate updates the sample rate of every member
func (s *Stack) SetSampleRate(sampleRate float64) {
	s.sampleRate = sampleRate
	s.applyFrequencies()
}

// SetNumVoices rebuilds the stack to exactly n members (clamped to 1..MaxVoices).
// Members that were already sounding keep their phase; new members start at 0.
func (s *Stack) SetNumVoices(n int) {
	if n < 1 {
		n = 1
	} else if n > MaxVoices {
		n = MaxVoices
	}

	for i := s.numVoices; i < n; i++ {
		s.oscs[i].Reset()
		s.oscs[i].SetWaveform(s.waveform)
	}
	s.numVoices = n
	s.rebuilds++

	s.updateLayout()
	s.applyActive()
}

// NumVoices returns the member count
func (s *Stack) NumVoices() int {
	return s.numVoices
}

// Rebuilds returns how many times the member count has been (re)set
func (s *Stack) Rebuilds() int {
	return s.rebuilds
}

// SetDetuneAmount sets the total detune spread in cents
func (s *Stack) SetDetuneAmount(cents float64) {
	if cents == s.detune {
		return
	}
	s.detune = cents
	s.updateLayout()
}

// SetBaseFrequency retunes every member around hz - no allocations
func (s *Stack) SetBaseFrequency(hz float64) {
	s.baseFrequency = hz
	s.applyFrequencies()
}

// BaseFrequency returns the center frequency in Hz
func (s *Stack) BaseFrequency() float64 {
	return s.baseFrequency
}

// SetWaveform applies a waveform to all members
func (s *Stack) SetWaveform(w oscillator.Waveform) {
	s.waveform = w
	for _, osc := range s.oscs {
		osc.SetWaveform(w)
	}
}

// Waveform returns the shared waveform
func (s *Stack) Waveform() oscillator.Waveform {
	return s.waveform
}

// SetMix sets the center versus outer weight split
func (s *Stack) SetMix(ratio float64) {
	if ratio == s.mix {
		return
	}
	s.mix = ratio
	s.updateGains()
}

// Mix returns the center weight
func (s *Stack) Mix() float64 {
	return s.mix
}

// SetActive enables or mutes every member
func (s *Stack) SetActive(active bool) {
	s.active = active
	s.applyActive()
}

// IsActive reports whether the stack produces output
func (s *Stack) IsActive() bool {
	return s.active
}

// Reset resets the phase of every member
func (s *Stack) Reset() {
	for _, osc := range s.oscs {
		osc.Reset()
	}
}

// SetSeed seeds every member's noise source from one value
func (s *Stack) SetSeed(seed uint64) {
	for i, osc := range s.oscs {
		osc.SetSeed(seed + uint64(i))
	}
}

// Offset returns the detune offset of member i in cents
func (s *Stack) Offset(i int) float64 {
	return s.offsets[i]
}

// Gain returns the weight of member i
func (s *Stack) Gain(i int) float64 {
	return s.gains[i]
}

// Frequency returns the frequency of member i in Hz
func (s *Stack) Frequency(i int) float64 {
	return s.oscs[i].Frequency()
}

// NextSample returns the average of all members' next samples
func (s *Stack) NextSample() float64 {
	sum := 0.0
	for i := 0; i < s.numVoices; i++ {
		sum += s.oscs[i].NextSample()
	}
	return sum / float64(s.numVoices)
}

// Accumulate advances every member by one sample and returns the
// gain-weighted sum of the active members together with their count.
func (s *Stack) Accumulate() (sum float64, active int) {
	for i := 0; i < s.numVoices; i++ {
		osc := s.oscs[i]
		sample := osc.NextSample()
		if osc.IsActive() {
			sum += sample
			active++
		}
	}
	return sum, active
}

func (s *Stack) updateLayout() {
	n := s.numVoices
	step := s.detune / float64(max(1, n-1))
	center := float64(n-1) / 2.0

	for i := 0; i < n; i++ {
		s.offsets[i] = (float64(i) - center) * step
		s.ratios[i] = math.Pow(2.0, s.offsets[i]/1200.0)
	}
	for i := n; i < MaxVoices; i++ {
		s.offsets[i] = 0
		s.ratios[i] = 1.0
	}

	s.applyFrequencies()
	s.updateGains()
}

// updateGains gives the center member(s) the mix weight and the rest 1-mix.
func (s *Stack) updateGains() {
	n := s.numVoices
	for i := 0; i < MaxVoices; i++ {
		gain := 0.0
		if i < n {
			gain = 1.0 - s.mix
			if isCenter(i, n) {
				gain = s.mix
			}
		}
		s.gains[i] = gain
		s.oscs[i].SetVolume(gain)
	}
}

func isCenter(i, n int) bool {
	if n%2 == 1 {
		return i == n/2
	}
	return i == n/2 || i == n/2-1
}

func (s *Stack) applyFrequencies() {
	for i := 0; i < s.numVoices; i++ {
		s.oscs[i].SetFrequency(s.baseFrequency*s.ratios[i], s.sampleRate)
	}
}

func (s *Stack) applyActive() {
	for i, osc := range s.oscs {
		osc.SetActive(s.active && i < s.numVoices)
	}
}
