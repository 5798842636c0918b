package synth

import (
	"math"

	"github.com/justyntemme/pocketsynth/pkg/dsp/envelope"
	"github.com/justyntemme/pocketsynth/pkg/dsp/unison"
	"github.com/justyntemme/pocketsynth/pkg/framework/param"
	"github.com/justyntemme/pocketsynth/pkg/framework/process"
	fvoice "github.com/justyntemme/pocketsynth/pkg/framework/voice"
	"github.com/justyntemme/pocketsynth/pkg/midi"
)

// invSqrt[k] is 1/√k, the power normalization for k summed oscillators
var invSqrt [NumOscillators*unison.MaxVoices + 1]float64

func init() {
	for k := 1; k < len(invSqrt); k++ {
		invSqrt[k] = 1.0 / math.Sqrt(float64(k))
	}
}

// oscSection is one oscillator of a voice: a unison stack and its envelope
type oscSection struct {
	stack    *unison.Stack
	env      *envelope.ADSR
	freq     *param.Smoother
	detector *Detector
	settings OscSettings
	level    float64
}

// Voice renders one note through both oscillator sections.
// It never allocates after NewVoice.
type Voice struct {
	osc        [NumOscillators]oscSection
	sampleRate float64

	note          int
	velocity      float64
	baseFrequency float64
}

// NewVoice creates an idle voice reading from params
func NewVoice(params *Parameters, sampleRate float64) *Voice {
	if sampleRate <= 0 {
		sampleRate = defaultSampleRate
	}
	v := &Voice{
		sampleRate: sampleRate,
		note:       fvoice.NoNote,
	}
	var versions VersionSource
	if params.registry != nil {
		versions = params.registry
	}
	for i := range v.osc {
		o := &v.osc[i]
		o.stack = unison.New(sampleRate)
		o.env = envelope.New(sampleRate)
		o.freq = param.NewSmoother(param.LogarithmicSmoothing, 1)
		o.freq.SetTime(sampleRate, smoothingTimeMs)
		o.detector = NewDetector(&params.Osc[i], versions)
	}
	return v
}

// SetSampleRate updates every sample-rate dependent member
func (v *Voice) SetSampleRate(sampleRate float64) {
	if sampleRate <= 0 {
		return
	}
	v.sampleRate = sampleRate
	for i := range v.osc {
		o := &v.osc[i]
		o.stack.SetSampleRate(sampleRate)
		o.env.SetSampleRate(sampleRate)
		o.freq.SetTime(sampleRate, smoothingTimeMs)
	}
}

// CanPlay reports whether s is an OscillatorSound
func (v *Voice) CanPlay(s fvoice.Sound) bool {
	_, ok := s.(OscillatorSound)
	return ok
}

// StartNote reloads both sections from the current parameters and
// triggers their envelopes.
func (v *Voice) StartNote(note uint8, velocity float64, s fvoice.Sound) {
	v.note = int(note)
	v.velocity = velocity
	v.baseFrequency = midi.NoteToFrequency(note, 440.0)

	for i := range v.osc {
		o := &v.osc[i]
		o.env.Reset()
		o.stack.Reset()
		v.apply(o, o.detector.Load(), ChangeAll)

		// No glide into a new note
		target := v.baseFrequency * o.settings.PitchRatio()
		o.freq.Reset(target)
		o.stack.SetBaseFrequency(target)

		o.env.NoteOn()
	}
}

// StopNote releases both envelopes. Without tail-off, or when nothing is
// sounding anymore, the voice is cleared at once.
func (v *Voice) StopNote(velocity float64, allowTailOff bool) {
	for i := range v.osc {
		v.osc[i].env.NoteOff()
	}
	if !allowTailOff || !v.envelopesActive() {
		v.clear()
	}
}

// RenderNextBlock adds n samples of the voice into every channel of buf
// starting at start.
func (v *Voice) RenderNextBlock(buf *process.Buffer, start, n int) {
	if !v.IsActive() {
		return
	}

	for i := range v.osc {
		o := &v.osc[i]
		if changes := o.detector.Detect(); changes != 0 {
			v.apply(o, o.detector.Settings(), changes)
			o.detector.Commit()
		}
	}

	channels := buf.Channels()
	a, b := &v.osc[0], &v.osc[1]
	for i := start; i < start+n; i++ {
		if a.freq.IsSmoothing() {
			a.stack.SetBaseFrequency(a.freq.Next())
		}
		if b.freq.IsSmoothing() {
			b.stack.SetBaseFrequency(b.freq.Next())
		}

		sumA, activeA := a.stack.Accumulate()
		sumB, activeB := b.stack.Accumulate()
		sample := sumA*a.env.NextSample()*a.level + sumB*b.env.NextSample()*b.level
		sample *= invSqrt[activeA+activeB]

		for _, ch := range channels {
			ch[i] += sample
		}

		if !a.env.IsActive() && !b.env.IsActive() {
			v.clear()
			return
		}
	}
}

// apply pushes the flagged part of s into a section
func (v *Voice) apply(o *oscSection, s OscSettings, changes Change) {
	o.settings = s

	if changes.Has(ChangeVoiceCount) {
		o.stack.SetNumVoices(s.Voices)
	}
	if changes.Has(ChangeWaveform) {
		o.stack.SetWaveform(s.Waveform)
	}
	if changes.Has(ChangeFrequency) {
		o.stack.SetDetuneAmount(s.DetuneCents())
		o.freq.SetTarget(v.baseFrequency * s.PitchRatio())
	}
	if changes.Has(ChangeEnvelope) {
		o.env.SetParameters(s.Envelope)
	}
	if changes.Has(ChangeLevel) {
		o.stack.SetMix(s.Mix)
		o.stack.SetActive(s.Active)
		o.level = s.Level * v.velocity
	}
}

func (v *Voice) envelopesActive() bool {
	for i := range v.osc {
		if v.osc[i].env.IsActive() {
			return true
		}
	}
	return false
}

func (v *Voice) clear() {
	for i := range v.osc {
		v.osc[i].env.Reset()
	}
	v.note = fvoice.NoNote
}

// IsActive reports whether either envelope is running
func (v *Voice) IsActive() bool {
	return v.note != fvoice.NoNote && v.envelopesActive()
}

// CurrentNote returns the playing note or voice.NoNote
func (v *Voice) CurrentNote() int {
	return v.note
}

// Level returns the loudest section's current envelope times its level
func (v *Voice) Level() float64 {
	level := 0.0
	for i := range v.osc {
		o := &v.osc[i]
		level = max(level, o.env.Value()*o.level)
	}
	return level
}

// BaseFrequency returns the note frequency before transposition
func (v *Voice) BaseFrequency() float64 {
	return v.baseFrequency
}

// Stack returns the unison stack of section i
func (v *Voice) Stack(i int) *unison.Stack {
	return v.osc[i].stack
}

// Envelope returns the envelope of section i
func (v *Voice) Envelope(i int) *envelope.ADSR {
	return v.osc[i].env
}

// PitchWheelMoved is accepted and ignored
func (v *Voice) PitchWheelMoved(value int) {}

// ControllerMoved is accepted and ignored
func (v *Voice) ControllerMoved(controller, value int) {}

var _ fvoice.Voice = (*Voice)(nil)
