package synth

import (
	"math"
	"testing"

	"github.com/justyntemme/pocketsynth/pkg/dsp/envelope"
	"github.com/justyntemme/pocketsynth/pkg/framework/debug"
	"github.com/justyntemme/pocketsynth/pkg/framework/process"
	fvoice "github.com/justyntemme/pocketsynth/pkg/framework/voice"
)

const testSampleRate = 44100.0

type otherSound struct{}

func (otherSound) AppliesToNote(note uint8) bool { return true }

// instantEnvelope removes attack, decay and release so output equals the
// raw oscillator sum.
func instantEnvelope(o *OscParams) {
	o.Attack.SetValue(0)
	o.Decay.SetValue(0)
	o.Sustain.SetValue(1)
	o.Release.SetValue(0)
}

func sineReference(freq, amplitude float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/testSampleRate)
	}
	return out
}

func TestVoiceCanPlay(t *testing.T) {
	p := newTestParameters(t)
	v := NewVoice(p, testSampleRate)

	if !v.CanPlay(OscillatorSound{}) {
		t.Error("Voice should play OscillatorSound")
	}
	if v.CanPlay(otherSound{}) {
		t.Error("Voice should reject other sounds")
	}
}

func TestVoiceSingleOscillator(t *testing.T) {
	p := newTestParameters(t)
	instantEnvelope(&p.Osc[0])
	p.Osc[0].Level.SetValue(0.5)

	v := NewVoice(p, testSampleRate)
	v.StartNote(69, 0.8, OscillatorSound{})

	if v.BaseFrequency() != 440 {
		t.Errorf("Expected base frequency 440, got %f", v.BaseFrequency())
	}

	buf := process.NewBuffer(2, 256)
	v.RenderNextBlock(buf, 0, 256)

	want := sineReference(440, 0.5*0.8, 256)
	for ch := 0; ch < 2; ch++ {
		if diff := debug.CompareBuffers(buf.Channel(ch), want, 1e-9); diff != "" {
			t.Errorf("Channel %d: %s", ch, diff)
		}
	}
}

func TestVoiceBothOscillators(t *testing.T) {
	p := newTestParameters(t)
	for i := range p.Osc {
		instantEnvelope(&p.Osc[i])
		p.Osc[i].Active.SetValue(1)
		p.Osc[i].Level.SetValue(1)
		p.Osc[i].Waveform.SetValue(0)
	}

	v := NewVoice(p, testSampleRate)
	v.StartNote(69, 1, OscillatorSound{})

	buf := process.NewBuffer(1, 256)
	v.RenderNextBlock(buf, 0, 256)

	// Two identical sines summed and divided by √2
	want := sineReference(440, math.Sqrt2, 256)
	if diff := debug.CompareBuffers(buf.Channel(0), want, 1e-9); diff != "" {
		t.Error(diff)
	}
}

func TestVoiceUnisonNormalization(t *testing.T) {
	p := newTestParameters(t)
	o := &p.Osc[0]
	instantEnvelope(o)
	o.Level.SetValue(1)
	o.Voices.SetValue(4)
	o.Detune.SetValue(0)
	o.Mix.SetValue(0.5)

	v := NewVoice(p, testSampleRate)
	v.StartNote(69, 1, OscillatorSound{})

	if n := v.Stack(0).NumVoices(); n != 4 {
		t.Fatalf("Expected 4 unison voices, got %d", n)
	}

	buf := process.NewBuffer(1, 512)
	v.RenderNextBlock(buf, 0, 512)

	// Four in-phase members at weight 0.5: 4 * 0.5 / √4
	want := sineReference(440, 1.0, 512)
	if diff := debug.CompareBuffers(buf.Channel(0), want, 1e-9); diff != "" {
		t.Error(diff)
	}
}

func TestVoiceAddsToBuffer(t *testing.T) {
	p := newTestParameters(t)
	instantEnvelope(&p.Osc[0])

	v := NewVoice(p, testSampleRate)
	v.StartNote(60, 1, OscillatorSound{})

	buf := process.NewBuffer(1, 64)
	for i := range buf.Channel(0) {
		buf.Channel(0)[i] = 1
	}
	v.RenderNextBlock(buf, 0, 64)

	// Sample 0 of a sine is 0, so the existing content must survive
	if buf.Channel(0)[0] != 1 {
		t.Errorf("Expected existing content kept, got %f", buf.Channel(0)[0])
	}
	if buf.Channel(0)[10] == 1 {
		t.Error("Expected voice output added")
	}
}

func TestVoiceStartOffset(t *testing.T) {
	p := newTestParameters(t)
	instantEnvelope(&p.Osc[0])

	v := NewVoice(p, testSampleRate)
	v.StartNote(60, 1, OscillatorSound{})

	buf := process.NewBuffer(1, 128)
	v.RenderNextBlock(buf, 100, 28)

	for i := 0; i < 100; i++ {
		if buf.Channel(0)[i] != 0 {
			t.Fatalf("Sample %d before start offset was written", i)
		}
	}
	if buf.Channel(0)[110] == 0 {
		t.Error("Expected output after the start offset")
	}
}

func TestVoiceInactiveRenderIsNoop(t *testing.T) {
	p := newTestParameters(t)
	v := NewVoice(p, testSampleRate)

	if v.IsActive() {
		t.Fatal("New voice should be idle")
	}
	if v.CurrentNote() != fvoice.NoNote {
		t.Errorf("Expected NoNote, got %d", v.CurrentNote())
	}

	buf := process.NewBuffer(2, 64)
	v.RenderNextBlock(buf, 0, 64)
	for ch := 0; ch < 2; ch++ {
		for i, s := range buf.Channel(ch) {
			if s != 0 {
				t.Fatalf("Idle voice wrote %f at %d", s, i)
			}
		}
	}
}

func TestVoiceStopNote(t *testing.T) {
	t.Run("tail off", func(t *testing.T) {
		p := newTestParameters(t)
		p.Osc[0].Release.SetValue(0.1)
		p.Osc[1].Release.SetValue(0.1)

		v := NewVoice(p, testSampleRate)
		v.StartNote(60, 1, OscillatorSound{})
		buf := process.NewBuffer(1, 512)
		v.RenderNextBlock(buf, 0, 512)

		v.StopNote(0, true)
		if !v.IsActive() {
			t.Fatal("Voice should keep sounding during release")
		}
		if v.Envelope(0).Stage() != envelope.StageRelease {
			t.Errorf("Expected release stage, got %v", v.Envelope(0).Stage())
		}

		// 0.2 s is well past the release
		for i := 0; i < 18; i++ {
			buf.Clear()
			v.RenderNextBlock(buf, 0, 512)
		}
		if v.IsActive() {
			t.Error("Voice should clear itself when the release ends")
		}
		if v.CurrentNote() != fvoice.NoNote {
			t.Errorf("Expected NoNote after release, got %d", v.CurrentNote())
		}
	})

	t.Run("hard stop", func(t *testing.T) {
		p := newTestParameters(t)
		v := NewVoice(p, testSampleRate)
		v.StartNote(60, 1, OscillatorSound{})

		v.StopNote(0, false)
		if v.IsActive() {
			t.Error("Voice should stop at once without tail off")
		}
	})

	t.Run("zero release", func(t *testing.T) {
		p := newTestParameters(t)
		for i := range p.Osc {
			instantEnvelope(&p.Osc[i])
		}
		v := NewVoice(p, testSampleRate)
		v.StartNote(60, 1, OscillatorSound{})

		v.StopNote(0, true)
		if v.IsActive() {
			t.Error("Voice with zero release should clear at once")
		}
	})
}

func TestVoiceCountChangeRebuildsOnce(t *testing.T) {
	p := newTestParameters(t)
	o := &p.Osc[0]
	instantEnvelope(o)
	o.Level.SetValue(1)

	v := NewVoice(p, testSampleRate)
	v.StartNote(69, 1, OscillatorSound{})

	buf := process.NewBuffer(1, 512)
	v.RenderNextBlock(buf, 0, 512)
	before := v.Stack(0).Rebuilds()
	rmsBefore := debug.AnalyzeBuffer(buf.Channel(0)).RMS

	o.Voices.SetValue(3)
	buf.Clear()
	v.RenderNextBlock(buf, 0, 512)

	if got := v.Stack(0).Rebuilds() - before; got != 1 {
		t.Errorf("Expected exactly 1 rebuild, got %d", got)
	}
	if v.Stack(0).NumVoices() != 3 {
		t.Errorf("Expected 3 unison voices, got %d", v.Stack(0).NumVoices())
	}

	// No dropout across the rebuild
	rmsAfter := debug.AnalyzeBuffer(buf.Channel(0)).RMS
	if rmsAfter < 0.5*rmsBefore {
		t.Errorf("Output dropped after rebuild: rms %f -> %f", rmsBefore, rmsAfter)
	}

	// Unrelated blocks do not rebuild
	for i := 0; i < 4; i++ {
		buf.Clear()
		v.RenderNextBlock(buf, 0, 512)
	}
	if got := v.Stack(0).Rebuilds() - before; got != 1 {
		t.Errorf("Expected no further rebuilds, got %d total", got)
	}
}

func TestVoiceFrequencySmoothing(t *testing.T) {
	p := newTestParameters(t)
	instantEnvelope(&p.Osc[0])

	v := NewVoice(p, testSampleRate)
	v.StartNote(69, 1, OscillatorSound{})

	buf := process.NewBuffer(1, 512)
	v.RenderNextBlock(buf, 0, 64)

	p.Osc[0].Octave.SetValue(1)
	v.RenderNextBlock(buf, 0, 100)

	// 100 samples into a ~441 sample glide
	f := v.Stack(0).BaseFrequency()
	if f <= 440 || f >= 880 {
		t.Errorf("Expected frequency between 440 and 880 mid glide, got %f", f)
	}

	v.RenderNextBlock(buf, 0, 512)
	if f := v.Stack(0).BaseFrequency(); math.Abs(f-880) > 1e-6 {
		t.Errorf("Expected 880 Hz after the glide, got %f", f)
	}
}

func TestVoiceEnvelopeChangeMidNote(t *testing.T) {
	p := newTestParameters(t)
	instantEnvelope(&p.Osc[0])

	v := NewVoice(p, testSampleRate)
	v.StartNote(60, 1, OscillatorSound{})

	buf := process.NewBuffer(1, 64)
	v.RenderNextBlock(buf, 0, 64)

	p.Osc[0].Sustain.SetValue(0.5)
	v.RenderNextBlock(buf, 0, 64)

	if got := v.Envelope(0).Value(); got != 0.5 {
		t.Errorf("Expected sustain level 0.5, got %f", got)
	}
}

func TestVoiceRetriggerReloadsParameters(t *testing.T) {
	p := newTestParameters(t)
	v := NewVoice(p, testSampleRate)
	v.StartNote(60, 1, OscillatorSound{})

	p.Osc[0].Voices.SetValue(5)
	p.Osc[0].Waveform.SetValue(3)
	v.StartNote(64, 0.5, OscillatorSound{})

	if v.CurrentNote() != 64 {
		t.Errorf("Expected note 64, got %d", v.CurrentNote())
	}
	if v.Stack(0).NumVoices() != 5 {
		t.Errorf("Expected 5 unison voices, got %d", v.Stack(0).NumVoices())
	}
	if v.Stack(0).Waveform() != 3 {
		t.Errorf("Expected triangle, got %v", v.Stack(0).Waveform())
	}
	if v.Envelope(0).Stage() != envelope.StageAttack {
		t.Errorf("Expected attack after retrigger, got %v", v.Envelope(0).Stage())
	}
}

func TestVoiceLevel(t *testing.T) {
	p := newTestParameters(t)
	instantEnvelope(&p.Osc[0])
	p.Osc[0].Level.SetValue(0.5)

	v := NewVoice(p, testSampleRate)
	v.StartNote(60, 0.5, OscillatorSound{})

	if got := v.Level(); math.Abs(got-0.25) > 1e-12 {
		t.Errorf("Expected level 0.25, got %f", got)
	}
}

func TestVoiceNoInvalidSamples(t *testing.T) {
	p := newTestParameters(t)
	for i := range p.Osc {
		o := &p.Osc[i]
		o.Active.SetValue(1)
		o.Voices.SetValue(16)
		o.Detune.SetValue(1)
		o.DetuneMax.SetValue(1)
		o.Level.SetValue(0.3)
	}
	p.Osc[1].Waveform.SetValue(4)

	v := NewVoice(p, testSampleRate)
	v.StartNote(127, 1, OscillatorSound{})

	buf := process.NewBuffer(1, 1024)
	v.RenderNextBlock(buf, 0, 1024)

	if r := debug.AnalyzeBuffer(buf.Channel(0)); r.HasInvalid() {
		t.Errorf("Found %d NaN and %d Inf samples", r.NaNCount, r.InfCount)
	}
}

func BenchmarkVoiceRender(b *testing.B) {
	p := newTestParameters(b)
	p.Osc[0].Voices.SetValue(7)
	p.Osc[1].Active.SetValue(1)
	p.Osc[1].Voices.SetValue(7)

	v := NewVoice(p, testSampleRate)
	buf := process.NewBuffer(2, 512)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if !v.IsActive() {
			v.StartNote(60, 1, OscillatorSound{})
		}
		v.RenderNextBlock(buf, 0, 512)
	}
}
