package synth

import (
	"math"
	"testing"

	"github.com/justyntemme/pocketsynth/pkg/dsp/oscillator"
	"github.com/justyntemme/pocketsynth/pkg/framework/param"
)

func newTestParameters(t testing.TB) *Parameters {
	t.Helper()
	p, err := NewParameters(param.NewRegistry())
	if err != nil {
		t.Fatalf("NewParameters failed: %v", err)
	}
	return p
}

func TestParameterLayout(t *testing.T) {
	p := newTestParameters(t)
	r := p.Registry()

	if want := 2 + NumOscillators*16; r.Count() != want {
		t.Errorf("Expected %d parameters, got %d", want, r.Count())
	}

	for _, id := range []string{
		"gain", "voices",
		"osc1_active", "osc1_waveform", "osc1_octave", "osc1_semitone", "osc1_fine",
		"osc1_attack", "osc1_decay", "osc1_sustain", "osc1_release",
		"osc1_voices", "osc1_voicesDetuneMax", "osc1_voicesDetune", "osc1_voicesMix",
		"osc1_voicesPan", "osc1_level", "osc1_pan",
		"osc2_active", "osc2_voicesDetuneMax", "osc2_pan",
	} {
		if r.Get(id) == nil {
			t.Errorf("Missing parameter %s", id)
		}
	}

	if !p.Osc[0].Active.Bool() || p.Osc[1].Active.Bool() {
		t.Error("Expected only oscillator 1 active by default")
	}
	if p.Gain.Value() != DefaultGain {
		t.Errorf("Expected default gain %f, got %f", DefaultGain, p.Gain.Value())
	}
	if p.Voices.Int() != DefaultPolyphony {
		t.Errorf("Expected default polyphony %d, got %d", DefaultPolyphony, p.Voices.Int())
	}
}

func TestParameterRanges(t *testing.T) {
	p := newTestParameters(t)
	o := &p.Osc[0]

	tests := []struct {
		name     string
		param    *param.Parameter
		min, max float64
	}{
		{"octave", o.Octave, -3, 3},
		{"semitone", o.Semitone, -11, 11},
		{"fine", o.Fine, -100, 100},
		{"attack", o.Attack, 0, 1},
		{"voices", o.Voices, 1, 16},
		{"waveform", o.Waveform, 0, 4},
		{"pan", o.Pan, -1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.param.Min != tt.min || tt.param.Max != tt.max {
				t.Errorf("Expected range [%g, %g], got [%g, %g]", tt.min, tt.max, tt.param.Min, tt.param.Max)
			}
		})
	}
}

func TestParameterText(t *testing.T) {
	p := newTestParameters(t)
	r := p.Registry()

	tests := []struct {
		id   string
		text string
		want float64
	}{
		{"osc1_waveform", "saw", float64(oscillator.Saw)},
		{"osc1_waveform", "Tri", float64(oscillator.Triangle)},
		{"osc2_octave", "+2 oct", 2},
		{"osc2_octave", "-1", -1},
		{"osc1_voicesDetuneMax", "0.75 st", 0.75},
		{"osc1_voices", "7", 7},
		{"osc1_release", "250 ms", 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.id+"="+tt.text, func(t *testing.T) {
			if err := r.SetText(tt.id, tt.text); err != nil {
				t.Fatalf("SetText failed: %v", err)
			}
			if got := r.Get(tt.id).Value(); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Expected %g, got %g", tt.want, got)
			}
		})
	}

	if got := r.Get("osc2_octave").String(); got != "-1 oct" {
		t.Errorf("Expected \"-1 oct\", got %q", got)
	}
}

func TestOscSettings(t *testing.T) {
	p := newTestParameters(t)
	o := &p.Osc[0]

	o.Waveform.SetValue(float64(oscillator.Square))
	o.Octave.SetValue(1)
	o.Semitone.SetValue(7)
	o.Fine.SetValue(-50)
	o.Detune.SetValue(0.5)
	o.DetuneMax.SetValue(1)
	o.Voices.SetValue(5)

	s := o.Snapshot()
	if s.Mix != DefaultUnisonMix {
		t.Errorf("Expected default mix %f, got %f", DefaultUnisonMix, s.Mix)
	}
	if s.Waveform != oscillator.Square {
		t.Errorf("Expected Square, got %v", s.Waveform)
	}
	if s.Voices != 5 {
		t.Errorf("Expected 5 voices, got %d", s.Voices)
	}
	if s.DetuneCents() != 50 {
		t.Errorf("Expected 50 cents detune, got %f", s.DetuneCents())
	}

	want := math.Pow(2, 1+7.0/12.0-50.0/1200.0)
	if math.Abs(s.PitchRatio()-want) > 1e-12 {
		t.Errorf("Expected pitch ratio %f, got %f", want, s.PitchRatio())
	}
}

func TestOscParamID(t *testing.T) {
	if got := OscParamID(1, ParamUnisonMix); got != "osc2_voicesMix" {
		t.Errorf("Expected osc2_voicesMix, got %s", got)
	}
}
