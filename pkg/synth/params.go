package synth

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/justyntemme/pocketsynth/pkg/dsp/envelope"
	"github.com/justyntemme/pocketsynth/pkg/dsp/oscillator"
	"github.com/justyntemme/pocketsynth/pkg/dsp/unison"
	"github.com/justyntemme/pocketsynth/pkg/framework/param"
)

// NumOscillators is the number of oscillator sections per voice
const NumOscillators = 2

// Global parameter IDs
const (
	ParamGain   = "gain"
	ParamVoices = "voices"
)

// Per-oscillator parameter names, prefixed with "oscN_"
const (
	ParamActive          = "active"
	ParamWaveform        = "waveform"
	ParamOctave          = "octave"
	ParamSemitone        = "semitone"
	ParamFine            = "fine"
	ParamAttack          = "attack"
	ParamDecay           = "decay"
	ParamSustain         = "sustain"
	ParamRelease         = "release"
	ParamUnisonVoices    = "voices"
	ParamUnisonDetuneMax = "voicesDetuneMax"
	ParamUnisonDetune    = "voicesDetune"
	ParamUnisonMix       = "voicesMix"
	ParamUnisonPan       = "voicesPan"
	ParamLevel           = "level"
	ParamPan             = "pan"
)

// Default global values
const (
	DefaultGain       = 0.6
	DefaultPolyphony  = 8
	DefaultLevel      = 0.8
	// A single voice is its own center, so a full center weight keeps it
	// at Level. Outer unison members are silent until the mix is lowered.
	DefaultUnisonMix  = 1.0
	MaxPolyphony      = 16
	smoothingTimeMs   = 10.0
	defaultSampleRate = 44100.0
)

// OscParamID returns the ID of a parameter of oscillator osc (0-based)
func OscParamID(osc int, name string) string {
	return fmt.Sprintf("osc%d_%s", osc+1, name)
}

// OscParams holds the parameter handles of one oscillator section
type OscParams struct {
	Active    *param.Parameter
	Waveform  *param.Parameter
	Octave    *param.Parameter
	Semitone  *param.Parameter
	Fine      *param.Parameter
	Attack    *param.Parameter
	Decay     *param.Parameter
	Sustain   *param.Parameter
	Release   *param.Parameter
	Voices    *param.Parameter
	DetuneMax *param.Parameter
	Detune    *param.Parameter
	Mix       *param.Parameter
	VoicesPan *param.Parameter
	Level     *param.Parameter
	Pan       *param.Parameter
}

// Parameters is the full parameter layout of the synth. The handles are
// stable for the lifetime of the registry and are read from the audio
// thread without locking.
type Parameters struct {
	Osc    [NumOscillators]OscParams
	Gain   *param.Parameter
	Voices *param.Parameter

	registry *param.Registry
}

// NewParameters declares every synth parameter in r and returns their handles
func NewParameters(r *param.Registry) (*Parameters, error) {
	p := &Parameters{registry: r}

	p.Gain = param.LevelParameter(ParamGain, "Gain", DefaultGain).Build()
	p.Voices = param.IntParameter(ParamVoices, "Voices", 1, MaxPolyphony, DefaultPolyphony).
		Formatter(voiceCountFormatter, nil).
		Build()
	if err := r.Add(p.Gain, p.Voices); err != nil {
		return nil, fmt.Errorf("register globals: %w", err)
	}

	for i := range p.Osc {
		if err := p.Osc[i].register(r, i); err != nil {
			return nil, fmt.Errorf("register oscillator %d: %w", i+1, err)
		}
	}
	return p, nil
}

// Registry returns the registry the parameters live in
func (p *Parameters) Registry() *param.Registry {
	return p.registry
}

func (o *OscParams) register(r *param.Registry, osc int) error {
	id := func(name string) string { return OscParamID(osc, name) }
	label := func(name string) string { return fmt.Sprintf("Osc %d %s", osc+1, name) }

	// Only the first oscillator sounds by default
	o.Active = param.ToggleParameter(id(ParamActive), label("Active"), osc == 0).Build()
	o.Waveform = param.Choice(id(ParamWaveform), label("Waveform"), waveformOptions()).Build()
	o.Octave = param.IntParameter(id(ParamOctave), label("Octave"), -3, 3, 0).
		Formatter(octaveFormatter, octaveParser).
		Build()
	o.Semitone = param.SemitoneParameter(id(ParamSemitone), label("Semitone"), -11, 11).Build()
	o.Fine = param.CentsParameter(id(ParamFine), label("Fine"), -100, 100).Build()

	o.Attack = param.TimeParameter(id(ParamAttack), label("Attack"), 0, 1, 0.01).Build()
	o.Decay = param.TimeParameter(id(ParamDecay), label("Decay"), 0, 1, 0.1).Build()
	o.Sustain = param.LevelParameter(id(ParamSustain), label("Sustain"), 0.8).Build()
	o.Release = param.TimeParameter(id(ParamRelease), label("Release"), 0, 1, 0.3).Build()

	o.Voices = param.IntParameter(id(ParamUnisonVoices), label("Unison"), 1, unison.MaxVoices, 1).
		Formatter(voiceCountFormatter, nil).
		Build()
	o.DetuneMax = param.New(id(ParamUnisonDetuneMax), label("Detune Range")).
		Range(0, 1).
		Default(0.5).
		Unit("st").
		Formatter(semitoneFractionFormatter, semitoneFractionParser).
		Build()
	o.Detune = param.LevelParameter(id(ParamUnisonDetune), label("Detune"), 0.25).Build()
	o.Mix = param.LevelParameter(id(ParamUnisonMix), label("Unison Mix"), DefaultUnisonMix).Build()
	o.VoicesPan = param.LevelParameter(id(ParamUnisonPan), label("Unison Pan"), 0.5).Build()
	o.Level = param.LevelParameter(id(ParamLevel), label("Level"), DefaultLevel).Build()
	o.Pan = param.PanParameter(id(ParamPan), label("Pan")).Build()

	return r.Add(
		o.Active, o.Waveform, o.Octave, o.Semitone, o.Fine,
		o.Attack, o.Decay, o.Sustain, o.Release,
		o.Voices, o.DetuneMax, o.Detune, o.Mix, o.VoicesPan,
		o.Level, o.Pan,
	)
}

func waveformOptions() []param.ChoiceOption {
	opts := param.Options(oscillator.Names()...)
	opts[oscillator.Saw].Aliases = []string{"sawtooth"}
	opts[oscillator.Triangle].Aliases = []string{"tri"}
	opts[oscillator.Square].Aliases = []string{"pulse"}
	return opts
}

func voiceCountFormatter(v float64) string {
	return fmt.Sprintf("%d", int(math.Round(v)))
}

func octaveFormatter(v float64) string {
	return fmt.Sprintf("%+d oct", int(math.Round(v)))
}

func octaveParser(s string) (float64, error) {
	return parseWithUnit(s, "oct")
}

func semitoneFractionFormatter(v float64) string {
	return fmt.Sprintf("%.2f st", v)
}

func semitoneFractionParser(s string) (float64, error) {
	return parseWithUnit(s, "st")
}

func parseWithUnit(s, unit string) (float64, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), unit))
	return strconv.ParseFloat(s, 64)
}

// OscSettings is a plain snapshot of one oscillator section
type OscSettings struct {
	Active    bool
	Waveform  oscillator.Waveform
	Octave    float64
	Semitone  float64
	Fine      float64
	Envelope  envelope.Parameters
	Voices    int
	DetuneMax float64 // semitones
	Detune    float64 // fraction of DetuneMax
	Mix       float64
	VoicesPan float64
	Level     float64
	Pan       float64
}

// Snapshot reads every handle once
func (o *OscParams) Snapshot() OscSettings {
	return OscSettings{
		Active:   o.Active.Bool(),
		Waveform: oscillator.FromIndex(o.Waveform.Value()),
		Octave:   o.Octave.Value(),
		Semitone: o.Semitone.Value(),
		Fine:     o.Fine.Value(),
		Envelope: envelope.Parameters{
			Attack:  o.Attack.Value(),
			Decay:   o.Decay.Value(),
			Sustain: o.Sustain.Value(),
			Release: o.Release.Value(),
		},
		Voices:    o.Voices.Int(),
		DetuneMax: o.DetuneMax.Value(),
		Detune:    o.Detune.Value(),
		Mix:       o.Mix.Value(),
		VoicesPan: o.VoicesPan.Value(),
		Level:     o.Level.Value(),
		Pan:       o.Pan.Value(),
	}
}

// DetuneCents returns the total unison spread in cents
func (s OscSettings) DetuneCents() float64 {
	return s.Detune * s.DetuneMax * 100.0
}

// PitchRatio returns the transpose factor from octave, semitone and fine
func (s OscSettings) PitchRatio() float64 {
	return math.Exp2(s.Octave + s.Semitone/12.0 + s.Fine/1200.0)
}
