// Package envelope provides envelope generators for audio synthesis
package envelope

// Stage represents the current envelope stage
type Stage int

const (
	// StageIdle represents envelope idle state
	StageIdle Stage = iota
	// StageAttack represents envelope attack phase
	StageAttack
	// StageDecay represents envelope decay phase
	StageDecay
	// StageSustain represents envelope sustain phase
	StageSustain
	// StageRelease represents envelope release phase
	StageRelease
)

// String returns the stage name
func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "Idle"
	case StageAttack:
		return "Attack"
	case StageDecay:
		return "Decay"
	case StageSustain:
		return "Sustain"
	case StageRelease:
		return "Release"
	default:
		return "Unknown"
	}
}

// Parameters holds the ADSR settings.
// Times are in seconds, sustain is a level in [0, 1].
type Parameters struct {
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64
}

// ADSR implements a linear Attack-Decay-Sustain-Release envelope generator
type ADSR struct {
	sampleRate float64
	params     Parameters

	// Per-sample increments, 0 means the stage completes in one sample
	attackRate  float64
	decayRate   float64
	releaseRate float64

	// Rise to a sustain level raised above the output mid-decay
	riseRate float64

	// State
	stage Stage
	value float64
}

// New creates a new ADSR envelope
func New(sampleRate float64) *ADSR {
	env := &ADSR{
		sampleRate: sampleRate,
		stage:      StageIdle,
	}
	env.SetParameters(Parameters{
		Attack:  0.01,
		Decay:   0.1,
		Sustain: 0.7,
		Release: 0.3,
	})
	return env
}

// SetSampleRate updates the sample rate and recalculates rates
func (e *ADSR) SetSampleRate(sampleRate float64) {
	e.sampleRate = sampleRate
	e.recalculateRates()
}

// SetParameters sets all parameters at once. Safe to call mid-note.
func (e *ADSR) SetParameters(p Parameters) {
	if p.Attack < 0 {
		p.Attack = 0
	}
	if p.Decay < 0 {
		p.Decay = 0
	}
	if p.Release < 0 {
		p.Release = 0
	}
	if p.Sustain < 0 {
		p.Sustain = 0
	} else if p.Sustain > 1 {
		p.Sustain = 1
	}
	e.params = p
	e.recalculateRates()
}

// Parameters returns the current settings
func (e *ADSR) Parameters() Parameters {
	return e.params
}

// rate returns the per-sample step to cover distance over seconds,
// or 0 when the stage is shorter than one sample.
func (e *ADSR) rate(distance, seconds float64) float64 {
	samples := seconds * e.sampleRate
	if samples < 1.0 {
		return 0
	}
	return distance / samples
}

func (e *ADSR) recalculateRates() {
	e.attackRate = e.rate(1.0, e.params.Attack)
	e.decayRate = e.rate(1.0-e.params.Sustain, e.params.Decay)

	// A release already in progress keeps its slope relative to the new time
	if e.stage == StageRelease {
		e.releaseRate = e.rate(e.value, e.params.Release)
	} else {
		e.releaseRate = e.rate(e.params.Sustain, e.params.Release)
	}

	if e.stage == StageDecay && e.value < e.params.Sustain {
		e.riseRate = e.rate(e.params.Sustain-e.value, e.params.Decay)
	}
	if e.stage == StageSustain {
		e.value = e.params.Sustain
	}
}

// NoteOn starts the attack stage from the current level
func (e *ADSR) NoteOn() {
	if e.attackRate > 0 {
		e.stage = StageAttack
		return
	}
	if e.decayRate > 0 {
		e.value = 1.0
		e.stage = StageDecay
		return
	}
	e.value = e.params.Sustain
	e.stage = StageSustain
}

// NoteOff starts the release stage from the current level
func (e *ADSR) NoteOff() {
	if e.stage == StageIdle {
		return
	}
	e.releaseRate = e.rate(e.value, e.params.Release)
	if e.releaseRate > 0 {
		e.stage = StageRelease
		return
	}
	e.Reset()
}

// Reset immediately returns the envelope to idle
func (e *ADSR) Reset() {
	e.stage = StageIdle
	e.value = 0.0
}

// IsActive returns true if the envelope is generating output
func (e *ADSR) IsActive() bool {
	return e.stage != StageIdle
}

// Stage returns the current envelope stage
func (e *ADSR) Stage() Stage {
	return e.stage
}

// Value returns the last generated level
func (e *ADSR) Value() float64 {
	return e.value
}

// AttackIncrement returns the per-sample level change during attack
func (e *ADSR) AttackIncrement() float64 {
	if e.attackRate == 0 {
		return 1.0
	}
	return e.attackRate
}

// NextSample advances the envelope by one sample and returns its level
func (e *ADSR) NextSample() float64 {
	switch e.stage {
	case StageIdle:
		return 0.0

	case StageAttack:
		e.value += e.attackRate
		if e.attackRate == 0 || e.value >= 1.0 {
			e.value = 1.0
			e.goToDecay()
		}

	case StageDecay:
		if e.value < e.params.Sustain {
			e.value += e.riseRate
			if e.riseRate == 0 || e.value >= e.params.Sustain {
				e.value = e.params.Sustain
				e.stage = StageSustain
			}
			break
		}
		e.value -= e.decayRate
		if e.decayRate == 0 || e.value <= e.params.Sustain {
			e.value = e.params.Sustain
			e.stage = StageSustain
		}

	case StageSustain:
		e.value = e.params.Sustain

	case StageRelease:
		e.value -= e.releaseRate
		if e.value <= 0.0 {
			e.Reset()
		}
	}

	return e.value
}

func (e *ADSR) goToDecay() {
	if e.decayRate > 0 && e.params.Sustain < 1.0 {
		e.stage = StageDecay
		return
	}
	e.stage = StageSustain
	e.value = e.params.Sustain
}

// Process fills buffer with envelope values - no allocations
func (e *ADSR) Process(buffer []float64) {
	for i := range buffer {
		buffer[i] = e.NextSample()
	}
}
