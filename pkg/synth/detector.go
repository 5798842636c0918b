package synth

import (
	"strings"
)

// Change is a set of flags describing which part of a voice must be
// updated after a parameter write.
type Change uint8

const (
	// ChangeWaveform: the stack waveform
	ChangeWaveform Change = 1 << iota
	// ChangeFrequency: octave, semitone, fine or detune
	ChangeFrequency
	// ChangeVoiceCount: the unison member count, needs a stack rebuild
	ChangeVoiceCount
	// ChangeEnvelope: attack, decay, sustain or release
	ChangeEnvelope
	// ChangeLevel: level, pan, mix, unison pan or active
	ChangeLevel

	// ChangeAll forces a full reload
	ChangeAll = ChangeWaveform | ChangeFrequency | ChangeVoiceCount | ChangeEnvelope | ChangeLevel
)

// Has reports whether every flag in f is set
func (c Change) Has(f Change) bool {
	return c&f == f
}

func (c Change) String() string {
	if c == 0 {
		return "None"
	}
	names := []string{"Waveform", "Frequency", "VoiceCount", "Envelope", "Level"}
	var parts []string
	for i, name := range names {
		if c&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, "|")
}

// VersionSource reports a counter that increases on every parameter write.
// *param.Registry implements it.
type VersionSource interface {
	Version() uint64
}

// Detector caches the settings of one oscillator section and reports
// what changed since the last Commit.
//
// Detect and Commit are called from the audio thread once per block.
type Detector struct {
	params   *OscParams
	versions VersionSource

	cached    OscSettings
	live      OscSettings
	committed uint64 // version of cached
	seen      uint64 // version read by the last Detect
	valid     bool
}

// NewDetector creates a detector for one oscillator section.
// versions may be nil, in which case every Detect compares all fields.
func NewDetector(params *OscParams, versions VersionSource) *Detector {
	return &Detector{params: params, versions: versions}
}

// Detect reads the live values and returns the changes against the cache.
// The live snapshot is kept until Commit.
func (d *Detector) Detect() Change {
	// Read the version before the values so a write that races with the
	// snapshot is seen again next block.
	if d.versions != nil {
		d.seen = d.versions.Version()
		if d.valid && d.seen == d.committed {
			d.live = d.cached
			return 0
		}
	}

	d.live = d.params.Snapshot()
	if !d.valid {
		return ChangeAll
	}
	return compare(d.cached, d.live)
}

// Commit copies the values read by the last Detect into the cache
func (d *Detector) Commit() {
	d.cached = d.live
	d.committed = d.seen
	d.valid = true
}

// Load reads and commits the live values unconditionally
func (d *Detector) Load() OscSettings {
	if d.versions != nil {
		d.seen = d.versions.Version()
	}
	d.live = d.params.Snapshot()
	d.Commit()
	return d.cached
}

// Settings returns the values read by the last Detect or Load
func (d *Detector) Settings() OscSettings {
	return d.live
}

// Invalidate makes the next Detect report ChangeAll
func (d *Detector) Invalidate() {
	d.valid = false
}

func compare(old, cur OscSettings) Change {
	var c Change
	if old.Waveform != cur.Waveform {
		c |= ChangeWaveform
	}
	if old.Octave != cur.Octave || old.Semitone != cur.Semitone || old.Fine != cur.Fine ||
		old.Detune != cur.Detune || old.DetuneMax != cur.DetuneMax {
		c |= ChangeFrequency
	}
	if old.Voices != cur.Voices {
		c |= ChangeVoiceCount
	}
	if old.Envelope != cur.Envelope {
		c |= ChangeEnvelope
	}
	if old.Level != cur.Level || old.Pan != cur.Pan || old.Mix != cur.Mix ||
		old.VoicesPan != cur.VoicesPan || old.Active != cur.Active {
		c |= ChangeLevel
	}
	return c
}
