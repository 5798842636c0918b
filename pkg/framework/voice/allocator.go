// Package voice dispatches note events to a fixed pool of voices.
package voice

import (
	"github.com/justyntemme/pocketsynth/pkg/framework/process"
	"github.com/justyntemme/pocketsynth/pkg/midi"
)

// AllocationMode defines how voices are allocated
type AllocationMode int

const (
	// Poly mode - each note gets its own voice
	ModePoly AllocationMode = iota
	// Mono mode - only one voice active at a time, last note priority
	ModeMono
)

// StealingMode defines how voices are stolen when all are in use
type StealingMode int

const (
	// StealOldest steals the oldest playing voice
	StealOldest StealingMode = iota
	// StealQuietest steals the voice with lowest amplitude
	StealQuietest
	// StealHighest steals the highest pitched voice
	StealHighest
	// StealLowest steals the lowest pitched voice
	StealLowest
	// StealNone doesn't steal - new notes are ignored when full
	StealNone
)

// NoNote is returned by CurrentNote when a voice is idle
const NoNote = -1

// Sound describes what a voice can be asked to play
type Sound interface {
	AppliesToNote(note uint8) bool
}

// Voice represents a single voice in the synthesizer
type Voice interface {
	// CanPlay reports whether the voice supports the sound
	CanPlay(s Sound) bool
	// StartNote starts playing a note, velocity in [0, 1]
	StartNote(note uint8, velocity float64, s Sound)
	// StopNote releases the note, or stops at once when allowTailOff is false
	StopNote(velocity float64, allowTailOff bool)
	// RenderNextBlock adds n samples of output into buf starting at start
	RenderNextBlock(buf *process.Buffer, start, n int)
	// IsActive returns true if the voice is currently producing sound
	IsActive() bool
	// CurrentNote returns the note being played or NoNote
	CurrentNote() int
	// Level returns the current amplitude (for steal quietest)
	Level() float64
	PitchWheelMoved(value int)
	ControllerMoved(controller, value int)
}

// slot is the allocator's bookkeeping for one voice
type slot struct {
	note      int
	held      bool   // key is down
	sustained bool   // key released while the pedal was down
	seq       uint64 // start order, for steal oldest
}

// Allocator manages voice allocation for polyphonic synthesis.
// It never allocates after NewAllocator and is meant to be driven from the
// audio thread only.
type Allocator struct {
	voices        []Voice
	slots         []slot
	sound         Sound
	mode          AllocationMode
	stealingMode  StealingMode
	maxVoices     int
	lastTriggered int
	sustainPedal  bool
	seq           uint64

	// Mono mode held-note stack, most recent last
	monoStack    [128]uint8
	monoLen      int
	monoVelocity float64
}

// NewAllocator creates a new voice allocator
func NewAllocator(voices []Voice, sound Sound) *Allocator {
	a := &Allocator{
		voices:       voices,
		slots:        make([]slot, len(voices)),
		sound:        sound,
		mode:         ModePoly,
		stealingMode: StealOldest,
		maxVoices:    len(voices),
	}
	for i := range a.slots {
		a.slots[i].note = NoNote
	}
	return a
}

// SetMode sets the allocation mode
func (a *Allocator) SetMode(mode AllocationMode) {
	if mode == a.mode {
		return
	}
	a.mode = mode
	// Reset all voices when changing mode
	a.Reset()
}

// SetStealingMode sets the voice stealing mode
func (a *Allocator) SetStealingMode(mode StealingMode) {
	a.stealingMode = mode
}

// SetMaxVoices sets the maximum number of active voices.
// Voices above the new limit are released.
func (a *Allocator) SetMaxVoices(n int) {
	if n > len(a.voices) {
		n = len(a.voices)
	}
	if n < 1 {
		n = 1
	}
	if n == a.maxVoices {
		return
	}
	for i := n; i < a.maxVoices; i++ {
		if a.voices[i].IsActive() {
			a.voices[i].StopNote(0, true)
		}
		a.slots[i].held = false
		a.slots[i].sustained = false
	}
	a.maxVoices = n
	if a.lastTriggered >= n {
		a.lastTriggered = 0
	}
}

// MaxVoices returns the polyphony limit
func (a *Allocator) MaxVoices() int {
	return a.maxVoices
}

// ProcessEvent handles a MIDI event
func (a *Allocator) ProcessEvent(e midi.Event) {
	switch e.Type {
	case midi.EventTypeNoteOn:
		if e.IsNoteOn() {
			a.NoteOn(e.Note(), e.Velocity())
		} else {
			// Note on with velocity 0 is treated as note off
			a.NoteOff(e.Note(), 0)
		}
	case midi.EventTypeNoteOff:
		a.NoteOff(e.Note(), e.Velocity())
	case midi.EventTypeControlChange:
		switch e.Controller() {
		case midi.CCSustain:
			a.SetSustainPedal(e.Value() >= 64)
		case midi.CCAllNotesOff:
			a.AllNotesOff(true)
		case midi.CCAllSoundOff:
			a.AllNotesOff(false)
		default:
			for i := 0; i < a.maxVoices; i++ {
				a.voices[i].ControllerMoved(int(e.Controller()), int(e.Value()))
			}
		}
	case midi.EventTypePitchBend:
		for i := 0; i < a.maxVoices; i++ {
			a.voices[i].PitchWheelMoved(int(e.Bend))
		}
	}
}

// NoteOn handles a note on event, velocity in [0, 1]
func (a *Allocator) NoteOn(note uint8, velocity float64) {
	if a.sound == nil || !a.sound.AppliesToNote(note) {
		return
	}
	switch a.mode {
	case ModePoly:
		a.noteOnPoly(note, velocity)
	case ModeMono:
		a.noteOnMono(note, velocity)
	}
}

// NoteOff handles a note off event
func (a *Allocator) NoteOff(note uint8, velocity float64) {
	switch a.mode {
	case ModePoly:
		a.noteOffPoly(note, velocity)
	case ModeMono:
		a.noteOffMono(note, velocity)
	}
}

// SetSustainPedal sets the sustain pedal state
func (a *Allocator) SetSustainPedal(on bool) {
	a.sustainPedal = on
	if on {
		return
	}
	// Release all sustained notes
	for i := 0; i < a.maxVoices; i++ {
		s := &a.slots[i]
		if s.sustained && !s.held {
			a.voices[i].StopNote(0, true)
		}
		s.sustained = false
	}
}

// SustainPedal reports the pedal state
func (a *Allocator) SustainPedal() bool {
	return a.sustainPedal
}

// AllNotesOff releases every voice
func (a *Allocator) AllNotesOff(allowTailOff bool) {
	for i, v := range a.voices {
		if v.IsActive() {
			v.StopNote(0, allowTailOff)
		}
		a.slots[i].held = false
		a.slots[i].sustained = false
	}
	a.monoLen = 0
}

// Reset stops all voices and clears allocations
func (a *Allocator) Reset() {
	a.AllNotesOff(false)
	for i := range a.slots {
		a.slots[i] = slot{note: NoNote}
	}
	a.sustainPedal = false
	a.lastTriggered = 0
}

// Render renders every active voice into buf and updates bookkeeping
// for voices that finished.
func (a *Allocator) Render(buf *process.Buffer, start, n int) {
	for i, v := range a.voices {
		if v.IsActive() {
			v.RenderNextBlock(buf, start, n)
		}
		if !v.IsActive() && a.slots[i].note != NoNote {
			a.slots[i] = slot{note: NoNote}
		}
	}
}

// GetActiveVoiceCount returns the number of active voices
func (a *Allocator) GetActiveVoiceCount() int {
	count := 0
	for _, voice := range a.voices {
		if voice.IsActive() {
			count++
		}
	}
	return count
}

// IsNoteHeld reports whether a key is down for note
func (a *Allocator) IsNoteHeld(note uint8) bool {
	for i := 0; i < a.maxVoices; i++ {
		if a.slots[i].held && a.slots[i].note == int(note) {
			return true
		}
	}
	return false
}

func (a *Allocator) start(idx int, note uint8, velocity float64) {
	a.seq++
	a.voices[idx].StartNote(note, velocity, a.sound)
	a.slots[idx] = slot{note: int(note), held: true, seq: a.seq}
}

// noteOnPoly handles poly mode note on
func (a *Allocator) noteOnPoly(note uint8, velocity float64) {
	// Retrigger the note on an existing voice
	for i := 0; i < a.maxVoices; i++ {
		if a.slots[i].note == int(note) && a.voices[i].IsActive() {
			a.start(i, note, velocity)
			return
		}
	}

	// Find a free voice
	voiceIdx := a.findFreeVoice()
	if voiceIdx == -1 {
		// No free voice, try stealing
		voiceIdx = a.stealVoice()
		if voiceIdx == -1 {
			// Couldn't steal a voice
			return
		}
	}

	a.start(voiceIdx, note, velocity)
}

// noteOffPoly handles poly mode note off
func (a *Allocator) noteOffPoly(note uint8, velocity float64) {
	for i := 0; i < a.maxVoices; i++ {
		s := &a.slots[i]
		if !s.held || s.note != int(note) {
			continue
		}
		s.held = false
		if a.sustainPedal {
			// Mark note as sustained instead of releasing
			s.sustained = true
			continue
		}
		a.voices[i].StopNote(velocity, true)
	}
}

// noteOnMono handles mono mode note on
func (a *Allocator) noteOnMono(note uint8, velocity float64) {
	a.monoRemove(note)
	if a.monoLen < len(a.monoStack) {
		a.monoStack[a.monoLen] = note
		a.monoLen++
	}
	a.monoVelocity = velocity
	a.start(0, note, velocity)
}

// noteOffMono handles mono mode note off
func (a *Allocator) noteOffMono(note uint8, velocity float64) {
	wasCurrent := a.monoLen > 0 && a.monoStack[a.monoLen-1] == note
	a.monoRemove(note)
	if !wasCurrent {
		return
	}

	// Fall back to the most recent key still held
	if a.monoLen > 0 {
		a.start(0, a.monoStack[a.monoLen-1], a.monoVelocity)
		return
	}

	s := &a.slots[0]
	s.held = false
	if a.sustainPedal {
		s.sustained = true
		return
	}
	a.voices[0].StopNote(velocity, true)
}

func (a *Allocator) monoRemove(note uint8) {
	j := 0
	for i := 0; i < a.monoLen; i++ {
		if a.monoStack[i] != note {
			a.monoStack[j] = a.monoStack[i]
			j++
		}
	}
	a.monoLen = j
}

// findFreeVoice finds an inactive voice that can play the sound
func (a *Allocator) findFreeVoice() int {
	// Use round-robin to distribute voices evenly
	start := a.lastTriggered
	for i := 0; i < a.maxVoices; i++ {
		idx := (start + i + 1) % a.maxVoices
		v := a.voices[idx]
		if !v.IsActive() && v.CanPlay(a.sound) {
			a.lastTriggered = idx
			return idx
		}
	}
	return -1
}

// stealVoice steals a voice based on the stealing mode
func (a *Allocator) stealVoice() int {
	if a.stealingMode == StealNone {
		return -1
	}

	var bestIdx = -1
	var bestValue float64

	for i := 0; i < a.maxVoices; i++ {
		v := a.voices[i]
		if !v.IsActive() || !v.CanPlay(a.sound) {
			continue
		}

		switch a.stealingMode {
		case StealOldest:
			seq := float64(a.slots[i].seq)
			if bestIdx == -1 || seq < bestValue {
				bestIdx = i
				bestValue = seq
			}
		case StealQuietest:
			amp := v.Level()
			if bestIdx == -1 || amp < bestValue {
				bestIdx = i
				bestValue = amp
			}
		case StealHighest:
			note := float64(v.CurrentNote())
			if bestIdx == -1 || note > bestValue {
				bestIdx = i
				bestValue = note
			}
		case StealLowest:
			note := float64(v.CurrentNote())
			if bestIdx == -1 || note < bestValue {
				bestIdx = i
				bestValue = note
			}
		}
	}

	if bestIdx != -1 {
		a.voices[bestIdx].StopNote(0, false)
		a.slots[bestIdx] = slot{note: NoNote}
	}

	return bestIdx
}
