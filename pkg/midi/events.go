// Package midi provides note and controller events and a lock-free queue
// for handing them to the audio thread.
package midi

import (
	"fmt"
	"math"
)

type EventType uint8

const (
	EventTypeNoteOff EventType = iota
	EventTypeNoteOn
	EventTypeControlChange
	EventTypePitchBend
)

func (t EventType) String() string {
	switch t {
	case EventTypeNoteOff:
		return "NoteOff"
	case EventTypeNoteOn:
		return "NoteOn"
	case EventTypeControlChange:
		return "CC"
	case EventTypePitchBend:
		return "PitchBend"
	default:
		return "Unknown"
	}
}

// Event is a channel message scheduled at a sample offset inside a block.
// It is a plain value so queues can hold it without allocating.
type Event struct {
	Type    EventType
	Channel uint8
	Data1   uint8 // note number or controller
	Data2   uint8 // velocity or controller value
	Bend    int16 // -8192 to 8191, 0 is center
	Offset  int32
}

const (
	CCModWheel    uint8 = 1
	CCVolume      uint8 = 7
	CCPan         uint8 = 10
	CCExpression  uint8 = 11
	CCSustain     uint8 = 64
	CCAllSoundOff uint8 = 120
	CCResetAll    uint8 = 121
	CCAllNotesOff uint8 = 123
)

func NoteOn(channel, note, velocity uint8, offset int32) Event {
	return Event{Type: EventTypeNoteOn, Channel: channel, Data1: note, Data2: velocity, Offset: offset}
}

func NoteOff(channel, note, velocity uint8, offset int32) Event {
	return Event{Type: EventTypeNoteOff, Channel: channel, Data1: note, Data2: velocity, Offset: offset}
}

func ControlChange(channel, controller, value uint8, offset int32) Event {
	return Event{Type: EventTypeControlChange, Channel: channel, Data1: controller, Data2: value, Offset: offset}
}

func PitchBend(channel uint8, value int16, offset int32) Event {
	return Event{Type: EventTypePitchBend, Channel: channel, Bend: value, Offset: offset}
}

// Note returns the note number of a note event
func (e Event) Note() uint8 {
	return e.Data1
}

// Velocity returns the note velocity scaled to [0, 1]
func (e Event) Velocity() float64 {
	return float64(e.Data2) / 127.0
}

// Controller returns the controller number of a CC event
func (e Event) Controller() uint8 {
	return e.Data1
}

// Value returns the raw 7-bit data value
func (e Event) Value() uint8 {
	return e.Data2
}

// IsNoteOn reports a note-on with non-zero velocity
func (e Event) IsNoteOn() bool {
	return e.Type == EventTypeNoteOn && e.Data2 > 0
}

// IsNoteOff reports a note-off, including note-on with zero velocity
func (e Event) IsNoteOff() bool {
	return e.Type == EventTypeNoteOff || (e.Type == EventTypeNoteOn && e.Data2 == 0)
}

func (e Event) String() string {
	switch e.Type {
	case EventTypeNoteOn, EventTypeNoteOff:
		return fmt.Sprintf("%s{ch:%d, note:%d, vel:%d, offset:%d}",
			e.Type, e.Channel, e.Data1, e.Data2, e.Offset)
	case EventTypeControlChange:
		return fmt.Sprintf("CC{ch:%d, ctrl:%d, val:%d, offset:%d}",
			e.Channel, e.Data1, e.Data2, e.Offset)
	case EventTypePitchBend:
		return fmt.Sprintf("PitchBend{ch:%d, val:%d, offset:%d}",
			e.Channel, e.Bend, e.Offset)
	}
	return fmt.Sprintf("Unknown{offset:%d}", e.Offset)
}

// NoteToFrequency returns the equal-tempered frequency of a MIDI note.
// tuningA4 of 0 means 440 Hz.
func NoteToFrequency(note uint8, tuningA4 float64) float64 {
	if tuningA4 == 0 {
		tuningA4 = 440.0
	}
	return tuningA4 * math.Pow(2, (float64(note)-69.0)/12.0)
}

// FrequencyToNote returns the nearest MIDI note for a frequency
func FrequencyToNote(freq, tuningA4 float64) uint8 {
	if tuningA4 == 0 {
		tuningA4 = 440.0
	}
	if freq <= 0 {
		return 0
	}
	note := 69.0 + 12.0*math.Log2(freq/tuningA4)
	if note < 0 {
		return 0
	}
	if note > 127 {
		return 127
	}
	return uint8(note + 0.5)
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

func NoteNumberToName(note uint8) string {
	octave := int(note/12) - 1
	return fmt.Sprintf("%s%d", noteNames[note%12], octave)
}
