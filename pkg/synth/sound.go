// Package synth implements the pocketsynth voice engine: two unison
// oscillator sections with their own envelopes per voice, a fixed voice pool
// and a master bus.
package synth

import (
	"github.com/justyntemme/pocketsynth/pkg/framework/voice"
)

// OscillatorSound is the only sound a Voice can play
type OscillatorSound struct{}

// AppliesToNote accepts every note
func (OscillatorSound) AppliesToNote(note uint8) bool {
	return true
}

var _ voice.Sound = OscillatorSound{}
