package host

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/justyntemme/pocketsynth/pkg/framework/param"
	"github.com/justyntemme/pocketsynth/pkg/synth"
)

func newTestSynth(t testing.TB, blockSize int) *synth.Synth {
	t.Helper()
	p, err := synth.NewParameters(param.NewRegistry())
	if err != nil {
		t.Fatalf("NewParameters failed: %v", err)
	}
	for i := range p.Osc {
		p.Osc[i].Attack.SetValue(0)
		p.Osc[i].Decay.SetValue(0)
		p.Osc[i].Sustain.SetValue(1)
		p.Osc[i].Release.SetValue(0)
	}
	p.Gain.SetValue(1)

	s := synth.New(p, 2)
	if err := s.Prepare(44100, blockSize); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	return s
}

func decode(p []byte) []float32 {
	out := make([]float32, len(p)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(p[i*4:]))
	}
	return out
}

func TestStreamSilence(t *testing.T) {
	st := NewStream(newTestSynth(t, 64), 2)

	p := make([]byte, 1000)
	n, err := st.Read(p)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	// 1000 bytes hold 125 stereo frames
	if n != 1000 {
		t.Errorf("Expected 1000 bytes, got %d", n)
	}
	for i, v := range decode(p[:n]) {
		if v != 0 {
			t.Fatalf("Expected silence, got %f at %d", v, i)
		}
	}
}

func TestStreamPartialFrame(t *testing.T) {
	st := NewStream(newTestSynth(t, 64), 2)

	n, _ := st.Read(make([]byte, 21))
	if n != 16 {
		t.Errorf("Expected 2 whole frames (16 bytes), got %d", n)
	}
}

func TestStreamNote(t *testing.T) {
	s := newTestSynth(t, 128)
	st := NewStream(s, 2)
	s.NoteOn(69, 127)

	// Larger than one block, so Read renders several
	p := make([]byte, 300*2*4)
	n, _ := st.Read(p)
	samples := decode(p[:n])

	for i := 0; i < 300; i++ {
		want := synth.DefaultLevel * math.Sin(2*math.Pi*440*float64(i)/44100)
		l, r := float64(samples[2*i]), float64(samples[2*i+1])
		if math.Abs(l-want) > 1e-6 || l != r {
			t.Fatalf("Frame %d: expected %f on both channels, got %f/%f", i, want, l, r)
		}
	}
}

func TestStreamClips(t *testing.T) {
	s := newTestSynth(t, 256)
	p := s.Parameters()
	p.Osc[0].Level.SetValue(1)
	p.Osc[1].Active.SetValue(1)
	p.Osc[1].Level.SetValue(1)
	p.Osc[1].Waveform.SetValue(p.Osc[0].Waveform.Value())

	st := NewStream(s, 2)
	for note := uint8(60); note < 68; note++ {
		s.NoteOn(note, 127)
	}

	buf := make([]byte, 256*2*4)
	st.Read(buf)
	for i, v := range decode(buf) {
		if v > 1 || v < -1 {
			t.Fatalf("Sample %d out of range: %f", i, v)
		}
	}
}

func TestStreamReadDoesNotAllocate(t *testing.T) {
	s := newTestSynth(t, 256)
	st := NewStream(s, 2)
	s.NoteOn(60, 100)
	p := make([]byte, 512*2*4)

	allocs := testing.AllocsPerRun(50, func() {
		st.Read(p)
	})
	if allocs > 0 {
		t.Errorf("Read allocated %.1f times per call", allocs)
	}
}
