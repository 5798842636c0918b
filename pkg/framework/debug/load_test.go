package debug

import (
	"math"
	"testing"
	"time"
)

func TestLoadMeter(t *testing.T) {
	m := NewLoadMeter(48000, 0)

	// 480 frames at 48 kHz is a 10 ms budget
	m.Record(5*time.Millisecond, 480)
	if math.Abs(m.Load()-50) > 1e-9 {
		t.Errorf("Expected 50%% load, got %f", m.Load())
	}

	m.Record(time.Millisecond, 480)
	if math.Abs(m.Load()-10) > 1e-9 {
		t.Errorf("Expected 10%% load, got %f", m.Load())
	}
	if math.Abs(m.Peak()-50) > 1e-9 {
		t.Errorf("Expected 50%% peak, got %f", m.Peak())
	}
	if m.Calls() != 2 {
		t.Errorf("Expected 2 calls, got %d", m.Calls())
	}

	m.Reset()
	if m.Load() != 0 || m.Peak() != 0 || m.Calls() != 0 {
		t.Error("Reset should clear readings")
	}
}

func TestLoadMeterSmoothing(t *testing.T) {
	m := NewLoadMeter(1000, 0.5)

	m.Record(time.Second, 1000) // 100%
	m.Record(0, 1000)           // 0%, smoothed to 50%
	if math.Abs(m.Load()-50) > 1e-9 {
		t.Errorf("Expected smoothed load 50%%, got %f", m.Load())
	}
}

func TestLoadMeterIgnoresInvalid(t *testing.T) {
	m := NewLoadMeter(0, 0)
	m.Record(time.Millisecond, 64)
	if m.Calls() != 0 {
		t.Error("Zero sample rate should not record")
	}

	m.SetSampleRate(44100)
	m.Record(time.Millisecond, 0)
	if m.Calls() != 0 {
		t.Error("Zero frames should not record")
	}
}

func TestLoadMeterDoesNotAllocate(t *testing.T) {
	m := NewLoadMeter(48000, 0.9)
	allocs := testing.AllocsPerRun(100, func() {
		start := m.Begin()
		m.End(start, 256)
	})
	if allocs != 0 {
		t.Errorf("Expected no allocations, got %f", allocs)
	}
}
