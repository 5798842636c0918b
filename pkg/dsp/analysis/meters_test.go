package analysis

import (
	"math"
	"sync"
	"testing"
)

func TestLevelMeterPeak(t *testing.T) {
	m := NewLevelMeter(2, 44100)

	m.Process(0, []float64{0.1, 0.5, 0.3, -0.7, 0.2})

	if peak := m.Peak(0); math.Abs(peak-0.7) > 0.001 {
		t.Errorf("Peak mismatch: expected 0.7, got %f", peak)
	}

	expectedDB := 20.0 * math.Log10(0.7)
	if db := m.PeakDB(0); math.Abs(db-expectedDB) > 0.01 {
		t.Errorf("Peak dB mismatch: expected %f, got %f", expectedDB, db)
	}

	// Channels are independent
	if m.Peak(1) != 0 {
		t.Errorf("Channel 1 should be silent, got %f", m.Peak(1))
	}
	if m.PeakDB(1) != FloorDB {
		t.Errorf("Silent channel should read %f dB, got %f", FloorDB, m.PeakDB(1))
	}
}

func TestLevelMeterDecay(t *testing.T) {
	sampleRate := 44100.0
	m := NewLevelMeter(1, sampleRate)
	m.SetDecayRate(20.0)

	m.Process(0, []float64{1.0})
	initial := m.PeakDB(0)

	m.Process(0, make([]float64, int(0.1*sampleRate)))

	// 20 dB/s for 100 ms
	expected := initial - 2.0
	if got := m.PeakDB(0); math.Abs(got-expected) > 0.1 {
		t.Errorf("Decay amount incorrect: expected ~%f dB, got %f dB", expected, got)
	}
}

func TestLevelMeterRMS(t *testing.T) {
	sampleRate := 48000.0
	m := NewLevelMeter(1, sampleRate)
	m.SetRMSTime(0.05)

	// One second of a 0.5 amplitude sine
	block := make([]float64, 480)
	phase := 0.0
	for b := 0; b < 100; b++ {
		for i := range block {
			block[i] = 0.5 * math.Sin(phase)
			phase += 2 * math.Pi * 1000 / sampleRate
		}
		m.Process(0, block)
	}

	expected := 0.5 / math.Sqrt2
	if rms := m.RMS(0); math.Abs(rms-expected) > 0.01 {
		t.Errorf("RMS mismatch: expected %f, got %f", expected, rms)
	}
}

func TestLevelMeterReset(t *testing.T) {
	m := NewLevelMeter(2, 44100)
	m.Process(0, []float64{1, -1})
	m.Process(1, []float64{0.5})

	m.Reset()

	for ch := 0; ch < m.NumChannels(); ch++ {
		if m.Peak(ch) != 0 || m.RMS(ch) != 0 {
			t.Errorf("Channel %d not cleared", ch)
		}
	}
}

func TestLevelMeterOutOfRange(t *testing.T) {
	m := NewLevelMeter(1, 44100)
	m.Process(3, []float64{1})
	m.Process(-1, []float64{1})

	if m.Peak(3) != 0 || m.RMSDB(-1) != FloorDB {
		t.Error("Out of range channels should read silence")
	}
}

func TestLevelMeterConcurrentRead(t *testing.T) {
	m := NewLevelMeter(1, 44100)
	block := []float64{0.25, -0.25}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			m.Process(0, block)
		}
	}()
	for i := 0; i < 1000; i++ {
		if p := m.Peak(0); p < 0 || p > 0.25 {
			t.Fatalf("Torn read: %f", p)
		}
	}
	wg.Wait()
}

func TestNormalized(t *testing.T) {
	tests := []struct {
		db   float64
		want float64
	}{
		{-90, 0},
		{FloorDB, 0},
		{-30, 0.5},
		{0, 1},
		{6, 1},
	}
	for _, tt := range tests {
		if got := Normalized(tt.db); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Normalized(%f) = %f, want %f", tt.db, got, tt.want)
		}
	}
}

func BenchmarkLevelMeter(b *testing.B) {
	m := NewLevelMeter(2, 44100)
	samples := make([]float64, 512)
	for i := range samples {
		samples[i] = math.Sin(float64(i) * 0.1)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Process(0, samples)
		m.Process(1, samples)
	}
}
