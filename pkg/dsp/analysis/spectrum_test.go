package analysis

import (
	"errors"
	"math"
	"testing"
)

func sine(freq, amplitude, sampleRate float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2.0*math.Pi*freq*float64(i)/sampleRate)
	}
	return out
}

func TestSpectrumAnalyzer(t *testing.T) {
	sampleRate := 44100.0
	fftSize := 4096
	sa, err := NewSpectrumAnalyzer(fftSize, sampleRate, HannWindow)
	if err != nil {
		t.Fatalf("NewSpectrumAnalyzer failed: %v", err)
	}

	if sa.NumBins() != fftSize/2+1 {
		t.Errorf("Expected %d bins, got %d", fftSize/2+1, sa.NumBins())
	}

	// Exactly on bin 93
	freq := sa.GetFrequencyForBin(93)
	if err := sa.Analyze(sine(freq, 1.0, sampleRate, fftSize)); err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	peakFreq, peakMag := sa.GetPeakFrequency()
	if math.Abs(peakFreq-freq) > 0.5 {
		t.Errorf("Expected peak at %.2f Hz, got %.2f Hz", freq, peakFreq)
	}
	if math.Abs(peakMag-1.0) > 0.05 {
		t.Errorf("Expected full scale magnitude, got %f", peakMag)
	}

	if bin := sa.GetBinForFrequency(freq); bin != 93 {
		t.Errorf("Expected bin 93, got %d", bin)
	}
}

func TestSpectrumInterpolation(t *testing.T) {
	sampleRate := 44100.0
	tests := []struct {
		name string
		freq float64
	}{
		{"Middle C", 261.63},
		{"A4", 440},
		{"Between bins", 1234.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DominantFrequency(sine(tt.freq, 0.5, sampleRate, 8192), sampleRate)
			if err != nil {
				t.Fatalf("DominantFrequency failed: %v", err)
			}
			// Well inside half a bin (2.7 Hz)
			if math.Abs(got-tt.freq) > 1.0 {
				t.Errorf("Expected %.2f Hz, got %.2f Hz", tt.freq, got)
			}
		})
	}
}

func TestSpectrumZeroPadding(t *testing.T) {
	sa, err := NewSpectrumAnalyzer(1024, 44100, RectangularWindow)
	if err != nil {
		t.Fatalf("NewSpectrumAnalyzer failed: %v", err)
	}

	// A full frame first, then a short one must not see stale samples
	if err := sa.Analyze(sine(5000, 1, 44100, 1024)); err != nil {
		t.Fatal(err)
	}
	if err := sa.Analyze(make([]float64, 10)); err != nil {
		t.Fatal(err)
	}
	for i, m := range sa.Magnitude() {
		if m > 1e-12 {
			t.Fatalf("Bin %d should be silent, got %g", i, m)
		}
	}
}

func TestSpectrumDB(t *testing.T) {
	sa, err := NewSpectrumAnalyzer(512, 48000, BlackmanWindow)
	if err != nil {
		t.Fatal(err)
	}
	if err := sa.Analyze(sine(sa.GetFrequencyForBin(20), 0.5, 48000, 512)); err != nil {
		t.Fatal(err)
	}

	db := sa.MagnitudeDB(make([]float64, 0, sa.NumBins()))
	if len(db) != sa.NumBins() {
		t.Fatalf("Expected %d values, got %d", sa.NumBins(), len(db))
	}
	if math.Abs(db[20]-(-6.02)) > 0.2 {
		t.Errorf("Expected about -6 dB at bin 20, got %f", db[20])
	}
}

func TestBandEnergy(t *testing.T) {
	sampleRate := 44100.0
	sa, err := NewSpectrumAnalyzer(2048, sampleRate, HammingWindow)
	if err != nil {
		t.Fatal(err)
	}
	if err := sa.Analyze(sine(1000, 1, sampleRate, 2048)); err != nil {
		t.Fatal(err)
	}

	inBand := sa.GetBandEnergy(900, 1100)
	outBand := sa.GetBandEnergy(5000, 6000)
	if inBand <= outBand*1000 {
		t.Errorf("Expected energy concentrated near 1 kHz: in=%g out=%g", inBand, outBand)
	}
}

func TestSpectrumInvalidSize(t *testing.T) {
	for _, size := range []int{0, 1, 3, 1000} {
		if _, err := NewSpectrumAnalyzer(size, 44100, HannWindow); !errors.Is(err, ErrInvalidSize) {
			t.Errorf("Size %d: expected ErrInvalidSize, got %v", size, err)
		}
	}
}

func TestSpectrumWindow(t *testing.T) {
	sa, err := NewSpectrumAnalyzer(1024, 44100, HannWindow)
	if err != nil {
		t.Fatal(err)
	}

	w := sa.window
	if w[0] > 1e-12 || w[len(w)-1] > 1e-12 {
		t.Errorf("Expected Hann edges at 0, got %f and %f", w[0], w[len(w)-1])
	}
	for i := range w {
		if math.Abs(w[i]-w[len(w)-1-i]) > 1e-12 {
			t.Fatalf("Window not symmetric at %d: %f vs %f", i, w[i], w[len(w)-1-i])
		}
	}
	// A Hann window has a coherent gain of 0.5
	if math.Abs(2.0/sa.scale/float64(len(w))-0.5) > 0.01 {
		t.Errorf("Expected coherent gain 0.5, got %f", 2.0/sa.scale/float64(len(w)))
	}

	rect, err := NewSpectrumAnalyzer(64, 44100, RectangularWindow)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range rect.window {
		if v != 1 {
			t.Fatalf("Expected rectangular coefficient 1 at %d, got %f", i, v)
		}
	}
}

func TestSpectrumNoAllocations(t *testing.T) {
	sa, err := NewSpectrumAnalyzer(1024, 44100, HannWindow)
	if err != nil {
		t.Fatal(err)
	}
	samples := sine(440, 1, 44100, 1024)

	allocs := testing.AllocsPerRun(50, func() {
		_ = sa.Analyze(samples)
		sa.GetPeakFrequency()
	})
	if allocs != 0 {
		t.Errorf("Expected no allocations, got %f", allocs)
	}
}

func BenchmarkSpectrumAnalyzer(b *testing.B) {
	sa, err := NewSpectrumAnalyzer(2048, 44100, HannWindow)
	if err != nil {
		b.Fatal(err)
	}
	samples := sine(440, 1, 44100, 2048)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = sa.Analyze(samples)
	}
}
