package debug

import (
	"math"
	"strings"
	"testing"
)

func TestAudioAnalyzer(t *testing.T) {
	analyzer := NewAudioAnalyzer()

	t.Run("Sine", func(t *testing.T) {
		buf := make([]float64, 4800)
		for i := range buf {
			buf[i] = 0.5 * math.Sin(2*math.Pi*100*float64(i)/48000)
		}

		result := analyzer.Analyze(buf)
		if math.Abs(result.Peak-0.5) > 1e-3 {
			t.Errorf("Expected peak 0.5, got %f", result.Peak)
		}
		if math.Abs(result.RMS-0.5/math.Sqrt2) > 1e-3 {
			t.Errorf("Expected RMS %f, got %f", 0.5/math.Sqrt2, result.RMS)
		}
		if math.Abs(result.DC) > 1e-3 {
			t.Errorf("Expected no DC, got %f", result.DC)
		}
		// Ten cycles, two crossings each
		if result.ZeroCrossings < 19 || result.ZeroCrossings > 21 {
			t.Errorf("Expected about 20 zero crossings, got %d", result.ZeroCrossings)
		}
		if result.Silent || result.Clipping || result.HasInvalid() {
			t.Errorf("Unexpected flags: %+v", result)
		}
	})

	t.Run("Silence", func(t *testing.T) {
		result := analyzer.Analyze(make([]float64, 64))
		if !result.Silent {
			t.Error("Zero buffer should be silent")
		}
	})

	t.Run("Invalid", func(t *testing.T) {
		buf := []float64{0.1, math.NaN(), math.Inf(1), -0.1}
		result := analyzer.Analyze(buf)
		if result.NaNCount != 1 || result.InfCount != 1 {
			t.Errorf("Expected 1 NaN and 1 Inf, got %d and %d", result.NaNCount, result.InfCount)
		}
		if result.Peak != 0.1 {
			t.Errorf("Invalid samples should not count toward peak, got %f", result.Peak)
		}
	})
}

func TestCheckBuffer(t *testing.T) {
	clean := []float64{0.1, -0.1, 0.2, -0.2}
	if issues := CheckBuffer(clean, "clean"); len(issues) != 0 {
		t.Errorf("Expected no issues, got %v", issues)
	}

	bad := []float64{1.5, 1.5, math.NaN(), 1.5}
	issues := CheckBuffer(bad, "bad")
	joined := strings.Join(issues, "\n")
	for _, want := range []string{"NaN", "Clipping", "DC offset", "Peak exceeds"} {
		if !strings.Contains(joined, want) {
			t.Errorf("Expected issue containing %q, got %v", want, issues)
		}
	}
}

func TestCompareBuffers(t *testing.T) {
	a := []float64{0, 0.5, 1}
	if diff := CompareBuffers(a, []float64{0, 0.5, 1}, 1e-9); diff != "" {
		t.Errorf("Expected identical buffers, got %s", diff)
	}
	if diff := CompareBuffers(a, []float64{0, 0.6, 1}, 1e-3); !strings.Contains(diff, "at sample 1") {
		t.Errorf("Expected difference at sample 1, got %q", diff)
	}
	if diff := CompareBuffers(a, a[:2], 0); !strings.Contains(diff, "mismatch") {
		t.Errorf("Expected length mismatch, got %q", diff)
	}
}
