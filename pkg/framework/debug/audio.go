package debug

import (
	"fmt"
	"math"
)

// AudioAnalyzer provides utilities for analyzing audio buffers.
type AudioAnalyzer struct {
	clippingThreshold float64
	dcThreshold       float64
	silenceThreshold  float64
}

// NewAudioAnalyzer creates a new audio analyzer with default settings.
func NewAudioAnalyzer() *AudioAnalyzer {
	return &AudioAnalyzer{
		clippingThreshold: 0.99,
		dcThreshold:       0.01,
		silenceThreshold:  0.0001,
	}
}

// AnalysisResult contains the results of audio buffer analysis.
type AnalysisResult struct {
	Peak           float64
	RMS            float64
	DC             float64
	Clipping       bool
	ClippedSamples int
	Silent         bool
	NaNCount       int
	InfCount       int
	ZeroCrossings  int
}

// HasInvalid reports whether the buffer held NaN or Inf samples.
func (r AnalysisResult) HasInvalid() bool {
	return r.NaNCount > 0 || r.InfCount > 0
}

// Analyze performs comprehensive analysis on an audio buffer.
// NaN and Inf samples are counted and left out of the statistics.
func (a *AudioAnalyzer) Analyze(buffer []float64) AnalysisResult {
	result := AnalysisResult{}

	if len(buffer) == 0 {
		return result
	}

	var sum, sumSquares float64
	var lastSample float64
	valid := 0

	for _, sample := range buffer {
		if math.IsNaN(sample) {
			result.NaNCount++
			continue
		}
		if math.IsInf(sample, 0) {
			result.InfCount++
			continue
		}

		absSample := math.Abs(sample)
		if absSample > result.Peak {
			result.Peak = absSample
		}
		if absSample >= a.clippingThreshold {
			result.Clipping = true
			result.ClippedSamples++
		}

		sum += sample
		sumSquares += sample * sample

		if valid > 0 && ((lastSample < 0 && sample >= 0) || (lastSample >= 0 && sample < 0)) {
			result.ZeroCrossings++
		}
		lastSample = sample
		valid++
	}

	if valid > 0 {
		result.RMS = math.Sqrt(sumSquares / float64(valid))
		result.DC = sum / float64(valid)
	}
	result.Silent = result.RMS < a.silenceThreshold

	return result
}

// CheckBuffer performs basic sanity checks on an audio buffer.
func CheckBuffer(buffer []float64, name string) []string {
	var issues []string

	analyzer := NewAudioAnalyzer()
	result := analyzer.Analyze(buffer)

	if result.NaNCount > 0 {
		issues = append(issues, fmt.Sprintf("%s: Contains %d NaN values", name, result.NaNCount))
	}
	if result.InfCount > 0 {
		issues = append(issues, fmt.Sprintf("%s: Contains %d Inf values", name, result.InfCount))
	}
	if result.Clipping {
		issues = append(issues, fmt.Sprintf("%s: Clipping detected (%d samples)", name, result.ClippedSamples))
	}
	if math.Abs(result.DC) > analyzer.dcThreshold {
		issues = append(issues, fmt.Sprintf("%s: DC offset detected (%.3f)", name, result.DC))
	}
	if result.Peak > 1.0 {
		issues = append(issues, fmt.Sprintf("%s: Peak exceeds 1.0 (%.3f)", name, result.Peak))
	}

	return issues
}

// CompareBuffers compares two audio buffers and reports differences.
// It returns an empty string when they match within tolerance.
func CompareBuffers(a, b []float64, tolerance float64) string {
	if len(a) != len(b) {
		return fmt.Sprintf("Buffer length mismatch: %d vs %d", len(a), len(b))
	}

	var maxDiff float64
	var maxDiffIndex int
	var diffCount int

	for i := range a {
		diff := math.Abs(a[i] - b[i])
		if diff > tolerance {
			diffCount++
			if diff > maxDiff {
				maxDiff = diff
				maxDiffIndex = i
			}
		}
	}

	if diffCount == 0 {
		return ""
	}

	return fmt.Sprintf("%d / %d samples differ, max %.6f at sample %d (tolerance %.6f)",
		diffCount, len(a), maxDiff, maxDiffIndex, tolerance)
}

var defaultAnalyzer = NewAudioAnalyzer()

// AnalyzeBuffer performs analysis on a buffer using the default analyzer.
func AnalyzeBuffer(buffer []float64) AnalysisResult {
	return defaultAnalyzer.Analyze(buffer)
}

// LogBufferStats logs statistics about an audio buffer.
func LogBufferStats(buffer []float64, name string) {
	result := defaultAnalyzer.Analyze(buffer)

	Info("Audio buffer '%s': %d samples, peak %.3f, rms %.3f, dc %.6f",
		name, len(buffer), result.Peak, result.RMS, result.DC)

	if result.Clipping {
		Warn("  Clipping: %d samples", result.ClippedSamples)
	}
	if result.Silent {
		Info("  Status: Silent")
	}
	if result.HasInvalid() {
		Error("  Invalid values: %d NaN, %d Inf", result.NaNCount, result.InfCount)
	}
}
