package analysis

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/window"
	algofft "github.com/cwbudde/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/justyntemme/pocketsynth/pkg/dsp/gain"
)

// ErrInvalidSize is returned for FFT sizes that are not a power of two >= 2
var ErrInvalidSize = errors.New("analysis: fft size must be a power of two >= 2")

// WindowFunc selects the analysis window
type WindowFunc = window.Type

const (
	RectangularWindow = window.TypeRectangular
	HannWindow        = window.TypeHann
	HammingWindow     = window.TypeHamming
	BlackmanWindow    = window.TypeBlackman
)

// SpectrumAnalyzer computes magnitude spectra of fixed-size frames.
// All buffers and the FFT plan are created up front so Analyze does not
// allocate.
type SpectrumAnalyzer struct {
	size       int
	sampleRate float64
	window     []float64
	scale      float64

	plan     *algofft.Plan[complex128]
	frame    []float64
	in       []complex128
	out      []complex128
	re, im   []float64
	mag      []float64
	analyzed bool
}

// NewSpectrumAnalyzer creates an analyzer for frames of fftSize samples
func NewSpectrumAnalyzer(fftSize int, sampleRate float64, kind WindowFunc) (*SpectrumAnalyzer, error) {
	if fftSize < 2 || fftSize&(fftSize-1) != 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, fftSize)
	}
	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("create fft plan: %w", err)
	}

	bins := fftSize/2 + 1
	sa := &SpectrumAnalyzer{
		size:       fftSize,
		sampleRate: sampleRate,
		window:     window.Generate(kind, fftSize),
		plan:       plan,
		frame:      make([]float64, fftSize),
		in:         make([]complex128, fftSize),
		out:        make([]complex128, fftSize),
		re:         make([]float64, bins),
		im:         make([]float64, bins),
		mag:        make([]float64, bins),
	}

	// A full scale sine centered on a bin reads 1.0
	sum := 0.0
	for _, w := range sa.window {
		sum += w
	}
	sa.scale = 2.0 / sum
	return sa, nil
}

// Size returns the frame length
func (sa *SpectrumAnalyzer) Size() int {
	return sa.size
}

// NumBins returns the number of non-negative frequency bins
func (sa *SpectrumAnalyzer) NumBins() int {
	return len(sa.mag)
}

// Analyze windows the first Size() samples (zero padded when shorter) and
// computes their magnitude spectrum.
func (sa *SpectrumAnalyzer) Analyze(samples []float64) error {
	n := copy(sa.frame, samples)
	clear(sa.frame[n:])
	vecmath.MulBlockInPlace(sa.frame, sa.window)

	for i, s := range sa.frame {
		sa.in[i] = complex(s, 0)
	}
	if err := sa.plan.Forward(sa.out, sa.in); err != nil {
		return fmt.Errorf("forward fft: %w", err)
	}

	for i := range sa.re {
		sa.re[i] = real(sa.out[i])
		sa.im[i] = imag(sa.out[i])
	}
	vecmath.Magnitude(sa.mag, sa.re, sa.im)
	vecmath.ScaleBlock(sa.mag, sa.mag, sa.scale)
	sa.analyzed = true
	return nil
}

// Magnitude returns the linear magnitude of the last analyzed frame.
// The slice is owned by the analyzer.
func (sa *SpectrumAnalyzer) Magnitude() []float64 {
	return sa.mag
}

// MagnitudeDB writes the magnitude in dB into dst and returns it
func (sa *SpectrumAnalyzer) MagnitudeDB(dst []float64) []float64 {
	dst = dst[:0]
	for _, m := range sa.mag {
		dst = append(dst, gain.LinearToDb(m))
	}
	return dst
}

// GetFrequencyForBin returns the center frequency of a bin
func (sa *SpectrumAnalyzer) GetFrequencyForBin(bin int) float64 {
	return float64(bin) * sa.sampleRate / float64(sa.size)
}

// GetBinForFrequency returns the bin closest to freq
func (sa *SpectrumAnalyzer) GetBinForFrequency(freq float64) int {
	bin := int(math.Round(freq * float64(sa.size) / sa.sampleRate))
	return max(0, min(bin, len(sa.mag)-1))
}

// GetPeakFrequency returns the strongest non-DC frequency of the last frame
// and its magnitude. The frequency is refined by parabolic interpolation
// over the neighbouring bins.
func (sa *SpectrumAnalyzer) GetPeakFrequency() (float64, float64) {
	if !sa.analyzed {
		return 0, 0
	}

	peak := 1
	for i := 2; i < len(sa.mag); i++ {
		if sa.mag[i] > sa.mag[peak] {
			peak = i
		}
	}
	if peak+1 >= len(sa.mag) {
		return sa.GetFrequencyForBin(peak), sa.mag[peak]
	}

	if sa.mag[peak-1] <= 0 || sa.mag[peak] <= 0 || sa.mag[peak+1] <= 0 {
		return sa.GetFrequencyForBin(peak), sa.mag[peak]
	}

	// Parabola through the log magnitudes
	a := math.Log(sa.mag[peak-1])
	b := math.Log(sa.mag[peak])
	c := math.Log(sa.mag[peak+1])
	denom := a - 2*b + c
	if denom == 0 {
		return sa.GetFrequencyForBin(peak), sa.mag[peak]
	}
	delta := 0.5 * (a - c) / denom
	freq := (float64(peak) + delta) * sa.sampleRate / float64(sa.size)
	return freq, math.Exp(b - 0.25*(a-c)*delta)
}

// GetBandEnergy returns the summed power between minFreq and maxFreq
func (sa *SpectrumAnalyzer) GetBandEnergy(minFreq, maxFreq float64) float64 {
	lo := sa.GetBinForFrequency(minFreq)
	hi := sa.GetBinForFrequency(maxFreq)
	energy := 0.0
	for i := lo; i <= hi; i++ {
		energy += sa.mag[i] * sa.mag[i]
	}
	return energy
}

// DominantFrequency analyzes the leading power-of-two frame of samples with
// a Hann window and returns its strongest frequency. It allocates a new
// analyzer and is meant for offline use.
func DominantFrequency(samples []float64, sampleRate float64) (float64, error) {
	size := 2
	for size*2 <= len(samples) {
		size *= 2
	}
	sa, err := NewSpectrumAnalyzer(size, sampleRate, HannWindow)
	if err != nil {
		return 0, err
	}
	if err := sa.Analyze(samples); err != nil {
		return 0, err
	}
	freq, _ := sa.GetPeakFrequency()
	return freq, nil
}
