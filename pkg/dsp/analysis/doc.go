// Package analysis provides metering and spectrum tools for rendered audio.
//
// Level Metering:
//   - Per-channel peak with dB/second decay
//   - Per-channel RMS with an integration time
//   - Lock-free readout, safe to poll from a UI goroutine
//
// Spectral Analysis:
//   - Windowed FFT magnitude spectrum (Hann, Hamming, Blackman)
//   - Peak frequency with sub-bin interpolation
//   - Band energy
//
// Example usage:
//
//	// Meter the output of every block
//	meter := analysis.NewLevelMeter(2, 48000)
//	meter.Process(0, left)
//	meter.Process(1, right)
//	fmt.Printf("L %.1f dB\n", meter.PeakDB(0))
//
//	// Find the pitch of a rendered note
//	sa, err := analysis.NewSpectrumAnalyzer(4096, 48000, analysis.HannWindow)
//	if err != nil {
//	    return err
//	}
//	if err := sa.Analyze(samples); err != nil {
//	    return err
//	}
//	freq, mag := sa.GetPeakFrequency()
package analysis
