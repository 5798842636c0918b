// Package gain provides amplitude and decibel helpers.
package gain

import (
	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-vecmath"
)

// Constants for dB conversion
const (
	// MinDB is the minimum dB value (effectively -infinity)
	MinDB = -200.0
)

// LinearToDb converts a linear amplitude value to decibels.
// Results are floored at MinDB, which is also returned for values <= 0.
func LinearToDb(linear float64) float64 {
	if linear <= 0 {
		return MinDB
	}
	return max(core.LinearToDB(linear), MinDB)
}

// DbToLinear converts a decibel value to linear amplitude.
// Values <= MinDB return 0.
func DbToLinear(db float64) float64 {
	if db <= MinDB {
		return 0
	}
	return core.DBToLinear(db)
}

// ApplyBuffer applies gain to an entire buffer in-place.
func ApplyBuffer(buffer []float64, gain float64) {
	if gain == 1 {
		return
	}
	vecmath.ScaleBlock(buffer, buffer, gain)
}

// ApplyDbBuffer applies dB gain to an entire buffer in-place.
func ApplyDbBuffer(buffer []float64, db float64) {
	ApplyBuffer(buffer, DbToLinear(db))
}

// ApplyBufferTo applies gain to src and stores the result in dst.
func ApplyBufferTo(dst, src []float64, gain float64) {
	n := min(len(dst), len(src))
	vecmath.ScaleBlock(dst[:n], src[:n], gain)
}

// HardClipBuffer limits every sample to [-threshold, threshold].
func HardClipBuffer(buffer []float64, threshold float64) {
	for i, s := range buffer {
		if s > threshold {
			buffer[i] = threshold
		} else if s < -threshold {
			buffer[i] = -threshold
		}
	}
}
