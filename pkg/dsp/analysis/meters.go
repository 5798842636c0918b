package analysis

import (
	"math"
	"sync/atomic"

	"github.com/justyntemme/pocketsynth/pkg/dsp/gain"
)

// FloorDB is the lowest level reported by LevelMeter
const FloorDB = -60.0

// LevelMeter tracks per-channel peak and RMS levels.
//
// Process is called from the audio thread. The readers load atomics and
// can be called from any goroutine.
type LevelMeter struct {
	sampleRate   float64
	decayRate    float64 // peak fall, dB per second
	rmsTime      float64 // RMS integration time, seconds
	peak         []atomic.Uint64
	meanSquare   []atomic.Uint64
	peakDecay    float64 // per sample log decay
	rmsSmoothing float64 // per sample coefficient
}

// NewLevelMeter creates a meter for the given channel count
func NewLevelMeter(channels int, sampleRate float64) *LevelMeter {
	m := &LevelMeter{
		decayRate:  20.0,
		rmsTime:    0.3,
		peak:       make([]atomic.Uint64, channels),
		meanSquare: make([]atomic.Uint64, channels),
	}
	m.SetSampleRate(sampleRate)
	return m
}

// SetSampleRate updates the time constants
func (m *LevelMeter) SetSampleRate(sampleRate float64) {
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	m.sampleRate = sampleRate
	m.updateCoefficients()
}

// SetDecayRate sets the peak decay rate in dB/second
func (m *LevelMeter) SetDecayRate(dbPerSecond float64) {
	m.decayRate = dbPerSecond
	m.updateCoefficients()
}

// SetRMSTime sets the RMS integration time in seconds
func (m *LevelMeter) SetRMSTime(seconds float64) {
	m.rmsTime = seconds
	m.updateCoefficients()
}

func (m *LevelMeter) updateCoefficients() {
	m.peakDecay = m.decayRate / m.sampleRate / 20.0 * math.Ln10
	if m.rmsTime > 0 {
		m.rmsSmoothing = math.Exp(-1.0 / (m.rmsTime * m.sampleRate))
	} else {
		m.rmsSmoothing = 0
	}
}

// NumChannels returns the channel count
func (m *LevelMeter) NumChannels() int {
	return len(m.peak)
}

// Process updates channel ch with a block of samples
func (m *LevelMeter) Process(ch int, samples []float64) {
	if ch < 0 || ch >= len(m.peak) || len(samples) == 0 {
		return
	}

	blockPeak := 0.0
	sum := 0.0
	for _, s := range samples {
		if a := math.Abs(s); a > blockPeak {
			blockPeak = a
		}
		sum += s * s
	}
	n := float64(len(samples))

	peak := math.Float64frombits(m.peak[ch].Load())
	peak *= math.Exp(-m.peakDecay * n)
	if blockPeak > peak {
		peak = blockPeak
	}
	m.peak[ch].Store(math.Float64bits(peak))

	// One pole over the block, equivalent to running it per sample on the block mean
	a := math.Pow(m.rmsSmoothing, n)
	ms := math.Float64frombits(m.meanSquare[ch].Load())
	ms = a*ms + (1-a)*sum/n
	m.meanSquare[ch].Store(math.Float64bits(ms))
}

// Peak returns the linear peak level of channel ch
func (m *LevelMeter) Peak(ch int) float64 {
	if ch < 0 || ch >= len(m.peak) {
		return 0
	}
	return math.Float64frombits(m.peak[ch].Load())
}

// RMS returns the linear RMS level of channel ch
func (m *LevelMeter) RMS(ch int) float64 {
	if ch < 0 || ch >= len(m.meanSquare) {
		return 0
	}
	return math.Sqrt(math.Float64frombits(m.meanSquare[ch].Load()))
}

// PeakDB returns the peak level in dB, limited to FloorDB
func (m *LevelMeter) PeakDB(ch int) float64 {
	return max(gain.LinearToDb(m.Peak(ch)), FloorDB)
}

// RMSDB returns the RMS level in dB, limited to FloorDB
func (m *LevelMeter) RMSDB(ch int) float64 {
	return max(gain.LinearToDb(m.RMS(ch)), FloorDB)
}

// Reset clears every channel
func (m *LevelMeter) Reset() {
	for i := range m.peak {
		m.peak[i].Store(0)
		m.meanSquare[i].Store(0)
	}
}

// Normalized maps a dB level onto [0, 1] between FloorDB and 0 dB,
// for bar displays.
func Normalized(db float64) float64 {
	if db <= FloorDB {
		return 0
	}
	if db >= 0 {
		return 1
	}
	return (db - FloorDB) / -FloorDB
}
