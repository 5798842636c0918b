package param

import (
	"fmt"
	"math"
	"sync/atomic"
)

// Parameter is a single named control value.
//
// The plain value is stored atomically so the audio thread can read it while
// a control thread writes it. Writes bump the owning registry's version so
// readers can skip work when nothing changed.
type Parameter struct {
	ID           string
	Name         string
	ShortName    string
	Unit         string
	Min          float64
	Max          float64
	DefaultValue float64 // plain
	StepCount    int32

	value   atomic.Uint64
	version *atomic.Uint64

	formatFunc func(float64) string
	parseFunc  func(string) (float64, error)
}

// Value returns the current plain value
func (p *Parameter) Value() float64 {
	return math.Float64frombits(p.value.Load())
}

// SetValue sets the plain value, clamped to [Min, Max] and snapped to the
// nearest step for discrete parameters.
func (p *Parameter) SetValue(plain float64) {
	plain = p.clamp(plain)
	if p.StepCount > 0 && p.Max > p.Min {
		step := (p.Max - p.Min) / float64(p.StepCount)
		plain = p.Min + math.Round((plain-p.Min)/step)*step
	}
	p.value.Store(math.Float64bits(plain))
	if p.version != nil {
		p.version.Add(1)
	}
}

// Normalized returns the current value mapped to [0, 1]
func (p *Parameter) Normalized() float64 {
	return p.Normalize(p.Value())
}

// SetNormalized sets the value from [0, 1]
func (p *Parameter) SetNormalized(normalized float64) {
	if normalized < 0 {
		normalized = 0
	} else if normalized > 1 {
		normalized = 1
	}
	p.SetValue(p.Denormalize(normalized))
}

// Bool reports whether a toggle parameter is on
func (p *Parameter) Bool() bool {
	return p.Value() >= 0.5
}

// Int returns the value rounded to the nearest integer
func (p *Parameter) Int() int {
	return int(math.Round(p.Value()))
}

// Reset restores the default value
func (p *Parameter) Reset() {
	p.SetValue(p.DefaultValue)
}

// FormatValue returns a display string for a plain value
func (p *Parameter) FormatValue(plain float64) string {
	if p.formatFunc != nil {
		return p.formatFunc(plain)
	}

	if p.StepCount > 0 {
		return fmt.Sprintf("%.0f", plain)
	}
	return fmt.Sprintf("%.2f", plain)
}

// String formats the current value
func (p *Parameter) String() string {
	return p.FormatValue(p.Value())
}

// ParseValue parses a display string to a plain value
func (p *Parameter) ParseValue(str string) (float64, error) {
	if p.parseFunc != nil {
		plain, err := p.parseFunc(str)
		if err != nil {
			return 0, err
		}
		return p.clamp(plain), nil
	}
	plain, err := parseFloat(str)
	if err != nil {
		return 0, err
	}
	return p.clamp(plain), nil
}

// Normalize converts plain value to normalized (0-1)
func (p *Parameter) Normalize(plain float64) float64 {
	if p.Max <= p.Min {
		return 0
	}
	normalized := (plain - p.Min) / (p.Max - p.Min)
	if normalized < 0 {
		return 0
	}
	if normalized > 1 {
		return 1
	}
	return normalized
}

// Denormalize converts normalized (0-1) to plain value
func (p *Parameter) Denormalize(normalized float64) float64 {
	return p.Min + normalized*(p.Max-p.Min)
}

func (p *Parameter) clamp(plain float64) float64 {
	if math.IsNaN(plain) {
		return p.DefaultValue
	}
	if plain < p.Min {
		return p.Min
	}
	if plain > p.Max {
		return p.Max
	}
	return plain
}
