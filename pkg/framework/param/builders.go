package param

import (
	"fmt"
	"strconv"
	"strings"
)

// ChoiceOption represents a single choice in a list parameter
type ChoiceOption struct {
	Name    string
	Aliases []string
}

// Choice creates a list parameter whose plain value is the option index
func Choice(id string, name string, options []ChoiceOption) *Builder {
	formatter := func(value float64) string {
		index := int(value + 0.5)
		if index >= 0 && index < len(options) {
			return options[index].Name
		}
		return "Unknown"
	}

	parser := func(str string) (float64, error) {
		str = strings.TrimSpace(str)
		for i, opt := range options {
			if strings.EqualFold(str, opt.Name) {
				return float64(i), nil
			}
			for _, alias := range opt.Aliases {
				if strings.EqualFold(str, alias) {
					return float64(i), nil
				}
			}
		}
		// Fall back to an index
		if i, err := strconv.Atoi(str); err == nil && i >= 0 && i < len(options) {
			return float64(i), nil
		}
		return 0, fmt.Errorf("unknown option: %s", str)
	}

	maxVal := float64(len(options) - 1)
	if maxVal < 0 {
		maxVal = 0
	}

	return New(id, name).
		Range(0, maxVal).
		Steps(int32(max(len(options)-1, 0))).
		Default(0).
		Formatter(formatter, parser)
}

// Options turns plain names into choice options
func Options(names ...string) []ChoiceOption {
	opts := make([]ChoiceOption, len(names))
	for i, n := range names {
		opts[i] = ChoiceOption{Name: n}
	}
	return opts
}

// ToggleParameter creates an on/off parameter
func ToggleParameter(id string, name string, on bool) *Builder {
	def := 0.0
	if on {
		def = 1.0
	}
	return New(id, name).Toggle().Default(def)
}

// LevelParameter creates a 0-1 level shown as a percentage
func LevelParameter(id string, name string, defaultVal float64) *Builder {
	return New(id, name).
		Range(0, 1).
		Default(defaultVal).
		Unit("%").
		Formatter(FractionFormatter, FractionParser)
}

// PanParameter creates a stereo pan parameter (-1 left, +1 right)
func PanParameter(id string, name string) *Builder {
	return New(id, name).
		Range(-1, 1).
		Default(0).
		Formatter(PanFormatter, PanParser)
}

// TimeParameter creates an envelope time parameter in seconds
func TimeParameter(id string, name string, minSec, maxSec, defaultSec float64) *Builder {
	return New(id, name).
		Range(minSec, maxSec).
		Default(defaultSec).
		Unit("s").
		Formatter(SecondsFormatter, SecondsParser)
}

// IntParameter creates a stepped integer parameter
func IntParameter(id string, name string, min, max, defaultVal int) *Builder {
	return New(id, name).
		Range(float64(min), float64(max)).
		Steps(int32(max - min)).
		Default(float64(defaultVal))
}

// SemitoneParameter creates a stepped transpose parameter in semitones
func SemitoneParameter(id string, name string, min, max int) *Builder {
	return IntParameter(id, name, min, max, 0).
		Unit("st").
		Formatter(SemitoneFormatter, SemitoneParser)
}

// CentsParameter creates a continuous fine-tune parameter in cents
func CentsParameter(id string, name string, min, max float64) *Builder {
	return New(id, name).
		Range(min, max).
		Default(0).
		Unit("ct").
		Formatter(CentsFormatter, CentsParser)
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
