package param

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Common parameter formatters and parsers

// FrequencyFormatter formats frequency values with Hz/kHz
func FrequencyFormatter(hz float64) string {
	if hz >= 1000 {
		return fmt.Sprintf("%.2f kHz", hz/1000)
	}
	return fmt.Sprintf("%.1f Hz", hz)
}

// DecibelFormatter formats dB values
func DecibelFormatter(db float64) string {
	if db <= -60 {
		return "-∞ dB"
	}
	return fmt.Sprintf("%.1f dB", db)
}

// FractionFormatter formats a 0-1 value as a percentage
func FractionFormatter(value float64) string {
	return fmt.Sprintf("%.0f%%", value*100)
}

// FractionParser parses a percentage into 0-1. Values without a % sign
// are taken as-is.
func FractionParser(str string) (float64, error) {
	str = strings.TrimSpace(str)
	if strings.HasSuffix(str, "%") {
		v, err := parseFloat(strings.TrimSuffix(str, "%"))
		if err != nil {
			return 0, err
		}
		return v / 100, nil
	}
	return parseFloat(str)
}

// SecondsFormatter formats a time in seconds with appropriate units
func SecondsFormatter(sec float64) string {
	if sec < 1 {
		return fmt.Sprintf("%.1f ms", sec*1000)
	}
	return fmt.Sprintf("%.2f s", sec)
}

// SecondsParser parses time strings into seconds
func SecondsParser(str string) (float64, error) {
	str = strings.ToLower(strings.TrimSpace(str))

	if strings.HasSuffix(str, "ms") {
		val, err := parseFloat(strings.TrimSuffix(str, "ms"))
		if err != nil {
			return 0, err
		}
		return val / 1000, nil
	}

	return parseFloat(strings.TrimSuffix(str, "s"))
}

// PanFormatter formats pan position
func PanFormatter(pan float64) string {
	if math.Abs(pan) < 0.01 {
		return "C"
	} else if pan < 0 {
		return fmt.Sprintf("%.0fL", -pan*100)
	}
	return fmt.Sprintf("%.0fR", pan*100)
}

// PanParser parses pan position strings
func PanParser(str string) (float64, error) {
	str = strings.ToUpper(strings.TrimSpace(str))

	if str == "C" || str == "CENTER" {
		return 0, nil
	}

	if strings.HasSuffix(str, "L") {
		val, err := parseFloat(strings.TrimSuffix(str, "L"))
		if err != nil {
			return 0, err
		}
		return -val / 100, nil
	}

	if strings.HasSuffix(str, "R") {
		val, err := parseFloat(strings.TrimSuffix(str, "R"))
		if err != nil {
			return 0, err
		}
		return val / 100, nil
	}

	// Plain number (-1 to 1)
	return parseFloat(str)
}

// SemitoneFormatter formats a signed semitone offset
func SemitoneFormatter(st float64) string {
	return fmt.Sprintf("%+.0f st", st)
}

// SemitoneParser parses semitone strings
func SemitoneParser(str string) (float64, error) {
	return parseFloat(strings.TrimSuffix(strings.TrimSpace(str), "st"))
}

// CentsFormatter formats a signed cents offset
func CentsFormatter(ct float64) string {
	return fmt.Sprintf("%+.1f ct", ct)
}

// CentsParser parses cents strings
func CentsParser(str string) (float64, error) {
	return parseFloat(strings.TrimSuffix(strings.TrimSpace(str), "ct"))
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteFormatter formats MIDI note numbers
func NoteFormatter(noteNumber float64) string {
	n := int(noteNumber)
	if n < 0 {
		return "-"
	}
	return fmt.Sprintf("%s%d", noteNames[n%12], n/12-1)
}

// NoteParser parses note names to MIDI numbers
func NoteParser(str string) (float64, error) {
	str = strings.ToUpper(strings.TrimSpace(str))

	noteMap := map[string]int{
		"C": 0, "B#": 0,
		"C#": 1, "DB": 1,
		"D": 2,
		"D#": 3, "EB": 3,
		"E": 4, "FB": 4,
		"F": 5, "E#": 5,
		"F#": 6, "GB": 6,
		"G": 7,
		"G#": 8, "AB": 8,
		"A": 9,
		"A#": 10, "BB": 10,
		"B": 11, "CB": 11,
	}

	// Find where the octave number starts
	octaveStart := -1
	for i, ch := range str {
		if ch >= '0' && ch <= '9' || ch == '-' {
			octaveStart = i
			break
		}
	}

	if octaveStart == -1 {
		// Bare MIDI number
		if n, err := strconv.Atoi(str); err == nil {
			return float64(n), nil
		}
		return 0, fmt.Errorf("no octave number found in note: %s", str)
	}

	if octaveStart == 0 {
		n, err := strconv.Atoi(str)
		if err != nil {
			return 0, fmt.Errorf("invalid note: %s", str)
		}
		return float64(n), nil
	}

	noteName := str[:octaveStart]
	octaveStr := str[octaveStart:]

	noteOffset, ok := noteMap[noteName]
	if !ok {
		return 0, fmt.Errorf("unknown note name: %s", noteName)
	}

	octave, err := strconv.Atoi(octaveStr)
	if err != nil {
		return 0, fmt.Errorf("invalid octave number: %s", octaveStr)
	}

	return float64((octave+1)*12 + noteOffset), nil
}

// OnOffFormatter formats boolean as On/Off
func OnOffFormatter(value float64) string {
	if value > 0.5 {
		return "On"
	}
	return "Off"
}

// OnOffParser parses On/Off strings
func OnOffParser(str string) (float64, error) {
	str = strings.ToLower(strings.TrimSpace(str))
	switch str {
	case "on", "yes", "true", "1":
		return 1, nil
	case "off", "no", "false", "0":
		return 0, nil
	default:
		return 0, fmt.Errorf("expected 'on' or 'off', got: %s", str)
	}
}
