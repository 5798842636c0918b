// Command pocketrender renders a chord offline and reports its levels and
// dominant frequency.
package main

import (
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/justyntemme/pocketsynth/pkg/dsp/analysis"
	"github.com/justyntemme/pocketsynth/pkg/dsp/gain"
	"github.com/justyntemme/pocketsynth/pkg/framework/debug"
	"github.com/justyntemme/pocketsynth/pkg/framework/param"
	"github.com/justyntemme/pocketsynth/pkg/framework/process"
	"github.com/justyntemme/pocketsynth/pkg/midi"
	"github.com/justyntemme/pocketsynth/pkg/synth"
)

var errNoNotes = errors.New("no notes to render")

type config struct {
	notes      string
	sampleRate float64
	blockSize  int
	duration   time.Duration
	release    time.Duration
	velocity   int
	trimDB     float64
	set        []string
	output     string
}

type report struct {
	frames   int
	peak     float64
	rms      float64
	dominant float64
	issues   []string
}

// setFlags collects repeated -set id=value options
type setFlags []string

func (s *setFlags) String() string     { return strings.Join(*s, ",") }
func (s *setFlags) Set(v string) error { *s = append(*s, v); return nil }

func main() {
	var sets setFlags
	notes := flag.String("notes", "C4", "Comma separated notes, e.g. C4,E4,G4 or 60,64,67")
	sampleRate := flag.Float64("rate", 44100, "Sample rate in Hz")
	blockSize := flag.Int("block", 512, "Render block size in samples")
	duration := flag.Duration("duration", time.Second, "How long the notes are held")
	release := flag.Duration("release", 500*time.Millisecond, "Time rendered after the note-off")
	velocity := flag.Int("velocity", 100, "Note velocity (1-127)")
	trim := flag.Float64("trim", 0, "Output trim in dB")
	output := flag.String("o", "", "Write raw Float32LE interleaved stereo to this file")
	logLevel := flag.String("loglevel", "warn", "Log level (debug, info, warn, error, off)")
	flag.Var(&sets, "set", "Set a parameter, e.g. -set osc1_waveform=saw (repeatable)")
	flag.Parse()

	level, err := debug.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	debug.SetLevel(level)

	cfg := config{
		notes:      *notes,
		sampleRate: *sampleRate,
		blockSize:  *blockSize,
		duration:   *duration,
		release:    *release,
		velocity:   *velocity,
		trimDB:     *trim,
		set:        sets,
		output:     *output,
	}

	rep, err := run(cfg, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	for _, issue := range rep.issues {
		debug.Warn("%s", issue)
	}
}

// parseNotes accepts note names or MIDI numbers separated by commas
func parseNotes(s string) ([]uint8, error) {
	var notes []uint8
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		n, err := param.NoteParser(field)
		if err != nil {
			return nil, fmt.Errorf("parse note %q: %w", field, err)
		}
		if n < 0 || n > 127 {
			return nil, fmt.Errorf("note %q out of range", field)
		}
		notes = append(notes, uint8(n))
	}
	if len(notes) == 0 {
		return nil, errNoNotes
	}
	return notes, nil
}

func run(cfg config, w io.Writer) (report, error) {
	var rep report

	notes, err := parseNotes(cfg.notes)
	if err != nil {
		return rep, err
	}

	params, err := synth.NewParameters(param.NewRegistry())
	if err != nil {
		return rep, err
	}
	for _, kv := range cfg.set {
		id, value, ok := strings.Cut(kv, "=")
		if !ok {
			return rep, fmt.Errorf("invalid -set %q, want id=value", kv)
		}
		if err := params.Registry().SetText(strings.TrimSpace(id), value); err != nil {
			return rep, err
		}
	}

	s := synth.New(params, synth.DefaultChannels)
	if err := s.Prepare(cfg.sampleRate, cfg.blockSize); err != nil {
		return rep, err
	}

	held := int(cfg.duration.Seconds() * cfg.sampleRate)
	tail := int(cfg.release.Seconds() * cfg.sampleRate)
	total := held + tail
	if total <= 0 {
		return rep, fmt.Errorf("nothing to render for %v + %v", cfg.duration, cfg.release)
	}

	velocity := uint8(min(max(cfg.velocity, 1), 127))
	ctx := process.NewContext(synth.DefaultChannels, cfg.blockSize, 2*len(notes))
	out := process.NewBuffer(synth.DefaultChannels, total)
	for pos := 0; pos < total; pos += ctx.NumSamples() {
		ctx.SetBlockSize(min(cfg.blockSize, total-pos))
		ctx.Clear()
		ctx.ClearInputEvents()

		n := ctx.NumSamples()
		for _, note := range notes {
			if pos == 0 {
				ctx.AddInputEvent(midi.NoteOn(0, note, velocity, 0))
			}
			if held >= pos && held < pos+n {
				ctx.AddInputEvent(midi.NoteOff(0, note, 0, int32(held-pos)))
			}
		}
		s.ProcessAudio(ctx)

		for ch, src := range ctx.Output.Channels() {
			copy(out.Channel(ch)[pos:], src)
		}
	}

	left := out.Channel(0)
	for _, ch := range out.Channels() {
		gain.ApplyDbBuffer(ch, cfg.trimDB)
	}

	stats := debug.AnalyzeBuffer(left)
	rep.frames = total
	rep.peak = stats.Peak
	rep.rms = stats.RMS
	rep.issues = debug.CheckBuffer(left, "left")
	debug.LogBufferStats(left, "left")

	rep.dominant, err = analysis.DominantFrequency(left[:max(held, 2)], cfg.sampleRate)
	if err != nil {
		return rep, err
	}

	fmt.Fprintf(w, "notes     %s\n", formatNotes(notes))
	fmt.Fprintf(w, "frames    %d (%.2f s at %.0f Hz)\n", total, float64(total)/cfg.sampleRate, cfg.sampleRate)
	fmt.Fprintf(w, "peak      %s\n", param.DecibelFormatter(gain.LinearToDb(rep.peak)))
	fmt.Fprintf(w, "rms       %s\n", param.DecibelFormatter(gain.LinearToDb(rep.rms)))
	fmt.Fprintf(w, "dominant  %s\n", param.FrequencyFormatter(rep.dominant))
	fmt.Fprintf(w, "voices    %d active at the end\n", s.ActiveVoices())

	if cfg.output != "" {
		for _, ch := range out.Channels() {
			gain.HardClipBuffer(ch, 1)
		}
		if err := writeRaw(cfg.output, out); err != nil {
			return rep, err
		}
		fmt.Fprintf(w, "wrote     %s\n", cfg.output)
	}
	return rep, nil
}

func formatNotes(notes []uint8) string {
	names := make([]string, len(notes))
	for i, n := range notes {
		names[i] = param.NoteFormatter(float64(n))
	}
	return strings.Join(names, " ")
}

func writeRaw(path string, buf *process.Buffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	frames := make([]float32, buf.NumSamples()*buf.NumChannels())
	buf.Interleave(frames)

	data := make([]byte, 4*len(frames))
	for i, v := range frames {
		binary.LittleEndian.PutUint32(data[4*i:], math.Float32bits(v))
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write output %s: %w", path, err)
	}
	return f.Close()
}
