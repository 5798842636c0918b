// Command pocketsynth plays the synth from the computer keyboard.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/justyntemme/pocketsynth/pkg/framework/debug"
	"github.com/justyntemme/pocketsynth/pkg/framework/param"
	"github.com/justyntemme/pocketsynth/pkg/host"
	"github.com/justyntemme/pocketsynth/pkg/synth"
)

func main() {
	sampleRate := flag.Int("rate", 44100, "Sample rate in Hz")
	blockSize := flag.Int("block", 256, "Render block size in samples")
	latency := flag.Duration("latency", 20*time.Millisecond, "Device buffer length")
	polyphony := flag.Int("voices", synth.DefaultPolyphony, "Polyphony (1-16)")
	mono := flag.Bool("mono", false, "Play one note at a time")
	logFile := flag.String("log", "pocketsynth.log", "Log file")
	logLevel := flag.String("loglevel", "info", "Log level (debug, info, warn, error, off)")
	flag.Parse()

	if err := run(config{
		sampleRate: *sampleRate,
		blockSize:  *blockSize,
		latency:    *latency,
		polyphony:  *polyphony,
		mono:       *mono,
		logFile:    *logFile,
		logLevel:   *logLevel,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type config struct {
	sampleRate int
	blockSize  int
	latency    time.Duration
	polyphony  int
	mono       bool
	logFile    string
	logLevel   string
}

func run(cfg config) error {
	level, err := debug.ParseLevel(cfg.logLevel)
	if err != nil {
		return err
	}

	// The TUI owns the terminal, so logs go to a file
	logger, err := debug.NewFileLogger(cfg.logFile, "pocketsynth", debug.DefaultFlags)
	if err != nil {
		return err
	}
	defer logger.Close()
	logger.SetLevel(level)
	debug.SetDefault(logger)

	params, err := synth.NewParameters(param.NewRegistry())
	if err != nil {
		return err
	}
	params.Voices.SetValue(float64(cfg.polyphony))

	s := synth.New(params, synth.DefaultChannels)
	s.SetMono(cfg.mono)
	if err := s.Prepare(float64(cfg.sampleRate), cfg.blockSize); err != nil {
		return err
	}

	out, err := host.NewOutput(s, host.Options{
		SampleRate: cfg.sampleRate,
		Channels:   synth.DefaultChannels,
		Latency:    cfg.latency,
	})
	if err != nil {
		return err
	}
	defer out.Close()
	out.Start()

	model := newModel(s)
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("run terminal ui: %w", err)
	}

	if err := out.Err(); err != nil {
		debug.Error("audio device: %v", err)
	}
	debug.Info("shutting down")
	return nil
}
