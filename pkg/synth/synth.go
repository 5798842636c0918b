package synth

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/cwbudde/algo-vecmath"

	"github.com/justyntemme/pocketsynth/pkg/dsp/analysis"
	"github.com/justyntemme/pocketsynth/pkg/framework/debug"
	"github.com/justyntemme/pocketsynth/pkg/framework/param"
	"github.com/justyntemme/pocketsynth/pkg/framework/process"
	"github.com/justyntemme/pocketsynth/pkg/framework/voice"
	"github.com/justyntemme/pocketsynth/pkg/midi"
)

var (
	// ErrInvalidSampleRate is returned by Prepare for a non-positive rate
	ErrInvalidSampleRate = errors.New("synth: invalid sample rate")
	// ErrInvalidBlockSize is returned by Prepare for a non-positive block size
	ErrInvalidBlockSize = errors.New("synth: invalid block size")
)

const (
	// DefaultChannels is the output channel count of the demo hosts
	DefaultChannels = 2
	// eventQueueSize is the capacity of the note queue and the per-block drain
	eventQueueSize = 256
)

// Synth owns the voice pool and the master bus.
//
// NoteOn, NoteOff and AllNotesOff are called from one control goroutine.
// RenderNextBlock and ProcessAudio are called from the audio goroutine and
// neither lock nor allocate. Prepare must not run concurrently with
// rendering.
type Synth struct {
	params    *Parameters
	voices    []*Voice
	allocator *voice.Allocator

	events  *midi.Ring
	pending []midi.Event

	bus     *process.Buffer
	gain    *param.Smoother
	gainBuf []float64

	meter *analysis.LevelMeter
	load  *debug.LoadMeter

	numChannels  int
	sampleRate   float64
	maxBlockSize int
	prepared     bool

	activeVoices atomic.Int32
}

// New creates a synth with a pool of MaxPolyphony voices.
// Call Prepare before rendering.
func New(params *Parameters, numChannels int) *Synth {
	if numChannels < 1 {
		numChannels = DefaultChannels
	}

	s := &Synth{
		params:      params,
		voices:      make([]*Voice, MaxPolyphony),
		events:      midi.NewRing(eventQueueSize),
		pending:     make([]midi.Event, 0, eventQueueSize),
		gain:        param.NewSmoother(param.LinearSmoothing, 1),
		meter:       analysis.NewLevelMeter(numChannels, defaultSampleRate),
		load:        debug.NewLoadMeter(defaultSampleRate, 0.9),
		numChannels: numChannels,
		sampleRate:  defaultSampleRate,
	}

	pool := make([]voice.Voice, len(s.voices))
	for i := range s.voices {
		s.voices[i] = NewVoice(params, defaultSampleRate)
		pool[i] = s.voices[i]
	}
	s.allocator = voice.NewAllocator(pool, OscillatorSound{})
	s.allocator.SetMaxVoices(params.Voices.Int())
	return s
}

// Prepare sets the sample rate and the largest block the host will ask
// for. It may be called again whenever either changes; sounding notes are
// cut.
func (s *Synth) Prepare(sampleRate float64, maxBlockSize int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("prepare: %w: %v", ErrInvalidSampleRate, sampleRate)
	}
	if maxBlockSize <= 0 {
		return fmt.Errorf("prepare: %w: %d", ErrInvalidBlockSize, maxBlockSize)
	}

	if s.bus == nil || maxBlockSize != s.maxBlockSize {
		s.bus = process.NewBuffer(s.numChannels, maxBlockSize)
		s.gainBuf = make([]float64, maxBlockSize)
	}
	s.sampleRate = sampleRate
	s.maxBlockSize = maxBlockSize

	for _, v := range s.voices {
		v.SetSampleRate(sampleRate)
	}
	s.allocator.Reset()
	s.activeVoices.Store(0)

	s.gain.SetTime(sampleRate, smoothingTimeMs)
	s.gain.Reset(s.params.Gain.Value())

	s.meter.SetSampleRate(sampleRate)
	s.meter.Reset()
	s.load.SetSampleRate(sampleRate)
	s.load.Reset()

	s.prepared = true
	debug.Info("synth prepared: %.0f Hz, block %d, %d channels, %d voices",
		sampleRate, maxBlockSize, s.numChannels, len(s.voices))
	return nil
}

// NoteOn queues a note-on for the next block. It returns false when the
// queue is full.
func (s *Synth) NoteOn(note, velocity uint8) bool {
	return s.events.Push(midi.NoteOn(0, note, velocity, 0))
}

// NoteOff queues a note-off for the next block
func (s *Synth) NoteOff(note uint8) bool {
	return s.events.Push(midi.NoteOff(0, note, 0, 0))
}

// AllNotesOff queues a release of every voice
func (s *Synth) AllNotesOff() bool {
	return s.events.Push(midi.ControlChange(0, midi.CCAllNotesOff, 0, 0))
}

// RenderNextBlock applies queued events and adds n rendered samples into
// buf starting at start.
func (s *Synth) RenderNextBlock(buf *process.Buffer, start, n int) {
	s.beginBlock()
	s.drainQueue()
	s.render(buf, start, n)
}

// ProcessAudio renders ctx.Output, applying queued events at the start of
// the block and the context's events at their sample offsets.
func (s *Synth) ProcessAudio(ctx *process.Context) {
	s.beginBlock()
	s.drainQueue()

	n := ctx.NumSamples()
	pos := 0
	for _, e := range ctx.InputEvents() {
		offset := min(max(int(e.Offset), pos), n)
		if offset > pos {
			s.render(ctx.Output, pos, offset-pos)
			pos = offset
		}
		s.allocator.ProcessEvent(e)
	}
	if pos < n {
		s.render(ctx.Output, pos, n-pos)
	}
}

// beginBlock picks up the block-rate global parameters before any event
// of the block is applied.
func (s *Synth) beginBlock() {
	s.allocator.SetMaxVoices(s.params.Voices.Int())
	s.gain.SetTarget(s.params.Gain.Value())
}

func (s *Synth) drainQueue() {
	s.pending = s.events.Drain(s.pending[:0])
	for _, e := range s.pending {
		s.allocator.ProcessEvent(e)
	}
}

func (s *Synth) render(buf *process.Buffer, start, n int) {
	n = min(n, buf.NumSamples()-start)
	if !s.prepared || n <= 0 || start < 0 {
		return
	}
	begin := s.load.Begin()

	out := buf.Channels()
	for pos := 0; pos < n; {
		chunk := min(n-pos, s.maxBlockSize)

		s.bus.SetNumSamples(chunk)
		s.bus.Clear()
		s.allocator.Render(s.bus, 0, chunk)

		gain := s.gainBuf[:chunk]
		s.gain.Fill(gain)
		for ch, busCh := range s.bus.Channels() {
			vecmath.MulBlockInPlace(busCh, gain)
			s.meter.Process(ch, busCh)
		}

		for ch, dst := range out {
			src := s.bus.Channel(ch % s.numChannels)
			vecmath.AddBlockInPlace(dst[start+pos:start+pos+chunk], src)
		}
		pos += chunk
	}

	s.activeVoices.Store(int32(s.allocator.GetActiveVoiceCount()))
	s.load.End(begin, n)
}

// Parameters returns the parameter layout the synth reads
func (s *Synth) Parameters() *Parameters {
	return s.params
}

// Meter returns the output level meter
func (s *Synth) Meter() *analysis.LevelMeter {
	return s.meter
}

// LoadMeter returns the render CPU load meter
func (s *Synth) LoadMeter() *debug.LoadMeter {
	return s.load
}

// ActiveVoices returns the number of sounding voices after the last block.
// Safe to call from any goroutine.
func (s *Synth) ActiveVoices() int {
	return int(s.activeVoices.Load())
}

// PendingEvents returns the number of queued events
func (s *Synth) PendingEvents() int {
	return s.events.Len()
}

// SampleRate returns the prepared sample rate
func (s *Synth) SampleRate() float64 {
	return s.sampleRate
}

// MaxBlockSize returns the prepared block size
func (s *Synth) MaxBlockSize() int {
	return s.maxBlockSize
}

// NumChannels returns the internal bus channel count
func (s *Synth) NumChannels() int {
	return s.numChannels
}

// SetStealingMode selects how notes take over busy voices.
// Call it before rendering starts.
func (s *Synth) SetStealingMode(mode voice.StealingMode) {
	s.allocator.SetStealingMode(mode)
}

// SetMono switches between polyphonic and last-note mono playing.
// Call it before rendering starts.
func (s *Synth) SetMono(mono bool) {
	if mono {
		s.allocator.SetMode(voice.ModeMono)
		return
	}
	s.allocator.SetMode(voice.ModePoly)
}
