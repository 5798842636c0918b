package host

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/justyntemme/pocketsynth/pkg/framework/debug"
	"github.com/justyntemme/pocketsynth/pkg/synth"
)

// Output plays a synth through the default audio device.
// Only one Output may exist per process.
type Output struct {
	ctx    *oto.Context
	player *oto.Player
	stream *Stream

	mu      sync.Mutex
	started bool
}

// Options configures the device
type Options struct {
	SampleRate int
	Channels   int
	// Latency is the device buffer length
	Latency time.Duration
}

// NewOutput prepares s for the device and opens it. Playback starts with Start.
func NewOutput(s *synth.Synth, opts Options) (*Output, error) {
	if opts.Channels < 1 {
		opts.Channels = synth.DefaultChannels
	}
	if opts.Latency <= 0 {
		opts.Latency = 20 * time.Millisecond
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   opts.SampleRate,
		ChannelCount: opts.Channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   opts.Latency,
	})
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}
	<-ready

	o := &Output{
		ctx:    ctx,
		stream: NewStream(s, opts.Channels),
	}
	o.player = ctx.NewPlayer(o.stream)

	frames := int(opts.Latency.Seconds() * float64(opts.SampleRate))
	o.player.SetBufferSize(frames * opts.Channels * bytesPerSample)

	debug.Info("audio device open: %d Hz, %d channels, %v buffer",
		opts.SampleRate, opts.Channels, opts.Latency)
	return o, nil
}

// Start begins pulling blocks from the synth
func (o *Output) Start() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.started {
		o.player.Play()
		o.started = true
	}
}

// Close stops playback and releases the player
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player == nil {
		return nil
	}
	err := o.player.Close()
	o.player = nil
	o.started = false
	if err != nil {
		return fmt.Errorf("close audio player: %w", err)
	}
	return nil
}

// Err reports a device error seen by the player, if any
func (o *Output) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player == nil {
		return nil
	}
	return o.player.Err()
}
