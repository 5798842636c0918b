// Package host drives a synth from an audio device.
package host

import (
	"encoding/binary"
	"math"

	"github.com/justyntemme/pocketsynth/pkg/dsp/gain"
	"github.com/justyntemme/pocketsynth/pkg/framework/process"
	"github.com/justyntemme/pocketsynth/pkg/synth"
)

// bytesPerSample is the size of one Float32LE sample
const bytesPerSample = 4

// Stream is an io.Reader producing interleaved Float32LE frames rendered
// by a synth. The device goroutine calls Read; it renders in blocks of the
// synth's prepared size and never allocates.
type Stream struct {
	synth    *synth.Synth
	block    *process.Buffer
	frames   []float32
	channels int
}

// NewStream wraps s, which must already be prepared
func NewStream(s *synth.Synth, channels int) *Stream {
	if channels < 1 {
		channels = synth.DefaultChannels
	}
	blockSize := s.MaxBlockSize()
	return &Stream{
		synth:    s,
		block:    process.NewBuffer(channels, blockSize),
		frames:   make([]float32, blockSize*channels),
		channels: channels,
	}
}

// Channels returns the interleaved channel count
func (st *Stream) Channels() int {
	return st.channels
}

// Read fills p with whole frames. A trailing partial frame is left for the
// next call.
func (st *Stream) Read(p []byte) (int, error) {
	frameBytes := st.channels * bytesPerSample
	total := len(p) / frameBytes
	written := 0

	for pos := 0; pos < total; {
		n := min(total-pos, st.block.MaxSamples())
		st.block.SetNumSamples(n)
		st.block.Clear()
		st.synth.RenderNextBlock(st.block, 0, n)

		for _, ch := range st.block.Channels() {
			gain.HardClipBuffer(ch, 1)
		}

		count := st.block.Interleave(st.frames)
		for _, v := range st.frames[:count] {
			binary.LittleEndian.PutUint32(p[written:], math.Float32bits(v))
			written += bytesPerSample
		}
		pos += n
	}

	return written, nil
}
