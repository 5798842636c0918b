package process

// Buffer is a fixed-capacity multi-channel block of float64 samples.
// Storage is allocated once; SetNumSamples only reslices.
type Buffer struct {
	data       [][]float64
	channels   [][]float64
	numSamples int
}

// NewBuffer allocates numChannels channels of maxSamples each
func NewBuffer(numChannels, maxSamples int) *Buffer {
	b := &Buffer{
		data:     make([][]float64, numChannels),
		channels: make([][]float64, numChannels),
	}
	for ch := range b.data {
		b.data[ch] = make([]float64, maxSamples)
	}
	b.SetNumSamples(maxSamples)
	return b
}

// SetNumSamples sets the active block length, clamped to capacity
func (b *Buffer) SetNumSamples(n int) {
	if n < 0 {
		n = 0
	}
	if n > b.MaxSamples() {
		n = b.MaxSamples()
	}
	b.numSamples = n
	for ch := range b.data {
		b.channels[ch] = b.data[ch][:n]
	}
}

// NumSamples returns the active block length
func (b *Buffer) NumSamples() int {
	return b.numSamples
}

// MaxSamples returns the per-channel capacity
func (b *Buffer) MaxSamples() int {
	if len(b.data) == 0 {
		return 0
	}
	return len(b.data[0])
}

// NumChannels returns the channel count
func (b *Buffer) NumChannels() int {
	return len(b.channels)
}

// Channel returns channel ch sized to the active block length
func (b *Buffer) Channel(ch int) []float64 {
	return b.channels[ch]
}

// Channels returns every channel sized to the active block length
func (b *Buffer) Channels() [][]float64 {
	return b.channels
}

// Clear zeros the active block
func (b *Buffer) Clear() {
	for _, c := range b.channels {
		clear(c)
	}
}

// Interleave writes the active block into dst as interleaved float32
// frames and returns the number of values written.
func (b *Buffer) Interleave(dst []float32) int {
	nch := len(b.channels)
	if nch == 0 {
		return 0
	}
	frames := min(b.numSamples, len(dst)/nch)
	for i := 0; i < frames; i++ {
		for ch, c := range b.channels {
			dst[i*nch+ch] = float32(c[i])
		}
	}
	return frames * nch
}
