package frame

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-beatnet/dsp/buffer"
)

// ErrInvalidFrameLength indicates a non-positive frame length.
var ErrInvalidFrameLength = errors.New("frame: frame length must be > 0")

// capacityFactor sizes the ring relative to the frame length.
const capacityFactor = 1.1

type config struct {
	capacity int
}

// Option configures a Framer.
type Option func(*config)

// WithCapacity overrides the ring capacity. Values below the frame length are
// raised to the frame length.
func WithCapacity(n int) Option {
	return func(cfg *config) {
		cfg.capacity = n
	}
}

// DefaultCapacity returns floor(1.1 × frameLen).
func DefaultCapacity(frameLen int) int {
	return int(float64(frameLen) * capacityFactor)
}

// Framer accumulates samples and emits the latest frame once warmed up.
type Framer struct {
	frameLen int
	ring     *buffer.Ring
	frame    []float64
}

// New creates a Framer emitting frames of frameLen samples.
func New(frameLen int, opts ...Option) (*Framer, error) {
	if frameLen <= 0 {
		return nil, ErrInvalidFrameLength
	}

	cfg := config{capacity: DefaultCapacity(frameLen)}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	cfg.capacity = max(cfg.capacity, frameLen)

	ring, err := buffer.NewRing(cfg.capacity)
	if err != nil {
		return nil, fmt.Errorf("frame: %w", err)
	}

	return &Framer{
		frameLen: frameLen,
		ring:     ring,
		frame:    make([]float64, frameLen),
	}, nil
}

// Process appends block and returns the most recent FrameLen() samples in
// chronological order once at least FrameLen() samples have been written in
// total. Before that it returns nil, false. The frame slice is owned by the
// Framer and valid until the next call.
func (f *Framer) Process(block []float64) ([]float64, bool) {
	f.ring.Write(block)

	if !f.Ready() {
		return nil, false
	}

	return f.ring.Latest(f.frame), true
}

// Ready reports whether a full frame of history is available.
func (f *Framer) Ready() bool {
	return f.ring.Written() >= uint64(f.frameLen)
}

// Written returns the total number of samples appended since the last Reset.
func (f *Framer) Written() uint64 {
	return f.ring.Written()
}

// FrameLen returns the frame length in samples.
func (f *Framer) FrameLen() int {
	return f.frameLen
}

// Capacity returns the ring capacity in samples.
func (f *Framer) Capacity() int {
	return f.ring.Cap()
}

// Reset clears the history so the next frame needs a full warm-up again.
func (f *Framer) Reset() {
	f.ring.Reset()
	for i := range f.frame {
		f.frame[i] = 0
	}
}
