// Package wavio reads WAV files as a stream of mono float32 device blocks.
package wavio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// pcmFormat is the WAVE format tag of integer PCM data.
const pcmFormat = 1

var (
	// ErrInvalidFile indicates input that is not a readable PCM WAV file.
	ErrInvalidFile = errors.New("wavio: not a valid wav file")
	// ErrInvalidBlockSize indicates a non-positive block size.
	ErrInvalidBlockSize = errors.New("wavio: block size must be > 0")
)

// Source yields fixed-size mono blocks from a WAV stream. Multi-channel
// input is averaged. The last block may be shorter than BlockSize.
type Source struct {
	closer io.Closer
	dec    *wav.Decoder

	rate      float64
	channels  int
	bitDepth  int
	scale     float32
	offset    float32
	blockSize int
	frames    uint64

	buf   *audio.IntBuffer
	block []float32
}

// Open opens the WAV file at path.
func Open(path string, blockSize int) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("wavio: open %q: %w", path, err)
	}

	s, err := NewSource(f, blockSize)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("wavio: %q: %w", path, err)
	}

	s.closer = f

	return s, nil
}

// NewSource reads the WAV header from r.
func NewSource(r io.ReadSeeker, blockSize int) (*Source, error) {
	if blockSize <= 0 {
		return nil, ErrInvalidBlockSize
	}

	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrInvalidFile
	}

	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}

	channels := int(dec.NumChans)
	bitDepth := int(dec.BitDepth)

	if channels <= 0 || dec.SampleRate == 0 || bitDepth <= 0 {
		return nil, fmt.Errorf("%w: %d channels at %d Hz, %d bit", ErrInvalidFile, channels, dec.SampleRate, bitDepth)
	}

	if dec.WavAudioFormat != pcmFormat {
		return nil, fmt.Errorf("%w: format tag %d is not integer pcm", ErrInvalidFile, dec.WavAudioFormat)
	}

	// 8-bit PCM is stored unsigned around 128.
	var offset float32
	if bitDepth == 8 {
		offset = 128
	}

	return &Source{
		dec:       dec,
		rate:      float64(dec.SampleRate),
		channels:  channels,
		bitDepth:  bitDepth,
		scale:     1 / float32(int64(1)<<(bitDepth-1)),
		offset:    offset,
		blockSize: blockSize,
		buf: &audio.IntBuffer{
			Format: &audio.Format{NumChannels: channels, SampleRate: int(dec.SampleRate)},
			Data:   make([]int, blockSize*channels),
		},
		block: make([]float32, blockSize),
	}, nil
}

// Next returns the next block. The slice is owned by the Source and valid
// until the next call. It returns io.EOF once the stream is drained.
func (s *Source) Next() ([]float32, error) {
	s.buf.Data = s.buf.Data[:cap(s.buf.Data)]

	n, err := s.dec.PCMBuffer(s.buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("wavio: read pcm: %w", err)
	}

	frames := n / s.channels
	if frames == 0 {
		return nil, io.EOF
	}

	block := s.block[:frames]
	inv := 1 / float32(s.channels)

	for i := range block {
		var acc float32
		for c := range s.channels {
			acc += float32(s.buf.Data[i*s.channels+c]) - s.offset
		}

		block[i] = acc * s.scale * inv
	}

	s.frames += uint64(frames)

	return block, nil
}

// SampleRate returns the file's sample rate in Hz.
func (s *Source) SampleRate() float64 { return s.rate }

// Channels returns the file's channel count.
func (s *Source) Channels() int { return s.channels }

// BitDepth returns the PCM sample width.
func (s *Source) BitDepth() int { return s.bitDepth }

// BlockSize returns the nominal block length.
func (s *Source) BlockSize() int { return s.blockSize }

// Position returns the time of the next block's first sample.
func (s *Source) Position() time.Duration {
	return time.Duration(float64(s.frames) / s.rate * float64(time.Second))
}

// Close closes the underlying file if the Source opened it.
func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}

	err := s.closer.Close()
	s.closer = nil

	return err
}

// Encode writes samples in [-1, 1] as a mono PCM WAV stream.
func Encode(w io.WriteSeeker, sampleRate, bitDepth int, samples []float32) error {
	if sampleRate <= 0 || bitDepth <= 0 || bitDepth > 32 {
		return fmt.Errorf("wavio: invalid format %d Hz, %d bit", sampleRate, bitDepth)
	}

	full := float32(int64(1)<<(bitDepth-1)) - 1

	offset := 0
	if bitDepth == 8 {
		offset = 128
	}

	data := make([]int, len(samples))

	for i, v := range samples {
		data[i] = int(min(max(v, -1), 1)*full) + offset
	}

	enc := wav.NewEncoder(w, sampleRate, bitDepth, 1, pcmFormat)

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("wavio: encode: %w", err)
	}

	return enc.Close()
}
