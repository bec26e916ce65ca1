package wavio

import (
	"bytes"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func writeMono(t *testing.T, rate, bitDepth int, samples []float32) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "in.wav")

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if err := Encode(f, rate, bitDepth, samples); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	return path
}

func ramp(n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(i%200)/200 - 0.5
	}

	return out
}

func TestSourceBlocks(t *testing.T) {
	samples := ramp(1000)
	path := writeMono(t, 22050, 16, samples)

	s, err := Open(path, 256)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	if s.SampleRate() != 22050 || s.Channels() != 1 || s.BitDepth() != 16 || s.BlockSize() != 256 {
		t.Fatalf("format = %v Hz, %d ch, %d bit, block %d", s.SampleRate(), s.Channels(), s.BitDepth(), s.BlockSize())
	}

	var (
		got  []float32
		lens []int
	)

	for {
		block, err := s.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}

		lens = append(lens, len(block))
		got = append(got, block...)
	}

	want := []int{256, 256, 256, 232}
	if len(lens) != len(want) {
		t.Fatalf("block lengths = %v, want %v", lens, want)
	}

	for i := range want {
		if lens[i] != want[i] {
			t.Fatalf("block lengths = %v, want %v", lens, want)
		}
	}

	for i := range samples {
		if math.Abs(float64(got[i]-samples[i])) > 1e-4 {
			t.Fatalf("sample %d = %v, want %v", i, got[i], samples[i])
		}
	}

	if pos := s.Position(); pos < 45*time.Millisecond || pos > 46*time.Millisecond {
		t.Fatalf("Position() = %v, want about 45.35ms", pos)
	}
}

func TestSourceMixesChannels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}

	enc := wav.NewEncoder(f, 8000, 16, 2, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: 8000},
		Data:           []int{16384, 0, -16384, -16384, 8192, 8192},
		SourceBitDepth: 16,
	}

	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}

	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}

	f.Close()

	s, err := Open(path, 16)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	if s.Channels() != 2 {
		t.Fatalf("Channels() = %d, want 2", s.Channels())
	}

	block, err := s.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}

	want := []float32{0.25, -0.5, 0.25}
	if len(block) != len(want) {
		t.Fatalf("block = %v, want %v", block, want)
	}

	for i := range want {
		if block[i] != want[i] {
			t.Fatalf("block = %v, want %v", block, want)
		}
	}
}

func TestSourceErrors(t *testing.T) {
	if _, err := NewSource(bytes.NewReader([]byte("not a wav file at all")), 256); !errors.Is(err, ErrInvalidFile) {
		t.Fatalf("NewSource(garbage) error = %v, want ErrInvalidFile", err)
	}

	path := writeMono(t, 22050, 16, ramp(10))
	if _, err := Open(path, 0); !errors.Is(err, ErrInvalidBlockSize) {
		t.Fatalf("Open(block 0) error = %v, want ErrInvalidBlockSize", err)
	}

	if _, err := Open(filepath.Join(t.TempDir(), "missing.wav"), 256); err == nil {
		t.Fatal("Open(missing) succeeded")
	}
}

func TestSourceDecodesUnsigned8Bit(t *testing.T) {
	samples := ramp(400)

	s, err := Open(writeMono(t, 8000, 8, samples), 512)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	block, err := s.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}

	if len(block) != len(samples) {
		t.Fatalf("len = %d, want %d", len(block), len(samples))
	}

	var mean float64
	for i, v := range block {
		if math.Abs(float64(v-samples[i])) > 0.02 {
			t.Fatalf("sample %d = %v, want %v", i, v, samples[i])
		}
		mean += float64(v)
	}

	if mean /= float64(len(block)); math.Abs(mean) > 0.01 {
		t.Fatalf("mean = %v, want about 0", mean)
	}
}

func TestSourceRejectsFloatFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "float.wav")

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}

	enc := wav.NewEncoder(f, 8000, 32, 1, 3)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: 8000},
		Data:           make([]int, 64),
		SourceBitDepth: 32,
	}

	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}

	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}

	f.Close()

	if _, err := Open(path, 64); !errors.Is(err, ErrInvalidFile) {
		t.Fatalf("Open(float wav) error = %v, want ErrInvalidFile", err)
	}
}

func TestEncodeRejectsInvalidFormat(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "x.wav"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if err := Encode(f, 0, 16, nil); err == nil {
		t.Fatal("Encode(rate 0) succeeded")
	}

	if err := Encode(f, 8000, 40, nil); err == nil {
		t.Fatal("Encode(40 bit) succeeded")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	s, err := Open(writeMono(t, 8000, 16, ramp(100)), 64)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
}
