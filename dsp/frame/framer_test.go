package frame

import (
	"errors"
	"testing"

	"github.com/cwbudde/algo-beatnet/internal/testutil"
)

func TestNewValidation(t *testing.T) {
	for _, n := range []int{0, -1} {
		if _, err := New(n); !errors.Is(err, ErrInvalidFrameLength) {
			t.Fatalf("New(%d) error = %v, want ErrInvalidFrameLength", n, err)
		}
	}
}

func TestCapacity(t *testing.T) {
	tests := []struct {
		name     string
		frameLen int
		opts     []Option
		want     int
	}{
		{name: "default", frameLen: 1411, want: 1552},
		{name: "paper frame", frameLen: 2050, want: 2255},
		{name: "override", frameLen: 100, opts: []Option{WithCapacity(400)}, want: 400},
		{name: "clamped", frameLen: 100, opts: []Option{WithCapacity(10)}, want: 100},
		{name: "tiny frame", frameLen: 1, want: 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f, err := New(tc.frameLen, tc.opts...)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if f.Capacity() != tc.want {
				t.Fatalf("Capacity() = %d, want %d", f.Capacity(), tc.want)
			}
			if f.Capacity() < f.FrameLen() {
				t.Fatalf("capacity %d below frame length %d", f.Capacity(), f.FrameLen())
			}
		})
	}
}

func TestWarmUpBoundary(t *testing.T) {
	const frameLen = 1411

	f, err := New(frameLen)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, ok := f.Process(make([]float64, frameLen-1)); ok {
		t.Fatal("frame emitted before frame_length samples")
	}

	frame, ok := f.Process(make([]float64, 1))
	if !ok {
		t.Fatal("no frame at exactly frame_length samples")
	}
	if len(frame) != frameLen {
		t.Fatalf("len(frame) = %d, want %d", len(frame), frameLen)
	}
}

func TestWarmUpExactOneBlock(t *testing.T) {
	f, _ := New(64)
	frame, ok := f.Process(testutil.Ramp(0, 64))
	if !ok {
		t.Fatal("expected a frame when the first block fills the frame")
	}
	testutil.RequireSliceNearlyEqual(t, frame, testutil.Ramp(0, 64), 0)
}

func TestFrameIsChronologicalAcrossWrap(t *testing.T) {
	const frameLen = 50

	f, _ := New(frameLen)
	stream := testutil.Ramp(1, 1000)

	pos := 0
	for _, n := range []int{13, 7, 40, 1, 59, 200, 3, 55, 17} {
		frame, ok := f.Process(stream[pos : pos+n])
		pos += n

		if pos < frameLen {
			if ok {
				t.Fatalf("frame emitted after %d samples", pos)
			}
			continue
		}
		if !ok {
			t.Fatalf("no frame after %d samples", pos)
		}
		testutil.RequireSliceNearlyEqual(t, frame, stream[pos-frameLen:pos], 0)
	}
}

func TestEmptyBlockRepeatsFrame(t *testing.T) {
	f, _ := New(8)
	f.Process(testutil.Ramp(0, 10))

	frame, ok := f.Process(nil)
	if !ok {
		t.Fatal("ready framer should emit on empty block")
	}
	testutil.RequireSliceNearlyEqual(t, frame, testutil.Ramp(2, 8), 0)
}

func TestReset(t *testing.T) {
	f, _ := New(8)
	f.Process(testutil.Ramp(0, 20))
	f.Reset()

	if f.Ready() || f.Written() != 0 {
		t.Fatalf("Ready()=%v Written()=%d after Reset", f.Ready(), f.Written())
	}
	if _, ok := f.Process(make([]float64, 7)); ok {
		t.Fatal("frame emitted before warm-up after Reset")
	}
	frame, ok := f.Process([]float64{9})
	if !ok {
		t.Fatal("expected frame after warm-up")
	}
	testutil.RequireSliceNearlyEqual(t, frame, []float64{0, 0, 0, 0, 0, 0, 0, 9}, 0)
}

func TestProcessDoesNotAllocate(t *testing.T) {
	f, _ := New(1411)
	block := make([]float64, 59)
	f.Process(make([]float64, 1411))

	allocs := testing.AllocsPerRun(100, func() {
		f.Process(block)
	})
	if allocs != 0 {
		t.Fatalf("allocs = %v, want 0", allocs)
	}
}

func BenchmarkFramerProcess(b *testing.B) {
	f, _ := New(1411)
	block := testutil.DeterministicNoise(1, 1, 59)

	b.ReportAllocs()
	b.ResetTimer()

	for range b.N {
		f.Process(block)
	}
}
