package buffer

import (
	"errors"
	"testing"
)

func TestNewRingValidation(t *testing.T) {
	if _, err := NewRing(0); !errors.Is(err, ErrInvalidCapacity) {
		t.Fatalf("NewRing(0) error = %v, want ErrInvalidCapacity", err)
	}
	if _, err := NewRing(-3); !errors.Is(err, ErrInvalidCapacity) {
		t.Fatalf("NewRing(-3) error = %v, want ErrInvalidCapacity", err)
	}
}

func TestRingLatestBeforeWrap(t *testing.T) {
	r, err := NewRing(8)
	if err != nil {
		t.Fatalf("NewRing() error = %v", err)
	}

	r.Write([]float64{1, 2, 3})
	got := r.Latest(make([]float64, 3))
	want := []float64{1, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Latest()[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	// Unwritten history reads as zero.
	got = r.Latest(make([]float64, 5))
	want = []float64{0, 0, 1, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Latest(5)[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRingWrapsChronologically(t *testing.T) {
	r, _ := NewRing(5)

	for i := 1; i <= 12; i++ {
		r.Write([]float64{float64(i)})
	}

	got := r.Latest(make([]float64, 5))
	want := []float64{8, 9, 10, 11, 12}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Latest()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if r.Written() != 12 {
		t.Fatalf("Written() = %d, want 12", r.Written())
	}
}

func TestRingWriteLongerThanCapacity(t *testing.T) {
	r, _ := NewRing(4)
	r.Write([]float64{1, 2})

	in := make([]float64, 11)
	for i := range in {
		in[i] = float64(100 + i)
	}
	r.Write(in)

	got := r.Latest(make([]float64, 4))
	want := []float64{107, 108, 109, 110}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Latest()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if r.Written() != 13 {
		t.Fatalf("Written() = %d, want 13", r.Written())
	}
}

func TestRingMatchesSampleBySampleWrites(t *testing.T) {
	a, _ := NewRing(7)
	b, _ := NewRing(7)

	next := 0.0
	for _, n := range []int{3, 0, 9, 1, 6, 15, 2} {
		block := make([]float64, n)
		for i := range block {
			next++
			block[i] = next
			b.Write(block[i : i+1])
		}
		a.Write(block)

		ga := a.Latest(make([]float64, 7))
		gb := b.Latest(make([]float64, 7))
		for i := range ga {
			if ga[i] != gb[i] {
				t.Fatalf("block len %d: index %d got %v, want %v", n, i, ga[i], gb[i])
			}
		}
	}
}

func TestRingLatestPanicsWhenTooLarge(t *testing.T) {
	r, _ := NewRing(4)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for oversized window")
		}
	}()
	r.Latest(make([]float64, 5))
}

func TestRingReset(t *testing.T) {
	r, _ := NewRing(4)
	r.Write([]float64{1, 2, 3, 4, 5})
	r.Reset()

	if r.Written() != 0 {
		t.Fatalf("Written() = %d after Reset, want 0", r.Written())
	}
	for i, v := range r.Latest(make([]float64, 4)) {
		if v != 0 {
			t.Fatalf("Latest()[%d] = %v after Reset, want 0", i, v)
		}
	}
}

func TestRingWriteDoesNotAllocate(t *testing.T) {
	r, _ := NewRing(64)
	block := make([]float64, 37)
	dst := make([]float64, 50)

	allocs := testing.AllocsPerRun(100, func() {
		r.Write(block)
		r.Latest(dst)
	})
	if allocs != 0 {
		t.Fatalf("allocs = %v, want 0", allocs)
	}
}
