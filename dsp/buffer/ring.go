package buffer

import "errors"

// ErrInvalidCapacity indicates a non-positive ring capacity.
var ErrInvalidCapacity = errors.New("buffer: ring capacity must be > 0")

// Ring is a circular buffer holding the most recent Cap() samples written.
//
// Writes never fail and never block: writing more than Cap() samples in one
// call simply keeps the newest Cap() of them. A Ring is not safe for
// concurrent use.
type Ring struct {
	data    []float64
	pos     int
	written uint64
}

// NewRing returns a zero-filled ring of the given capacity.
func NewRing(capacity int) (*Ring, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}

	return &Ring{data: make([]float64, capacity)}, nil
}

// Cap returns the ring capacity in samples.
func (r *Ring) Cap() int {
	return len(r.data)
}

// Written returns the total number of samples written since construction or
// the last Reset. It keeps counting after the ring wraps.
func (r *Ring) Written() uint64 {
	return r.written
}

// Write appends samples at the cursor, overwriting the oldest data.
func (r *Ring) Write(samples []float64) {
	n := len(samples)
	if n == 0 {
		return
	}

	r.written += uint64(n)

	size := len(r.data)
	if n > size {
		// Only the newest size samples survive; move the cursor past the rest.
		skip := n - size
		r.pos = (r.pos + skip) % size
		samples = samples[skip:]
	}

	for len(samples) > 0 {
		k := copy(r.data[r.pos:], samples)
		r.pos += k
		if r.pos == size {
			r.pos = 0
		}
		samples = samples[k:]
	}
}

// Latest fills dst with the len(dst) most recently written samples in
// chronological order (oldest first) and returns dst.
//
// Positions that were never written read as zero. Latest panics if len(dst)
// exceeds Cap().
func (r *Ring) Latest(dst []float64) []float64 {
	n := len(dst)
	size := len(r.data)
	if n > size {
		panic("buffer: Latest window larger than ring capacity")
	}

	if n == 0 {
		return dst
	}

	start := r.pos - n
	if start < 0 {
		start += size
	}

	k := copy(dst, r.data[start:])
	if k < n {
		copy(dst[k:], r.data[:n-k])
	}

	return dst
}

// Reset zeroes the buffer and rewinds the cursor and sample counter.
func (r *Ring) Reset() {
	for i := range r.data {
		r.data[i] = 0
	}

	r.pos = 0
	r.written = 0
}
