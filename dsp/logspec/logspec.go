package logspec

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-beatnet/dsp/core"
)

// Floor is the smallest argument passed to log10.
const Floor = 1e-6

// Default log compression parameters.
const (
	DefaultMul = 1.0
	DefaultAdd = 1.0
)

// LogCompress writes log10(max(mul·x+add, Floor)) for each x in src into dst,
// reusing its capacity, and returns dst. The result is always finite for
// finite input.
func LogCompress(dst, src []float64, mul, add float64) []float64 {
	dst = core.EnsureLen(dst, len(src))
	for i, x := range src {
		dst[i] = math.Log10(math.Max(mul*x+add, Floor))
	}

	return dst
}

// Concat writes a followed by b into dst, reusing its capacity.
func Concat(dst, a, b []float64) []float64 {
	dst = core.EnsureLen(dst, len(a)+len(b))
	copy(dst, a)
	copy(dst[len(a):], b)

	return dst
}

// Differ computes frame-to-frame differences. The zero value is ready to use
// and keeps signed differences; set Positive to clamp them at zero.
type Differ struct {
	Positive bool

	prev []float64
	has  bool
}

// NewDiffer returns a Differ with room for n values.
func NewDiffer(n int, positive bool) *Differ {
	return &Differ{Positive: positive, prev: make([]float64, 0, n)}
}

// Diff writes current − previous into dst and remembers current. The first
// call after construction or Reset, or a call whose length differs from the
// remembered vector, yields zeros.
func (d *Differ) Diff(dst, current []float64) []float64 {
	dst = core.EnsureLen(dst, len(current))

	if !d.has || len(d.prev) != len(current) {
		core.Zero(dst)
	} else {
		for i, v := range current {
			delta := v - d.prev[i]
			if d.Positive && delta < 0 {
				delta = 0
			}

			dst[i] = delta
		}
	}

	d.prev = core.EnsureLen(d.prev, len(current))
	copy(d.prev, current)
	d.has = true

	return dst
}

// Primed reports whether a previous vector is stored.
func (d *Differ) Primed() bool {
	return d.has
}

// Reset forgets the previous vector.
func (d *Differ) Reset() {
	d.has = false
}

type config struct {
	mul, add float64
	positive bool
}

// Option configures a Builder.
type Option func(*config)

// WithMul sets the multiplier applied before log compression.
func WithMul(v float64) Option {
	return func(cfg *config) {
		cfg.mul = v
	}
}

// WithAdd sets the offset added before log compression.
func WithAdd(v float64) Option {
	return func(cfg *config) {
		cfg.add = v
	}
}

// WithPositiveDiffs selects half-wave rectified (true, default) or signed
// differences.
func WithPositiveDiffs(on bool) Option {
	return func(cfg *config) {
		cfg.positive = on
	}
}

// Builder turns band energies into feature vectors of twice the band count.
type Builder struct {
	bands int
	mul   float64
	add   float64

	differ *Differ
	logs   []float64
	diff   []float64
	out    []float64
}

// NewBuilder creates a Builder for vectors of numBands band energies.
func NewBuilder(numBands int, opts ...Option) (*Builder, error) {
	if numBands <= 0 {
		return nil, fmt.Errorf("logspec: band count must be > 0: %d", numBands)
	}

	cfg := config{mul: DefaultMul, add: DefaultAdd, positive: true}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return &Builder{
		bands:  numBands,
		mul:    cfg.mul,
		add:    cfg.add,
		differ: NewDiffer(numBands, cfg.positive),
		logs:   make([]float64, numBands),
		diff:   make([]float64, numBands),
		out:    make([]float64, 2*numBands),
	}, nil
}

// Build returns log bands followed by their difference to the previous call.
// The result is owned by the Builder and valid until the next call. Build
// panics if len(bands) != NumBands().
func (b *Builder) Build(bands []float64) []float64 {
	if len(bands) != b.bands {
		panic(fmt.Sprintf("logspec: %d band energies, builder expects %d", len(bands), b.bands))
	}

	b.logs = LogCompress(b.logs, bands, b.mul, b.add)
	b.diff = b.differ.Diff(b.diff, b.logs)
	b.out = Concat(b.out, b.logs, b.diff)

	return b.out
}

// NumBands returns the expected band count.
func (b *Builder) NumBands() int { return b.bands }

// FeatureLen returns 2 × NumBands().
func (b *Builder) FeatureLen() int { return 2 * b.bands }

// PositiveDiffs reports whether differences are clamped at zero.
func (b *Builder) PositiveDiffs() bool { return b.differ.Positive }

// Reset clears the difference history.
func (b *Builder) Reset() {
	b.differ.Reset()
}
