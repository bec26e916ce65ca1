package bank

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-beatnet/dsp/core"
)

var (
	// ErrInvalidBandsPerOctave indicates a non-positive band density.
	ErrInvalidBandsPerOctave = errors.New("bank: bands per octave must be > 0")
	// ErrInvalidTransformSize indicates a non-positive transform size.
	ErrInvalidTransformSize = errors.New("bank: transform size must be > 0")
	// ErrInvalidSampleRate indicates a non-positive or non-finite sample rate.
	ErrInvalidSampleRate = errors.New("bank: sample rate must be > 0")
	// ErrInvalidRange indicates fMin <= 0 or fMin >= fMax.
	ErrInvalidRange = errors.New("bank: frequency range must satisfy 0 < fMin < fMax")
	// ErrNoBands indicates a range narrower than one band.
	ErrNoBands = errors.New("bank: frequency range yields no bands")
)

// Band describes one triangle of the bank.
type Band struct {
	Lower  float64 // left foot in Hz
	Center float64 // apex in Hz
	Upper  float64 // right foot in Hz

	// First and End bound the non-zero columns as [First, End).
	First int
	End   int
}

type config struct {
	normalize bool
}

// Option configures a Triangular bank.
type Option func(*config)

// WithNormalize enables or disables scaling each non-empty row to unit sum.
// Normalization is on by default.
func WithNormalize(on bool) Option {
	return func(cfg *config) {
		cfg.normalize = on
	}
}

// Triangular is an immutable matrix of triangular band weights. It is safe
// for concurrent use once constructed, except for Apply's dst argument.
type Triangular struct {
	bandsPerOctave int
	transformSize  int
	sampleRate     float64
	normalize      bool

	cols  int
	bands []Band
	rows  [][]float64
}

// NewTriangular builds the filter matrix. See the package documentation for
// the band layout.
func NewTriangular(bandsPerOctave, transformSize int, sampleRate, fMin, fMax float64, opts ...Option) (*Triangular, error) {
	switch {
	case bandsPerOctave <= 0:
		return nil, ErrInvalidBandsPerOctave
	case transformSize <= 0:
		return nil, ErrInvalidTransformSize
	case !(sampleRate > 0) || math.IsInf(sampleRate, 0):
		return nil, ErrInvalidSampleRate
	case !(fMin > 0) || !(fMax > fMin) || math.IsInf(fMax, 0):
		return nil, fmt.Errorf("%w: got %g..%g Hz", ErrInvalidRange, fMin, fMax)
	}

	cfg := config{normalize: true}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	num := int(math.Floor(math.Log2(fMax/fMin) * float64(bandsPerOctave)))
	if num <= 0 {
		return nil, fmt.Errorf("%w: %g..%g Hz at %d bands/octave", ErrNoBands, fMin, fMax, bandsPerOctave)
	}

	centers := make([]float64, num+2)
	for i := range centers {
		centers[i] = fMin * math.Pow(2, float64(i)/float64(bandsPerOctave))
	}

	t := &Triangular{
		bandsPerOctave: bandsPerOctave,
		transformSize:  transformSize,
		sampleRate:     sampleRate,
		normalize:      cfg.normalize,
		cols:           transformSize/2 + 1,
		bands:          make([]Band, num),
		rows:           make([][]float64, num),
	}

	for k := range t.bands {
		t.bands[k], t.rows[k] = t.buildRow(centers[k], centers[k+1], centers[k+2])
	}

	return t, nil
}

func (t *Triangular) binOf(f float64) float64 {
	return f / t.sampleRate * float64(t.transformSize)
}

func (t *Triangular) buildRow(lower, center, upper float64) (Band, []float64) {
	row := make([]float64, t.cols)

	l := t.binOf(lower)
	c := t.binOf(center)
	r := t.binOf(upper)

	first := min(int(math.Ceil(l)), t.cols)
	mid := min(int(math.Ceil(c)), t.cols)
	end := min(int(math.Ceil(r)), t.cols)

	for j := first; j < mid; j++ {
		row[j] = (float64(j) - l) / (c - l)
	}

	for j := mid; j < end; j++ {
		row[j] = (r - float64(j)) / (r - c)
	}

	if t.normalize {
		var sum float64
		for _, v := range row {
			sum += v
		}

		if sum > 0 {
			vecmath.ScaleBlock(row, row, 1/sum)
		}
	}

	return Band{Lower: lower, Center: center, Upper: upper, First: first, End: end}, row
}

// Apply integrates spectrum through every band and returns the band energies
// in dst, reusing its capacity. Only the overlap between the spectrum and the
// row width contributes, so spectra shorter or longer than Cols() are valid.
func (t *Triangular) Apply(dst, spectrum []float64) []float64 {
	dst = core.EnsureLen(dst, len(t.rows))

	for k, row := range t.rows {
		b := t.bands[k]
		end := min(b.End, len(spectrum))

		var acc float64
		for j := b.First; j < end; j++ {
			acc += spectrum[j] * row[j]
		}

		dst[k] = acc
	}

	return dst
}

// NumBands returns the number of bands (rows).
func (t *Triangular) NumBands() int { return len(t.rows) }

// Cols returns the row width, transformSize/2+1.
func (t *Triangular) Cols() int { return t.cols }

// BandsPerOctave returns the band density.
func (t *Triangular) BandsPerOctave() int { return t.bandsPerOctave }

// Normalized reports whether rows were scaled to unit sum.
func (t *Triangular) Normalized() bool { return t.normalize }

// Row returns a copy of band i's weights.
func (t *Triangular) Row(i int) []float64 {
	return append([]float64(nil), t.rows[i]...)
}

// Bands returns a copy of the band descriptions.
func (t *Triangular) Bands() []Band {
	return append([]Band(nil), t.bands...)
}

// Centers returns the apex frequency of every band in Hz.
func (t *Triangular) Centers() []float64 {
	out := make([]float64, len(t.bands))
	for i, b := range t.bands {
		out[i] = b.Center
	}

	return out
}
