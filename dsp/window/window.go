// Package window generates analysis window coefficients.
//
// The default for spectral frames is the symmetric Hann window,
// w[i] = 0.5·(1 − cos(2πi/(N−1))). Periodic variants (denominator N) are
// available through WithPeriodic.
package window

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Type identifies a window function.
type Type int

const (
	TypeRectangular Type = iota
	TypeHann
	TypeHamming
	TypeBlackman
)

var names = map[Type]string{
	TypeRectangular: "rectangular",
	TypeHann:        "hann",
	TypeHamming:     "hamming",
	TypeBlackman:    "blackman",
}

var errMismatchedLength = errors.New("window: samples and coefficients must have same length")

// String returns the lower-case window name.
func (t Type) String() string {
	if s, ok := names[t]; ok {
		return s
	}

	return fmt.Sprintf("window(%d)", int(t))
}

// ParseType maps a window name back to its Type.
func ParseType(s string) (Type, error) {
	for t, name := range names {
		if name == s {
			return t, nil
		}
	}

	return TypeHann, fmt.Errorf("window: unknown window %q", s)
}

// Option configures window generation.
type Option func(*config)

type config struct {
	periodic bool
}

// WithPeriodic configures periodic form (FFT framing) instead of symmetric form.
func WithPeriodic() Option {
	return func(c *config) {
		c.periodic = true
	}
}

// Generate returns window coefficients of the given length.
func Generate(t Type, length int, opts ...Option) []float64 {
	if length <= 0 {
		return nil
	}

	var cfg config
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	out := make([]float64, length)
	for i := range out {
		out[i] = evalWindow(t, samplePosition(i, length, cfg.periodic))
	}

	return out
}

// ApplyCoefficients writes samples·coeffs into dst.
func ApplyCoefficients(dst, samples, coeffs []float64) error {
	if len(samples) != len(coeffs) || len(dst) < len(samples) {
		return errMismatchedLength
	}

	vecmath.MulBlock(dst[:len(samples)], samples, coeffs)

	return nil
}

// CoherentGain returns sum(w)/N, the DC gain of the window.
func CoherentGain(coeffs []float64) float64 {
	if len(coeffs) == 0 {
		return 0
	}

	sum := 0.0
	for _, c := range coeffs {
		sum += c
	}

	return sum / float64(len(coeffs))
}

// EquivalentNoiseBandwidth returns the ENBW in bins, or 0 for an empty or
// zero-sum window.
func EquivalentNoiseBandwidth(coeffs []float64) float64 {
	sum := 0.0
	sumSquares := 0.0

	for _, c := range coeffs {
		sum += c
		sumSquares += c * c
	}

	if sum == 0 {
		return 0
	}

	return float64(len(coeffs)) * sumSquares / (sum * sum)
}

func evalWindow(t Type, x float64) float64 {
	phase := 2 * math.Pi * x

	switch t {
	case TypeHann:
		return 0.5 * (1 - math.Cos(phase))
	case TypeHamming:
		return 0.54 - 0.46*math.Cos(phase)
	case TypeBlackman:
		return 0.42 - 0.5*math.Cos(phase) + 0.08*math.Cos(2*phase)
	default:
		return 1
	}
}

func samplePosition(n, size int, periodic bool) float64 {
	if size <= 1 {
		return 0
	}

	den := float64(size - 1)
	if periodic {
		den = float64(size)
	}

	return float64(n) / den
}
