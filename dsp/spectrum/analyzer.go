package spectrum

import (
	"fmt"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-beatnet/dsp/core"
	"github.com/cwbudde/algo-beatnet/dsp/window"
)

type analyzerConfig struct {
	window window.Type
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*analyzerConfig)

// WithWindow selects the analysis window. The default is a symmetric Hann.
func WithWindow(t window.Type) AnalyzerOption {
	return func(cfg *analyzerConfig) {
		cfg.window = t
	}
}

// Analyzer turns fixed-length frames into magnitude spectra.
type Analyzer struct {
	frameLen int
	numBins  int
	tf       Transform
	win      window.Type

	coeffs   []float64
	windowed []float64
	bins     []complex128
	re, im   []float64
	mag      []float64
}

// NewAnalyzer creates an Analyzer for frames of frameLen samples returning
// numBins magnitudes computed with t. The transform size t.Size() must be a
// power of two not smaller than frameLen, and numBins must not exceed
// t.Size()/2+1.
func NewAnalyzer(frameLen, numBins int, t Transform, opts ...AnalyzerOption) (*Analyzer, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil transform", ErrInvalidSize)
	}

	size := t.Size()

	switch {
	case frameLen <= 0:
		return nil, fmt.Errorf("%w: frame length %d", ErrInvalidSize, frameLen)
	case !core.IsPowerOfTwo(size) || size < frameLen:
		return nil, fmt.Errorf("%w: transform size %d for frame length %d", ErrInvalidSize, size, frameLen)
	case numBins <= 0 || numBins > size/2+1:
		return nil, fmt.Errorf("%w: %d bins for transform size %d", ErrInvalidSize, numBins, size)
	}

	cfg := analyzerConfig{window: window.TypeHann}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return &Analyzer{
		frameLen: frameLen,
		numBins:  numBins,
		tf:       t,
		win:      cfg.window,
		coeffs:   window.Generate(cfg.window, frameLen),
		windowed: make([]float64, frameLen),
		bins:     make([]complex128, numBins),
		re:       make([]float64, numBins),
		im:       make([]float64, numBins),
		mag:      make([]float64, numBins),
	}, nil
}

// Compute returns the magnitudes of the first NumBins() bins of the windowed,
// zero-padded frame. The result is owned by the Analyzer and valid until the
// next call. Compute panics if len(frame) != FrameLen().
func (a *Analyzer) Compute(frame []float64) []float64 {
	if len(frame) != a.frameLen {
		panic(fmt.Sprintf("spectrum: frame length %d, analyzer expects %d", len(frame), a.frameLen))
	}

	if err := window.ApplyCoefficients(a.windowed, frame, a.coeffs); err != nil {
		panic(fmt.Sprintf("spectrum: %v", err))
	}

	if err := a.tf.Forward(a.bins, a.windowed); err != nil {
		// Sizes are validated at construction, so this is a backend defect.
		panic(fmt.Sprintf("spectrum: transform failed: %v", err))
	}

	SplitComplex(a.re, a.im, a.bins)
	vecmath.Magnitude(a.mag, a.re, a.im)

	return a.mag
}

// FrameLen returns the expected frame length.
func (a *Analyzer) FrameLen() int { return a.frameLen }

// NumBins returns the number of magnitudes produced per frame.
func (a *Analyzer) NumBins() int { return a.numBins }

// TransformSize returns the zero-padded transform length.
func (a *Analyzer) TransformSize() int { return a.tf.Size() }

// Window returns the analysis window type.
func (a *Analyzer) Window() window.Type { return a.win }
