package spectrum

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/cwbudde/algo-beatnet/dsp/core"
)

// DefaultBackend names the transform used when none is configured.
const DefaultBackend = "algofft"

var (
	// ErrUnknownBackend indicates a transform name that is not registered.
	ErrUnknownBackend = errors.New("spectrum: unknown transform backend")
	// ErrInvalidSize indicates a transform or analyzer size that is not usable.
	ErrInvalidSize = errors.New("spectrum: invalid size")
	// ErrLengthMismatch indicates Forward buffers that do not fit the transform.
	ErrLengthMismatch = errors.New("spectrum: buffer length does not fit transform")
)

// Transform computes the non-negative-frequency half of a real DFT.
//
// Forward zero-pads src (len(src) <= Size()) to Size() samples and writes the
// first len(dst) bins (len(dst) <= Size()/2+1) into dst.
type Transform interface {
	Forward(dst []complex128, src []float64) error
	Size() int
}

// Factory builds a Transform of the given power-of-two size.
type Factory func(size int) (Transform, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{
		"algofft": newAlgoFFT,
		"gonum":   newGonum,
		"godsp":   newGoDSP,
	}
)

// Register adds or replaces a named transform backend.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	registry[name] = f
}

// Backends returns the registered backend names in sorted order.
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// NewTransform resolves a backend by name. An empty name selects
// DefaultBackend.
func NewTransform(name string, size int) (Transform, error) {
	if name == "" {
		name = DefaultBackend
	}

	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}

	if !core.IsPowerOfTwo(size) {
		return nil, fmt.Errorf("%w: transform size %d is not a power of two", ErrInvalidSize, size)
	}

	t, err := f(size)
	if err != nil {
		return nil, fmt.Errorf("spectrum: %s backend: %w", name, err)
	}

	return t, nil
}

func checkForward(dst []complex128, src []float64, size int) error {
	if len(src) > size || len(dst) > size/2+1 {
		return ErrLengthMismatch
	}

	return nil
}

type algoFFT struct {
	plan *algofft.Plan[complex128]
	buf  []complex128
}

func newAlgoFFT(size int) (Transform, error) {
	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create FFT plan: %w", err)
	}

	return &algoFFT{plan: plan, buf: make([]complex128, size)}, nil
}

func (t *algoFFT) Size() int { return len(t.buf) }

func (t *algoFFT) Forward(dst []complex128, src []float64) error {
	if err := checkForward(dst, src, len(t.buf)); err != nil {
		return err
	}

	for i, v := range src {
		t.buf[i] = complex(v, 0)
	}

	for i := len(src); i < len(t.buf); i++ {
		t.buf[i] = 0
	}

	if err := t.plan.Forward(t.buf, t.buf); err != nil {
		return err
	}

	copy(dst, t.buf)

	return nil
}

type gonumFFT struct {
	fft    *fourier.FFT
	seq    []float64
	coeffs []complex128
}

func newGonum(size int) (Transform, error) {
	return &gonumFFT{
		fft:    fourier.NewFFT(size),
		seq:    make([]float64, size),
		coeffs: make([]complex128, size/2+1),
	}, nil
}

func (t *gonumFFT) Size() int { return len(t.seq) }

func (t *gonumFFT) Forward(dst []complex128, src []float64) error {
	if err := checkForward(dst, src, len(t.seq)); err != nil {
		return err
	}

	copy(t.seq, src)
	core.Zero(t.seq[len(src):])

	t.coeffs = t.fft.Coefficients(t.coeffs, t.seq)
	copy(dst, t.coeffs)

	return nil
}

type goDSP struct {
	seq []float64
}

func newGoDSP(size int) (Transform, error) {
	return &goDSP{seq: make([]float64, size)}, nil
}

func (t *goDSP) Size() int { return len(t.seq) }

func (t *goDSP) Forward(dst []complex128, src []float64) error {
	if err := checkForward(dst, src, len(t.seq)); err != nil {
		return err
	}

	copy(t.seq, src)
	core.Zero(t.seq[len(src):])

	copy(dst, fft.FFTReal(t.seq))

	return nil
}
