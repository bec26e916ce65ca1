package beat

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-beatnet/dsp/core"
	"github.com/cwbudde/algo-beatnet/dsp/frame"
	"github.com/cwbudde/algo-beatnet/dsp/window"
)

// Preset names a frame/hop timing set.
type Preset string

const (
	// PresetGithub uses 64 ms frames and a 20 ms hop.
	PresetGithub Preset = "github"
	// PresetPaper uses 93 ms frames and a 46 ms hop.
	PresetPaper Preset = "paper"
)

// ErrUnknownPreset indicates a preset name that is not defined.
var ErrUnknownPreset = errors.New("beat: unknown preset")

// Config holds the immutable front-end parameters.
type Config struct {
	TargetRate   float64 // analysis sample rate in Hz
	FrameSeconds float64
	HopSeconds   float64

	BandsPerOctave int
	FMin           float64
	FMax           float64
	NormalizeBands bool

	// TransformSize is the zero-padded DFT length. Zero selects the smallest
	// power of two not below the frame length.
	TransformSize int
	// FilterBankSize is the transform size the filter bank maps frequencies
	// against. Zero selects the bin count (frame/2+1), the layout the
	// pretrained models expect.
	FilterBankSize int

	LogMul        float64
	LogAdd        float64
	PositiveDiffs bool
	Window        window.Type
}

// PresetConfig returns the configuration for preset p.
func PresetConfig(p Preset) (Config, error) {
	cfg := Config{
		TargetRate:     22050,
		FrameSeconds:   0.064,
		HopSeconds:     0.020,
		BandsPerOctave: 16,
		FMin:           30,
		FMax:           11025,
		NormalizeBands: true,
		LogMul:         1,
		LogAdd:         1,
		PositiveDiffs:  true,
		Window:         window.TypeHann,
	}

	switch p {
	case PresetGithub, "":
	case PresetPaper:
		cfg.FrameSeconds = 0.093
		cfg.HopSeconds = 0.046
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownPreset, p)
	}

	return cfg, nil
}

// DefaultConfig returns the PresetGithub configuration.
func DefaultConfig() Config {
	cfg, _ := PresetConfig(PresetGithub)
	return cfg
}

// Derived holds the sizes computed from a Config.
type Derived struct {
	FrameLength    int
	HopSize        int
	FFTSize        int // magnitude bins kept per frame
	TransformSize  int
	FilterBankSize int
	NumBands       int
	FeatureLen     int
	RingCapacity   int
}

// Derive validates c and computes its derived sizes.
func (c Config) Derive() (Derived, error) {
	if err := c.Validate(); err != nil {
		return Derived{}, err
	}

	return c.derive(), nil
}

func (c Config) derive() Derived {
	d := Derived{
		FrameLength: int(c.TargetRate * c.FrameSeconds),
		HopSize:     int(c.TargetRate * c.HopSeconds),
	}

	d.FFTSize = d.FrameLength/2 + 1

	d.TransformSize = c.TransformSize
	if d.TransformSize == 0 {
		d.TransformSize = core.NextPowerOfTwo(d.FrameLength)
	}

	d.FilterBankSize = c.FilterBankSize
	if d.FilterBankSize == 0 {
		d.FilterBankSize = d.FFTSize
	}

	if c.BandsPerOctave > 0 && c.FMin > 0 && c.FMax > c.FMin {
		d.NumBands = int(math.Floor(math.Log2(c.FMax/c.FMin) * float64(c.BandsPerOctave)))
	}

	d.FeatureLen = 2 * d.NumBands
	d.RingCapacity = max(frame.DefaultCapacity(d.FrameLength), d.FrameLength)

	return d
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error

	if !finitePositive(c.TargetRate) {
		errs = append(errs, fmt.Errorf("target rate must be > 0, got %g", c.TargetRate))
	}

	if !finitePositive(c.FrameSeconds) {
		errs = append(errs, fmt.Errorf("frame duration must be > 0, got %g", c.FrameSeconds))
	}

	if !finitePositive(c.HopSeconds) {
		errs = append(errs, fmt.Errorf("hop duration must be > 0, got %g", c.HopSeconds))
	}

	if c.BandsPerOctave <= 0 {
		errs = append(errs, fmt.Errorf("bands per octave must be > 0, got %d", c.BandsPerOctave))
	}

	if !finitePositive(c.FMin) || !(c.FMax > c.FMin) || math.IsInf(c.FMax, 0) {
		errs = append(errs, fmt.Errorf("frequency range must satisfy 0 < fmin < fmax, got %g..%g", c.FMin, c.FMax))
	}

	if math.IsNaN(c.LogMul) || math.IsInf(c.LogMul, 0) || math.IsNaN(c.LogAdd) || math.IsInf(c.LogAdd, 0) {
		errs = append(errs, errors.New("log compression parameters must be finite"))
	}

	if c.TransformSize < 0 || c.FilterBankSize < 0 {
		errs = append(errs, errors.New("transform sizes must be >= 0"))
	}

	if len(errs) == 0 {
		d := c.derive()

		if d.FrameLength < 2 {
			errs = append(errs, fmt.Errorf("frame length must be >= 2 samples, got %d", d.FrameLength))
		}

		if d.HopSize < 1 {
			errs = append(errs, fmt.Errorf("hop size must be >= 1 sample, got %d", d.HopSize))
		}

		if !core.IsPowerOfTwo(d.TransformSize) || d.TransformSize < d.FrameLength {
			errs = append(errs, fmt.Errorf("transform size %d must be a power of two >= frame length %d", d.TransformSize, d.FrameLength))
		}

		if d.NumBands <= 0 {
			errs = append(errs, fmt.Errorf("frequency range %g..%g Hz yields no bands", c.FMin, c.FMax))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("beat: invalid config: %w", errors.Join(errs...))
	}

	return nil
}

func finitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
