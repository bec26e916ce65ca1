package beat

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-beatnet/dsp/resample"
	"github.com/cwbudde/algo-beatnet/dsp/spectrum"
	"github.com/cwbudde/algo-beatnet/infer"
)

// RateConverter converts device blocks to the analysis rate. Process must
// return round(len(input) × outRate/inRate) samples, or the nominal block's
// output length of silence for empty input.
type RateConverter interface {
	Setup(inRate, outRate float64, blockSize int) error
	Process(input []float64) []float64
}

// ConverterFactory builds a RateConverter.
type ConverterFactory func(inRate, outRate float64, blockSize int) (RateConverter, error)

// EngineFactory builds an inference engine for feature vectors of
// featureLen values.
type EngineFactory func(featureLen int) (infer.Engine, error)

// BackendConfig names the numeric backends to resolve.
type BackendConfig struct {
	// FFT names a spectrum transform backend; empty selects the default.
	FFT string
	// Resampler names a resample quality mode: fast, balanced or best.
	Resampler string
	// Engine builds the classifier. Nil leaves Backends.Engine unset, which
	// is enough for a feature-only Pipeline.
	Engine EngineFactory
}

// Backends holds the resolved strategies for one pipeline.
type Backends struct {
	Transform    spectrum.Transform
	NewConverter ConverterFactory
	Engine       infer.Engine

	fftName     string
	quality     resample.Quality
	engineOwned bool
}

// ResolveBackends resolves every backend named in bc for the sizes derived
// from cfg. If any step fails, everything acquired so far is released.
func ResolveBackends(cfg Config, bc BackendConfig) (b *Backends, err error) {
	d, err := cfg.Derive()
	if err != nil {
		return nil, err
	}

	quality, ok := resample.ParseQuality(bc.Resampler)
	if !ok {
		return nil, fmt.Errorf("beat: unknown resampler %q", bc.Resampler)
	}

	b = &Backends{fftName: bc.FFT, quality: quality}
	if b.fftName == "" {
		b.fftName = spectrum.DefaultBackend
	}

	defer func() {
		if err != nil {
			err = errors.Join(err, b.Close())
			b = nil
		}
	}()

	b.NewConverter = func(inRate, outRate float64, blockSize int) (RateConverter, error) {
		c, err := resample.NewConverter(inRate, outRate, blockSize, resample.WithQuality(quality))
		if err != nil {
			return nil, err
		}

		return c, nil
	}

	if bc.Engine != nil {
		b.Engine, err = bc.Engine(d.FeatureLen)
		if err != nil {
			return b, fmt.Errorf("beat: resolve inference engine: %w", err)
		}

		b.engineOwned = true
	}

	b.Transform, err = spectrum.NewTransform(b.fftName, d.TransformSize)
	if err != nil {
		return b, fmt.Errorf("beat: resolve fft backend: %w", err)
	}

	return b, nil
}

// FFTName returns the resolved transform backend name.
func (b *Backends) FFTName() string { return b.fftName }

// Quality returns the resolved resampler quality.
func (b *Backends) Quality() resample.Quality { return b.quality }

// Close releases the engine if ResolveBackends created it.
func (b *Backends) Close() error {
	if b == nil || b.Engine == nil || !b.engineOwned {
		return nil
	}

	err := b.Engine.Close()
	b.Engine = nil

	return err
}
