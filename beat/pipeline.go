package beat

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cwbudde/algo-beatnet/dsp/core"
	"github.com/cwbudde/algo-beatnet/dsp/filter/bank"
	"github.com/cwbudde/algo-beatnet/dsp/frame"
	"github.com/cwbudde/algo-beatnet/dsp/logspec"
	"github.com/cwbudde/algo-beatnet/dsp/spectrum"
)

var (
	// ErrInvalidRate indicates a non-positive device sample rate.
	ErrInvalidRate = errors.New("beat: input sample rate must be > 0")
	// ErrInvalidBlockSize indicates a pipeline constructed for a device with
	// a non-positive block size.
	ErrInvalidBlockSize = errors.New("beat: device block size must be > 0")
	// ErrNoBackends indicates a Pipeline built without resolved backends.
	ErrNoBackends = errors.New("beat: backends not resolved")
)

// Features is one feature vector: NumBands log band energies followed by
// NumBands differences.
type Features []float64

// LogBands returns the first half of f.
func (f Features) LogBands() []float64 { return f[:len(f)/2] }

// Diff returns the second half of f.
func (f Features) Diff() []float64 { return f[len(f)/2:] }

// Pipeline converts device blocks into feature vectors.
type Pipeline struct {
	cfg Config
	d   Derived
	log *slog.Logger
	obs Observer

	newConverter ConverterFactory
	conv         RateConverter
	inputRate    float64
	blockSize    int

	framer   *frame.Framer
	analyzer *spectrum.Analyzer
	bank     *bank.Triangular
	builder  *logspec.Builder

	in    []float64
	bands []float64
}

// NewPipeline builds a pipeline for cfg on the resolved backends b. The
// transform in b is stateful and must not be shared with another pipeline.
// The pipeline starts configured for the device given by WithDevice.
func NewPipeline(cfg Config, b *Backends, opts ...Option) (*Pipeline, error) {
	d, err := cfg.Derive()
	if err != nil {
		return nil, err
	}

	if b == nil || b.Transform == nil || b.NewConverter == nil {
		return nil, ErrNoBackends
	}

	if b.Transform.Size() != d.TransformSize {
		return nil, fmt.Errorf("beat: transform size %d, config needs %d", b.Transform.Size(), d.TransformSize)
	}

	framer, err := frame.New(d.FrameLength)
	if err != nil {
		return nil, fmt.Errorf("beat: %w", err)
	}

	analyzer, err := spectrum.NewAnalyzer(d.FrameLength, d.FFTSize, b.Transform, spectrum.WithWindow(cfg.Window))
	if err != nil {
		return nil, fmt.Errorf("beat: %w", err)
	}

	fb, err := bank.NewTriangular(cfg.BandsPerOctave, d.FilterBankSize, cfg.TargetRate, cfg.FMin, cfg.FMax,
		bank.WithNormalize(cfg.NormalizeBands))
	if err != nil {
		return nil, fmt.Errorf("beat: %w", err)
	}

	builder, err := logspec.NewBuilder(fb.NumBands(),
		logspec.WithMul(cfg.LogMul), logspec.WithAdd(cfg.LogAdd), logspec.WithPositiveDiffs(cfg.PositiveDiffs))
	if err != nil {
		return nil, fmt.Errorf("beat: %w", err)
	}

	o := applyOptions(opts)

	dev := core.ApplyProcessorOptions(o.device...)
	if !dev.Valid() {
		if dev.BlockSize <= 0 {
			return nil, fmt.Errorf("%w: %d", ErrInvalidBlockSize, dev.BlockSize)
		}

		return nil, fmt.Errorf("%w: %g", ErrInvalidRate, dev.SampleRate)
	}

	p := &Pipeline{
		cfg:          cfg,
		d:            d,
		log:          o.logger,
		obs:          o.observer,
		newConverter: b.NewConverter,
		framer:       framer,
		analyzer:     analyzer,
		bank:         fb,
		builder:      builder,
		bands:        make([]float64, fb.NumBands()),
	}

	if err := p.Setup(dev.SampleRate, dev.BlockSize); err != nil {
		return nil, err
	}

	p.log.Info("beat: pipeline ready",
		"target_rate", cfg.TargetRate,
		"frame", d.FrameLength,
		"hop", d.HopSize,
		"bins", d.FFTSize,
		"transform", d.TransformSize,
		"bands", fb.NumBands(),
		"features", d.FeatureLen,
		"fft", b.FFTName(),
	)

	return p, nil
}

// Setup configures the device stream and clears the frame history and the
// difference state. A non-positive blockSize is ignored and keeps the current
// configuration. On error the previous configuration stays active.
func (p *Pipeline) Setup(inputRate float64, blockSize int) error {
	if blockSize <= 0 {
		p.log.Debug("beat: ignoring setup with non-positive block size",
			"input_rate", inputRate, "block_size", blockSize)

		return nil
	}

	if !(inputRate > 0) || math.IsInf(inputRate, 0) {
		return fmt.Errorf("%w: %g", ErrInvalidRate, inputRate)
	}

	if p.conv == nil {
		conv, err := p.newConverter(inputRate, p.cfg.TargetRate, blockSize)
		if err != nil {
			return fmt.Errorf("beat: %w", err)
		}

		p.conv = conv
	} else if err := p.conv.Setup(inputRate, p.cfg.TargetRate, blockSize); err != nil {
		return fmt.Errorf("beat: %w", err)
	}

	p.inputRate = inputRate
	p.blockSize = blockSize

	if cap(p.in) < blockSize {
		p.in = make([]float64, 0, blockSize)
	}

	p.framer.Reset()
	p.builder.Reset()

	p.log.Debug("beat: device configured",
		"input_rate", inputRate,
		"block_size", blockSize,
		"resampled_block", p.ResampledBlockLen(),
	)

	return nil
}

// Process consumes one device block. Once the frame history is warm it
// returns a feature vector of Derived().FeatureLen values and true; before
// that it returns nil, false. The vector is owned by the Pipeline and valid
// until the next call. An empty block is treated as one block of silence.
func (p *Pipeline) Process(block []float32) (Features, bool) {
	var start time.Time
	if p.obs != nil {
		start = time.Now()
	}

	p.in = core.Widen(p.in, block)
	fr, ok := p.framer.Process(p.conv.Process(p.in))

	var feats Features
	if ok {
		mag := p.analyzer.Compute(fr)
		p.bands = p.bank.Apply(p.bands, mag)
		feats = p.builder.Build(p.bands)
	}

	if p.obs != nil {
		p.obs.ObserveBlock(time.Since(start), ok)
	}

	return feats, ok
}

// Reset clears the frame history and the difference state.
func (p *Pipeline) Reset() {
	p.framer.Reset()
	p.builder.Reset()
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// Derived returns the derived sizes.
func (p *Pipeline) Derived() Derived { return p.d }

// FilterBank returns the immutable filter bank.
func (p *Pipeline) FilterBank() *bank.Triangular { return p.bank }

// InputRate returns the configured device sample rate.
func (p *Pipeline) InputRate() float64 { return p.inputRate }

// BlockSize returns the configured device block size.
func (p *Pipeline) BlockSize() int { return p.blockSize }

// ResampledBlockLen returns the number of analysis-rate samples produced by a
// nominal device block.
func (p *Pipeline) ResampledBlockLen() int {
	return core.RoundHalfUp(float64(p.blockSize) * p.cfg.TargetRate / p.inputRate)
}

// Written returns the number of analysis-rate samples buffered since the
// last Setup or Reset.
func (p *Pipeline) Written() uint64 { return p.framer.Written() }
