package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-beatnet/beat"
	"github.com/cwbudde/algo-beatnet/dsp/resample"
	"github.com/cwbudde/algo-beatnet/dsp/spectrum"
	"github.com/cwbudde/algo-beatnet/dsp/window"
)

// Load reads the YAML configuration file at path and returns a validated
// [Config]. Fields missing from the file keep their [Default] values.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r on top of [Default] and
// validates the result. Unknown keys are rejected.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Pipeline
	if _, err := cfg.BeatConfig(); err != nil {
		errs = append(errs, fmt.Errorf("pipeline: %w", err))
	}

	// Backends
	if cfg.Backends.FFT != "" && !slices.Contains(spectrum.Backends(), cfg.Backends.FFT) {
		errs = append(errs, fmt.Errorf("backends.fft %q is invalid; valid values: %v", cfg.Backends.FFT, spectrum.Backends()))
	}
	if _, ok := resample.ParseQuality(cfg.Backends.Resampler); !ok {
		errs = append(errs, fmt.Errorf("backends.resampler %q is invalid; valid values: fast, balanced, best", cfg.Backends.Resampler))
	}
	if !cfg.Backends.Engine.IsValid() {
		errs = append(errs, fmt.Errorf("backends.engine %q is invalid; valid values: onnx, mock or empty", cfg.Backends.Engine))
	}
	if cfg.Backends.Engine == EngineONNX && cfg.Model.Path == "" {
		errs = append(errs, errors.New("model.path is required when backends.engine is onnx"))
	}
	if cfg.Model.IntraOpThreads < 0 {
		errs = append(errs, fmt.Errorf("model.intra_op_threads %d must be >= 0", cfg.Model.IntraOpThreads))
	}

	// Device
	if cfg.Device.BlockSize <= 0 {
		errs = append(errs, fmt.Errorf("device.block_size %d must be > 0", cfg.Device.BlockSize))
	}
	if cfg.Device.SampleRate < 0 {
		errs = append(errs, fmt.Errorf("device.sample_rate %g must be >= 0", cfg.Device.SampleRate))
	}

	// Output
	if !cfg.Output.Format.IsValid() {
		errs = append(errs, fmt.Errorf("output.format %q is invalid; valid values: json, csv", cfg.Output.Format))
	}
	if cfg.Output.LogLevel != "" && !cfg.Output.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("output.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Output.LogLevel))
	}
	if cfg.Output.Workers < 0 {
		errs = append(errs, fmt.Errorf("output.workers %d must be >= 0", cfg.Output.Workers))
	}

	return errors.Join(errs...)
}

// BeatConfig resolves the pipeline section into a validated [beat.Config].
func (c *Config) BeatConfig() (beat.Config, error) {
	p := c.Pipeline

	cfg, err := beat.PresetConfig(beat.Preset(p.Preset))
	if err != nil {
		return beat.Config{}, err
	}

	setIf(&cfg.TargetRate, p.TargetRate)
	setIf(&cfg.FrameSeconds, p.FrameSeconds)
	setIf(&cfg.HopSeconds, p.HopSeconds)
	setIf(&cfg.BandsPerOctave, p.BandsPerOctave)
	setIf(&cfg.FMin, p.FMin)
	setIf(&cfg.FMax, p.FMax)
	setIf(&cfg.TransformSize, p.TransformSize)
	setIf(&cfg.FilterBankSize, p.FilterBankSize)

	if p.NormalizeBands != nil {
		cfg.NormalizeBands = *p.NormalizeBands
	}
	if p.LogMul != nil {
		cfg.LogMul = *p.LogMul
	}
	if p.LogAdd != nil {
		cfg.LogAdd = *p.LogAdd
	}
	if p.PositiveDiffs != nil {
		cfg.PositiveDiffs = *p.PositiveDiffs
	}

	if p.Window != "" {
		cfg.Window, err = window.ParseType(p.Window)
		if err != nil {
			return beat.Config{}, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return beat.Config{}, err
	}
	return cfg, nil
}

// BackendConfig returns the backend names without an engine factory.
func (c *Config) BackendConfig() beat.BackendConfig {
	return beat.BackendConfig{FFT: c.Backends.FFT, Resampler: c.Backends.Resampler}
}

// Effective returns a copy of c with every pipeline field spelled out.
func (c *Config) Effective() (*Config, error) {
	bc, err := c.BeatConfig()
	if err != nil {
		return nil, err
	}

	out := *c
	out.Pipeline = PipelineConfig{
		Preset:         c.Pipeline.Preset,
		TargetRate:     bc.TargetRate,
		FrameSeconds:   bc.FrameSeconds,
		HopSeconds:     bc.HopSeconds,
		BandsPerOctave: bc.BandsPerOctave,
		FMin:           bc.FMin,
		FMax:           bc.FMax,
		NormalizeBands: &bc.NormalizeBands,
		TransformSize:  bc.TransformSize,
		FilterBankSize: bc.FilterBankSize,
		LogMul:         &bc.LogMul,
		LogAdd:         &bc.LogAdd,
		PositiveDiffs:  &bc.PositiveDiffs,
		Window:         bc.Window.String(),
	}
	if out.Pipeline.Preset == "" {
		out.Pipeline.Preset = string(beat.PresetGithub)
	}
	return &out, nil
}

// Marshal encodes c as YAML.
func (c *Config) Marshal(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("config: encode yaml: %w", err)
	}
	return enc.Close()
}

func setIf[T int | float64](dst *T, v T) {
	if v != 0 {
		*dst = v
	}
}
