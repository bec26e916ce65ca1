// Package config provides the YAML configuration schema and loader for the
// beatnet command.
package config

import "log/slog"

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Level maps l to a slog level. Unknown values map to info.
func (l LogLevel) Level() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// EngineKind selects the classifier behind a tracker.
type EngineKind string

const (
	// EngineNone runs the feature front-end only.
	EngineNone EngineKind = ""
	// EngineONNX runs a BeatNet model through onnxruntime.
	EngineONNX EngineKind = "onnx"
	// EngineMock returns constant scores; useful for dry runs.
	EngineMock EngineKind = "mock"
)

// IsValid reports whether e is a recognised engine kind.
func (e EngineKind) IsValid() bool {
	return e == EngineNone || e == EngineONNX || e == EngineMock
}

// Format selects the record encoding of the CLI output.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// IsValid reports whether f is a recognised output format.
func (f Format) IsValid() bool {
	return f == FormatJSON || f == FormatCSV
}

// Config is the root configuration structure.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	Backends BackendsConfig `yaml:"backends"`
	Model    ModelConfig    `yaml:"model"`
	Device   DeviceConfig   `yaml:"device"`
	Output   OutputConfig   `yaml:"output"`
}

// PipelineConfig selects a preset and optionally overrides its parameters.
// Zero values keep the preset's value.
type PipelineConfig struct {
	// Preset is "github" (default) or "paper".
	Preset string `yaml:"preset"`

	TargetRate   float64 `yaml:"target_rate,omitempty"`
	FrameSeconds float64 `yaml:"frame_seconds,omitempty"`
	HopSeconds   float64 `yaml:"hop_seconds,omitempty"`

	BandsPerOctave int     `yaml:"bands_per_octave,omitempty"`
	FMin           float64 `yaml:"fmin,omitempty"`
	FMax           float64 `yaml:"fmax,omitempty"`
	NormalizeBands *bool   `yaml:"normalize_bands,omitempty"`

	TransformSize  int `yaml:"transform_size,omitempty"`
	FilterBankSize int `yaml:"filter_bank_size,omitempty"`

	LogMul        *float64 `yaml:"log_mul,omitempty"`
	LogAdd        *float64 `yaml:"log_add,omitempty"`
	PositiveDiffs *bool    `yaml:"positive_diffs,omitempty"`

	// Window names the analysis window: hann, hamming, blackman or
	// rectangular.
	Window string `yaml:"window,omitempty"`
}

// BackendsConfig names the numeric backends.
type BackendsConfig struct {
	// FFT names a spectrum transform backend (algofft, gonum, godsp).
	FFT string `yaml:"fft"`

	// Resampler is the resampler quality mode (fast, balanced, best).
	Resampler string `yaml:"resampler"`

	// Engine selects the classifier.
	Engine EngineKind `yaml:"engine"`
}

// ModelConfig locates the ONNX model and runtime.
type ModelConfig struct {
	// Path is the model file. Required when backends.engine is onnx.
	Path string `yaml:"path"`

	// Library is the onnxruntime shared library. Empty uses the system
	// default search.
	Library string `yaml:"library,omitempty"`

	// IntraOpThreads limits onnxruntime's intra-op parallelism; 0 keeps the
	// runtime default.
	IntraOpThreads int `yaml:"intra_op_threads,omitempty"`
}

// DeviceConfig describes how input audio is cut into device blocks.
type DeviceConfig struct {
	// BlockSize is the number of samples per device block.
	BlockSize int `yaml:"block_size"`

	// SampleRate overrides the rate read from the input file when positive.
	SampleRate float64 `yaml:"sample_rate,omitempty"`
}

// OutputConfig holds logging, record output and process settings.
type OutputConfig struct {
	// Format is the record encoding (json or csv).
	Format Format `yaml:"format"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// MetricsAddr, when set, serves Prometheus metrics on this address
	// (e.g. ":9090").
	MetricsAddr string `yaml:"metrics_addr,omitempty"`

	// Workers bounds the number of files processed concurrently; 0 uses
	// GOMAXPROCS.
	Workers int `yaml:"workers,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{Preset: "github"},
		Backends: BackendsConfig{FFT: "algofft", Resampler: "balanced"},
		Device:   DeviceConfig{BlockSize: 512},
		Output:   OutputConfig{Format: FormatJSON, LogLevel: LogInfo},
	}
}
