package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/cwbudde/algo-beatnet/internal/config"
)

// envPrefix prefixes every environment override, e.g. BEATNET_BLOCK_SIZE.
const envPrefix = "BEATNET"

// app carries the state shared by all subcommands of one root command.
type app struct {
	v      *viper.Viper
	out    io.Writer
	errOut io.Writer

	configFile string
	cfg        *config.Config
	log        *slog.Logger
}

// overrides maps flag names to the config fields they replace.
var overrides = map[string]func(c *config.Config, v *viper.Viper, key string){
	"preset":    func(c *config.Config, v *viper.Viper, k string) { c.Pipeline.Preset = v.GetString(k) },
	"window":    func(c *config.Config, v *viper.Viper, k string) { c.Pipeline.Window = v.GetString(k) },
	"fft":       func(c *config.Config, v *viper.Viper, k string) { c.Backends.FFT = v.GetString(k) },
	"resampler": func(c *config.Config, v *viper.Viper, k string) { c.Backends.Resampler = v.GetString(k) },
	"engine": func(c *config.Config, v *viper.Viper, k string) {
		c.Backends.Engine = config.EngineKind(v.GetString(k))
	},
	"model":        func(c *config.Config, v *viper.Viper, k string) { c.Model.Path = v.GetString(k) },
	"ort-library":  func(c *config.Config, v *viper.Viper, k string) { c.Model.Library = v.GetString(k) },
	"threads":      func(c *config.Config, v *viper.Viper, k string) { c.Model.IntraOpThreads = v.GetInt(k) },
	"block-size":   func(c *config.Config, v *viper.Viper, k string) { c.Device.BlockSize = v.GetInt(k) },
	"sample-rate":  func(c *config.Config, v *viper.Viper, k string) { c.Device.SampleRate = v.GetFloat64(k) },
	"format":       func(c *config.Config, v *viper.Viper, k string) { c.Output.Format = config.Format(v.GetString(k)) },
	"log-level":    func(c *config.Config, v *viper.Viper, k string) { c.Output.LogLevel = config.LogLevel(v.GetString(k)) },
	"metrics-addr": func(c *config.Config, v *viper.Viper, k string) { c.Output.MetricsAddr = v.GetString(k) },
	"workers":      func(c *config.Config, v *viper.Viper, k string) { c.Output.Workers = v.GetInt(k) },
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{v: viper.New(), out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "beatnet",
		Short: "Streaming beat/downbeat feature front-end",
		Long: `beatnet cuts WAV files into device-sized blocks and runs them through the
real-time front-end of a BeatNet-style tracker: resampling to 22.05 kHz,
framing, Hann-windowed magnitude spectra, a logarithmic triangular filter bank
and log-spectral differences.

Configuration is read from --config (YAML), then overridden by BEATNET_*
environment variables and finally by flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.initialize(cmd)
		},
	}

	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "YAML config file")
	pf.String("preset", "", "timing preset (github, paper)")
	pf.String("window", "", "analysis window (hann, hamming, blackman, rectangular)")
	pf.String("fft", "", "FFT backend (algofft, gonum, godsp)")
	pf.String("resampler", "", "resampler quality (fast, balanced, best)")
	pf.String("engine", "", "classifier (onnx, mock)")
	pf.String("model", "", "ONNX model path")
	pf.String("ort-library", "", "onnxruntime shared library path")
	pf.Int("threads", 0, "onnxruntime intra-op threads")
	pf.Int("block-size", 0, "device block size in samples")
	pf.Float64("sample-rate", 0, "override the input sample rate")
	pf.StringP("format", "o", "", "output format (json, csv)")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("metrics-addr", "", "serve Prometheus metrics on this address")
	pf.Int("workers", 0, "files processed concurrently (0 = GOMAXPROCS)")

	root.AddCommand(
		newTrackCmd(a),
		newFeaturesCmd(a),
		newInfoCmd(a),
		newConfigCmd(a),
	)

	return root
}

// initialize loads the config file and applies environment and flag
// overrides on top of it.
func (a *app) initialize(cmd *cobra.Command) error {
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	a.v.AutomaticEnv()

	if err := bindFlags(cmd, a.v); err != nil {
		return err
	}

	cfg := config.Default()
	if a.configFile != "" {
		var err error
		if cfg, err = config.Load(a.configFile); err != nil {
			return err
		}
	}

	for name, apply := range overrides {
		if a.v.IsSet(name) {
			apply(cfg, a.v, name)
		}
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	a.cfg = cfg
	a.log = slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: cfg.Output.LogLevel.Level()}))

	a.log.Debug("configuration loaded", "file", a.configFile, "engine", cfg.Backends.Engine, "fft", cfg.Backends.FFT)

	return nil
}

// bindFlags binds each cobra flag to its viper key and environment variable.
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	var lastErr error

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if err := v.BindPFlag(f.Name, f); err != nil {
			lastErr = err
		}

		envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
		if err := v.BindEnv(f.Name, envPrefix+"_"+envVarSuffix); err != nil {
			lastErr = err
		}
	})

	return lastErr
}
