package beat

import (
	"log/slog"
	"time"

	"github.com/cwbudde/algo-beatnet/dsp/core"
)

// Observer receives timing of the real-time path. Implementations must not
// block.
type Observer interface {
	ObserveBlock(d time.Duration, ready bool)
	ObserveInference(d time.Duration, err error)
}

type options struct {
	logger   *slog.Logger
	observer Observer
	device   []core.ProcessorOption
}

// Option configures a Pipeline or Tracker.
type Option func(*options)

// WithLogger sets the logger used during construction and Setup. The
// per-block path never logs.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver installs a timing hook for Process calls.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// WithDevice sets the initial device stream used before the first Setup
// call (default 44.1 kHz, 512-sample blocks).
func WithDevice(opts ...core.ProcessorOption) Option {
	return func(o *options) {
		o.device = append(o.device, opts...)
	}
}

func applyOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	return o
}
