package beat

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/algo-beatnet/infer"
)

// ErrNoEngine indicates a Tracker without an inference engine factory.
var ErrNoEngine = errors.New("beat: no inference engine configured")

// Tracker runs a Pipeline and feeds each feature vector to an inference
// engine.
type Tracker struct {
	p        *Pipeline
	backends *Backends
	obs      Observer
	log      *slog.Logger
}

// NewTracker resolves backends from bc and builds the pipeline. bc.Engine is
// required.
func NewTracker(cfg Config, bc BackendConfig, opts ...Option) (*Tracker, error) {
	if bc.Engine == nil {
		return nil, ErrNoEngine
	}

	b, err := ResolveBackends(cfg, bc)
	if err != nil {
		return nil, err
	}

	p, err := NewPipeline(cfg, b, opts...)
	if err != nil {
		return nil, errors.Join(err, b.Close())
	}

	o := applyOptions(opts)

	return &Tracker{p: p, backends: b, obs: o.observer, log: o.logger}, nil
}

// Setup reconfigures the device stream. See Pipeline.Setup.
func (t *Tracker) Setup(inputRate float64, blockSize int) error {
	return t.p.Setup(inputRate, blockSize)
}

// Process consumes one device block. ok reports whether a frame was ready
// and scored. A failed inference returns the error for this block only; the
// next call proceeds normally. After Close every ready frame reports
// infer.ErrClosed.
func (t *Tracker) Process(block []float32) (scores infer.Scores, ok bool, err error) {
	feats, ready := t.p.Process(block)
	if !ready {
		return infer.Scores{}, false, nil
	}

	eng := t.backends.Engine
	if eng == nil {
		return infer.Scores{}, false, fmt.Errorf("beat: inference: %w", infer.ErrClosed)
	}

	var start time.Time
	if t.obs != nil {
		start = time.Now()
	}

	scores, err = eng.Infer(feats)

	if t.obs != nil {
		t.obs.ObserveInference(time.Since(start), err)
	}

	if err != nil {
		return infer.Scores{}, false, fmt.Errorf("beat: inference: %w", err)
	}

	return scores, true, nil
}

// Reset clears the pipeline state.
func (t *Tracker) Reset() { t.p.Reset() }

// Pipeline returns the underlying pipeline.
func (t *Tracker) Pipeline() *Pipeline { return t.p }

// Close releases the inference engine. It is safe to call more than once.
func (t *Tracker) Close() error {
	if err := t.backends.Close(); err != nil {
		return fmt.Errorf("beat: close engine: %w", err)
	}

	t.log.Debug("beat: tracker closed")

	return nil
}
