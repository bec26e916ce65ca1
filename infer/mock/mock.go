// Package mock provides a scripted infer.Engine for tests and dry runs.
package mock

import (
	"errors"
	"sync"

	"github.com/cwbudde/algo-beatnet/infer"
)

// ErrScripted is returned for calls listed in Engine.FailOn.
var ErrScripted = errors.New("mock: scripted inference failure")

// Engine returns scores computed by Fn (or a constant when Fn is nil) and
// records every call.
type Engine struct {
	// FeatureLen, when positive, is enforced on every call.
	FeatureLen int
	// Fn maps a feature vector to scores.
	Fn func(features []float64) infer.Scores
	// Constant is returned when Fn is nil.
	Constant infer.Scores
	// FailOn lists 1-based call numbers that return ErrScripted.
	FailOn map[int]bool

	mu     sync.Mutex
	calls  int
	last   []float64
	closed bool
}

// New returns an engine enforcing featureLen and returning constant scores.
func New(featureLen int, constant infer.Scores) *Engine {
	return &Engine{FeatureLen: featureLen, Constant: constant}
}

// Infer implements infer.Engine.
func (e *Engine) Infer(features []float64) (infer.Scores, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return infer.Scores{}, infer.ErrClosed
	}

	if e.FeatureLen > 0 {
		if err := infer.CheckFeatures(features, e.FeatureLen); err != nil {
			return infer.Scores{}, err
		}
	}

	e.calls++
	e.last = append(e.last[:0], features...)

	if e.FailOn[e.calls] {
		return infer.Scores{}, ErrScripted
	}

	if e.Fn != nil {
		return e.Fn(features), nil
	}

	return e.Constant, nil
}

// Close implements infer.Engine. It is idempotent.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closed = true

	return nil
}

// Calls returns the number of accepted Infer calls.
func (e *Engine) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.calls
}

// Last returns a copy of the most recent feature vector.
func (e *Engine) Last() []float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]float64(nil), e.last...)
}

// Closed reports whether Close was called.
func (e *Engine) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.closed
}

var _ infer.Engine = (*Engine)(nil)
