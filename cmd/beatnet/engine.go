package main

import (
	"errors"

	"github.com/cwbudde/algo-beatnet/beat"
	"github.com/cwbudde/algo-beatnet/infer"
	"github.com/cwbudde/algo-beatnet/infer/mock"
	"github.com/cwbudde/algo-beatnet/infer/onnx"
	"github.com/cwbudde/algo-beatnet/internal/config"
)

var errNoEngine = errors.New("track needs a classifier: set --engine to onnx or mock")

// engineFactory returns the classifier selected by the configuration.
func (a *app) engineFactory() (beat.EngineFactory, error) {
	switch a.cfg.Backends.Engine {
	case config.EngineONNX:
		m := a.cfg.Model

		return func(n int) (infer.Engine, error) {
			e, err := onnx.New(m.Path, n,
				onnx.WithLibraryPath(m.Library),
				onnx.WithIntraOpThreads(m.IntraOpThreads),
			)
			if err != nil {
				return nil, err
			}

			return e, nil
		}, nil
	case config.EngineMock:
		return func(n int) (infer.Engine, error) {
			return &mock.Engine{FeatureLen: n, Fn: fluxScores}, nil
		}, nil
	default:
		return nil, errNoEngine
	}
}

// fluxScores turns the mean positive spectral difference into a beat
// activation. It stands in for a trained model on dry runs.
func fluxScores(features []float64) infer.Scores {
	diff := beat.Features(features).Diff()
	if len(diff) == 0 {
		return infer.Scores{0, 0, 1}
	}

	var flux float64
	for _, v := range diff {
		flux += max(v, 0)
	}

	flux /= float64(len(diff))
	b := float32(flux / (flux + 0.01))

	return infer.Scores{b, 0, 1 - b}
}
