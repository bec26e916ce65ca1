// Package onnx runs the classifier through ONNX Runtime.
//
// The runtime shared library is loaded dynamically on first use. The process
// wide ONNX environment is reference counted across engines and destroyed
// when the last engine is closed.
package onnx

import (
	"errors"
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/cwbudde/algo-beatnet/infer"
)

var (
	// ErrModelNotFound indicates a missing model file.
	ErrModelNotFound = errors.New("onnx: model file not found")
	// ErrNoModelIO indicates a model without inputs or outputs.
	ErrNoModelIO = errors.New("onnx: model declares no inputs or outputs")
	// ErrOutputShape indicates a model output with fewer than three values.
	ErrOutputShape = errors.New("onnx: model output too small")
)

type config struct {
	libraryPath    string
	intraOpThreads int
}

// Option configures an Engine.
type Option func(*config)

// WithLibraryPath sets the onnxruntime shared library to load. Empty keeps
// the library's platform default.
func WithLibraryPath(path string) Option {
	return func(cfg *config) {
		cfg.libraryPath = path
	}
}

// WithIntraOpThreads sets the session's intra-op thread count. Values <= 0
// keep the default of 1.
func WithIntraOpThreads(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.intraOpThreads = n
		}
	}
}

// Engine is an infer.Engine backed by one ONNX Runtime session with
// preallocated input and output tensors.
type Engine struct {
	mu sync.Mutex

	featureLen int
	inputName  string
	outputName string
	outShape   []int64

	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	closed  bool
}

// New loads the model at modelPath for feature vectors of featureLen values.
// Any failure releases everything acquired so far.
func New(modelPath string, featureLen int, opts ...Option) (*Engine, error) {
	if featureLen <= 0 {
		return nil, fmt.Errorf("%w: feature length %d", infer.ErrFeatureLength, featureLen)
	}

	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrModelNotFound, modelPath, err)
	}

	cfg := config{intraOpThreads: 1}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if err := acquireEnvironment(cfg.libraryPath); err != nil {
		return nil, err
	}

	var (
		e   = &Engine{featureLen: featureLen}
		ok  bool
		err error
	)

	defer func() {
		// Cleanup errors are dropped in favor of the construction error.
		if !ok {
			_ = errors.Join(e.release(), releaseEnvironment())
		}
	}()

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("onnx: read model info: %w", err)
	}

	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, ErrNoModelIO
	}

	e.inputName = inputs[0].Name
	e.outputName = outputs[0].Name

	e.outShape, err = resolveOutputShape(outputs[0].Dimensions)
	if err != nil {
		return nil, err
	}

	e.input, err = ort.NewTensor(ort.NewShape(infer.InputShape(featureLen)...), make([]float32, featureLen))
	if err != nil {
		return nil, fmt.Errorf("onnx: create input tensor: %w", err)
	}

	e.output, err = ort.NewEmptyTensor[float32](ort.NewShape(e.outShape...))
	if err != nil {
		return nil, fmt.Errorf("onnx: create output tensor: %w", err)
	}

	sessionOpts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnx: create session options: %w", err)
	}
	defer sessionOpts.Destroy()

	if err := sessionOpts.SetIntraOpNumThreads(cfg.intraOpThreads); err != nil {
		return nil, fmt.Errorf("onnx: set intra-op threads: %w", err)
	}

	e.session, err = ort.NewAdvancedSession(modelPath,
		[]string{e.inputName}, []string{e.outputName},
		[]ort.Value{e.input}, []ort.Value{e.output}, sessionOpts)
	if err != nil {
		return nil, fmt.Errorf("onnx: create session: %w", err)
	}

	ok = true

	return e, nil
}

// Infer implements infer.Engine.
func (e *Engine) Infer(features []float64) (infer.Scores, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return infer.Scores{}, infer.ErrClosed
	}

	if err := infer.CheckFeatures(features, e.featureLen); err != nil {
		return infer.Scores{}, err
	}

	in := e.input.GetData()
	for i, v := range features {
		in[i] = float32(v)
	}

	if err := e.session.Run(); err != nil {
		return infer.Scores{}, fmt.Errorf("onnx: run: %w", err)
	}

	var s infer.Scores
	copy(s[:], e.output.GetData())

	return s, nil
}

// Close releases the session, its tensors and this engine's hold on the
// environment. It is idempotent.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}

	e.closed = true

	return errors.Join(e.release(), releaseEnvironment())
}

// InputName returns the model's first input name.
func (e *Engine) InputName() string { return e.inputName }

// OutputName returns the model's first output name.
func (e *Engine) OutputName() string { return e.outputName }

// OutputShape returns the resolved output tensor shape.
func (e *Engine) OutputShape() []int64 { return append([]int64(nil), e.outShape...) }

func (e *Engine) release() error {
	var errs []error

	if e.session != nil {
		errs = append(errs, e.session.Destroy())
		e.session = nil
	}

	if e.output != nil {
		errs = append(errs, e.output.Destroy())
		e.output = nil
	}

	if e.input != nil {
		errs = append(errs, e.input.Destroy())
		e.input = nil
	}

	return errors.Join(errs...)
}

// resolveOutputShape replaces dynamic (negative) dimensions with 1 and falls
// back to [1, 3, 1] for an undeclared shape.
func resolveOutputShape(dims []int64) ([]int64, error) {
	if len(dims) == 0 {
		return infer.OutputShape(), nil
	}

	shape := make([]int64, len(dims))
	total := int64(1)

	for i, d := range dims {
		if d <= 0 {
			d = 1
		}

		shape[i] = d
		total *= d
	}

	if total < infer.NumClasses {
		return nil, fmt.Errorf("%w: shape %v", ErrOutputShape, dims)
	}

	return shape, nil
}

var env struct {
	mu   sync.Mutex
	refs int
}

func acquireEnvironment(libraryPath string) error {
	env.mu.Lock()
	defer env.mu.Unlock()

	if env.refs == 0 && !ort.IsInitialized() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}

		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("onnx: initialize runtime: %w", err)
		}
	}

	env.refs++

	return nil
}

// destroyEnvironment tears down the runtime once the last engine is closed.
var destroyEnvironment = func() error {
	if !ort.IsInitialized() {
		return nil
	}

	return ort.DestroyEnvironment()
}

func releaseEnvironment() error {
	env.mu.Lock()
	defer env.mu.Unlock()

	if env.refs == 0 {
		return nil
	}

	env.refs--
	if env.refs > 0 {
		return nil
	}

	if err := destroyEnvironment(); err != nil {
		return fmt.Errorf("onnx: destroy runtime: %w", err)
	}

	return nil
}

var _ infer.Engine = (*Engine)(nil)
