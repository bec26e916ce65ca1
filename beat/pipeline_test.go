package beat

import (
	"errors"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/cwbudde/algo-beatnet/dsp/core"
	"github.com/cwbudde/algo-beatnet/dsp/spectrum"
	"github.com/cwbudde/algo-beatnet/internal/testutil"
)

var quiet = WithLogger(slog.New(slog.DiscardHandler))

func newTestPipeline(t *testing.T, bc BackendConfig, opts ...Option) *Pipeline {
	t.Helper()

	b, err := ResolveBackends(DefaultConfig(), bc)
	if err != nil {
		t.Fatalf("ResolveBackends() error = %v", err)
	}

	p, err := NewPipeline(DefaultConfig(), b, append([]Option{quiet}, opts...)...)
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}

	return p
}

func device(rate float64, block int) Option {
	return WithDevice(core.WithSampleRate(rate), core.WithBlockSize(block))
}

func TestPipelineWarmUp96k(t *testing.T) {
	p := newTestPipeline(t, BackendConfig{}, device(96000, 256))

	if got := p.ResampledBlockLen(); got != 59 {
		t.Fatalf("ResampledBlockLen() = %d, want 59", got)
	}

	blocks := testutil.NoiseBlocks(7, 30, 256)
	first := -1
	ready := 0

	for i, block := range blocks {
		feats, ok := p.Process(block)
		if !ok {
			if first >= 0 {
				t.Fatalf("block %d not ready after first frame at %d", i, first)
			}

			if feats != nil {
				t.Fatalf("block %d: features returned before warm-up", i)
			}

			continue
		}

		ready++

		if len(feats) != 272 {
			t.Fatalf("block %d: %d features, want 272", i, len(feats))
		}

		testutil.RequireFinite(t, feats)

		if first < 0 {
			first = i
			testutil.RequireAll(t, feats.Diff(), 0)

			continue
		}

		for j, v := range feats.Diff() {
			if v < 0 {
				t.Fatalf("block %d: diff[%d] = %v < 0", i, j, v)
			}
		}
	}

	if first != 23 {
		t.Fatalf("first ready block = %d, want 23", first)
	}

	if ready != 7 {
		t.Fatalf("ready blocks = %d, want 7", ready)
	}
}

func TestPipelineLogBandsOfNoise(t *testing.T) {
	p := newTestPipeline(t, BackendConfig{}, device(22050, 1411))

	feats, ok := p.Process(testutil.NoiseBlocks(3, 1, 1411)[0])
	if !ok {
		t.Fatal("full-frame block not ready")
	}

	var empty, positive int

	for _, v := range feats.LogBands() {
		switch {
		case v == 0:
			empty++
		case v > 0:
			positive++
		default:
			t.Fatalf("negative log band %v", v)
		}
	}

	if positive < 90 || positive+empty != 136 {
		t.Fatalf("log bands: %d positive, %d empty", positive, empty)
	}
}

func TestPipelineSetupSequence(t *testing.T) {
	p := newTestPipeline(t, BackendConfig{})

	if p.InputRate() != 44100 || p.BlockSize() != 512 {
		t.Fatalf("initial device = %v/%d, want 44100/512", p.InputRate(), p.BlockSize())
	}

	if err := p.Setup(0, 0); err != nil {
		t.Fatalf("Setup(0, 0) error = %v", err)
	}

	if p.InputRate() != 44100 || p.BlockSize() != 512 {
		t.Fatal("Setup with zero block size changed the device")
	}

	for _, rate := range []float64{-1, 0, math.NaN(), math.Inf(1)} {
		if err := p.Setup(rate, 256); !errors.Is(err, ErrInvalidRate) {
			t.Fatalf("Setup(%v, 256) error = %v, want ErrInvalidRate", rate, err)
		}
	}

	if p.InputRate() != 44100 || p.BlockSize() != 512 {
		t.Fatal("failed Setup changed the device")
	}

	if err := p.Setup(1, 1); err != nil {
		t.Fatalf("Setup(1, 1) error = %v", err)
	}

	if got := p.ResampledBlockLen(); got != 22050 {
		t.Fatalf("ResampledBlockLen() = %d, want 22050", got)
	}

	feats, ok := p.Process([]float32{0.5})
	if !ok || len(feats) != 272 {
		t.Fatalf("Process() after Setup(1, 1) = %d features, ready %v", len(feats), ok)
	}

	testutil.RequireFinite(t, feats)

	if err := p.Setup(48000, 480); err != nil {
		t.Fatalf("Setup(48000, 480) error = %v", err)
	}

	if p.ResampledBlockLen() != 221 {
		t.Fatalf("ResampledBlockLen() = %d, want 221", p.ResampledBlockLen())
	}
}

func TestPipelineSetupResetsState(t *testing.T) {
	p := newTestPipeline(t, BackendConfig{}, device(44100, 512))
	blocks := testutil.NoiseBlocks(11, 40, 512)

	for _, block := range blocks[:10] {
		p.Process(block)
	}

	if err := p.Setup(44100, 512); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	if p.Written() != 0 {
		t.Fatalf("Written() = %d after Setup, want 0", p.Written())
	}

	first := -1

	for i, block := range blocks[10:] {
		feats, ok := p.Process(block)
		if ok {
			first = i
			testutil.RequireAll(t, feats.Diff(), 0)

			break
		}
	}

	// 256 resampled samples per block; 6 × 256 >= 1411.
	if first != 5 {
		t.Fatalf("first ready block after Setup = %d, want 5", first)
	}
}

func TestPipelineReset(t *testing.T) {
	p := newTestPipeline(t, BackendConfig{}, device(22050, 1411))
	block := testutil.NoiseBlocks(5, 1, 1411)[0]

	p.Process(block)
	p.Reset()

	if p.Written() != 0 {
		t.Fatalf("Written() = %d after Reset", p.Written())
	}

	feats, ok := p.Process(block)
	if !ok {
		t.Fatal("not ready after a full frame")
	}

	testutil.RequireAll(t, feats.Diff(), 0)
}

func TestPipelineEmptyBlocksAreSilence(t *testing.T) {
	p := newTestPipeline(t, BackendConfig{})

	var (
		feats Features
		ok    bool
		n     int
	)

	for !ok && n < 10 {
		feats, ok = p.Process(nil)
		n++
	}

	if !ok || n != 6 {
		t.Fatalf("ready after %d empty blocks (ok %v), want 6", n, ok)
	}

	testutil.RequireAll(t, feats, 0)
}

func TestPipelineBackendsAgree(t *testing.T) {
	blocks := testutil.NoiseBlocks(13, 12, 512)

	reference := collectFeatures(t, newTestPipeline(t, BackendConfig{}), blocks)
	if len(reference) == 0 {
		t.Fatal("reference pipeline produced no frames")
	}

	for _, name := range spectrum.Backends() {
		got := collectFeatures(t, newTestPipeline(t, BackendConfig{FFT: name}), blocks)
		if len(got) != len(reference) {
			t.Fatalf("%s: %d frames, want %d", name, len(got), len(reference))
		}

		for i := range got {
			testutil.RequireSliceNearlyEqual(t, got[i], reference[i], 1e-8)
		}
	}
}

func collectFeatures(t *testing.T, p *Pipeline, blocks [][]float32) [][]float64 {
	t.Helper()

	var out [][]float64

	for _, block := range blocks {
		if feats, ok := p.Process(block); ok {
			out = append(out, append([]float64(nil), feats...))
		}
	}

	return out
}

func TestPipelineSteadyStateDoesNotAllocate(t *testing.T) {
	p := newTestPipeline(t, BackendConfig{}, device(96000, 256))
	blocks := testutil.NoiseBlocks(17, 30, 256)

	for _, block := range blocks {
		p.Process(block)
	}

	block := blocks[0]

	allocs := testing.AllocsPerRun(50, func() {
		p.Process(block)
	})
	if allocs != 0 {
		t.Fatalf("allocs = %v, want 0", allocs)
	}
}

func TestNewPipelineErrors(t *testing.T) {
	if _, err := NewPipeline(DefaultConfig(), nil, quiet); !errors.Is(err, ErrNoBackends) {
		t.Fatalf("nil backends error = %v", err)
	}

	if _, err := NewPipeline(Config{}, &Backends{}, quiet); err == nil {
		t.Fatal("invalid config accepted")
	}

	paper, _ := PresetConfig(PresetPaper)

	b, err := ResolveBackends(DefaultConfig(), BackendConfig{})
	if err != nil {
		t.Fatalf("ResolveBackends() error = %v", err)
	}

	if _, err := NewPipeline(paper, b, quiet); err == nil {
		t.Fatal("transform size mismatch accepted")
	}

	for _, rate := range []float64{-1, 0, math.NaN(), math.Inf(1)} {
		if _, err := NewPipeline(DefaultConfig(), b, quiet, device(rate, 256)); !errors.Is(err, ErrInvalidRate) {
			t.Fatalf("device rate %v: error = %v, want ErrInvalidRate", rate, err)
		}
	}

	if _, err := NewPipeline(DefaultConfig(), b, quiet, device(44100, 0)); !errors.Is(err, ErrInvalidBlockSize) {
		t.Fatalf("zero device block size: error = %v, want ErrInvalidBlockSize", err)
	}
}

func TestPipelinePaperPreset(t *testing.T) {
	cfg, _ := PresetConfig(PresetPaper)

	b, err := ResolveBackends(cfg, BackendConfig{})
	if err != nil {
		t.Fatalf("ResolveBackends() error = %v", err)
	}

	p, err := NewPipeline(cfg, b, quiet, device(22050, 1025))
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}

	if p.FilterBank().Cols() != 514 {
		t.Fatalf("filter bank cols = %d, want 514", p.FilterBank().Cols())
	}

	blocks := testutil.NoiseBlocks(19, 3, 1025)

	if _, ok := p.Process(blocks[0]); ok {
		t.Fatal("ready after half a frame")
	}

	feats, ok := p.Process(blocks[1])
	if !ok || len(feats) != 272 {
		t.Fatalf("second block: ready %v, %d features", ok, len(feats))
	}
}

type recordingObserver struct {
	blocks, ready   int
	inferences, bad int
}

func (r *recordingObserver) ObserveBlock(d time.Duration, ready bool) {
	r.blocks++
	if ready {
		r.ready++
	}
}

func (r *recordingObserver) ObserveInference(d time.Duration, err error) {
	r.inferences++
	if err != nil {
		r.bad++
	}
}

func TestPipelineObserver(t *testing.T) {
	obs := &recordingObserver{}
	p := newTestPipeline(t, BackendConfig{}, device(96000, 256), WithObserver(obs))

	for _, block := range testutil.NoiseBlocks(23, 30, 256) {
		p.Process(block)
	}

	if obs.blocks != 30 || obs.ready != 7 {
		t.Fatalf("observer saw %d blocks, %d ready; want 30, 7", obs.blocks, obs.ready)
	}
}
