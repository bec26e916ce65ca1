package resample

import (
	"errors"
	"math"

	"github.com/cwbudde/algo-beatnet/dsp/core"
)

var (
	// ErrInvalidRate indicates an invalid input/output sample rate.
	ErrInvalidRate = errors.New("resample: invalid sample rate")
	// ErrInvalidBlockSize indicates a non-positive nominal block size.
	ErrInvalidBlockSize = errors.New("resample: block size must be > 0")
)

// PullFunc supplies input samples on demand. It fills a prefix of buf and
// returns the number of samples written; 0 signals that the source is drained.
type PullFunc func(buf []float64) int

// sliceSource serves a block to Read in pull mode.
type sliceSource struct {
	src []float64
}

func (s *sliceSource) pull(buf []float64) int {
	n := copy(buf, s.src)
	s.src = s.src[n:]

	return n
}

// Converter converts blocks between two sample rates with a fixed ratio.
//
// The kernel table is built once at construction. Process and Read reuse
// internal buffers, so a Converter performs no allocation in steady state
// and is not safe for concurrent use.
type Converter struct {
	inRate    float64
	outRate   float64
	blockSize int

	ratio float64 // outRate / inRate
	step  float64 // input samples per output sample
	fc    float64 // kernel cutoff relative to input Nyquist
	reach float64 // one-sided kernel extent in input samples
	cfg   config
	table []float64
	out   []float64
	stage []float64

	block sliceSource
	pull  PullFunc
}

// NewConverter creates a converter for inRate -> outRate with a nominal block
// size of blockSize input samples.
func NewConverter(inRate, outRate float64, blockSize int, opts ...Option) (*Converter, error) {
	cfg := defaultConfig()

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	cfg = cfg.finalized()

	c := &Converter{
		cfg:   cfg,
		table: kernelTable(cfg.zeroCrossings, cfg.kaiserBeta),
	}
	c.pull = c.block.pull

	if err := c.Setup(inRate, outRate, blockSize); err != nil {
		return nil, err
	}

	return c, nil
}

// Setup reconfigures rates and nominal block size. On error the previous
// configuration is kept.
func (c *Converter) Setup(inRate, outRate float64, blockSize int) error {
	if !validRate(inRate) || !validRate(outRate) {
		return ErrInvalidRate
	}

	if blockSize <= 0 {
		return ErrInvalidBlockSize
	}

	c.inRate = inRate
	c.outRate = outRate
	c.blockSize = blockSize
	c.ratio = outRate / inRate
	c.step = inRate / outRate
	c.fc = math.Min(1, c.ratio) * c.cfg.cutoffScale
	c.reach = float64(c.cfg.zeroCrossings) / c.fc

	n := c.OutputLen(blockSize)
	if cap(c.out) < n {
		c.out = make([]float64, n)
	}

	if need := c.inputSpan(n); cap(c.stage) < need {
		c.stage = make([]float64, need)
	}

	return nil
}

// InputRate returns the configured input sample rate.
func (c *Converter) InputRate() float64 { return c.inRate }

// OutputRate returns the configured output sample rate.
func (c *Converter) OutputRate() float64 { return c.outRate }

// BlockSize returns the nominal input block size.
func (c *Converter) BlockSize() int { return c.blockSize }

// Ratio returns outRate / inRate.
func (c *Converter) Ratio() float64 { return c.ratio }

// Quality returns the configured quality mode.
func (c *Converter) Quality() Quality { return c.cfg.quality }

// ZeroCrossings returns the one-sided kernel length in zero crossings.
func (c *Converter) ZeroCrossings() int { return c.cfg.zeroCrossings }

// OutputLen returns round(n × ratio), the output length for n input samples.
func (c *Converter) OutputLen(n int) int {
	if n <= 0 {
		return 0
	}

	return core.RoundHalfUp(float64(n) * c.ratio)
}

// NominalOutputLen returns OutputLen(BlockSize()).
func (c *Converter) NominalOutputLen() int {
	return c.OutputLen(c.blockSize)
}

// Process converts one block by pulling it through Read. The result has
// OutputLen(len(input)) samples, or NominalOutputLen() zeros when input is
// empty. The returned slice is owned by the converter and valid until the
// next call.
func (c *Converter) Process(input []float64) []float64 {
	n := c.NominalOutputLen()
	if len(input) > 0 {
		n = c.OutputLen(len(input))
	}

	if cap(c.out) < n {
		c.out = make([]float64, n)
	}

	out := c.out[:n]

	c.block.src = input
	c.Read(out, c.pull)
	c.block.src = nil

	return out
}

// Read fills dst with converted samples drawn from pull. It requests input
// until every sample the kernel needs for len(dst) outputs is staged or the
// source drains; missing input is treated as zeros. Read returns the number
// of outputs whose input position lies inside the pulled input. Each call
// starts at input phase 0.
func (c *Converter) Read(dst []float64, pull PullFunc) int {
	if len(dst) == 0 {
		return 0
	}

	// The kernel reaches at most need-1 input samples, so staging stops there.
	need := c.inputSpan(len(dst))
	if cap(c.stage) < need {
		c.stage = make([]float64, need)
	}

	stage := c.stage[:need]
	staged := 0

	for staged < need {
		n := pull(stage[staged:])
		if n <= 0 {
			break
		}

		staged += min(n, need-staged)
	}

	c.convolve(dst, stage[:staged])

	if staged == 0 {
		return 0
	}

	return min(len(dst), int(math.Ceil(float64(staged)*c.ratio)))
}

// inputSpan is the number of input samples the kernel touches for n outputs.
func (c *Converter) inputSpan(n int) int {
	if n <= 0 {
		return 0
	}

	return int(math.Floor(float64(n-1)*c.step+c.reach)) + 1
}

// convolve evaluates output k at input position k×step against src, with
// samples outside src taken as zero.
func (c *Converter) convolve(dst, src []float64) {
	last := len(src) - 1

	for k := range dst {
		pos := float64(k) * c.step

		lo := max(0, int(math.Ceil(pos-c.reach)))
		hi := min(last, int(math.Floor(pos+c.reach)))

		var acc float64
		for j := lo; j <= hi; j++ {
			acc += src[j] * lookup(c.table, (pos-float64(j))*c.fc)
		}

		dst[k] = c.fc * acc
	}
}

func validRate(r float64) bool {
	return r > 0 && !math.IsNaN(r) && !math.IsInf(r, 0)
}
