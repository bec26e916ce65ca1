// Package testutil holds deterministic signal generators and assertion
// helpers shared by package tests.
package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine generates a sine wave starting at phase 0.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// DeterministicNoise generates uniform white noise in [-amplitude, amplitude)
// with a fixed seed.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// NoiseBlocks returns count device blocks of blockSize float32 samples in
// [-1, 1), all drawn from one seeded source.
func NoiseBlocks(seed int64, count, blockSize int) [][]float32 {
	rng := rand.New(rand.NewSource(seed))
	blocks := make([][]float32, count)
	for b := range blocks {
		block := make([]float32, blockSize)
		for i := range block {
			block[i] = float32(rng.Float64()*2 - 1)
		}
		blocks[b] = block
	}
	return blocks
}

// Ramp returns 0, 1, 2, ... as float64, handy for checking sample order.
func Ramp(start float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = start + float64(i)
	}
	return out
}

// DC generates a constant-valued signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}
	return out
}

// RMS returns the root-mean-square level of x (0 for empty input).
func RMS(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var s float64
	for _, v := range x {
		s += v * v
	}
	return math.Sqrt(s / float64(len(x)))
}

// DBRatio returns 20·log10(out/in), or -300 when either level is zero.
func DBRatio(out, in float64) float64 {
	if in == 0 || out == 0 {
		return -300
	}
	return 20 * math.Log10(out/in)
}
