// Package spectrum computes magnitude spectra of analysis frames.
//
// The real DFT itself is delegated to a pluggable Transform. Backends are
// registered by name and resolved once at construction time:
//
//	algofft  MeKo-Christian/algo-fft complex plan (default)
//	gonum    gonum.org/v1/gonum/dsp/fourier real FFT
//	godsp    github.com/mjibson/go-dsp FFTReal (allocates per call)
//
// An Analyzer windows a frame, zero-pads it to the transform size and returns
// the magnitudes of the first numBins bins, using only buffers allocated at
// construction.
package spectrum
