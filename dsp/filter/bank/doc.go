// Package bank provides log-frequency triangular filter banks for magnitude
// spectra.
//
// A Triangular bank places num = floor(log2(fMax/fMin) × bandsPerOctave)
// overlapping triangles on a geometric frequency grid
//
//	f_i = fMin · 2^(i/bandsPerOctave),  i = 0 .. num+1
//
// Band k rises from f_k to f_{k+1} and falls to f_{k+2}. Frequencies map to
// fractional bins as f/sampleRate × transformSize, and each row spans
// transformSize/2+1 columns. With normalization enabled every non-empty row
// sums to 1, so a band reports the weighted mean magnitude of its bins.
//
// Basic usage:
//
//	b, _ := bank.NewTriangular(16, 706, 22050, 30, 11025)
//	bands := b.Apply(nil, magnitudes)
package bank
