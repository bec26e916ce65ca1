// Package logspec builds log-compressed spectral features with first-order
// differences.
//
// For band energies x the feature vector is
//
//	log  = log10(max(mul·x + add, 1e-6))
//	diff = log − previous log      (clamped at 0 in positive mode)
//	feat = log ++ diff
//
// The previous log vector is the only state carried from frame to frame.
package logspec
