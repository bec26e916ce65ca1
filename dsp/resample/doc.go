// Package resample provides block-oriented sample-rate conversion with
// band-limited (Kaiser-windowed sinc) interpolation.
//
// A Converter maps one input block to exactly round(len(input) × outRate/inRate)
// output samples. Every block is converted independently starting at input
// phase 0, which keeps the output length a pure function of the input length.
// Callers that need continuity across blocks (for example a framer with a
// ring buffer) own that state themselves.
//
// Quality modes:
//   - QualityFast: short kernel, lowest CPU
//   - QualityBalanced: default mode
//   - QualityBest: long kernel, highest stopband attenuation
//
// Default quality/performance matrix:
//
//	mode            zero crossings   nominal stopband
//	QualityFast      8               ~50 dB
//	QualityBalanced 16               ~75 dB
//	QualityBest     32               ~90 dB
//
// Common workflows:
//   - NewConverter(inRate, outRate, blockSize, opts...) then Process(block)
//   - Read(dst, pull) to drive conversion from a callback source
package resample
