// Package beat wires the streaming feature front-end of a beat/downbeat
// tracker.
//
// Per device block the Pipeline resamples to the target rate, appends to a
// ring buffer, and once a full frame is available computes
//
//	frame → Hann window → |DFT| → triangular filter bank → log10 → diff → concat
//
// yielding a feature vector of 2 × NumBands values. A Tracker feeds those
// vectors to an infer.Engine. All scratch memory is allocated in the
// constructor and in Setup, so Process does not allocate in steady state.
//
// A Pipeline is single-threaded. Run one per audio stream.
package beat
