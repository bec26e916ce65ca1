// Package frame turns a stream of variable-length blocks into fixed-length
// analysis frames.
//
// A Framer appends every incoming block to a ring buffer and, once at least
// one frame's worth of samples has been seen, hands back the most recent
// frame after each call. The frame cadence therefore follows the call
// cadence; the hop between successive frames equals the block length.
package frame
