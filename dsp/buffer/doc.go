// Package buffer provides a fixed-capacity circular sample buffer for
// allocation-free streaming. A Ring keeps the most recent samples of an
// unbounded stream in a single preallocated slice plus a write cursor, so
// callers can reconstruct the latest window without copying history on every
// write.
package buffer
