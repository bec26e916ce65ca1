// Package infer defines the boundary between the feature front-end and a
// beat/downbeat classifier.
//
// An Engine consumes one feature vector per frame, shaped as a
// [1, 1, featureLen] tensor, and returns three activations in the order
// beat, downbeat, none. The front-end does not interpret them.
package infer

import (
	"errors"
	"fmt"
)

// NumClasses is the number of activations per frame.
const NumClasses = 3

var (
	// ErrFeatureLength indicates a feature vector of the wrong length.
	ErrFeatureLength = errors.New("infer: feature length mismatch")
	// ErrClosed indicates use of an engine after Close.
	ErrClosed = errors.New("infer: engine closed")
)

// Engine runs the classifier on one feature vector.
type Engine interface {
	Infer(features []float64) (Scores, error)
	Close() error
}

// Class names one activation.
type Class int

const (
	ClassBeat Class = iota
	ClassDownbeat
	ClassNone
)

// String returns the lower-case class name.
func (c Class) String() string {
	switch c {
	case ClassBeat:
		return "beat"
	case ClassDownbeat:
		return "downbeat"
	case ClassNone:
		return "none"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

// Scores holds the activations of one frame.
type Scores [NumClasses]float32

// Beat returns the beat activation.
func (s Scores) Beat() float32 { return s[ClassBeat] }

// Downbeat returns the downbeat activation.
func (s Scores) Downbeat() float32 { return s[ClassDownbeat] }

// None returns the no-beat activation.
func (s Scores) None() float32 { return s[ClassNone] }

// Argmax returns the class with the largest activation. Ties resolve to the
// lower class index.
func (s Scores) Argmax() Class {
	best := ClassBeat
	for c := ClassDownbeat; c <= ClassNone; c++ {
		if s[c] > s[best] {
			best = c
		}
	}

	return best
}

// InputShape returns the tensor shape for a feature vector of length n.
func InputShape(n int) []int64 {
	return []int64{1, 1, int64(n)}
}

// OutputShape returns the default classifier output shape.
func OutputShape() []int64 {
	return []int64{1, NumClasses, 1}
}

// CheckFeatures returns ErrFeatureLength unless len(features) == want.
func CheckFeatures(features []float64, want int) error {
	if len(features) != want {
		return fmt.Errorf("%w: got %d, want %d", ErrFeatureLength, len(features), want)
	}

	return nil
}
