package infer

import (
	"errors"
	"testing"
)

func TestScoresAccessors(t *testing.T) {
	s := Scores{0.7, 0.2, 0.1}
	if s.Beat() != 0.7 || s.Downbeat() != 0.2 || s.None() != 0.1 {
		t.Fatalf("accessors = %v %v %v", s.Beat(), s.Downbeat(), s.None())
	}
}

func TestArgmax(t *testing.T) {
	tests := []struct {
		s    Scores
		want Class
	}{
		{Scores{0.7, 0.2, 0.1}, ClassBeat},
		{Scores{0.1, 0.8, 0.1}, ClassDownbeat},
		{Scores{0.1, 0.2, 0.7}, ClassNone},
		{Scores{0.4, 0.4, 0.2}, ClassBeat},
		{Scores{}, ClassBeat},
	}
	for _, tc := range tests {
		if got := tc.s.Argmax(); got != tc.want {
			t.Fatalf("Argmax(%v) = %v, want %v", tc.s, got, tc.want)
		}
	}
}

func TestClassString(t *testing.T) {
	for c, want := range map[Class]string{ClassBeat: "beat", ClassDownbeat: "downbeat", ClassNone: "none", Class(7): "class(7)"} {
		if got := c.String(); got != want {
			t.Fatalf("String() = %q, want %q", got, want)
		}
	}
}

func TestShapes(t *testing.T) {
	in := InputShape(272)
	if len(in) != 3 || in[0] != 1 || in[1] != 1 || in[2] != 272 {
		t.Fatalf("InputShape(272) = %v", in)
	}
	out := OutputShape()
	if len(out) != 3 || out[1] != NumClasses {
		t.Fatalf("OutputShape() = %v", out)
	}
}

func TestCheckFeatures(t *testing.T) {
	if err := CheckFeatures(make([]float64, 272), 272); err != nil {
		t.Fatalf("CheckFeatures() error = %v", err)
	}
	if err := CheckFeatures(make([]float64, 271), 272); !errors.Is(err, ErrFeatureLength) {
		t.Fatalf("CheckFeatures() error = %v, want ErrFeatureLength", err)
	}
}
