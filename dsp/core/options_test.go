package core

import (
	"math"
	"testing"
)

func TestApplyProcessorOptions(t *testing.T) {
	cfg := ApplyProcessorOptions(WithSampleRate(96000), WithBlockSize(256))
	if cfg.SampleRate != 96000 {
		t.Fatalf("sample rate = %v, want 96000", cfg.SampleRate)
	}
	if cfg.BlockSize != 256 {
		t.Fatalf("block size = %d, want 256", cfg.BlockSize)
	}
	if !cfg.Valid() {
		t.Fatal("expected valid config")
	}
}

func TestInvalidOptionsAreKept(t *testing.T) {
	cfg := ApplyProcessorOptions(WithSampleRate(-1), WithBlockSize(0))
	if cfg.SampleRate != -1 || cfg.BlockSize != 0 {
		t.Fatalf("cfg = %#v, want rate -1 and block 0", cfg)
	}
	if cfg.Valid() {
		t.Fatal("invalid options must not yield a valid config")
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		name string
		cfg  ProcessorConfig
		want bool
	}{
		{name: "default", cfg: DefaultProcessorConfig(), want: true},
		{name: "zero", cfg: ProcessorConfig{}, want: false},
		{name: "zero block", cfg: ProcessorConfig{SampleRate: 48000}, want: false},
		{name: "negative rate", cfg: ProcessorConfig{SampleRate: -1, BlockSize: 256}, want: false},
		{name: "nan rate", cfg: ProcessorConfig{SampleRate: math.NaN(), BlockSize: 256}, want: false},
		{name: "inf rate", cfg: ProcessorConfig{SampleRate: math.Inf(1), BlockSize: 256}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Valid(); got != tt.want {
				t.Fatalf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}
