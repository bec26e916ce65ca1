package beat_test

import (
	"fmt"
	"log/slog"

	"github.com/cwbudde/algo-beatnet/beat"
	"github.com/cwbudde/algo-beatnet/dsp/core"
	"github.com/cwbudde/algo-beatnet/infer"
	"github.com/cwbudde/algo-beatnet/infer/mock"
)

func ExampleConfig_Derive() {
	d, err := beat.DefaultConfig().Derive()
	if err != nil {
		panic(err)
	}

	fmt.Printf("frame=%d hop=%d bins=%d transform=%d\n", d.FrameLength, d.HopSize, d.FFTSize, d.TransformSize)
	fmt.Printf("bands=%d features=%d ring=%d\n", d.NumBands, d.FeatureLen, d.RingCapacity)
	// Output:
	// frame=1411 hop=441 bins=706 transform=2048
	// bands=136 features=272 ring=1552
}

func ExampleTracker() {
	tr, err := beat.NewTracker(beat.DefaultConfig(),
		beat.BackendConfig{Engine: func(n int) (infer.Engine, error) {
			return mock.New(n, infer.Scores{0.9, 0.05, 0.05}), nil
		}},
		beat.WithLogger(slog.New(slog.DiscardHandler)),
		beat.WithDevice(core.WithSampleRate(96000), core.WithBlockSize(256)),
	)
	if err != nil {
		panic(err)
	}
	defer tr.Close()

	block := make([]float32, 256)
	for i := range 25 {
		scores, ok, err := tr.Process(block)
		if err != nil {
			panic(err)
		}

		if ok {
			fmt.Printf("block %d: %s\n", i, scores.Argmax())
		}
	}
	// Output:
	// block 23: beat
	// block 24: beat
}
