// Command beatnet runs the streaming beat-feature front-end over WAV files.
//
// Usage:
//
//	beatnet [flags] <command> [args]
//
// Commands:
//
//	track     score every frame of one or more WAV files
//	features  dump the feature vectors of a WAV file
//	info      print the derived geometry and filter-bank layout
//	config    print the effective configuration as YAML
//
// Examples:
//
//	beatnet track --engine onnx --model beatnet.onnx song.wav
//	beatnet features --format csv --block-size 256 song.wav
//	beatnet info --preset paper --bands
//	BEATNET_FFT=gonum beatnet config
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
