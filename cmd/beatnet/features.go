package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-beatnet/beat"
	"github.com/cwbudde/algo-beatnet/dsp/core"
	"github.com/cwbudde/algo-beatnet/internal/config"
	"github.com/cwbudde/algo-beatnet/internal/wavio"
)

// featureRecord is one JSON line of the features command.
type featureRecord struct {
	Block    int       `json:"block"`
	TimeMs   float64   `json:"time_ms"`
	Features []float64 `json:"features"`
}

func newFeaturesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "features <wav>",
		Short: "Dump the feature vectors of a WAV file",
		Long: `features streams the file through the front-end without a classifier and
writes every feature vector, as JSON lines or as CSV rows with the log bands
first and their differences second.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runFeatures(cmd.Context(), args[0])
		},
	}
}

func (a *app) runFeatures(ctx context.Context, path string) error {
	bcfg, err := a.cfg.BeatConfig()
	if err != nil {
		return err
	}

	src, err := wavio.Open(path, a.cfg.Device.BlockSize)
	if err != nil {
		return err
	}
	defer src.Close()

	rate := src.SampleRate()
	if a.cfg.Device.SampleRate > 0 {
		rate = a.cfg.Device.SampleRate
	}

	b, err := beat.ResolveBackends(bcfg, a.cfg.BackendConfig())
	if err != nil {
		return err
	}
	defer b.Close()

	p, err := beat.NewPipeline(bcfg, b,
		beat.WithLogger(a.log.With("file", path)),
		beat.WithDevice(core.WithSampleRate(rate), core.WithBlockSize(src.BlockSize())),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	w := newFeatureWriter(a.out, a.cfg.Output.Format, p.Derived().NumBands)

	for block := 0; ; block++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		samples, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		feats, ok := p.Process(samples)
		if !ok {
			continue
		}

		ms := float64(src.Position().Microseconds()) / 1000
		if err := w.write(block, ms, feats); err != nil {
			return err
		}
	}

	return w.flush()
}

type featureWriter struct {
	format   config.Format
	numBands int

	enc *json.Encoder
	csv *csv.Writer
	row []string
	hdr bool
}

func newFeatureWriter(w io.Writer, format config.Format, numBands int) *featureWriter {
	fw := &featureWriter{format: format, numBands: numBands}
	if format == config.FormatCSV {
		fw.csv = csv.NewWriter(w)
	} else {
		fw.enc = json.NewEncoder(w)
	}

	return fw
}

func (w *featureWriter) write(block int, ms float64, feats beat.Features) error {
	if w.enc != nil {
		return w.enc.Encode(featureRecord{Block: block, TimeMs: ms, Features: feats})
	}

	if !w.hdr {
		w.hdr = true

		hdr := make([]string, 0, 2+2*w.numBands)
		hdr = append(hdr, "block", "time_ms")

		for i := range w.numBands {
			hdr = append(hdr, "log_"+strconv.Itoa(i))
		}

		for i := range w.numBands {
			hdr = append(hdr, "diff_"+strconv.Itoa(i))
		}

		if err := w.csv.Write(hdr); err != nil {
			return err
		}
	}

	w.row = append(w.row[:0], strconv.Itoa(block), strconv.FormatFloat(ms, 'f', 3, 64))
	for _, v := range feats {
		w.row = append(w.row, strconv.FormatFloat(v, 'g', 8, 64))
	}

	return w.csv.Write(w.row)
}

func (w *featureWriter) flush() error {
	if w.csv == nil {
		return nil
	}

	w.csv.Flush()

	return w.csv.Error()
}
