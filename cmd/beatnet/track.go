package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/algo-beatnet/beat"
	"github.com/cwbudde/algo-beatnet/dsp/core"
	"github.com/cwbudde/algo-beatnet/internal/config"
	"github.com/cwbudde/algo-beatnet/internal/wavio"
)

// frameRecord holds the activations of one scored frame.
type frameRecord struct {
	Block    int     `json:"block"`
	TimeMs   float64 `json:"time_ms"` // end of the block
	Beat     float32 `json:"beat"`
	Downbeat float32 `json:"downbeat"`
	None     float32 `json:"none"`
}

// trackRecord summarizes one input file.
type trackRecord struct {
	FileName     string        `json:"file"`
	SampleRate   float64       `json:"sample_rate"`
	NumChannels  int           `json:"channels"`
	BlockSize    int           `json:"block_size"`
	Blocks       int           `json:"blocks"`
	Errors       int           `json:"errors"`
	BeatMean     float64       `json:"beat_mean"`
	BeatStdDev   float64       `json:"beat_stddev"`
	FrameRecords []frameRecord `json:"frames"`
}

func newTrackCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "track <wav>...",
		Short: "Score every frame of one or more WAV files",
		Long: `track streams each file through a tracker in device-sized blocks and prints
one record per file with the beat, downbeat and none activations of every
frame. Files are processed concurrently; records keep the argument order.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTrack(cmd.Context(), args)
		},
	}
}

func (a *app) runTrack(ctx context.Context, paths []string) (err error) {
	newEngine, err := a.engineFactory()
	if err != nil {
		return err
	}

	bcfg, err := a.cfg.BeatConfig()
	if err != nil {
		return err
	}

	metrics, err := a.startMetrics(ctx)
	if err != nil {
		return err
	}

	defer func() {
		err = errors.Join(err, metrics.Close(context.WithoutCancel(ctx)))
	}()

	workers := a.cfg.Output.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	records := make([]*trackRecord, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range paths {
		g.Go(func() error {
			obs, err := metrics.observer(path)
			if err != nil {
				return err
			}

			records[i], err = a.trackFile(gctx, path, bcfg, newEngine, obs)

			return err
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	return a.writeTrackRecords(records)
}

func (a *app) trackFile(ctx context.Context, path string, cfg beat.Config, newEngine beat.EngineFactory, obs beat.Observer) (*trackRecord, error) {
	src, err := wavio.Open(path, a.cfg.Device.BlockSize)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	rate := src.SampleRate()
	if a.cfg.Device.SampleRate > 0 {
		rate = a.cfg.Device.SampleRate
	}

	bc := a.cfg.BackendConfig()
	bc.Engine = newEngine

	log := a.log.With("file", path)

	tr, err := beat.NewTracker(cfg, bc,
		beat.WithLogger(log),
		beat.WithObserver(obs),
		beat.WithDevice(core.WithSampleRate(rate), core.WithBlockSize(src.BlockSize())),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	defer tr.Close()

	rec := &trackRecord{
		FileName:    path,
		SampleRate:  rate,
		NumChannels: src.Channels(),
		BlockSize:   src.BlockSize(),
	}

	for block := 0; ; block++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		samples, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}

		rec.Blocks++

		scores, ok, err := tr.Process(samples)
		if err != nil {
			rec.Errors++
			log.Warn("inference failed", "block", block, "err", err)

			continue
		}

		if !ok {
			continue
		}

		rec.FrameRecords = append(rec.FrameRecords, frameRecord{
			Block:    block,
			TimeMs:   float64(src.Position().Microseconds()) / 1000,
			Beat:     scores.Beat(),
			Downbeat: scores.Downbeat(),
			None:     scores.None(),
		})
	}

	if len(rec.FrameRecords) > 0 {
		beats := make([]float64, len(rec.FrameRecords))
		for i, fr := range rec.FrameRecords {
			beats[i] = float64(fr.Beat)
		}

		rec.BeatMean, rec.BeatStdDev = stat.MeanStdDev(beats, nil)
	}

	log.Info("tracked", "blocks", rec.Blocks, "frames", len(rec.FrameRecords), "errors", rec.Errors)

	return rec, nil
}

func (a *app) writeTrackRecords(records []*trackRecord) error {
	if a.cfg.Output.Format == config.FormatCSV {
		w := csv.NewWriter(a.out)
		if err := w.Write([]string{"file", "block", "time_ms", "beat", "downbeat", "none"}); err != nil {
			return err
		}

		for _, rec := range records {
			for _, fr := range rec.FrameRecords {
				if err := w.Write([]string{
					rec.FileName,
					strconv.Itoa(fr.Block),
					strconv.FormatFloat(fr.TimeMs, 'f', 3, 64),
					strconv.FormatFloat(float64(fr.Beat), 'g', -1, 32),
					strconv.FormatFloat(float64(fr.Downbeat), 'g', -1, 32),
					strconv.FormatFloat(float64(fr.None), 'g', -1, 32),
				}); err != nil {
					return err
				}
			}
		}

		w.Flush()

		return w.Error()
	}

	enc := json.NewEncoder(a.out)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}

	return nil
}
