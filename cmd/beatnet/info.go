package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/algo-beatnet/beat"
	"github.com/cwbudde/algo-beatnet/dsp/core"
	"github.com/cwbudde/algo-beatnet/dsp/filter/bank"
	"github.com/cwbudde/algo-beatnet/dsp/resample"
	"github.com/cwbudde/algo-beatnet/dsp/window"
)

func newInfoCmd(a *app) *cobra.Command {
	var showBands bool

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Print the derived geometry and filter-bank layout",
		Long: `info resolves the configuration and prints the derived frame, transform and
filter-bank sizes, analysis window figures and the resampled block length for
the configured device. With --bands it also lists every filter-bank band.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runInfo(showBands)
		},
	}

	cmd.Flags().BoolVar(&showBands, "bands", false, "list every filter-bank band")

	return cmd
}

func (a *app) runInfo(showBands bool) error {
	cfg, err := a.cfg.BeatConfig()
	if err != nil {
		return err
	}

	b, err := beat.ResolveBackends(cfg, a.cfg.BackendConfig())
	if err != nil {
		return err
	}
	defer b.Close()

	rate := a.cfg.Device.SampleRate
	if rate <= 0 {
		rate = core.DefaultProcessorConfig().SampleRate
	}

	p, err := beat.NewPipeline(cfg, b,
		beat.WithLogger(a.log),
		beat.WithDevice(core.WithSampleRate(rate), core.WithBlockSize(a.cfg.Device.BlockSize)),
	)
	if err != nil {
		return err
	}

	if err := printSummary(a.out, p, b); err != nil {
		return err
	}

	if showBands {
		return printBands(a.out, p.FilterBank())
	}

	return nil
}

func printSummary(out io.Writer, p *beat.Pipeline, b *beat.Backends) error {
	cfg, d, fb := p.Config(), p.Derived(), p.FilterBank()

	coeffs := window.Generate(cfg.Window, d.FrameLength)
	profile := resample.QualityProfile(b.Quality())

	widths := make([]float64, 0, fb.NumBands())
	empty := 0

	for _, band := range fb.Bands() {
		if band.End <= band.First {
			empty++
			continue
		}

		widths = append(widths, float64(band.End-band.First))
	}

	var mean, std float64
	if len(widths) > 0 {
		mean, std = stat.MeanStdDev(widths, nil)
	}

	resampled := p.ResampledBlockLen()
	warmUp := (d.FrameLength + resampled - 1) / max(resampled, 1)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	rows := []struct {
		key string
		val string
	}{
		{"Target rate", fmt.Sprintf("%g Hz", cfg.TargetRate)},
		{"Frame", fmt.Sprintf("%d samples (%.1f ms)", d.FrameLength, 1000*float64(d.FrameLength)/cfg.TargetRate)},
		{"Hop", fmt.Sprintf("%d samples (%.1f ms)", d.HopSize, 1000*float64(d.HopSize)/cfg.TargetRate)},
		{"Bins", fmt.Sprintf("%d", d.FFTSize)},
		{"Transform", fmt.Sprintf("%d (%s)", d.TransformSize, b.FFTName())},
		{"Window", fmt.Sprintf("%s (coherent gain %.4f, ENBW %.4f bins)", cfg.Window, window.CoherentGain(coeffs), window.EquivalentNoiseBandwidth(coeffs))},
		{"Filter bank", fmt.Sprintf("%d bands x %d bins (mapping size %d)", fb.NumBands(), fb.Cols(), d.FilterBankSize)},
		{"Empty bands", fmt.Sprintf("%d", empty)},
		{"Band width", fmt.Sprintf("mean %.2f bins, stddev %.2f", mean, std)},
		{"Features", fmt.Sprintf("%d", d.FeatureLen)},
		{"Ring", fmt.Sprintf("%d samples", d.RingCapacity)},
		{"Resampler", fmt.Sprintf("%s (%d zero crossings, %.0f dB)", b.Quality(), profile.ZeroCrossings, profile.NominalStopbandDB)},
		{"Device", fmt.Sprintf("%g Hz, %d samples -> %d per block, first frame after %d blocks", p.InputRate(), p.BlockSize(), resampled, warmUp)},
	}

	for _, r := range rows {
		if _, err := fmt.Fprintf(tw, "%s\t%s\n", r.key, r.val); err != nil {
			return err
		}
	}

	return tw.Flush()
}

func printBands(out io.Writer, fb *bank.Triangular) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "\nBand\tLower [Hz]\tCenter [Hz]\tUpper [Hz]\tFirst\tEnd\n"); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(tw, "----\t----------\t-----------\t----------\t-----\t---\n"); err != nil {
		return err
	}

	for i, band := range fb.Bands() {
		if _, err := fmt.Fprintf(tw, "%d\t%.2f\t%.2f\t%.2f\t%d\t%d\n",
			i, band.Lower, band.Center, band.Upper, band.First, band.End); err != nil {
			return err
		}
	}

	return tw.Flush()
}
