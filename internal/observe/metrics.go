// Package observe records pipeline timing through the OpenTelemetry Metrics
// API. [InitProvider] installs an SDK meter provider with a Prometheus
// exporter so the CLI can serve /metrics; tests should pass their own
// [metric.MeterProvider] to [NewMetrics].
package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/cwbudde/algo-beatnet/beat"
)

// meterName is the instrumentation scope name used for all metrics.
const meterName = "github.com/cwbudde/algo-beatnet"

// Metrics holds the OpenTelemetry instruments for one process. It implements
// [beat.Observer]; all methods are safe for concurrent use.
type Metrics struct {
	// BlockDuration tracks the time spent in Pipeline.Process per device block.
	BlockDuration metric.Float64Histogram

	// Frames counts blocks that produced a feature vector.
	Frames metric.Int64Counter

	// NotReady counts blocks consumed during warm-up.
	NotReady metric.Int64Counter

	// InferenceDuration tracks classifier latency per frame.
	InferenceDuration metric.Float64Histogram

	// InferenceErrors counts failed classifier runs.
	InferenceErrors metric.Int64Counter

	attrs metric.MeasurementOption
}

// blockBuckets are histogram boundaries in seconds. A 256-sample block at
// 96 kHz leaves 2.7 ms of budget.
var blockBuckets = []float64{
	0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025,
}

// NewMetrics creates the instruments on mp. attrs are attached to every
// measurement, e.g. the source file or backend names.
func NewMetrics(mp metric.MeterProvider, attrs ...attribute.KeyValue) (*Metrics, error) {
	m := mp.Meter(meterName)
	met := &Metrics{attrs: metric.WithAttributes(attrs...)}

	var err error

	if met.BlockDuration, err = m.Float64Histogram("beatnet.pipeline.duration",
		metric.WithDescription("Time spent turning one device block into features."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(blockBuckets...),
	); err != nil {
		return nil, err
	}

	if met.Frames, err = m.Int64Counter("beatnet.pipeline.frames",
		metric.WithDescription("Device blocks that produced a feature vector."),
	); err != nil {
		return nil, err
	}

	if met.NotReady, err = m.Int64Counter("beatnet.pipeline.not_ready",
		metric.WithDescription("Device blocks consumed before the first full frame."),
	); err != nil {
		return nil, err
	}

	if met.InferenceDuration, err = m.Float64Histogram("beatnet.inference.duration",
		metric.WithDescription("Classifier latency per frame."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(blockBuckets...),
	); err != nil {
		return nil, err
	}

	if met.InferenceErrors, err = m.Int64Counter("beatnet.inference.errors",
		metric.WithDescription("Failed classifier runs."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// ObserveBlock implements beat.Observer.
func (m *Metrics) ObserveBlock(d time.Duration, ready bool) {
	ctx := context.Background()

	m.BlockDuration.Record(ctx, d.Seconds(), m.attrs)

	if ready {
		m.Frames.Add(ctx, 1, m.attrs)
	} else {
		m.NotReady.Add(ctx, 1, m.attrs)
	}
}

// ObserveInference implements beat.Observer.
func (m *Metrics) ObserveInference(d time.Duration, err error) {
	ctx := context.Background()

	m.InferenceDuration.Record(ctx, d.Seconds(), m.attrs)

	if err != nil {
		m.InferenceErrors.Add(ctx, 1, m.attrs)
	}
}

var _ beat.Observer = (*Metrics)(nil)
