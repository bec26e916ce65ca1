package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/cwbudde/algo-beatnet/beat"
	"github.com/cwbudde/algo-beatnet/internal/observe"
)

// metricsServer exposes the OpenTelemetry metrics on /metrics.
type metricsServer struct {
	srv      *http.Server
	shutdown func(context.Context) error
	done     chan error
}

// startMetrics installs the meter provider and starts serving when an
// address is configured. It returns nil otherwise.
func (a *app) startMetrics(ctx context.Context) (*metricsServer, error) {
	addr := a.cfg.Output.MetricsAddr
	if addr == "" {
		return nil, nil
	}

	shutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{})
	if err != nil {
		return nil, err
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Join(err, shutdown(ctx))
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	m := &metricsServer{
		srv:      &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		shutdown: shutdown,
		done:     make(chan error, 1),
	}

	go func() {
		err := m.srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		m.done <- err
	}()

	a.log.Info("serving metrics", "addr", ln.Addr().String())

	return m, nil
}

// observer returns per-file instruments, or nil without a metrics server.
func (m *metricsServer) observer(path string) (beat.Observer, error) {
	if m == nil {
		return nil, nil
	}

	met, err := observe.NewMetrics(otel.GetMeterProvider(), attribute.String("file", filepath.Base(path)))
	if err != nil {
		return nil, err
	}

	return met, nil
}

// Close stops the server and flushes the provider.
func (m *metricsServer) Close(ctx context.Context) error {
	if m == nil {
		return nil
	}

	err := m.srv.Shutdown(ctx)

	return errors.Join(err, <-m.done, m.shutdown(ctx))
}
