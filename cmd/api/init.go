package main

import (
	"context"
	"errors"

	"go-chi-calculator/internal/config"
	"go-chi-calculator/internal/observability"
	"go-chi-calculator/internal/sessions"

	"github.com/prometheus/client_golang/prometheus"
)

// initTelemetry initialises tracing, metric providers, optional OTLP log
// export and the calculator metric instruments. The returned function shuts
// down every provider that was started.
func initTelemetry(ctx context.Context, cfg config.Config, store *sessions.Store) (func(context.Context) error, error) {
	var shutdowns []func(context.Context) error
	shutdown := func(ctx context.Context) error {
		var errs []error
		for i := len(shutdowns) - 1; i >= 0; i-- {
			errs = append(errs, shutdowns[i](ctx))
		}
		return errors.Join(errs...)
	}

	traceShutdown, err := observability.InitTracing(ctx, cfg.ServiceName)
	if err != nil {
		return nil, err
	}
	shutdowns = append(shutdowns, traceShutdown)

	metricShutdown, err := observability.InitMetrics(ctx, cfg.ServiceName)
	if err != nil {
		return nil, errors.Join(err, shutdown(ctx))
	}
	shutdowns = append(shutdowns, metricShutdown)

	if cfg.OTLPLogs {
		logShutdown, err := observability.InitLogging(ctx, cfg.ServiceName)
		if err != nil {
			return nil, errors.Join(err, shutdown(ctx))
		}
		shutdowns = append(shutdowns, logShutdown)
	}

	if err := sessions.InitMetrics(); err != nil {
		return nil, errors.Join(err, shutdown(ctx))
	}

	if err := observability.RegisterCollectors(prometheus.DefaultRegisterer, store.ActiveGauge()); err != nil {
		return nil, errors.Join(err, shutdown(ctx))
	}

	return shutdown, nil
}
