package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mrops-br/catalog-admin/internal/infrastructure/config"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Telemetry bundles the providers and logger one process shares.
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *metric.MeterProvider
	Registry       *prometheus.Registry
	Logger         *slog.Logger
}

// New picks the exporting or the no-op setup based on cfg.Enabled.
func New(cfg *config.OTLPConfig) (*Telemetry, error) {
	if !cfg.Enabled {
		return NewNoOpTelemetry(cfg, os.Stdout)
	}
	return NewTelemetry(cfg)
}

// NewTelemetry exports traces and metrics over OTLP gRPC. Metrics are also
// readable from Registry for the /metrics endpoint.
func NewTelemetry(cfg *config.OTLPConfig) (*Telemetry, error) {
	logger := initLogger(cfg, os.Stdout)

	tp, err := initTracerProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("tracer provider: %w", err)
	}

	registry := prometheus.NewRegistry()
	mp, err := initMeterProvider(cfg, registry)
	if err != nil {
		_ = tp.Shutdown(context.Background())
		return nil, fmt.Errorf("meter provider: %w", err)
	}

	t := install(tp, mp, registry, logger)
	logger.Info("Telemetry exporting",
		slog.String("endpoint", cfg.Endpoint),
		slog.String("service_name", cfg.ServiceName),
	)
	return t, nil
}

// NewNoOpTelemetry keeps spans in process and exports nothing over OTLP.
// Metrics are still scraped from the Prometheus registry.
func NewNoOpTelemetry(cfg *config.OTLPConfig, out io.Writer) (*Telemetry, error) {
	logger := initLogger(cfg, out)

	registry := prometheus.NewRegistry()
	mp, err := initPrometheusMeterProvider(cfg, registry)
	if err != nil {
		return nil, fmt.Errorf("meter provider: %w", err)
	}

	t := install(sdktrace.NewTracerProvider(), mp, registry, logger)
	logger.Debug("Telemetry export disabled")
	return t, nil
}

func install(tp *sdktrace.TracerProvider, mp *metric.MeterProvider, registry *prometheus.Registry, logger *slog.Logger) *Telemetry {
	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	return &Telemetry{
		TracerProvider: tp,
		MeterProvider:  mp,
		Registry:       registry,
		Logger:         logger,
	}
}

// Shutdown flushes both providers, attempting each even if the other fails.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	err := errors.Join(
		t.TracerProvider.Shutdown(ctx),
		t.MeterProvider.Shutdown(ctx),
	)
	if err != nil {
		t.Logger.Error("Telemetry shutdown failed", slog.String("error", err.Error()))
	}
	return err
}
