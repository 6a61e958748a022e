package observe

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Config configures the telemetry provider.
type Config struct {
	// ServiceName identifies this process in exported telemetry.
	// Required.
	ServiceName string

	// Version is the service version attached to exported telemetry.
	Version string

	// MetricsExporter selects the metrics backend:
	// prometheus|otlp|stdout|none. Empty disables metrics.
	MetricsExporter string

	// TracesExporter selects the trace backend: otlp|stdout|none.
	// Empty disables tracing.
	TracesExporter string

	// LogLevel filters the logger: debug|info|warn|error.
	// Empty disables logging.
	LogLevel string
}

func (c Config) validate() error {
	if c.ServiceName == "" {
		return errors.New("observe: service name is required")
	}
	switch c.MetricsExporter {
	case "", "prometheus", "otlp", "stdout", "none":
	default:
		return fmt.Errorf("observe: unknown metrics exporter: %q", c.MetricsExporter)
	}
	switch c.TracesExporter {
	case "", "otlp", "stdout", "none":
	default:
		return fmt.Errorf("observe: unknown traces exporter: %q", c.TracesExporter)
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("observe: unknown log level: %q", c.LogLevel)
	}
	return nil
}

// Provider owns the configured telemetry primitives.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Shutdown: idempotent; honors the context deadline and returns the
//   joined errors of all providers.
type Provider struct {
	meter  metric.Meter
	tracer trace.Tracer
	logger Logger

	meterProvider  *sdkmetric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
}

// NewProvider builds telemetry from the config. Disabled subsystems get
// no-op implementations, so callers never branch on configuration.
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.Version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("observe: failed to create resource: %w", err)
	}

	p := &Provider{}

	if cfg.MetricsExporter != "" {
		reader, err := newMetricsReader(ctx, cfg.MetricsExporter)
		if err != nil {
			return nil, err
		}
		p.meterProvider = sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(reader),
		)
		otel.SetMeterProvider(p.meterProvider)
		p.meter = p.meterProvider.Meter(cfg.ServiceName)
	} else {
		p.meter = metricnoop.NewMeterProvider().Meter("noop")
	}

	if cfg.TracesExporter != "" {
		exporter, err := newTraceExporter(ctx, cfg.TracesExporter)
		if err != nil {
			return nil, err
		}
		p.tracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithResource(res),
			sdktrace.WithBatcher(exporter),
		)
		otel.SetTracerProvider(p.tracerProvider)
		p.tracer = p.tracerProvider.Tracer(cfg.ServiceName)
	} else {
		p.tracer = tracenoop.NewTracerProvider().Tracer("noop")
	}

	if cfg.LogLevel != "" {
		p.logger = NewLogger(cfg.LogLevel)
	} else {
		p.logger = NopLogger()
	}

	return p, nil
}

// Meter returns the configured meter.
func (p *Provider) Meter() metric.Meter {
	return p.meter
}

// Tracer returns the configured tracer.
func (p *Provider) Tracer() trace.Tracer {
	return p.tracer
}

// Logger returns the configured logger.
func (p *Provider) Logger() Logger {
	return p.logger
}

// Shutdown flushes and stops all telemetry providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	if p.meterProvider != nil {
		if err := p.meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("observe: meter shutdown: %w", err))
		}
		p.meterProvider = nil
	}
	if p.tracerProvider != nil {
		if err := p.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("observe: tracer shutdown: %w", err))
		}
		p.tracerProvider = nil
	}
	return errors.Join(errs...)
}
