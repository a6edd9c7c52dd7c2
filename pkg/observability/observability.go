// Package observability wires OpenTelemetry tracing and RED metrics for
// the orchestrator and executor daemon, following the teacher's
// Provider shape (pkg/observability/observability.go) scaled to this
// control plane's single-process footprint.
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "companion.control-plane"

// Config configures the observability providers. A blank OTLPEndpoint
// leaves Enabled false, so running without a collector is the default
// rather than an error.
type Config struct {
	ServiceName  string
	Environment  string
	OTLPEndpoint string
	Enabled      bool
	Insecure     bool
}

// DefaultConfig returns a disabled provider; callers flip Enabled once
// config.Config.OTLPEndpoint is non-empty.
func DefaultConfig() Config {
	return Config{
		ServiceName: "companion",
		Environment: "development",
		Insecure:    true,
	}
}

// Provider bundles the tracer, meter, and RED instruments. The
// orchestrator starts one span per tick through StartSpan; the RED
// instruments are recorded only by callers of RecordTick, RecordError and
// RecordDuration.
type Provider struct {
	config         Config
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	tracer         trace.Tracer
	meter          metric.Meter
	logger         *slog.Logger

	tickCounter  metric.Int64Counter
	errorCounter metric.Int64Counter
	durationHist metric.Float64Histogram
}

// New creates a Provider. If cfg.Enabled is false, it returns a
// no-op-safe Provider whose Tracer/Meter/Record methods are all
// harmless to call.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Provider{config: cfg, logger: logger.With("component", "observability")}

	if !cfg.Enabled {
		p.logger.InfoContext(ctx, "observability disabled")
		return p, nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("observability: build resource: %w", err)
	}

	if err := p.initTraceProvider(ctx, res); err != nil {
		return nil, fmt.Errorf("observability: init tracing: %w", err)
	}
	if err := p.initMetricProvider(ctx, res); err != nil {
		return nil, fmt.Errorf("observability: init metrics: %w", err)
	}

	p.tracer = otel.Tracer(instrumentationName)
	p.meter = otel.Meter(instrumentationName)

	if err := p.initREDMetrics(); err != nil {
		return nil, fmt.Errorf("observability: init metrics instruments: %w", err)
	}

	p.logger.InfoContext(ctx, "observability initialized",
		"service", cfg.ServiceName, "endpoint", cfg.OTLPEndpoint)
	return p, nil
}

func (p *Provider) initTraceProvider(ctx context.Context, res *resource.Resource) error {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(p.config.OTLPEndpoint)}
	if p.config.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return err
	}

	p.tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(p.tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
	return nil
}

func (p *Provider) initMetricProvider(ctx context.Context, res *resource.Resource) error {
	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(p.config.OTLPEndpoint)}
	if p.config.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return err
	}

	p.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(15*time.Second))),
	)
	otel.SetMeterProvider(p.meterProvider)
	return nil
}

func (p *Provider) initREDMetrics() error {
	var err error
	p.tickCounter, err = p.meter.Int64Counter("companion.ticks.total",
		metric.WithDescription("Total number of orchestrator ticks processed"),
		metric.WithUnit("{tick}"))
	if err != nil {
		return err
	}
	p.errorCounter, err = p.meter.Int64Counter("companion.errors.total",
		metric.WithDescription("Total number of tick or execution errors"),
		metric.WithUnit("{error}"))
	if err != nil {
		return err
	}
	p.durationHist, err = p.meter.Float64Histogram("companion.tick.duration",
		metric.WithDescription("Tick duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10))
	return err
}

// Shutdown flushes and releases the underlying providers. Safe to call
// on a disabled Provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tracerProvider != nil {
		if err := p.tracerProvider.Shutdown(ctx); err != nil {
			p.logger.ErrorContext(ctx, "trace provider shutdown failed", "error", err)
		}
	}
	if p.meterProvider != nil {
		if err := p.meterProvider.Shutdown(ctx); err != nil {
			p.logger.ErrorContext(ctx, "metric provider shutdown failed", "error", err)
		}
	}
	return nil
}

// Tracer returns the configured tracer, or a no-op global tracer if
// observability is disabled.
func (p *Provider) Tracer() trace.Tracer {
	if p.tracer == nil {
		return otel.Tracer(instrumentationName)
	}
	return p.tracer
}

// StartSpan starts a span named name under the provider's tracer.
func (p *Provider) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return p.Tracer().Start(ctx, name, opts...)
}

// RecordTick increments the tick counter.
func (p *Provider) RecordTick(ctx context.Context, attrs ...attribute.KeyValue) {
	if p.tickCounter != nil {
		p.tickCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordError increments the error counter, tagged with err's type.
func (p *Provider) RecordError(ctx context.Context, err error, attrs ...attribute.KeyValue) {
	if p.errorCounter != nil {
		allAttrs := append(append([]attribute.KeyValue{}, attrs...), attribute.String("error.type", fmt.Sprintf("%T", err)))
		p.errorCounter.Add(ctx, 1, metric.WithAttributes(allAttrs...))
	}
}

// RecordDuration records how long an operation took.
func (p *Provider) RecordDuration(ctx context.Context, d time.Duration, attrs ...attribute.KeyValue) {
	if p.durationHist != nil {
		p.durationHist.Record(ctx, d.Seconds(), metric.WithAttributes(attrs...))
	}
}
