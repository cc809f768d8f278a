package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/prohmpiriya/ringside"

// Config holds OpenTelemetry configuration
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	Environment    string
	CollectorAddr  string
	SampleRatio    float64
}

// Telemetry holds the tracer provider and tracer
type Telemetry struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

var globalTelemetry *Telemetry

// Init initializes OpenTelemetry. When disabled the global no-op tracer is used.
func Init(ctx context.Context, cfg *Config) (*Telemetry, error) {
	if cfg == nil || !cfg.Enabled {
		globalTelemetry = &Telemetry{tracer: otel.Tracer(instrumentationName)}
		return globalTelemetry, nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.CollectorAddr),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			attribute.String("environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	sampler := sdktrace.AlwaysSample()
	if cfg.SampleRatio > 0 && cfg.SampleRatio < 1 {
		sampler = sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	globalTelemetry = &Telemetry{
		provider: provider,
		tracer:   provider.Tracer(instrumentationName),
	}
	return globalTelemetry, nil
}

// Shutdown flushes and stops the tracer provider
func Shutdown(ctx context.Context) error {
	if globalTelemetry != nil && globalTelemetry.provider != nil {
		return globalTelemetry.provider.Shutdown(ctx)
	}
	return nil
}

// StartSpan starts a new span with the given name
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if globalTelemetry == nil || globalTelemetry.tracer == nil {
		return otel.Tracer(instrumentationName).Start(ctx, name, opts...)
	}
	return globalTelemetry.tracer.Start(ctx, name, opts...)
}

// GetTraceID returns the trace ID from context
func GetTraceID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

// SetSpanError records err on the current span and marks it failed
func SetSpanError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetSpanAttributes sets attributes on the current span
func SetSpanAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).SetAttributes(attrs...)
}
