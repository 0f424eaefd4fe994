// Package tracing wires OpenTelemetry for the repository and the Mongo
// driver. Tracing is off unless an OTLP endpoint is configured.
package tracing

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/event"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"
	"go.opentelemetry.io/otel/trace"
)

// Config for the OTLP/HTTP exporter
type Config struct {
	Endpoint    string
	ServiceName string
	Insecure    bool
}

// Provider owns the tracer provider installed by Setup.
type Provider struct {
	tp          *sdktrace.TracerProvider
	serviceName string
}

// Setup installs a global tracer provider exporting to cfg.Endpoint. With
// no endpoint it returns a disabled Provider and leaves the global no-op
// provider in place.
func Setup(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.Endpoint == "" {
		return &Provider{serviceName: cfg.ServiceName}, nil
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tp)

	return &Provider{tp: tp, serviceName: cfg.ServiceName}, nil
}

// Enabled reports whether spans are exported
func (p *Provider) Enabled() bool {
	return p != nil && p.tp != nil
}

// CommandMonitor returns a driver monitor that emits a span per Mongo
// command, or nil when tracing is disabled.
func (p *Provider) CommandMonitor() *event.CommandMonitor {
	if !p.Enabled() {
		return nil
	}
	return otelmongo.NewMonitor(otelmongo.WithTracerProvider(p.tp))
}

// Tracer returns a named tracer from the global provider.
func (p *Provider) Tracer(name string) trace.Tracer {
	if p.Enabled() {
		return p.tp.Tracer(name, trace.WithSchemaURL(semconv.SchemaURL))
	}
	return otel.Tracer(name)
}

// Shutdown flushes pending spans
func (p *Provider) Shutdown(ctx context.Context) error {
	if !p.Enabled() {
		return nil
	}
	return p.tp.Shutdown(ctx)
}
