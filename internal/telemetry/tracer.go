// Package telemetry wires the global OpenTelemetry tracer provider.
package telemetry

import (
	"context"

	"apigw-exporter/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// InitTracer installs the global tracer provider according to the
// telemetry configuration and returns a shutdown function. When tracing
// is disabled the returned shutdown is a no-op and the global provider is
// left untouched (spans become no-ops).
func InitTracer(cfg config.TelemetryConfig, service string) func(context.Context) error {
	if !cfg.Tracing.Enabled {
		return func(context.Context) error { return nil }
	}

	var (
		exp sdktrace.SpanExporter
		err error
	)
	switch cfg.Tracing.Exporter {
	case "otlp":
		opts := []otlptracegrpc.Option{}
		if cfg.Tracing.Endpoint != "" {
			opts = append(opts, otlptracegrpc.WithEndpoint(cfg.Tracing.Endpoint))
		}
		if cfg.Tracing.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exp, err = otlptracegrpc.New(context.Background(), opts...)
	default:
		exp, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	}
	if err != nil {
		// Tracing is best-effort observability; never fatal.
		return func(context.Context) error { return nil }
	}

	sample := cfg.Tracing.Sample
	if sample <= 0 || sample > 1 {
		sample = 1
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sample))),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown
}
