// Package telemetry wires OpenTelemetry tracing into the pipeline runtime
// (pipeline.Execute). It is zero-configuration by default: with
// no exporter configured, spans are created against a provider that drops
// them, so every call site instruments unconditionally and pays nothing
// when tracing isn't wired up.
package telemetry

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/cityops/agentmesh"

// Shutdown flushes and releases any resources InitProvider allocated.
type Shutdown func(context.Context) error

// InitProvider configures the global TracerProvider. With
// AGENTMESH_TRACE_EXPORTER=stdout it emits spans as JSON to stdout
// (useful for local inspection); any
// other value, including unset, leaves the no-op provider otel defaults
// to, so instrumentation calls are inert until explicitly turned on.
func InitProvider(serviceName string) (Shutdown, error) {
	if os.Getenv("AGENTMESH_TRACE_EXPORTER") != "stdout" {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("telemetry: failed to create stdout exporter: %w", err)
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(attribute.String("service.name", serviceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: failed to build resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	return provider.Shutdown, nil
}

// Tracer returns the package tracer, reading whatever TracerProvider is
// currently installed globally (InitProvider's, or the otel default).
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartSpan starts a span named name under ctx's current trace, tagging it
// with attrs. The caller must call the returned end func exactly once.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(err error)) {
	ctx, span := Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}
