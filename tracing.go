package agentscope

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// InitTracing builds and installs a process-wide TracerProvider backed
// by exporter, batching spans under serviceName. The kernel's own
// tracer (see kernel.go) is looked up lazily via otel.Tracer, so
// calling this before or after constructing any Agent is equivalent;
// spans emitted before InitTracing simply go to the no-op provider.
func InitTracing(ctx context.Context, exporter sdktrace.SpanExporter, serviceName string) (*sdktrace.TracerProvider, error) {
	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp, nil
}
