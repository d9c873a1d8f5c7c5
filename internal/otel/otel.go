package otel

import (
	"context"

	"github.com/corray333/backend-labs/canteen/internal/config"
	"github.com/corray333/backend-labs/canteen/internal/jaeger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

type OtelController struct {
	traceProvider *sdktrace.TracerProvider
}

// MustInitOtel installs the global tracer provider. With tracing disabled the
// default no-op provider stays in place.
func MustInitOtel(cfg config.TracingConfig) *OtelController {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	if !cfg.Enabled {
		return &OtelController{}
	}

	jaegerExporter := jaeger.MustNewJaeger(cfg.Endpoint)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(jaegerExporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(cfg.ServiceName),
		)),
	)

	otel.SetTracerProvider(tp)

	return &OtelController{
		traceProvider: tp,
	}
}

func (o *OtelController) Shutdown(ctx context.Context) error {
	if o.traceProvider == nil {
		return nil
	}

	return o.traceProvider.Shutdown(ctx)
}
