// Package jaeger builds the span exporter used by the tracer provider.
package jaeger

import (
	"fmt"

	"go.opentelemetry.io/otel/exporters/jaeger"
)

// NewExporter sends spans to the Jaeger collector at endpoint.
func NewExporter(endpoint string) (*jaeger.Exporter, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("jaeger collector endpoint is empty")
	}

	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(endpoint)))
	if err != nil {
		return nil, fmt.Errorf("failed to create jaeger exporter: %w", err)
	}

	return exp, nil
}

func MustNewJaeger(endpoint string) *jaeger.Exporter {
	exp, err := NewExporter(endpoint)
	if err != nil {
		panic(err)
	}

	return exp
}
