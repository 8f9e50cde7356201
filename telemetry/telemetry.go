// Package telemetry configures OpenTelemetry tracing for the frontend server
// and its calls to the clinic API.
package telemetry

import (
	"context"
	"os"

	"clinicfront/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap"
)

// Setup installs a batching OTLP/gRPC tracer provider when
// OTEL_EXPORTER_OTLP_ENDPOINT is set. The returned func flushes and stops it.
func Setup(serviceName string) func(context.Context) error {
	noop := func(context.Context) error { return nil }
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		return noop
	}
	logger := utils.GetLogger()

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(endpoint)}
	if os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true" {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	exporter, err := otlptracegrpc.New(context.Background(), opts...)
	if err != nil {
		logger.Warn("telemetry: exporter disabled", zap.Error(err))
		return noop
	}

	res, err := resource.New(context.Background(), resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		logger.Warn("telemetry: resource attributes incomplete", zap.Error(err))
	}

	provider := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	logger.Info("telemetry: tracing enabled", zap.String("endpoint", endpoint))

	return provider.Shutdown
}
