package telemetry

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name used for spans created by cartsync.
const TracerName = "github.com/dukerupert/cartsync"

// TracingConfig holds OTLP exporter settings.
type TracingConfig struct {
	// Endpoint is the OTLP/HTTP collector host:port. Empty disables export.
	Endpoint    string
	ServiceName string
	Version     string
}

// InitTracing installs a global tracer provider exporting to cfg.Endpoint.
// With no endpoint the global no-op provider stays in place.
// Returns a shutdown function that flushes pending spans.
func InitTracing(ctx context.Context, cfg TracingConfig, logger *slog.Logger) (func(context.Context) error, error) {
	if cfg.Endpoint == "" {
		logger.Info("Tracing disabled (OTEL_EXPORTER_OTLP_ENDPOINT not set)")
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.Endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.Version),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	logger.Info("Tracing initialized", "endpoint", cfg.Endpoint, "service", cfg.ServiceName)

	return tp.Shutdown, nil
}

// Tracer returns the cartsync tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}
