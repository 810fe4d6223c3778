// Package otelexport forwards settled timing entries to an
// OpenTelemetry collector as trace spans. Each entry becomes one span
// covering the event's start through its reported duration, with the
// processing stage recorded as span events.
package otelexport

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/go-drift/perf/pkg/errors"
)

const (
	defaultEndpoint = "localhost:4318"
	defaultTimeout  = 10 * time.Second
)

// Options configures the exporter provider.
type Options struct {
	// ServiceName names the reporting service in exported resources.
	ServiceName string
	// Endpoint is the OTLP/HTTP collector endpoint (host:port). Empty
	// falls back to OTEL_EXPORTER_OTLP_ENDPOINT, then localhost:4318.
	Endpoint string
	// Timeout bounds exporter creation and each export batch.
	// Defaults to 10s.
	Timeout time.Duration
}

// InitProvider creates a tracer provider that batches spans to an
// OTLP/HTTP collector. The caller owns shutdown via ShutdownProvider.
func InitProvider(ctx context.Context, opts Options) (*sdktrace.TracerProvider, error) {
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	}
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
		otlptracehttp.WithTimeout(timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("create OTLP trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(opts.ServiceName)),
	)
	if err != nil {
		// Continue with a default resource; the spans still export
		errors.Report(&errors.PerfError{
			Op:   "otelexport.resource",
			Kind: errors.KindExport,
			Err:  err,
		})
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	return tp, nil
}

// ShutdownProvider flushes remaining spans and shuts the provider down.
func ShutdownProvider(ctx context.Context, tp *sdktrace.TracerProvider) error {
	if tp == nil {
		return nil
	}
	if err := tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown tracer provider: %w", err)
	}
	return nil
}
