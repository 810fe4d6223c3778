package otelexport

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-drift/perf/pkg/perfentry"
)

// tracerName is the instrumentation scope for exported spans.
const tracerName = "github.com/go-drift/perf/pkg/otelexport"

// Exporter renders settled timing entries as OpenTelemetry spans.
// It implements perfentry.Reporter.
type Exporter struct {
	tracer trace.Tracer
}

// NewExporter creates an exporter producing spans through tracer.
func NewExporter(tracer trace.Tracer) *Exporter {
	return &Exporter{tracer: tracer}
}

// NewExporterFromProvider creates an exporter using the provider's
// tracer under this package's instrumentation scope.
func NewExporterFromProvider(tp trace.TracerProvider) *Exporter {
	return &Exporter{tracer: tp.Tracer(tracerName)}
}

// ReportEvent emits one span per settled entry. The span runs from the
// entry's start time through its reported duration; processing stamps
// become span events when set.
func (e *Exporter) ReportEvent(entry perfentry.Event) {
	_, span := e.tracer.Start(context.Background(), entry.Name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithTimestamp(entry.StartTime),
	)

	span.SetAttributes(
		attribute.Int64("event.duration_ns", int64(entry.Duration)),
		attribute.Int64("event.interaction_id", int64(entry.InteractionID)),
	)
	if !entry.ProcessingStart.IsZero() {
		span.AddEvent("processing.start", trace.WithTimestamp(entry.ProcessingStart))
	}
	if !entry.ProcessingEnd.IsZero() {
		span.AddEvent("processing.end", trace.WithTimestamp(entry.ProcessingEnd))
	}

	span.End(trace.WithTimestamp(entry.StartTime.Add(entry.Duration)))
}

// Attach subscribes the exporter to a buffer, forwarding entries
// reported after the call. Cancel the subscription to detach.
func (e *Exporter) Attach(buffer *perfentry.BufferedReporter) *perfentry.Subscription {
	return buffer.Subscribe(perfentry.EntryHandler{OnEntry: e.ReportEvent})
}
