// Package observability provides OpenTelemetry integration for the
// search core: distributed tracing, metrics export, and logging
// integration for monitoring GetSuggestions calls across an
// orchestrator's process boundary.
package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

// TracerProvider global instance
var globalTracerProvider *sdktrace.TracerProvider

// InitTracing initializes OpenTelemetry tracing with the specified configuration.
func InitTracing(serviceName string, otlpEndpoint string, consoleExport bool) (*sdktrace.TracerProvider, error) {
	// Create resource with service name
	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	// Create span processors
	var spanProcessors []sdktrace.SpanProcessor

	// Add OTLP exporter if endpoint provided
	if otlpEndpoint != "" {
		exporter, err := otlptracegrpc.New(
			context.Background(),
			otlptracegrpc.WithEndpoint(otlpEndpoint),
			otlptracegrpc.WithInsecure(), // For development; use TLS in production
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		spanProcessors = append(spanProcessors, sdktrace.NewBatchSpanProcessor(exporter))
	}

	// Add console exporter if requested
	if consoleExport {
		exporter, err := stdouttrace.New(
			stdouttrace.WithPrettyPrint(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create console exporter: %w", err)
		}
		spanProcessors = append(spanProcessors, sdktrace.NewBatchSpanProcessor(exporter))
	}

	// Create tracer provider
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
	)

	// Add all span processors
	for _, processor := range spanProcessors {
		tp.RegisterSpanProcessor(processor)
	}

	// Set as global provider
	otel.SetTracerProvider(tp)

	// Set W3C Trace Context propagator for cross-language compatibility
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	globalTracerProvider = tp
	return tp, nil
}

// GetTracer returns a tracer from the current global tracer provider.
func GetTracer(name string) trace.Tracer {
	// Always get tracer from current global provider
	// This allows tests to inject their own provider
	return otel.Tracer(name)
}

// ExtractTraceContext extracts W3C Trace Context from metadata attached
// to an orchestrator's request (e.g. an experiment group's iteration
// request envelope).
func ExtractTraceContext(ctx context.Context, metadata map[string]interface{}) context.Context {
	if metadata == nil {
		return ctx
	}

	traceCtx, ok := metadata["trace_context"]
	if !ok {
		return ctx
	}

	// Convert to carrier map
	carrier := make(propagation.MapCarrier)
	if traceMap, ok := traceCtx.(map[string]interface{}); ok {
		for k, v := range traceMap {
			if str, ok := v.(string); ok {
				carrier[k] = str
			}
		}
	}

	// Extract context
	propagator := otel.GetTextMapPropagator()
	return propagator.Extract(ctx, carrier)
}

// InjectTraceContext injects current W3C Trace Context into metadata, so
// an orchestrator can thread the trace across process boundaries.
func InjectTraceContext(ctx context.Context, metadata map[string]interface{}) map[string]interface{} {
	if metadata == nil {
		metadata = make(map[string]interface{})
	}

	// Create carrier
	carrier := make(propagation.MapCarrier)

	// Inject context
	propagator := otel.GetTextMapPropagator()
	propagator.Inject(ctx, carrier)

	// Convert to metadata
	if len(carrier) > 0 {
		traceCtx := make(map[string]interface{})
		for k, v := range carrier {
			traceCtx[k] = v
		}
		metadata["trace_context"] = traceCtx
	}

	return metadata
}

// SuggestionsSpan wraps one GetSuggestions call in a span named after the
// declared strategy, recording the experiment group ID and the number of
// assignments returned.
type SuggestionsSpan struct {
	tracer trace.Tracer
}

// NewSuggestionsSpan builds a span wrapper using the package's tracer.
func NewSuggestionsSpan() *SuggestionsSpan {
	return &SuggestionsSpan{tracer: GetTracer("search-core.observability")}
}

// Run starts a span for strategy, invokes fn, and records its result
// (assignment count or error) on the span before returning.
func (s *SuggestionsSpan) Run(ctx context.Context, strategy, groupID string, fn func(ctx context.Context) (int, error)) error {
	ctx, span := s.tracer.Start(ctx, fmt.Sprintf("manager.%s.get_suggestions", strategy), trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	span.SetAttributes(
		attribute.String("search_core.strategy", strategy),
		attribute.String("search_core.group_id", groupID),
	)

	n, err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetAttributes(attribute.Int("search_core.suggestion_count", n))
	span.SetStatus(codes.Ok, "")
	return nil
}

// Shutdown gracefully shuts down the tracer provider.
func Shutdown(ctx context.Context) error {
	if globalTracerProvider != nil {
		return globalTracerProvider.Shutdown(ctx)
	}
	return nil
}
