package observability

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracing(t *testing.T) (*sdktrace.TracerProvider, *tracetest.InMemoryExporter) {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
	)
	otel.SetTracerProvider(provider)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return provider, exporter
}

func TestSuggestionsSpanCreatesSpanWithAttributes(t *testing.T) {
	provider, exporter := setupTestTracing(t)
	defer provider.Shutdown(context.Background())
	exporter.Reset()

	span := NewSuggestionsSpan()
	err := span.Run(context.Background(), "hyperband", "group-1", func(ctx context.Context) (int, error) {
		return 4, nil
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	provider.ForceFlush(context.Background())
	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	got := spans[0]
	if got.Name != "manager.hyperband.get_suggestions" {
		t.Errorf("unexpected span name %q", got.Name)
	}
	if got.Status.Code != codes.Ok {
		t.Errorf("expected status OK, got %v", got.Status.Code)
	}

	var sawStrategy, sawGroup, sawCount bool
	for _, attr := range got.Attributes {
		switch string(attr.Key) {
		case "search_core.strategy":
			sawStrategy = attr.Value.AsString() == "hyperband"
		case "search_core.group_id":
			sawGroup = attr.Value.AsString() == "group-1"
		case "search_core.suggestion_count":
			sawCount = attr.Value.AsInt64() == 4
		}
	}
	if !sawStrategy || !sawGroup || !sawCount {
		t.Errorf("missing expected attributes: strategy=%v group=%v count=%v", sawStrategy, sawGroup, sawCount)
	}
}

func TestSuggestionsSpanRecordsError(t *testing.T) {
	provider, exporter := setupTestTracing(t)
	defer provider.Shutdown(context.Background())
	exporter.Reset()

	span := NewSuggestionsSpan()
	wantErr := errors.New("bracket exhausted")
	err := span.Run(context.Background(), "bo", "group-2", func(ctx context.Context) (int, error) {
		return 0, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected error to propagate, got %v", err)
	}

	provider.ForceFlush(context.Background())
	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	got := spans[0]
	if got.Status.Code != codes.Error {
		t.Errorf("expected status Error, got %v", got.Status.Code)
	}
	if got.Status.Description != wantErr.Error() {
		t.Errorf("expected description %q, got %q", wantErr.Error(), got.Status.Description)
	}

	hasException := false
	for _, event := range got.Events {
		if event.Name == "exception" {
			hasException = true
		}
	}
	if !hasException {
		t.Error("expected an exception event on the span")
	}
}

func TestInjectAndExtractTraceContextRoundTrips(t *testing.T) {
	provider, _ := setupTestTracing(t)
	defer provider.Shutdown(context.Background())

	tracer := GetTracer("test")
	ctx, span := tracer.Start(context.Background(), "parent")
	defer span.End()

	metadata := InjectTraceContext(ctx, nil)
	traceCtx, ok := metadata["trace_context"]
	if !ok {
		t.Fatal("expected trace_context key in metadata")
	}
	traceCtxMap, ok := traceCtx.(map[string]interface{})
	if !ok {
		t.Fatal("trace_context is not a map")
	}
	if _, ok := traceCtxMap["traceparent"]; !ok {
		t.Error("traceparent missing from injected trace context")
	}

	extracted := ExtractTraceContext(context.Background(), metadata)
	if extracted == context.Background() {
		t.Error("expected extracted context to differ from background context")
	}
}

func TestInitTracingWithConsoleExport(t *testing.T) {
	provider, err := InitTracing("test-service", "", true)
	if err != nil {
		t.Fatalf("InitTracing failed: %v", err)
	}
	defer provider.Shutdown(context.Background())

	tracer := otel.Tracer("test")
	ctx, span := tracer.Start(context.Background(), "test-span")
	defer span.End()

	if !span.IsRecording() {
		t.Error("span is not recording")
	}
	_ = ctx
}
