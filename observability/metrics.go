package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// MeterProvider global instance
var globalMeterProvider *sdkmetric.MeterProvider

// InitMetrics initializes OpenTelemetry metrics with Prometheus export.
func InitMetrics(serviceName string, port int) (*sdkmetric.MeterProvider, error) {
	// Create resource
	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	// Create Prometheus exporter
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}

	// Create meter provider
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	// Set as global provider
	otel.SetMeterProvider(provider)

	globalMeterProvider = provider
	return provider, nil
}

// GetMeter returns a meter from the current global meter provider.
func GetMeter(name string) metric.Meter {
	// Always get meter from current global provider
	// This allows tests to inject their own provider
	return otel.Meter(name)
}

// ManagerMetrics records request/error/latency/suggestion-count metrics
// around a search manager's GetSuggestions calls.
type ManagerMetrics struct {
	requestCounter     metric.Int64Counter
	errorCounter       metric.Int64Counter
	latencyHistogram   metric.Float64Histogram
	suggestionCountHist metric.Int64Histogram
}

// NewManagerMetrics creates one instrument set shared by all strategies;
// each Record call labels its data points with the strategy it is given
// (grid, random, hyperband, bo).
func NewManagerMetrics() (*ManagerMetrics, error) {
	meter := GetMeter("search-core.observability")

	requestCounter, err := meter.Int64Counter(
		"search_core.manager.requests",
		metric.WithDescription("Total number of GetSuggestions calls"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request counter: %w", err)
	}

	errorCounter, err := meter.Int64Counter(
		"search_core.manager.errors",
		metric.WithDescription("Total number of GetSuggestions errors"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create error counter: %w", err)
	}

	latencyHistogram, err := meter.Float64Histogram(
		"search_core.manager.latency",
		metric.WithDescription("GetSuggestions processing latency"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create latency histogram: %w", err)
	}

	suggestionCountHist, err := meter.Int64Histogram(
		"search_core.manager.suggestion_count",
		metric.WithDescription("Number of assignments returned per call"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create suggestion count histogram: %w", err)
	}

	return &ManagerMetrics{
		requestCounter:      requestCounter,
		errorCounter:        errorCounter,
		latencyHistogram:    latencyHistogram,
		suggestionCountHist: suggestionCountHist,
	}, nil
}

// Record instruments one GetSuggestions call: strategy names the manager
// (grid, random, hyperband, bo), n is the number of assignments returned,
// and err is the call's outcome.
func (mm *ManagerMetrics) Record(ctx context.Context, strategy string, start time.Time, n int, err error) {
	latencyMs := float64(time.Since(start).Microseconds()) / 1000.0

	attrs := []attribute.KeyValue{attribute.String("strategy", strategy)}
	if err != nil {
		errAttrs := append(attrs, attribute.String("status", "error"), attribute.String("error.type", fmt.Sprintf("%T", err)))
		mm.requestCounter.Add(ctx, 1, metric.WithAttributes(errAttrs...))
		mm.errorCounter.Add(ctx, 1, metric.WithAttributes(errAttrs...))
		mm.latencyHistogram.Record(ctx, latencyMs, metric.WithAttributes(errAttrs...))
		return
	}

	successAttrs := append(attrs, attribute.String("status", "success"))
	mm.requestCounter.Add(ctx, 1, metric.WithAttributes(successAttrs...))
	mm.latencyHistogram.Record(ctx, latencyMs, metric.WithAttributes(successAttrs...))
	mm.suggestionCountHist.Record(ctx, int64(n), metric.WithAttributes(successAttrs...))
}

// ShutdownMetrics gracefully shuts down the meter provider.
func ShutdownMetrics(ctx context.Context) error {
	if globalMeterProvider != nil {
		return globalMeterProvider.Shutdown(ctx)
	}
	return nil
}
