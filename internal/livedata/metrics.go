package livedata

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Operation labels recorded on provider metrics.
const (
	opGet     = "get_conditions"
	opRefresh = "refresh"
)

// providerMetrics records provider latency and cache effectiveness.
type providerMetrics struct {
	requestDuration metric.Float64Histogram
	requestTotal    metric.Int64Counter
	cacheHits       metric.Int64Counter
	cacheMisses     metric.Int64Counter
	staleServed     metric.Int64Counter
}

func newProviderMetrics(meter metric.Meter) (*providerMetrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("livedata")
	}

	requestDuration, err := meter.Float64Histogram(
		"livedata.provider.duration",
		metric.WithDescription("Duration of live data provider requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	requestTotal, err := meter.Int64Counter(
		"livedata.provider.requests",
		metric.WithDescription("Total number of live data provider requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	cacheHits, err := meter.Int64Counter(
		"livedata.cache.hits",
		metric.WithDescription("Number of live data cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, err
	}

	cacheMisses, err := meter.Int64Counter(
		"livedata.cache.misses",
		metric.WithDescription("Number of live data cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, err
	}

	staleServed, err := meter.Int64Counter(
		"livedata.cache.stale_served",
		metric.WithDescription("Number of stale entries served after a provider failure"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}

	return &providerMetrics{
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		staleServed:     staleServed,
	}, nil
}

func (m *providerMetrics) recordRequest(provider, operation string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("provider.name", provider),
		attribute.String("provider.operation", operation),
		attribute.Bool("error", err != nil),
	)

	// Recorded after the request context may already be cancelled.
	ctx := context.Background()
	m.requestDuration.Record(ctx, duration.Seconds(), attrs)
	m.requestTotal.Add(ctx, 1, attrs)
}

func (m *providerMetrics) recordCacheHit(provider string) {
	m.cacheHits.Add(context.Background(), 1, metric.WithAttributes(attribute.String("provider.name", provider)))
}

func (m *providerMetrics) recordCacheMiss(provider string) {
	m.cacheMisses.Add(context.Background(), 1, metric.WithAttributes(attribute.String("provider.name", provider)))
}

func (m *providerMetrics) recordStale(provider string) {
	m.staleServed.Add(context.Background(), 1, metric.WithAttributes(attribute.String("provider.name", provider)))
}
