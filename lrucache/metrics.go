/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package lrucache

import "github.com/prometheus/client_golang/prometheus"

// MetricsCollector collects statistics of cache usage.
type MetricsCollector interface {
	// SetAmount sets the total number of entries in the cache.
	SetAmount(int)

	// IncHits increments the total number of successfully found keys in the cache.
	IncHits()

	// IncMisses increments the total number of not found keys in the cache.
	IncMisses()

	// AddEvictions increments the total number of evicted entries.
	AddEvictions(int)
}

// CacheLabel is the label that tells caches apart in PrometheusMetrics.
const CacheLabel = "cache"

// PrometheusMetricsOpts represents options for PrometheusMetrics.
type PrometheusMetricsOpts struct {
	// Namespace is prepended to all metric names.
	Namespace string

	// ConstLabels are applied to all metrics.
	ConstLabels prometheus.Labels
}

// PrometheusMetrics holds cache metrics for any number of caches.
// Each cache gets its own collector from ForCache, so the metrics are registered once.
type PrometheusMetrics struct {
	EntriesAmount  *prometheus.GaugeVec
	HitsTotal      *prometheus.CounterVec
	MissesTotal    *prometheus.CounterVec
	EvictionsTotal *prometheus.CounterVec
}

// NewPrometheusMetrics creates a new instance of PrometheusMetrics with default options.
func NewPrometheusMetrics() *PrometheusMetrics {
	return NewPrometheusMetricsWithOpts(PrometheusMetricsOpts{})
}

// NewPrometheusMetricsWithOpts creates a new instance of PrometheusMetrics with the provided options.
func NewPrometheusMetricsWithOpts(opts PrometheusMetricsOpts) *PrometheusMetrics {
	labels := []string{CacheLabel}
	counter := func(name, help string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace, Name: name, Help: help, ConstLabels: opts.ConstLabels,
		}, labels)
	}
	return &PrometheusMetrics{
		EntriesAmount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   opts.Namespace,
			Name:        "cache_entries_amount",
			Help:        "Total number of entries in the cache.",
			ConstLabels: opts.ConstLabels,
		}, labels),
		HitsTotal:      counter("cache_hits_total", "Number of successfully found keys in the cache."),
		MissesTotal:    counter("cache_misses_total", "Number of not found keys in the cache."),
		EvictionsTotal: counter("cache_evictions_total", "Number of evicted entries."),
	}
}

// ForCache returns the collector for the named cache.
func (pm *PrometheusMetrics) ForCache(name string) MetricsCollector {
	return &cacheMetrics{
		entries:   pm.EntriesAmount.WithLabelValues(name),
		hits:      pm.HitsTotal.WithLabelValues(name),
		misses:    pm.MissesTotal.WithLabelValues(name),
		evictions: pm.EvictionsTotal.WithLabelValues(name),
	}
}

func (pm *PrometheusMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{pm.EntriesAmount, pm.HitsTotal, pm.MissesTotal, pm.EvictionsTotal}
}

// MustRegister does registration of metrics collector in Prometheus and panics if any error occurs.
func (pm *PrometheusMetrics) MustRegister() {
	prometheus.MustRegister(pm.collectors()...)
}

// Unregister cancels registration of metrics collector in Prometheus.
func (pm *PrometheusMetrics) Unregister() {
	for _, c := range pm.collectors() {
		prometheus.Unregister(c)
	}
}

type cacheMetrics struct {
	entries   prometheus.Gauge
	hits      prometheus.Counter
	misses    prometheus.Counter
	evictions prometheus.Counter
}

func (m *cacheMetrics) SetAmount(n int)    { m.entries.Set(float64(n)) }
func (m *cacheMetrics) IncHits()           { m.hits.Inc() }
func (m *cacheMetrics) IncMisses()         { m.misses.Inc() }
func (m *cacheMetrics) AddEvictions(n int) { m.evictions.Add(float64(n)) }

type disabledMetrics struct{}

func (disabledMetrics) SetAmount(int)    {}
func (disabledMetrics) IncHits()         {}
func (disabledMetrics) IncMisses()       {}
func (disabledMetrics) AddEvictions(int) {}
