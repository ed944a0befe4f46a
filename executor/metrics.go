/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package executor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Task statuses used in metrics.
const (
	TaskStatusSucceeded = "succeeded"
	TaskStatusFailed    = "failed"
	TaskStatusCanceled  = "canceled"
)

// MetricsCollector collects executor metrics.
type MetricsCollector interface {
	SetQueueLength(n int)
	SetActive(n int)
	IncAdmissions()
	ObserveQueueWait(d time.Duration)
	ObserveTaskDuration(status string, d time.Duration)
}

// PrometheusMetricsOpts represents options for PrometheusMetrics.
type PrometheusMetricsOpts struct {
	// Namespace is prepended to all metric names.
	Namespace string

	// ConstLabels is a set of labels that will be applied to all metrics.
	ConstLabels prometheus.Labels

	// DurationBuckets is used for the histograms. prometheus.DefBuckets is used if empty.
	DurationBuckets []float64
}

// PrometheusMetrics represents Prometheus metrics for the executor.
type PrometheusMetrics struct {
	QueueLength     prometheus.Gauge
	Active          prometheus.Gauge
	AdmissionsTotal prometheus.Counter
	QueueWait       prometheus.Histogram
	TaskDuration    *prometheus.HistogramVec
}

var _ MetricsCollector = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics creates a new instance of PrometheusMetrics with default options.
func NewPrometheusMetrics() *PrometheusMetrics {
	return NewPrometheusMetricsWithOpts(PrometheusMetricsOpts{})
}

// NewPrometheusMetricsWithOpts creates a new instance of PrometheusMetrics with the provided options.
func NewPrometheusMetricsWithOpts(opts PrometheusMetricsOpts) *PrometheusMetrics {
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}
	return &PrometheusMetrics{
		QueueLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   opts.Namespace,
			Name:        "executor_queue_length",
			Help:        "Number of tasks waiting for admission.",
			ConstLabels: opts.ConstLabels,
		}),
		Active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   opts.Namespace,
			Name:        "executor_active_tasks",
			Help:        "Number of running tasks.",
			ConstLabels: opts.ConstLabels,
		}),
		AdmissionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "executor_admissions_total",
			Help:        "Number of started tasks.",
			ConstLabels: opts.ConstLabels,
		}),
		QueueWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   opts.Namespace,
			Name:        "executor_queue_wait_seconds",
			Help:        "Time between submission and admission of a task.",
			ConstLabels: opts.ConstLabels,
			Buckets:     buckets,
		}),
		TaskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   opts.Namespace,
			Name:        "executor_task_duration_seconds",
			Help:        "Task execution time by status.",
			ConstLabels: opts.ConstLabels,
			Buckets:     buckets,
		}, []string{"status"}),
	}
}

// MustRegister does registration of metrics collector in Prometheus and panics if any error occurs.
func (pm *PrometheusMetrics) MustRegister() {
	prometheus.MustRegister(pm.QueueLength, pm.Active, pm.AdmissionsTotal, pm.QueueWait, pm.TaskDuration)
}

// Unregister cancels registration of metrics collector in Prometheus.
func (pm *PrometheusMetrics) Unregister() {
	prometheus.Unregister(pm.QueueLength)
	prometheus.Unregister(pm.Active)
	prometheus.Unregister(pm.AdmissionsTotal)
	prometheus.Unregister(pm.QueueWait)
	prometheus.Unregister(pm.TaskDuration)
}

// SetQueueLength sets the number of queued tasks.
func (pm *PrometheusMetrics) SetQueueLength(n int) { pm.QueueLength.Set(float64(n)) }

// SetActive sets the number of running tasks.
func (pm *PrometheusMetrics) SetActive(n int) { pm.Active.Set(float64(n)) }

// IncAdmissions increments the number of started tasks.
func (pm *PrometheusMetrics) IncAdmissions() { pm.AdmissionsTotal.Inc() }

// ObserveQueueWait observes the time a task spent in the queue.
func (pm *PrometheusMetrics) ObserveQueueWait(d time.Duration) { pm.QueueWait.Observe(d.Seconds()) }

// ObserveTaskDuration observes the task execution time.
func (pm *PrometheusMetrics) ObserveTaskDuration(status string, d time.Duration) {
	pm.TaskDuration.WithLabelValues(status).Observe(d.Seconds())
}

type disabledMetrics struct{}

func (disabledMetrics) SetQueueLength(int)                        {}
func (disabledMetrics) SetActive(int)                             {}
func (disabledMetrics) IncAdmissions()                            {}
func (disabledMetrics) ObserveQueueWait(time.Duration)            {}
func (disabledMetrics) ObserveTaskDuration(string, time.Duration) {}
