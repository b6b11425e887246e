package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "gigs"

	OutcomeSuccess = "success"
)

// Metrics exposes Prometheus collectors on a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec

	claimAttempts  *prometheus.CounterVec
	applications   *prometheus.CounterVec
	feedback       *prometheus.CounterVec
	transitions    *prometheus.CounterVec
	storeErrors    *prometheus.CounterVec
	feedObservers  prometheus.Gauge
	feedDeliveries prometheus.Counter
	reconciled     prometheus.Counter
}

// NewMetrics registers every collector on a fresh registry, including the Go
// runtime and process collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	auto := promauto.With(registry)

	return &Metrics{
		registry: registry,
		httpRequests: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status_code"}),
		httpRequestDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		httpErrors: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "errors_total",
			Help:      "Error responses by route, method and error code.",
		}, []string{"route", "method", "code"}),
		claimAttempts: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "claim_attempts_total",
			Help:      "Claim attempts by outcome.",
		}, []string{"outcome"}),
		applications: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "applications_total",
			Help:      "Application submissions by outcome.",
		}, []string{"outcome"}),
		feedback: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "feedback_submissions_total",
			Help:      "Feedback submissions by outcome.",
		}, []string{"outcome"}),
		transitions: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "lifecycle_transitions_total",
			Help:      "Gig status transitions.",
		}, []string{"from", "to"}),
		storeErrors: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "store_errors_total",
			Help:      "Infrastructure failures returned by the store, by operation.",
		}, []string{"operation"}),
		feedObservers: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "feed",
			Name:      "observers",
			Help:      "Currently subscribed feed observers.",
		}),
		feedDeliveries: auto.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "feed",
			Name:      "deliveries_total",
			Help:      "Snapshots delivered to feed observers.",
		}),
		reconciled: auto.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "applicant_sets_rebuilt_total",
			Help:      "Gig applicant sets rebuilt from application records.",
		}),
	}
}

// Registry returns the registry backing the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.httpErrors.WithLabelValues(route, method, code).Inc()
}

// RecordClaim counts a claim attempt. outcome is OutcomeSuccess or an error code.
func (m *Metrics) RecordClaim(outcome string) {
	if m == nil {
		return
	}
	m.claimAttempts.WithLabelValues(outcome).Inc()
}

// RecordApplication counts an apply attempt.
func (m *Metrics) RecordApplication(outcome string) {
	if m == nil {
		return
	}
	m.applications.WithLabelValues(outcome).Inc()
}

// RecordFeedback counts a feedback submission.
func (m *Metrics) RecordFeedback(outcome string) {
	if m == nil {
		return
	}
	m.feedback.WithLabelValues(outcome).Inc()
}

// RecordTransition counts a lifecycle move.
func (m *Metrics) RecordTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

// RecordStoreError counts an infrastructure failure.
func (m *Metrics) RecordStoreError(operation string) {
	if m == nil {
		return
	}
	m.storeErrors.WithLabelValues(operation).Inc()
}

// FeedObserverAdded tracks a new subscription.
func (m *Metrics) FeedObserverAdded() {
	if m == nil {
		return
	}
	m.feedObservers.Inc()
}

// FeedObserverRemoved tracks a released subscription.
func (m *Metrics) FeedObserverRemoved() {
	if m == nil {
		return
	}
	m.feedObservers.Dec()
}

// RecordFeedDelivery counts a snapshot handed to an observer.
func (m *Metrics) RecordFeedDelivery() {
	if m == nil {
		return
	}
	m.feedDeliveries.Inc()
}

// RecordReconciled counts rebuilt applicant sets.
func (m *Metrics) RecordReconciled(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.reconciled.Add(float64(n))
}
