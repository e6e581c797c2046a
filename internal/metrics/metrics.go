// Package metrics holds the Prometheus collectors shared by the client
// transport and the notification worker.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "airbooking_client"

// Outcome labels for API requests.
const (
	OutcomeOK        = "ok"
	OutcomeTransport = "transport"
	OutcomeAuth      = "auth"
	OutcomeBusiness  = "business"
)

type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	events   *prometheus.CounterVec
}

// New registers the collectors on reg. A nil registerer means the default
// one. Registering twice on the same registry panics, so tests should pass
// a fresh prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "api",
				Name:      "requests_total",
				Help:      "Requests sent to the booking service, by operation and outcome.",
			},
			[]string{"operation", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "api",
				Name:      "request_duration_seconds",
				Help:      "Round trip time of requests sent to the booking service.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "worker",
				Name:      "events_total",
				Help:      "Booking activity events handled by the worker.",
			},
			[]string{"type", "result"},
		),
	}
	reg.MustRegister(m.requests, m.duration, m.events)
	return m
}

// ObserveRequest records one finished API call.
func (m *Metrics) ObserveRequest(operation, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(operation, outcome).Inc()
	m.duration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncEvent counts an activity event with result "sent", "skipped" or "failed".
func (m *Metrics) IncEvent(eventType, result string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(eventType, result).Inc()
}
