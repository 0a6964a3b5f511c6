package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Consultation pipeline
	ConsultationRuns *prometheus.CounterVec
	AIRequests       *prometheus.CounterVec
	AILatency        prometheus.Histogram
	DoctorMatches    prometheus.Histogram

	// Bookings and audit trail
	Bookings     *prometheus.CounterVec
	AuditEntries *prometheus.CounterVec

	// Redis relay
	RedisOperations *prometheus.CounterVec
}

// NewMetrics creates and registers all application metrics on reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ConsultationRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "consultation",
			Name:      "runs_total",
			Help:      "Consultation pipeline runs by outcome",
		}, []string{"outcome"}),
		AIRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "requests_total",
			Help:      "AI backend requests by result",
		}, []string{"result"}),
		AILatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "request_duration_seconds",
			Help:      "Latency of AI backend requests",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30},
		}),
		DoctorMatches: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "doctor_search",
			Name:      "matches",
			Help:      "Number of doctors returned per specialist search",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 20},
		}),
		Bookings: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "appointment",
			Name:      "bookings_total",
			Help:      "Appointment booking attempts by result",
		}, []string{"result"}),
		AuditEntries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "entries_total",
			Help:      "Agent interaction log entries by agent and status",
		}, []string{"agent", "status"}),
		RedisOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "operations_total",
			Help:      "Total number of Redis operations",
		}, []string{"operation", "status"}),
	}
}

func (m *Metrics) ObserveRun(outcome string) {
	if m == nil {
		return
	}
	m.ConsultationRuns.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveAI(result string, took time.Duration) {
	if m == nil {
		return
	}
	m.AIRequests.WithLabelValues(result).Inc()
	m.AILatency.Observe(took.Seconds())
}

func (m *Metrics) ObserveMatches(n int) {
	if m == nil {
		return
	}
	m.DoctorMatches.Observe(float64(n))
}

func (m *Metrics) ObserveBooking(result string) {
	if m == nil {
		return
	}
	m.Bookings.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveAudit(agent, status string) {
	if m == nil {
		return
	}
	m.AuditEntries.WithLabelValues(agent, status).Inc()
}

func (m *Metrics) ObserveRedis(operation string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.RedisOperations.WithLabelValues(operation, status).Inc()
}
