package metrics

import "github.com/prometheus/client_golang/prometheus"

// Form labels.
const (
	FormAppointment = "appointment"
	FormMessage     = "message"
)

// Outcome labels.
const (
	OutcomeSuccess     = "success"
	OutcomeValidation  = "validation_error"
	OutcomeNetwork     = "network_error"
	OutcomeServer      = "server_error"
	OutcomeInFlight    = "in_flight"
	OutcomeUnavailable = "unavailable"
)

// PortalMetrics exposes counters for form submissions and directory fetches.
type PortalMetrics struct {
	submissionsTotal    *prometheus.CounterVec
	directoryFetchTotal *prometheus.CounterVec
	submitLatency       *prometheus.HistogramVec
}

func NewPortalMetrics(reg prometheus.Registerer) *PortalMetrics {
	m := &PortalMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "forms",
			Name:      "submissions_total",
			Help:      "Form submit attempts by form and outcome",
		}, []string{"form", "outcome"}),
		directoryFetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "directory",
			Name:      "fetch_total",
			Help:      "Doctor directory fetches by outcome",
		}, []string{"outcome"}),
		submitLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "portal",
			Subsystem: "forms",
			Name:      "backend_latency_seconds",
			Help:      "Latency of form submissions to the hospital backend",
			Buckets:   prometheus.DefBuckets,
		}, []string{"form"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.directoryFetchTotal, m.submitLatency)
	return m
}

func (m *PortalMetrics) ObserveSubmission(form, outcome string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(form, outcome).Inc()
}

func (m *PortalMetrics) ObserveDirectoryFetch(outcome string) {
	if m == nil {
		return
	}
	m.directoryFetchTotal.WithLabelValues(outcome).Inc()
}

func (m *PortalMetrics) ObserveSubmitLatency(form string, seconds float64) {
	if m == nil {
		return
	}
	m.submitLatency.WithLabelValues(form).Observe(seconds)
}
