package metrics

import "github.com/prometheus/client_golang/prometheus"

// Submission outcome labels.
const (
	OutcomeSuccess       = "success"
	OutcomePartial       = "partial"
	OutcomeRateLimited   = "rate_limited"
	OutcomeSpam          = "spam"
	OutcomeInvalid       = "invalid"
	OutcomeFailed        = "failed"
	OutcomeMisconfigured = "misconfigured"
)

// LeadMetrics exposes counters/histograms for the submission pipeline.
type LeadMetrics struct {
	submissionsTotal *prometheus.CounterVec
	deliveriesTotal  *prometheus.CounterVec
	sinkDuration     *prometheus.HistogramVec
}

func NewLeadMetrics(reg prometheus.Registerer) *LeadMetrics {
	m := &LeadMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agency",
			Subsystem: "leads",
			Name:      "submissions_total",
			Help:      "Lead submissions by terminal outcome",
		}, []string{"outcome"}),
		deliveriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agency",
			Subsystem: "leads",
			Name:      "sink_deliveries_total",
			Help:      "Sink delivery attempts by sink and settled status",
		}, []string{"sink", "status"}),
		sinkDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "agency",
			Subsystem: "leads",
			Name:      "sink_duration_seconds",
			Help:      "Time spent delivering a lead to a sink",
			Buckets:   prometheus.DefBuckets,
		}, []string{"sink"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.deliveriesTotal, m.sinkDuration)
	return m
}

func (m *LeadMetrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(outcome).Inc()
}

func (m *LeadMetrics) ObserveDelivery(sink, status string, seconds float64) {
	if m == nil {
		return
	}
	m.deliveriesTotal.WithLabelValues(sink, status).Inc()
	m.sinkDuration.WithLabelValues(sink).Observe(seconds)
}
