package a11y

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hazyhaar/a11y/compliance"
	"github.com/hazyhaar/a11y/rules"
)

const metricsNamespace = "a11y"

// Metrics are the service's Prometheus collectors.
type Metrics struct {
	calls      *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	issues     *prometheus.CounterVec
	reports    *prometheus.CounterVec
	percentage prometheus.Histogram
}

// NewMetrics registers the collectors on reg. A nil reg uses a private
// registry, which keeps tests and multiple services independent.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Metrics{
		calls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "calls_total",
			Help:      "Operations served, by operation and outcome",
		}, []string{"op", "status"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "call_duration_seconds",
			Help:      "Operation latency",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}, []string{"op"}),
		issues: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "issues_total",
			Help:      "Issues found, by rule and severity",
		}, []string{"rule", "severity"}),
		reports: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "reports_total",
			Help:      "Compliance reports produced, by target level and status",
		}, []string{"level", "status"}),
		percentage: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "compliance_percentage",
			Help:      "Distribution of compliance percentages",
			Buckets:   []float64{50, 70, 80, 90, 95, 99, 100},
		}),
	}
}

// Observe has the signature kit.Observe expects.
func (m *Metrics) Observe(op string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.calls.WithLabelValues(op, status).Inc()
	m.latency.WithLabelValues(op).Observe(d.Seconds())
}

func (m *Metrics) recordIssues(issues []rules.Issue) {
	for _, is := range issues {
		m.issues.WithLabelValues(string(is.RuleID), is.Severity.String()).Inc()
	}
}

func (m *Metrics) recordReport(r *compliance.Report) {
	m.reports.WithLabelValues(r.TargetLevel.String(), r.Status.String()).Inc()
	m.percentage.Observe(r.CompliancePercentage)
}
