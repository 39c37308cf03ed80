package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application. Methods are
// nil-safe so components can run without metrics wired (one-shot CLI runs).
type Metrics struct {
	RunsTotal        *prometheus.CounterVec
	RunDuration      *prometheus.HistogramVec
	DocumentsChecked *prometheus.CounterVec
	ViolationsTotal  *prometheus.CounterVec
	DispatchesTotal  *prometheus.CounterVec
	DispatchFailures *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "docaudit_runs_total",
			Help: "Total number of audit runs by region and outcome",
		}, []string{"region", "status"}),
		RunDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docaudit_run_duration_seconds",
			Help:    "Audit run duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"region"}),
		DocumentsChecked: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "docaudit_documents_checked_total",
			Help: "Total number of documents evaluated",
		}, []string{"region", "type"}),
		ViolationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "docaudit_violations_total",
			Help: "Total number of violations found",
		}, []string{"region", "severity"}),
		DispatchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "docaudit_dispatches_total",
			Help: "Total number of report deliveries attempted per sink",
		}, []string{"sink"}),
		DispatchFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "docaudit_dispatch_failures_total",
			Help: "Total number of failed report deliveries per sink",
		}, []string{"sink"}),
	}
}

func (m *Metrics) ObserveRun(region, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(region, status).Inc()
	m.RunDuration.WithLabelValues(region).Observe(d.Seconds())
}

func (m *Metrics) AddChecked(region, docType string, n int) {
	if m == nil {
		return
	}
	m.DocumentsChecked.WithLabelValues(region, docType).Add(float64(n))
}

func (m *Metrics) AddViolation(region, severity string) {
	if m == nil {
		return
	}
	m.ViolationsTotal.WithLabelValues(region, severity).Inc()
}

func (m *Metrics) ObserveDispatch(sink string, failed bool) {
	if m == nil {
		return
	}
	m.DispatchesTotal.WithLabelValues(sink).Inc()
	if failed {
		m.DispatchFailures.WithLabelValues(sink).Inc()
	}
}
