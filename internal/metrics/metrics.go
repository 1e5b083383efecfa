// Package metrics exposes the outcome of governance runs as Prometheus
// metrics. A run is a short-lived process, so metrics are written to a
// file for the node_exporter textfile collector rather than served.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/felixgeelhaar/govern/internal/claim"
	"github.com/felixgeelhaar/govern/internal/drift"
	"github.com/felixgeelhaar/govern/internal/enforce"
	goverrors "github.com/felixgeelhaar/govern/internal/errors"
)

var claimStatuses = []claim.Status{claim.StatusPass, claim.StatusFail, claim.StatusError}

// Metrics holds all Prometheus metrics for govern
type Metrics struct {
	// Check run metrics
	CheckRuns     prometheus.Counter
	CheckDuration prometheus.Histogram

	// Per-claim metrics from the latest run
	ClaimStatus *prometheus.GaugeVec
	ClaimIssues *prometheus.GaugeVec

	// Verdict of the latest run
	BlockingFailures prometheus.Gauge
	WaivedClaims     prometheus.Gauge

	// Drift log state
	DriftEvents  prometheus.Gauge
	DriftPending *prometheus.GaugeVec

	// Error metrics (by error code from structured errors)
	Errors *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		CheckRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "govern_check_runs_total",
			Help: "Total number of completed check runs",
		}),
		CheckDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "govern_check_duration_seconds",
			Help:    "Wall time of a check run",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),

		ClaimStatus: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "govern_claim_status",
				Help: "1 for the status a claim reported in the latest run, 0 otherwise",
			},
			[]string{"claim", "status", "blocking"},
		),
		ClaimIssues: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "govern_claim_issues",
				Help: "Number of issues a claim reported in the latest run",
			},
			[]string{"claim"},
		),

		BlockingFailures: factory.NewGauge(prometheus.GaugeOpts{
			Name: "govern_blocking_failures",
			Help: "Blocking claims that failed without an active waiver in the latest run",
		}),
		WaivedClaims: factory.NewGauge(prometheus.GaugeOpts{
			Name: "govern_waived_claims",
			Help: "Failing blocking claims suppressed by an active waiver in the latest run",
		}),

		DriftEvents: factory.NewGauge(prometheus.GaugeOpts{
			Name: "govern_drift_events",
			Help: "Drift events in the log",
		}),
		DriftPending: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "govern_drift_pending_events",
				Help: "Drift events awaiting review",
			},
			[]string{"severity"},
		),

		Errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "govern_errors_total",
				Help: "Errors by structured error code",
			},
			[]string{"code"},
		),
	}
}

// RecordCheck replaces the per-claim series with the outcome of result
func (m *Metrics) RecordCheck(claims []claim.Claim, result *enforce.Result, duration time.Duration) {
	blocking := make(map[string]bool, len(claims))
	for _, c := range claims {
		blocking[c.ID] = c.Blocking
	}

	m.CheckRuns.Inc()
	m.CheckDuration.Observe(duration.Seconds())

	// Claims removed from the config must not linger.
	m.ClaimStatus.Reset()
	m.ClaimIssues.Reset()
	for _, report := range result.Reports {
		b := "false"
		if blocking[report.ClaimID] {
			b = "true"
		}
		for _, status := range claimStatuses {
			value := 0.0
			if report.Status == status {
				value = 1
			}
			m.ClaimStatus.WithLabelValues(report.ClaimID, status.String(), b).Set(value)
		}
		m.ClaimIssues.WithLabelValues(report.ClaimID).Set(float64(len(report.Issues)))
	}

	m.BlockingFailures.Set(float64(len(result.Summary.BlockingFailures)))
	m.WaivedClaims.Set(float64(len(result.Waived)))
}

// RecordDrift sets the drift gauges from the full event list
func (m *Metrics) RecordDrift(events []drift.Event) {
	pending := make(map[drift.Severity]int, len(drift.Severities))
	for _, e := range events {
		if e.Pending() {
			pending[e.Severity]++
		}
	}

	m.DriftEvents.Set(float64(len(events)))
	for _, severity := range drift.Severities {
		m.DriftPending.WithLabelValues(severity.String()).Set(float64(pending[severity]))
	}
}

// RecordError counts err under its error code, or "unknown"
func (m *Metrics) RecordError(err error) {
	if err == nil {
		return
	}
	code := "unknown"
	if c, ok := goverrors.CodeOf(err); ok {
		code = string(c)
	}
	m.Errors.WithLabelValues(code).Inc()
}
