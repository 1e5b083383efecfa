package cmd

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/felixgeelhaar/govern/internal/claim"
	"github.com/felixgeelhaar/govern/internal/drift"
	"github.com/felixgeelhaar/govern/internal/enforce"
	"github.com/felixgeelhaar/govern/internal/metrics"
)

// metricsExporter writes check metrics to a textfile after every run. A nil
// exporter does nothing. In watch mode one exporter spans all runs, so
// counters accumulate.
type metricsExporter struct {
	path     string
	registry *prometheus.Registry
	metrics  *metrics.Metrics
}

func newMetricsExporter(path string) *metricsExporter {
	if path == "" {
		return nil
	}
	reg, m := metrics.NewRegistry()
	return &metricsExporter{path: path, registry: reg, metrics: m}
}

func (e *metricsExporter) recordCheck(p *project, registry *claim.Registry, store *drift.Store, result *enforce.Result, duration time.Duration) {
	if e == nil {
		return
	}

	e.metrics.RecordCheck(registry.Claims(), result, duration)

	if events, err := store.List(nil); err != nil {
		p.logger.WithError(err).Warn("drift metrics unavailable")
	} else {
		e.metrics.RecordDrift(events)
	}
	e.write(p)
}

func (e *metricsExporter) recordError(p *project, err error) {
	if e == nil {
		return
	}
	e.metrics.RecordError(err)
	e.write(p)
}

// write never fails the run; a metrics file is secondary output
func (e *metricsExporter) write(p *project) {
	if err := metrics.WriteTextfile(e.registry, e.path); err != nil {
		p.logger.WithError(err).Warn("failed to write metrics file", "path", e.path)
	}
}
