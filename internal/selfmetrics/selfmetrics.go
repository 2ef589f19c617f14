// Package selfmetrics holds the process-internal metrics the exporter
// always publishes alongside whatever metrics the scrape config derives,
// regardless of which environments or targets are configured.
package selfmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is a prometheus.Collector bundling every self-observed series.
type Metrics struct {
	ActiveMetrics       prometheus.Gauge
	GCDuration          prometheus.Summary
	InBytes             *prometheus.CounterVec
	ScrapeTargetsCount  *prometheus.GaugeVec
	TargetDisconnected  *prometheus.GaugeVec
	ScriptLoadEvents    *prometheus.CounterVec
	ScriptExecutionTime prometheus.Histogram
}

// New builds a Metrics bundle with unregistered collectors; callers
// register it with whatever registry exposes it.
func New() *Metrics {
	return &Metrics{
		ActiveMetrics: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scraper_active_metrics",
			Help: "Number of series currently tracked by the metric registry, across all environments.",
		}),
		GCDuration: prometheus.NewSummary(prometheus.SummaryOpts{
			Name: "scraper_gc_duration_seconds",
			Help: "Time spent evicting idle series from the metric registry.",
		}),
		InBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "in_bytes",
			Help: "Bytes consumed from tailed log sources.",
		}, []string{"environment"}),
		ScrapeTargetsCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "scrape_targets_count",
			Help: "Number of tail workers by connection state.",
		}, []string{"type"}),
		TargetDisconnected: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "target_disconnected",
			Help: "1 if the named target is currently disconnected, absent otherwise.",
		}, []string{"host", "environment"}),
		ScriptLoadEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "script_load_events",
			Help: "Outcomes of executing the scrape config's script to reload the scrape config.",
		}, []string{"type"}),
		ScriptExecutionTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "script_execution_time",
			Help:    "Wall-clock time spent executing the scrape config's script.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.ActiveMetrics.Describe(ch)
	m.GCDuration.Describe(ch)
	m.InBytes.Describe(ch)
	m.ScrapeTargetsCount.Describe(ch)
	m.TargetDisconnected.Describe(ch)
	m.ScriptLoadEvents.Describe(ch)
	m.ScriptExecutionTime.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.ActiveMetrics.Collect(ch)
	m.GCDuration.Collect(ch)
	m.InBytes.Collect(ch)
	m.ScrapeTargetsCount.Collect(ch)
	m.TargetDisconnected.Collect(ch)
	m.ScriptLoadEvents.Collect(ch)
	m.ScriptExecutionTime.Collect(ch)
}
