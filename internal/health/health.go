// Package health runs the periodic GC + health-reporting task: a tick
// every TTL that evicts idle series and publishes worker connectivity.
package health

import (
	"context"
	"log/slog"
	"time"

	"github.com/jkroepke/logscrape-exporter/internal/registry"
	"github.com/jkroepke/logscrape-exporter/internal/selfmetrics"
	"github.com/jkroepke/logscrape-exporter/internal/supervisor"
)

// WorkerLister is implemented by *supervisor.Supervisor. TTL reports the
// eviction horizon currently configured via global.ttl, so the reporter
// always GCs against the operator's setting rather than a fixed period.
type WorkerLister interface {
	Workers() []supervisor.WorkerStatus
	TTL() time.Duration
}

// Reporter periodically runs registry GC and publishes worker connection
// counts.
type Reporter struct {
	registry   *registry.Registry
	metrics    *selfmetrics.Metrics
	logger     *slog.Logger
	defaultTTL time.Duration
}

// New builds a Reporter. defaultTTL is used only before the supervisor has
// completed its first reconcile (so workers.TTL() is still 0); once a scrape
// config is loaded, every tick reads the configured global.ttl instead.
func New(reg *registry.Registry, metrics *selfmetrics.Metrics, logger *slog.Logger, defaultTTL time.Duration) *Reporter {
	return &Reporter{registry: reg, metrics: metrics, logger: logger, defaultTTL: defaultTTL}
}

// Run ticks every configured global.ttl until ctx is canceled, re-arming the
// ticker after each tick in case a reload changed the ttl, and calling
// workers.Workers() each time to learn the current target set.
func (r *Reporter) Run(ctx context.Context, workers WorkerLister) {
	ticker := time.NewTicker(r.ttlOrDefault(workers))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tick(workers)
			ticker.Reset(r.ttlOrDefault(workers))
		}
	}
}

func (r *Reporter) ttlOrDefault(workers WorkerLister) time.Duration {
	if ttl := workers.TTL(); ttl > 0 {
		return ttl
	}

	if r.defaultTTL > 0 {
		return r.defaultTTL
	}

	return time.Minute
}

func (r *Reporter) tick(workers WorkerLister) {
	ttl := r.ttlOrDefault(workers)

	start := time.Now()
	evicted := r.registry.GC(ttl)
	r.metrics.GCDuration.Observe(time.Since(start).Seconds())

	if evicted > 0 {
		r.logger.Info("evicted idle series", "count", evicted)
	}

	r.metrics.ActiveMetrics.Set(float64(r.registry.ActiveSeries()))

	statuses := workers.Workers()

	var connected, disconnected float64

	for _, status := range statuses {
		if status.Connected {
			connected++

			r.metrics.TargetDisconnected.DeleteLabelValues(status.Host, status.Environment)

			continue
		}

		disconnected++

		if status.Host != "" {
			r.metrics.TargetDisconnected.WithLabelValues(status.Host, status.Environment).Set(1)
		}
	}

	r.metrics.ScrapeTargetsCount.WithLabelValues("connected").Set(connected)
	r.metrics.ScrapeTargetsCount.WithLabelValues("disconnected").Set(disconnected)
}
