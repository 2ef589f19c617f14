// Package tail runs one goroutine per scrape target, following a local
// file or an SSH-remote file and feeding each line through a LineParser
// into the metric registry.
package tail

import (
	"errors"
	"log/slog"
	"time"

	"github.com/jkroepke/logscrape-exporter/internal/config"
	"github.com/jkroepke/logscrape-exporter/internal/reader"
	"github.com/jkroepke/logscrape-exporter/internal/registry"
	"github.com/jkroepke/logscrape-exporter/internal/selfmetrics"
	"github.com/prometheus/client_golang/prometheus"
)

// Emitter turns parsed lines into registry observations for one
// environment, sharing the schema and registry across every target in
// that environment.
type Emitter struct {
	parser      *reader.LineParser
	format      config.FormatColumns
	histograms  map[string][]float64
	registry    *registry.Registry
	metrics     *selfmetrics.Metrics
	environment string
	logger      *slog.Logger
}

// NewEmitter builds an Emitter for one environment.
func NewEmitter(
	global config.GlobalConfig, reg *registry.Registry, metrics *selfmetrics.Metrics,
	environment string, logger *slog.Logger,
) *Emitter {
	return &Emitter{
		parser:      reader.NewLineParser(global.Format),
		format:      global.Format,
		histograms:  global.ResolvedHistograms(),
		registry:    reg,
		metrics:     metrics,
		environment: environment,
		logger:      logger,
	}
}

// ProcessLine parses one log line and applies it to the registry. Parse
// errors are counted and logged, never propagated to the caller: the tail
// loop must keep reading regardless of a single line's validity.
func (e *Emitter) ProcessLine(line string, byteCount int) {
	now := time.Now()

	env := e.registry.Env(e.environment)

	e.metrics.InBytes.WithLabelValues(e.environment).Add(float64(byteCount))

	parsed, err := e.parser.Parse(line)
	if err != nil {
		if errors.Is(err, reader.ErrSkipLine) {
			return
		}

		e.logger.Error("parse error", "environment", e.environment, "error", err)

		if incErr := env.IncParserErrors(prometheus.Labels{}, now); incErr != nil {
			e.logger.Error("failed to count parser error", "environment", e.environment, "error", incErr)
		}

		return
	}

	if err := env.IncLinesParsed(toLabels(parsed.Labels), now); err != nil {
		e.logger.Error("failed to count parsed line", "environment", e.environment, "error", err)
	}

	for _, column := range e.format {
		if column.Skip || column.Kind == "label" || column.Kind == "request_header" {
			continue
		}

		value, ok := parsed.Values[column.Name]
		if !ok {
			continue
		}

		if bucketSet, isHistogram := column.BucketSet(); isHistogram {
			buckets := e.histograms[bucketSet]
			if len(buckets) == 0 {
				buckets = config.DefaultHistogramBuckets
			}

			if err := env.Observe(column.Name, toLabels(parsed.Labels), value, buckets, now); err != nil {
				e.logger.Error("failed to observe histogram", "metric", column.Name, "error", err)
			}

			continue
		}

		if err := env.IncCounter(column.Name, toLabels(parsed.Labels), value, now); err != nil {
			e.logger.Error("failed to increment counter", "metric", column.Name, "error", err)
		}
	}
}

func toLabels(labels map[string]string) prometheus.Labels {
	return prometheus.Labels(labels)
}
