package registry

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type familyKind int

const (
	counterFamily familyKind = iota
	gaugeFamily
	histogramFamily
)

// family is one metric family: a prometheus Vec plus the bookkeeping the
// TTL registry needs to evict idle series without ever unregistering the
// family itself (doing so would invalidate the Vec for every live series).
type family struct {
	name       string
	kind       familyKind
	labelNames []string

	mu          sync.Mutex
	counterVec  *prometheus.CounterVec
	gaugeVec    *prometheus.GaugeVec
	histVec     *prometheus.HistogramVec
	lastTouched map[string]time.Time
	labelValues map[string]prometheus.Labels
}

func newFamily(
	kind familyKind, fqName, help string, labelNames []string, buckets []float64, constLabels prometheus.Labels,
) *family {
	f := &family{
		name:        fqName,
		kind:        kind,
		labelNames:  slices.Clone(labelNames),
		lastTouched: make(map[string]time.Time),
		labelValues: make(map[string]prometheus.Labels),
	}

	switch kind {
	case counterFamily:
		f.counterVec = prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: fqName, Help: help, ConstLabels: constLabels}, labelNames,
		)
	case gaugeFamily:
		f.gaugeVec = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: fqName, Help: help, ConstLabels: constLabels}, labelNames,
		)
	case histogramFamily:
		f.histVec = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        fqName,
			Help:        help,
			Buckets:     buckets,
			ConstLabels: constLabels,
		}, labelNames)
	}

	return f
}

// collector returns the underlying Vec as a prometheus.Collector for
// registration with a sub-registry.
func (f *family) collector() prometheus.Collector {
	switch f.kind {
	case counterFamily:
		return f.counterVec
	case gaugeFamily:
		return f.gaugeVec
	case histogramFamily:
		return f.histVec
	default:
		return nil
	}
}

// sameLabelNames reports whether labelNames is the same set f was created
// with, regardless of order.
func (f *family) sameLabelNames(labelNames []string) bool {
	if len(labelNames) != len(f.labelNames) {
		return false
	}

	want := make(map[string]struct{}, len(f.labelNames))
	for _, name := range f.labelNames {
		want[name] = struct{}{}
	}

	for _, name := range labelNames {
		if _, ok := want[name]; !ok {
			return false
		}
	}

	return true
}

func labelKey(labelNames []string, labels prometheus.Labels) string {
	var b strings.Builder

	for _, name := range labelNames {
		b.WriteString(labels[name])
		b.WriteByte(0)
	}

	return b.String()
}

func (f *family) touch(labels prometheus.Labels, now time.Time) {
	key := labelKey(f.labelNames, labels)

	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastTouched[key] = now
	f.labelValues[key] = labels
}

func (f *family) incCounter(labels prometheus.Labels, amount float64, now time.Time) error {
	if f.kind != counterFamily {
		return fmt.Errorf("family %s is not a counter", f.name)
	}

	if amount < 0 {
		return fmt.Errorf("family %s: counter amount must be non-negative, got %f", f.name, amount)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.counterVec.With(labels).Add(amount)
	f.touch(labels, now)

	return nil
}

func (f *family) setGauge(labels prometheus.Labels, value float64, now time.Time) error {
	if f.kind != gaugeFamily {
		return fmt.Errorf("family %s is not a gauge", f.name)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.gaugeVec.With(labels).Set(value)

	key := labelKey(f.labelNames, labels)
	f.lastTouched[key] = now
	f.labelValues[key] = labels

	return nil
}

func (f *family) observe(labels prometheus.Labels, value float64, now time.Time) error {
	if f.kind != histogramFamily {
		return fmt.Errorf("family %s is not a histogram", f.name)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.histVec.With(labels).Observe(value)

	key := labelKey(f.labelNames, labels)
	f.lastTouched[key] = now
	f.labelValues[key] = labels

	return nil
}

// gc drops every series whose last observation is older than ttl, returning
// the number evicted.
func (f *family) gc(now time.Time, ttl time.Duration) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	evicted := 0

	for key, last := range f.lastTouched {
		if now.Sub(last) <= ttl {
			continue
		}

		labels := f.labelValues[key]

		switch f.kind {
		case counterFamily:
			f.counterVec.Delete(labels)
		case gaugeFamily:
			f.gaugeVec.Delete(labels)
		case histogramFamily:
			f.histVec.Delete(labels)
		}

		delete(f.lastTouched, key)
		delete(f.labelValues, key)

		evicted++
	}

	return evicted
}

// activeSeries returns the number of series currently tracked.
func (f *family) activeSeries() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.lastTouched)
}
