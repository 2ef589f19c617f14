package registry

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ReservedLabel is the label every series carries to identify which
// environment produced it.
const ReservedLabel = "environment"

// Reserved metric names: these live at the top of the namespace, unprefixed,
// and their label set follows whatever label columns a schema declares
// rather than being fixed in advance.
const (
	linesParsedName  = "lines_parsed"
	parserErrorsName = "parser_errors"
)

// envRegistry is the TTL metric registry for a single environment: it
// auto-creates metric families on first observation and evicts series that
// have gone idle longer than ttl.
type envRegistry struct {
	environment string
	prefix      string

	sub *prometheus.Registry

	mu       sync.RWMutex
	families map[string]*family
}

func newEnvRegistry(environment, prefix string) *envRegistry {
	return &envRegistry{
		environment: environment,
		prefix:      prefix,
		sub:         prometheus.NewRegistry(),
		families:    make(map[string]*family),
	}
}

// IncLinesParsed counts one successfully parsed line, carrying the line's
// own label set (e.g. remote_addr, status) in addition to environment.
func (e *envRegistry) IncLinesParsed(labels prometheus.Labels, now time.Time) error {
	return e.incReserved(linesParsedName, labels, now)
}

// IncParserErrors counts one line that failed to parse. labels is typically
// empty, since a malformed line may not have yielded any label values.
func (e *envRegistry) IncParserErrors(labels prometheus.Labels, now time.Time) error {
	return e.incReserved(parserErrorsName, labels, now)
}

func (e *envRegistry) incReserved(name string, labels prometheus.Labels, now time.Time) error {
	fam, err := e.getOrCreate(name, counterFamily, labels, nil, true)
	if err != nil {
		return err
	}

	return fam.incCounter(labels, 1, now)
}

func (e *envRegistry) fullName(name string, reserved bool) string {
	if reserved {
		return name
	}

	return e.prefix + ":" + name
}

func labelNamesOf(labels prometheus.Labels) []string {
	names := make([]string, 0, len(labels))
	for name := range labels {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// getOrCreate returns the family for name, creating it with the given kind
// and the label-name set implied by labels if this is the first observation.
// A label-name-set mismatch against an already-created family is reported
// as an error rather than silently accepted, per the fixed-schema invariant.
func (e *envRegistry) getOrCreate(
	name string, kind familyKind, labels prometheus.Labels, buckets []float64, reserved bool,
) (*family, error) {
	fqName := e.fullName(name, reserved)
	labelNames := labelNamesOf(labels)

	e.mu.RLock()
	existing, ok := e.families[fqName]
	e.mu.RUnlock()

	if ok {
		if !existing.sameLabelNames(labelNames) {
			return nil, fmt.Errorf(
				"family %s: label set changed from %v to %v", fqName, existing.labelNames, labelNames,
			)
		}

		return existing, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if existing, ok := e.families[fqName]; ok {
		if !existing.sameLabelNames(labelNames) {
			return nil, fmt.Errorf(
				"family %s: label set changed from %v to %v", fqName, existing.labelNames, labelNames,
			)
		}

		return existing, nil
	}

	newFam := newFamily(
		kind, fqName, fmt.Sprintf("Derived metric %q.", name), labelNames, buckets,
		prometheus.Labels{ReservedLabel: e.environment},
	)
	if err := e.sub.Register(newFam.collector()); err != nil {
		return nil, fmt.Errorf("registering family %s: %w", fqName, err)
	}

	e.families[fqName] = newFam

	return newFam, nil
}

// IncCounter auto-creates name as a counter family on first call and adds
// amount to the series identified by labels.
func (e *envRegistry) IncCounter(name string, labels prometheus.Labels, amount float64, now time.Time) error {
	fam, err := e.getOrCreate(name, counterFamily, labels, nil, false)
	if err != nil {
		return err
	}

	return fam.incCounter(labels, amount, now)
}

// SetGauge auto-creates name as a gauge family on first call and sets the
// series identified by labels.
func (e *envRegistry) SetGauge(name string, labels prometheus.Labels, value float64, now time.Time) error {
	fam, err := e.getOrCreate(name, gaugeFamily, labels, nil, false)
	if err != nil {
		return err
	}

	return fam.setGauge(labels, value, now)
}

// Observe auto-creates name as a histogram family with buckets on first
// call and observes value into the series identified by labels.
func (e *envRegistry) Observe(
	name string, labels prometheus.Labels, value float64, buckets []float64, now time.Time,
) error {
	fam, err := e.getOrCreate(name, histogramFamily, labels, buckets, false)
	if err != nil {
		return err
	}

	return fam.observe(labels, value, now)
}

// gc evicts idle series from every family, returning the number evicted.
func (e *envRegistry) gc(now time.Time, ttl time.Duration) int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	evicted := 0

	for _, fam := range e.families {
		evicted += fam.gc(now, ttl)
	}

	return evicted
}

// activeSeries returns the number of series currently tracked across all
// families in this environment.
func (e *envRegistry) activeSeries() int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	count := 0
	for _, fam := range e.families {
		count += fam.activeSeries()
	}

	return count
}
