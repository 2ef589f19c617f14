// Package registry implements the TTL-based metric registry: one
// sub-registry per environment, auto-creating counter/gauge/histogram
// families on first observation and evicting series that go idle past a
// configured TTL.
package registry

import (
	"sync"
	"time"

	dto "github.com/prometheus/client_model/go"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the top-level, environment-partitioned metric store. It
// implements prometheus.Gatherer by merging every environment's
// sub-registry, so it can be exposed directly or wrapped by a filtering
// Gatherer.
type Registry struct {
	prefix string

	mu   sync.RWMutex
	envs map[string]*envRegistry
}

// New creates an empty Registry. Environments are created lazily by Env on
// first use.
func New(prefix string) *Registry {
	return &Registry{prefix: prefix, envs: make(map[string]*envRegistry)}
}

// SetPrefix changes the metric name prefix applied to environments created
// from this point on. It is called once per reconcile, before the
// supervisor builds emitters for newly discovered environments; environments
// created under an earlier prefix keep it, since their families already
// exist.
func (r *Registry) SetPrefix(prefix string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefix = prefix
}

// Env returns the sub-registry for environment, creating it on first call.
func (r *Registry) Env(environment string) *envRegistry { //nolint:revive
	r.mu.RLock()
	env, ok := r.envs[environment]
	r.mu.RUnlock()

	if ok {
		return env
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if env, ok := r.envs[environment]; ok {
		return env
	}

	env = newEnvRegistry(environment, r.prefix)
	r.envs[environment] = env

	return env
}

// Gather implements prometheus.Gatherer, merging every environment's
// sub-registry into one set of metric families.
func (r *Registry) Gather() ([]*dto.MetricFamily, error) {
	r.mu.RLock()
	gatherers := make(prometheus.Gatherers, 0, len(r.envs))

	for _, env := range r.envs {
		gatherers = append(gatherers, env.sub)
	}

	r.mu.RUnlock()

	return gatherers.Gather() //nolint:wrapcheck
}

// GC runs one eviction pass across every environment, returning the total
// number of series evicted.
func (r *Registry) GC(ttl time.Duration) int {
	now := time.Now()

	r.mu.RLock()
	defer r.mu.RUnlock()

	evicted := 0
	for _, env := range r.envs {
		evicted += env.gc(now, ttl)
	}

	return evicted
}

// ActiveSeries returns the number of series currently tracked across every
// environment.
func (r *Registry) ActiveSeries() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, env := range r.envs {
		count += env.activeSeries()
	}

	return count
}

// Environments returns the currently known environment names.
func (r *Registry) Environments() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.envs))
	for name := range r.envs {
		names = append(names, name)
	}

	return names
}
