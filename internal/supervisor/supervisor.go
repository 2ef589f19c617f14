// Package supervisor owns the reload algorithm: it loads the scrape
// config, diffs the desired set of targets against the workers currently
// running, starts new tail workers and stops removed ones, and repeats on
// a timer or on demand.
package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jkroepke/logscrape-exporter/internal/config"
	"github.com/jkroepke/logscrape-exporter/internal/registry"
	"github.com/jkroepke/logscrape-exporter/internal/selfmetrics"
	"github.com/jkroepke/logscrape-exporter/internal/tail"
)

// oneYear stands in for "no reload-interval configured": the supervisor
// still owns a timer, it just never fires in practice.
const oneYear = 365 * 24 * time.Hour

// worker is the subset of tail.LocalWorker/tail.SSHWorker the supervisor
// needs to start, stop, and health-check a target.
type worker interface {
	ID() string
	Run(ctx context.Context)
	Stop()
	Connected() bool
}

type workerHandle struct {
	worker      worker
	environment string
	host        string
	done        chan struct{}
}

// WorkerStatus is a point-in-time snapshot of one running target, for the
// health reporter's connected/disconnected metrics.
type WorkerStatus struct {
	ID          string
	Environment string
	Host        string
	Connected   bool
}

// Supervisor reconciles running tail workers against a scrape config
// loaded from a file or a config-generating script.
type Supervisor struct {
	path     string
	registry *registry.Registry
	metrics  *selfmetrics.Metrics
	logger   *slog.Logger
	onFatal  func(error)

	mu      sync.Mutex
	running map[string]*workerHandle
	current config.ScrapeConfig
}

// New builds a Supervisor that reconciles against the scrape config named
// by path. onFatal is forwarded to every SSH worker; each worker invokes it
// at most once, when it hits a failure outside the expected taxonomy.
func New(
	path string, reg *registry.Registry, metrics *selfmetrics.Metrics, logger *slog.Logger, onFatal func(error),
) *Supervisor {
	return &Supervisor{
		path:     path,
		registry: reg,
		metrics:  metrics,
		logger:   logger,
		onFatal:  onFatal,
		running:  make(map[string]*workerHandle),
	}
}

// Run loads the scrape config, reconciles workers, and repeats every
// reload-interval (or effectively never, if unset) until ctx is canceled.
// reloadCh lets the caller (e.g. a SIGHUP handler) trigger an immediate
// reload out of band.
func (s *Supervisor) Run(ctx context.Context, reloadCh <-chan struct{}) error {
	if err := s.reconcile(ctx); err != nil {
		return err
	}

	interval := oneYear
	if d := s.current.Global.ReloadInterval.Duration(); d > 0 {
		interval = d
	}

	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.stopAll()

			return nil //nolint:nilerr
		case <-reloadCh:
			s.reload(ctx)
		case <-timer.C:
			s.reload(ctx)
		}

		interval = oneYear
		if d := s.current.Global.ReloadInterval.Duration(); d > 0 {
			interval = d
		}

		timer.Reset(interval)
	}
}

func (s *Supervisor) reload(ctx context.Context) {
	// reconcile has already counted the failure in script_load_events.
	if err := s.reconcile(ctx); err != nil {
		s.logger.Error("reload failed, keeping previous config", "error", err)
	}
}

// reconcile loads the scrape config and diffs it against the running
// worker set, starting new targets and stopping removed ones. It returns
// once every removed worker has been joined, per the "removing it joins
// that worker before the next reload completes" invariant.
func (s *Supervisor) reconcile(ctx context.Context) error {
	start := time.Now()

	conf, err := s.load(ctx)
	if err != nil {
		s.metrics.ScriptLoadEvents.WithLabelValues("error").Inc()

		return err
	}

	s.metrics.ScriptLoadEvents.WithLabelValues("success").Inc()
	s.metrics.ScriptExecutionTime.Observe(time.Since(start).Seconds())

	desired := buildTargets(conf)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = conf
	s.registry.SetPrefix(conf.Global.Prefix)

	desiredIDs := make(map[string]struct{}, len(desired))
	for _, t := range desired {
		desiredIDs[t.id] = struct{}{}
	}

	for id, handle := range s.running {
		if _, keep := desiredIDs[id]; keep {
			continue
		}

		handle.worker.Stop()
		<-handle.done
		delete(s.running, id)
	}

	for _, t := range desired {
		if _, exists := s.running[t.id]; exists {
			continue
		}

		emitter := tail.NewEmitter(conf.Global, s.registry, s.metrics, t.environment, s.logger.With("target", t.id))

		w := t.build(emitter, s.metrics, s.logger, s.onFatal)

		handle := &workerHandle{worker: w, environment: t.environment, host: t.host, done: make(chan struct{})}
		s.running[t.id] = handle

		go func() {
			defer close(handle.done)

			w.Run(ctx)
		}()
	}

	return nil
}

func (s *Supervisor) load(ctx context.Context) (config.ScrapeConfig, error) {
	if s.current.Script != "" {
		return config.LoadScrapeConfigFromScript(ctx, s.current.Script)
	}

	return config.LoadScrapeConfig(ctx, s.path)
}

func (s *Supervisor) stopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, handle := range s.running {
		handle.worker.Stop()
		<-handle.done
		delete(s.running, id)
	}
}

// TTL returns the eviction horizon from the most recently loaded scrape
// config, or 0 before the first successful reconcile.
func (s *Supervisor) TTL() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.current.Global.TTL.Duration()
}

// Workers returns a snapshot of every running target's connection state,
// for the health reporter.
func (s *Supervisor) Workers() []WorkerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make([]WorkerStatus, 0, len(s.running))
	for id, handle := range s.running {
		snapshot = append(snapshot, WorkerStatus{
			ID:          id,
			Environment: handle.environment,
			Host:        handle.host,
			Connected:   handle.worker.Connected(),
		})
	}

	return snapshot
}

// target is a desired tail target, resolved from either config.Local or
// config.SSH.Environments.
type target struct {
	id          string
	environment string
	host        string
	build       func(emitter *tail.Emitter, metrics *selfmetrics.Metrics, logger *slog.Logger, onFatal func(error)) worker
}

func buildTargets(conf config.ScrapeConfig) []target {
	targets := make([]target, 0, len(conf.Local))

	for _, local := range conf.Local {
		local := local

		environment := local.Environment
		if environment == "" {
			environment = "N/A"
		}

		targets = append(targets, target{
			id:          fmt.Sprintf("local://%s", local.Path),
			environment: environment,
			build: func(emitter *tail.Emitter, metrics *selfmetrics.Metrics, logger *slog.Logger, _ func(error)) worker {
				return tail.NewLocalWorker(local.Path, emitter, metrics, logger)
			},
		})
	}

	for envName, env := range conf.SSH.Environments {
		envName := envName
		resolved := conf.SSH.Resolved(env)

		for _, host := range env.Hosts {
			host := host

			targets = append(targets, target{
				id:          fmt.Sprintf("ssh://%s/%s", host, resolved.File),
				environment: envName,
				host:        host,
				build: func(emitter *tail.Emitter, metrics *selfmetrics.Metrics, logger *slog.Logger, onFatal func(error)) worker {
					return tail.NewSSHWorker(host, envName, resolved, emitter, metrics, logger, onFatal)
				},
			})
		}
	}

	return targets
}
