package tail

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os/exec"

	"github.com/jkroepke/logscrape-exporter/internal/selfmetrics"
)

// LocalWorker tails a file on the machine the exporter runs on by spawning
// `tail -F -n0`, the same approach an operator would reach for by hand: it
// survives log rotation (recreate or rename) and never backfills.
type LocalWorker struct {
	path    string
	emitter *Emitter
	metrics *selfmetrics.Metrics
	logger  *slog.Logger

	state connState
	stop  stopFlag
}

// NewLocalWorker builds a worker that tails path and feeds every line to
// emitter.
func NewLocalWorker(path string, emitter *Emitter, metrics *selfmetrics.Metrics, logger *slog.Logger) *LocalWorker {
	return &LocalWorker{
		path:    path,
		emitter: emitter,
		metrics: metrics,
		logger:  logger.With("target", "local://"+path),
	}
}

// ID returns the target identity used to diff reload plans.
func (w *LocalWorker) ID() string {
	return "local://" + w.path
}

// Connected reports whether the tail process is currently believed alive.
func (w *LocalWorker) Connected() bool {
	return w.state.get()
}

// Stop requests the worker to exit at its next cooperative check point.
func (w *LocalWorker) Stop() {
	w.stop.stop()
}

// Run tails the file until ctx is canceled or Stop is called, retrying
// forever on spawn or I/O errors with a fixed backoff.
func (w *LocalWorker) Run(ctx context.Context) {
	for !w.stop.isStopped() {
		if ctx.Err() != nil {
			return
		}

		if err := w.runOnce(ctx); err != nil {
			w.state.set(false)
			w.logger.Warn("tail failed, retrying", "error", err)
			w.stop.sleep(backoff)
		}
	}
}

func (w *LocalWorker) runOnce(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "tail", "-F", "-n0", w.path)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("tail -F %s: %w", w.path, err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("tail -F %s: %w", w.path, err)
	}

	// The child is killed before Wait, so a read timeout or an error does
	// not leave Wait blocked on a tail process that would never exit.
	defer func() {
		cancel()
		_ = cmd.Wait()
	}() //nolint:errcheck

	w.state.set(true)

	scanner := bufio.NewScanner(stdout)

	err = readLines(runCtx, scanner, func(line string, n int) {
		w.emitter.ProcessLine(line, n)
	})

	w.state.set(false)

	if err == nil {
		return nil
	}

	return fmt.Errorf("tail -F %s: %w", w.path, err)
}
