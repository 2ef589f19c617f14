package supervisor_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jkroepke/logscrape-exporter/internal/registry"
	"github.com/jkroepke/logscrape-exporter/internal/selfmetrics"
	"github.com/jkroepke/logscrape-exporter/internal/supervisor"
	"github.com/stretchr/testify/require"
)

// TestSupervisorReloadSwapsTargets exercises scenario 5: reloading with a
// new target set joins the worker for the removed target and starts a new
// one for the added target, leaving only the desired target running.
func TestSupervisorReloadSwapsTargets(t *testing.T) {
	if _, err := os.Stat("/usr/bin/tail"); err != nil {
		t.Skip("tail binary not available")
	}

	t.Parallel()

	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.log")
	pathB := filepath.Join(dir, "b.log")

	require.NoError(t, os.WriteFile(pathA, nil, 0o600))
	require.NoError(t, os.WriteFile(pathB, nil, 0o600))

	configPath := filepath.Join(dir, "scrapeconfig.yml")
	writeScrapeConfig(t, configPath, pathA)

	reg := registry.New("")
	metrics := selfmetrics.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	sup := supervisor.New(configPath, reg, metrics, logger, func(error) {})

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	reloadCh := make(chan struct{}, 1)

	runDone := make(chan struct{})

	go func() {
		_ = sup.Run(ctx, reloadCh)
		close(runDone)
	}()

	waitForWorkerID(t, sup, "local://"+pathA)

	writeScrapeConfig(t, configPath, pathB)
	reloadCh <- struct{}{}

	waitForWorkerID(t, sup, "local://"+pathB)

	statuses := sup.Workers()
	require.Len(t, statuses, 1)
	require.Equal(t, "local://"+pathB, statuses[0].ID)

	cancel()

	select {
	case <-runDone:
	case <-time.After(5 * time.Second):
		t.Fatal("supervisor did not shut down")
	}
}

func writeScrapeConfig(t *testing.T, configPath, targetPath string) {
	t.Helper()

	body := "global:\n  prefix: myapp\n  ttl: 60\n  format:\n    - line: label\nlocal:\n  - path: " + targetPath + "\n"
	require.NoError(t, os.WriteFile(configPath, []byte(body), 0o600))
}

func waitForWorkerID(t *testing.T, sup *supervisor.Supervisor, id string) {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)

	for time.Now().Before(deadline) {
		for _, status := range sup.Workers() {
			if status.ID == id {
				return
			}
		}

		time.Sleep(20 * time.Millisecond)
	}

	t.Fatalf("worker %q never appeared", id)
}
