package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/goccy/go-yaml"
)

// ScriptTimeout bounds how long a config-generating script (the top-level
// script key) may run before its execution counts as a cycle failure.
const ScriptTimeout = 60 * time.Second

// LoadScrapeConfig reads and parses the scrape config named by path. If the
// file sets script, the rest of the file is neither validated nor used: the
// result of LoadScrapeConfigFromScript for that command is returned instead.
// Otherwise the file is validated and returned.
func LoadScrapeConfig(ctx context.Context, path string) (ScrapeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ScrapeConfig{}, fmt.Errorf("error opening scrape config %s: %w", path, err)
	}

	if len(data) == 0 {
		return ScrapeConfig{}, ErrEmptyConfigFile
	}

	conf, err := parseScrapeConfig(data)
	if err != nil {
		return ScrapeConfig{}, err
	}

	if conf.Script == "" {
		if validateErr := ValidateScrapeConfig(conf); validateErr != nil {
			return ScrapeConfig{}, validateErr
		}

		return conf, nil
	}

	return LoadScrapeConfigFromScript(ctx, conf.Script)
}

// LoadScrapeConfigFromScript executes command and parses and validates its
// stdout as a scrape config. Every failure is returned as an error, the same
// way LoadScrapeConfig reports one. Supervisor.Run returns the error of its
// first load, which ends the process at startup; a failure on a later
// reload is counted and logged, and the running workers are kept.
func LoadScrapeConfigFromScript(ctx context.Context, command string) (ScrapeConfig, error) {
	runCtx, cancel := context.WithTimeout(ctx, ScriptTimeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "sh", "-c", command)

	stdout, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError

		if errors.As(err, &exitErr) {
			return ScrapeConfig{}, fmt.Errorf("config script %q failed: %w: %s", command, err, exitErr.Stderr)
		}

		return ScrapeConfig{}, fmt.Errorf("config script %q failed: %w", command, err)
	}

	if len(stdout) == 0 {
		return ScrapeConfig{}, ErrEmptyConfigFile
	}

	conf, err := parseScrapeConfig(stdout)
	if err != nil {
		return ScrapeConfig{}, err
	}

	if err := ValidateScrapeConfig(conf); err != nil {
		return ScrapeConfig{}, err
	}

	return conf, nil
}

func parseScrapeConfig(data []byte) (ScrapeConfig, error) {
	var conf ScrapeConfig

	if err := yaml.Unmarshal(data, &conf); err != nil {
		return ScrapeConfig{}, fmt.Errorf("error parsing scrape config: %w", err)
	}

	return conf, nil
}
