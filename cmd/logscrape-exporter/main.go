// SPDX-License-Identifier: Apache-2.0
//
// Copyright Jan-Otto Kröpke
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"sync"
	"syscall"
	"time"

	"github.com/jkroepke/logscrape-exporter/internal/config"
	"github.com/jkroepke/logscrape-exporter/internal/health"
	"github.com/jkroepke/logscrape-exporter/internal/registry"
	"github.com/jkroepke/logscrape-exporter/internal/selfmetrics"
	"github.com/jkroepke/logscrape-exporter/internal/supervisor"
	"github.com/jkroepke/logscrape-exporter/internal/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	versioncollector "github.com/prometheus/client_golang/prometheus/collectors/version"
	"github.com/prometheus/common/version"
)

type ReturnCode = int

const (
	// ReturnCodeNoError indicates that the program should continue running.
	ReturnCodeNoError ReturnCode = -2
	// ReturnCodeOK indicates a successful execution of the program.
	ReturnCodeOK ReturnCode = 0
	// ReturnCodeError indicates an error during execution.
	ReturnCodeError ReturnCode = 1
)

func main() {
	termCh := make(chan os.Signal, 1)
	signal.Notify(termCh, os.Interrupt, syscall.SIGHUP, syscall.SIGTERM)

	os.Exit(run(context.Background(), os.Args, os.Stdout, termCh)) //nolint:forbidigo // entry point
}

// run is the main entry point for the daemon.
//
//nolint:cyclop,gocognit
func run(ctx context.Context, args []string, stdout io.Writer, termCh <-chan os.Signal) ReturnCode {
	conf, logger, rc := initializeConfigAndLogger(args, stdout)
	if rc != ReturnCodeNoError {
		return rc
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	logger.LogAttrs(ctx, slog.LevelDebug, "config", slog.String("config", conf.String()))

	if conf.VerifyConfig {
		if _, err := config.LoadScrapeConfig(ctx, conf.ScrapeConfig); err != nil {
			logger.ErrorContext(ctx, "scrape config is invalid", slog.Any("error", err))

			return ReturnCodeError
		}

		return ReturnCodeOK
	}

	wg := &sync.WaitGroup{}
	defer wg.Wait()

	prometheus.DefaultGatherer = nil
	prometheus.DefaultRegisterer = nil

	reg := registry.New("") // prefix is resolved per-reload from global.prefix

	selfReg := prometheus.NewRegistry()
	selfMetrics := selfmetrics.New()
	selfReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewBuildInfoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		versioncollector.NewCollector("logscrape_exporter"),
		selfMetrics,
	)

	var fatalOnce sync.Once

	onFatal := func(err error) {
		fatalOnce.Do(func() { cancel(err) })
	}

	reconfigurer := supervisor.New(conf.ScrapeConfig, reg, selfMetrics, logger, onFatal)

	reloadCh := make(chan struct{}, 1)

	wg.Add(1)

	go func() {
		defer wg.Done()

		if err := reconfigurer.Run(ctx, reloadCh); err != nil {
			onFatal(err)
		}
	}()

	reporter := health.New(reg, selfMetrics, logger, time.Minute)

	wg.Add(1)

	go func() {
		defer wg.Done()

		reporter.Run(ctx, reconfigurer)
	}()

	server := web.NewServer(conf.Web.ListenAddress, reg, selfReg)
	server.ErrorLog = slog.NewLogLogger(logger.Handler(), slog.LevelError)

	wg.Add(1)

	go func() {
		defer wg.Done()

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			cancel(err)
		}
	}()

	if conf.Debug.Enable {
		go serveDebug(conf.Debug.ListenAddress, logger)
	}

	for {
		select {
		case <-ctx.Done():
			serverShutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()

			if err := server.Shutdown(serverShutdownCtx); err != nil {
				logger.ErrorContext(ctx, "error shutting down server", slog.Any("error", err))
			} else {
				logger.InfoContext(ctx, "server shutdown gracefully")
			}

			if err := context.Cause(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.ErrorContext(ctx, err.Error())

				return ReturnCodeError
			}

			return ReturnCodeOK
		case sig := <-termCh:
			logger.LogAttrs(ctx, slog.LevelInfo, "receiving signal: "+sig.String())

			switch sig {
			case syscall.SIGHUP:
				logger.LogAttrs(ctx, slog.LevelInfo, "reloading configuration")

				select {
				case reloadCh <- struct{}{}:
				default:
				}
			default:
				cancel(nil)
			}
		}
	}
}

func serveDebug(addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	if err := http.ListenAndServe(addr, mux); err != nil { //nolint:gosec
		logger.Error("debug listener failed", "error", err)
	}
}

// initializeConfigAndLogger handles configuration parsing and logger setup.
func initializeConfigAndLogger(args []string, stdout io.Writer) (config.Config, *slog.Logger, ReturnCode) {
	conf, err := setupConfiguration(args, stdout)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return config.Config{}, nil, ReturnCodeOK
		}

		if errors.Is(err, config.ErrVersion) {
			printVersion(stdout)

			return config.Config{}, nil, ReturnCodeOK
		}

		_, _ = fmt.Fprintln(stdout, err.Error())

		return config.Config{}, nil, ReturnCodeError
	}

	logger, err := setupLogger(conf, stdout)
	if err != nil {
		_, _ = fmt.Fprintln(stdout, fmt.Errorf("error setupConfiguration logging: %w", err).Error())

		return config.Config{}, nil, ReturnCodeError
	}

	return conf, logger, ReturnCodeNoError
}

// setupConfiguration parses the command line arguments and loads the configuration.
func setupConfiguration(args []string, logWriter io.Writer) (config.Config, error) {
	conf, err := config.New(args, logWriter)
	if err != nil {
		return config.Config{}, fmt.Errorf("configuration error: %w", err)
	}

	if err = config.Validate(conf); err != nil {
		return config.Config{}, fmt.Errorf("configuration validation error: %w", err)
	}

	return conf, nil
}

func printVersion(writer io.Writer) {
	//goland:noinspection GoBoolExpressions
	if version.Version == "" {
		if buildInfo, ok := debug.ReadBuildInfo(); ok {
			_, _ = fmt.Fprintf(writer, "version: %s\ncommit: %v\ngo: %s\n", buildInfo.Main.Version, version.GetRevision(), buildInfo.GoVersion)

			return
		}
	}

	_, _ = fmt.Fprintf(writer, "version: %s\ncommit: %s\ndate: %s\ngo: %s\n", version.Version, version.GetRevision(), version.BuildDate, runtime.Version())
}

// setupLogger initializes the logger based on the configuration.
func setupLogger(conf config.Config, writer io.Writer) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{
		AddSource: false,
		Level:     conf.Log.Level,
	}

	switch conf.Log.Format {
	case "json":
		return slog.New(slog.NewJSONHandler(writer, opts)), nil
	case "console":
		return slog.New(slog.NewTextHandler(writer, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format: %s", conf.Log.Format)
	}
}
