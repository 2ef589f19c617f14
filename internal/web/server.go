// Package web exposes the merged Prometheus exposition over HTTP.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/jkroepke/logscrape-exporter/internal/registry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewServer builds the HTTP server for the exposition endpoint. Every
// request builds a fresh NameFilter over reg and selfReg so the "name[]"
// query parameter restricts output without mutating shared state.
func NewServer(addr string, reg prometheus.Gatherer, selfReg prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/", handleExposition(reg, selfReg))
	mux.HandleFunc("/health", handleHealth)

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleExposition(reg prometheus.Gatherer, selfReg prometheus.Gatherer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merged := prometheus.Gatherers{reg, selfReg}
		filtered := registry.NewNameFilter(merged, r.URL.Query()["name[]"])

		promhttp.HandlerFor(filtered, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	}
}

// Shutdown gracefully stops srv, bounded by ctx.
func Shutdown(ctx context.Context, srv *http.Server) error {
	return srv.Shutdown(ctx) //nolint:wrapcheck
}
