package tail_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jkroepke/logscrape-exporter/internal/config"
	"github.com/jkroepke/logscrape-exporter/internal/registry"
	"github.com/jkroepke/logscrape-exporter/internal/selfmetrics"
	"github.com/jkroepke/logscrape-exporter/internal/tail"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/require"
)

func clfSchema() config.GlobalConfig {
	return config.GlobalConfig{
		Prefix: "myapp",
		Format: config.FormatColumns{
			{Name: "remote_addr", Kind: "label"},
			{Name: "status", Kind: "label"},
			{Name: "bytes", Kind: "clf_number"},
			{Name: "request", Kind: "request_header"},
		},
	}
}

func newEmitter(tb testing.TB, global config.GlobalConfig, reg *registry.Registry) *tail.Emitter {
	tb.Helper()

	return tail.NewEmitter(global, reg, selfmetrics.New(), "prod", slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func exposition(tb testing.TB, reg *registry.Registry) string {
	tb.Helper()

	req, err := http.NewRequest(http.MethodGet, "/", nil) //nolint:noctx
	require.NoError(tb, err)

	rec := httptest.NewRecorder()
	promhttp.HandlerFor(reg, promhttp.HandlerOpts{}).ServeHTTP(rec, req)

	body, err := io.ReadAll(rec.Body)
	require.NoError(tb, err)

	return string(body)
}

func TestProcessLineIncrementsLinesParsedAndFields(t *testing.T) {
	t.Parallel()

	reg := registry.New("myapp")
	emitter := newEmitter(t, clfSchema(), reg)

	emitter.ProcessLine(`1.2.3.4 200 - "GET /x HTTP/1.1"`, 40)

	out := exposition(t, reg)
	require.Contains(t, out, `lines_parsed{environment="prod",remote_addr="1.2.3.4",request_http_version="HTTP/1.1",request_method="GET",request_uri="/x",status="200"} 1`)
	require.Contains(t, out, `myapp:bytes{environment="prod",remote_addr="1.2.3.4",request_http_version="HTTP/1.1",request_method="GET",request_uri="/x",status="200"} 0`)
}

func TestProcessLineParseErrorIncrementsParserErrors(t *testing.T) {
	t.Parallel()

	reg := registry.New("myapp")
	emitter := newEmitter(t, clfSchema(), reg)

	emitter.ProcessLine("1.2.3.4 200 - -", 16)

	out := exposition(t, reg)
	require.Contains(t, out, `parser_errors{environment="prod"} 1`)
	require.NotContains(t, out, "lines_parsed")
}

func TestProcessLineEmptyLineIsIgnored(t *testing.T) {
	t.Parallel()

	reg := registry.New("myapp")
	emitter := newEmitter(t, clfSchema(), reg)

	emitter.ProcessLine("", 0)

	out := exposition(t, reg)
	require.NotContains(t, out, "parser_errors")
	require.NotContains(t, out, "lines_parsed")
}

func TestProcessLineHistogramColumn(t *testing.T) {
	t.Parallel()

	global := config.GlobalConfig{
		Prefix: "myapp",
		Histograms: map[string][]float64{
			"default": {0.1, 1},
		},
		Format: config.FormatColumns{
			{Name: "duration", Kind: "number+default"},
		},
	}

	reg := registry.New("myapp")
	emitter := newEmitter(t, global, reg)

	emitter.ProcessLine("0.05", 5)
	emitter.ProcessLine("0.5", 4)
	emitter.ProcessLine("2.0", 4)

	out := exposition(t, reg)
	require.Contains(t, out, `myapp:duration_bucket{environment="prod",le="0.1"} 1`)
	require.Contains(t, out, `myapp:duration_bucket{environment="prod",le="1"} 2`)
	require.Contains(t, out, `myapp:duration_bucket{environment="prod",le="+Inf"} 3`)
}
