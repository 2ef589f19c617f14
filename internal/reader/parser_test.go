package reader_test

import (
	"errors"
	"testing"

	"github.com/jkroepke/logscrape-exporter/internal/config"
	"github.com/jkroepke/logscrape-exporter/internal/reader"
	"github.com/stretchr/testify/require"
)

func clfSchema() config.FormatColumns {
	return config.FormatColumns{
		{Name: "remote_addr", Kind: "label"},
		{Name: "status", Kind: "label"},
		{Name: "bytes", Kind: "clf_number"},
		{Name: "request", Kind: "request_header"},
	}
}

// TestParseScenario1 mirrors the worked example: remote_addr/status
// labels, a CLF byte count, and a request line split into its three
// standard sub-fields.
func TestParseScenario1(t *testing.T) {
	t.Parallel()

	p := reader.NewLineParser(clfSchema())

	parsed, err := p.Parse(`1.2.3.4 200 - "GET /x HTTP/1.1"`)
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"remote_addr":          "1.2.3.4",
		"status":               "200",
		"request_method":       "GET",
		"request_uri":          "/x",
		"request_http_version": "HTTP/1.1",
	}, parsed.Labels)
	require.Equal(t, map[string]float64{"bytes": 0}, parsed.Values)
}

// TestParseScenario2 mirrors the worked example where the request_header
// column doesn't contain a well-formed three-part request line.
func TestParseScenario2(t *testing.T) {
	t.Parallel()

	p := reader.NewLineParser(clfSchema())

	parsed, err := p.Parse("1.2.3.4 200 - -")
	require.Nil(t, parsed)

	var parseErr *reader.ParseError

	require.ErrorAs(t, err, &parseErr)
}

// TestParseRequestHeaderRejectsExtraFields covers the boundary case where a
// request_header token has more than three whitespace-separated fields —
// e.g. a quoted URI with an embedded space — and must be a parse error
// rather than silently folding the extra text into request_http_version.
func TestParseRequestHeaderRejectsExtraFields(t *testing.T) {
	t.Parallel()

	p := reader.NewLineParser(clfSchema())

	parsed, err := p.Parse(`1.2.3.4 200 - "GET /x HTTP/1.1 junk"`)
	require.Nil(t, parsed)

	var parseErr *reader.ParseError

	require.ErrorAs(t, err, &parseErr)
}

func TestParseEmptyLineIsSkipped(t *testing.T) {
	t.Parallel()

	p := reader.NewLineParser(clfSchema())

	parsed, err := p.Parse("")
	require.Nil(t, parsed)
	require.ErrorIs(t, err, reader.ErrSkipLine)
}

func TestParseColumnCountMismatch(t *testing.T) {
	t.Parallel()

	p := reader.NewLineParser(clfSchema())

	parsed, err := p.Parse("1.2.3.4 200")
	require.Nil(t, parsed)

	var parseErr *reader.ParseError

	require.ErrorAs(t, err, &parseErr)
}

func TestParseIndependentLines(t *testing.T) {
	t.Parallel()

	p := reader.NewLineParser(clfSchema())

	// A failing line must not leak state into the next one.
	_, err := p.Parse("1.2.3.4 200 - -")
	require.Error(t, err)

	parsed, err := p.Parse(`5.6.7.8 404 12 "POST /y HTTP/2"`)
	require.NoError(t, err)
	require.Equal(t, "5.6.7.8", parsed.Labels["remote_addr"])
	require.InDelta(t, float64(12), parsed.Values["bytes"], 0)
}

func TestParseNumberColumn(t *testing.T) {
	t.Parallel()

	p := reader.NewLineParser(config.FormatColumns{
		{Name: "duration", Kind: "number"},
	})

	parsed, err := p.Parse("0.5")
	require.NoError(t, err)
	require.InDelta(t, 0.5, parsed.Values["duration"], 0)

	_, err = p.Parse("not-a-number")
	require.Error(t, err)

	var parseErr *reader.ParseError
	require.True(t, errors.As(err, &parseErr))
}

func TestParseSkippedColumn(t *testing.T) {
	t.Parallel()

	p := reader.NewLineParser(config.FormatColumns{
		{Skip: true},
		{Name: "status", Kind: "label"},
	})

	parsed, err := p.Parse("whatever 200")
	require.NoError(t, err)
	require.Equal(t, map[string]string{"status": "200"}, parsed.Labels)
	require.Empty(t, parsed.Values)
}

func TestParseHistogramColumnCarriesPlainValue(t *testing.T) {
	t.Parallel()

	p := reader.NewLineParser(config.FormatColumns{
		{Name: "duration", Kind: "number+default"},
	})

	parsed, err := p.Parse("2.0")
	require.NoError(t, err)
	require.InDelta(t, 2.0, parsed.Values["duration"], 0)
}
