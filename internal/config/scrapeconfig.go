package config

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/jkroepke/logscrape-exporter/internal/config/types"
)

// DefaultHistogramBuckets is used for a "number+<bucket-set>" column whose
// bucket-set name is absent from global.histograms or maps to an empty list.
var DefaultHistogramBuckets = []float64{0.1, 1, math.Inf(1)}

// ScrapeConfig is the root of the document named by $SCRAPECONFIG. It
// declares the metric schema shared by every target plus the targets
// themselves (local files and/or SSH-tailed remote files).
type ScrapeConfig struct {
	Global GlobalConfig `yaml:"global"`

	// Script, when set, is executed instead of reading the file named by
	// the supervisor's config path. Its stdout must be a document of this
	// same shape.
	Script string `yaml:"script,omitempty"`

	Local []LocalTarget `yaml:"local,omitempty"`
	SSH   SSHConfig     `yaml:"ssh,omitempty"`
}

// Seconds is a plain integer- or float-seconds YAML scalar, as used
// throughout the scrape config's global/ssh timing fields.
type Seconds time.Duration

// UnmarshalYAML implements goccy/go-yaml's BytesUnmarshaler interface.
func (s *Seconds) UnmarshalYAML(b []byte) error {
	var seconds float64

	if err := yaml.Unmarshal(b, &seconds); err != nil {
		return fmt.Errorf("expected a number of seconds: %w", err)
	}

	*s = Seconds(seconds * float64(time.Second))

	return nil
}

// Duration returns s as a time.Duration.
func (s Seconds) Duration() time.Duration {
	return time.Duration(s)
}

// GlobalConfig carries the settings that apply to every metric family
// produced by this scrape config.
type GlobalConfig struct {
	Prefix string `yaml:"prefix"`

	TTL            Seconds `yaml:"ttl"`
	ReloadInterval Seconds `yaml:"reload-interval,omitempty"`

	// Histograms maps a bucket-set name to its boundaries, referenced from
	// Format entries via "number+<bucket-set-name>".
	Histograms map[string][]float64 `yaml:"histograms,omitempty"`

	Format FormatColumns `yaml:"format"`
}

// FormatColumn describes one whitespace-separated token of a log line. Skip
// is true for positional filler columns ("null" or "{name: null}" entries),
// whose value is read but discarded.
type FormatColumn struct {
	Name string
	Kind string
	Skip bool
}

// BucketSet returns the histogram bucket-set name referenced by a
// "number+<bucket-set-name>" column, and whether the column references one
// at all.
func (c FormatColumn) BucketSet() (string, bool) {
	return strings.CutPrefix(c.Kind, "number+")
}

// ResolvedHistograms returns global.histograms with defaults applied: a
// missing or empty bucket list becomes DefaultHistogramBuckets, and +Inf is
// appended to any explicit list that doesn't already end with it.
func (g GlobalConfig) ResolvedHistograms() map[string][]float64 {
	resolved := make(map[string][]float64, len(g.Histograms))

	for name, buckets := range g.Histograms {
		if len(buckets) == 0 {
			resolved[name] = DefaultHistogramBuckets

			continue
		}

		if buckets[len(buckets)-1] != math.Inf(1) {
			buckets = append(buckets, math.Inf(1))
		}

		resolved[name] = buckets
	}

	return resolved
}

// FormatColumns is the ordered list of column entries in global.format. Each
// YAML entry is one of: null, a one-key map of name to kind ("label",
// "number", "number+<bucket-set>", "clf_number", "request_header"), or a
// one-key map of name to null.
type FormatColumns []FormatColumn

// UnmarshalYAML implements goccy/go-yaml's BytesUnmarshaler interface.
func (f *FormatColumns) UnmarshalYAML(b []byte) error {
	var raw []map[string]*string

	if err := yaml.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("global.format: %w", err)
	}

	columns := make(FormatColumns, 0, len(raw))

	for i, entry := range raw {
		if entry == nil {
			columns = append(columns, FormatColumn{Skip: true})

			continue
		}

		if len(entry) != 1 {
			return fmt.Errorf("global.format[%d]: expected exactly one key, got %d", i, len(entry))
		}

		for name, kind := range entry {
			if kind == nil {
				columns = append(columns, FormatColumn{Name: name, Skip: true})

				continue
			}

			columns = append(columns, FormatColumn{Name: name, Kind: *kind})
		}
	}

	*f = columns

	return nil
}

// LocalTarget is a file tailed on the machine the exporter runs on.
type LocalTarget struct {
	Path        string `yaml:"path"`
	Environment string `yaml:"environment,omitempty"`
}

// SSHConfig declares defaults for remote tailing plus the per-environment
// overrides and host lists.
type SSHConfig struct {
	File           string        `yaml:"file,omitempty"`
	User           string        `yaml:"user,omitempty"`
	Password       string        `yaml:"password,omitempty"`
	PrivateKey     string        `yaml:"pkey,omitempty"`
	ConnectTimeout Seconds       `yaml:"connect-timeout,omitempty"`

	Environments map[string]SSHEnvironment `yaml:"environments,omitempty"`
}

// SSHEnvironment is one named group of remote hosts sharing a tail target,
// with any SSHConfig default it chooses to override.
type SSHEnvironment struct {
	Hosts types.HostList `yaml:"hosts"`

	File           string        `yaml:"file,omitempty"`
	User           string        `yaml:"user,omitempty"`
	Password       string        `yaml:"password,omitempty"`
	PrivateKey     string        `yaml:"pkey,omitempty"`
	ConnectTimeout Seconds       `yaml:"connect-timeout,omitempty"`
}

// Resolved returns the effective per-host settings for env, with env's zero
// fields filled in from the SSHConfig defaults.
func (s SSHConfig) Resolved(env SSHEnvironment) SSHEnvironment {
	resolved := env

	if resolved.File == "" {
		resolved.File = s.File
	}

	if resolved.User == "" {
		resolved.User = s.User
	}

	if resolved.Password == "" {
		resolved.Password = s.Password
	}

	if resolved.PrivateKey == "" {
		resolved.PrivateKey = s.PrivateKey
	}

	if resolved.ConnectTimeout == 0 {
		resolved.ConnectTimeout = s.ConnectTimeout
	}

	return resolved
}
