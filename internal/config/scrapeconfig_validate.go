package config

import (
	"fmt"
	"regexp"
)

var prefixPattern = regexp.MustCompile(`^[a-zA-Z_:][a-zA-Z0-9_:]*$`)

// ReservedLabel is the label name the registry attaches to every series
// itself; a schema column may not claim it.
const ReservedLabel = "environment"

// ReservedMetricNames are the self-observed family names a user-declared
// column may not collide with.
var ReservedMetricNames = map[string]struct{}{
	"parser_errors": {},
	"lines_parsed":  {},
	"in_bytes":      {},
}

// ValidateScrapeConfig checks the parts of a ScrapeConfig that must hold
// regardless of source (file or script): prefix shape, reserved names,
// histogram bucket-set references, and at least one target being declared.
func ValidateScrapeConfig(conf ScrapeConfig) error {
	if !prefixPattern.MatchString(conf.Global.Prefix) {
		return fmt.Errorf("global.prefix %q does not match %s", conf.Global.Prefix, prefixPattern)
	}

	if conf.Global.TTL.Duration() <= 0 {
		return fmt.Errorf("global.ttl must be greater than zero")
	}

	if err := validateFormat(conf.Global); err != nil {
		return err
	}

	if len(conf.Local) == 0 && len(conf.SSH.Environments) == 0 {
		return fmt.Errorf("scrape config declares no local or ssh targets")
	}

	for _, target := range conf.Local {
		if target.Path == "" {
			return fmt.Errorf("local target is missing a path")
		}
	}

	for name, env := range conf.SSH.Environments {
		if len(env.Hosts) == 0 {
			return fmt.Errorf("ssh environment %q declares no hosts", name)
		}

		resolved := conf.SSH.Resolved(env)
		if resolved.File == "" {
			return fmt.Errorf("ssh environment %q has no file set and ssh.file has no default", name)
		}

		if resolved.User == "" {
			return fmt.Errorf("ssh environment %q has no user set and ssh.user has no default", name)
		}
	}

	return nil
}

func validateFormat(global GlobalConfig) error {
	seenNames := make(map[string]struct{}, len(global.Format))

	for _, column := range global.Format {
		if column.Skip {
			continue
		}

		if column.Name == ReservedLabel {
			return fmt.Errorf("column %q uses the reserved label name %q", column.Name, ReservedLabel)
		}

		if _, reserved := ReservedMetricNames[column.Name]; reserved {
			return fmt.Errorf("column %q collides with a reserved metric name", column.Name)
		}

		if _, dup := seenNames[column.Name]; dup {
			return fmt.Errorf("column %q declared more than once", column.Name)
		}

		seenNames[column.Name] = struct{}{}

		bucketSet, isHistogram := column.BucketSet()
		if !isHistogram {
			continue
		}

		if _, ok := global.Histograms[bucketSet]; !ok {
			return fmt.Errorf("column %q references undefined histogram bucket set %q", column.Name, bucketSet)
		}
	}

	return nil
}
