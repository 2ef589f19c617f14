package config

import (
	"fmt"
)

// Validate validates the CLI-level config. Scrape-config validation lives in
// ValidateScrapeConfig, since it is loaded independently from $SCRAPECONFIG.
func Validate(conf Config) error {
	switch conf.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log format: %s", conf.Log.Format)
	}

	if conf.ScrapeConfig == "" {
		return fmt.Errorf("scrape config path must not be empty")
	}

	return nil
}
