package config

import (
	"log/slog"
)

//nolint:gochecknoglobals
var Defaults = Config{
	ConfigFile:   "config.yaml",
	ScrapeConfig: "scrapeconfig.yml",
	Debug: Debug{
		ListenAddress: ":9001",
	},
	Log: Log{
		Format: "console",
		Level:  slog.LevelInfo,
	},
	Web: Web{
		ListenAddress: ":5000",
	},
}
