package config

import (
	"encoding/json"
	"log/slog"
)

// Config holds the CLI-level settings of the daemon: where to listen, how to
// log, and whether debug endpoints are enabled. It is distinct from
// ScrapeConfig (scrapeconfig.go), which describes the log schema and the set
// of targets to follow and is loaded separately from $SCRAPECONFIG.
type Config struct {
	ConfigFile   string `json:"config"       yaml:"config"`
	ScrapeConfig string `json:"scrapeConfig" yaml:"scrapeConfig"`
	Web          Web    `json:"web"          yaml:"web"`
	Log          Log    `json:"log"          yaml:"log"`
	Debug        Debug  `json:"debug"        yaml:"debug"`
	VerifyConfig bool   `json:"-"`
}

type Log struct {
	Format string     `json:"format" yaml:"format"`
	Level  slog.Level `json:"level"  yaml:"level"`
}

type Debug struct {
	Enable        bool   `json:"enable"        yaml:"enable"`
	ListenAddress string `json:"listenAddress" yaml:"listenAddress"`
}

type Web struct {
	ListenAddress string `json:"listenAddress" yaml:"listenAddress"`
}

//goland:noinspection GoMixedReceiverTypes
func (c Config) String() string {
	jsonString, err := json.Marshal(c)
	if err != nil {
		panic(err)
	}

	return string(jsonString)
}
