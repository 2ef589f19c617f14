package config

import (
	"flag"
)

//goland:noinspection GoMixedReceiverTypes
func (c *Config) flagSet(flagSet *flag.FlagSet) {
	flagSet.StringVar(
		&c.ConfigFile,
		"config",
		"",
		"path to one .yaml config file with web/log/debug settings",
	)

	flagSet.BoolVar(
		&c.VerifyConfig,
		"verify-config",
		c.VerifyConfig,
		"Enable this flag to load and validate $SCRAPECONFIG, then exit",
	)

	flagSet.StringVar(
		&c.ScrapeConfig,
		"scrapeconfig",
		lookupEnvOrDefault("SCRAPECONFIG", c.ScrapeConfig),
		"path to the scrape configuration (log schema + targets). Defaults to $SCRAPECONFIG when set.",
	)

	c.flagSetDebug(flagSet)
	c.flagSetWeb(flagSet)
	c.flagSetLog(flagSet)
}

//goland:noinspection GoMixedReceiverTypes
func (c *Config) flagSetDebug(flagSet *flag.FlagSet) {
	flagSet.BoolVar(
		&c.Debug.Enable,
		"debug.pprof",
		lookupEnvOrDefault("debug.pprof", c.Debug.Enable),
		"Enables go profiling endpoint. This should be never exposed.",
	)
	flagSet.StringVar(
		&c.Debug.ListenAddress,
		"debug.listen",
		lookupEnvOrDefault("debug.listen", c.Debug.ListenAddress),
		"listen address for go profiling endpoint",
	)
}

//goland:noinspection GoMixedReceiverTypes
func (c *Config) flagSetWeb(flagSet *flag.FlagSet) {
	flagSet.StringVar(
		&c.Web.ListenAddress,
		"web.listen-address",
		lookupEnvOrDefault("web.listen-address", c.Web.ListenAddress),
		"Address on which to expose the exposition endpoint. Default is `:5000`, per the operator contract.",
	)
}

//goland:noinspection GoMixedReceiverTypes
func (c *Config) flagSetLog(flagSet *flag.FlagSet) {
	flagSet.StringVar(
		&c.Log.Format,
		"log.format",
		lookupEnvOrDefault("log.format", c.Log.Format),
		"Log format. One of: console, json",
	)

	flagSet.TextVar(
		&c.Log.Level,
		"log.level",
		c.Log.Level,
		"Log level. One of: debug, info, warn, error",
	)
}
