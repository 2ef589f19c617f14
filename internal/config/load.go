package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
)

var (
	ErrVersion         = errors.New("version requested")
	ErrEmptyConfigFile = errors.New("configuration file is empty")
)

// New parses CLI flags (and their environment variable overrides) into a
// Config, optionally merging in a YAML file named by --config.
func New(args []string, output io.Writer) (Config, error) {
	conf := Defaults

	flagSet := flag.NewFlagSet(args[0], flag.ContinueOnError)
	flagSet.SetOutput(output)

	var showVersion bool

	flagSet.BoolVar(&showVersion, "version", false, "show version")

	conf.flagSet(flagSet)

	if err := flagSet.Parse(args[1:]); err != nil {
		return Config{}, err //nolint:wrapcheck
	}

	if showVersion {
		return Config{}, ErrVersion
	}

	if conf.ConfigFile != "" {
		if err := mergeConfigFile(&conf, conf.ConfigFile); err != nil {
			return Config{}, err
		}
	}

	return conf, nil
}

func mergeConfigFile(conf *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error opening config file %s: %w", path, err)
	}

	if len(data) == 0 {
		return ErrEmptyConfigFile
	}

	if err := yaml.Unmarshal(data, conf); err != nil {
		return fmt.Errorf("error parsing config file %s: %w", path, err)
	}

	return nil
}
