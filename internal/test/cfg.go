package test

import (
	"io"
	"sync"

	"github.com/jkroepke/logscrape-exporter/internal/config"
)

var DefaultConfig = sync.OnceValue(func() config.Config {
	conf, _ := config.New([]string{"logscrape-exporter"}, io.Discard)

	return conf
})
