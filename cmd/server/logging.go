package main

import (
	"github.com/hashicorp/go-hclog"
	"github.com/saddiabu4/telegram-web-app-backend/internal/config"
	"io"
)

// newLogger builds the root logger every component names itself under.
func newLogger(cfg *config.Config, out io.Writer) hclog.Logger {
	level := hclog.LevelFromString(cfg.LogLevel)
	if level == hclog.NoLevel {
		level = hclog.Info
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:       "shop",
		Level:      level,
		Output:     out,
		JSONFormat: cfg.LogFormat == "json",
	})
}
