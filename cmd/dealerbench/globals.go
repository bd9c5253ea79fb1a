package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/lox/dealerbench/cmd/dealerbench/shared"
	"github.com/lox/dealerbench/internal/config"
	"github.com/rs/zerolog"
)

// Globals are flags shared by every command.
type Globals struct {
	Config    string `kong:"default='dealerbench.hcl',type='path',help='HCL config file; defaults apply when it does not exist'"`
	Debug     bool   `kong:"help='Enable debug logging, including every draw'"`
	LogFormat string `kong:"default='console',enum='console,json',help='Log output format'"`
}

func (g *Globals) logger() zerolog.Logger {
	logger, err := shared.NewLogger(g.LogFormat, g.Debug)
	if err != nil {
		return shared.SetupLogger(g.Debug)
	}
	return logger
}

func (g *Globals) engineLogger() *log.Logger {
	return shared.SetupEngineLogger(os.Stderr, g.Debug)
}

func (g *Globals) load(logger zerolog.Logger) (*config.Config, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if _, statErr := os.Stat(g.Config); statErr == nil {
		logger.Debug().Str("path", g.Config).Msg("Loaded config")
	} else {
		logger.Debug().Str("path", g.Config).Msg("Config file not found, using defaults")
	}
	return cfg, nil
}
