// Package config reads loom settings from LOOM_* environment variables.
// Command line flags override what is loaded here.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"

	"github.com/chazu/loom/pkg/layout"
)

type Config struct {
	Tech          string  `envconfig:"TECH"`
	LogLevel      string  `envconfig:"LOG_LEVEL" default:"info"`
	RoutingMode   string  `envconfig:"ROUTING_MODE" default:"default"`
	SubstrateMode string  `envconfig:"SUBSTRATE_MODE" default:"default"`
	HorizSpacing  bool    `envconfig:"HORIZ_SPACING" default:"true"`
	MeshCells     int     `envconfig:"MESH_CELLS" default:"100"`
	MeshZScale    float64 `envconfig:"MESH_ZSCALE" default:"1"`
}

// Load reads the environment and checks the values that have a fixed set of
// choices.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("LOOM", &cfg); err != nil {
		return nil, err
	}
	if _, err := cfg.Offset(); err != nil {
		return nil, err
	}
	if cfg.MeshCells < 0 {
		return nil, fmt.Errorf("config: LOOM_MESH_CELLS must not be negative, got %d", cfg.MeshCells)
	}
	return &cfg, nil
}

// Offset returns the spacing sweep options the config describes.
func (c *Config) Offset() (layout.OffsetOptions, error) {
	routing, err := layout.ParseMode(c.RoutingMode)
	if err != nil {
		return layout.OffsetOptions{}, fmt.Errorf("config: routing: %w", err)
	}
	substrate, err := layout.ParseMode(c.SubstrateMode)
	if err != nil {
		return layout.OffsetOptions{}, fmt.Errorf("config: substrate: %w", err)
	}
	return layout.OffsetOptions{
		RoutingMode:   routing,
		SubstrateMode: substrate,
		HorizSpacing:  c.HorizSpacing,
	}, nil
}
