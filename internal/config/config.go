// Package config defines process configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) initializer to build a Config with defaults.
// - All functions accept context.Context as the first parameter.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"context"
	"time"
)

// Presentation surfaces understood by the presenter.
const (
	SurfaceTerminal  = "terminal"
	SurfaceText      = "text"
	SurfaceWebSocket = "websocket"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json records.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address of `serve`, e.g. ":9080".
	Addr string `koanf:"addr"`

	// InterStepDelayMS paces the reveal between two steps.
	InterStepDelayMS int `koanf:"inter_step_delay_ms"`

	// ShowRunningTotals emits cumulative totals after every category.
	ShowRunningTotals bool `koanf:"show_running_totals"`

	// TargetSurface picks where `present` renders: terminal, text or websocket.
	TargetSurface string `koanf:"target_surface"`

	// DefaultTeams and DefaultCategories size a new scoreboard when no
	// explicit counts are given.
	DefaultTeams      int `koanf:"default_teams"`
	DefaultCategories int `koanf:"default_categories"`

	// DataFile is opened by `serve` on startup when set.
	DataFile string `koanf:"data_file"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		InterStepDelayMS:  1500,
		ShowRunningTotals: false,
		TargetSurface:     SurfaceTerminal,
		DefaultTeams:      4,
		DefaultCategories: 3,
	}
}

// InterStepDelay returns the configured reveal pacing as a duration.
func (c *Config) InterStepDelay() time.Duration {
	return time.Duration(c.InterStepDelayMS) * time.Millisecond
}
