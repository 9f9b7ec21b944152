// Package config provides configuration management for the leapgrid CLI.
//
// Settings are layered the usual way: built-in defaults, then leapgrid.yaml,
// then LEAPGRID_* environment variables, then flags set on the command line.
package config

import (
	"time"

	"github.com/leapstack-labs/leapgrid/internal/catalog"
	"github.com/leapstack-labs/leapgrid/internal/table"
)

// Config holds all CLI configuration options.
type Config struct {
	Catalog      catalog.Config `koanf:"catalog"`
	UI           UIConfig       `koanf:"ui"`
	Browse       BrowseConfig   `koanf:"browse"`
	Columns      []table.Spec   `koanf:"columns" validate:"dive"`
	Verbose      bool           `koanf:"verbose"`
	OutputFormat string         `koanf:"output" validate:"oneof=auto text markdown json"`

	// ProjectRoot is the directory relative paths resolve against.
	ProjectRoot string `koanf:"-"`
}

// UIConfig holds configuration for the UI server.
type UIConfig struct {
	Port          int           `koanf:"port" validate:"min=1,max=65535"`
	AutoOpen      bool          `koanf:"auto_open"`
	Watch         bool          `koanf:"watch"`
	Theme         string        `koanf:"theme"`
	SessionSecret string        `koanf:"session_secret"`
	IdleTimeout   time.Duration `koanf:"idle_timeout" validate:"gte=0"`
	Dev           bool          `koanf:"dev"`
}

// BrowseConfig tunes the browse store shared by the UI and the terminal.
type BrowseConfig struct {
	// Latency is the simulated fetch delay of the in-memory source.
	Latency         time.Duration `koanf:"latency" validate:"gte=0"`
	ClampPages      bool          `koanf:"clamp_pages"`
	DefaultPageSize int           `koanf:"default_page_size" validate:"oneof=10 20 50 100"`
}

// Default configuration values.
const (
	DefaultCatalogType   = "demo"
	DefaultPort          = 8765
	DefaultTheme         = "default"
	DefaultLatency       = 300 * time.Millisecond
	DefaultPageSize      = 10
	DefaultOutput        = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultSessionSecret = "leapgrid-development-session-key"
)

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Catalog: catalog.Config{Type: DefaultCatalogType},
		UI: UIConfig{
			Port:          DefaultPort,
			AutoOpen:      true,
			Watch:         true,
			Theme:         DefaultTheme,
			SessionSecret: DefaultSessionSecret,
		},
		Browse: BrowseConfig{
			Latency:         DefaultLatency,
			ClampPages:      true,
			DefaultPageSize: DefaultPageSize,
		},
		OutputFormat: DefaultOutput,
	}
}
