package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is used to store logger in context.
type loggerKey struct{}

// configKey is used to store the loaded config in context.
type configKey struct{}

// EnvPrefix prefixes every environment override. A double underscore nests:
// LEAPGRID_UI__PORT sets ui.port.
const EnvPrefix = "LEAPGRID_"

// configNames are the config files looked for in the working directory.
var configNames = []string{"leapgrid.yaml", "leapgrid.yml"}

// flagKeys maps flag names to the config keys they override. Flags missing
// from the map use their own name with dashes turned into underscores.
var flagKeys = map[string]string{
	"catalog":      "catalog.path",
	"catalog-type": "catalog.type",
	"dsn":          "catalog.dsn",
	"table":        "catalog.table",
	"port":         "ui.port",
	"watch":        "ui.watch",
	"dev":          "ui.dev",
	"latency":      "browse.latency",
	"clamp":        "browse.clamp_pages",
}

// ignoredFlags never map to config keys.
var ignoredFlags = map[string]bool{
	"config":     true,
	"no-browser": true,
	"format":     true,
	"db":         true,
	"help":       true,
	"version":    true,
}

// FlagKey returns the config key a flag overrides. ok is false for flags that
// never reach the config.
func FlagKey(name string) (key string, ok bool) {
	if ignoredFlags[name] {
		return "", false
	}
	if key, ok := flagKeys[name]; ok {
		return key, true
	}
	return strings.ReplaceAll(name, "-", "_"), true
}

// Package-level config file tracking
var configFileUsed string

// findConfigFile finds the config file to use.
// Priority: explicit path > leapgrid.yaml > leapgrid.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range configNames {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// defaults flattens Default into koanf keys.
func defaults() map[string]any {
	d := Default()
	return map[string]any{
		"catalog.type":             d.Catalog.Type,
		"ui.port":                  d.UI.Port,
		"ui.auto_open":             d.UI.AutoOpen,
		"ui.watch":                 d.UI.Watch,
		"ui.theme":                 d.UI.Theme,
		"ui.session_secret":        d.UI.SessionSecret,
		"browse.latency":           d.Browse.Latency.String(),
		"browse.clamp_pages":       d.Browse.ClampPages,
		"browse.default_page_size": d.Browse.DefaultPageSize,
		"verbose":                  d.Verbose,
		"output":                   d.OutputFormat,
	}
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Load defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	configFileUsed = findConfigFile(cfgFile)
	projectRoot, _ := os.Getwd()
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
		if abs, err := filepath.Abs(configFileUsed); err == nil {
			projectRoot = filepath.Dir(abs)
		}
	}

	// 3. Load environment variables (LEAPGRID_ prefix)
	// Transform: LEAPGRID_BROWSE__CLAMP_PAGES -> browse.clamp_pages
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority - overrides env vars and config file)
	var flagCatalogPath string
	if flags != nil {
		if flags.Changed("catalog") {
			if v, _ := flags.GetString("catalog"); v != "" {
				flagCatalogPath, _ = filepath.Abs(v)
			}
		}
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			key, ok := FlagKey(f.Name)
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ProjectRoot = projectRoot

	// Paths given as flags are relative to the working directory; the rest
	// are relative to the config file.
	if flagCatalogPath != "" {
		cfg.Catalog.Path = flagCatalogPath
		if flags == nil || !flags.Changed("catalog-type") {
			cfg.Catalog.Type = InferCatalogType(flagCatalogPath)
		}
	} else {
		cfg.Catalog.Path = resolvePathRelativeTo(cfg.Catalog.Path, projectRoot)
	}
	cfg.Catalog.DSN = os.ExpandEnv(cfg.Catalog.DSN)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// InferCatalogType guesses the catalog type from a file extension.
func InferCatalogType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return "sqlite"
	case ".duckdb":
		return "duckdb"
	default:
		return "file"
	}
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}

// WithConfig returns a copy of ctx carrying cfg.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config stored by WithConfig, or the defaults.
func FromContext(ctx context.Context) *Config {
	if c, ok := ctx.Value(configKey{}).(*Config); ok && c != nil {
		return c
	}
	return Default()
}
