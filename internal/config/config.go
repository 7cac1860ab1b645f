// =============================================================================
// DORA Register of Information - Configuration Management
// =============================================================================
//
// This module loads the application configuration. Values are layered, from
// lowest to highest precedence:
//
//   1. Built-in defaults
//   2. The YAML config file (roi.yaml unless --config is given)
//   3. Environment variables prefixed ROI_, with "__" separating sections
//      (ROI_SOURCE__DSN sets source.dsn). A .env file in the working
//      directory is loaded first when present.
//   4. Command-line flags that were explicitly set
//
// CONFIGURATION FILE FORMAT:
//
//   organization:
//     id: org-1
//     lei: 529900T8BM49AURSDO55
//     name: Example Bank S.A.
//     base_currency: EUR
//   source:
//     driver: sqlite          # sqlite | pgx | csv
//     dsn: roi.db
//   export:
//     output_dir: ./out
//     strict: true
//   log:
//     level: info             # debug | info | warn | error
//     format: text            # text | json
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/FedericoTs/dora-comply/internal/params"
)

// DefaultConfigFile is read when no --config flag is given and it exists.
const DefaultConfigFile = "roi.yaml"

// EnvPrefix prefixes every environment variable read.
const EnvPrefix = "ROI_"

// =============================================================================
// CONFIGURATION STRUCTURES
// =============================================================================

// Config holds the complete application configuration.
type Config struct {
	Organization OrganizationConfig `koanf:"organization"`
	Source       SourceConfig       `koanf:"source"`
	Export       ExportConfig       `koanf:"export"`
	Registry     RegistryConfig     `koanf:"registry"`
	Server       ServerConfig       `koanf:"server"`
	Log          LogConfig          `koanf:"log"`
}

// OrganizationConfig identifies the reporting entity.
type OrganizationConfig struct {
	// ID selects the organisation's rows in the export tables.
	ID string `koanf:"id"`

	// LEI is the reporting entity's Legal Entity Identifier.
	LEI string `koanf:"lei"`

	Name string `koanf:"name"`

	// BaseCurrency defaults to EUR.
	BaseCurrency string `koanf:"base_currency"`
}

// SourceConfig selects where template records are read from.
type SourceConfig struct {
	// Driver is "sqlite", "pgx" or "csv".
	Driver string `koanf:"driver"`

	// DSN is the database connection string or SQLite file.
	DSN string `koanf:"dsn"`

	// Dir holds per-template CSV extracts when Driver is "csv".
	Dir string `koanf:"dir"`

	// Delimiter and Encoding apply to CSV extracts.
	Delimiter string `koanf:"delimiter"`
	Encoding  string `koanf:"encoding"`
}

// ExportConfig controls export runs.
type ExportConfig struct {
	OutputDir  string `koanf:"output_dir"`
	ArchiveDir string `koanf:"archive_dir"`

	// Strict refuses to package data with error findings.
	Strict bool `koanf:"strict"`

	// TopErrors caps the findings listed in a report.
	TopErrors int `koanf:"top_errors"`

	Timeout        time.Duration `koanf:"timeout"`
	MaxConcurrency int           `koanf:"max_concurrency"`
}

// RegistryConfig adjusts the template registry.
type RegistryConfig struct {
	// ConstraintsFile is an optional YAML file overriding weights and
	// column constraints.
	ConstraintsFile string `koanf:"constraints_file"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr              string        `koanf:"addr"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	RequestTimeout    time.Duration `koanf:"request_timeout"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Parameters returns the organisation part used to build reporting
// parameters.
func (c *Config) Parameters() params.Organization {
	return params.Organization{
		LEI:          c.Organization.LEI,
		Name:         c.Organization.Name,
		BaseCurrency: c.Organization.BaseCurrency,
	}
}

// =============================================================================
// DEFAULTS
// =============================================================================

func defaults() map[string]any {
	return map[string]any{
		"organization.base_currency": params.DefaultBaseCurrency,
		"source.driver":              "sqlite",
		"source.dsn":                 "roi.db",
		"source.delimiter":           ",",
		"source.encoding":            "utf-8",
		"export.output_dir":          "./out",
		"export.strict":              true,
		"export.top_errors":          20,
		"export.timeout":             "60s",
		"export.max_concurrency":     4,
		"server.addr":                ":8080",
		"server.read_header_timeout": "10s",
		"server.request_timeout":     "60s",
		"log.level":                  "info",
		"log.format":                 "text",
	}
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"lei":             "organization.lei",
	"org":             "organization.id",
	"currency":        "organization.base_currency",
	"driver":          "source.driver",
	"dsn":             "source.dsn",
	"source-dir":      "source.dir",
	"output-dir":      "export.output_dir",
	"strict":          "export.strict",
	"top-errors":      "export.top_errors",
	"timeout":         "export.timeout",
	"max-concurrency": "export.max_concurrency",
	"constraints":     "registry.constraints_file",
	"addr":            "server.addr",
	"log-level":       "log.level",
	"log-format":      "log.format",
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the configuration.
//
// PARAMETERS:
//   - path:  config file; "" uses DefaultConfigFile when it exists.
//   - flags: parsed command-line flags, or nil.
//
// RETURNS:
//   - The validated configuration.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	explicit := path != ""
	if path == "" {
		path = DefaultConfigFile
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults normalizes values and derives the ones left empty.
func applyDefaults(cfg *Config) {
	cfg.Organization.LEI = strings.ToUpper(strings.TrimSpace(cfg.Organization.LEI))
	cfg.Organization.BaseCurrency = strings.ToUpper(strings.TrimSpace(cfg.Organization.BaseCurrency))
	if cfg.Organization.BaseCurrency == "" {
		cfg.Organization.BaseCurrency = params.DefaultBaseCurrency
	}
	cfg.Source.Driver = strings.ToLower(cfg.Source.Driver)
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)
	if cfg.Export.ArchiveDir == "" && cfg.Export.OutputDir != "" {
		cfg.Export.ArchiveDir = filepath.Join(cfg.Export.OutputDir, "archive")
	}
}

// validate checks the configuration for values no command can work with.
func validate(cfg *Config) error {
	var problems []string

	switch cfg.Source.Driver {
	case "sqlite", "pgx":
		if cfg.Source.DSN == "" {
			problems = append(problems, "source.dsn is required for driver "+cfg.Source.Driver)
		}
	case "csv":
		if cfg.Source.Dir == "" {
			problems = append(problems, "source.dir is required for driver csv")
		}
	default:
		problems = append(problems, fmt.Sprintf("source.driver %q is not one of sqlite, pgx, csv", cfg.Source.Driver))
	}

	if cfg.Export.OutputDir == "" {
		problems = append(problems, "export.output_dir is required")
	}
	if cfg.Export.TopErrors < 0 {
		problems = append(problems, "export.top_errors must not be negative")
	}
	if cfg.Export.MaxConcurrency < 0 {
		problems = append(problems, "export.max_concurrency must not be negative")
	}
	if cfg.Export.Timeout < 0 {
		problems = append(problems, "export.timeout must not be negative")
	}

	if _, err := parseLevel(cfg.Log.Level); err != nil {
		problems = append(problems, err.Error())
	}
	if cfg.Log.Format != "text" && cfg.Log.Format != "json" {
		problems = append(problems, fmt.Sprintf("log.format %q is not one of text, json", cfg.Log.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// =============================================================================
// LOGGING
// =============================================================================

// NewLogger builds the logger described by cfg. verbose forces debug level.
func NewLogger(cfg LogConfig, w io.Writer, verbose bool) *slog.Logger {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log.level %q is not one of debug, info, warn, error", s)
}
