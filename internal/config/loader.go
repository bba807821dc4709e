package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from the specified file path.
// It supports YAML files and performs environment variable substitution.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadOrDefault loads configPath when it exists. A missing file yields the
// built-in defaults when allowMissing is set, so the tool works without a
// config file at the default location.
func LoadOrDefault(configPath string, allowMissing bool) (*Config, error) {
	if allowMissing {
		if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
	}
	return Load(configPath)
}

// LoadFromViper creates a Config from an existing Viper instance.
// Useful for testing or when Viper is configured externally.
func LoadFromViper(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	// mapstructure merges into existing slices instead of replacing them,
	// so list defaults are filled in after decoding.
	cfg.Query.Catalogs = nil
	cfg.Query.Columns = nil

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	defaults := DefaultConfig()
	if len(cfg.Query.Catalogs) == 0 {
		cfg.Query.Catalogs = defaults.Query.Catalogs
	}
	if len(cfg.Query.Columns) == 0 {
		cfg.Query.Columns = defaults.Query.Columns
	}

	if err := substituteEnvVars(cfg); err != nil {
		return nil, fmt.Errorf("failed to substitute environment variables: %w", err)
	}

	return cfg, nil
}

// envVarPattern matches ${VAR_NAME} or $VAR_NAME patterns
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// substituteEnvVars replaces ${VAR_NAME} patterns with environment variable values.
func substituteEnvVars(cfg *Config) error {
	cfg.Query.Coordinate = expandEnvVar(cfg.Query.Coordinate)

	cfg.Services.VizieRURL = expandEnvVar(cfg.Services.VizieRURL)
	cfg.Services.SimbadURL = expandEnvVar(cfg.Services.SimbadURL)

	cfg.Output.Path = expandEnvVar(cfg.Output.Path)
	cfg.Output.SummaryPath = expandEnvVar(cfg.Output.SummaryPath)

	db := &cfg.Archive.Database
	db.Host = expandEnvVar(db.Host)
	db.User = expandEnvVar(db.User)
	db.Password = expandEnvVar(db.Password)
	db.Database = expandEnvVar(db.Database)

	cfg.Logging.Output = expandEnvVar(cfg.Logging.Output)

	return nil
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}

		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		// Return original if env var not found
		return match
	})
}

// Overrides carries CLI flag values that take precedence over the file.
// Zero values mean "not set"; magnitudes are pointers because 0 is valid.
type Overrides struct {
	LogLevel    string
	LogFormat   string
	Concurrency int

	Radius     *float64
	Catalogs   []string
	NoRUWE     bool
	MagHigh    *float64
	MagLow     *float64
	OutputPath string
	Summary    string
	Print      bool
}

// ApplyOverrides applies CLI flag overrides to the configuration.
// Only non-zero/non-empty values are applied.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.LogLevel != "" {
		c.Logging.Level = o.LogLevel
	}
	if o.LogFormat != "" {
		c.Logging.Format = o.LogFormat
	}
	if o.Concurrency > 0 {
		c.Processing.Concurrency = o.Concurrency
	}
	// Radius keeps its sign and zero here; the finder rejects zero after
	// taking the absolute value.
	if o.Radius != nil {
		c.Query.Radius = *o.Radius
	}
	if len(o.Catalogs) > 0 {
		c.Query.Catalogs = append([]string(nil), o.Catalogs...)
	}
	if o.NoRUWE {
		c.Query.RUWEFilter = false
	}
	if o.MagHigh != nil {
		c.Query.MagHigh = *o.MagHigh
	}
	if o.MagLow != nil {
		c.Query.MagLow = *o.MagLow
	}
	if o.OutputPath != "" {
		c.Output.Path = o.OutputPath
	}
	if o.Summary != "" {
		c.Output.SummaryPath = o.Summary
	}
	if o.Print {
		c.Output.Print = true
	}
}
