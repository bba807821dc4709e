// Package config provides configuration structures and loading for starsift.
package config

// Default output file names. The legacy name is kept for scripts that still
// expect the output of the original single-star finder.
const (
	DefaultOutputPath = "bright_single_stars_catalog.csv"
	LegacyOutputPath  = "Non-Binary.csv"
)

// DefaultCatalogs are queried when no catalog list is configured. The first
// entry is the primary catalog whose rows feed the quality filter.
var DefaultCatalogs = []string{"I/350/gaiaedr3", "B/wds"}

// Config represents the complete application configuration.
type Config struct {
	Query      QueryConfig      `yaml:"query" mapstructure:"query"`
	CrossRef   CrossRefConfig   `yaml:"crossref" mapstructure:"crossref"`
	Services   ServicesConfig   `yaml:"services" mapstructure:"services"`
	Processing ProcessingConfig `yaml:"processing" mapstructure:"processing"`
	Output     OutputConfig     `yaml:"output" mapstructure:"output"`
	Archive    ArchiveConfig    `yaml:"archive" mapstructure:"archive"`
	Logging    LoggingConfig    `yaml:"logging" mapstructure:"logging"`
}

// QueryConfig holds the cone search and filter parameters.
type QueryConfig struct {
	Coordinate string   `yaml:"coordinate" mapstructure:"coordinate"` // "RA Dec", sexagesimal or decimal degrees
	Radius     float64  `yaml:"radius" mapstructure:"radius"`         // degrees
	Catalogs   []string `yaml:"catalogs" mapstructure:"catalogs"`
	RUWEFilter bool     `yaml:"ruwe_filter" mapstructure:"ruwe_filter"`
	RUWEMax    float64  `yaml:"ruwe_max" mapstructure:"ruwe_max"`
	MagHigh    float64  `yaml:"mag_high" mapstructure:"mag_high"` // bright limit
	MagLow     float64  `yaml:"mag_low" mapstructure:"mag_low"`   // faint limit
	RowLimit   int      `yaml:"row_limit" mapstructure:"row_limit"` // -1 = unlimited
	Columns    []string `yaml:"columns" mapstructure:"columns"`     // primary catalog output columns
}

// CrossRefConfig controls how candidates are matched against SIMBAD.
type CrossRefConfig struct {
	ReleaseTag     string `yaml:"release_tag" mapstructure:"release_tag"`         // prefix for SIMBAD lookups
	BinaryToken    string `yaml:"binary_token" mapstructure:"binary_token"`       // identifier catalog marking a binary
	KeepUnresolved bool   `yaml:"keep_unresolved" mapstructure:"keep_unresolved"` // keep candidates SIMBAD does not know
}

// ServicesConfig holds the remote service endpoints.
type ServicesConfig struct {
	VizieRURL string `yaml:"vizier_url" mapstructure:"vizier_url"`
	SimbadURL string `yaml:"simbad_url" mapstructure:"simbad_url"`
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`
}

// ProcessingConfig holds settings for remote calls and the lookup worker pool.
type ProcessingConfig struct {
	Concurrency           int     `yaml:"concurrency" mapstructure:"concurrency"`
	RequestsPerSecond     float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst                 int     `yaml:"burst" mapstructure:"burst"`
	MaxRetries            int     `yaml:"max_retries" mapstructure:"max_retries"`
	InitialBackoffSeconds float64 `yaml:"initial_backoff_seconds" mapstructure:"initial_backoff_seconds"`
	TimeoutSeconds        float64 `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
}

// OutputConfig controls where results are written.
type OutputConfig struct {
	Path        string `yaml:"path" mapstructure:"path"`
	SummaryPath string `yaml:"summary_path" mapstructure:"summary_path"` // optional YAML run summary
	Print       bool   `yaml:"print" mapstructure:"print"`
}

// ArchiveConfig enables persisting completed runs to MySQL.
type ArchiveConfig struct {
	Enabled     bool           `yaml:"enabled" mapstructure:"enabled"`
	TablePrefix string         `yaml:"table_prefix" mapstructure:"table_prefix"`
	Database    DatabaseConfig `yaml:"database" mapstructure:"database"`
}

// DatabaseConfig represents a MySQL database connection configuration.
type DatabaseConfig struct {
	Host               string `yaml:"host" mapstructure:"host"`
	Port               int    `yaml:"port" mapstructure:"port"`
	User               string `yaml:"user" mapstructure:"user"`
	Password           string `yaml:"password" mapstructure:"password"`
	Database           string `yaml:"database" mapstructure:"database"`
	TLS                string `yaml:"tls" mapstructure:"tls"` // disable, preferred, required
	MaxConnections     int    `yaml:"max_connections" mapstructure:"max_connections"`
	MaxIdleConnections int    `yaml:"max_idle_connections" mapstructure:"max_idle_connections"`
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Query: QueryConfig{
			Radius:     0.5,
			Catalogs:   append([]string(nil), DefaultCatalogs...),
			RUWEFilter: true,
			RUWEMax:    1.2,
			MagHigh:    3,
			MagLow:     10,
			RowLimit:   -1,
			Columns:    []string{"Source", "RA_ICRS", "DE_ICRS", "Gmag", "RUWE"},
		},
		CrossRef: CrossRefConfig{
			ReleaseTag:     "Gaia DR3",
			BinaryToken:    "WDS",
			KeepUnresolved: false,
		},
		Services: ServicesConfig{
			VizieRURL: "https://vizier.cds.unistra.fr",
			SimbadURL: "https://simbad.cds.unistra.fr",
			UserAgent: "starsift",
		},
		Processing: ProcessingConfig{
			Concurrency:           4,
			RequestsPerSecond:     5,
			Burst:                 5,
			MaxRetries:            3,
			InitialBackoffSeconds: 1,
			TimeoutSeconds:        60,
		},
		Output: OutputConfig{
			Path: DefaultOutputPath,
		},
		Archive: ArchiveConfig{
			Enabled:     false,
			TablePrefix: "starsift_",
			Database: DatabaseConfig{
				Port:               3306,
				TLS:                "preferred",
				MaxConnections:     5,
				MaxIdleConnections: 2,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// PrimaryCatalog returns the catalog whose rows are filtered.
func (c *Config) PrimaryCatalog() string {
	if len(c.Query.Catalogs) == 0 {
		return DefaultCatalogs[0]
	}
	return c.Query.Catalogs[0]
}
