package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/starsift/internal/config"
	"github.com/dbsmedya/starsift/internal/logger"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// DefaultConfigFile is read when --config is not given. A missing default
// file is not an error.
const DefaultConfigFile = "starsift.yaml"

// CLI flags that override config file values
var (
	cfgFile     string
	logLevel    string
	logFormat   string
	concurrency int
)

// outputWriter is used for printing output, can be overridden in tests
var outputWriter io.Writer = os.Stdout

func setOutputWriter(w io.Writer) {
	outputWriter = w
}

func resetOutputWriter() {
	outputWriter = os.Stdout
}

var rootCmd = &cobra.Command{
	Use:   "starsift",
	Short: "Gaia single-star finder",
	Long: `Find bright single (non-binary) stars around a sky position.

starsift runs a cone search on Gaia through VizieR, keeps sources that pass
RUWE and G magnitude cuts, cross-references every survivor in SIMBAD and drops
anything listed in the Washington Double Star catalog. Results are written as
a space separated table sorted by mean G magnitude.`,
	Version:      Version,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Config file flag
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", DefaultConfigFile,
		"Path to configuration file")

	// Logging overrides
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")

	// Processing overrides
	rootCmd.PersistentFlags().IntVar(&concurrency, "concurrency", 0,
		"Override number of concurrent SIMBAD lookups")
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// GetCLIOverrides returns the global flag override values. Command specific
// fields are filled in by the command that owns them.
func GetCLIOverrides() config.Overrides {
	return config.Overrides{
		LogLevel:    logLevel,
		LogFormat:   logFormat,
		Concurrency: concurrency,
	}
}

// loadConfig reads the config file, applies overrides and validates the
// result. The default file may be absent; an explicit --config may not.
func loadConfig(overrides config.Overrides) (*config.Config, error) {
	configFile := GetConfigFile()
	explicit := rootCmd.PersistentFlags().Changed("config")

	cfg, err := config.LoadOrDefault(configFile, !explicit)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg.ApplyOverrides(overrides)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the command logger from the loaded configuration.
func newLogger(cfg *config.Config) (*logger.Logger, error) {
	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return log, nil
}

// printHeader prints a formatted header
func printHeader(format string, args ...interface{}) {
	title := fmt.Sprintf(format, args...)
	width := len(title) + 4
	fmt.Fprintln(outputWriter, strings.Repeat("=", width))
	fmt.Fprintf(outputWriter, "  %s\n", title)
	fmt.Fprintln(outputWriter, strings.Repeat("=", width))
}

// printSection prints a section header
func printSection(title string) {
	fmt.Fprintf(outputWriter, "[%s]\n", title)
	fmt.Fprintln(outputWriter, strings.Repeat("-", len(title)+2))
}

// printField prints an aligned "label: value" line inside a section.
func printField(label string, value interface{}) {
	fmt.Fprintf(outputWriter, "  %-14s %v\n", label+":", value)
}
