package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/dbsmedya/starsift/internal/config"
	"github.com/dbsmedya/starsift/internal/database"
	"github.com/dbsmedya/starsift/internal/logger"
	"github.com/dbsmedya/starsift/internal/remote"
	"github.com/dbsmedya/starsift/internal/simbad"
	"github.com/dbsmedya/starsift/internal/vizier"
)

var validateOffline bool

// probeTimeout bounds each connectivity check.
const probeTimeout = 30 * time.Second

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and check service connectivity",
	Long: `Validate checks the configuration file and probes the services a
search depends on.

Checks performed:
  - Configuration syntax and value ranges
  - VizieR reachability (one row of the primary catalog)
  - SIMBAD TAP reachability
  - MySQL connectivity when the run archive is enabled

Example:
  starsift validate --config starsift.yaml
  starsift validate --offline`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateOffline, "offline", false,
		"Only validate the configuration, skip network checks")
	rootCmd.AddCommand(validateCmd)
}

// probe is one named connectivity check.
type probe struct {
	name string
	run  func(ctx context.Context) error
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(GetCLIOverrides())
	if err != nil {
		return err
	}

	printHeader("Configuration Validation")
	printField("Config file", GetConfigFile())
	printField("Catalogs", cfg.Query.Catalogs)
	printField("VizieR", cfg.Services.VizieRURL)
	printField("SIMBAD", cfg.Services.SimbadURL)
	fmt.Fprintf(outputWriter, "%s Configuration is valid\n", color.Green.Sprint("OK"))

	if validateOffline {
		return nil
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	fmt.Fprintln(outputWriter)
	printSection("Connectivity")

	failed := 0
	for _, p := range buildProbes(cfg, log) {
		ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
		err := p.run(ctx)
		cancel()

		if err != nil {
			failed++
			fmt.Fprintf(outputWriter, "  %s %s: %v\n", color.Red.Sprint("FAIL"), p.name, err)
			continue
		}
		fmt.Fprintf(outputWriter, "  %s %s\n", color.Green.Sprint("OK"), p.name)
	}

	if failed > 0 {
		return fmt.Errorf("validation failed: %d connectivity check(s) failed", failed)
	}
	return nil
}

// buildProbes returns the checks for every configured collaborator.
func buildProbes(cfg *config.Config, log *logger.Logger) []probe {
	rc := remote.NewClientFromConfig(cfg, log)
	viz := vizier.New(cfg.Services.VizieRURL, rc, log)
	sim := simbad.New(cfg.Services.SimbadURL, rc, log)

	probes := []probe{
		{name: "VizieR " + cfg.PrimaryCatalog(), run: func(ctx context.Context) error {
			return viz.Ping(ctx, cfg.PrimaryCatalog())
		}},
		{name: "SIMBAD TAP", run: sim.Ping},
	}

	if cfg.Archive.Enabled {
		probes = append(probes, probe{name: "MySQL archive", run: func(ctx context.Context) error {
			mgr := database.NewManager(&cfg.Archive.Database)
			if err := mgr.Connect(ctx); err != nil {
				return err
			}
			defer mgr.Close()
			return mgr.Ping(ctx)
		}})
	}
	return probes
}
