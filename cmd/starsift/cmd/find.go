package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gookit/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dbsmedya/starsift/internal/config"
	"github.com/dbsmedya/starsift/internal/coord"
	"github.com/dbsmedya/starsift/internal/database"
	"github.com/dbsmedya/starsift/internal/finder"
	"github.com/dbsmedya/starsift/internal/logger"
	"github.com/dbsmedya/starsift/internal/remote"
	"github.com/dbsmedya/starsift/internal/simbad"
	"github.com/dbsmedya/starsift/internal/store"
	"github.com/dbsmedya/starsift/internal/vizier"
)

var (
	findRadius     float64
	findCatalogs   []string
	findNoRUWE     bool
	findMagHigh    float64
	findMagLow     float64
	findOutput     string
	findLegacyName bool
	findSummary    string
	findPrint      bool
)

var findCmd = &cobra.Command{
	Use:   "find [coordinate]",
	Short: "Find bright single stars around a position",
	Long: `Find runs a Gaia cone search around the coordinate, applies the RUWE and
G magnitude cuts, removes every source SIMBAD lists in the WDS catalog and
writes the survivors sorted by mean G magnitude.

The coordinate is a single argument, either sexagesimal with space separated
fields ("11 02 24.88 -77 33 35.67") or decimal degrees ("165.52 -77.56").
When omitted, query.coordinate from the configuration file is used.

Example:
  starsift find "11 02 24.8763629208 -77 33 35.667131796" --radius 0.5
  starsift find "165.520318183 -77.5599075361" --mag-low 8 --print`,
	RunE: runFind,
}

// searchFlags holds the flags shared by find and plan. It is a package-level
// variable so it exists before either command's init adds it.
var searchFlags = newSearchFlags()

func newSearchFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("search", pflag.ContinueOnError)
	fs.Float64VarP(&findRadius, "radius", "r", 0,
		"Search radius in degrees (default from config, 0.5)")
	fs.StringArrayVar(&findCatalogs, "catalog", nil,
		"VizieR catalog to query, repeatable; the first one is filtered")
	fs.BoolVar(&findNoRUWE, "no-ruwe", false,
		"Disable the RUWE filter")
	fs.Float64Var(&findMagHigh, "mag-high", 0,
		"Bright G magnitude limit, exclusive (default from config, 3)")
	fs.Float64Var(&findMagLow, "mag-low", 0,
		"Faint G magnitude limit, exclusive (default from config, 10)")
	fs.StringVarP(&findOutput, "output", "o", "",
		"Output file path (default from config)")
	fs.BoolVar(&findLegacyName, "legacy-name", false,
		"Write to "+config.LegacyOutputPath+" unless --output is given")
	fs.StringVar(&findSummary, "summary", "",
		"Also write a YAML run summary to this path")
	fs.BoolVar(&findPrint, "print", false,
		"Print the result table to stdout")
	return fs
}

func init() {
	findCmd.Flags().AddFlagSet(searchFlags)
	rootCmd.AddCommand(findCmd)
}

// findOverrides collects the find flags on top of the global overrides.
// Radius and magnitude limits are only applied when given, so an explicit 0
// reaches validation.
func findOverrides(cmd *cobra.Command) config.Overrides {
	o := GetCLIOverrides()
	o.Catalogs = findCatalogs
	o.NoRUWE = findNoRUWE
	o.OutputPath = findOutput
	o.Summary = findSummary
	o.Print = findPrint

	if cmd.Flags().Changed("radius") {
		v := findRadius
		o.Radius = &v
	}
	if cmd.Flags().Changed("mag-high") {
		v := findMagHigh
		o.MagHigh = &v
	}
	if cmd.Flags().Changed("mag-low") {
		v := findMagLow
		o.MagLow = &v
	}
	if findLegacyName && o.OutputPath == "" {
		o.OutputPath = config.LegacyOutputPath
	}
	return o
}

// resolveCoordinate returns the coordinate argument, falling back to the
// configured one when no argument is given.
func resolveCoordinate(args []string, cfg *config.Config) (string, error) {
	if len(args) == 0 && strings.TrimSpace(cfg.Query.Coordinate) != "" {
		return cfg.Query.Coordinate, nil
	}
	return coord.ResolveArgs(args)
}

func runFind(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(findOverrides(cmd))
	if err != nil {
		return err
	}

	raw, err := resolveCoordinate(args, cfg)
	if err != nil {
		return err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := database.SetupSignalHandlerWithCallback(context.Background(), func(sig os.Signal) {
		log.Warnw("Received shutdown signal, stopping lookups", "signal", sig.String())
	})
	defer cancel()

	rc := remote.NewClientFromConfig(cfg, log)
	catalog := vizier.New(cfg.Services.VizieRURL, rc, log)
	xref := simbad.New(cfg.Services.SimbadURL, rc, log)

	var opts []finder.Option
	if cfg.Archive.Enabled {
		archive, closeArchive, err := archiveOpener(ctx, cfg, log)
		if err != nil {
			log.Warnw("Run archive unavailable, continuing without it", "error", err)
		} else {
			defer closeArchive()
			opts = append(opts, finder.WithArchive(archive))
		}
	}

	f, err := finder.New(cfg, catalog, xref, log, opts...)
	if err != nil {
		return fmt.Errorf("failed to create finder: %w", err)
	}

	params := finder.ParamsFromConfig(cfg)
	params.Coordinate = raw

	result, err := f.Run(ctx, params)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("search cancelled, no output written: %w", err)
		}
		return err
	}

	printRunStatus(result)

	if cfg.Output.Print {
		fmt.Fprintln(outputWriter)
		useColor := outputWriter == os.Stdout && color.SupportColor()
		if err := finder.RenderTable(outputWriter, result.Records, useColor); err != nil {
			return fmt.Errorf("failed to print results: %w", err)
		}
	}
	return nil
}

// archiveOpener is replaced in tests.
var archiveOpener = openArchive

// openArchive connects to MySQL and prepares the history tables.
func openArchive(ctx context.Context, cfg *config.Config, log *logger.Logger) (*store.RunStore, func(), error) {
	mgr := database.NewManager(&cfg.Archive.Database)
	if err := mgr.Connect(ctx); err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := mgr.Close(); err != nil {
			log.Warnw("Failed to close archive connection", "error", err)
		}
	}

	rs, err := store.NewRunStore(mgr.DB, cfg.Archive.TablePrefix, log)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	if err := rs.InitializeTables(ctx); err != nil {
		closeFn()
		return nil, nil, err
	}
	return rs, closeFn, nil
}

// printRunStatus prints the one-line outcome of a run.
func printRunStatus(r *finder.Result) {
	status := color.Green.Sprintf("%d single star(s)", r.Kept)
	if r.Kept == 0 {
		status = color.Yellow.Sprint("no single stars")
	}
	fmt.Fprintf(outputWriter, "Found %s around %s (r=%g°): %d candidate(s), %d passed the filter, %d excluded\n",
		status, r.Coordinate.String(), r.Params.Radius, r.Candidates, r.Filtered, r.Excluded)
	fmt.Fprintf(outputWriter, "Results written to %s (run %s)\n", r.OutputPath, r.RunID)
}
