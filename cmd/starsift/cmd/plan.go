package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/starsift/internal/config"
	"github.com/dbsmedya/starsift/internal/coord"
	"github.com/dbsmedya/starsift/internal/finder"
	"github.com/dbsmedya/starsift/internal/logger"
	"github.com/dbsmedya/starsift/internal/remote"
	"github.com/dbsmedya/starsift/internal/simbad"
	"github.com/dbsmedya/starsift/internal/types"
	"github.com/dbsmedya/starsift/internal/vizier"
)

// sampleSourceID stands in for a catalog source in the printed ADQL.
const sampleSourceID = "<source_id>"

var planCmd = &cobra.Command{
	Use:   "plan [coordinate]",
	Short: "Show the requests a search would make",
	Long: `Plan validates the search parameters and shows what find would do
without contacting any service: the parsed coordinate and its units, the
effective filter settings, the VizieR URL of every catalog request and the
ADQL sent to SIMBAD for each candidate.

It accepts the same flags as find.

Example:
  starsift plan "11 02 24.8763629208 -77 33 35.667131796" --radius 0.5`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().AddFlagSet(searchFlags)
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(findOverrides(cmd))
	if err != nil {
		return err
	}

	raw, err := resolveCoordinate(args, cfg)
	if err != nil {
		return err
	}

	params := finder.ParamsFromConfig(cfg)
	params.Coordinate = raw

	v, err := params.Validate()
	if err != nil {
		return err
	}
	center, err := coord.Parse(raw)
	if err != nil {
		return err
	}

	printPlan(cfg, center, v)
	return nil
}

func printPlan(cfg *config.Config, center coord.Coordinate, v finder.Validated) {
	nop := logger.NewNop()
	rc := remote.NewClient(nop)
	viz := vizier.New(cfg.Services.VizieRURL, rc, nop)
	sim := simbad.New(cfg.Services.SimbadURL, rc, nop)

	printHeader("Search Plan: %s", center.Raw)
	fmt.Fprintln(outputWriter)

	printSection("Coordinate")
	printField("Input", center.Raw)
	printField("Units", center.Units.String())
	printField("RA (deg)", fmt.Sprintf("%.8f", center.RA))
	printField("Dec (deg)", fmt.Sprintf("%+.8f", center.Dec))
	fmt.Fprintln(outputWriter)

	printSection("Filter")
	radius := fmt.Sprintf("%g deg", v.Radius)
	if v.LargeRadius {
		radius += " (large radius, the query may take a long time)"
	}
	printField("Radius", radius)
	if v.Thresholds.RUWEFilter {
		printField("RUWE", fmt.Sprintf("< %g", v.Thresholds.RUWEMax))
	} else {
		printField("RUWE", "disabled")
	}
	printField("Gmag", fmt.Sprintf("%g < Gmag < %g", v.Thresholds.MagHigh, v.Thresholds.MagLow))
	printField("Row limit", rowLimitLabel(cfg.Query.RowLimit))
	fmt.Fprintln(outputWriter)

	printSection("Catalog Requests")
	q := types.RegionQuery{
		Center:    center,
		RadiusDeg: v.Radius,
		Catalogs:  v.Catalogs,
		RowLimit:  cfg.Query.RowLimit,
		Columns:   cfg.Query.Columns,
	}
	for i, catalog := range v.Catalogs {
		role := "context"
		if i == 0 {
			role = "filtered"
		}
		fmt.Fprintf(outputWriter, "  %d. %s (%s)\n", i+1, catalog, role)
		fmt.Fprintf(outputWriter, "     %s\n", viz.RegionURL(q, catalog, i == 0))
	}
	fmt.Fprintln(outputWriter)

	printSection("Cross-Reference")
	key := strings.TrimSpace(cfg.CrossRef.ReleaseTag) + " " + sampleSourceID
	printField("Lookup key", key)
	printField("Binary token", cfg.CrossRef.BinaryToken)
	unresolved := "excluded"
	if cfg.CrossRef.KeepUnresolved {
		unresolved = "kept"
	}
	printField("Unknown IDs", unresolved)
	printField("Concurrency", cfg.Processing.Concurrency)
	fmt.Fprintln(outputWriter, "  Identifiers:")
	fmt.Fprintf(outputWriter, "    %s\n", simbad.IdentifiersQuery(key))
	fmt.Fprintln(outputWriter, "  Object:")
	fmt.Fprintf(outputWriter, "    %s\n", simbad.ObjectQuery(key))
	fmt.Fprintln(outputWriter, "  Request:")
	fmt.Fprintf(outputWriter, "    %s\n", sim.QueryURL(simbad.IdentifiersQuery(key)))
	fmt.Fprintln(outputWriter)

	printSection("Output")
	printField("Table", cfg.Output.Path)
	if cfg.Output.SummaryPath != "" {
		printField("Summary", cfg.Output.SummaryPath)
	}
	if cfg.Archive.Enabled {
		printField("Archive", fmt.Sprintf("%s@%s:%d/%s (prefix %s)",
			cfg.Archive.Database.User, cfg.Archive.Database.Host, cfg.Archive.Database.Port,
			cfg.Archive.Database.Database, cfg.Archive.TablePrefix))
	} else {
		printField("Archive", "disabled")
	}
}

func rowLimitLabel(n int) string {
	if n < 0 {
		return "unlimited"
	}
	return fmt.Sprintf("%d", n)
}
