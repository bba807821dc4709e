package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/starsift/internal/finder"
	"github.com/dbsmedya/starsift/internal/store"
)

var (
	historyLimit int
	historyRun   string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived search runs",
	Long: `History displays the runs stored in the MySQL run archive, newest
first. With --run it prints the result table of a single run instead.

The archive must be enabled in the configuration file.

Example:
  starsift history --config starsift.yaml --limit 5
  starsift history --run 0b6f5a0e-2c8f-4a55-9d0b-0a3b8c2f1e77`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20,
		"Maximum number of runs to list")
	historyCmd.Flags().StringVar(&historyRun, "run", "",
		"Show the records of this run ID")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(GetCLIOverrides())
	if err != nil {
		return err
	}
	if !cfg.Archive.Enabled {
		return fmt.Errorf("run archive is not enabled in %s (set archive.enabled)", GetConfigFile())
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	rs, closeArchive, err := archiveOpener(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to open run archive: %w", err)
	}
	defer closeArchive()

	if historyRun != "" {
		records, err := rs.GetRunRecords(ctx, historyRun)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			cmd.Printf("No records stored for run %s\n", historyRun)
			return nil
		}
		return finder.RenderTable(cmd.OutOrStdout(), records, false)
	}

	runs, err := rs.ListRuns(ctx, historyLimit)
	if err != nil {
		return err
	}
	printRuns(cmd, runs)
	return nil
}

func printRuns(cmd *cobra.Command, runs []store.RunSummary) {
	if len(runs) == 0 {
		cmd.Println("No archived runs")
		return
	}

	cmd.Printf("Archived runs (newest first):\n\n")
	for i, r := range runs {
		cmd.Printf("%d. %s\n", i+1, r.RunID)
		cmd.Printf("   Started:      %s (%s)\n", r.StartedAt.UTC().Format(time.RFC3339), r.Duration.Round(time.Millisecond))
		cmd.Printf("   Coordinate:   %s  r=%g deg\n", r.Coordinate, r.Radius)
		cmd.Printf("   Catalogs:     %s\n", strings.Join(r.Catalogs, ", "))
		cmd.Printf("   Candidates:   %d (passed filter %d, excluded %d, kept %d)\n",
			r.Candidates, r.Filtered, r.Excluded, r.Kept)
		cmd.Printf("   Output:       %s\n", r.OutputPath)

		if i < len(runs)-1 {
			cmd.Println()
		}
	}

	cmd.Printf("\nTotal: %d run(s)\n", len(runs))
}
