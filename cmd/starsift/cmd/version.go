package cmd

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/starsift/internal/config"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display the starsift version, the commit it was built from, the Go
toolchain and platform of the binary and the built-in service endpoints.`,
	Run: runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) {
	services := config.DefaultConfig().Services

	cmd.Printf("starsift version %s\n", Version)
	cmd.Printf("  Commit: %s\n", Commit)
	cmd.Printf("  Go version: %s\n", runtime.Version())
	cmd.Printf("  OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	cmd.Printf("  Default VizieR: %s\n", services.VizieRURL)
	cmd.Printf("  Default SIMBAD: %s\n", services.SimbadURL)
}
