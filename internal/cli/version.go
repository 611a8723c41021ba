package cli

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

// Set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version and build information",
	Long: `Show the corpusdb version and build details.

The first line on stdout is machine-parseable; everything else goes to
stderr so scripts can capture the version alone.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(versionLine())
		fmt.Fprintf(os.Stderr, "\nPostgreSQL bulk loader for the CourtListener citation graph\n")
		fmt.Fprintf(os.Stderr, "commit:  %s\n", commit)
		fmt.Fprintf(os.Stderr, "built:   %s\n", date)
		fmt.Fprintf(os.Stderr, "go:      %s\n", runtime.Version())
		fmt.Fprintf(os.Stderr, "project: https://github.com/vvka-141/corpusdb\n")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// versionLine is the single machine-parseable line written to stdout.
func versionLine() string {
	return fmt.Sprintf("corpusdb %s %s/%s", version, runtime.GOOS, runtime.GOARCH)
}
