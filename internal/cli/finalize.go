package cli

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/vvka-141/corpusdb/internal/db"
	"github.com/vvka-141/corpusdb/internal/logging"
	"github.com/vvka-141/corpusdb/internal/services"
	"github.com/vvka-141/corpusdb/pkg/corpusdb"
)

var finalizeCmd = &cobra.Command{
	Use:   "finalize",
	Short: "Add foreign keys, build indexes, refresh statistics",
	Long: `Convert the load schema into the final schema:

1. Add and validate the eight foreign-key constraints, parent-first.
   Validation scans every existing row; an orphan reference aborts the
   stage (exit code 14) naming the violated constraint. This is the
   pipeline's integrity gate.
2. Build the nine secondary indexes (CREATE INDEX IF NOT EXISTS).
3. ANALYZE every table so the planner sees real statistics.

The stage is idempotent: existing constraints are skipped, existing
indexes are reused. After a failure, fix the data and re-run; completed
work is not repeated.

Index builds on the opinions table dominate wall-clock time and can run
for hours on a full corpus. The default timeout is therefore unbounded.

Examples:
  corpusdb finalize -d corpus
  corpusdb finalize --connection "postgresql://loader@dbhost:5432/corpus"`,
	Args: cobra.NoArgs,
	RunE: runFinalize,
}

var finalizeFlags connFlagValues

func init() {
	rootCmd.AddCommand(finalizeCmd)
	addConnectionFlags(finalizeCmd, &finalizeFlags)

	finalizeCmd.Flags().DurationVar(&finalizeFlags.timeout, "timeout", 0,
		"Finalize timeout (default 0 = unbounded)")
}

func runFinalize(cmd *cobra.Command, args []string) error {
	verbose := getVerboseFlag(cmd)

	projectCfg, err := loadProjectConfig()
	if err != nil {
		return err
	}

	conn, _, err := buildStageConn(&finalizeFlags, projectCfg, verbose)
	if err != nil {
		return err
	}

	timeout, err := resolveTimeout(cmd, finalizeFlags.timeout, projectCfg)
	if err != nil {
		return err
	}

	config := corpusdb.FinalizeConfig{
		ConnectionString:  conn.ConnectionString,
		Timeout:           timeout,
		Verbose:           verbose,
		AuthMethod:        conn.AuthMethod,
		AWSRegion:         conn.AWSRegion,
		GoogleInstance:    conn.GoogleInstance,
		AzureTenantID:     conn.AzureTenantID,
		AzureClientID:     conn.AzureClientID,
		AzureClientSecret: conn.AzureClientSecret,
	}

	service := services.NewFinalizeService(db.NewConnector, logging.NewConsoleLogger(verbose))

	ctx, cancel := signalContext(context.Background())
	defer cancel()

	return service.Finalize(ctx, config)
}
