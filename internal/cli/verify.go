package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/vvka-141/corpusdb/internal/db"
	"github.com/vvka-141/corpusdb/internal/logging"
	"github.com/vvka-141/corpusdb/internal/services"
	"github.com/vvka-141/corpusdb/pkg/corpusdb"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Report per-table row counts",
	Long: `Count rows in all five tables, in load order, and report the totals.

When corpus.yaml carries expected_counts for the snapshot, each count is
compared against the published figure. A mismatch is reported as a
warning for operator judgment, never as a failure: published counts
routinely lag the actual export by a small margin.

Read-only; safe to run at any point after create-schema.

Examples:
  corpusdb verify -d corpus`,
	Args: cobra.NoArgs,
	RunE: runVerify,
}

var verifyFlags connFlagValues

func init() {
	rootCmd.AddCommand(verifyCmd)
	addConnectionFlags(verifyCmd, &verifyFlags)

	verifyCmd.Flags().DurationVar(&verifyFlags.timeout, "timeout", 30*time.Minute,
		"Verify timeout (COUNT(*) on a full corpus is a sequential scan)")
}

func runVerify(cmd *cobra.Command, args []string) error {
	verbose := getVerboseFlag(cmd)

	projectCfg, err := loadProjectConfig()
	if err != nil {
		return err
	}

	conn, _, err := buildStageConn(&verifyFlags, projectCfg, verbose)
	if err != nil {
		return err
	}

	timeout, err := resolveTimeout(cmd, verifyFlags.timeout, projectCfg)
	if err != nil {
		return err
	}

	config := corpusdb.VerifyConfig{
		ConnectionString:  conn.ConnectionString,
		ExpectedCounts:    expectedCounts(projectCfg),
		Timeout:           timeout,
		Verbose:           verbose,
		AuthMethod:        conn.AuthMethod,
		AWSRegion:         conn.AWSRegion,
		GoogleInstance:    conn.GoogleInstance,
		AzureTenantID:     conn.AzureTenantID,
		AzureClientID:     conn.AzureClientID,
		AzureClientSecret: conn.AzureClientSecret,
	}

	service := services.NewVerifyService(db.NewConnector, logging.NewConsoleLogger(verbose))

	ctx, cancel := signalContext(context.Background())
	defer cancel()

	_, err = service.Verify(ctx, config)
	return err
}
