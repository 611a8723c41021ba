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

var sampleCmd = &cobra.Command{
	Use:   "sample-queries",
	Short: "Run showcase queries against the finalized corpus",
	Long: `Run read-only showcase queries to confirm the finalized corpus answers
real questions at index speed:

  - Docket and cluster volume per active court
  - Most recently filed cases
  - Opinion type distribution
  - Most cited opinions

With --case-name, additionally list every opinion filed under a matching
case name (ILIKE pattern, joining docket to cluster to opinion).

With --opinion, additionally print the one-hop citation neighborhood of
that opinion: who cites it, and what it cites. --min-depth restricts the
lookup to citation edges of at least that depth. The citation graph
contains cycles and self-loops; lookups are a single hop and never
traverse recursively.

Examples:
  corpusdb sample-queries -d corpus
  corpusdb sample-queries -d corpus --case-name "%miranda%"
  corpusdb sample-queries -d corpus --opinion 118144 --min-depth 2`,
	Args: cobra.NoArgs,
	RunE: runSampleQueries,
}

type sampleFlagValues struct {
	conn      connFlagValues
	opinionID int64
	minDepth  int64
	caseName  string
}

var sampleFlags sampleFlagValues

func init() {
	rootCmd.AddCommand(sampleCmd)
	addConnectionFlags(sampleCmd, &sampleFlags.conn)

	sampleCmd.Flags().Int64Var(&sampleFlags.opinionID, "opinion", 0,
		"Also print the one-hop citation neighborhood of this opinion ID")
	sampleCmd.Flags().Int64Var(&sampleFlags.minDepth, "min-depth", 0,
		"Only include citation edges of at least this depth (0 = no filter)")
	sampleCmd.Flags().StringVar(&sampleFlags.caseName, "case-name", "",
		"Also list opinions whose case name matches this ILIKE pattern")
	sampleCmd.Flags().DurationVar(&sampleFlags.conn.timeout, "timeout", 10*time.Minute,
		"Query timeout")
}

func runSampleQueries(cmd *cobra.Command, args []string) error {
	verbose := getVerboseFlag(cmd)

	projectCfg, err := loadProjectConfig()
	if err != nil {
		return err
	}

	conn, _, err := buildStageConn(&sampleFlags.conn, projectCfg, verbose)
	if err != nil {
		return err
	}

	timeout, err := resolveTimeout(cmd, sampleFlags.conn.timeout, projectCfg)
	if err != nil {
		return err
	}

	config := corpusdb.VerifyConfig{
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

	logger := logging.NewConsoleLogger(verbose)
	service := services.NewSampleService(db.NewConnector, logger)

	ctx, cancel := signalContext(context.Background())
	defer cancel()

	if err := service.Run(ctx, config); err != nil {
		return err
	}

	if sampleFlags.caseName != "" {
		opinions, err := service.OpinionsByCaseName(ctx, config, sampleFlags.caseName)
		if err != nil {
			return err
		}
		logger.Info("--- Opinions under case name %q (%d found) ---", sampleFlags.caseName, len(opinions))
		for _, op := range opinions {
			filed := ""
			if op.DateFiled != nil {
				filed = op.DateFiled.Format(corpusdb.SnapshotDateLayout)
			}
			logger.Info("  opinion %-10d docket %-10d %s  %s (%s)",
				op.OpinionID, op.DocketID, filed, op.CaseName, op.Type)
		}
	}

	if sampleFlags.opinionID != 0 {
		neighbors, err := service.Citations(ctx, config, sampleFlags.opinionID, sampleFlags.minDepth)
		if err != nil {
			return err
		}
		logger.Info("--- Citation neighborhood of opinion %d ---", neighbors.OpinionID)
		logger.Info("  cited by %d opinion(s): %v", len(neighbors.CitedBy), neighbors.CitedBy)
		logger.Info("  cites %d opinion(s): %v", len(neighbors.Cites), neighbors.Cites)
	}

	return nil
}
