package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vvka-141/corpusdb/internal/config"
	"github.com/vvka-141/corpusdb/internal/db"
	"github.com/vvka-141/corpusdb/internal/db/manager"
	"github.com/vvka-141/corpusdb/internal/logging"
	"github.com/vvka-141/corpusdb/internal/services"
	"github.com/vvka-141/corpusdb/internal/snapshot"
	"github.com/vvka-141/corpusdb/pkg/corpusdb"
)

var loadCmd = &cobra.Command{
	Use:   "load <snapshot-date>",
	Short: "Bulk-load a snapshot into the load schema",
	Long: `Stream the five snapshot CSV files into PostgreSQL over the COPY FROM
STDIN protocol, in mandatory load order: courts, dockets,
opinion_clusters, opinions, citation_map.

Before anything touches the database, all five files are preflighted;
a missing file aborts the run with nothing loaded. The snapshot date
selects the files: 'load 2024-12-31' expects opinion-clusters-2024-12-31.csv
and so on under the snapshot directory.

The CourtListener exports quote with backticks and use the empty string
for NULL; both are configurable per snapshot with --quote and --null.

A failure mid-copy aborts the whole run (exit code 13). The failing
table is left partially loaded; re-run with --truncate to start clean.

Examples:
  # Load the 2024-12-31 snapshot from ./data
  corpusdb load 2024-12-31 --dir ./data -d corpus

  # Full re-import after a failed run
  corpusdb load 2024-12-31 --dir ./data -d corpus --truncate

  # An export with conventional double-quote CSV
  corpusdb load 2024-12-31 --dir ./data -d corpus --quote '"'`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

type loadFlagValues struct {
	conn     connFlagValues
	dir      string
	quote    string
	null     string
	truncate bool
}

var loadFlags loadFlagValues

func init() {
	rootCmd.AddCommand(loadCmd)
	addConnectionFlags(loadCmd, &loadFlags.conn)

	loadCmd.Flags().StringVar(&loadFlags.dir, "dir", "",
		"Directory containing the snapshot CSV files (default: snapshot.dir from corpus.yaml)")
	loadCmd.Flags().StringVar(&loadFlags.quote, "quote", "",
		"CSV quote character of this export (default: backtick, or csv.quote from corpus.yaml)")
	loadCmd.Flags().StringVar(&loadFlags.null, "null", "",
		"NULL sentinel string of this export (default: empty string, or csv.null from corpus.yaml)")
	loadCmd.Flags().BoolVar(&loadFlags.truncate, "truncate", false,
		"Empty all five tables before loading (full re-import)")
	loadCmd.Flags().DurationVar(&loadFlags.conn.timeout, "timeout", 0,
		"Load timeout (default 0 = unbounded; the opinions table alone can run for hours)")
}

func runLoad(cmd *cobra.Command, args []string) error {
	snapshotDate := args[0]
	verbose := getVerboseFlag(cmd)

	if !snapshot.ValidDate(snapshotDate) {
		return fmt.Errorf("snapshot date %q is not in YYYY-MM-DD form: %w", snapshotDate, corpusdb.ErrInvalidConfig)
	}

	projectCfg, err := loadProjectConfig()
	if err != nil {
		return err
	}

	conn, _, err := buildStageConn(&loadFlags.conn, projectCfg, verbose)
	if err != nil {
		return err
	}

	dir := loadFlags.dir
	if dir == "" && projectCfg != nil {
		dir = projectCfg.Snapshot.Dir
	}
	if dir == "" {
		return fmt.Errorf("snapshot directory is required (--dir or snapshot.dir in corpus.yaml): %w", corpusdb.ErrInvalidConfig)
	}

	format, err := resolveCSVFormat(cmd, projectCfg)
	if err != nil {
		return err
	}

	timeout, err := resolveTimeout(cmd, loadFlags.conn.timeout, projectCfg)
	if err != nil {
		return err
	}

	config := corpusdb.LoadConfig{
		SnapshotDate:      snapshotDate,
		SnapshotDir:       dir,
		ConnectionString:  conn.ConnectionString,
		Format:            format,
		ExpectedCounts:    expectedCounts(projectCfg),
		Truncate:          loadFlags.truncate,
		Timeout:           timeout,
		Verbose:           verbose,
		AuthMethod:        conn.AuthMethod,
		AWSRegion:         conn.AWSRegion,
		GoogleInstance:    conn.GoogleInstance,
		AzureTenantID:     conn.AzureTenantID,
		AzureClientID:     conn.AzureClientID,
		AzureClientSecret: conn.AzureClientSecret,
	}

	service := services.NewLoadService(
		db.NewConnector,
		logging.NewConsoleLogger(verbose),
		manager.New(),
	)

	ctx, cancel := signalContext(context.Background())
	defer cancel()

	_, err = service.Load(ctx, config)
	return err
}

// resolveCSVFormat layers --quote/--null over corpus.yaml over the
// defaults of the observed export contract.
func resolveCSVFormat(cmd *cobra.Command, projectCfg *config.ProjectConfig) (corpusdb.CSVFormat, error) {
	format := corpusdb.DefaultCSVFormat()

	if projectCfg != nil {
		cfgFormat, err := projectCfg.CSV.Format()
		if err != nil {
			return corpusdb.CSVFormat{}, err
		}
		format = cfgFormat
	}

	if loadFlags.quote != "" {
		runes := []rune(loadFlags.quote)
		if len(runes) != 1 {
			return corpusdb.CSVFormat{}, fmt.Errorf("--quote must be a single character, got %q: %w", loadFlags.quote, corpusdb.ErrInvalidConfig)
		}
		format.Quote = runes[0]
	}
	if cmd.Flags().Changed("null") {
		format.NullSentinel = loadFlags.null
	}

	return format, nil
}
