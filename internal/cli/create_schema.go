package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/vvka-141/corpusdb/internal/db"
	"github.com/vvka-141/corpusdb/internal/db/manager"
	"github.com/vvka-141/corpusdb/internal/logging"
	"github.com/vvka-141/corpusdb/internal/services"
	"github.com/vvka-141/corpusdb/pkg/corpusdb"
)

var createSchemaCmd = &cobra.Command{
	Use:   "create-schema",
	Short: "Create the corpus database and load-schema tables",
	Long: `Create the target database (if missing) and the five load-schema tables:
courts, dockets, opinion_clusters, opinions, citation_map.

The load schema carries primary keys only. Foreign keys and secondary
indexes are deliberately absent so bulk COPY runs at sequential-write
speed; 'corpusdb finalize' adds them after the load.

The command is idempotent: an existing database is reused and existing
tables are left untouched.

Examples:
  # Create database 'corpus' on localhost
  corpusdb create-schema -d corpus

  # Explicit connection string (database component is the target)
  corpusdb create-schema --connection "postgresql://loader@dbhost:5432/corpus"

  # Non-default maintenance database for CREATE DATABASE
  corpusdb create-schema -d corpus --maintenance-db template1`,
	Args: cobra.NoArgs,
	RunE: runCreateSchema,
}

type createSchemaFlagValues struct {
	conn          connFlagValues
	maintenanceDB string
}

var createSchemaFlags createSchemaFlagValues

func init() {
	rootCmd.AddCommand(createSchemaCmd)
	addConnectionFlags(createSchemaCmd, &createSchemaFlags.conn)

	createSchemaCmd.Flags().StringVar(&createSchemaFlags.maintenanceDB, "maintenance-db", corpusdb.DefaultMaintenanceDB,
		"Database to connect to for CREATE DATABASE (the target cannot create itself)")
	createSchemaCmd.Flags().DurationVar(&createSchemaFlags.conn.timeout, "timeout", 5*time.Minute,
		"Stage timeout (0 = unbounded)")
}

func runCreateSchema(cmd *cobra.Command, args []string) error {
	verbose := getVerboseFlag(cmd)

	projectCfg, err := loadProjectConfig()
	if err != nil {
		return err
	}

	conn, connConfig, err := buildStageConn(&createSchemaFlags.conn, projectCfg, verbose)
	if err != nil {
		return err
	}

	if connConfig.Database == "" || connConfig.Database == createSchemaFlags.maintenanceDB {
		return fmt.Errorf("target database name is required\n"+
			"Provide via:\n"+
			"  1. --database/-d flag: corpusdb create-schema -d corpus\n"+
			"  2. Connection string: corpusdb create-schema --connection \"postgresql://user@host/corpus\"\n"+
			"  3. Environment variable: export PGDATABASE=corpus: %w", corpusdb.ErrInvalidConfig)
	}

	timeout, err := resolveTimeout(cmd, createSchemaFlags.conn.timeout, projectCfg)
	if err != nil {
		return err
	}

	config := corpusdb.SchemaConfig{
		DatabaseName:        connConfig.Database,
		MaintenanceDatabase: createSchemaFlags.maintenanceDB,
		ConnectionString:    conn.ConnectionString,
		Timeout:             timeout,
		Verbose:             verbose,
		AuthMethod:          conn.AuthMethod,
		AWSRegion:           conn.AWSRegion,
		GoogleInstance:      conn.GoogleInstance,
		AzureTenantID:       conn.AzureTenantID,
		AzureClientID:       conn.AzureClientID,
		AzureClientSecret:   conn.AzureClientSecret,
	}

	service := services.NewSchemaService(
		db.NewConnector,
		logging.NewConsoleLogger(verbose),
		manager.New(),
	)

	ctx, cancel := signalContext(context.Background())
	defer cancel()

	return service.Create(ctx, config)
}
