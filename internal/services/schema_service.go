package services

import (
	"context"
	"fmt"

	"github.com/vvka-141/corpusdb/internal/schema"
	"github.com/vvka-141/corpusdb/pkg/corpusdb"
)

// SchemaService creates the corpus database and its load-schema tables.
// The load schema carries primary keys only; foreign keys and secondary
// indexes are added by the finalizer after bulk load.
//
// Thread-Safety: NOT safe for concurrent Create() calls on the same instance.
type SchemaService struct {
	logger    corpusdb.Logger
	dbManager corpusdb.DatabaseManager
	dbConn    dbConnFunc
}

// NewSchemaService creates a SchemaService with all dependencies injected.
// Panics on nil dependencies; those are programmer errors that should fail
// loudly at startup rather than surface as nil dereferences mid-stage.
func NewSchemaService(
	connectorFactory ConnectorFactory,
	logger corpusdb.Logger,
	dbManager corpusdb.DatabaseManager,
) *SchemaService {
	if connectorFactory == nil {
		panic("connectorFactory cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	if dbManager == nil {
		panic("dbManager cannot be nil")
	}

	return &SchemaService{
		logger:    logger,
		dbManager: dbManager,
		dbConn:    defaultDBConn(connectorFactory),
	}
}

// Create ensures the target database exists, then creates the five
// load-schema tables. Both steps are idempotent: an existing database is
// reused and CREATE TABLE IF NOT EXISTS skips existing tables.
func (s *SchemaService) Create(ctx context.Context, config corpusdb.SchemaConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}

	ctx, cancel := stageContext(ctx, config.Timeout)
	defer cancel()

	connConfig, err := resolveConnConfig(
		config.ConnectionString, config.AuthMethod,
		config.AWSRegion, config.GoogleInstance,
		config.AzureTenantID, config.AzureClientID, config.AzureClientSecret,
	)
	if err != nil {
		return err
	}

	if err := s.ensureDatabase(ctx, connConfig, config); err != nil {
		return err
	}

	return s.createTables(ctx, connConfig, config)
}

// ensureDatabase connects to the maintenance database and creates the
// target database if it does not exist. CREATE DATABASE cannot run inside
// the database it creates.
func (s *SchemaService) ensureDatabase(ctx context.Context, connConfig *corpusdb.ConnectionConfig, config corpusdb.SchemaConfig) error {
	maintenanceDB := config.MaintenanceDatabase
	if maintenanceDB == "" {
		maintenanceDB = corpusdb.DefaultMaintenanceDB
	}

	mgmtConfig := *connConfig
	mgmtConfig.Database = maintenanceDB

	conn, cleanup, err := s.dbConn(ctx, &mgmtConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to maintenance database %q: %w", maintenanceDB, err)
	}
	defer cleanup()

	exists, err := s.dbManager.Exists(ctx, conn, config.DatabaseName)
	if err != nil {
		return err
	}
	if exists {
		s.logger.Verbose("Database %q already exists", config.DatabaseName)
		return nil
	}

	s.logger.Info("Creating database %q...", config.DatabaseName)
	return s.dbManager.Create(ctx, conn, config.DatabaseName)
}

func (s *SchemaService) createTables(ctx context.Context, connConfig *corpusdb.ConnectionConfig, config corpusdb.SchemaConfig) error {
	targetConfig := *connConfig
	targetConfig.Database = config.DatabaseName

	conn, cleanup, err := s.dbConn(ctx, &targetConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to database %q: %w", config.DatabaseName, err)
	}
	defer cleanup()

	for _, table := range schema.Tables() {
		s.logger.Verbose("Creating table %s", table.Name)
		if _, err := conn.Exec(ctx, table.CreateSQL); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.Name, err)
		}
	}

	s.logger.Info("✓ Load schema ready: %d tables, primary keys only", len(schema.Tables()))
	return nil
}
