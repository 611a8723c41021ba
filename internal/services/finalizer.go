package services

import (
	"context"
	"fmt"
	"time"

	"github.com/vvka-141/corpusdb/internal/schema"
	"github.com/vvka-141/corpusdb/pkg/corpusdb"
)

// FinalizeService converts the load schema into the final schema: it adds
// and validates the eight foreign keys, builds the nine secondary indexes,
// and refreshes planner statistics with ANALYZE.
//
// The stage is idempotent. Constraints that already exist are skipped, and
// index creation uses IF NOT EXISTS, so a failed run can be re-executed
// after fixing the data; completed work is not repeated.
//
// Thread-Safety: NOT safe for concurrent Finalize() calls on the same instance.
type FinalizeService struct {
	logger corpusdb.Logger
	dbConn dbConnFunc
}

// NewFinalizeService creates a FinalizeService with all dependencies injected.
// Panics on nil dependencies.
func NewFinalizeService(connectorFactory ConnectorFactory, logger corpusdb.Logger) *FinalizeService {
	if connectorFactory == nil {
		panic("connectorFactory cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	return &FinalizeService{
		logger: logger,
		dbConn: defaultDBConn(connectorFactory),
	}
}

// Finalize runs the post-load pass: foreign keys, indexes, ANALYZE.
//
// ALTER TABLE ... ADD CONSTRAINT validates every existing row. A violation
// means orphaned rows made it through the load; the error wraps
// corpusdb.ErrFinalizeFailed, names the constraint, and aborts the stage.
// Constraints added before the failure persist.
func (s *FinalizeService) Finalize(ctx context.Context, config corpusdb.FinalizeConfig) error {
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

	conn, cleanup, err := s.dbConn(ctx, connConfig)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := s.addForeignKeys(ctx, conn); err != nil {
		return err
	}
	if err := s.createIndexes(ctx, conn); err != nil {
		return err
	}
	if err := s.analyze(ctx, conn); err != nil {
		return err
	}

	s.logger.Info("✓ Finalize complete: %d foreign keys, %d indexes, statistics refreshed",
		len(schema.ForeignKeys()), len(schema.Indexes()))
	return nil
}

func (s *FinalizeService) addForeignKeys(ctx context.Context, conn corpusdb.DBConnection) error {
	for _, fk := range schema.ForeignKeys() {
		var exists bool
		if err := conn.QueryRow(ctx, queryConstraintExists, fk.Name, fk.Table).Scan(&exists); err != nil {
			return fmt.Errorf("constraint %s: existence check: %w: %w", fk.Name, corpusdb.ErrFinalizeFailed, err)
		}
		if exists {
			s.logger.Verbose("Constraint %s already exists, skipping", fk.Name)
			continue
		}

		s.logger.Info("Validating %s (%s.%s -> %s.%s)...", fk.Name, fk.Table, fk.Column, fk.RefTable, fk.RefColumn)
		start := time.Now()
		if _, err := conn.Exec(ctx, fk.AddSQL()); err != nil {
			return fmt.Errorf("constraint %s on %s: %w: %w", fk.Name, fk.Table, corpusdb.ErrFinalizeFailed, err)
		}
		s.logger.Verbose("Constraint %s added in %s", fk.Name, time.Since(start).Round(time.Millisecond))
	}
	return nil
}

func (s *FinalizeService) createIndexes(ctx context.Context, conn corpusdb.DBConnection) error {
	for _, ix := range schema.Indexes() {
		s.logger.Info("Building index %s on %s(%s)...", ix.Name, ix.Table, ix.Column)
		start := time.Now()
		if _, err := conn.Exec(ctx, ix.CreateSQL()); err != nil {
			return fmt.Errorf("index %s on %s: %w: %w", ix.Name, ix.Table, corpusdb.ErrFinalizeFailed, err)
		}
		s.logger.Verbose("Index %s ready in %s", ix.Name, time.Since(start).Round(time.Millisecond))
	}
	return nil
}

func (s *FinalizeService) analyze(ctx context.Context, conn corpusdb.DBConnection) error {
	for _, table := range corpusdb.LoadOrder() {
		s.logger.Verbose("ANALYZE %s", table)
		if _, err := conn.Exec(ctx, "ANALYZE "+table); err != nil {
			return fmt.Errorf("analyze %s: %w: %w", table, corpusdb.ErrFinalizeFailed, err)
		}
	}
	return nil
}
