package services

import (
	"context"
	"fmt"

	"github.com/vvka-141/corpusdb/pkg/corpusdb"
)

// TableCount is one table's verified row count.
type TableCount struct {
	Table string
	Rows  int64

	// Expected is the published count for this snapshot, when configured.
	Expected int64
	HasCheck bool
}

// VerifyService reports per-table row counts after a load. Counts are
// compared against the snapshot's published expected counts when provided;
// a mismatch is a warning for operator judgment, never a failure, because
// published counts routinely lag the actual export by a small margin.
//
// Thread-Safety: safe for concurrent Verify() calls; the service is stateless.
type VerifyService struct {
	logger corpusdb.Logger
	dbConn dbConnFunc
}

// NewVerifyService creates a VerifyService with all dependencies injected.
// Panics on nil dependencies.
func NewVerifyService(connectorFactory ConnectorFactory, logger corpusdb.Logger) *VerifyService {
	if connectorFactory == nil {
		panic("connectorFactory cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	return &VerifyService{
		logger: logger,
		dbConn: defaultDBConn(connectorFactory),
	}
}

// Verify counts rows in all five tables in load order and logs the totals.
// An empty table is reported but is not an error; a snapshot can
// legitimately contain a zero-row file.
func (s *VerifyService) Verify(ctx context.Context, config corpusdb.VerifyConfig) ([]TableCount, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := stageContext(ctx, config.Timeout)
	defer cancel()

	connConfig, err := resolveConnConfig(
		config.ConnectionString, config.AuthMethod,
		config.AWSRegion, config.GoogleInstance,
		config.AzureTenantID, config.AzureClientID, config.AzureClientSecret,
	)
	if err != nil {
		return nil, err
	}

	conn, cleanup, err := s.dbConn(ctx, connConfig)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	counts := make([]TableCount, 0, len(corpusdb.LoadOrder()))
	var total int64
	for _, table := range corpusdb.LoadOrder() {
		var rows int64
		// Table names come from the static load order, never from input.
		if err := conn.QueryRow(ctx, "SELECT COUNT(*) FROM "+table).Scan(&rows); err != nil {
			return counts, fmt.Errorf("count %s: %w", table, err)
		}

		tc := TableCount{Table: table, Rows: rows}
		if expected, ok := config.ExpectedCounts[table]; ok {
			tc.Expected = expected
			tc.HasCheck = true
		}
		counts = append(counts, tc)
		total += rows

		switch {
		case tc.HasCheck && tc.Expected != rows:
			s.logger.Warn("%s: %d rows (expected %d)", table, rows, tc.Expected)
		default:
			s.logger.Info("%s: %d rows", table, rows)
		}
	}

	s.logger.Info("✓ Verify complete: %d rows total", total)
	return counts, nil
}
