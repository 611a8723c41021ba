package services

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vvka-141/corpusdb/internal/snapshot"
	"github.com/vvka-141/corpusdb/pkg/corpusdb"
)

// copyBufferSize is the read buffer for streaming a snapshot file into the
// COPY protocol. Memory use per load is bounded by this regardless of file
// size.
const copyBufferSize = 1 << 20

// TableResult records the outcome of one table's bulk copy.
type TableResult struct {
	Table    string
	Rows     int64
	Duration time.Duration
}

// LoadService streams the five snapshot files into the load-schema tables
// over the COPY FROM STDIN protocol, in mandatory load order. The first
// failure aborts the run: resuming a half-copied table is not possible, so
// continuing past an error could only corrupt the corpus.
//
// Thread-Safety: NOT safe for concurrent Load() calls on the same instance.
type LoadService struct {
	logger    corpusdb.Logger
	dbManager corpusdb.DatabaseManager
	dbConn    dbConnFunc

	// openFile is swapped in tests to inject read failures.
	openFile func(path string) (*os.File, error)
}

// NewLoadService creates a LoadService with all dependencies injected.
// Panics on nil dependencies.
func NewLoadService(connectorFactory ConnectorFactory, logger corpusdb.Logger, dbManager corpusdb.DatabaseManager) *LoadService {
	if connectorFactory == nil {
		panic("connectorFactory cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	if dbManager == nil {
		panic("dbManager cannot be nil")
	}

	return &LoadService{
		logger:    logger,
		dbManager: dbManager,
		dbConn:    defaultDBConn(connectorFactory),
		openFile:  os.Open,
	}
}

// Load runs one bulk-load pass. Sequence:
//
//  1. Validate the config.
//  2. Preflight: stat all five snapshot files before touching the database.
//  3. Connect; optionally truncate all five tables.
//  4. COPY each file in load order, reporting per-file row counts.
//
// On a mid-copy failure the error wraps corpusdb.ErrLoadFailed and names
// the table; that table is left partially populated and the operator must
// re-run with truncation before retrying.
func (s *LoadService) Load(ctx context.Context, config corpusdb.LoadConfig) ([]TableResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	files, err := snapshot.Preflight(config.SnapshotDir, config.SnapshotDate)
	if err != nil {
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

	runID := uuid.New()
	s.logger.Info("Load run %s: snapshot %s from %s", runID, config.SnapshotDate, config.SnapshotDir)

	if config.Truncate {
		s.logger.Info("Truncating all tables before load")
		if err := s.dbManager.Truncate(ctx, conn, corpusdb.LoadOrder()); err != nil {
			return nil, fmt.Errorf("%w: %w", corpusdb.ErrLoadFailed, err)
		}
	}

	results := make([]TableResult, 0, len(files))
	for _, f := range files {
		result, err := s.loadTable(ctx, conn, f, config.Format)
		if err != nil {
			return results, fmt.Errorf("table %s: %w: %w", f.Table, corpusdb.ErrLoadFailed, err)
		}
		results = append(results, result)

		if expected, ok := config.ExpectedCounts[f.Table]; ok && expected != result.Rows {
			s.warnCountMismatch(f, config.Format.Quote, result.Rows, expected)
		}
	}

	var total int64
	for _, r := range results {
		total += r.Rows
	}
	s.logger.Info("✓ Load run %s complete: %d rows across %d tables", runID, total, len(results))
	return results, nil
}

// warnCountMismatch reports an expected-count mismatch, cross-checking
// against the file's own data-row count to point at the likely culprit
// (a stale expected_counts entry versus a short copy). Mismatches are
// warnings only; the run continues.
func (s *LoadService) warnCountMismatch(f snapshot.File, quote rune, loaded, expected int64) {
	fileRows, err := snapshot.CountDataRows(f.Path, quote)
	if err != nil {
		s.logger.Warn("%s: loaded %d rows, expected %d", f.Table, loaded, expected)
		return
	}
	s.logger.Warn("%s: loaded %d rows, expected %d (file has %d data rows)",
		f.Table, loaded, expected, fileRows)
}

// loadTable streams one snapshot file into its table on a dedicated
// connection. COPY requires connection affinity for the whole stream.
func (s *LoadService) loadTable(ctx context.Context, conn corpusdb.DBConnection, f snapshot.File, format corpusdb.CSVFormat) (TableResult, error) {
	file, err := s.openFile(f.Path)
	if err != nil {
		return TableResult{}, fmt.Errorf("open %s: %w", f.Path, err)
	}
	defer file.Close()

	pooledConn, err := conn.Acquire(ctx)
	if err != nil {
		return TableResult{}, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer pooledConn.Release()

	s.logger.Verbose("COPY %s from %s", f.Table, f.Path)
	start := time.Now()

	reader := bufio.NewReaderSize(file, copyBufferSize)
	rows, err := pooledConn.CopyFrom(ctx, reader, buildCopySQL(f.Table, format))
	if err != nil {
		return TableResult{}, err
	}

	elapsed := time.Since(start).Round(time.Millisecond)
	s.logger.Info("%s: %d rows in %s", f.Table, rows, elapsed)

	return TableResult{Table: f.Table, Rows: rows, Duration: elapsed}, nil
}

// buildCopySQL renders the COPY statement for a table using the snapshot's
// CSV contract. Single quotes in the option values are doubled per SQL
// literal rules; table names come from the static schema declaration.
func buildCopySQL(table string, format corpusdb.CSVFormat) string {
	return fmt.Sprintf(
		"COPY %s FROM STDIN WITH (FORMAT CSV, HEADER TRUE, QUOTE '%s', NULL '%s')",
		table,
		escapeSQLLiteral(string(format.Quote)),
		escapeSQLLiteral(format.NullSentinel),
	)
}

func escapeSQLLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
