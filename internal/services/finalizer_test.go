package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/corpusdb/internal/schema"
	"github.com/vvka-141/corpusdb/pkg/corpusdb"
)

func testFinalizeConfig() corpusdb.FinalizeConfig {
	return corpusdb.FinalizeConfig{
		ConnectionString: "postgresql://loader@localhost/corpus",
	}
}

func newTestFinalizeService(conn corpusdb.DBConnection) (*FinalizeService, *recordingLogger) {
	logger := &recordingLogger{}
	svc := NewFinalizeService(dummyFactory, logger)
	svc.dbConn = stubConn(conn)
	return svc, logger
}

func TestFinalizeExecutesAllStatementsInOrder(t *testing.T) {
	conn := &fakeDBConn{
		queryRow: func(ctx context.Context, sql string, args ...any) corpusdb.Row {
			return boolRow(false)
		},
	}

	svc, _ := newTestFinalizeService(conn)
	require.NoError(t, svc.Finalize(context.Background(), testFinalizeConfig()))

	executed := conn.executed()
	fks := schema.ForeignKeys()
	indexes := schema.Indexes()
	tables := corpusdb.LoadOrder()
	require.Len(t, executed, len(fks)+len(indexes)+len(tables))

	for i, fk := range fks {
		assert.Equal(t, fk.AddSQL(), executed[i])
	}
	for i, ix := range indexes {
		assert.Equal(t, ix.CreateSQL(), executed[len(fks)+i])
	}
	for i, table := range tables {
		assert.Equal(t, "ANALYZE "+table, executed[len(fks)+len(indexes)+i])
	}
}

func TestFinalizeSkipsExistingConstraints(t *testing.T) {
	conn := &fakeDBConn{
		queryRow: func(ctx context.Context, sql string, args ...any) corpusdb.Row {
			return boolRow(true)
		},
	}

	svc, logger := newTestFinalizeService(conn)
	require.NoError(t, svc.Finalize(context.Background(), testFinalizeConfig()))

	for _, sql := range conn.executed() {
		assert.NotContains(t, sql, "ADD CONSTRAINT")
	}
	assert.Len(t, conn.executed(), len(schema.Indexes())+len(corpusdb.LoadOrder()))

	skipped := 0
	for _, msg := range logger.verbose {
		if strings.Contains(msg, "already exists") {
			skipped++
		}
	}
	assert.Equal(t, len(schema.ForeignKeys()), skipped)
}

func TestFinalizeAbortsOnConstraintViolation(t *testing.T) {
	violation := &pgconn.PgError{Code: "23503", ConstraintName: "fk_citation_map_citing"}
	conn := &fakeDBConn{
		queryRow: func(ctx context.Context, sql string, args ...any) corpusdb.Row {
			return boolRow(false)
		},
		execFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			if strings.Contains(sql, "fk_citation_map_citing") {
				return pgconn.CommandTag{}, violation
			}
			return pgconn.CommandTag{}, nil
		},
	}

	svc, _ := newTestFinalizeService(conn)
	err := svc.Finalize(context.Background(), testFinalizeConfig())

	require.Error(t, err)
	assert.ErrorIs(t, err, corpusdb.ErrFinalizeFailed)
	assert.Contains(t, err.Error(), "fk_citation_map_citing")

	// Constraints added before the failure persist; nothing past the
	// failing ALTER was attempted.
	for _, sql := range conn.executed() {
		assert.NotContains(t, sql, "CREATE INDEX")
		assert.NotContains(t, sql, "ANALYZE")
	}
}

func TestFinalizeIndexFailure(t *testing.T) {
	indexErr := errors.New("disk full")
	conn := &fakeDBConn{
		queryRow: func(ctx context.Context, sql string, args ...any) corpusdb.Row {
			return boolRow(true)
		},
		execFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			if strings.Contains(sql, "idx_opinions_sha1") {
				return pgconn.CommandTag{}, indexErr
			}
			return pgconn.CommandTag{}, nil
		},
	}

	svc, _ := newTestFinalizeService(conn)
	err := svc.Finalize(context.Background(), testFinalizeConfig())

	require.Error(t, err)
	assert.ErrorIs(t, err, corpusdb.ErrFinalizeFailed)
	assert.Contains(t, err.Error(), "idx_opinions_sha1")
}

func TestFinalizeInvalidConfig(t *testing.T) {
	svc, _ := newTestFinalizeService(&fakeDBConn{})
	err := svc.Finalize(context.Background(), corpusdb.FinalizeConfig{})
	assert.ErrorIs(t, err, corpusdb.ErrInvalidConfig)
}

func TestFinalizeConnectionFailure(t *testing.T) {
	svc, _ := newTestFinalizeService(&fakeDBConn{})
	svc.dbConn = failingConn(corpusdb.ErrConnectionFailed)

	err := svc.Finalize(context.Background(), testFinalizeConfig())
	assert.ErrorIs(t, err, corpusdb.ErrConnectionFailed)
}
