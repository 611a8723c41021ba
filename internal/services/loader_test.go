package services

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/corpusdb/internal/snapshot"
	"github.com/vvka-141/corpusdb/pkg/corpusdb"
)

const testSnapshotDate = "2024-12-31"

func writeSnapshotDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, table := range corpusdb.LoadOrder() {
		path := filepath.Join(dir, snapshot.FileName(table, testSnapshotDate))
		require.NoError(t, os.WriteFile(path, []byte("id\n1\n"), 0644))
	}
	return dir
}

func testLoadConfig(dir string) corpusdb.LoadConfig {
	return corpusdb.LoadConfig{
		SnapshotDate:     testSnapshotDate,
		SnapshotDir:      dir,
		ConnectionString: "postgresql://loader@localhost/corpus",
		Format:           corpusdb.DefaultCSVFormat(),
	}
}

func newTestLoadService(conn corpusdb.DBConnection, manager *fakeDBManager) (*LoadService, *recordingLogger) {
	logger := &recordingLogger{}
	svc := NewLoadService(dummyFactory, logger, manager)
	svc.dbConn = stubConn(conn)
	return svc, logger
}

func TestBuildCopySQL(t *testing.T) {
	tests := []struct {
		name   string
		format corpusdb.CSVFormat
		want   string
	}{
		{
			"backtick default",
			corpusdb.DefaultCSVFormat(),
			"COPY opinions FROM STDIN WITH (FORMAT CSV, HEADER TRUE, QUOTE '`', NULL '')",
		},
		{
			"double quote",
			corpusdb.CSVFormat{Quote: '"', NullSentinel: `\N`},
			`COPY opinions FROM STDIN WITH (FORMAT CSV, HEADER TRUE, QUOTE '"', NULL '\N')`,
		},
		{
			"single quote doubled",
			corpusdb.CSVFormat{Quote: '\''},
			"COPY opinions FROM STDIN WITH (FORMAT CSV, HEADER TRUE, QUOTE '''', NULL '')",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildCopySQL("opinions", tt.format))
		})
	}
}

func TestLoadCopiesTablesInOrder(t *testing.T) {
	dir := writeSnapshotDir(t)

	var copiedSQL []string
	calls := 0
	conn := &fakeDBConn{pooled: &fakePooledConn{
		copyFunc: func(ctx context.Context, r io.Reader, copySQL string) (int64, error) {
			copiedSQL = append(copiedSQL, copySQL)
			calls++
			return int64(calls * 10), nil
		},
	}}

	svc, _ := newTestLoadService(conn, &fakeDBManager{})
	results, err := svc.Load(context.Background(), testLoadConfig(dir))
	require.NoError(t, err)

	require.Len(t, results, 5)
	for i, table := range corpusdb.LoadOrder() {
		assert.Equal(t, table, results[i].Table)
		assert.Equal(t, int64((i+1)*10), results[i].Rows)
		assert.Contains(t, copiedSQL[i], "COPY "+table+" FROM STDIN")
	}
}

func TestLoadPreflightRunsBeforeConnect(t *testing.T) {
	dir := writeSnapshotDir(t)
	require.NoError(t, os.Remove(filepath.Join(dir, snapshot.FileName(corpusdb.TableOpinions, testSnapshotDate))))

	svc, _ := newTestLoadService(&fakeDBConn{}, &fakeDBManager{})
	connected := false
	svc.dbConn = func(ctx context.Context, connConfig *corpusdb.ConnectionConfig) (corpusdb.DBConnection, func(), error) {
		connected = true
		return &fakeDBConn{}, func() {}, nil
	}

	_, err := svc.Load(context.Background(), testLoadConfig(dir))
	require.Error(t, err)
	assert.ErrorIs(t, err, corpusdb.ErrSnapshotFileMissing)
	assert.False(t, connected, "no connection should be opened when preflight fails")
}

func TestLoadAbortsOnFirstCopyFailure(t *testing.T) {
	dir := writeSnapshotDir(t)

	copyErr := errors.New("invalid byte sequence for encoding")
	conn := &fakeDBConn{pooled: &fakePooledConn{
		copyFunc: func(ctx context.Context, r io.Reader, copySQL string) (int64, error) {
			if strings.Contains(copySQL, corpusdb.TableOpinionClusters) {
				return 0, copyErr
			}
			return 1, nil
		},
	}}

	svc, _ := newTestLoadService(conn, &fakeDBManager{})
	results, err := svc.Load(context.Background(), testLoadConfig(dir))

	require.Error(t, err)
	assert.ErrorIs(t, err, corpusdb.ErrLoadFailed)
	assert.ErrorIs(t, err, copyErr)
	assert.Contains(t, err.Error(), corpusdb.TableOpinionClusters)

	// Tables before the failure completed; nothing after was attempted.
	require.Len(t, results, 2)
	assert.Equal(t, corpusdb.TableCourts, results[0].Table)
	assert.Equal(t, corpusdb.TableDockets, results[1].Table)
}

func TestLoadTruncatesWhenConfigured(t *testing.T) {
	dir := writeSnapshotDir(t)
	manager := &fakeDBManager{}

	svc, _ := newTestLoadService(&fakeDBConn{}, manager)
	config := testLoadConfig(dir)
	config.Truncate = true

	_, err := svc.Load(context.Background(), config)
	require.NoError(t, err)
	assert.Equal(t, corpusdb.LoadOrder(), manager.truncateTables)
}

func TestLoadSkipsTruncateByDefault(t *testing.T) {
	dir := writeSnapshotDir(t)
	manager := &fakeDBManager{}

	svc, _ := newTestLoadService(&fakeDBConn{}, manager)
	_, err := svc.Load(context.Background(), testLoadConfig(dir))
	require.NoError(t, err)
	assert.Empty(t, manager.truncateTables)
}

func TestLoadWarnsOnExpectedCountMismatch(t *testing.T) {
	dir := writeSnapshotDir(t)

	conn := &fakeDBConn{pooled: &fakePooledConn{
		copyFunc: func(ctx context.Context, r io.Reader, copySQL string) (int64, error) {
			return 5, nil
		},
	}}

	svc, logger := newTestLoadService(conn, &fakeDBManager{})
	config := testLoadConfig(dir)
	config.ExpectedCounts = map[string]int64{
		corpusdb.TableCourts:  99,
		corpusdb.TableDockets: 5,
	}

	results, err := svc.Load(context.Background(), config)
	require.NoError(t, err, "a count mismatch is a warning, not a failure")
	assert.Len(t, results, 5)

	require.Len(t, logger.warnings, 1)
	assert.Contains(t, logger.warnings[0], corpusdb.TableCourts)
	assert.Contains(t, logger.warnings[0], "99")
	assert.Contains(t, logger.warnings[0], "file has 1 data rows",
		"the warning should cross-check against the file's own row count")
}

func TestLoadMismatchWarningSurvivesUnreadableFile(t *testing.T) {
	dir := writeSnapshotDir(t)

	conn := &fakeDBConn{pooled: &fakePooledConn{
		copyFunc: func(ctx context.Context, r io.Reader, copySQL string) (int64, error) {
			return 5, nil
		},
	}}

	svc, logger := newTestLoadService(conn, &fakeDBManager{})
	config := testLoadConfig(dir)
	config.ExpectedCounts = map[string]int64{corpusdb.TableCourts: 99}

	// Remove the file after preflight would have seen it; the cross-check
	// falls back to the plain warning.
	courtsPath := filepath.Join(dir, snapshot.FileName(corpusdb.TableCourts, testSnapshotDate))
	origOpen := svc.openFile
	svc.openFile = func(path string) (*os.File, error) {
		f, err := origOpen(path)
		if err == nil && path == courtsPath {
			require.NoError(t, os.Remove(courtsPath))
		}
		return f, err
	}

	_, err := svc.Load(context.Background(), config)
	require.NoError(t, err)
	require.Len(t, logger.warnings, 1)
	assert.Contains(t, logger.warnings[0], "loaded 5 rows, expected 99")
	assert.NotContains(t, logger.warnings[0], "data rows")
}

func TestLoadOpenFileFailure(t *testing.T) {
	dir := writeSnapshotDir(t)

	svc, _ := newTestLoadService(&fakeDBConn{}, &fakeDBManager{})
	openErr := errors.New("permission denied")
	svc.openFile = func(path string) (*os.File, error) { return nil, openErr }

	_, err := svc.Load(context.Background(), testLoadConfig(dir))
	require.Error(t, err)
	assert.ErrorIs(t, err, corpusdb.ErrLoadFailed)
	assert.ErrorIs(t, err, openErr)
}

func TestLoadInvalidConfig(t *testing.T) {
	svc, _ := newTestLoadService(&fakeDBConn{}, &fakeDBManager{})
	_, err := svc.Load(context.Background(), corpusdb.LoadConfig{})
	assert.ErrorIs(t, err, corpusdb.ErrInvalidConfig)
}

func TestLoadReleasesConnections(t *testing.T) {
	dir := writeSnapshotDir(t)

	pooled := &fakePooledConn{}
	conn := &fakeDBConn{pooled: pooled}

	svc, _ := newTestLoadService(conn, &fakeDBManager{})
	_, err := svc.Load(context.Background(), testLoadConfig(dir))
	require.NoError(t, err)
	assert.True(t, pooled.released)
}
