package services

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vvka-141/corpusdb/pkg/corpusdb"
)

// fakeRow implements corpusdb.Row.
type fakeRow struct {
	scanFunc func(dest ...any) error
}

func (r *fakeRow) Scan(dest ...any) error {
	return r.scanFunc(dest...)
}

// fakeRows implements corpusdb.Rows over preset int64 rows.
type fakeRows struct {
	values []int64
	pos    int
	err    error
	closed bool
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.values) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	if len(dest) != 1 {
		return fmt.Errorf("expected 1 destination, got %d", len(dest))
	}
	p, ok := dest[0].(*int64)
	if !ok {
		return fmt.Errorf("expected *int64 destination")
	}
	*p = r.values[r.pos-1]
	return nil
}

func (r *fakeRows) Err() error { return r.err }
func (r *fakeRows) Close()     { r.closed = true }

// fakeRecordRows implements corpusdb.Rows over preset multi-column rows.
type fakeRecordRows struct {
	records [][]any
	pos     int
	err     error
	closed  bool
}

func (r *fakeRecordRows) Next() bool {
	if r.pos >= len(r.records) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRecordRows) Scan(dest ...any) error {
	record := r.records[r.pos-1]
	if len(dest) != len(record) {
		return fmt.Errorf("expected %d destinations, got %d", len(record), len(dest))
	}
	for i, v := range record {
		switch d := dest[i].(type) {
		case *int64:
			*d = v.(int64)
		case **string:
			if v == nil {
				*d = nil
			} else {
				s := v.(string)
				*d = &s
			}
		case **time.Time:
			if v == nil {
				*d = nil
			} else {
				t := v.(time.Time)
				*d = &t
			}
		default:
			return fmt.Errorf("unsupported destination %T at column %d", dest[i], i)
		}
	}
	return nil
}

func (r *fakeRecordRows) Err() error { return r.err }
func (r *fakeRecordRows) Close()     { r.closed = true }

// fakePooledConn implements corpusdb.PooledConnection.
type fakePooledConn struct {
	execFunc func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	copyFunc func(ctx context.Context, r io.Reader, copySQL string) (int64, error)
	released bool
}

func (c *fakePooledConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if c.execFunc != nil {
		return c.execFunc(ctx, sql, args...)
	}
	return pgconn.CommandTag{}, nil
}

func (c *fakePooledConn) CopyFrom(ctx context.Context, r io.Reader, copySQL string) (int64, error) {
	if c.copyFunc != nil {
		return c.copyFunc(ctx, r, copySQL)
	}
	return 0, nil
}

func (c *fakePooledConn) Release() { c.released = true }

// fakeDBConn implements corpusdb.DBConnection and records executed SQL.
type fakeDBConn struct {
	mu        sync.Mutex
	execSQL   []string
	execFunc  func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	queryRow  func(ctx context.Context, sql string, args ...any) corpusdb.Row
	queryFunc func(ctx context.Context, sql string, args ...any) (corpusdb.Rows, error)
	pooled    *fakePooledConn
}

func (c *fakeDBConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	c.mu.Lock()
	c.execSQL = append(c.execSQL, sql)
	c.mu.Unlock()
	if c.execFunc != nil {
		return c.execFunc(ctx, sql, args...)
	}
	return pgconn.CommandTag{}, nil
}

func (c *fakeDBConn) QueryRow(ctx context.Context, sql string, args ...any) corpusdb.Row {
	if c.queryRow != nil {
		return c.queryRow(ctx, sql, args...)
	}
	return &fakeRow{scanFunc: func(dest ...any) error { return nil }}
}

func (c *fakeDBConn) Query(ctx context.Context, sql string, args ...any) (corpusdb.Rows, error) {
	if c.queryFunc != nil {
		return c.queryFunc(ctx, sql, args...)
	}
	return &fakeRows{}, nil
}

func (c *fakeDBConn) Acquire(ctx context.Context) (corpusdb.PooledConnection, error) {
	if c.pooled == nil {
		c.pooled = &fakePooledConn{}
	}
	return c.pooled, nil
}

func (c *fakeDBConn) executed() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.execSQL...)
}

// stubConn installs a fake connection into a service's dbConn hook.
func stubConn(conn corpusdb.DBConnection) dbConnFunc {
	return func(ctx context.Context, connConfig *corpusdb.ConnectionConfig) (corpusdb.DBConnection, func(), error) {
		return conn, func() {}, nil
	}
}

// failingConn simulates a connection failure.
func failingConn(err error) dbConnFunc {
	return func(ctx context.Context, connConfig *corpusdb.ConnectionConfig) (corpusdb.DBConnection, func(), error) {
		return nil, nil, err
	}
}

// dummyFactory satisfies the constructor's nil check; tests replace the
// dbConn hook so the factory is never invoked.
func dummyFactory(*corpusdb.ConnectionConfig) (corpusdb.Connector, error) {
	panic("factory should not be called when dbConn is stubbed")
}

// boolRow scans a fixed bool, for EXISTS-style queries.
func boolRow(v bool) *fakeRow {
	return &fakeRow{scanFunc: func(dest ...any) error {
		p, ok := dest[0].(*bool)
		if !ok {
			return fmt.Errorf("expected *bool destination")
		}
		*p = v
		return nil
	}}
}

// int64Row scans a fixed int64, for COUNT-style queries.
func int64Row(v int64) *fakeRow {
	return &fakeRow{scanFunc: func(dest ...any) error {
		p, ok := dest[0].(*int64)
		if !ok {
			return fmt.Errorf("expected *int64 destination")
		}
		*p = v
		return nil
	}}
}

// fakeDBManager implements corpusdb.DatabaseManager and records calls.
type fakeDBManager struct {
	existsResult   bool
	existsErr      error
	createdDBs     []string
	createErr      error
	truncateTables []string
	truncateErr    error
}

func (m *fakeDBManager) Exists(ctx context.Context, conn corpusdb.DBConnection, dbName string) (bool, error) {
	return m.existsResult, m.existsErr
}

func (m *fakeDBManager) Create(ctx context.Context, conn corpusdb.DBConnection, dbName string) error {
	m.createdDBs = append(m.createdDBs, dbName)
	return m.createErr
}

func (m *fakeDBManager) Truncate(ctx context.Context, conn corpusdb.DBConnection, tables []string) error {
	m.truncateTables = append(m.truncateTables, tables...)
	return m.truncateErr
}

// recordingLogger implements corpusdb.Logger and captures messages.
type recordingLogger struct {
	mu       sync.Mutex
	verbose  []string
	info     []string
	warnings []string
	errs     []string
}

func (l *recordingLogger) Verbose(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.verbose = append(l.verbose, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Info(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.info = append(l.info, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Warn(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Error(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = append(l.errs, fmt.Sprintf(format, args...))
}
