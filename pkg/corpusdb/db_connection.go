package corpusdb

import (
	"context"
	"io"

	"github.com/jackc/pgx/v5/pgconn"
)

// DBConnection abstracts the database operations the pipeline stages need.
// This interface decouples the stage services from pgx-specific types,
// which keeps them unit-testable against mock connections.
//
// Thread-Safety: Implementations should follow their underlying connection's
// thread-safety guarantees. Connection pool implementations are typically safe
// for concurrent use, but the pipeline itself is single-writer by design.
type DBConnection interface {
	// Exec executes a statement without returning any rows.
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	// QueryRow executes a query that is expected to return at most one row.
	// Always returns a non-nil Row. Errors are deferred until Row's Scan method is called.
	QueryRow(ctx context.Context, sql string, args ...any) Row

	// Query executes a query returning multiple rows.
	// Caller must call Close() on the returned Rows when done.
	Query(ctx context.Context, sql string, args ...any) (Rows, error)

	// Acquire obtains a dedicated connection from the pool for operations
	// that require connection affinity (CREATE DATABASE, COPY FROM STDIN).
	// Caller must call Release() on the returned PooledConnection when done.
	Acquire(ctx context.Context) (PooledConnection, error)
}

// Row represents a single row returned by QueryRow.
type Row interface {
	// Scan reads the values from the row into dest values.
	// Returns an error if no row was found or if the scan fails.
	Scan(dest ...any) error
}

// Rows represents a result set returned by Query.
type Rows interface {
	// Next advances to the next row, returning false when exhausted.
	Next() bool

	// Scan reads the current row's values into dest values.
	Scan(dest ...any) error

	// Err returns the error, if any, encountered during iteration.
	Err() error

	// Close releases the result set.
	Close()
}

// PooledConnection represents a connection acquired from a pool.
// The caller must call Release() when done to return it to the pool.
type PooledConnection interface {
	// Exec executes a statement on this specific connection.
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	// CopyFrom streams r through the PostgreSQL COPY FROM STDIN protocol.
	// copySQL must be a complete COPY ... FROM STDIN statement. Returns the
	// number of rows copied. The reader is consumed with bounded buffering;
	// the file is never held in memory as a whole.
	CopyFrom(ctx context.Context, r io.Reader, copySQL string) (int64, error)

	// Release returns the connection to the pool.
	// After calling Release, the connection should not be used.
	Release()
}
