package corpusdb

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connector is a unified interface for establishing database connections.
// Different implementations handle various authentication methods
// (standard credentials, cloud IAM tokens, etc.).
type Connector interface {
	// Connect establishes a connection pool to the database.
	// The returned pool should be closed by the caller when done.
	Connect(ctx context.Context) (*pgxpool.Pool, error)
}

// DatabaseManager handles database lifecycle operations that run against
// the maintenance database (CREATE DATABASE cannot run inside the target).
type DatabaseManager interface {
	// Exists checks if a database exists.
	Exists(ctx context.Context, conn DBConnection, dbName string) (bool, error)

	// Create creates a new database.
	Create(ctx context.Context, conn DBConnection, dbName string) error

	// Truncate empties the named tables in a single transaction-free pass,
	// children before parents so the load-schema FK-less state is not required.
	Truncate(ctx context.Context, conn DBConnection, tables []string) error
}
