// Package manager implements database lifecycle operations (existence
// checks, creation, truncation) over the DBConnection abstraction.
package manager

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/vvka-141/corpusdb/pkg/corpusdb"
)

const queryDatabaseExists = "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)"

// Manager implements corpus database lifecycle operations.
// Stateless and safe for concurrent use; thread safety depends on the
// injected DBConnection.
type Manager struct{}

// New creates a new DatabaseManager instance.
func New() corpusdb.DatabaseManager {
	return &Manager{}
}

// Exists checks if a database exists.
func (m *Manager) Exists(ctx context.Context, conn corpusdb.DBConnection, dbName string) (bool, error) {
	var exists bool
	err := conn.QueryRow(ctx, queryDatabaseExists, dbName).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check database existence: %w", err)
	}
	return exists, nil
}

// Create creates a new database.
func (m *Manager) Create(ctx context.Context, conn corpusdb.DBConnection, dbName string) error {
	pooledConn, err := conn.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer pooledConn.Release()

	query := fmt.Sprintf("CREATE DATABASE %s", pgx.Identifier{dbName}.Sanitize())
	_, err = pooledConn.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create database %q: %w", dbName, err)
	}
	return nil
}

// Truncate empties the given tables with a single TRUNCATE statement.
// CASCADE covers the finalized-schema case where citation_map still
// references opinions.
func (m *Manager) Truncate(ctx context.Context, conn corpusdb.DBConnection, tables []string) error {
	if len(tables) == 0 {
		return nil
	}

	sanitized := make([]string, len(tables))
	for i, t := range tables {
		sanitized[i] = pgx.Identifier{t}.Sanitize()
	}

	query := fmt.Sprintf("TRUNCATE TABLE %s CASCADE", strings.Join(sanitized, ", "))
	_, err := conn.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}
	return nil
}

// Verify Manager implements the DatabaseManager interface at compile time
var _ corpusdb.DatabaseManager = (*Manager)(nil)
