// Package services implements the pipeline stages: schema creation, bulk
// load, finalize, verify, and sample queries. Each service receives its
// collaborators through constructor injection and talks to PostgreSQL
// through the DBConnection abstraction.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/vvka-141/corpusdb/internal/db"
	"github.com/vvka-141/corpusdb/pkg/corpusdb"
)

// ConnectorFactory builds a Connector for a resolved connection config.
// Production code passes db.NewConnector; tests substitute fakes.
type ConnectorFactory func(*corpusdb.ConnectionConfig) (corpusdb.Connector, error)

// dbConnFunc opens a DBConnection for the given connection parameters and
// returns a cleanup that closes the underlying pool.
type dbConnFunc func(ctx context.Context, connConfig *corpusdb.ConnectionConfig) (corpusdb.DBConnection, func(), error)

func defaultDBConn(factory ConnectorFactory) dbConnFunc {
	return func(ctx context.Context, connConfig *corpusdb.ConnectionConfig) (corpusdb.DBConnection, func(), error) {
		connector, err := factory(connConfig)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create connector: %w", err)
		}

		pool, err := connector.Connect(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", corpusdb.ErrConnectionFailed, err)
		}

		cleanup := func() {
			pool.Close()
			if closer, ok := connector.(interface{ Close() error }); ok {
				closer.Close()
			}
		}
		return db.NewPoolAdapter(pool), cleanup, nil
	}
}

// resolveConnConfig parses a connection string and overlays the stage
// config's auth method and cloud parameters.
func resolveConnConfig(
	connStr string,
	method corpusdb.AuthMethod,
	awsRegion, googleInstance, azureTenantID, azureClientID, azureClientSecret string,
) (*corpusdb.ConnectionConfig, error) {
	connConfig, err := db.ParseConnectionString(connStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", corpusdb.ErrInvalidConfig, err)
	}

	if method != corpusdb.AuthMethodStandard {
		connConfig.AuthMethod = method
		connConfig.AWSRegion = awsRegion
		connConfig.GoogleInstance = googleInstance
		connConfig.AzureTenantID = azureTenantID
		connConfig.AzureClientID = azureClientID
		connConfig.AzureClientSecret = azureClientSecret
	}
	return connConfig, nil
}

// stageContext applies the configured timeout. Zero means unbounded; bulk
// copies and index builds routinely run for hours.
func stageContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}
