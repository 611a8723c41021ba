package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/vvka-141/corpusdb/internal/config"
	"github.com/vvka-141/corpusdb/internal/db"
	"github.com/vvka-141/corpusdb/pkg/corpusdb"
)

// loadProjectConfig loads .env into the process environment and parses
// corpus.yaml from the working directory. A missing corpus.yaml is not an
// error; every value it provides can come from flags or the environment.
func loadProjectConfig() (*config.ProjectConfig, error) {
	_ = godotenv.Load()

	projectCfg, err := config.Load(config.ConfigFileName)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load %s: %w", config.ConfigFileName, err)
	}
	return projectCfg, nil
}

// stageConn carries the resolved connection string and auth parameters in
// the shape every stage config embeds.
type stageConn struct {
	ConnectionString  string
	AuthMethod        corpusdb.AuthMethod
	AWSRegion         string
	GoogleInstance    string
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
}

// buildStageConn resolves flags, environment, and corpus.yaml into the
// connection fields shared by all stage configs.
func buildStageConn(f *connFlagValues, projectCfg *config.ProjectConfig, verbose bool) (stageConn, *corpusdb.ConnectionConfig, error) {
	connConfig, err := resolveConnection(f, projectCfg)
	if err != nil {
		return stageConn{}, nil, err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "[VERBOSE] Connection resolved:\n")
		fmt.Fprintf(os.Stderr, "  Host: %s\n", connConfig.Host)
		fmt.Fprintf(os.Stderr, "  Port: %d\n", connConfig.Port)
		fmt.Fprintf(os.Stderr, "  User: %s\n", connConfig.Username)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", connConfig.Database)
		fmt.Fprintf(os.Stderr, "  SSL Mode: %s\n", connConfig.SSLMode)
		fmt.Fprintf(os.Stderr, "  Auth Method: %s\n", connConfig.AuthMethod)
	}

	return stageConn{
		ConnectionString:  db.BuildConnectionString(connConfig),
		AuthMethod:        connConfig.AuthMethod,
		AWSRegion:         connConfig.AWSRegion,
		GoogleInstance:    connConfig.GoogleInstance,
		AzureTenantID:     connConfig.AzureTenantID,
		AzureClientID:     connConfig.AzureClientID,
		AzureClientSecret: connConfig.AzureClientSecret,
	}, connConfig, nil
}

// resolveTimeout applies corpus.yaml's timeout when the --timeout flag was
// not explicitly set. Zero means unbounded.
func resolveTimeout(cmd *cobra.Command, flagTimeout time.Duration, projectCfg *config.ProjectConfig) (time.Duration, error) {
	if projectCfg != nil && projectCfg.Timeout != "" && !cmd.Flags().Changed("timeout") {
		parsed, err := time.ParseDuration(projectCfg.Timeout)
		if err != nil {
			return 0, fmt.Errorf("invalid timeout in %s: %w", config.ConfigFileName, err)
		}
		return parsed, nil
	}
	return flagTimeout, nil
}

// expectedCounts returns corpus.yaml's published counts, if any.
func expectedCounts(projectCfg *config.ProjectConfig) map[string]int64 {
	if projectCfg == nil {
		return nil
	}
	return projectCfg.ExpectedCounts
}

// signalContext derives a context cancelled on SIGINT/SIGTERM so a Ctrl+C
// aborts the in-flight COPY or index build instead of orphaning it.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(os.Stderr, "\n[INTERRUPT] Received interrupt signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}
