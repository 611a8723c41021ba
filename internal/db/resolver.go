package db

import (
	"fmt"
	"os"
	"strconv"

	"github.com/vvka-141/corpusdb/internal/config"
	"github.com/vvka-141/corpusdb/pkg/corpusdb"
)

// GranularConnFlags represents connection parameters from CLI flags.
// These follow PostgreSQL standard flag conventions (-h, -p, -U, -d).
//
// Note: Password is NOT a CLI flag. Use $PGPASSWORD, a .env file, or a
// connection string with an embedded password.
type GranularConnFlags struct {
	Host     string
	Port     int
	Username string
	Database string
	SSLMode  string
}

// IsEmpty returns true if no connection-related granular flags were provided.
// Database is excluded because it may override a connection string's database.
func (g *GranularConnFlags) IsEmpty() bool {
	return g.Host == "" && g.Port == 0 && g.Username == "" && g.SSLMode == ""
}

// CloudFlags represents cloud IAM authentication CLI flags.
// Client secrets are never flags; they come from the environment.
type CloudFlags struct {
	AWS            bool
	AWSRegion      string
	Google         bool
	GoogleInstance string
	Azure          bool
	AzureTenantID  string
	AzureClientID  string
}

// EnvVars represents PostgreSQL standard environment variables plus the
// cloud SDK conventions the connectors honor.
// See: https://www.postgresql.org/docs/current/libpq-envars.html
type EnvVars struct {
	PGHost     string
	PGPort     string
	PGUser     string
	PGPassword string
	PGDatabase string
	PGSSLMode  string

	DatabaseURL string // Full connection string (Heroku/Rails convention)

	AWSRegion         string
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
}

// LoadFromEnvironment reads the connection-related environment variables.
func LoadFromEnvironment() *EnvVars {
	return &EnvVars{
		PGHost:            os.Getenv("PGHOST"),
		PGPort:            os.Getenv("PGPORT"),
		PGUser:            os.Getenv("PGUSER"),
		PGPassword:        os.Getenv("PGPASSWORD"),
		PGDatabase:        os.Getenv("PGDATABASE"),
		PGSSLMode:         os.Getenv("PGSSLMODE"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		AWSRegion:         os.Getenv("AWS_REGION"),
		AzureTenantID:     os.Getenv("AZURE_TENANT_ID"),
		AzureClientID:     os.Getenv("AZURE_CLIENT_ID"),
		AzureClientSecret: os.Getenv("AZURE_CLIENT_SECRET"),
	}
}

// ResolveConnectionParams resolves connection parameters using
// PostgreSQL-standard precedence:
//
//  1. Connection string flag (--connection), parsed directly
//  2. Granular flags (-h, -p, -U, -d)
//  3. Environment variables (PGHOST, PGPORT, DATABASE_URL, ...)
//  4. corpus.yaml connection section
//  5. Defaults (localhost:5432, prefer SSL)
//
// Returns an error if both --connection and granular flags are provided;
// the ambiguity would hide which source won.
func ResolveConnectionParams(
	connStringFlag string,
	granularFlags *GranularConnFlags,
	cloudFlags *CloudFlags,
	envVars *EnvVars,
	projectConfig *config.ProjectConfig,
) (*corpusdb.ConnectionConfig, error) {
	if granularFlags == nil {
		granularFlags = &GranularConnFlags{}
	}
	if cloudFlags == nil {
		cloudFlags = &CloudFlags{}
	}
	if envVars == nil {
		envVars = &EnvVars{}
	}

	if connStringFlag != "" && !granularFlags.IsEmpty() {
		return nil, fmt.Errorf(
			"cannot specify both --connection and granular flags (-h, -p, -U)\n" +
				"Choose one approach:\n" +
				"  1. Connection string: --connection \"postgresql://user@localhost:5432/corpus\"\n" +
				"  2. Granular flags: -h localhost -p 5432 -U loader -d corpus\n" +
				"  3. Environment variables: export PGHOST=localhost PGDATABASE=corpus",
		)
	}

	var connConfig *corpusdb.ConnectionConfig
	var err error

	switch {
	case connStringFlag != "":
		connConfig, err = ParseConnectionString(connStringFlag)
	case granularFlags.IsEmpty() && envVars.DatabaseURL != "":
		connConfig, err = ParseConnectionString(envVars.DatabaseURL)
	default:
		connConfig, err = resolveFromGranularParams(granularFlags, envVars, projectConfig)
	}
	if err != nil {
		return nil, err
	}

	if err := applyCloudAuth(connConfig, cloudFlags, envVars, projectConfig); err != nil {
		return nil, err
	}

	return connConfig, nil
}

// resolveFromGranularParams layers flag > environment > corpus.yaml > default
// for each connection parameter independently.
func resolveFromGranularParams(
	flags *GranularConnFlags,
	env *EnvVars,
	projectConfig *config.ProjectConfig,
) (*corpusdb.ConnectionConfig, error) {
	connConfig := defaultConfig()

	var project config.ConnectionConfig
	if projectConfig != nil {
		project = projectConfig.Connection
	}

	connConfig.Host = firstNonEmpty(flags.Host, env.PGHost, project.Host, connConfig.Host)

	switch {
	case flags.Port != 0:
		connConfig.Port = flags.Port
	case env.PGPort != "":
		port, err := strconv.Atoi(env.PGPort)
		if err != nil {
			return nil, fmt.Errorf("invalid $PGPORT value %q: %w", env.PGPort, err)
		}
		connConfig.Port = port
	case project.Port != 0:
		connConfig.Port = project.Port
	}

	connConfig.Username = firstNonEmpty(flags.Username, env.PGUser, project.Username)
	connConfig.Database = firstNonEmpty(flags.Database, env.PGDatabase, project.Database, connConfig.Database)
	connConfig.SSLMode = firstNonEmpty(flags.SSLMode, env.PGSSLMode, project.SSLMode, connConfig.SSLMode)
	connConfig.Password = env.PGPassword

	return connConfig, nil
}

// applyCloudAuth selects the auth method from flags, environment, and
// corpus.yaml. Flags win; at most one cloud method may be requested.
func applyCloudAuth(
	connConfig *corpusdb.ConnectionConfig,
	flags *CloudFlags,
	env *EnvVars,
	projectConfig *config.ProjectConfig,
) error {
	requested := 0
	for _, enabled := range []bool{flags.AWS, flags.Google, flags.Azure} {
		if enabled {
			requested++
		}
	}
	if requested > 1 {
		return fmt.Errorf("at most one of --aws, --google, --azure may be used: %w", corpusdb.ErrInvalidConfig)
	}

	var projectMethod string
	var project config.ConnectionConfig
	if projectConfig != nil {
		project = projectConfig.Connection
		projectMethod = project.AuthMethod
	}

	switch {
	case flags.AWS || (requested == 0 && projectMethod == "aws-iam"):
		connConfig.AuthMethod = corpusdb.AuthMethodAWSIAM
		connConfig.AWSRegion = firstNonEmpty(flags.AWSRegion, env.AWSRegion, project.AWSRegion)
	case flags.Google || (requested == 0 && projectMethod == "google-iam"):
		connConfig.AuthMethod = corpusdb.AuthMethodGoogleIAM
		connConfig.GoogleInstance = firstNonEmpty(flags.GoogleInstance, project.GoogleInstance)
	case flags.Azure || (requested == 0 && projectMethod == "azure"):
		connConfig.AuthMethod = corpusdb.AuthMethodAzureEntraID
		connConfig.AzureTenantID = firstNonEmpty(flags.AzureTenantID, env.AzureTenantID, project.AzureTenantID)
		connConfig.AzureClientID = firstNonEmpty(flags.AzureClientID, env.AzureClientID, project.AzureClientID)
		connConfig.AzureClientSecret = env.AzureClientSecret
	case requested == 0 && projectMethod != "" && projectMethod != "standard":
		return fmt.Errorf("unknown auth_method %q in corpus.yaml: %w", projectMethod, corpusdb.ErrInvalidConfig)
	}

	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
