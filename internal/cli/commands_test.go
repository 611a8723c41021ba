package cli

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/corpusdb/internal/config"
	"github.com/vvka-141/corpusdb/pkg/corpusdb"
)

func findCommand(t *testing.T, name string) *cobra.Command {
	t.Helper()
	for _, c := range rootCmd.Commands() {
		if c.Name() == name {
			return c
		}
	}
	t.Fatalf("command %q not registered", name)
	return nil
}

func TestRootRegistersPipelineCommands(t *testing.T) {
	for _, name := range []string{
		"create-schema",
		"load",
		"finalize",
		"verify",
		"sample-queries",
		"test-connection",
		"version",
	} {
		findCommand(t, name)
	}
}

func TestStageCommandsCarryConnectionFlags(t *testing.T) {
	for _, name := range []string{"create-schema", "load", "finalize", "verify", "sample-queries"} {
		t.Run(name, func(t *testing.T) {
			cmd := findCommand(t, name)
			for _, flag := range []string{
				"connection", "host", "port", "username", "database", "sslmode",
				"aws", "aws-region", "google", "google-instance",
				"azure", "azure-tenant-id", "azure-client-id",
			} {
				assert.NotNil(t, cmd.Flags().Lookup(flag), "flag --%s", flag)
			}
		})
	}
}

func TestNoPasswordFlagAnywhere(t *testing.T) {
	// Passwords travel via $PGPASSWORD, .env, or the connection string;
	// a --password flag would leak into shell history and process lists.
	var check func(cmd *cobra.Command)
	check = func(cmd *cobra.Command) {
		assert.Nil(t, cmd.Flags().Lookup("password"), "%s must not accept --password", cmd.Name())
		for _, sub := range cmd.Commands() {
			check(sub)
		}
	}
	check(rootCmd)
}

func TestLoadCommandFlags(t *testing.T) {
	cmd := findCommand(t, "load")
	for _, flag := range []string{"dir", "quote", "null", "truncate", "timeout"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag --%s", flag)
	}
	assert.NotNil(t, cmd.Args, "load requires the snapshot date argument")
}

func TestSampleCommandFlags(t *testing.T) {
	cmd := findCommand(t, "sample-queries")
	for _, flag := range []string{"opinion", "min-depth", "case-name", "timeout"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag --%s", flag)
	}
}

func TestVersionLine(t *testing.T) {
	line := versionLine()
	assert.Contains(t, line, "corpusdb ")
	assert.Contains(t, line, version)
}

func TestResolveCSVFormatDefaults(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("null", "", "")

	format, err := resolveCSVFormat(cmd, nil)
	require.NoError(t, err)
	assert.Equal(t, corpusdb.DefaultCSVFormat(), format)
}

func TestResolveCSVFormatFlagOverridesConfig(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("null", "", "")
	require.NoError(t, cmd.Flags().Set("null", `\N`))

	loadFlags.quote = `"`
	defer func() { loadFlags.quote = "" }()
	loadFlags.null = `\N`
	defer func() { loadFlags.null = "" }()

	projectCfg := &config.ProjectConfig{CSV: config.CSVConfig{Quote: "~", Null: "NULL"}}
	format, err := resolveCSVFormat(cmd, projectCfg)
	require.NoError(t, err)
	assert.Equal(t, '"', format.Quote)
	assert.Equal(t, `\N`, format.NullSentinel)
}

func TestResolveCSVFormatConfigOverridesDefault(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("null", "", "")

	projectCfg := &config.ProjectConfig{CSV: config.CSVConfig{Quote: `"`, Null: "NULL"}}
	format, err := resolveCSVFormat(cmd, projectCfg)
	require.NoError(t, err)
	assert.Equal(t, '"', format.Quote)
	assert.Equal(t, "NULL", format.NullSentinel)
}

func TestResolveCSVFormatRejectsMultiCharQuote(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("null", "", "")

	loadFlags.quote = "``"
	defer func() { loadFlags.quote = "" }()

	_, err := resolveCSVFormat(cmd, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, corpusdb.ErrInvalidConfig)
}

func TestConnectionStringFromEnvPrecedence(t *testing.T) {
	t.Setenv("CORPUSDB_CONNECTION_STRING", "postgresql://a@localhost/one")
	t.Setenv("DATABASE_URL", "postgresql://b@localhost/two")
	assert.Equal(t, "postgresql://a@localhost/one", connectionStringFromEnv())

	t.Setenv("CORPUSDB_CONNECTION_STRING", "")
	assert.Equal(t, "postgresql://b@localhost/two", connectionStringFromEnv())
}

func TestResolveConnectionDatabaseFlagOverride(t *testing.T) {
	t.Setenv("CORPUSDB_CONNECTION_STRING", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PGHOST", "")
	t.Setenv("PGPORT", "")
	t.Setenv("PGUSER", "")
	t.Setenv("PGDATABASE", "")
	t.Setenv("PGSSLMODE", "")

	f := &connFlagValues{
		connection: "postgresql://loader@dbhost:5433/other",
		database:   "corpus",
	}
	connConfig, err := resolveConnection(f, nil)
	require.NoError(t, err)
	assert.Equal(t, "dbhost", connConfig.Host)
	assert.Equal(t, "corpus", connConfig.Database, "-d overrides the connection string database")
}
