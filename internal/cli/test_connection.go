package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vvka-141/corpusdb/internal/db"
	"github.com/vvka-141/corpusdb/pkg/corpusdb"
)

var testConnectionCmd = &cobra.Command{
	Use:   "test-connection",
	Short: "Check database connectivity and report server version",
	Long: `Open a connection with the resolved parameters, run a trivial query,
and report the server version. Useful before kicking off a multi-hour
load to confirm credentials and network reachability.

With --interactive, the password is prompted for without echo instead of
being read from $PGPASSWORD or a .env file. The prompt requires a
terminal; it is not usable in CI.

Examples:
  corpusdb test-connection -d corpus
  corpusdb test-connection -h dbhost -U loader -d corpus --interactive`,
	Args: cobra.NoArgs,
	RunE: runTestConnection,
}

type testConnectionFlagValues struct {
	conn        connFlagValues
	interactive bool
}

var testConnectionFlags testConnectionFlagValues

func init() {
	rootCmd.AddCommand(testConnectionCmd)
	addConnectionFlags(testConnectionCmd, &testConnectionFlags.conn)

	testConnectionCmd.Flags().BoolVar(&testConnectionFlags.interactive, "interactive", false,
		"Prompt for the password without echo (requires a terminal)")
	testConnectionCmd.Flags().DurationVar(&testConnectionFlags.conn.timeout, "timeout", 30*time.Second,
		"Connection test timeout")
}

func runTestConnection(cmd *cobra.Command, args []string) error {
	_ = getVerboseFlag(cmd)

	projectCfg, err := loadProjectConfig()
	if err != nil {
		return err
	}

	connConfig, err := resolveConnection(&testConnectionFlags.conn, projectCfg)
	if err != nil {
		return err
	}

	if testConnectionFlags.interactive {
		password, err := promptPassword(connConfig.Username)
		if err != nil {
			return err
		}
		connConfig.Password = password
	}

	connector, err := db.NewConnector(connConfig)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), testConnectionFlags.conn.timeout)
	defer cancel()

	start := time.Now()
	pool, err := connector.Connect(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", corpusdb.ErrConnectionFailed, err)
	}
	defer pool.Close()

	var serverVersion string
	if err := pool.QueryRow(ctx, "SELECT version()").Scan(&serverVersion); err != nil {
		return fmt.Errorf("connected, but version query failed: %w", err)
	}

	fmt.Printf("✓ Connected to %s:%d/%s as %s in %s\n",
		connConfig.Host, connConfig.Port, connConfig.Database, connConfig.Username,
		time.Since(start).Round(time.Millisecond))
	fmt.Printf("  %s\n", serverVersion)
	return nil
}

// promptPassword reads a password from the terminal without echo.
func promptPassword(username string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("--interactive requires a terminal; use $PGPASSWORD in scripts")
	}

	fmt.Fprintf(os.Stderr, "Password for %s: ", username)
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}
