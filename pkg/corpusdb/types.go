package corpusdb

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

// CSVFormat describes the delimited-file contract of a snapshot.
// Both fields are properties of the specific source export, not universal
// constants, so they are explicit configuration rather than hard-coded.
type CSVFormat struct {
	// Quote is the quoting character used by the export.
	// The CourtListener bulk files quote with backticks because the data
	// itself contains double quotes.
	Quote rune

	// NullSentinel is the string representing SQL NULL. The CourtListener
	// exports use the empty string.
	NullSentinel string
}

// DefaultCSVFormat returns the format contract of the observed source data.
func DefaultCSVFormat() CSVFormat {
	return CSVFormat{Quote: DefaultQuote, NullSentinel: DefaultNullSentinel}
}

// Validate checks that the format is expressible in a COPY options clause.
func (f CSVFormat) Validate() error {
	var errs []error

	if f.Quote == 0 {
		errs = append(errs, fmt.Errorf("quote character is required: %w", ErrInvalidConfig))
	}
	if f.Quote == '\n' || f.Quote == '\r' {
		errs = append(errs, fmt.Errorf("quote character cannot be a line terminator: %w", ErrInvalidConfig))
	}
	if utf8.RuneLen(f.Quote) != 1 {
		errs = append(errs, fmt.Errorf("quote character must be a single-byte character: %w", ErrInvalidConfig))
	}
	if f.NullSentinel != "" && len(f.NullSentinel) > 16 {
		errs = append(errs, fmt.Errorf("null sentinel is implausibly long (%d bytes): %w", len(f.NullSentinel), ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// LoadConfig contains all parameters needed for a bulk-load run.
type LoadConfig struct {
	// SnapshotDate identifies the source snapshot generation, e.g. "2024-12-31".
	// It participates only in file naming.
	SnapshotDate string

	// SnapshotDir is the directory containing the five snapshot CSV files.
	SnapshotDir string

	// ConnectionString is the PostgreSQL connection string for the target database.
	ConnectionString string

	// Format is the CSV contract of this snapshot.
	Format CSVFormat

	// ExpectedCounts maps table name to the externally published row count
	// for this snapshot. Optional; mismatches are reported as warnings.
	ExpectedCounts map[string]int64

	// Truncate empties all five tables before loading. Used for a full
	// re-import and for recovering from a partially loaded table.
	Truncate bool

	// Timeout bounds the entire load run. Zero means no timeout; bulk
	// copies of the opinions table are expected to run for hours.
	Timeout time.Duration

	// Verbose enables detailed logging.
	Verbose bool

	// AuthMethod indicates the authentication mechanism to use.
	AuthMethod AuthMethod

	// Cloud IAM parameters, used according to AuthMethod.
	AWSRegion         string
	GoogleInstance    string
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
}

// Validate checks if the LoadConfig has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (c *LoadConfig) Validate() error {
	var errs []error

	if c.SnapshotDate == "" {
		errs = append(errs, fmt.Errorf("SnapshotDate is required: %w", ErrInvalidConfig))
	} else if _, err := time.Parse(SnapshotDateLayout, c.SnapshotDate); err != nil {
		errs = append(errs, fmt.Errorf("SnapshotDate %q is not in YYYY-MM-DD form: %w", c.SnapshotDate, ErrInvalidConfig))
	}

	if c.SnapshotDir == "" {
		errs = append(errs, fmt.Errorf("SnapshotDir is required: %w", ErrInvalidConfig))
	}

	if c.ConnectionString == "" {
		errs = append(errs, fmt.Errorf("ConnectionString is required: %w", ErrInvalidConfig))
	}

	if err := c.Format.Validate(); err != nil {
		errs = append(errs, err)
	}

	for table := range c.ExpectedCounts {
		if !isKnownTable(table) {
			errs = append(errs, fmt.Errorf("expected count for unknown table %q: %w", table, ErrInvalidConfig))
		}
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// SchemaConfig contains the parameters for the create-schema stage.
type SchemaConfig struct {
	// DatabaseName is the target database, created if absent.
	DatabaseName string

	// MaintenanceDatabase is the database to connect to for CREATE DATABASE.
	// Defaults to "postgres".
	MaintenanceDatabase string

	// ConnectionString is the PostgreSQL connection string. The database
	// component is ignored in favor of MaintenanceDatabase/DatabaseName.
	ConnectionString string

	// Timeout bounds the stage. Zero means no timeout.
	Timeout time.Duration

	// Verbose enables detailed logging.
	Verbose bool

	// AuthMethod indicates the authentication mechanism to use.
	AuthMethod AuthMethod

	// Cloud IAM parameters, used according to AuthMethod.
	AWSRegion         string
	GoogleInstance    string
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
}

// Validate checks if the SchemaConfig has all required fields.
func (c *SchemaConfig) Validate() error {
	var errs []error

	if c.DatabaseName == "" {
		errs = append(errs, fmt.Errorf("DatabaseName is required: %w", ErrInvalidConfig))
	}
	if c.ConnectionString == "" {
		errs = append(errs, fmt.Errorf("ConnectionString is required: %w", ErrInvalidConfig))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// FinalizeConfig contains the parameters for the finalize stage.
type FinalizeConfig struct {
	// ConnectionString is the PostgreSQL connection string for the target database.
	ConnectionString string

	// Timeout bounds the stage. Zero means no timeout; index builds on the
	// opinions table dominate wall-clock time and are expected to be long.
	Timeout time.Duration

	// Verbose enables detailed logging.
	Verbose bool

	// AuthMethod indicates the authentication mechanism to use.
	AuthMethod AuthMethod

	// Cloud IAM parameters, used according to AuthMethod.
	AWSRegion         string
	GoogleInstance    string
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
}

// Validate checks if the FinalizeConfig has all required fields.
func (c *FinalizeConfig) Validate() error {
	var errs []error

	if c.ConnectionString == "" {
		errs = append(errs, fmt.Errorf("ConnectionString is required: %w", ErrInvalidConfig))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// VerifyConfig contains the parameters for the read-only verify and
// sample-queries stages.
type VerifyConfig struct {
	// ConnectionString is the PostgreSQL connection string for the target database.
	ConnectionString string

	// ExpectedCounts maps table name to the externally published row count.
	// Optional; mismatches are reported as warnings, never as failures.
	ExpectedCounts map[string]int64

	// Timeout bounds the stage. Zero means no timeout.
	Timeout time.Duration

	// Verbose enables detailed logging.
	Verbose bool

	// AuthMethod indicates the authentication mechanism to use.
	AuthMethod AuthMethod

	// Cloud IAM parameters, used according to AuthMethod.
	AWSRegion         string
	GoogleInstance    string
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
}

// Validate checks if the VerifyConfig has all required fields.
func (c *VerifyConfig) Validate() error {
	var errs []error

	if c.ConnectionString == "" {
		errs = append(errs, fmt.Errorf("ConnectionString is required: %w", ErrInvalidConfig))
	}
	for table := range c.ExpectedCounts {
		if !isKnownTable(table) {
			errs = append(errs, fmt.Errorf("expected count for unknown table %q: %w", table, ErrInvalidConfig))
		}
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

func isKnownTable(name string) bool {
	for _, t := range LoadOrder() {
		if t == name {
			return true
		}
	}
	return false
}

// ConnectionConfig represents parsed connection parameters.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	// Additional connection parameters
	AppName          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string

	// AWSRegion is the region of the RDS instance (AuthMethodAWSIAM).
	AWSRegion string

	// GoogleInstance is the Cloud SQL instance connection name in
	// project:region:instance form (AuthMethodGoogleIAM).
	GoogleInstance string

	// Azure Entra ID parameters (AuthMethodAzureEntraID). If all three are
	// provided, Service Principal authentication is used; otherwise the
	// DefaultAzureCredential chain (env vars, managed identity, CLI, etc.).
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password
	AuthMethodAWSIAM                         // AWS IAM Database Authentication
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM
	AuthMethodAzureEntraID                   // Azure Active Directory (Entra ID)
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodGoogleIAM:
		return "Google IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStandard && a <= AuthMethodAzureEntraID
}
