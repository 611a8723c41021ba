// Package config loads the optional corpus.yaml project file. Connection
// parameters, snapshot location, the CSV format contract, and published
// expected row counts all live here; secrets never do. The password comes
// from $PGPASSWORD or a .env file loaded by the CLI.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vvka-141/corpusdb/pkg/corpusdb"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

// ConfigFileName is the default project file looked up in the working directory.
const ConfigFileName = "corpus.yaml"

// ConnectionConfig mirrors the connection section of corpus.yaml.
type ConnectionConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Username       string `yaml:"username"`
	Database       string `yaml:"database"`
	SSLMode        string `yaml:"sslmode"`
	AuthMethod     string `yaml:"auth_method,omitempty"` // standard|aws-iam|google-iam|azure
	AWSRegion      string `yaml:"aws_region,omitempty"`
	GoogleInstance string `yaml:"google_instance,omitempty"`
	AzureTenantID  string `yaml:"azure_tenant_id,omitempty"`
	AzureClientID  string `yaml:"azure_client_id,omitempty"`
}

// SnapshotConfig mirrors the snapshot section of corpus.yaml.
type SnapshotConfig struct {
	// Date is the default snapshot identifier (YYYY-MM-DD).
	Date string `yaml:"date"`

	// Dir is the directory containing the five snapshot CSV files.
	Dir string `yaml:"dir"`
}

// CSVConfig mirrors the csv section of corpus.yaml. Zero values fall back
// to the observed source contract: backtick quote, empty-string NULL.
type CSVConfig struct {
	Quote string `yaml:"quote"`
	Null  string `yaml:"null"`
}

// Format converts the section to a corpusdb.CSVFormat, applying defaults.
func (c CSVConfig) Format() (corpusdb.CSVFormat, error) {
	format := corpusdb.DefaultCSVFormat()
	if c.Quote != "" {
		runes := []rune(c.Quote)
		if len(runes) != 1 {
			return corpusdb.CSVFormat{}, fmt.Errorf("csv.quote must be a single character, got %q: %w", c.Quote, corpusdb.ErrInvalidConfig)
		}
		format.Quote = runes[0]
	}
	if c.Null != "" {
		format.NullSentinel = c.Null
	}
	return format, nil
}

// ProjectConfig is the parsed corpus.yaml.
type ProjectConfig struct {
	Connection     ConnectionConfig `yaml:"connection"`
	Snapshot       SnapshotConfig   `yaml:"snapshot"`
	CSV            CSVConfig        `yaml:"csv"`
	ExpectedCounts map[string]int64 `yaml:"expected_counts"`
	Timeout        string           `yaml:"timeout"`
}

// Load reads and parses the config file at path.
func Load(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
