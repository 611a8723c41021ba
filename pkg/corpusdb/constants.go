package corpusdb

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess         = 0  // Stage completed successfully
	ExitGeneralError    = 1  // Unknown or unclassified error
	ExitUsageError      = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic           = 3  // Internal panic (unexpected crash)
	ExitConfigError     = 10 // Invalid configuration or parameters
	ExitConnectionError = 11 // Failed to connect to database
	ExitSnapshotMissing = 12 // Snapshot file not found during preflight
	ExitLoadFailed      = 13 // Bulk copy failed mid-stream
	ExitFinalizeFailed  = 14 // Constraint validation or index build failed
)

const (
	// DefaultRetryInitialDelay is the default initial delay before the first retry attempt.
	DefaultRetryInitialDelay = 100 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between retry attempts.
	DefaultRetryMaxDelay = 1 * time.Minute

	// DefaultRetryMaxAttempts is the default maximum number of retry attempts.
	DefaultRetryMaxAttempts = 3

	// DefaultMaintenanceDB is the database used for server-level operations
	// (CREATE DATABASE) before the target database exists.
	DefaultMaintenanceDB = "postgres"

	// DefaultQuote is the CSV quote character observed in the CourtListener
	// bulk exports. The source data contains literal double quotes inside
	// text columns, so the export uses backticks as the quoting character.
	DefaultQuote = '`'

	// DefaultNullSentinel is the string the bulk exports use for SQL NULL.
	DefaultNullSentinel = ""

	// SnapshotDateLayout is the layout for snapshot identifiers, e.g. "2024-12-31".
	SnapshotDateLayout = "2006-01-02"
)

// Table names in load order. The order is a topological sort of the
// foreign-key graph (courts ← dockets ← opinion_clusters ← opinions ←
// citation_map) and must not be changed: the finalizer's validation pass
// relies on parents being fully loaded before children.
const (
	TableCourts          = "courts"
	TableDockets         = "dockets"
	TableOpinionClusters = "opinion_clusters"
	TableOpinions        = "opinions"
	TableCitationMap     = "citation_map"
)

// LoadOrder returns the five table names in mandatory load order.
func LoadOrder() []string {
	return []string{
		TableCourts,
		TableDockets,
		TableOpinionClusters,
		TableOpinions,
		TableCitationMap,
	}
}
