package corpusdb

import (
	"errors"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	err := loader.Load(ctx, config)
//	if errors.Is(err, corpusdb.ErrSnapshotFileMissing) {
//	    // Preflight failed, nothing was loaded
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConnectionFailed indicates database connection failed.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrSnapshotFileMissing indicates a required snapshot file was not
	// found during preflight. No table has been touched when this is returned.
	ErrSnapshotFileMissing = errors.New("snapshot file missing")

	// ErrLoadFailed indicates a bulk copy failed. The table being loaded is
	// left partially populated and must be truncated before retry.
	ErrLoadFailed = errors.New("bulk load failed")

	// ErrFinalizeFailed indicates a foreign-key validation or index build
	// failed. Already-created constraints and indexes persist.
	ErrFinalizeFailed = errors.New("finalize failed")

	// ErrUnsupportedAuthMethod indicates the requested authentication method is not supported.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")
)

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig):
		return ExitConfigError
	case errors.Is(err, ErrUnsupportedAuthMethod):
		return ExitConfigError
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	case errors.Is(err, ErrSnapshotFileMissing):
		return ExitSnapshotMissing
	case errors.Is(err, ErrLoadFailed):
		return ExitLoadFailed
	case errors.Is(err, ErrFinalizeFailed):
		return ExitFinalizeFailed
	}

	// Check for common connection error patterns
	errStr := err.Error()
	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}
