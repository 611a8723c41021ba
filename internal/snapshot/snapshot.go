// Package snapshot resolves and preflights the dated bulk files that make
// up one source snapshot. Upstream download scripts deposit the files;
// this package never fetches anything.
package snapshot

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vvka-141/corpusdb/pkg/corpusdb"
)

// File is one resolved snapshot file.
type File struct {
	// Table is the destination table name.
	Table string

	// Path is the absolute or directory-relative path of the CSV file.
	Path string
}

// FileName returns the snapshot file name for a table, e.g.
// "opinion-clusters-2024-12-31.csv". The export uses dashes where the
// table name uses underscores.
func FileName(table, date string) string {
	return strings.ReplaceAll(table, "_", "-") + "-" + date + ".csv"
}

// ValidDate reports whether date is a YYYY-MM-DD snapshot identifier.
func ValidDate(date string) bool {
	_, err := time.Parse(corpusdb.SnapshotDateLayout, date)
	return err == nil
}

// Files resolves the five snapshot files under dir, in load order.
// It does not check existence; see Preflight.
func Files(dir, date string) []File {
	tables := corpusdb.LoadOrder()
	files := make([]File, 0, len(tables))
	for _, table := range tables {
		files = append(files, File{
			Table: table,
			Path:  filepath.Join(dir, FileName(table, date)),
		})
	}
	return files
}

// Preflight verifies that every snapshot file exists and is a regular
// file before any load starts. The first missing file aborts with
// corpusdb.ErrSnapshotFileMissing naming the path, so a load run never
// begins against an incomplete snapshot.
func Preflight(dir, date string) ([]File, error) {
	files := Files(dir, date)
	for _, f := range files {
		info, err := os.Stat(f.Path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("table %s: %s: %w", f.Table, f.Path, corpusdb.ErrSnapshotFileMissing)
			}
			return nil, fmt.Errorf("table %s: stat %s: %w", f.Table, f.Path, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("table %s: %s is a directory: %w", f.Table, f.Path, corpusdb.ErrSnapshotFileMissing)
		}
	}
	return files, nil
}

// CountDataRows counts the data rows of a snapshot CSV (excluding the
// header) honoring the configured quote character, so quoted embedded
// newlines do not inflate the count. Doubled quote characters inside a
// quoted field are the escape form and do not close the field.
//
// Intended for small files (expected-count checks, tests); counting a
// multi-hundred-gigabyte file is a full scan and is not done during load.
func CountDataRows(path string, quote rune) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, 64*1024)

	var (
		records  int64
		inQuote  bool
		lineOpen bool // current record has at least one byte
	)
	for {
		c, _, err := r.ReadRune()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}

		switch {
		case c == quote:
			if inQuote {
				// Doubled quote escapes itself; peek the next rune.
				next, _, peekErr := r.ReadRune()
				if peekErr == io.EOF {
					inQuote = false
					break
				}
				if peekErr != nil {
					return 0, peekErr
				}
				if next != quote {
					inQuote = false
					if unreadErr := r.UnreadRune(); unreadErr != nil {
						return 0, unreadErr
					}
				}
			} else {
				inQuote = true
			}
			lineOpen = true
		case c == '\n' && !inQuote:
			records++
			lineOpen = false
		default:
			lineOpen = true
		}
	}
	if lineOpen {
		// Final record without trailing newline.
		records++
	}

	// Exclude the header row.
	if records > 0 {
		records--
	}
	return records, nil
}
