package dictionary

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Snapshot is the persisted form of a dictionary.
type Snapshot struct {
	Words map[string]uint64
	Epoch uint64
}

// Backend reads and writes dictionary snapshots. Implementations acquire
// and release their file handles inside each call.
type Backend interface {
	// Load returns the stored snapshot, or an error wrapping
	// ErrStorageUnavailable when nothing has been stored yet.
	Load() (Snapshot, error)
	// Create initializes empty storage.
	Create() error
	// Save replaces the stored snapshot entirely.
	Save(Snapshot) error
}

// Storage formats accepted by OpenBackend.
const (
	FormatAuto   = "auto"
	FormatCSV    = "csv"
	FormatSQLite = "sqlite"
)

// OpenBackend returns the backend for path. FormatAuto picks SQLite for
// .db, .sqlite and .sqlite3 files and CSV for everything else.
func OpenBackend(path, format string) (Backend, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("dictionary path must be non-empty")
	}
	switch strings.ToLower(format) {
	case "", FormatAuto:
		switch strings.ToLower(filepath.Ext(path)) {
		case ".db", ".sqlite", ".sqlite3":
			return &SQLiteBackend{Path: path}, nil
		}
		return &CSVBackend{Path: path}, nil
	case FormatCSV:
		return &CSVBackend{Path: path}, nil
	case FormatSQLite:
		return &SQLiteBackend{Path: path}, nil
	default:
		return nil, fmt.Errorf("unknown dictionary format %q", format)
	}
}
