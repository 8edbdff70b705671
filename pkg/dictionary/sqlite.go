package dictionary

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/japaniel/spellbook/pkg/db"
	"github.com/japaniel/spellbook/pkg/tokenize"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteBackend stores the dictionary in a SQLite database using the
// schema from package db.
type SQLiteBackend struct {
	Path string
}

func (b *SQLiteBackend) open() (*sql.DB, error) {
	conn, err := sql.Open("sqlite3", b.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps the transaction and its statements together.
	conn.SetMaxOpenConns(1)
	return conn, nil
}

// Load implements Backend.
func (b *SQLiteBackend) Load() (Snapshot, error) {
	snap := Snapshot{Words: make(map[string]uint64)}
	// sqlite3 would silently create a missing file, so check first.
	if _, err := os.Stat(b.Path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return snap, fmt.Errorf("%s: %w", b.Path, ErrStorageUnavailable)
		}
		return snap, fmt.Errorf("stat dictionary: %w", err)
	}
	conn, err := b.open()
	if err != nil {
		return snap, err
	}
	defer conn.Close()

	words, err := db.ListWords(conn)
	if err != nil {
		return snap, fmt.Errorf("list words: %w", err)
	}
	for _, w := range words {
		if w.Word == "" {
			continue
		}
		if !tokenize.IsToken(w.Word) {
			return snap, &MalformedRecordError{Path: b.Path, Err: fmt.Errorf("invalid word %q", w.Word)}
		}
		snap.Words[w.Word] = w.Instances
	}
	snap.Epoch, err = db.GetTrainingCount(conn)
	if err != nil {
		return snap, &MalformedRecordError{Path: b.Path, Err: err}
	}
	return snap, nil
}

// Create implements Backend. The migrations seed training_count = 0.
func (b *SQLiteBackend) Create() error {
	conn, err := b.open()
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := db.InitDB(conn); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	return nil
}

// Save implements Backend.
func (b *SQLiteBackend) Save(snap Snapshot) error {
	conn, err := b.open()
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := db.InitDB(conn); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	words := make([]db.Word, 0, len(snap.Words))
	for w, n := range snap.Words {
		words = append(words, db.Word{Word: w, Instances: n})
	}
	return db.ReplaceDictionary(context.Background(), conn, words, snap.Epoch)
}
