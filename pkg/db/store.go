package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// ListWords returns every stored word ordered by word.
func ListWords(db DBExecutor) ([]Word, error) {
	rows, err := db.Query(`SELECT word, instances FROM words ORDER BY word`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Word
	for rows.Next() {
		var w Word
		var instances int64
		if err := rows.Scan(&w.Word, &instances); err != nil {
			return nil, err
		}
		if instances < 0 {
			return nil, fmt.Errorf("word %q has negative instances %d", w.Word, instances)
		}
		w.Instances = uint64(instances)
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpsertWord sets the instance count of a word, inserting it if missing.
func UpsertWord(db DBExecutor, word string, instances uint64) error {
	trimmed := strings.TrimSpace(word)
	if trimmed == "" {
		return fmt.Errorf("word must be non-empty")
	}
	_, err := db.Exec(`INSERT INTO words (word, instances) VALUES (?, ?)
	ON CONFLICT(word) DO UPDATE SET instances = excluded.instances`, trimmed, int64(instances))
	if err != nil {
		return fmt.Errorf("upsert word: %w", err)
	}
	return nil
}

// GetTrainingCount returns the stored training epoch, or 0 when none is recorded.
func GetTrainingCount(db DBExecutor) (uint64, error) {
	var value sql.NullString
	err := db.QueryRow(`SELECT value FROM parameters WHERE key = ?`, TrainingCountKey).Scan(&value)
	if err == sql.ErrNoRows || (err == nil && !value.Valid) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(value.String, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", TrainingCountKey, value.String, err)
	}
	return n, nil
}

// SetTrainingCount stores the training epoch.
func SetTrainingCount(db DBExecutor, n uint64) error {
	_, err := db.Exec(`INSERT INTO parameters (key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value`, TrainingCountKey, strconv.FormatUint(n, 10))
	return err
}

// ReplaceDictionary overwrites all words and the training epoch inside one
// transaction, so readers see either the old dictionary or the new one.
func ReplaceDictionary(ctx context.Context, conn *sql.DB, words []Word, trainingCount uint64) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // ignored if committed
	}()

	if _, err := tx.Exec(`DELETE FROM words`); err != nil {
		return fmt.Errorf("clear words: %w", err)
	}
	for _, w := range words {
		if err := UpsertWord(tx, w.Word, w.Instances); err != nil {
			return fmt.Errorf("store word %q: %w", w.Word, err)
		}
	}
	if err := SetTrainingCount(tx, trainingCount); err != nil {
		return fmt.Errorf("set %s: %w", TrainingCountKey, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit dictionary (%d words): %w", len(words), err)
	}
	return nil
}
