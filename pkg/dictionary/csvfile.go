package dictionary

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/japaniel/spellbook/pkg/tokenize"
)

// CSV column names. "count" is accepted as an alias of "instances" on read.
const (
	ColumnWord          = "word"
	ColumnInstances     = "instances"
	ColumnTrainingCount = "training_count"
)

var csvHeader = []string{ColumnWord, ColumnInstances, ColumnTrainingCount}

// CSVBackend stores the dictionary as a headered CSV file with one
// word,instances,training_count row per word. The training count is the
// shared epoch repeated on every row.
type CSVBackend struct {
	Path string
}

// Load implements Backend.
func (b *CSVBackend) Load() (Snapshot, error) {
	snap := Snapshot{Words: make(map[string]uint64)}
	f, err := os.Open(b.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return snap, fmt.Errorf("%s: %w", b.Path, ErrStorageUnavailable)
		}
		return snap, fmt.Errorf("open dictionary: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err == io.EOF {
		return snap, nil
	}
	if err != nil {
		return snap, b.malformed(r, err)
	}
	wordIdx, countIdx, epochIdx := -1, -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case ColumnWord:
			wordIdx = i
		case ColumnInstances, "count":
			countIdx = i
		case ColumnTrainingCount:
			epochIdx = i
		}
	}
	if wordIdx < 0 {
		return snap, &MalformedRecordError{Path: b.Path, Line: 1, Err: fmt.Errorf("header %q has no %q column", header, ColumnWord)}
	}

	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return snap, b.malformed(r, err)
		}
		if len(row) != len(header) {
			return snap, b.malformed(r, fmt.Errorf("expected %d fields, got %d", len(header), len(row)))
		}
		word := row[wordIdx]
		if word == "" {
			continue // placeholder row written by Create
		}
		if !tokenize.IsToken(word) {
			return snap, b.malformed(r, fmt.Errorf("invalid word %q", word))
		}
		var count uint64
		if countIdx >= 0 && row[countIdx] != "" {
			count, err = strconv.ParseUint(row[countIdx], 10, 64)
			if err != nil {
				return snap, b.malformed(r, fmt.Errorf("parse %s: %w", ColumnInstances, err))
			}
		}
		if epochIdx >= 0 && row[epochIdx] != "" {
			epoch, err := strconv.ParseUint(row[epochIdx], 10, 64)
			if err != nil {
				return snap, b.malformed(r, fmt.Errorf("parse %s: %w", ColumnTrainingCount, err))
			}
			snap.Epoch = max(snap.Epoch, epoch)
		}
		snap.Words[word] = count
	}
	return snap, nil
}

func (b *CSVBackend) malformed(r *csv.Reader, err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return &MalformedRecordError{Path: b.Path, Line: perr.Line, Err: perr.Err}
	}
	line, _ := r.FieldPos(0)
	return &MalformedRecordError{Path: b.Path, Line: line, Err: err}
}

// Create implements Backend. The new file holds the header and a single
// placeholder row with an empty word, zero instances and epoch 0.
func (b *CSVBackend) Create() error {
	return b.write([][]string{{"", "0", "0"}})
}

// Save implements Backend. Rows are written sorted by word.
func (b *CSVBackend) Save(snap Snapshot) error {
	words := make([]string, 0, len(snap.Words))
	for w := range snap.Words {
		words = append(words, w)
	}
	slices.Sort(words)
	epoch := strconv.FormatUint(snap.Epoch, 10)
	rows := make([][]string, 0, len(words))
	for _, w := range words {
		rows = append(rows, []string{w, strconv.FormatUint(snap.Words[w], 10), epoch})
	}
	return b.write(rows)
}

// write replaces the file atomically: rows go to a synced temp file in the
// same directory which is then renamed over Path.
func (b *CSVBackend) write(rows [][]string) (err error) {
	dir := filepath.Dir(b.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dictionary dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(b.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp dictionary: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	w := csv.NewWriter(tmp)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("chmod temp dictionary: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp dictionary: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp dictionary: %w", err)
	}
	if err := os.Rename(tmp.Name(), b.Path); err != nil {
		return fmt.Errorf("rename dictionary: %w", err)
	}
	return nil
}
