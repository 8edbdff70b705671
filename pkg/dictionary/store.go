// Package dictionary holds the word-frequency store: an in-memory map of
// word counts plus a training epoch, loaded from and persisted to a Backend.
package dictionary

import (
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"

	"github.com/japaniel/spellbook/pkg/tokenize"
)

// Entry is one dictionary row.
type Entry struct {
	Word          string
	Count         uint64
	TrainingEpoch uint64
}

// Store is the in-memory dictionary. It is not safe for concurrent use.
type Store struct {
	backend Backend
	words   map[string]uint64
	epoch   uint64

	// Logger is used for informational messages. nil means no logging.
	Logger *log.Logger
}

// NewStore creates an empty store backed by b. Call Load to read the
// persisted dictionary.
func NewStore(b Backend) *Store {
	return &Store{
		backend: b,
		words:   make(map[string]uint64),
	}
}

// Open creates a store for b and loads it.
func Open(b Backend) (*Store, error) {
	s := NewStore(b)
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Load replaces the in-memory dictionary with the persisted one. Missing
// storage is created empty and loaded again once.
func (s *Store) Load() error {
	snap, err := s.backend.Load()
	if errors.Is(err, ErrStorageUnavailable) {
		s.logf("Dictionary not found (%v). Creating an empty one.", err)
		if err := s.backend.Create(); err != nil {
			return fmt.Errorf("create dictionary: %w", err)
		}
		snap, err = s.backend.Load()
	}
	if err != nil {
		return fmt.Errorf("load dictionary: %w", err)
	}
	s.words = snap.Words
	if s.words == nil {
		s.words = make(map[string]uint64)
	}
	s.epoch = snap.Epoch
	s.logf("Loaded %d words (training count %d)", len(s.words), s.epoch)
	return nil
}

// Train adds one occurrence of every token in text.
func (s *Store) Train(text string) {
	for tok := range tokenize.Tokens(text) {
		if tok == "" {
			continue
		}
		s.words[tok]++
	}
}

// Check returns the tokens of text that are not in the dictionary, in
// order of appearance and including repeats. Tokens that are not plain
// alphabetic words (numbers, contractions, hyphenated compounds) are never
// reported. An empty result means nothing was found.
func (s *Store) Check(text string) []string {
	unmatched := []string{}
	for tok := range tokenize.Tokens(text) {
		if !tokenize.IsWord(tok) {
			continue
		}
		if _, ok := s.words[tok]; !ok {
			unmatched = append(unmatched, tok)
		}
	}
	return unmatched
}

// IncreaseTrainingCount bumps the training epoch. Call it once per
// completed training run.
func (s *Store) IncreaseTrainingCount() {
	s.epoch++
}

// Persist overwrites the backend with the current dictionary.
func (s *Store) Persist() error {
	snap := Snapshot{Words: s.words, Epoch: s.epoch}
	if err := s.backend.Save(snap); err != nil {
		return fmt.Errorf("persist dictionary: %w", err)
	}
	s.logf("Saved %d words (training count %d)", len(s.words), s.epoch)
	return nil
}

// Count returns how often word was seen in training.
func (s *Store) Count(word string) (uint64, bool) {
	n, ok := s.words[word]
	return n, ok
}

// Len returns the number of distinct words.
func (s *Store) Len() int { return len(s.words) }

// Total returns the sum of all word counts.
func (s *Store) Total() uint64 {
	var total uint64
	for _, n := range s.words {
		total += n
	}
	return total
}

// Epoch returns the training epoch.
func (s *Store) Epoch() uint64 { return s.epoch }

// Entries returns the dictionary sorted by word. A non-zero maxCount keeps
// only words seen at most maxCount times, which is useful for spotting
// typos that slipped into the training text.
func (s *Store) Entries(maxCount uint64) []Entry {
	out := make([]Entry, 0, len(s.words))
	for w, n := range s.words {
		if maxCount > 0 && n > maxCount {
			continue
		}
		out = append(out, Entry{Word: w, Count: n, TrainingEpoch: s.epoch})
	}
	slices.SortFunc(out, func(a, b Entry) int { return strings.Compare(a.Word, b.Word) })
	return out
}

func (s *Store) logf(format string, args ...any) {
	if s.Logger != nil {
		s.Logger.Printf(format, args...)
	}
}
