// Package ingest runs one training or checking pass of a text source
// against the dictionary store.
package ingest

import (
	"context"
	"fmt"
	"log"

	"github.com/japaniel/spellbook/pkg/dictionary"
	"github.com/japaniel/spellbook/pkg/textsource"
)

// Ingester feeds text sources into a dictionary store.
type Ingester struct {
	Store *dictionary.Store
	// Logger is used for informational messages. nil means no logging.
	Logger *log.Logger
	// OnProgress is called every ProgressEvery records with the number of
	// records processed so far, and once more at the end.
	OnProgress    func(records int)
	ProgressEvery int
}

// NewIngester creates a new Ingester.
func NewIngester(store *dictionary.Store) *Ingester {
	return &Ingester{
		Store:         store,
		ProgressEvery: 1000,
	}
}

// TrainResult summarizes a training run.
type TrainResult struct {
	Records int
	Tokens  int
	Words   int    // distinct words in the dictionary afterwards
	Epoch   uint64 // training count after this run
}

// CheckResult summarizes a checking run.
type CheckResult struct {
	Records int
	// Unmatched holds unknown words in order of appearance, repeats
	// included. It is empty, not nil, when every word was known.
	Unmatched []string
}

// Train adds every token of src to the store, bumps the training count
// and persists the store. Nothing is persisted if reading src fails.
func (ig *Ingester) Train(ctx context.Context, src *textsource.Source) (TrainResult, error) {
	var res TrainResult
	before := ig.Store.Total()
	err := ig.each(ctx, src, func(text string) {
		ig.Store.Train(text)
		res.Records++
	})
	if err != nil {
		return res, fmt.Errorf("train on %s: %w", src.Location, err)
	}
	res.Tokens = int(ig.Store.Total() - before)

	ig.Store.IncreaseTrainingCount()
	if err := ig.Store.Persist(); err != nil {
		return res, err
	}
	res.Words = ig.Store.Len()
	res.Epoch = ig.Store.Epoch()
	ig.logf("Trained on %d records (%d tokens). Dictionary has %d words, training count %d.",
		res.Records, res.Tokens, res.Words, res.Epoch)
	return res, nil
}

// Check collects the unknown words of src. The store is persisted
// unchanged afterwards so every successful run ends with a full rewrite.
func (ig *Ingester) Check(ctx context.Context, src *textsource.Source) (CheckResult, error) {
	res := CheckResult{Unmatched: []string{}}
	err := ig.each(ctx, src, func(text string) {
		res.Unmatched = append(res.Unmatched, ig.Store.Check(text)...)
		res.Records++
	})
	if err != nil {
		return res, fmt.Errorf("check %s: %w", src.Location, err)
	}
	if err := ig.Store.Persist(); err != nil {
		return res, err
	}
	ig.logf("Checked %d records, %d unknown words.", res.Records, len(res.Unmatched))
	return res, nil
}

func (ig *Ingester) each(ctx context.Context, src *textsource.Source, fn func(text string)) error {
	records := 0
	err := src.Each(ctx, func(text string) error {
		fn(text)
		records++
		if ig.OnProgress != nil && ig.ProgressEvery > 0 && records%ig.ProgressEvery == 0 {
			ig.OnProgress(records)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if ig.OnProgress != nil {
		ig.OnProgress(records)
	}
	return nil
}

func (ig *Ingester) logf(format string, args ...any) {
	if ig.Logger != nil {
		ig.Logger.Printf(format, args...)
	}
}
