package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/spellbook/pkg/dictionary"
	"github.com/japaniel/spellbook/pkg/textsource"
)

func setupStore(t *testing.T) (*dictionary.Store, string) {
	path := filepath.Join(t.TempDir(), "wordlist.csv")
	store, err := dictionary.Open(&dictionary.CSVBackend{Path: path})
	require.NoError(t, err, "open store")
	return store, path
}

func openSource(t *testing.T, name, content string, opts textsource.Options) *textsource.Source {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	src, err := textsource.Open(path, opts)
	require.NoError(t, err, "open source")
	return src
}

func TestTrainPersists(t *testing.T) {
	store, path := setupStore(t)
	src := openSource(t, "train.csv", "1,The quick quick fox.\n2,jumps over\n", textsource.Options{Column: 1})

	res, err := NewIngester(store).Train(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, TrainResult{Records: 2, Tokens: 6, Words: 5, Epoch: 1}, res)

	reloaded, err := dictionary.Open(&dictionary.CSVBackend{Path: path})
	require.NoError(t, err, "reload")
	n, _ := reloaded.Count("quick")
	assert.Equal(t, uint64(2), n)
	assert.Equal(t, uint64(1), reloaded.Epoch())
}

func TestTrainTwiceBumpsEpochOncePerRun(t *testing.T) {
	store, _ := setupStore(t)
	src := openSource(t, "notes.txt", "alpha beta\ngamma\nalpha\n", textsource.Options{})
	ig := NewIngester(store)
	for i := 0; i < 2; i++ {
		_, err := ig.Train(context.Background(), src)
		require.NoError(t, err, "run %d", i)
	}
	assert.Equal(t, uint64(2), store.Epoch())
	n, _ := store.Count("alpha")
	assert.Equal(t, uint64(4), n)
}

func TestCheck(t *testing.T) {
	store, path := setupStore(t)
	store.Train("hello world")
	src := openSource(t, "check.txt", "hello wrold\nworld 2024 isn't\nhelo\n", textsource.Options{})

	res, err := NewIngester(store).Check(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, []string{"wrold", "helo"}, res.Unmatched)
	assert.Equal(t, 3, res.Records)

	// Checking rewrites the store without bumping the training count.
	reloaded, err := dictionary.Open(&dictionary.CSVBackend{Path: path})
	require.NoError(t, err, "reload")
	assert.Equal(t, 2, reloaded.Len())
	assert.Equal(t, uint64(0), reloaded.Epoch())
}

func TestCheckNothingFound(t *testing.T) {
	store, _ := setupStore(t)
	store.Train("all known words")
	src := openSource(t, "check.txt", "All KNOWN words.\n", textsource.Options{})

	res, err := NewIngester(store).Check(context.Background(), src)
	require.NoError(t, err)
	assert.NotNil(t, res.Unmatched)
	assert.Empty(t, res.Unmatched)
}

func TestTrainFailureDoesNotPersist(t *testing.T) {
	store, path := setupStore(t)
	before, err := os.ReadFile(path)
	require.NoError(t, err)
	// third row has a bare quote
	src := openSource(t, "bad.csv", "a,b\nc,d\ne,f\"g\n", textsource.Options{Column: textsource.AllColumns})

	_, err = NewIngester(store).Train(context.Background(), src)
	require.ErrorIs(t, err, textsource.ErrMalformedInput)
	assert.Equal(t, uint64(0), store.Epoch(), "training count must not change on failure")

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after), "store was rewritten after a failed run")
}

func TestProgress(t *testing.T) {
	store, _ := setupStore(t)
	src := openSource(t, "notes.txt", "a\nb\nc\nd\ne\n", textsource.Options{})
	ig := NewIngester(store)
	ig.ProgressEvery = 2
	var calls []int
	ig.OnProgress = func(records int) { calls = append(calls, records) }

	_, err := ig.Train(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4, 5}, calls)
}

func TestCanceled(t *testing.T) {
	store, _ := setupStore(t)
	src := openSource(t, "notes.txt", "a\nb\n", textsource.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewIngester(store).Train(ctx, src)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, uint64(0), store.Epoch(), "training count must not change on cancel")
}
