package db

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err, "open db")
	// Ensure single connection to avoid separate in-memory DBs per connection.
	db.SetMaxOpenConns(1)
	require.NoError(t, InitDB(db), "migrate")
	t.Cleanup(func() { db.Close() })
	return db
}

func TestUpsertWord(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, UpsertWord(db, "hello", 5))
	require.NoError(t, UpsertWord(db, " hello ", 7))

	words, err := ListWords(db)
	require.NoError(t, err)
	assert.Equal(t, []Word{{Word: "hello", Instances: 7}}, words)
}

func TestUpsertWordRejectsEmpty(t *testing.T) {
	db := setupTestDB(t)
	assert.Error(t, UpsertWord(db, "  ", 1))
}

func TestTrainingCount(t *testing.T) {
	db := setupTestDB(t)
	n, err := GetTrainingCount(db)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), n, "fresh training_count")

	require.NoError(t, SetTrainingCount(db, 3))
	n, err = GetTrainingCount(db)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)
}

func TestGetTrainingCountMalformed(t *testing.T) {
	db := setupTestDB(t)
	_, err := db.Exec(`UPDATE parameters SET value = 'many' WHERE key = ?`, TrainingCountKey)
	require.NoError(t, err)
	_, err = GetTrainingCount(db)
	assert.Error(t, err)
}

func TestReplaceDictionary(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, UpsertWord(db, "stale", 9))

	words := []Word{{Word: "fox", Instances: 1}, {Word: "quick", Instances: 2}}
	require.NoError(t, ReplaceDictionary(context.Background(), db, words, 4))

	got, err := ListWords(db)
	require.NoError(t, err)
	assert.Equal(t, words, got)
	n, err := GetTrainingCount(db)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), n)
}

func TestReplaceDictionaryRollsBack(t *testing.T) {
	for name, bad := range map[string][]Word{
		"empty word": {{Word: "new", Instances: 1}, {Word: "", Instances: 1}},
		"blank word": {{Word: "new", Instances: 1}, {Word: " \t", Instances: 1}},
	} {
		t.Run(name, func(t *testing.T) {
			db := setupTestDB(t)
			require.NoError(t, UpsertWord(db, "kept", 2))
			require.NoError(t, SetTrainingCount(db, 5))

			assert.Error(t, ReplaceDictionary(context.Background(), db, bad, 6))

			got, err := ListWords(db)
			require.NoError(t, err)
			assert.Equal(t, []Word{{Word: "kept", Instances: 2}}, got, "original rows after rollback")
			n, err := GetTrainingCount(db)
			require.NoError(t, err)
			assert.Equal(t, uint64(5), n)
		})
	}
}
