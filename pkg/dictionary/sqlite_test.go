package dictionary

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/japaniel/spellbook/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteLoadMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wordlist.db")
	_, err := (&SQLiteBackend{Path: path}).Load()
	require.ErrorIs(t, err, ErrStorageUnavailable)
	assert.NoFileExists(t, path)
}

func TestSQLiteCreateAndSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wordlist.db")
	b := &SQLiteBackend{Path: path}
	require.NoError(t, b.Create())

	snap, err := b.Load()
	require.NoError(t, err)
	assert.Empty(t, snap.Words)
	assert.Equal(t, uint64(0), snap.Epoch)

	require.NoError(t, b.Save(Snapshot{Words: map[string]uint64{"alpha": 1, "beta": 2}, Epoch: 1}))
	require.NoError(t, b.Save(Snapshot{Words: map[string]uint64{"beta": 3}, Epoch: 2}))

	snap, err = b.Load()
	require.NoError(t, err)
	assert.Equal(t, map[string]uint64{"beta": 3}, snap.Words)
	assert.Equal(t, uint64(2), snap.Epoch)

	// the file is an ordinary database other tools can read
	conn, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer conn.Close()
	words, err := db.ListWords(conn)
	require.NoError(t, err)
	assert.Equal(t, []db.Word{{Word: "beta", Instances: 3}}, words)
}

func TestSQLiteLoadMalformedTrainingCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wordlist.db")
	b := &SQLiteBackend{Path: path}
	require.NoError(t, b.Create())

	conn, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = conn.Exec(`UPDATE parameters SET value = 'lots' WHERE key = ?`, db.TrainingCountKey)
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	_, err = b.Load()
	require.ErrorIs(t, err, ErrMalformedRecord)
}

func TestSQLiteLoadRejectsInvalidWords(t *testing.T) {
	for _, word := range []string{"Hello", "two words", "-dash", "x1"} {
		t.Run(word, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "wordlist.db")
			b := &SQLiteBackend{Path: path}
			require.NoError(t, b.Save(Snapshot{Words: map[string]uint64{"valid": 1}}))

			conn, err := sql.Open("sqlite3", path)
			require.NoError(t, err)
			_, err = conn.Exec(`INSERT INTO words (word, instances) VALUES (?, 2)`, word)
			require.NoError(t, err)
			require.NoError(t, conn.Close())

			_, err = b.Load()
			require.ErrorIs(t, err, ErrMalformedRecord)
			assert.Contains(t, err.Error(), word)
		})
	}
}

func TestOpenBackend(t *testing.T) {
	for _, c := range []struct {
		path, format string
		want         Backend
	}{
		{"words.csv", "", &CSVBackend{Path: "words.csv"}},
		{"words.txt", FormatAuto, &CSVBackend{Path: "words.txt"}},
		{"words.db", FormatAuto, &SQLiteBackend{Path: "words.db"}},
		{"words.SQLite3", "", &SQLiteBackend{Path: "words.SQLite3"}},
		{"words.db", FormatCSV, &CSVBackend{Path: "words.db"}},
		{"words.csv", "SQLITE", &SQLiteBackend{Path: "words.csv"}},
	} {
		got, err := OpenBackend(c.path, c.format)
		require.NoError(t, err, c.path)
		assert.Equal(t, c.want, got, "%s/%s", c.path, c.format)
	}

	_, err := OpenBackend("words.csv", "xml")
	assert.Error(t, err)
	_, err = OpenBackend(" ", "")
	assert.Error(t, err)
}
