package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "test.db")

	db, err := NewDB(path)
	require.NoError(t, err)

	for _, table := range []string{"dishes", "engine_runs", "sessions", "llm_usage"} {
		var name string
		err := db.SQL.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, table)
		assert.Equal(t, table, name)
	}
	require.NoError(t, db.Close())

	// Reopening an up-to-date database is a no-op migration.
	db, err = NewDB(path)
	require.NoError(t, err)
	assert.NoError(t, db.Close())
}
