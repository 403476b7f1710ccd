package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenSQLiteAppliesMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "app.db")
	conn, err := OpenSQLite(path)
	require.NoError(t, err)
	defer conn.Close()

	for _, table := range []string{"accounts", "embedding_cache"} {
		var name string
		err := conn.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err)
		require.Equal(t, table, name)
	}

	// Reapplying is a no-op.
	require.NoError(t, applyMigrations(conn, "migrations/sqlite"))
}
