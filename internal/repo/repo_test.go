package repo

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/ai360/internal/db"
	"github.com/xxxsen/ai360/internal/model"
	appErr "github.com/xxxsen/ai360/internal/pkg/errors"
)

func openTestDB(t *testing.T) *AccountRepo {
	t.Helper()
	conn, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewAccountRepo(conn)
}

func TestAccountStores(t *testing.T) {
	stores := map[string]func(t *testing.T) AccountStore{
		"memory": func(t *testing.T) AccountStore { return NewMemoryAccountRepo() },
		"sqlite": func(t *testing.T) AccountStore { return openTestDB(t) },
	}
	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := newStore(t)

			_, err := store.GetByUsername(ctx, "alice")
			require.ErrorIs(t, err, appErr.ErrNotFound)

			require.NoError(t, store.Create(ctx, &model.Account{Username: "alice", PasswordHash: "h1", Ctime: 1}))
			err = store.Create(ctx, &model.Account{Username: "alice", PasswordHash: "h2", Ctime: 2})
			require.ErrorIs(t, err, appErr.ErrConflict)

			got, err := store.GetByUsername(ctx, "alice")
			require.NoError(t, err)
			require.Equal(t, "h1", got.PasswordHash)
			require.Equal(t, int64(1), got.Ctime)

			// Usernames are case sensitive.
			_, err = store.GetByUsername(ctx, "Alice")
			require.ErrorIs(t, err, appErr.ErrNotFound)
		})
	}
}

func TestEmbeddingCacheRepo(t *testing.T) {
	ctx := context.Background()
	conn, err := db.OpenSQLite(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer conn.Close()
	r := NewEmbeddingCacheRepo(conn)

	_, ok, err := r.Get(ctx, "m", "RETRIEVAL_QUERY", "h")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, r.Save(ctx, &model.EmbeddingCache{
		ModelName: "m", TaskType: "RETRIEVAL_QUERY", ContentHash: "h",
		Embedding: []float32{0.5, -1, 2}, Ctime: 100,
	}))
	require.NoError(t, r.Save(ctx, &model.EmbeddingCache{
		ModelName: "m", TaskType: "RETRIEVAL_QUERY", ContentHash: "h",
		Embedding: []float32{1, 2, 3}, Ctime: 200,
	}))
	values, ok, err := r.Get(ctx, "m", "RETRIEVAL_QUERY", "h")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []float32{1, 2, 3}, values)

	n, err := r.DeleteBefore(ctx, 150)
	require.NoError(t, err)
	require.Equal(t, int64(0), n)
	n, err = r.DeleteBefore(ctx, 300)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}
