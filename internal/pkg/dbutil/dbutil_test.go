package dbutil

import (
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestFinalizePG(t *testing.T) {
	query, args := FinalizePG("INSERT INTO doc_chunks (position,content) VALUES (?,?),(?,?)", []interface{}{0, "a", 1, "b"})
	require.Equal(t, "INSERT INTO doc_chunks (position,content) VALUES ($1,$2),($3,$4)", query)
	require.Len(t, args, 4)

	query, args = FinalizePG("SELECT * FROM t WHERE a = ? LIMIT ?,?", []interface{}{"x", 20, 10})
	require.Equal(t, "SELECT * FROM t WHERE a = $1 LIMIT $2 OFFSET $3", query)
	require.Equal(t, []interface{}{"x", 10, 20}, args)
}

func TestIsConflict(t *testing.T) {
	require.True(t, IsConflict(&pq.Error{Code: "23505"}))
	require.False(t, IsConflict(&pq.Error{Code: "23503"}))
	require.False(t, IsConflict(errors.New("boom")))
	require.False(t, IsConflict(nil))
}
