package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashCompare(t *testing.T) {
	hash, err := Hash("pw1")
	require.NoError(t, err)
	require.NoError(t, Compare(hash, "pw1"))
	require.Error(t, Compare(hash, "pw2"))
	require.Error(t, Compare(hash, "PW1"))
	require.Error(t, Compare(hash, " pw1"))
}

func TestHashLongPasswordStaysExact(t *testing.T) {
	long := strings.Repeat("p", 100)
	hash, err := Hash(long)
	require.NoError(t, err)
	require.NoError(t, Compare(hash, long))
	require.Error(t, Compare(hash, long[:99]+"q"))
	require.Error(t, Compare(hash, long[:72]))
}
