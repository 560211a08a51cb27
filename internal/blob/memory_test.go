package blob

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorePutOpen(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	err := s.Put(ctx, "zip/dis-2024-dept.zip", strings.NewReader("payload"), -1, "application/zip")
	require.NoError(t, err)

	b, err := ReadAll(ctx, s, "zip/dis-2024-dept.zip")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(b))
	assert.Equal(t, 1, s.PutCount())
}

func TestMemoryStoreExists(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	ok, err := s.Exists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, "present", strings.NewReader("x"), -1, ""))
	ok, err = s.Exists(ctx, "present")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryStoreOpenNotFound(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Open(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestMemoryStoreListSortedByPrefix(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for _, k := range []string{"unzip/b/2.txt", "unzip/a/1.txt", "zip/a.zip"} {
		require.NoError(t, s.Put(ctx, k, strings.NewReader("x"), -1, ""))
	}

	keys, err := s.List(ctx, "unzip/")
	require.NoError(t, err)
	assert.Equal(t, []string{"unzip/a/1.txt", "unzip/b/2.txt"}, keys)
}
