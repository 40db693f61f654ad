package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cheezgi/piccolo/internal/chunk"
)

func TestKeyIsContentAddressed(t *testing.T) {
	assert.Equal(t, Key("1 + 2"), Key("1 + 2"))
	assert.NotEqual(t, Key("1 + 2"), Key("1 + 3"))
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")
	s, err := OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	src := "1 + 2"
	key := Key(src)

	_, ok, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	c := chunk.New()
	c.WriteOp(chunk.OpReturn, 1)
	require.NoError(t, s.Put(ctx, key, src, c))

	got, ok, err := s.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, c.Code, got.Code)

	// Put again under the same key overwrites rather than conflicting.
	c2 := chunk.New()
	c2.WriteOp(chunk.OpNil, 1)
	c2.WriteOp(chunk.OpReturn, 1)
	require.NoError(t, s.Put(ctx, key, src, c2))
	got2, ok, err := s.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, c2.Code, got2.Code)
}
