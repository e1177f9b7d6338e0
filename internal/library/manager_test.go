package library

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshelf/internal/apperr"
)

func TestManager_Delete(t *testing.T) {
	s := setupStores(t)
	ctx := context.Background()

	require.NoError(t, s.blobs.Put(ctx, "a", []byte("1")))
	require.NoError(t, s.locations.Set(ctx, "a", "sec:1:0"))
	require.NoError(t, s.index.Upsert(ctx, record("a")))
	require.NoError(t, s.index.Upsert(ctx, record("b")))

	closer := &recordingCloser{}
	m := NewManager(s.blobs, s.locations, s.index)
	m.SetSessionCloser(closer)

	require.NoError(t, m.Delete(ctx, "a"))

	_, err := s.blobs.Get(ctx, "a")
	assert.True(t, apperr.IsNotFound(err))
	_, err = s.locations.Get(ctx, "a")
	assert.True(t, apperr.IsNotFound(err))
	_, ok := s.index.Get("a")
	assert.False(t, ok)
	assert.Equal(t, []string{"b"}, keys(s.index.List()))
	assert.Equal(t, []string{"a"}, closer.closed)

	t.Run("is idempotent", func(t *testing.T) {
		require.NoError(t, m.Delete(ctx, "a"))
		assert.Equal(t, []string{"b"}, keys(s.index.List()))
	})
}

func TestManager_DeleteClosesSessionFirst(t *testing.T) {
	s := setupStores(t)
	ctx := context.Background()
	require.NoError(t, s.blobs.Put(ctx, "a", []byte("1")))
	require.NoError(t, s.index.Upsert(ctx, record("a")))

	// A session writing its last location while closing must not leave a
	// row behind.
	closer := &recordingCloser{onClose: func(key string) {
		_, ok := s.index.Get(key)
		assert.True(t, ok, "record still present while the session closes")
		require.NoError(t, s.locations.Set(ctx, key, "sec:0:10"))
	}}
	m := NewManager(s.blobs, s.locations, s.index)
	m.SetSessionCloser(closer)

	require.NoError(t, m.Delete(ctx, "a"))
	_, err := s.locations.Get(ctx, "a")
	assert.True(t, apperr.IsNotFound(err))
	assert.Equal(t, []string{"a"}, closer.closed)
}

func TestManager_DeleteRemovesOrphanBlob(t *testing.T) {
	s := setupStores(t)
	ctx := context.Background()
	require.NoError(t, s.blobs.Put(ctx, "orphan", []byte("1")))

	m := NewManager(s.blobs, s.locations, s.index)
	require.NoError(t, m.Delete(ctx, "orphan"))

	keys, err := s.blobs.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}
