package blobstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalBlobStore_Lifecycle(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewLocalStore(tmpDir)

	ctx := context.Background()

	// 1. Put a nested blob
	blobName := "skeleton/42"
	data := []byte("hello world, this is a test skeleton blob")
	require.NoError(t, store.Put(ctx, blobName, data))

	// Verify file exists on disk
	_, err := os.Stat(filepath.Join(tmpDir, "skeleton", "42"))
	require.NoError(t, err)

	// 2. Open and ReadAt
	blob, err := store.Open(ctx, blobName)
	require.NoError(t, err)
	defer blob.Close()

	require.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, 5)
	n, err := blob.ReadAt(ctx, buf, 6) // "world"
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "world", string(buf))

	// 3. Overwrite
	require.NoError(t, store.Put(ctx, blobName, []byte("v2")))
	got, err := ReadAll(ctx, store, blobName)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(got))

	// 4. List
	require.NoError(t, store.Put(ctx, "skeleton/info", []byte("{}")))
	require.NoError(t, store.Put(ctx, "info", []byte("{}")))

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"info", "skeleton/42", "skeleton/info"}, names)

	names, err = store.List(ctx, "skeleton/")
	require.NoError(t, err)
	assert.Equal(t, []string{"skeleton/42", "skeleton/info"}, names)

	// 5. Delete is idempotent
	require.NoError(t, store.Delete(ctx, blobName))
	require.NoError(t, store.Delete(ctx, blobName))

	_, err = store.Open(ctx, blobName)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalBlobStore_NoTempLeftovers(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewLocalStore(tmpDir)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Put(ctx, "segment_properties/info", []byte("x")))
	}

	entries, err := os.ReadDir(filepath.Join(tmpDir, "segment_properties"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "info", entries[0].Name())
}

func TestLocalBlobStore_MissingRoot(t *testing.T) {
	store := NewLocalStore(filepath.Join(t.TempDir(), "absent"))

	names, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, names)

	ok, err := Exists(context.Background(), store, "info")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocalBlobStore_OpenDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewLocalStore(tmpDir)
	require.NoError(t, store.Put(context.Background(), "skeleton/1", []byte("x")))

	_, err := store.Open(context.Background(), "skeleton")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalBlobStore_CanceledContext(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, store.Put(ctx, "info", nil), context.Canceled)
	_, err := store.Open(ctx, "info")
	assert.ErrorIs(t, err, context.Canceled)
}
