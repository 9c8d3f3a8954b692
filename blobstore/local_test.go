package blobstore

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_Lifecycle(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewLocalStore(tmpDir)

	ctx := context.Background()

	// 1. Create a blob
	blobName := "mats/a.mat"
	data := []byte("hello world, this is a test blob for matio")

	w, err := store.Create(ctx, blobName)
	require.NoError(t, err)

	n, err := w.Write(data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)

	// not visible before Close
	names, err := store.List(ctx, "")
	require.NoError(t, err)
	require.Empty(t, names)

	require.NoError(t, w.Sync())
	require.NoError(t, w.Close())

	_, err = os.Stat(filepath.Join(tmpDir, "mats", "a.mat"))
	require.NoError(t, err)

	// 2. Open and ReadAt
	blob, err := store.Open(ctx, blobName)
	require.NoError(t, err)
	defer blob.Close()

	require.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, 5)
	n, err = blob.ReadAt(ctx, buf, 6)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "world", string(buf))

	// 3. ReadRange
	rangeReader, err := blob.ReadRange(ctx, 13, 4)
	require.NoError(t, err)
	defer rangeReader.Close()

	rangeContent, err := io.ReadAll(rangeReader)
	require.NoError(t, err)
	require.Equal(t, "this", string(rangeContent))

	// 4. Put and List
	require.NoError(t, store.Put(ctx, "b.mat", []byte("second")))

	blobs, err := store.List(ctx, "")
	require.NoError(t, err)
	require.Equal(t, []string{"b.mat", blobName}, blobs)

	blobs, err = store.List(ctx, "mats/")
	require.NoError(t, err)
	require.Equal(t, []string{blobName}, blobs)

	// 5. Delete
	require.NoError(t, store.Delete(ctx, "b.mat"))
	require.NoError(t, store.Delete(ctx, "b.mat"))

	blobsAfter, err := store.List(ctx, "")
	require.NoError(t, err)
	require.Equal(t, []string{blobName}, blobsAfter)

	_, err = store.Open(ctx, "b.mat")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStore_ReadRange_Boundaries(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := context.Background()

	data := []byte("0123456789")
	require.NoError(t, store.Put(ctx, "boundary.bin", data))

	blob, err := store.Open(ctx, "boundary.bin")
	require.NoError(t, err)
	defer blob.Close()

	r, err := blob.ReadRange(ctx, 0, 10)
	require.NoError(t, err)
	content, _ := io.ReadAll(r)
	r.Close()
	require.True(t, bytes.Equal(data, content))

	r, err = blob.ReadRange(ctx, 8, 5)
	require.NoError(t, err)
	content, err = io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "89", string(content))
	r.Close()

	_, err = blob.ReadRange(ctx, 20, 5)
	require.ErrorIs(t, err, io.EOF)
}

func TestLocalStore_EmptyAndMissingRoot(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(filepath.Join(t.TempDir(), "missing"))

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, store.Put(ctx, "empty.mat", nil))
	blob, err := store.Open(ctx, "empty.mat")
	require.NoError(t, err)
	defer blob.Close()
	assert.Equal(t, int64(0), blob.Size())
}

func TestReadAllAndReader(t *testing.T) {
	ctx := context.Background()
	for name, store := range map[string]BlobStore{
		"local":  NewLocalStore(t.TempDir()),
		"memory": NewMemoryStore(),
	} {
		t.Run(name, func(t *testing.T) {
			data := bytes.Repeat([]byte("matio"), 1000)
			require.NoError(t, store.Put(ctx, "x", data))

			got, err := ReadAll(ctx, store, "x")
			require.NoError(t, err)
			assert.Equal(t, data, got)

			b, err := store.Open(ctx, "x")
			require.NoError(t, err)
			defer b.Close()
			streamed, err := io.ReadAll(NewReader(ctx, b))
			require.NoError(t, err)
			assert.Equal(t, data, streamed)
		})
	}
}

func TestLocalStore_AbortLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStore(dir)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "keep.mat", []byte("old")))

	w, err := s.Create(ctx, "keep.mat")
	require.NoError(t, err)
	_, _ = w.Write([]byte("new but broken"))
	require.NoError(t, w.(Aborter).Abort())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got, err := ReadAll(ctx, s, "keep.mat")
	require.NoError(t, err)
	assert.Equal(t, "old", string(got))
}
