package blobstore

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Open(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	w, err := s.Create(ctx, "a/1")
	require.NoError(t, err)
	_, err = w.Write([]byte("abcdef"))
	require.NoError(t, err)

	_, err = s.Open(ctx, "a/1")
	assert.ErrorIs(t, err, ErrNotFound, "invisible until Close")

	require.NoError(t, w.Close())
	assert.Error(t, w.Close())

	data := []byte("xyz")
	require.NoError(t, s.Put(ctx, "b", data))
	data[0] = 'X'

	b, err := s.Open(ctx, "b")
	require.NoError(t, err)
	buf := make([]byte, 3)
	_, err = b.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "xyz", string(buf))

	r, err := b.ReadRange(ctx, 1, 10)
	require.NoError(t, err)
	tail, _ := io.ReadAll(r)
	assert.Equal(t, "yz", string(tail))

	names, err := s.List(ctx, "a/")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/1"}, names)

	s.Corrupt("b", func(p []byte) []byte { return p[:1] })
	b2, err := s.Open(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, int64(1), b2.Size())
	assert.Equal(t, int64(3), b.Size(), "open handle keeps its snapshot")

	require.NoError(t, s.Delete(ctx, "b"))
	names, _ = s.List(ctx, "")
	assert.Equal(t, []string{"a/1"}, names)
}

func TestMemoryStore_Abort(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	w, err := s.Create(ctx, "partial")
	require.NoError(t, err)
	_, _ = w.Write([]byte("half"))
	require.NoError(t, w.(Aborter).Abort())

	_, err = s.Open(ctx, "partial")
	assert.ErrorIs(t, err, ErrNotFound)
}
