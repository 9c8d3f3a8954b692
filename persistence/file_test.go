package persistence

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/matio/internal/fs"
	"github.com/hupe1980/matio/matrix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.mat")
	m := mustSlice(t, []float32{1.1, 2.2, 3.3, 4.4}, 2, 2)

	err := SaveToFile(nil, path, true, func(w io.Writer) error {
		_, err := WriteMatrix(w, m, CompressionNone)
		return err
	})
	require.NoError(t, err)

	var got matrix.Any
	err = LoadFromFile(nil, path, func(r io.Reader, size int64) error {
		var err error
		got, err = ReadMatrix(r, size)
		return err
	})
	require.NoError(t, err)
	assertSame(t, m, got)

	desc, err := ProbeFile(nil, path)
	require.NoError(t, err)
	assert.False(t, desc.Multiple())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestSaveToFile_WriteFaultLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "full.mat")
	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule("full.mat", fs.Fault{FailAfterBytes: 10})

	err := SaveToFile(ffs, path, false, func(w io.Writer) error {
		_, err := WriteMatrix(w, matrix.New[float64](64, 64), CompressionNone)
		return err
	})
	assert.ErrorIs(t, err, fs.ErrInjected)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSaveToFile_SyncFaultKeepsPreviousFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keep.mat")
	require.NoError(t, os.WriteFile(path, []byte("previous"), 0o644))

	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule("keep.mat", fs.Fault{FailAfterBytes: -1, FailOnSync: true})

	err := SaveToFile(ffs, path, true, func(w io.Writer) error {
		_, err := WriteMatrix(w, matrix.New[uint8](4), CompressionNone)
		return err
	})
	assert.ErrorIs(t, err, fs.ErrInjected)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(b))
}

func TestSaveToFile_MissingDirectory(t *testing.T) {
	err := SaveToFile(nil, filepath.Join(t.TempDir(), "no", "such", "dir", "x.mat"), false, func(io.Writer) error {
		return nil
	})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadFromFile_Errors(t *testing.T) {
	dir := t.TempDir()

	err := LoadFromFile(nil, filepath.Join(dir, "missing.mat"), func(io.Reader, int64) error { return nil })
	assert.ErrorIs(t, err, os.ErrNotExist)

	err = LoadFromFile(nil, dir, func(io.Reader, int64) error { return nil })
	assert.ErrorIs(t, err, ErrIsDir)

	empty := filepath.Join(dir, "empty.mat")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = ProbeFile(nil, empty)
	assert.ErrorIs(t, err, ErrTruncated)
}
