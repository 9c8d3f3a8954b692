package imageio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/matio/matrix"
	"github.com/hupe1980/matio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RGB(t *testing.T) {
	path := testutil.WritePNG(t, t.TempDir(), "g.png", 8, 6, testutil.PatternGradient)

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []int{6, 8, 3}, m.Dims())

	// top-left red is 0, top-right red is 255, bottom-left green is 255
	assert.Equal(t, uint8(0), m.At(0, 0, 0))
	assert.Equal(t, uint8(255), m.At(0, 7, 0))
	assert.Equal(t, uint8(255), m.At(5, 0, 1))
	assert.Equal(t, uint8(3), m.At(1, 2, 2))
}

func TestLoad_GrayKeepsOneChannel(t *testing.T) {
	path := testutil.WritePNG(t, t.TempDir(), "gray.png", 5, 2, testutil.PatternGray)

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 5, 1}, m.Dims())
	assert.Equal(t, uint8(255), m.At(1, 4, 0))

	rgb := testutil.WritePNG(t, t.TempDir(), "rgb.png", 5, 2, testutil.PatternChecker)
	g, err := LoadGray(rgb)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 5, 1}, g.Dims())
	assert.Equal(t, uint8(255), g.At(0, 0, 0))
	assert.Equal(t, uint8(0), g.At(0, 4, 0))
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "missing.png"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)
}

func TestSavePNG_RoundTrip(t *testing.T) {
	m := testutil.RandomMatrix[uint8](testutil.NewRNG(3), 7, 9, 3)
	path := filepath.Join(t.TempDir(), "out.png")
	require.NoError(t, SavePNG(path, m))

	back, err := Load(path)
	require.NoError(t, err)
	assert.True(t, m.Equal(back))

	gray := testutil.RandomMatrix[uint8](testutil.NewRNG(4), 4, 4)
	require.NoError(t, SavePNG(path, gray))
	back, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, gray.Data(), back.Data())
}

func TestToImage_RejectsNonImages(t *testing.T) {
	_, err := ToImage(matrix.New[uint8](2, 2, 2))
	assert.ErrorIs(t, err, ErrShape)
	_, err = ToImage(matrix.New[uint8](4))
	assert.ErrorIs(t, err, ErrShape)
}

func TestResize(t *testing.T) {
	m, err := Load(testutil.WritePNG(t, t.TempDir(), "c.png", 16, 16, testutil.PatternChecker))
	require.NoError(t, err)

	small, err := Resize(m, 8, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{8, 4, 3}, small.Dims())

	flat := matrix.New[uint8](10, 10)
	out, err := Resize(flat, 5, 5)
	require.NoError(t, err)
	assert.Equal(t, []int{5, 5}, out.Dims())

	_, err = Resize(m, 0, 4)
	assert.ErrorIs(t, err, ErrShape)
}
