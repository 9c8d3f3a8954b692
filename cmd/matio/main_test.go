package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/hupe1980/matio"
	"github.com/hupe1980/matio/blobstore"
	"github.com/hupe1980/matio/catalog"
	"github.com/hupe1980/matio/matrix"
	"github.com/hupe1980/matio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEnv() (*env, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return &env{stdout: &out, stderr: &errOut, logger: matio.NoopLogger()}, &out, &errOut
}

func TestRun_Usage(t *testing.T) {
	e, _, stderr := testEnv()
	assert.ErrorIs(t, run(context.Background(), e, nil), errUsage)
	assert.Contains(t, stderr.String(), "commands:")

	assert.ErrorIs(t, run(context.Background(), e, []string{"bogus"}), errUsage)
	assert.ErrorIs(t, run(context.Background(), e, []string{"concat", "a.mat"}), errUsage)
}

func TestConcatSplitInfo(t *testing.T) {
	dir := t.TempDir()
	rng := testutil.NewRNG(1)
	a := filepath.Join(dir, "a.mat")
	b := filepath.Join(dir, "b.mat")
	require.NoError(t, matio.SaveMatrix(a, testutil.RandomMatrix[float32](rng, 3, 4)))
	require.NoError(t, matio.SaveMatrix(b, testutil.RandomMatrix[int32](rng, 5)))

	ctx := context.Background()
	e, stdout, _ := testEnv()
	out := filepath.Join(dir, "all.mat")
	require.NoError(t, run(ctx, e, []string{"concat", "-o", out, "-compression", "zstd", a, b}))
	assert.Contains(t, stdout.String(), "wrote 2 matrices")

	multi, err := matio.HasMultipleMatrices(out)
	require.NoError(t, err)
	assert.True(t, multi)

	stdout.Reset()
	require.NoError(t, run(ctx, e, []string{"info", out}))
	assert.Contains(t, stdout.String(), "container, 2 record(s)")
	assert.Contains(t, stdout.String(), "float32 [3 4]")

	stdout.Reset()
	require.NoError(t, run(ctx, e, []string{"info", "-json", a}))
	assert.Contains(t, stdout.String(), `"Container": false`)

	parts := filepath.Join(dir, "parts")
	require.NoError(t, run(ctx, e, []string{"split", "-o", parts, out}))
	back, err := matio.LoadMatrix[int32](filepath.Join(parts, "all_1.mat"))
	require.NoError(t, err)
	orig, err := matio.LoadMatrix[int32](b)
	require.NoError(t, err)
	assert.True(t, orig.Equal(back))

	assert.Error(t, run(ctx, e, []string{"info", filepath.Join(dir, "missing.mat")}))
}

func TestStats(t *testing.T) {
	dir := t.TempDir()
	sq := filepath.Join(dir, "sq.mat")
	vec := filepath.Join(dir, "vec.mat")
	m, err := matrix.FromSlice([]int32{3, 0, 0, 4}, 2, 2)
	require.NoError(t, err)
	require.NoError(t, matio.SaveMatrix(sq, m))
	v, err := matrix.FromSlice([]float64{1.5, 2.5}, 2)
	require.NoError(t, err)
	require.NoError(t, matio.SaveMatrix(vec, v))

	e, stdout, _ := testEnv()
	require.NoError(t, run(context.Background(), e, []string{"stats", sq, vec}))
	assert.Contains(t, stdout.String(), "[0] int32 [2 2] sum=7 norm=5 det=")
	assert.Contains(t, stdout.String(), "[0] float64 [2] sum=4\n")

	assert.ErrorIs(t, run(context.Background(), e, []string{"stats"}), errUsage)
}

func TestPatches(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	testutil.WritePNG(t, in, "x.png", 8, 8, testutil.PatternChecker)

	e, stdout, _ := testEnv()
	err := run(context.Background(), e, []string{"patches", "-o", out, "-size", "4x4", "-scales", "1,0.5", "cls=" + in})
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "cls: 5/5 patches")

	_, _, err = parseSize("4by4")
	assert.Error(t, err)
	assert.Error(t, run(context.Background(), e, []string{"patches", "-o", out, "nodir"}))
}

func TestUpload_ToStore(t *testing.T) {
	dir := t.TempDir()
	rng := testutil.NewRNG(2)
	single := filepath.Join(dir, "one.mat")
	multi := filepath.Join(dir, "two.mat")
	require.NoError(t, matio.SaveMatrix(single, testutil.RandomMatrix[float64](rng, 2, 2)))
	require.NoError(t, matio.SaveMatrices(multi, []matrix.Any{
		testutil.RandomMatrix[uint8](rng, 4),
		testutil.RandomMatrix[int](rng, 3),
	}))

	bs := blobstore.NewMemoryStore()
	cat := catalog.NewMemoryCatalog()
	store := matio.NewStore(bs, matio.WithCatalog(cat))
	e, stdout, _ := testEnv()

	ctx := context.Background()
	require.NoError(t, upload(ctx, e, e.codec(), store, []string{single, multi}))
	assert.Contains(t, stdout.String(), "uploaded two.mat (2 matrices)")

	ok, err := store.HasMultipleMatrices(ctx, "two.mat")
	require.NoError(t, err)
	assert.True(t, ok)

	entry, err := cat.Get(ctx, "one.mat")
	require.NoError(t, err)
	assert.Equal(t, 1, entry.Count)
	assert.False(t, entry.Container)
}
