package matrix

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindUint8, KindOf[uint8]())
	assert.Equal(t, KindInt32, KindOf[int32]())
	assert.Equal(t, KindFloat32, KindOf[float32]())
	assert.Equal(t, KindFloat64, KindOf[float64]())
	assert.Equal(t, KindInt, KindOf[int]())
}

func TestKind_SizeAndString(t *testing.T) {
	assert.Equal(t, 1, KindUint8.Size())
	assert.Equal(t, 4, KindInt32.Size())
	assert.Equal(t, 8, KindInt.Size())
	assert.Equal(t, 0, KindInvalid.Size())
	assert.False(t, Kind(42).Valid())
	assert.Equal(t, "float64", KindFloat64.String())
	assert.Equal(t, "kind(42)", Kind(42).String())

	k, err := ParseKind("double")
	require.NoError(t, err)
	assert.Equal(t, KindFloat64, k)

	_, err = ParseKind("complex128")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestNew(t *testing.T) {
	m := New[int32](2, 3)
	assert.Equal(t, []int{2, 3}, m.Dims())
	assert.Equal(t, 2, m.Rank())
	assert.Equal(t, 6, m.Len())
	assert.True(t, m.IsContiguous())

	scalar := New[float64]()
	assert.Equal(t, 0, scalar.Rank())
	assert.Equal(t, 1, scalar.Len())
	scalar.Set(2.5)
	assert.Equal(t, 2.5, scalar.At())

	empty := New[uint8](4, 0, 2)
	assert.Equal(t, 0, empty.Len())
	assert.Empty(t, empty.Bytes())

	assert.Panics(t, func() { New[int](-1) })
}

func TestFromSlice(t *testing.T) {
	m, err := FromSlice([]int{1, 2, 3, 4, 5, 6}, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 6, m.At(1, 2))
	assert.Equal(t, 4, m.At(1, 0))

	_, err = FromSlice([]int{1, 2, 3}, 2, 2)
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, err = FromSlice([]int{}, 2, -1)
	assert.ErrorIs(t, err, ErrNegativeDim)
}

func TestCount_Overflow(t *testing.T) {
	_, err := Count([]int{math.MaxInt, 2})
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestAtSet_OutOfRange(t *testing.T) {
	m := New[float32](2, 2)
	assert.Panics(t, func() { m.At(2, 0) })
	assert.Panics(t, func() { m.At(0) })
	assert.Panics(t, func() { m.Set(1, 0, -1) })
}

func TestNarrow(t *testing.T) {
	m, err := FromSlice([]int32{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	}, 3, 3)
	require.NoError(t, err)

	col, err := m.Narrow(1, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1}, col.Dims())
	assert.False(t, col.IsContiguous())
	assert.Equal(t, []int32{2, 5, 8}, col.Data())
	assert.Equal(t, float64(15), col.Sum())

	rows, err := m.Narrow(0, 1, 2)
	require.NoError(t, err)
	assert.True(t, rows.IsContiguous())
	assert.Equal(t, []int32{4, 5, 6, 7, 8, 9}, rows.Data())

	// views share storage
	col.Set(50, 1, 0)
	assert.Equal(t, int32(50), m.At(1, 1))

	_, err = m.Narrow(2, 0, 1)
	assert.ErrorIs(t, err, ErrDimOutOfRange)
	_, err = m.Narrow(0, 2, 2)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestValidate(t *testing.T) {
	m, err := FromSlice([]int32{1, 2, 3, 4, 5, 6}, 2, 3)
	require.NoError(t, err)
	require.NoError(t, m.Validate())

	col, err := m.Narrow(1, 2, 1)
	require.NoError(t, err)
	assert.NoError(t, col.Validate())
	tr, err := m.Transpose(0, 1)
	require.NoError(t, err)
	assert.NoError(t, tr.Validate())
	assert.NoError(t, New[uint8](4, 0).Validate())
	assert.NoError(t, New[float64]().Validate())

	var zero Matrix[float64]
	assert.ErrorIs(t, zero.Validate(), ErrLengthMismatch)
}

func TestTranspose(t *testing.T) {
	m, err := FromSlice([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	require.NoError(t, err)

	tr, err := m.Transpose(0, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2}, tr.Dims())
	assert.False(t, tr.IsContiguous())
	assert.Equal(t, []float64{1, 4, 2, 5, 3, 6}, tr.Data())
	assert.Equal(t, 5.0, tr.At(1, 1))

	packed := tr.Contiguous()
	assert.True(t, packed.IsContiguous())
	assert.Equal(t, tr.Data(), packed.Data())

	_, err = m.Transpose(0, 3)
	assert.ErrorIs(t, err, ErrDimOutOfRange)
}

func TestEqual(t *testing.T) {
	a, _ := FromSlice([]float32{1, float32(math.NaN()), 3}, 3)
	b := a.Clone()
	assert.True(t, a.Equal(b))

	b.Set(4, 2)
	assert.False(t, a.Equal(b))

	c, _ := FromSlice([]float32{1, float32(math.NaN()), 3}, 1, 3)
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(nil))
}

func TestBytes_Layout(t *testing.T) {
	m, _ := FromSlice([]int32{1, -1}, 2)
	assert.Equal(t, []byte{1, 0, 0, 0, 0xff, 0xff, 0xff, 0xff}, m.Bytes())

	// contiguous bytes alias storage
	m.Bytes()[0] = 7
	assert.Equal(t, int32(7), m.At(0))
}

func TestNewOfKindAndAs(t *testing.T) {
	a, err := NewOfKind(KindInt, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, KindInt, a.Kind())

	m, err := As[int](a)
	require.NoError(t, err)
	assert.Equal(t, 4, m.Len())

	_, err = As[float32](a)
	assert.True(t, errors.Is(err, ErrKindMismatch))

	_, err = NewOfKind(Kind(9), 1)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestConvert(t *testing.T) {
	m, _ := FromSlice([]uint8{1, 2, 255}, 3)
	f := Convert[float32](m)
	assert.Equal(t, []float32{1, 2, 255}, f.Data())
}

func TestToFloat64(t *testing.T) {
	m, _ := FromSlice([]int32{-3, 0, 7, 1}, 2, 2)
	tr, err := m.Transpose(0, 1)
	require.NoError(t, err)

	f, err := ToFloat64(tr)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2}, f.Dims())
	assert.Equal(t, []float64{-3, 7, 0, 1}, f.Data())

	_, err = ToFloat64(nil)
	assert.ErrorIs(t, err, ErrKindMismatch)
}

func TestGonumInterop(t *testing.T) {
	m, _ := FromSlice([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	d, err := ToDense(m)
	require.NoError(t, err)
	r, c := d.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 3, c)
	assert.Equal(t, 6.0, d.At(1, 2))

	back := FromDense(d.T())
	assert.Equal(t, []int{3, 2}, back.Dims())
	assert.Equal(t, 4.0, back.At(0, 1))

	var sum mat.Dense
	sum.Add(d, d)
	assert.Equal(t, 12.0, FromDense(&sum).At(1, 2))

	_, err = ToDense(New[float64](0, 3))
	assert.ErrorIs(t, err, ErrLengthMismatch)
	_, err = ToDense(New[float64](3))
	assert.ErrorIs(t, err, ErrDimOutOfRange)
}
