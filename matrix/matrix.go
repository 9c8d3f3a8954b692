package matrix

import (
	"bytes"
	"fmt"
	"math"
	"math/bits"
	"unsafe"
)

// Any is the kind-erased view of a *Matrix[T].
//
// It lets callers handle matrices of different element kinds in one
// sequence, which is what multi-matrix containers hold.
type Any interface {
	// Kind returns the element kind.
	Kind() Kind
	// Dims returns a copy of the dimension sizes.
	Dims() []int
	// Rank returns the number of dimensions.
	Rank() int
	// Len returns the number of elements.
	Len() int
	// IsContiguous reports whether the elements are packed in row-major order.
	IsContiguous() bool
	// Sum returns the sum of all elements as float64.
	Sum() float64
	// Bytes returns the row-major element bytes in host byte order.
	// The slice aliases the matrix storage when IsContiguous is true.
	Bytes() []byte
	// Validate reports whether the shape is backed by storage.
	Validate() error
}

// Validate checks that every element the shape addresses lies inside the
// backing storage. Matrices built by New, FromSlice and the view methods are
// always valid; a zero Matrix is not, because its single rank-0 element has
// no storage.
func (m *Matrix[T]) Validate() error {
	if len(m.strides) != len(m.dims) {
		return fmt.Errorf("%w: %d strides for rank %d", ErrLengthMismatch, len(m.strides), len(m.dims))
	}
	n, err := Count(m.dims)
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	if m.offset < 0 {
		return fmt.Errorf("%w: offset %d", ErrIndexOutOfRange, m.offset)
	}
	last := m.offset
	for i, d := range m.dims {
		if m.strides[i] < 0 {
			return fmt.Errorf("%w: stride %d", ErrIndexOutOfRange, m.strides[i])
		}
		last += (d - 1) * m.strides[i]
	}
	if last >= len(m.data) {
		return fmt.Errorf("%w: shape %v needs index %d, storage holds %d", ErrLengthMismatch, m.dims, last, len(m.data))
	}
	return nil
}

// Matrix is an n-dimensional array of T.
//
// The shape is fixed at construction. Views created by Narrow and Transpose
// share storage with their parent.
type Matrix[T Element] struct {
	data    []T
	dims    []int
	strides []int
	offset  int
}

var (
	_ Any = (*Matrix[uint8])(nil)
	_ Any = (*Matrix[int32])(nil)
	_ Any = (*Matrix[float32])(nil)
	_ Any = (*Matrix[float64])(nil)
	_ Any = (*Matrix[int])(nil)
)

// New allocates a zeroed matrix with the given dimension sizes.
// New() returns a rank-0 matrix holding a single element.
// It panics if a dimension is negative or the element count overflows.
func New[T Element](dims ...int) *Matrix[T] {
	n, err := Count(dims)
	if err != nil {
		panic(err)
	}
	return &Matrix[T]{
		data:    make([]T, n),
		dims:    append([]int(nil), dims...),
		strides: rowMajorStrides(dims),
	}
}

// FromSlice wraps data in a matrix of the given shape without copying.
func FromSlice[T Element](data []T, dims ...int) (*Matrix[T], error) {
	n, err := Count(dims)
	if err != nil {
		return nil, err
	}
	if len(data) != n {
		return nil, fmt.Errorf("%w: %d elements for shape %v", ErrLengthMismatch, len(data), dims)
	}
	return &Matrix[T]{
		data:    data,
		dims:    append([]int(nil), dims...),
		strides: rowMajorStrides(dims),
	}, nil
}

// Count returns the element count of a shape.
func Count(dims []int) (int, error) {
	n := 1
	for i, d := range dims {
		if d < 0 {
			return 0, fmt.Errorf("%w: dim %d is %d", ErrNegativeDim, i, d)
		}
		hi, lo := bits.Mul64(uint64(n), uint64(d))
		if hi != 0 || lo > math.MaxInt {
			return 0, fmt.Errorf("%w: shape %v", ErrTooLarge, dims)
		}
		n = int(lo)
	}
	return n, nil
}

func rowMajorStrides(dims []int) []int {
	strides := make([]int, len(dims))
	s := 1
	for i := len(dims) - 1; i >= 0; i-- {
		strides[i] = s
		s *= dims[i]
	}
	return strides
}

// Kind returns the element kind of T.
func (m *Matrix[T]) Kind() Kind { return KindOf[T]() }

// Dims returns a copy of the dimension sizes.
func (m *Matrix[T]) Dims() []int { return append([]int(nil), m.dims...) }

// Rank returns the number of dimensions.
func (m *Matrix[T]) Rank() int { return len(m.dims) }

// Dim returns the size of dimension d.
func (m *Matrix[T]) Dim(d int) int { return m.dims[d] }

// Len returns the number of elements.
func (m *Matrix[T]) Len() int {
	n := 1
	for _, d := range m.dims {
		n *= d
	}
	return n
}

// IsContiguous reports whether the elements are packed in row-major order.
func (m *Matrix[T]) IsContiguous() bool {
	s := 1
	for i := len(m.dims) - 1; i >= 0; i-- {
		if m.dims[i] != 1 && m.strides[i] != s {
			return false
		}
		s *= m.dims[i]
	}
	return true
}

func (m *Matrix[T]) index(idx []int) int {
	if len(idx) != len(m.dims) {
		panic(fmt.Errorf("%w: %d indices for rank %d", ErrDimOutOfRange, len(idx), len(m.dims)))
	}
	off := m.offset
	for i, v := range idx {
		if v < 0 || v >= m.dims[i] {
			panic(fmt.Errorf("%w: index %d of dim %d (size %d)", ErrIndexOutOfRange, v, i, m.dims[i]))
		}
		off += v * m.strides[i]
	}
	return off
}

// At returns the element at idx. It panics on a bad index.
func (m *Matrix[T]) At(idx ...int) T {
	return m.data[m.index(idx)]
}

// Set stores v at idx. It panics on a bad index.
func (m *Matrix[T]) Set(v T, idx ...int) {
	m.data[m.index(idx)] = v
}

// Each calls fn for every element in row-major order.
func (m *Matrix[T]) Each(fn func(v T)) {
	n := m.Len()
	if n == 0 {
		return
	}
	if m.IsContiguous() {
		for _, v := range m.data[m.offset : m.offset+n] {
			fn(v)
		}
		return
	}
	idx := make([]int, len(m.dims))
	off := m.offset
	for {
		fn(m.data[off])
		// odometer increment, last dimension fastest
		d := len(idx) - 1
		for ; d >= 0; d-- {
			idx[d]++
			off += m.strides[d]
			if idx[d] < m.dims[d] {
				break
			}
			off -= idx[d] * m.strides[d]
			idx[d] = 0
		}
		if d < 0 {
			return
		}
	}
}

// Data returns the elements in row-major order.
// The result aliases the matrix storage when the matrix is contiguous and
// is a packed copy otherwise.
func (m *Matrix[T]) Data() []T {
	n := m.Len()
	if m.IsContiguous() {
		return m.data[m.offset : m.offset+n : m.offset+n]
	}
	out := make([]T, 0, n)
	m.Each(func(v T) { out = append(out, v) })
	return out
}

// Contiguous returns m itself when it is contiguous and a packed copy otherwise.
func (m *Matrix[T]) Contiguous() *Matrix[T] {
	if m.IsContiguous() {
		return m
	}
	return &Matrix[T]{
		data:    m.Data(),
		dims:    append([]int(nil), m.dims...),
		strides: rowMajorStrides(m.dims),
	}
}

// Clone returns a packed deep copy.
func (m *Matrix[T]) Clone() *Matrix[T] {
	data := make([]T, m.Len())
	copy(data, m.Data())
	return &Matrix[T]{
		data:    data,
		dims:    append([]int(nil), m.dims...),
		strides: rowMajorStrides(m.dims),
	}
}

// Narrow returns a view restricted to [offset, offset+size) along dim.
func (m *Matrix[T]) Narrow(dim, offset, size int) (*Matrix[T], error) {
	if dim < 0 || dim >= len(m.dims) {
		return nil, fmt.Errorf("%w: %d (rank %d)", ErrDimOutOfRange, dim, len(m.dims))
	}
	if offset < 0 || size < 0 || offset+size > m.dims[dim] {
		return nil, fmt.Errorf("%w: [%d, %d) of dim %d (size %d)", ErrIndexOutOfRange, offset, offset+size, dim, m.dims[dim])
	}
	v := &Matrix[T]{
		data:    m.data,
		dims:    append([]int(nil), m.dims...),
		strides: append([]int(nil), m.strides...),
		offset:  m.offset,
	}
	v.dims[dim] = size
	if size > 0 {
		v.offset += offset * m.strides[dim]
	}
	return v, nil
}

// Transpose returns a view with dimensions d1 and d2 swapped.
func (m *Matrix[T]) Transpose(d1, d2 int) (*Matrix[T], error) {
	r := len(m.dims)
	if d1 < 0 || d1 >= r || d2 < 0 || d2 >= r {
		return nil, fmt.Errorf("%w: (%d, %d) for rank %d", ErrDimOutOfRange, d1, d2, r)
	}
	v := &Matrix[T]{
		data:    m.data,
		dims:    append([]int(nil), m.dims...),
		strides: append([]int(nil), m.strides...),
		offset:  m.offset,
	}
	v.dims[d1], v.dims[d2] = v.dims[d2], v.dims[d1]
	v.strides[d1], v.strides[d2] = v.strides[d2], v.strides[d1]
	return v, nil
}

// Sum returns the sum of all elements as float64.
func (m *Matrix[T]) Sum() float64 {
	var s float64
	m.Each(func(v T) { s += float64(v) })
	return s
}

// Bytes returns the row-major element bytes in host byte order.
func (m *Matrix[T]) Bytes() []byte {
	d := m.Data()
	if len(d) == 0 {
		return []byte{}
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(d))), len(d)*int(unsafe.Sizeof(zero)))
}

// Equal reports whether o has the same shape and bitwise identical elements.
// NaN payloads compare equal to themselves.
func (m *Matrix[T]) Equal(o *Matrix[T]) bool {
	if o == nil || len(m.dims) != len(o.dims) {
		return false
	}
	for i := range m.dims {
		if m.dims[i] != o.dims[i] {
			return false
		}
	}
	return bytes.Equal(m.Bytes(), o.Bytes())
}

func (m *Matrix[T]) String() string {
	return fmt.Sprintf("Matrix[%s]%v", m.Kind(), m.dims)
}
