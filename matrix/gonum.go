package matrix

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ToDense copies a rank-2 float64 matrix into a gonum Dense.
// gonum does not support empty matrices, so zero-sized dimensions fail.
func ToDense(m *Matrix[float64]) (*mat.Dense, error) {
	if m.Rank() != 2 {
		return nil, fmt.Errorf("%w: rank %d, want 2", ErrDimOutOfRange, m.Rank())
	}
	r, c := m.dims[0], m.dims[1]
	if r == 0 || c == 0 {
		return nil, fmt.Errorf("%w: empty %dx%d matrix", ErrLengthMismatch, r, c)
	}
	data := make([]float64, r*c)
	copy(data, m.Data())
	return mat.NewDense(r, c, data), nil
}

// FromDense copies any gonum matrix into a rank-2 float64 matrix.
func FromDense(a mat.Matrix) *Matrix[float64] {
	r, c := a.Dims()
	m := New[float64](r, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			m.data[i*c+j] = a.At(i, j)
		}
	}
	return m
}
