package matrix

import "fmt"

// NewOfKind allocates a zeroed matrix of a runtime element kind.
func NewOfKind(kind Kind, dims ...int) (Any, error) {
	if _, err := Count(dims); err != nil {
		return nil, err
	}
	switch kind {
	case KindUint8:
		return New[uint8](dims...), nil
	case KindInt32:
		return New[int32](dims...), nil
	case KindFloat32:
		return New[float32](dims...), nil
	case KindFloat64:
		return New[float64](dims...), nil
	case KindInt:
		return New[int](dims...), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
}

// As returns a as a *Matrix[T], failing when a holds another element kind.
func As[T Element](a Any) (*Matrix[T], error) {
	if m, ok := a.(*Matrix[T]); ok {
		return m, nil
	}
	var got Kind
	if a != nil {
		got = a.Kind()
	}
	return nil, fmt.Errorf("%w: want %s, got %s", ErrKindMismatch, KindOf[T](), got)
}

// Convert copies a into a new matrix of element type U, converting each value.
func Convert[U, T Element](m *Matrix[T]) *Matrix[U] {
	out := New[U](m.dims...)
	i := 0
	m.Each(func(v T) {
		out.data[i] = U(v)
		i++
	})
	return out
}

// ToFloat64 copies a into a float64 matrix, whatever its element kind.
func ToFloat64(a Any) (*Matrix[float64], error) {
	switch m := a.(type) {
	case *Matrix[uint8]:
		return Convert[float64](m), nil
	case *Matrix[int32]:
		return Convert[float64](m), nil
	case *Matrix[float32]:
		return Convert[float64](m), nil
	case *Matrix[float64]:
		return m.Clone(), nil
	case *Matrix[int]:
		return Convert[float64](m), nil
	case nil:
		return nil, fmt.Errorf("%w: nil matrix", ErrKindMismatch)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownKind, a)
	}
}
