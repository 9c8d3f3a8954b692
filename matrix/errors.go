package matrix

import "errors"

var (
	// ErrUnknownKind is returned for element kinds outside the supported set.
	ErrUnknownKind = errors.New("matrix: unknown element kind")
	// ErrKindMismatch is returned when a matrix holds a different element kind than requested.
	ErrKindMismatch = errors.New("matrix: element kind mismatch")
	// ErrNegativeDim is returned for negative dimension sizes.
	ErrNegativeDim = errors.New("matrix: negative dimension size")
	// ErrTooLarge is returned when the element count overflows int.
	ErrTooLarge = errors.New("matrix: element count overflows int")
	// ErrLengthMismatch is returned when a backing slice does not match the shape.
	ErrLengthMismatch = errors.New("matrix: data length does not match shape")
	// ErrDimOutOfRange is returned for a dimension index outside [0, rank).
	ErrDimOutOfRange = errors.New("matrix: dimension out of range")
	// ErrIndexOutOfRange is returned for an element index outside its dimension.
	ErrIndexOutOfRange = errors.New("matrix: index out of range")
)
