package matrix

import (
	"fmt"
	"strings"
)

// Kind identifies the element type of a matrix.
//
// The numeric values are persisted in file headers and must never change.
type Kind uint8

const (
	// KindInvalid is the zero value and never appears in a valid file.
	KindInvalid Kind = 0
	// KindUint8 is an unsigned byte element.
	KindUint8 Kind = 1
	// KindInt32 is a 32-bit signed integer element.
	KindInt32 Kind = 2
	// KindFloat32 is a 32-bit IEEE-754 float element.
	KindFloat32 Kind = 3
	// KindFloat64 is a 64-bit IEEE-754 float element.
	KindFloat64 Kind = 4
	// KindInt is the platform-sized signed integer element.
	// It is always stored as 64 bits.
	KindInt Kind = 5
)

// Element is the closed set of supported element types.
type Element interface {
	uint8 | int32 | float32 | float64 | int
}

// Size returns the number of bytes one element occupies on disk.
// It returns 0 for unknown kinds.
func (k Kind) Size() int {
	switch k {
	case KindUint8:
		return 1
	case KindInt32, KindFloat32:
		return 4
	case KindFloat64, KindInt:
		return 8
	default:
		return 0
	}
}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	return k.Size() != 0
}

func (k Kind) String() string {
	switch k {
	case KindUint8:
		return "uint8"
	case KindInt32:
		return "int32"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindInt:
		return "int"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseKind parses the name returned by Kind.String.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "uint8", "ubyte", "byte":
		return KindUint8, nil
	case "int32":
		return KindInt32, nil
	case "float32", "float":
		return KindFloat32, nil
	case "float64", "double":
		return KindFloat64, nil
	case "int", "intg":
		return KindInt, nil
	default:
		return KindInvalid, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// KindOf returns the Kind of the element type T.
func KindOf[T Element]() Kind {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return KindUint8
	case int32:
		return KindInt32
	case float32:
		return KindFloat32
	case float64:
		return KindFloat64
	case int:
		return KindInt
	default:
		return KindInvalid
	}
}
