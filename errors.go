package matio

import (
	"fmt"

	"github.com/hupe1980/matio/matrix"
	"github.com/hupe1980/matio/persistence"
)

// Errors returned by the codec. Format errors all match ErrFormat.
var (
	ErrFormat             = persistence.ErrFormat
	ErrInvalidMagic       = persistence.ErrInvalidMagic
	ErrInvalidVersion     = persistence.ErrInvalidVersion
	ErrUnknownKind        = persistence.ErrUnknownKind
	ErrUnknownCompression = persistence.ErrUnknownCompression
	ErrShapeMismatch      = persistence.ErrShapeMismatch
	ErrTrailingData       = persistence.ErrTrailingData
	ErrNotContainer       = persistence.ErrNotContainer
	ErrMultipleMatrices   = persistence.ErrMultipleMatrices

	// ErrTruncated matches io.ErrUnexpectedEOF.
	ErrTruncated = persistence.ErrTruncated

	ErrEmpty     = persistence.ErrEmpty
	ErrNilMatrix = persistence.ErrNilMatrix

	ErrKindMismatch = matrix.ErrKindMismatch
)

// KindMismatchError is returned when a file holds a different element kind
// than the caller asked for.
type KindMismatchError struct {
	Path     string
	Expected matrix.Kind
	Actual   matrix.Kind
}

func (e *KindMismatchError) Error() string {
	return fmt.Sprintf("%s: element kind mismatch: expected %s, got %s", e.Path, e.Expected, e.Actual)
}

func (e *KindMismatchError) Unwrap() error { return ErrKindMismatch }

// IsChecksumMismatch reports whether err stems from a corrupted record.
func IsChecksumMismatch(err error) bool {
	return persistence.IsChecksumMismatch(err)
}
