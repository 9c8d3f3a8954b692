package persistence

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	// RecordMagic identifies a matrix record (ASCII "MATR" little-endian).
	RecordMagic uint32 = 0x5254414D
	// ContainerMagic identifies a multi-matrix container (ASCII "MAMC").
	ContainerMagic uint32 = 0x434D414D
	// Version is the current format version of both headers.
	Version uint16 = 1

	// RecordHeaderSize is the encoded size of RecordHeader.
	RecordHeaderSize = 24
	// ContainerHeaderSize is the encoded size of ContainerHeader.
	ContainerHeaderSize = 16
	// ChecksumSize is the size of the record trailer.
	ChecksumSize = 4
	// DescriptorSize is the number of leading bytes that determine file multiplicity.
	DescriptorSize = ContainerHeaderSize

	// MaxRank bounds the rank accepted on read.
	MaxRank = 64
)

var (
	// ErrFormat matches every error caused by malformed file contents.
	ErrFormat = errors.New("invalid matrix file")

	ErrInvalidMagic        = fmt.Errorf("%w: invalid magic number", ErrFormat)
	ErrInvalidVersion      = fmt.Errorf("%w: unsupported version", ErrFormat)
	ErrUnknownKind         = fmt.Errorf("%w: unknown element kind", ErrFormat)
	ErrUnknownCompression  = fmt.Errorf("%w: unknown compression", ErrFormat)
	ErrInvalidRank         = fmt.Errorf("%w: invalid rank", ErrFormat)
	ErrShapeMismatch       = fmt.Errorf("%w: dimensions do not match payload", ErrFormat)
	ErrInvalidCount        = fmt.Errorf("%w: invalid record count", ErrFormat)
	ErrTrailingData        = fmt.Errorf("%w: trailing data after last record", ErrFormat)
	ErrNotContainer        = fmt.Errorf("%w: not a multi-matrix container", ErrFormat)
	ErrMultipleMatrices    = fmt.Errorf("%w: file holds more than one matrix", ErrFormat)
	ErrCorruptedCompressed = fmt.Errorf("%w: corrupted compressed payload", ErrFormat)

	// ErrEmpty is returned when saving a container with no matrices.
	ErrEmpty = errors.New("no matrices to save")
	// ErrNilMatrix is returned when saving a nil matrix.
	ErrNilMatrix = errors.New("nil matrix")

	// ErrTruncated is returned when a file ends before a complete header or
	// record. It wraps io.ErrUnexpectedEOF.
	ErrTruncated = fmt.Errorf("truncated matrix file: %w", io.ErrUnexpectedEOF)
)

// RecordHeader is the fixed 24-byte prefix of every record.
type RecordHeader struct {
	Magic       uint32
	Version     uint16
	Kind        uint8
	Compression uint8
	Rank        uint32
	Reserved    uint32
	PayloadSize uint64
}

// ContainerHeader is the 16-byte prefix of a multi-matrix file.
type ContainerHeader struct {
	Magic    uint32
	Version  uint16
	Flags    uint16
	Count    uint32
	Reserved uint32
}

// Compression selects the payload compression of a record.
type Compression uint8

const (
	CompressionNone Compression = 0
	// CompressionLZ4 is fast block compression, good for images and masks.
	CompressionLZ4 Compression = 1
	// CompressionZSTD trades speed for a better ratio.
	CompressionZSTD Compression = 2
)

// Valid reports whether c is a known compression.
func (c Compression) Valid() bool {
	return c <= CompressionZSTD
}

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompression parses the name returned by Compression.String.
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCompression, s)
	}
}
