// Package persistence implements the binary matrix record and container
// format.
//
// A single-matrix file is one record. A multi-matrix file is a container
// header followed by its records:
//
//	record    := RecordHeader dims[Rank]uint64 payload checksum:uint32
//	container := ContainerHeader record{Count}
//
// All integers are little-endian. The checksum is CRC32C over the record
// header, dims and payload. Payloads may be LZ4 or ZSTD compressed.
//
// PLATFORM REQUIREMENTS: element storage is written as raw bytes, so the
// package only runs on 64-bit little-endian platforms (amd64, arm64). This
// is verified at init; see safety.go.
package persistence
