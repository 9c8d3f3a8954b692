// Package hash provides the CRC32-Castagnoli checksum used by record
// trailers and S3 upload integrity headers.
//
// Go's hash/crc32 uses SSE4.2 or the ARM CRC extension for the Castagnoli
// polynomial when available.
package hash
