package persistence

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// minSavings is the fraction a compressed payload must save over the raw
// bytes to be stored compressed.
const minSavings = 0.1

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	return dec
}

// compressPayload returns the bytes to store and the compression actually
// used. Payloads that do not shrink enough are stored raw.
func compressPayload(raw []byte, c Compression) ([]byte, Compression, error) {
	if c == CompressionNone || len(raw) == 0 {
		return raw, CompressionNone, nil
	}

	var out []byte
	switch c {
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(raw)))
		n, err := lz4.CompressBlock(raw, buf, nil)
		if err != nil {
			return nil, 0, err
		}
		out = buf[:n] // n == 0 means incompressible
	case CompressionZSTD:
		enc := getZstdEncoder()
		out = enc.EncodeAll(raw, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, 0, fmt.Errorf("%w: %s", ErrUnknownCompression, c)
	}

	if len(out) == 0 || float64(len(out)) > float64(len(raw))*(1-minSavings) {
		return raw, CompressionNone, nil
	}
	return out, c, nil
}

// decompressPayload decodes src into dst, which must have exactly the raw
// payload length.
func decompressPayload(dst, src []byte, c Compression) error {
	switch c {
	case CompressionLZ4:
		n, err := lz4.UncompressBlock(src, dst)
		if err != nil {
			return fmt.Errorf("%w: lz4: %v", ErrCorruptedCompressed, err)
		}
		if n != len(dst) {
			return fmt.Errorf("%w: lz4 produced %d bytes, want %d", ErrShapeMismatch, n, len(dst))
		}
		return nil
	case CompressionZSTD:
		return decompressZstd(dst, src)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCompression, c)
	}
}

// decompressZstd never produces more than len(dst) bytes: frames declaring
// another content size are rejected up front, and streamed frames are cut
// off one byte past the expected length.
func decompressZstd(dst, src []byte) error {
	var h zstd.Header
	if err := h.Decode(src); err != nil {
		return fmt.Errorf("%w: zstd header: %v", ErrCorruptedCompressed, err)
	}
	if h.HasFCS && h.FrameContentSize != uint64(len(dst)) {
		return fmt.Errorf("%w: zstd frame declares %d bytes, want %d", ErrShapeMismatch, h.FrameContentSize, len(dst))
	}

	dec := getZstdDecoder()
	defer zstdDecoderPool.Put(dec)
	if err := dec.Reset(bytes.NewReader(src)); err != nil {
		return fmt.Errorf("%w: zstd: %v", ErrCorruptedCompressed, err)
	}
	n, err := io.ReadFull(dec, dst)
	switch {
	case errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF):
		return fmt.Errorf("%w: zstd produced %d bytes, want %d", ErrShapeMismatch, n, len(dst))
	case err != nil:
		return fmt.Errorf("%w: zstd: %v", ErrCorruptedCompressed, err)
	}
	var extra [1]byte
	if n, err := dec.Read(extra[:]); n > 0 {
		return fmt.Errorf("%w: zstd produced more than %d bytes", ErrShapeMismatch, len(dst))
	} else if !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: zstd: %v", ErrCorruptedCompressed, err)
	}
	return nil
}
