package persistence

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"math/bits"

	"github.com/hupe1980/matio/matrix"
)

const readBufferSize = 256 * 1024

// RecordInfo describes a record without its values.
type RecordInfo struct {
	Kind        matrix.Kind
	Dims        []int
	Compression Compression
	// PayloadSize is the number of stored payload bytes.
	PayloadSize int64
	// RawSize is the number of element bytes after decompression.
	RawSize int64
}

// Descriptor is what the leading bytes of a file reveal.
type Descriptor struct {
	// Container is true for files written as multi-matrix containers.
	Container bool
	// Count is the number of records, 1 for single-matrix files.
	Count int
}

// Multiple reports whether the file holds more than one matrix.
func (d Descriptor) Multiple() bool { return d.Count > 1 }

func truncated(err error, what string) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: reading %s", ErrTruncated, what)
	}
	return err
}

// ParseDescriptor parses the leading bytes of a file. Single-record files
// only need the first four bytes; containers need DescriptorSize.
func ParseDescriptor(b []byte) (Descriptor, error) {
	if len(b) < 4 {
		return Descriptor{}, fmt.Errorf("%w: %d leading bytes", ErrTruncated, len(b))
	}
	switch magic := binary.LittleEndian.Uint32(b); magic {
	case RecordMagic:
		return Descriptor{Count: 1}, nil
	case ContainerMagic:
		if len(b) < ContainerHeaderSize {
			return Descriptor{}, fmt.Errorf("%w: %d of %d container header bytes", ErrTruncated, len(b), ContainerHeaderSize)
		}
		h := ContainerHeader{
			Magic:   magic,
			Version: binary.LittleEndian.Uint16(b[4:]),
			Flags:   binary.LittleEndian.Uint16(b[6:]),
			Count:   binary.LittleEndian.Uint32(b[8:]),
		}
		if h.Version != Version {
			return Descriptor{}, fmt.Errorf("%w: got %d", ErrInvalidVersion, h.Version)
		}
		if h.Count == 0 {
			return Descriptor{}, fmt.Errorf("%w: container declares no records", ErrInvalidCount)
		}
		return Descriptor{Container: true, Count: int(h.Count)}, nil
	default:
		return Descriptor{}, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, magic)
	}
}

// ProbeDescriptor reads at most DescriptorSize bytes from r and reports the
// file's multiplicity without touching any record.
func ProbeDescriptor(r io.Reader) (Descriptor, error) {
	var buf [DescriptorSize]byte
	if _, err := io.ReadFull(r, buf[:4]); err != nil {
		return Descriptor{}, truncated(err, "leading descriptor")
	}
	if binary.LittleEndian.Uint32(buf[:4]) != ContainerMagic {
		return ParseDescriptor(buf[:4])
	}
	if _, err := io.ReadFull(r, buf[4:]); err != nil {
		return Descriptor{}, truncated(err, "container header")
	}
	return ParseDescriptor(buf[:])
}

// Encoder writes records and containers to a stream.
type Encoder struct {
	w           *countingWriter
	compression Compression
	container   bool
	records     []RecordInfo
}

// NewEncoder returns an Encoder compressing payloads with c.
func NewEncoder(w io.Writer, c Compression) *Encoder {
	return &Encoder{w: &countingWriter{w: w}, compression: c}
}

// Written returns the number of bytes written so far.
func (e *Encoder) Written() int64 { return e.w.n }

// Descriptor describes what has been written so far.
func (e *Encoder) Descriptor() Descriptor {
	return Descriptor{Container: e.container, Count: len(e.records)}
}

// Records returns the headers of the records written so far.
func (e *Encoder) Records() []RecordInfo { return e.records }

// WriteContainerHeader starts a container of count records.
func (e *Encoder) WriteContainerHeader(count int) error {
	if count <= 0 {
		return ErrEmpty
	}
	if uint64(count) > math.MaxUint32 {
		return fmt.Errorf("%w: %d records", ErrInvalidCount, count)
	}
	h := ContainerHeader{
		Magic:   ContainerMagic,
		Version: Version,
		Count:   uint32(count),
	}
	if err := binary.Write(e.w, binary.LittleEndian, &h); err != nil {
		return err
	}
	e.container = true
	return nil
}

// WriteRecord writes m as one self-describing record.
func (e *Encoder) WriteRecord(m matrix.Any) error {
	if m == nil {
		return ErrNilMatrix
	}
	kind := m.Kind()
	if !kind.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	dims := m.Dims()
	if len(dims) > MaxRank {
		return fmt.Errorf("%w: %d", ErrInvalidRank, len(dims))
	}
	if !e.compression.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownCompression, e.compression)
	}
	if err := m.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrShapeMismatch, err)
	}

	raw := m.Bytes()
	payload, used, err := compressPayload(raw, e.compression)
	if err != nil {
		return err
	}

	h := RecordHeader{
		Magic:       RecordMagic,
		Version:     Version,
		Kind:        uint8(kind),
		Compression: uint8(used),
		Rank:        uint32(len(dims)),
		PayloadSize: uint64(len(payload)),
	}

	cw := NewChecksumWriter(e.w)
	if err := binary.Write(cw, binary.LittleEndian, &h); err != nil {
		return err
	}
	dimBuf := make([]byte, 0, 8*len(dims))
	for _, d := range dims {
		dimBuf = binary.LittleEndian.AppendUint64(dimBuf, uint64(d))
	}
	if _, err := cw.Write(dimBuf); err != nil {
		return err
	}
	if _, err := cw.Write(payload); err != nil {
		return err
	}

	var trailer [ChecksumSize]byte
	binary.LittleEndian.PutUint32(trailer[:], cw.Sum())
	if _, err := e.w.Write(trailer[:]); err != nil {
		return err
	}
	e.records = append(e.records, RecordInfo{
		Kind:        kind,
		Dims:        dims,
		Compression: used,
		PayloadSize: int64(len(payload)),
		RawSize:     int64(len(raw)),
	})
	return nil
}

// WriteMatrix writes a single-matrix stream and returns the bytes written.
func WriteMatrix(w io.Writer, m matrix.Any, c Compression) (int64, error) {
	e := NewEncoder(w, c)
	err := e.WriteRecord(m)
	return e.Written(), err
}

// WriteMatrices writes a container of ms in order and returns the bytes written.
func WriteMatrices(w io.Writer, ms []matrix.Any, c Compression) (int64, error) {
	e := NewEncoder(w, c)
	if err := e.WriteContainerHeader(len(ms)); err != nil {
		return e.Written(), err
	}
	for i, m := range ms {
		if err := e.WriteRecord(m); err != nil {
			return e.Written(), fmt.Errorf("record %d: %w", i, err)
		}
	}
	return e.Written(), nil
}

// Decoder reads records and containers from a stream.
type Decoder struct {
	br   *bufio.Reader
	r    *countingReader
	size int64
}

// NewDecoder returns a Decoder over r. size is the total stream length, or
// negative when unknown; a known size lets the decoder reject oversized
// payload declarations before allocating.
func NewDecoder(r io.Reader, size int64) *Decoder {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReaderSize(r, readBufferSize)
	}
	return &Decoder{br: br, r: &countingReader{r: br}, size: size}
}

// Consumed returns the number of bytes read so far.
func (d *Decoder) Consumed() int64 { return d.r.n }

func (d *Decoder) remaining() int64 {
	if d.size < 0 {
		return math.MaxInt64
	}
	return d.size - d.r.n
}

// ReadDescriptor reads the leading descriptor. For single-record streams
// nothing is consumed; for containers the container header is consumed.
func (d *Decoder) ReadDescriptor() (Descriptor, error) {
	b, err := d.br.Peek(4)
	if err != nil {
		return Descriptor{}, truncated(err, "leading descriptor")
	}
	if binary.LittleEndian.Uint32(b) != ContainerMagic {
		return ParseDescriptor(b)
	}
	var buf [ContainerHeaderSize]byte
	if _, err := io.ReadFull(d.r, buf[:]); err != nil {
		return Descriptor{}, truncated(err, "container header")
	}
	return ParseDescriptor(buf[:])
}

// ReadRecord reads the next record.
func (d *Decoder) ReadRecord() (matrix.Any, error) {
	_, m, err := d.readRecord(true)
	return m, err
}

// SkipRecord reads the next record header, verifies its checksum and
// discards the values.
func (d *Decoder) SkipRecord() (RecordInfo, error) {
	info, _, err := d.readRecord(false)
	return info, err
}

// ExpectEOF fails with ErrTrailingData if any byte remains.
func (d *Decoder) ExpectEOF() error {
	var b [1]byte
	_, err := io.ReadFull(d.r, b[:])
	switch {
	case err == nil:
		return ErrTrailingData
	case errors.Is(err, io.EOF):
		return nil
	default:
		return err
	}
}

func (d *Decoder) readRecord(withValues bool) (RecordInfo, matrix.Any, error) {
	cr := NewChecksumReader(d.r)

	var h RecordHeader
	if err := binary.Read(cr, binary.LittleEndian, &h); err != nil {
		return RecordInfo{}, nil, truncated(err, "record header")
	}
	if h.Magic != RecordMagic {
		return RecordInfo{}, nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, h.Magic)
	}
	if h.Version != Version {
		return RecordInfo{}, nil, fmt.Errorf("%w: got %d", ErrInvalidVersion, h.Version)
	}
	kind := matrix.Kind(h.Kind)
	if !kind.Valid() {
		return RecordInfo{}, nil, fmt.Errorf("%w: %d", ErrUnknownKind, h.Kind)
	}
	comp := Compression(h.Compression)
	if !comp.Valid() {
		return RecordInfo{}, nil, fmt.Errorf("%w: %d", ErrUnknownCompression, h.Compression)
	}
	if h.Rank > MaxRank {
		return RecordInfo{}, nil, fmt.Errorf("%w: %d", ErrInvalidRank, h.Rank)
	}

	dimBuf := make([]byte, 8*int(h.Rank))
	if _, err := io.ReadFull(cr, dimBuf); err != nil {
		return RecordInfo{}, nil, truncated(err, "dimensions")
	}
	dims := make([]int, h.Rank)
	for i := range dims {
		v := binary.LittleEndian.Uint64(dimBuf[8*i:])
		if v > math.MaxInt {
			return RecordInfo{}, nil, fmt.Errorf("%w: dim %d is %d", ErrShapeMismatch, i, v)
		}
		dims[i] = int(v)
	}

	count, err := matrix.Count(dims)
	if err != nil {
		return RecordInfo{}, nil, fmt.Errorf("%w: %v", ErrShapeMismatch, err)
	}
	hi, rawSize := bits.Mul64(uint64(count), uint64(kind.Size()))
	if hi != 0 || rawSize > math.MaxInt64 || h.PayloadSize > math.MaxInt64 {
		return RecordInfo{}, nil, fmt.Errorf("%w: shape %v too large", ErrShapeMismatch, dims)
	}
	switch {
	case comp == CompressionNone && h.PayloadSize != rawSize:
		return RecordInfo{}, nil, fmt.Errorf("%w: shape %v of %s needs %d bytes, payload has %d",
			ErrShapeMismatch, dims, kind, rawSize, h.PayloadSize)
	case comp != CompressionNone && rawSize == 0:
		return RecordInfo{}, nil, fmt.Errorf("%w: compressed payload for empty shape %v", ErrShapeMismatch, dims)
	}
	if int64(h.PayloadSize) > d.remaining() {
		return RecordInfo{}, nil, fmt.Errorf("%w: payload of %d bytes exceeds remaining %d", ErrTruncated, h.PayloadSize, d.remaining())
	}

	info := RecordInfo{
		Kind:        kind,
		Dims:        dims,
		Compression: comp,
		PayloadSize: int64(h.PayloadSize),
		RawSize:     int64(rawSize),
	}

	var m matrix.Any
	if !withValues {
		if _, err := io.CopyN(io.Discard, cr, info.PayloadSize); err != nil {
			return RecordInfo{}, nil, truncated(err, "payload")
		}
	} else {
		m, err = matrix.NewOfKind(kind, dims...)
		if err != nil {
			return RecordInfo{}, nil, fmt.Errorf("%w: %v", ErrShapeMismatch, err)
		}
		dst := m.Bytes()
		if comp == CompressionNone {
			if _, err := io.ReadFull(cr, dst); err != nil {
				return RecordInfo{}, nil, truncated(err, "payload")
			}
		} else {
			src, err := d.readPayload(cr, info.PayloadSize)
			if err != nil {
				return RecordInfo{}, nil, truncated(err, "payload")
			}
			if err := decompressPayload(dst, src, comp); err != nil {
				return RecordInfo{}, nil, err
			}
		}
	}

	var trailer [ChecksumSize]byte
	if _, err := io.ReadFull(d.r, trailer[:]); err != nil {
		return RecordInfo{}, nil, truncated(err, "checksum")
	}
	if err := cr.Verify(binary.LittleEndian.Uint32(trailer[:])); err != nil {
		return RecordInfo{}, nil, err
	}
	return info, m, nil
}

// readPayload reads n stored bytes. With an unknown stream size the buffer
// grows as data arrives, so a corrupt length fails on EOF instead of
// allocating up front.
func (d *Decoder) readPayload(r io.Reader, n int64) ([]byte, error) {
	if d.size >= 0 {
		buf := make([]byte, n)
		_, err := io.ReadFull(r, buf)
		return buf, err
	}
	var buf bytes.Buffer
	if _, err := io.CopyN(&buf, r, n); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadMatrix reads a single-matrix stream. A container holding exactly one
// record is accepted.
func ReadMatrix(r io.Reader, size int64) (matrix.Any, error) {
	d := NewDecoder(r, size)
	desc, err := d.ReadDescriptor()
	if err != nil {
		return nil, err
	}
	if desc.Multiple() {
		return nil, fmt.Errorf("%w: %d records", ErrMultipleMatrices, desc.Count)
	}
	m, err := d.ReadRecord()
	if err != nil {
		return nil, err
	}
	if err := d.ExpectEOF(); err != nil {
		return nil, err
	}
	return m, nil
}

// ReadMatrices reads every matrix of a container in order. A single-matrix
// stream is returned as a one-element slice when flatten is true and fails
// with ErrNotContainer otherwise.
func ReadMatrices(r io.Reader, size int64, flatten bool) ([]matrix.Any, error) {
	d := NewDecoder(r, size)
	desc, err := d.ReadDescriptor()
	if err != nil {
		return nil, err
	}
	if !desc.Container && !flatten {
		return nil, ErrNotContainer
	}
	ms := make([]matrix.Any, 0, min(desc.Count, 1024))
	for i := 0; i < desc.Count; i++ {
		m, err := d.ReadRecord()
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		ms = append(ms, m)
	}
	if err := d.ExpectEOF(); err != nil {
		return nil, err
	}
	return ms, nil
}

// ReadInfo reads the descriptor and every record header, skipping values.
func ReadInfo(r io.Reader, size int64) (Descriptor, []RecordInfo, error) {
	d := NewDecoder(r, size)
	desc, err := d.ReadDescriptor()
	if err != nil {
		return Descriptor{}, nil, err
	}
	infos := make([]RecordInfo, 0, min(desc.Count, 1024))
	for i := 0; i < desc.Count; i++ {
		info, err := d.SkipRecord()
		if err != nil {
			return desc, infos, fmt.Errorf("record %d: %w", i, err)
		}
		infos = append(infos, info)
	}
	if err := d.ExpectEOF(); err != nil {
		return desc, infos, err
	}
	return desc, infos, nil
}
