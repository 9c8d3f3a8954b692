package matio

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hupe1980/matio/blobstore"
	"github.com/hupe1980/matio/catalog"
	"github.com/hupe1980/matio/internal/hash"
	"github.com/hupe1980/matio/matrix"
	"github.com/hupe1980/matio/persistence"
	"github.com/hupe1980/matio/resource"
)

// Store saves and loads matrix files in a blobstore.BlobStore.
// A Store is safe for concurrent use.
type Store struct {
	bs   blobstore.BlobStore
	opts options
}

// NewStore creates a Store over bs. WithCatalog makes every successful save
// record a catalog.Entry.
func NewStore(bs blobstore.BlobStore, optFns ...Option) *Store {
	return &Store{bs: bs, opts: applyOptions(optFns)}
}

// SaveMatrix writes m as a single-matrix blob.
func (s *Store) SaveMatrix(ctx context.Context, name string, m matrix.Any) error {
	if m == nil {
		return ErrNilMatrix
	}
	return s.save(ctx, name, 1, func(enc *persistence.Encoder) error {
		return enc.WriteRecord(m)
	})
}

// SaveMatrices writes ms, in order, as one container blob.
func (s *Store) SaveMatrices(ctx context.Context, name string, ms []matrix.Any) error {
	if len(ms) == 0 {
		return ErrEmpty
	}
	return s.save(ctx, name, len(ms), func(enc *persistence.Encoder) error {
		if err := enc.WriteContainerHeader(len(ms)); err != nil {
			return err
		}
		for i, m := range ms {
			if err := enc.WriteRecord(m); err != nil {
				return fmt.Errorf("record %d: %w", i, err)
			}
		}
		return nil
	})
}

// save streams into a new blob. The blob is published by Close only when
// every record was written; otherwise it is aborted.
func (s *Store) save(ctx context.Context, name string, count int, fn func(*persistence.Encoder) error) (err error) {
	start := time.Now()
	var written int64
	defer func() {
		elapsed := time.Since(start)
		s.opts.metricsCollector.RecordSave(count, written, elapsed, err)
		s.opts.logger.LogSave(ctx, name, count, written, elapsed, err)
	}()

	w, err := s.bs.Create(ctx, name)
	if err != nil {
		return err
	}

	crc := hash.NewCRC32C()
	bw := bufio.NewWriterSize(io.MultiWriter(w, crc), 256*1024)
	enc := persistence.NewEncoder(resource.NewRateLimitedWriter(ctx, bw, s.opts.resources), s.opts.compression)

	err = fn(enc)
	if err == nil {
		err = bw.Flush()
	}
	if err == nil && s.opts.sync {
		err = w.Sync()
	}
	if err != nil {
		abort(w)
		return err
	}
	if err = w.Close(); err != nil {
		return err
	}
	written = enc.Written()

	if s.opts.catalog == nil {
		return nil
	}
	entry := catalog.Entry{
		Name:      name,
		Container: enc.Descriptor().Container,
		Count:     len(enc.Records()),
		Records:   summarize(enc.Records()),
		Size:      written,
		Checksum:  crc.Sum32(),
		CreatedAt: s.opts.now().UTC(),
	}
	if err = s.opts.catalog.Put(ctx, entry); err != nil {
		return fmt.Errorf("matio: %s saved but not cataloged: %w", name, err)
	}
	return nil
}

func abort(w blobstore.WritableBlob) {
	if a, ok := w.(blobstore.Aborter); ok {
		_ = a.Abort()
		return
	}
	_ = w.Close()
}

func summarize(infos []persistence.RecordInfo) []catalog.RecordSummary {
	out := make([]catalog.RecordSummary, len(infos))
	for i, info := range infos {
		out[i] = catalog.RecordSummary{
			Kind:        info.Kind.String(),
			Dims:        info.Dims,
			Compression: info.Compression.String(),
			PayloadSize: info.PayloadSize,
		}
	}
	return out
}

func (s *Store) load(ctx context.Context, name string, fn func(r io.Reader, size int64) (int, error)) (err error) {
	start := time.Now()
	var (
		count int
		size  int64
	)
	defer func() {
		if err != nil {
			count, size = 0, 0
		}
		elapsed := time.Since(start)
		s.opts.metricsCollector.RecordLoad(count, size, elapsed, err)
		s.opts.logger.LogLoad(ctx, name, count, elapsed, err)
	}()

	b, err := s.bs.Open(ctx, name)
	if err != nil {
		return err
	}
	defer b.Close()

	size = b.Size()
	r := resource.NewRateLimitedReader(ctx, blobstore.NewReader(ctx, b), s.opts.resources)
	count, err = fn(r, size)
	return err
}

// LoadAny reads a single-matrix blob without fixing the element kind.
func (s *Store) LoadAny(ctx context.Context, name string) (matrix.Any, error) {
	var m matrix.Any
	err := s.load(ctx, name, func(r io.Reader, size int64) (int, error) {
		var err error
		m, err = persistence.ReadMatrix(r, size)
		return 1, err
	})
	return m, err
}

// LoadMatrices reads every matrix of a container blob in save order, with
// the same flatten semantics as Codec.LoadMatrices.
func (s *Store) LoadMatrices(ctx context.Context, name string, flatten bool) ([]matrix.Any, error) {
	var ms []matrix.Any
	err := s.load(ctx, name, func(r io.Reader, size int64) (int, error) {
		var err error
		ms, err = persistence.ReadMatrices(r, size, flatten)
		return len(ms), err
	})
	return ms, err
}

// HasMultipleMatrices reads only the leading descriptor of name, which for
// remote stores is a single ranged read of at most 16 bytes.
func (s *Store) HasMultipleMatrices(ctx context.Context, name string) (multi bool, err error) {
	start := time.Now()
	defer func() { s.opts.metricsCollector.RecordProbe(time.Since(start), err) }()

	b, err := s.bs.Open(ctx, name)
	if err != nil {
		return false, err
	}
	defer b.Close()

	buf := make([]byte, min(int64(persistence.DescriptorSize), b.Size()))
	n, err := b.ReadAt(ctx, buf, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	d, err := persistence.ParseDescriptor(buf[:n])
	if err != nil {
		return false, err
	}
	return d.Multiple(), nil
}

// Inspect reads every record header of name, skipping values.
func (s *Store) Inspect(ctx context.Context, name string) (FileInfo, error) {
	info := FileInfo{Path: name}
	err := s.load(ctx, name, func(r io.Reader, size int64) (int, error) {
		info.Size = size
		desc, records, err := persistence.ReadInfo(r, size)
		info.Container = desc.Container
		info.Records = records
		return 0, err
	})
	return info, err
}

// LoadStoreMatrix loads a single-matrix blob of element type T.
func LoadStoreMatrix[T matrix.Element](ctx context.Context, s *Store, name string) (*matrix.Matrix[T], error) {
	a, err := s.LoadAny(ctx, name)
	if err != nil {
		return nil, err
	}
	return asKind[T](name, a)
}
