package matio

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/hupe1980/matio/matrix"
	"github.com/hupe1980/matio/persistence"
	"github.com/hupe1980/matio/resource"
	"golang.org/x/sync/errgroup"
)

// Codec saves and loads matrix files on the local file system.
// A Codec is safe for concurrent use.
type Codec struct {
	opts options
}

// New creates a Codec.
func New(optFns ...Option) *Codec {
	return &Codec{opts: applyOptions(optFns)}
}

var defaultCodec = New()

// FileInfo describes a matrix file without its values.
type FileInfo struct {
	Path      string
	Size      int64
	Container bool
	Records   []persistence.RecordInfo
}

// SaveMatrix writes m as a single-matrix file, replacing path atomically.
func (c *Codec) SaveMatrix(path string, m matrix.Any) error {
	if m == nil {
		return ErrNilMatrix
	}
	return c.save(context.Background(), path, 1, func(enc *persistence.Encoder) error {
		return enc.WriteRecord(m)
	})
}

// SaveMatrices writes ms, in order, as one container file.
func (c *Codec) SaveMatrices(path string, ms []matrix.Any) error {
	if len(ms) == 0 {
		return ErrEmpty
	}
	return c.save(context.Background(), path, len(ms), func(enc *persistence.Encoder) error {
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

func (c *Codec) save(ctx context.Context, path string, count int, fn func(*persistence.Encoder) error) error {
	start := time.Now()
	var written int64
	err := persistence.SaveToFile(c.opts.fsys, path, c.opts.sync, func(w io.Writer) error {
		enc := persistence.NewEncoder(resource.NewRateLimitedWriter(ctx, w, c.opts.resources), c.opts.compression)
		if err := fn(enc); err != nil {
			return err
		}
		written = enc.Written()
		return nil
	})
	if err != nil {
		written = 0
	}
	elapsed := time.Since(start)
	c.opts.metricsCollector.RecordSave(count, written, elapsed, err)
	c.opts.logger.LogSave(ctx, path, count, written, elapsed, err)
	return err
}

// LoadAny reads a single-matrix file without fixing the element kind.
// A container holding exactly one record is accepted.
func (c *Codec) LoadAny(path string) (matrix.Any, error) {
	return c.loadAny(context.Background(), path)
}

func (c *Codec) loadAny(ctx context.Context, path string) (matrix.Any, error) {
	var m matrix.Any
	err := c.load(ctx, path, func(r io.Reader, size int64) (int, error) {
		var err error
		m, err = persistence.ReadMatrix(r, size)
		return 1, err
	})
	return m, err
}

// LoadMatrices reads every matrix of a container in save order. For a
// single-matrix file it returns a one-element slice when flatten is true and
// fails with ErrNotContainer otherwise.
func (c *Codec) LoadMatrices(path string, flatten bool) ([]matrix.Any, error) {
	var ms []matrix.Any
	err := c.load(context.Background(), path, func(r io.Reader, size int64) (int, error) {
		var err error
		ms, err = persistence.ReadMatrices(r, size, flatten)
		return len(ms), err
	})
	return ms, err
}

func (c *Codec) load(ctx context.Context, path string, fn func(r io.Reader, size int64) (int, error)) error {
	start := time.Now()
	var (
		count int
		size  int64
	)
	err := persistence.LoadFromFile(c.opts.fsys, path, func(r io.Reader, sz int64) error {
		size = sz
		var err error
		count, err = fn(resource.NewRateLimitedReader(ctx, r, c.opts.resources), sz)
		return err
	})
	if err != nil {
		count, size = 0, 0
	}
	elapsed := time.Since(start)
	c.opts.metricsCollector.RecordLoad(count, size, elapsed, err)
	c.opts.logger.LogLoad(ctx, path, count, elapsed, err)
	return err
}

// HasMultipleMatrices reports whether path holds more than one matrix. Only
// the leading descriptor (at most 16 bytes) is read.
func (c *Codec) HasMultipleMatrices(path string) (bool, error) {
	start := time.Now()
	d, err := persistence.ProbeFile(c.opts.fsys, path)
	c.opts.metricsCollector.RecordProbe(time.Since(start), err)
	if err != nil {
		return false, err
	}
	return d.Multiple(), nil
}

// Inspect reads every record header of path, skipping values.
func (c *Codec) Inspect(path string) (FileInfo, error) {
	info := FileInfo{Path: path}
	err := persistence.LoadFromFile(c.opts.fsys, path, func(r io.Reader, size int64) error {
		info.Size = size
		desc, records, err := persistence.ReadInfo(r, size)
		info.Container = desc.Container
		info.Records = records
		return err
	})
	return info, err
}

type pendingLoad struct {
	done     chan struct{}
	m        matrix.Any
	reserved int64
	err      error
}

// SaveMatrixFiles loads each source file and writes them, in order, into one
// container at path. Sources are loaded in parallel, bounded by
// WithConcurrency and by the memory budget of the resource controller, and
// each matrix is released once written. Every source must hold exactly one
// matrix.
func (c *Codec) SaveMatrixFiles(ctx context.Context, path string, sources []string) error {
	if len(sources) == 0 {
		return ErrEmpty
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rc := c.opts.resources
	pending := make([]*pendingLoad, len(sources))
	for i := range pending {
		pending[i] = &pendingLoad{done: make(chan struct{})}
	}

	var g errgroup.Group
	g.SetLimit(c.opts.concurrency)

	// Memory is reserved in source order, so the writer, which releases in
	// the same order, can always make progress.
	dispatched := make(chan struct{})
	go func() {
		defer close(dispatched)
		for i, src := range sources {
			p := pending[i]
			reserve := c.sizeHint(src)
			if err := rc.AcquireMemory(ctx, reserve); err != nil {
				p.err = err
				close(p.done)
				return
			}
			p.reserved = reserve
			g.Go(func() error {
				defer close(p.done)
				if err := ctx.Err(); err != nil {
					p.err = err
					return nil
				}
				m, err := c.loadAny(ctx, src)
				if err != nil {
					p.err = fmt.Errorf("source %s: %w", src, err)
					return nil
				}
				p.m = m
				return nil
			})
		}
	}()

	defer func() {
		cancel()
		<-dispatched
		_ = g.Wait()
		for _, p := range pending {
			rc.ReleaseMemory(p.reserved)
		}
	}()

	err := c.save(ctx, path, len(sources), func(enc *persistence.Encoder) error {
		if err := enc.WriteContainerHeader(len(sources)); err != nil {
			return err
		}
		for _, p := range pending {
			select {
			case <-p.done:
			case <-ctx.Done():
				return ctx.Err()
			}
			if p.err != nil {
				return p.err
			}
			if err := enc.WriteRecord(p.m); err != nil {
				return err
			}
			p.m = nil
			rc.ReleaseMemory(p.reserved)
			p.reserved = 0
		}
		return nil
	})
	c.opts.logger.LogConcat(ctx, path, len(sources), err)
	return err
}

// sizeHint estimates the memory a loaded source needs from its file size.
// Compressed sources may expand beyond it.
func (c *Codec) sizeHint(path string) int64 {
	fi, err := c.opts.fsys.Stat(path)
	if err != nil {
		return 0
	}
	return fi.Size()
}

// LoadMatrixWith loads a single-matrix file of element type T using c.
func LoadMatrixWith[T matrix.Element](c *Codec, path string) (*matrix.Matrix[T], error) {
	a, err := c.LoadAny(path)
	if err != nil {
		return nil, err
	}
	return asKind[T](path, a)
}

func asKind[T matrix.Element](path string, a matrix.Any) (*matrix.Matrix[T], error) {
	m, ok := a.(*matrix.Matrix[T])
	if !ok {
		return nil, &KindMismatchError{Path: path, Expected: matrix.KindOf[T](), Actual: a.Kind()}
	}
	return m, nil
}

// LoadMatrix loads a single-matrix file of element type T.
//
//	m, err := matio.LoadMatrix[int32]("labels.mat")
func LoadMatrix[T matrix.Element](path string, optFns ...Option) (*matrix.Matrix[T], error) {
	c := defaultCodec
	if len(optFns) > 0 {
		c = New(optFns...)
	}
	return LoadMatrixWith[T](c, path)
}

// SaveMatrix writes m to path with the default codec.
func SaveMatrix(path string, m matrix.Any) error {
	return defaultCodec.SaveMatrix(path, m)
}

// SaveMatrices writes ms to path with the default codec.
func SaveMatrices(path string, ms []matrix.Any) error {
	return defaultCodec.SaveMatrices(path, ms)
}

// SaveMatrixFiles concatenates sources into path with the default codec.
func SaveMatrixFiles(ctx context.Context, path string, sources []string) error {
	return defaultCodec.SaveMatrixFiles(ctx, path, sources)
}

// LoadMatrices reads a container with the default codec.
func LoadMatrices(path string, flatten bool) ([]matrix.Any, error) {
	return defaultCodec.LoadMatrices(path, flatten)
}

// HasMultipleMatrices probes path with the default codec.
func HasMultipleMatrices(path string) (bool, error) {
	return defaultCodec.HasMultipleMatrices(path)
}
