package persistence

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/hupe1980/matio/internal/fs"
)

// SaveToFile writes filename atomically. writeFunc fills a temp file in the
// same directory, which is renamed over filename only after every byte was
// written (and, when durable is set, synced). On failure the temp file is
// removed and filename is left untouched. A nil fsys means the local disk.
func SaveToFile(fsys fs.FileSystem, filename string, durable bool, writeFunc func(io.Writer) error) (err error) {
	if fsys == nil {
		fsys = fs.Default
	}
	dir := filepath.Dir(filename)
	base := filepath.Base(filename)

	tmp, err := fsys.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	closed := false
	defer func() {
		if !closed {
			_ = tmp.Close()
		}
		if tmpName != "" {
			_ = fsys.Remove(tmpName)
		}
	}()

	buf := bufio.NewWriterSize(tmp, 256*1024)
	if err := writeFunc(buf); err != nil {
		return err
	}
	if err := buf.Flush(); err != nil {
		return err
	}
	if durable {
		if err := tmp.Sync(); err != nil {
			return err
		}
	}
	closed = true
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := fsys.Rename(tmpName, filename); err != nil {
		return err
	}
	if durable {
		fs.SyncDir(fsys, dir)
	}

	tmpName = ""
	return nil
}

// LoadFromFile opens filename and passes a buffered reader and the file
// size to readFunc. The file is closed on every path.
func LoadFromFile(fsys fs.FileSystem, filename string, readFunc func(r io.Reader, size int64) error) error {
	if fsys == nil {
		fsys = fs.Default
	}
	f, err := fsys.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("open %s: %w", filename, ErrIsDir)
	}
	return readFunc(bufio.NewReaderSize(f, readBufferSize), info.Size())
}

// ProbeFile reads only the leading descriptor of filename.
func ProbeFile(fsys fs.FileSystem, filename string) (Descriptor, error) {
	if fsys == nil {
		fsys = fs.Default
	}
	f, err := fsys.Open(filename)
	if err != nil {
		return Descriptor{}, err
	}
	defer f.Close()
	return ProbeDescriptor(f)
}

// ErrIsDir is returned when a load path names a directory.
var ErrIsDir = errors.New("is a directory")
