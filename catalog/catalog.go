// Package catalog records what has been saved to a blob store: one Entry
// per matrix file with its record summaries, size and checksum.
//
// matio.Store writes an entry after every successful save when a Catalog
// is attached with matio.WithCatalog.
package catalog

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

// ErrNotFound is returned by Get for unknown names.
var ErrNotFound = errors.New("catalog: entry not found")

// RecordSummary describes one record of a saved file.
type RecordSummary struct {
	Kind        string `json:"kind"`
	Dims        []int  `json:"dims"`
	Compression string `json:"compression"`
	PayloadSize int64  `json:"payload_size"`
}

// Entry describes one saved matrix file.
type Entry struct {
	Name      string          `json:"name"`
	Container bool            `json:"container"`
	Count     int             `json:"count"`
	Records   []RecordSummary `json:"records"`
	Size      int64           `json:"size"`
	Checksum  uint32          `json:"checksum"` // CRC32C of the whole file
	CreatedAt time.Time       `json:"created_at"`
}

// Catalog stores entries keyed by name. Put replaces an existing entry.
type Catalog interface {
	Put(ctx context.Context, e Entry) error
	Get(ctx context.Context, name string) (Entry, error)
	List(ctx context.Context, prefix string) ([]Entry, error)
}

// MemoryCatalog is an in-process Catalog.
type MemoryCatalog struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

var _ Catalog = (*MemoryCatalog)(nil)

// NewMemoryCatalog returns an empty catalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{entries: make(map[string]Entry)}
}

func (c *MemoryCatalog) Put(_ context.Context, e Entry) error {
	if e.Name == "" {
		return errors.New("catalog: empty entry name")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[e.Name] = e
	return nil
}

func (c *MemoryCatalog) Get(_ context.Context, name string) (Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[name]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

// List returns entries sorted by name.
func (c *MemoryCatalog) List(_ context.Context, prefix string) ([]Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []Entry
	for name, e := range c.entries {
		if strings.HasPrefix(name, prefix) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
