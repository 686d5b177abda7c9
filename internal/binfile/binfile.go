// Package binfile implements the binary-file table spec.md §4.5
// describes: entries keyed by (path, file type), loaded from the
// filesystem in parallel before the builder's Build phase begins
// (spec.md §5: "the core may perform those reads in parallel but must
// complete them all before build begins"). Grounded on the corpus's
// use of golang.org/x/sync/errgroup for bounded parallel I/O.
package binfile

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/astro8/yabal/internal/symbols"
)

// Key identifies one binary-file table entry.
type Key struct {
	Path     string
	FileType string
}

// Entry is one pending or loaded binary file embed. Sym is the pool
// pointer the linker marks at the entry's position in the binary pool;
// it is nil until the builder assigns one on first Request.
type Entry struct {
	Key  Key
	Data []byte
	Sym  *symbols.Pointer
}

// Table loads and stores binary-file blobs, deduplicated by Key.
type Table struct {
	entries map[Key]*Entry
	order   []Key
}

// NewTable returns an empty binary-file table.
func NewTable() *Table {
	return &Table{entries: make(map[Key]*Entry)}
}

// Request registers path/fileType for loading, returning the (possibly
// already-registered) entry. Load must be called before reading Data.
func (t *Table) Request(path, fileType string) *Entry {
	k := Key{Path: path, FileType: fileType}
	if e, ok := t.entries[k]; ok {
		return e
	}
	e := &Entry{Key: k}
	t.entries[k] = e
	t.order = append(t.order, k)
	return e
}

// Keys returns every registered key in first-request order.
func (t *Table) Keys() []Key {
	out := make([]Key, len(t.order))
	copy(out, t.order)
	return out
}

// Entry looks up a previously requested entry.
func (t *Table) Entry(k Key) (*Entry, bool) {
	e, ok := t.entries[k]
	return e, ok
}

// Load reads every registered file in parallel, bounded by ctx, and
// fails fast on the first read error — spec.md §5: all blob loads
// complete before emission begins, or the build is aborted.
func (t *Table) Load(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, k := range t.order {
		k := k
		e := t.entries[k]
		g.Go(func() error {
			data, err := os.ReadFile(k.Path)
			if err != nil {
				return errors.Wrapf(err, "loading binary file %q", k.Path)
			}
			e.Data = data
			return nil
		})
	}
	return g.Wait()
}
