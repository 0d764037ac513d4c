// Package cache keeps a per-run mirror of which files already exist at
// the archive paths a batch of candidates will touch, so repeated
// lookups never hit the external store twice.
package cache

import (
	"context"
	"errors"

	"github.com/mholdt/mail-archiver/store"
)

// entry mirrors one archive path. A known path with an empty folder
// handle means the folder does not exist in the store yet.
type entry struct {
	folder string
	files  map[string]string
}

// Cache is owned by exactly one run and discarded afterwards.
type Cache struct {
	store   store.Store
	entries map[string]*entry
}

func New(s store.Store) *Cache {
	return &Cache{
		store:   s,
		entries: make(map[string]*entry),
	}
}

// Preload resolves every path not yet cached and lists its files. A
// path that does not exist in the store is recorded as an empty entry:
// absence of a folder just means nothing was archived there yet.
// Preloading is restricted to the paths the current batch actually
// needs, which bounds store I/O to the number of distinct paths
// touched.
func (c *Cache) Preload(ctx context.Context, paths []string) error {
	for _, path := range paths {
		if _, ok := c.entries[path]; ok {
			continue
		}

		e := &entry{files: make(map[string]string)}

		folder, err := c.store.ResolveFolder(ctx, path)
		if errors.Is(err, store.ErrNotFound) {
			c.entries[path] = e
			continue
		}
		if err != nil {
			return err
		}

		files, err := c.store.ListFiles(ctx, folder)
		if err != nil {
			return err
		}

		e.folder = folder
		for _, f := range files {
			e.files[f.Name] = f.Handle
		}
		c.entries[path] = e
	}
	return nil
}

// Lookup reports whether a file of the given name is known at path and
// returns its handle.
func (c *Cache) Lookup(path, name string) (string, bool) {
	e, ok := c.entries[path]
	if !ok {
		return "", false
	}
	handle, ok := e.files[name]
	return handle, ok
}

// Record inserts or overwrites a file entry after a successful write so
// later candidates in the same run see it without a store round-trip.
func (c *Cache) Record(path, name, handle string) {
	e, ok := c.entries[path]
	if !ok {
		e = &entry{files: make(map[string]string)}
		c.entries[path] = e
	}
	e.files[name] = handle
}

// Forget drops a file entry, used when a trashed file is not replaced.
func (c *Cache) Forget(path, name string) {
	if e, ok := c.entries[path]; ok {
		delete(e.files, name)
	}
}

// Folder returns the cached folder handle for path. The second result
// is false when the folder is not known to exist in the store.
func (c *Cache) Folder(path string) (string, bool) {
	e, ok := c.entries[path]
	if !ok || e.folder == "" {
		return "", false
	}
	return e.folder, true
}

// SetFolder records a folder handle after the run created the folder.
func (c *Cache) SetFolder(path, handle string) {
	e, ok := c.entries[path]
	if !ok {
		e = &entry{files: make(map[string]string)}
		c.entries[path] = e
	}
	e.folder = handle
}
