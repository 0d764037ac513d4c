package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/mholdt/mail-archiver/store"
)

// countingStore is an in-memory store that counts resolve/list calls.
type countingStore struct {
	folders  map[string][]store.FileInfo
	resolves int
	lists    int
}

func newCountingStore() *countingStore {
	return &countingStore{folders: make(map[string][]store.FileInfo)}
}

func (s *countingStore) ResolveFolder(ctx context.Context, path string) (string, error) {
	s.resolves++
	if _, ok := s.folders[path]; !ok {
		return "", store.ErrNotFound
	}
	return "folder:" + path, nil
}

func (s *countingStore) CreateFolder(ctx context.Context, parent, name string) (string, error) {
	return parent + "/" + name, nil
}

func (s *countingStore) ListFiles(ctx context.Context, folder string) ([]store.FileInfo, error) {
	s.lists++
	path := folder[len("folder:"):]
	return s.folders[path], nil
}

func (s *countingStore) CreateFile(ctx context.Context, folder, name string, data []byte) (string, error) {
	return fmt.Sprintf("file:%s/%s", folder, name), nil
}

func (s *countingStore) SetModifiedTime(ctx context.Context, handle string, ts time.Time) error {
	return nil
}

func (s *countingStore) Trash(ctx context.Context, handle string) error { return nil }

func TestPreload_MissingFolderIsEmptyEntry(t *testing.T) {
	s := newCountingStore()
	c := New(s)

	if err := c.Preload(context.Background(), []string{"2025/03"}); err != nil {
		t.Fatalf("Preload() error = %v", err)
	}

	if _, ok := c.Lookup("2025/03", "anything.eml"); ok {
		t.Error("Lookup() found a file in a folder that does not exist")
	}
	if _, ok := c.Folder("2025/03"); ok {
		t.Error("Folder() reported a handle for a missing folder")
	}
}

func TestPreload_ListsExistingFolderOnce(t *testing.T) {
	s := newCountingStore()
	s.folders["2025/03"] = []store.FileInfo{
		{Name: "a.eml", Handle: "h-a"},
		{Name: "b.eml", Handle: "h-b"},
	}
	c := New(s)

	if err := c.Preload(context.Background(), []string{"2025/03"}); err != nil {
		t.Fatalf("Preload() error = %v", err)
	}

	handle, ok := c.Lookup("2025/03", "a.eml")
	if !ok || handle != "h-a" {
		t.Errorf("Lookup(a.eml) = %q, %v; want h-a, true", handle, ok)
	}

	// A second preload of the same path must not touch the store.
	if err := c.Preload(context.Background(), []string{"2025/03"}); err != nil {
		t.Fatalf("Preload() error = %v", err)
	}
	if s.resolves != 1 || s.lists != 1 {
		t.Errorf("store touched %d resolves / %d lists, want 1 / 1", s.resolves, s.lists)
	}
}

func TestRecord_VisibleWithoutStoreQuery(t *testing.T) {
	s := newCountingStore()
	c := New(s)

	if err := c.Preload(context.Background(), []string{"2025"}); err != nil {
		t.Fatalf("Preload() error = %v", err)
	}

	c.Record("2025", "new.eml", "h-new")

	queriesBefore := s.resolves + s.lists
	handle, ok := c.Lookup("2025", "new.eml")
	if !ok || handle != "h-new" {
		t.Errorf("Lookup() = %q, %v; want h-new, true", handle, ok)
	}
	if s.resolves+s.lists != queriesBefore {
		t.Error("Lookup() after Record() hit the store")
	}
}

func TestSetFolder(t *testing.T) {
	c := New(newCountingStore())

	c.SetFolder("2025/03", "created-handle")
	handle, ok := c.Folder("2025/03")
	if !ok || handle != "created-handle" {
		t.Errorf("Folder() = %q, %v; want created-handle, true", handle, ok)
	}
}

func TestForget(t *testing.T) {
	c := New(newCountingStore())
	c.Record("2025", "a.eml", "h-a")
	c.Forget("2025", "a.eml")
	if _, ok := c.Lookup("2025", "a.eml"); ok {
		t.Error("Lookup() found a forgotten entry")
	}
}
