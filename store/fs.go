package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// trashDirName is where trashed files are moved, below the root.
const trashDirName = ".trash"

// FS implements Store on the local file system. Handles are absolute
// paths below the configured root.
type FS struct {
	root string
}

// NewFS creates a filesystem store rooted at dir, creating the root if
// it does not exist yet.
func NewFS(dir string) (*FS, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("store: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("store: create root: %w", err)
	}
	return &FS{root: abs}, nil
}

// safePath resolves a relative archive path against the root and
// rejects any result that escapes it.
func (f *FS) safePath(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("store: absolute paths not allowed: %s", rel)
	}
	abs, err := filepath.Abs(filepath.Join(f.root, cleaned))
	if err != nil {
		return "", fmt.Errorf("store: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("store: path escapes archive root: %s", rel)
	}
	return abs, nil
}

func (f *FS) ResolveFolder(ctx context.Context, path string) (string, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("store: stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("store: %s exists but is not a folder", path)
	}
	return abs, nil
}

func (f *FS) CreateFolder(ctx context.Context, parent, name string) (string, error) {
	abs := filepath.Join(parent, name)
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", fmt.Errorf("store: create folder %s: %w", name, err)
	}
	return abs, nil
}

func (f *FS) ListFiles(ctx context.Context, folder string) ([]FileInfo, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("store: list %s: %w", folder, err)
	}
	var out []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		out = append(out, FileInfo{
			Name:   e.Name(),
			Handle: filepath.Join(folder, e.Name()),
		})
	}
	return out, nil
}

// CreateFile writes atomically: tmp file → fsync → rename.
func (f *FS) CreateFile(ctx context.Context, folder, name string, data []byte) (string, error) {
	abs := filepath.Join(folder, name)

	tmp, err := os.CreateTemp(folder, ".archive-tmp-*")
	if err != nil {
		return "", fmt.Errorf("store: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return "", fmt.Errorf("store: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return "", fmt.Errorf("store: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("store: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return "", fmt.Errorf("store: rename: %w", err)
	}
	success = true
	return abs, nil
}

func (f *FS) SetModifiedTime(ctx context.Context, handle string, ts time.Time) error {
	if err := os.Chtimes(handle, ts, ts); err != nil {
		return fmt.Errorf("store: set mtime: %w", err)
	}
	return nil
}

// Trash moves the file into .trash below the root, prefixed with a
// nanosecond timestamp so repeated trashing of same-named files never
// collides.
func (f *FS) Trash(ctx context.Context, handle string) error {
	trashDir := filepath.Join(f.root, trashDirName)
	if err := os.MkdirAll(trashDir, 0o755); err != nil {
		return fmt.Errorf("store: create trash dir: %w", err)
	}
	target := filepath.Join(trashDir, fmt.Sprintf("%d-%s", time.Now().UnixNano(), filepath.Base(handle)))
	if err := os.Rename(handle, target); err != nil {
		return fmt.Errorf("store: trash %s: %w", handle, err)
	}
	return nil
}
