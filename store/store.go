// Package store abstracts the hierarchical file store the archiver
// writes into. Handles are opaque, store-specific identifiers; callers
// never inspect their shape.
package store

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound signals that a folder does not exist yet. On first runs
// that is the expected steady state, not a failure.
var ErrNotFound = errors.New("store: not found")

// FileInfo describes one file inside a folder.
type FileInfo struct {
	Name   string
	Handle string
}

// Store is the archive target. All implementations are used by a
// single sequential run; none need to be safe for concurrent use.
type Store interface {
	// ResolveFolder returns the handle of the folder at the given
	// slash-separated path below the root, or ErrNotFound. An empty
	// path resolves to the root itself.
	ResolveFolder(ctx context.Context, path string) (string, error)
	// CreateFolder creates a single child folder under parent.
	CreateFolder(ctx context.Context, parent, name string) (string, error)
	// ListFiles returns the files (not folders) inside a folder.
	ListFiles(ctx context.Context, folder string) ([]FileInfo, error)
	// CreateFile writes a new file and returns its handle.
	CreateFile(ctx context.Context, folder, name string, data []byte) (string, error)
	// SetModifiedTime stamps a file with the message receipt time.
	SetModifiedTime(ctx context.Context, handle string, ts time.Time) error
	// Trash removes a file so a replacement can take its name. The
	// file is recoverable by the operator, not destroyed.
	Trash(ctx context.Context, handle string) error
}

// EnsureFolder resolves path below the root, creating any missing
// segments, and returns the handle of the final folder.
func EnsureFolder(ctx context.Context, s Store, path string) (string, error) {
	handle, err := s.ResolveFolder(ctx, path)
	if err == nil {
		return handle, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return "", err
	}

	parentPath := ""
	name := path
	if i := strings.LastIndex(path, "/"); i >= 0 {
		parentPath, name = path[:i], path[i+1:]
	}

	parent, err := EnsureFolder(ctx, s, parentPath)
	if err != nil {
		return "", err
	}
	return s.CreateFolder(ctx, parent, name)
}
