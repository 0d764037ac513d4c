package store

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const folderMimeType = "application/vnd.google-apps.folder"

// Drive implements Store against Google Drive. Handles are Drive file
// ids.
type Drive struct {
	svc    *drive.Service
	rootID string
}

// NewDrive creates a Drive store under the folder identified by
// rootID, authenticated with the given token source.
func NewDrive(ctx context.Context, ts oauth2.TokenSource, rootID string) (*Drive, error) {
	if rootID == "" {
		return nil, fmt.Errorf("store: drive root folder id is empty")
	}
	svc, err := drive.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("store: create drive service: %w", err)
	}
	return &Drive{svc: svc, rootID: rootID}, nil
}

// escapeQuery escapes a value for use inside a Drive q= string literal.
func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

func (d *Drive) childFolder(ctx context.Context, parent, name string) (string, error) {
	q := fmt.Sprintf("name = '%s' and '%s' in parents and mimeType = '%s' and trashed = false",
		escapeQuery(name), parent, folderMimeType)
	list, err := d.svc.Files.List().
		Q(q).
		Fields("files(id)").
		PageSize(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("store: drive lookup %q: %w", name, err)
	}
	if len(list.Files) == 0 {
		return "", ErrNotFound
	}
	return list.Files[0].Id, nil
}

func (d *Drive) ResolveFolder(ctx context.Context, path string) (string, error) {
	handle := d.rootID
	if path == "" {
		return handle, nil
	}
	for _, segment := range strings.Split(path, "/") {
		next, err := d.childFolder(ctx, handle, segment)
		if err != nil {
			return "", err
		}
		handle = next
	}
	return handle, nil
}

func (d *Drive) CreateFolder(ctx context.Context, parent, name string) (string, error) {
	f, err := d.svc.Files.Create(&drive.File{
		Name:     name,
		MimeType: folderMimeType,
		Parents:  []string{parent},
	}).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("store: drive create folder %q: %w", name, err)
	}
	return f.Id, nil
}

func (d *Drive) ListFiles(ctx context.Context, folder string) ([]FileInfo, error) {
	var out []FileInfo
	q := fmt.Sprintf("'%s' in parents and mimeType != '%s' and trashed = false", folder, folderMimeType)
	call := d.svc.Files.List().Q(q).Fields("nextPageToken, files(id, name)").PageSize(1000)

	pageToken := ""
	for {
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		list, err := call.Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("store: drive list folder: %w", err)
		}
		for _, f := range list.Files {
			out = append(out, FileInfo{Name: f.Name, Handle: f.Id})
		}
		pageToken = list.NextPageToken
		if pageToken == "" {
			return out, nil
		}
	}
}

func (d *Drive) CreateFile(ctx context.Context, folder, name string, data []byte) (string, error) {
	f, err := d.svc.Files.Create(&drive.File{
		Name:    name,
		Parents: []string{folder},
	}).Media(bytes.NewReader(data)).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("store: drive create file %q: %w", name, err)
	}
	return f.Id, nil
}

func (d *Drive) SetModifiedTime(ctx context.Context, handle string, ts time.Time) error {
	_, err := d.svc.Files.Update(handle, &drive.File{
		ModifiedTime: ts.Format(time.RFC3339),
	}).Fields("id").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("store: drive set mtime: %w", err)
	}
	return nil
}

func (d *Drive) Trash(ctx context.Context, handle string) error {
	_, err := d.svc.Files.Update(handle, &drive.File{
		Trashed: true,
	}).Fields("id").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("store: drive trash: %w", err)
	}
	return nil
}
