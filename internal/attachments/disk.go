package attachments

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/tbourn/go-time-vault/internal/domain"
)

// Disk keeps attachments under Dir as <owner>/<filename>.
type Disk struct {
	Dir     string
	BaseURL string
}

// NewDisk creates dir if needed and returns a disk-backed store whose URLs
// start with baseURL.
func NewDisk(dir, baseURL string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Disk{Dir: dir, BaseURL: baseURL}, nil
}

// Put writes through a temp file in the destination directory and renames it
// into place, so readers never observe a partial blob.
func (d *Disk) Put(ctx context.Context, ownerID, filename string, data []byte, _ string) (string, error) {
	owner, err := sanitizeComponent(ownerID)
	if err != nil {
		return "", uploadFailed("disk put", fmt.Errorf("owner: %w", err))
	}
	name, err := sanitizeComponent(filename)
	if err != nil {
		return "", uploadFailed("disk put", fmt.Errorf("filename: %w", err))
	}
	if err := ctx.Err(); err != nil {
		return "", uploadFailed("disk put", err)
	}

	dir := filepath.Join(d.Dir, owner)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", uploadFailed("disk mkdir", err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", uploadFailed("disk create", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", uploadFailed("disk write", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", uploadFailed("disk sync", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", uploadFailed("disk close", err)
	}
	if err := ctx.Err(); err != nil {
		cleanup()
		return "", uploadFailed("disk put", err)
	}
	if err := os.Rename(tmpName, filepath.Join(dir, name)); err != nil {
		cleanup()
		return "", uploadFailed("disk rename", err)
	}

	return joinURL(d.BaseURL, url.PathEscape(owner), url.PathEscape(name)), nil
}

// Open resolves key "<owner>/<filename>". The key is already path-decoded
// (as gin's c.Param returns it) and is used literally. The MIME type is
// sniffed from the stored bytes.
func (d *Disk) Open(_ context.Context, key string) (io.ReadCloser, string, error) {
	owner, name, ok := strings.Cut(strings.TrimPrefix(key, "/"), "/")
	if !ok {
		return nil, "", fmt.Errorf("disk open %q: %w", key, domain.ErrNotFound)
	}
	if _, err := sanitizeComponent(owner); err != nil {
		return nil, "", fmt.Errorf("disk open %q: %w", key, domain.ErrNotFound)
	}
	if _, err := sanitizeComponent(name); err != nil || strings.HasPrefix(name, ".upload-") {
		return nil, "", fmt.Errorf("disk open %q: %w", key, domain.ErrNotFound)
	}

	path := filepath.Join(d.Dir, owner, name)
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", fmt.Errorf("disk open %q: %w", key, domain.ErrNotFound)
		}
		return nil, "", fmt.Errorf("disk open %q: %w: %w", key, domain.ErrUnavailable, err)
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", fmt.Errorf("disk open %q: %w", key, domain.ErrNotFound)
		}
		return nil, "", fmt.Errorf("disk open %q: %w: %w", key, domain.ErrUnavailable, err)
	}
	return f, mt.String(), nil
}
