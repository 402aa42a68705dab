// Package attachments stores the media files that may accompany a message.
//
// A Store accepts the bytes of one file and returns a durable URL from which
// the file can later be fetched. Keys are namespaced by owner so two users
// uploading the same filename never collide.
package attachments

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tbourn/go-time-vault/internal/domain"
)

// Store is the blob storage contract used by the vault service and the
// attachment download handler.
type Store interface {
	// Put durably stores data for ownerID under filename and returns its
	// fetch URL. Failures wrap domain.ErrUploadFailed.
	Put(ctx context.Context, ownerID, filename string, data []byte, mimeType string) (string, error)

	// Open returns the blob addressed by key (the path part of a URL returned
	// by Put, relative to the base URL) and its MIME type. A missing blob
	// wraps domain.ErrNotFound.
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
}

var errBadComponent = errors.New("invalid path component")

// sanitizeComponent rejects anything that could escape its directory.
func sanitizeComponent(v string) (string, error) {
	if strings.ContainsAny(v, "/\\\x00") || strings.Contains(v, "..") {
		return "", errBadComponent
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return "", errBadComponent
	}
	return v, nil
}

// joinURL appends path segments to base with a single slash between them.
func joinURL(base string, parts ...string) string {
	return strings.TrimRight(base, "/") + "/" + strings.Join(parts, "/")
}

func uploadFailed(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrUploadFailed, err)
}
