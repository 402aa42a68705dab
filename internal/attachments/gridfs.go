package attachments

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tbourn/go-time-vault/internal/domain"
)

// GridFS stores attachments in a MongoDB GridFS bucket under
// "<owner>/<filename>". URLs end with "<owner>/<hex object id>".
type GridFS struct {
	Bucket  *gridfs.Bucket
	BaseURL string
}

// ConnectGridFS dials uri, verifies the connection and opens bucket in
// database. The returned client must be disconnected by the caller.
func ConnectGridFS(ctx context.Context, uri, database, bucket, baseURL string) (*GridFS, *mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongodb: %w", err)
	}

	b, err := gridfs.NewBucket(client.Database(database), options.GridFSBucket().SetName(bucket))
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("open gridfs bucket: %w", err)
	}
	return &GridFS{Bucket: b, BaseURL: baseURL}, client, nil
}

// Put uploads data as "<owner>/<filename>" with owner and MIME metadata. The
// driver's streams take no context, so ctx's deadline is applied as the
// stream's write deadline. A stream that fails part way is aborted.
func (g *GridFS) Put(ctx context.Context, ownerID, filename string, data []byte, mimeType string) (string, error) {
	owner, err := sanitizeComponent(ownerID)
	if err != nil {
		return "", uploadFailed("gridfs put", fmt.Errorf("owner: %w", err))
	}
	name, err := sanitizeComponent(filename)
	if err != nil {
		return "", uploadFailed("gridfs put", fmt.Errorf("filename: %w", err))
	}
	if err := ctx.Err(); err != nil {
		return "", uploadFailed("gridfs put", err)
	}

	opts := options.GridFSUpload().SetMetadata(bson.M{
		"mime_type":   mimeType,
		"uploaded_by": owner,
		"uploaded_at": time.Now().UTC(),
	})
	us, err := g.Bucket.OpenUploadStream(owner+"/"+name, opts)
	if err != nil {
		return "", uploadFailed("gridfs open upload", err)
	}
	if dl, ok := ctx.Deadline(); ok {
		if err := us.SetWriteDeadline(dl); err != nil {
			_ = us.Abort()
			return "", uploadFailed("gridfs write deadline", err)
		}
	}
	if _, err := us.Write(data); err != nil {
		_ = us.Abort()
		return "", uploadFailed("gridfs write", err)
	}
	if err := ctx.Err(); err != nil {
		_ = us.Abort()
		return "", uploadFailed("gridfs put", err)
	}
	if err := us.Close(); err != nil {
		return "", uploadFailed("gridfs close", err)
	}

	oid, ok := us.FileID.(primitive.ObjectID)
	if !ok {
		return "", uploadFailed("gridfs put", fmt.Errorf("unexpected file id %v", us.FileID))
	}
	return joinURL(g.BaseURL, url.PathEscape(owner), oid.Hex()), nil
}

// Open downloads the file addressed by key "<owner>/<object id>". A key whose
// owner does not match the stored file is reported as missing. ctx's deadline
// bounds reads from the returned stream.
func (g *GridFS) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	owner, hex, ok := strings.Cut(strings.Trim(key, "/"), "/")
	if !ok {
		return nil, "", fmt.Errorf("gridfs open %q: %w", key, domain.ErrNotFound)
	}
	oid, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return nil, "", fmt.Errorf("gridfs open %q: %w", key, domain.ErrNotFound)
	}
	if _, err := sanitizeComponent(owner); err != nil {
		return nil, "", fmt.Errorf("gridfs open %q: %w", key, domain.ErrNotFound)
	}
	if err := ctx.Err(); err != nil {
		return nil, "", fmt.Errorf("gridfs open: %w: %w", domain.ErrUnavailable, err)
	}

	stream, err := g.Bucket.OpenDownloadStream(oid)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, "", fmt.Errorf("gridfs open %q: %w", key, domain.ErrNotFound)
		}
		return nil, "", fmt.Errorf("gridfs open: %w: %w", domain.ErrUnavailable, err)
	}
	f := stream.GetFile()
	if f == nil || !strings.HasPrefix(f.Name, owner+"/") {
		_ = stream.Close()
		return nil, "", fmt.Errorf("gridfs open %q: %w", key, domain.ErrNotFound)
	}
	if dl, ok := ctx.Deadline(); ok {
		if err := stream.SetReadDeadline(dl); err != nil {
			_ = stream.Close()
			return nil, "", fmt.Errorf("gridfs read deadline: %w: %w", domain.ErrUnavailable, err)
		}
	}

	mimeType := "application/octet-stream"
	if f.Metadata != nil {
		var meta bson.M
		if err := bson.Unmarshal(f.Metadata, &meta); err == nil {
			if s, ok := meta["mime_type"].(string); ok && s != "" {
				mimeType = s
			}
		}
	}
	return stream, mimeType, nil
}
