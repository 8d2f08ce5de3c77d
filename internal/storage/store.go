// Package storage holds uploaded lesson and profile files. Every backend
// returns a public URL from Store and accepts that same URL in Delete.
package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"lms-backend/internal/config"
)

// FileStore stores bytes and deletes them again by URL. Delete must return
// nil for files that are already gone and for URLs the store does not own.
type FileStore interface {
	Store(ctx context.Context, r io.Reader, size int64, contentType, filename string) (string, error)
	Delete(ctx context.Context, url string) error
}

// NewFromConfig creates a FileStore based on cfg.StorageType.
func NewFromConfig(ctx context.Context, cfg *config.Config) (FileStore, error) {
	switch cfg.StorageType {
	case "local", "":
		return NewLocalStore(cfg.StoragePath, cfg.StoragePublicURL)
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("s3 storage requires S3_BUCKET to be set")
		}
		return NewS3Store(ctx, S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		})
	case "memory":
		return NewMemoryStore("/files"), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.StorageType)
	}
}

// objectKey builds "2006/01/02/<uuid><ext>" so keys never collide and
// original filenames never reach the filesystem.
func objectKey(now time.Time, contentType, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
			ext = exts[0]
		}
	}
	return now.UTC().Format("2006/01/02") + "/" + uuid.NewString() + ext
}

// keyFromURL strips base from url. ok is false for URLs outside base.
func keyFromURL(base, url string) (string, bool) {
	base = strings.TrimSuffix(base, "/") + "/"
	if !strings.HasPrefix(url, base) {
		return "", false
	}
	key := strings.TrimPrefix(url, base)
	if key == "" || strings.Contains(key, "..") {
		return "", false
	}
	return key, true
}

func joinURL(base, key string) string {
	return strings.TrimSuffix(base, "/") + "/" + key
}
