// Package storage keeps photo and receipt bytes outside the report tables.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"p9e.in/sitelog/config"
)

var (
	ErrNotFound   = errors.New("blob not found")
	ErrInvalidKey = errors.New("invalid blob key")
)

// BlobStore is implemented by every PHOTO_STORAGE backend.
type BlobStore interface {
	Name() string
	Put(ctx context.Context, key, contentType string, r io.Reader) (int64, error)
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, key string) error
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// NewKey builds a collision-free key such as
// "photos/2025/03/5f0c...-front_wall.jpg" from an uploaded file name.
func NewKey(prefix, filename string, now time.Time) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	base = strings.Trim(unsafeChars.ReplaceAllString(base, "_"), "._")
	if base == "" {
		base = "file"
	}
	return fmt.Sprintf("%s/%s/%s-%s", prefix, now.Format("2006/01"), uuid.NewString(), base)
}

func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}

// New returns the backend selected by cfg.PhotoStorage.
func New(ctx context.Context, cfg config.Config, db *gorm.DB) (BlobStore, error) {
	switch cfg.PhotoStorage {
	case "", "local":
		return NewLocalStore(cfg.UploadDir)
	case "database":
		return NewDatabaseStore(db), nil
	case "gcs":
		return NewGCSStore(ctx, cfg.GCSBucket, cfg.GCSCredentialsFile)
	default:
		return nil, fmt.Errorf("unsupported PHOTO_STORAGE %q", cfg.PhotoStorage)
	}
}
