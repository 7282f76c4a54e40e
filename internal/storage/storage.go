// Package storage abstracts where uploaded media files live. The rest of
// the application only sees opaque keys; whether those resolve to a local
// directory or an S3 bucket is decided by configuration.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"chenil/internal/config"

	"github.com/google/uuid"
)

// Storage stores and retrieves uploaded files by key.
type Storage interface {
	Save(ctx context.Context, key, contentType string, data []byte) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	// PublicURL returns the URL under which a saved key is served.
	PublicURL(key string) string
}

// New returns the backend selected by STORAGE_BACKEND.
func New(cfg *config.Config) (Storage, error) {
	switch cfg.StorageBackend {
	case "", "local":
		return NewLocal(cfg.UploadDir)
	case "s3":
		return NewS3(cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// NewKey generates a date-partitioned storage key for an upload. The
// extension must include its leading dot or be empty.
func NewKey(ext string) string {
	d := time.Now()
	return fmt.Sprintf("%d/%02d/%02d/%s%s", d.Year(), d.Month(), d.Day(), uuid.New(), ext)
}

// validKey rejects keys that could escape the storage root. Keys are
// server-generated, but stored paths travel through the database and back.
func validKey(key string) error {
	if key == "" {
		return fmt.Errorf("empty storage key")
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return fmt.Errorf("invalid storage key %q", key)
	}
	if cleaned := path.Clean(key); cleaned != key || strings.HasPrefix(cleaned, "..") {
		return fmt.Errorf("invalid storage key %q", key)
	}
	return nil
}
