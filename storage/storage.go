// Package storage persists uploaded thumbnails and resolves the URL they are
// served from. Every stored file gets a fresh key; existing keys are never
// overwritten.
package storage

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/emzola/catalog/clients"
	"github.com/emzola/catalog/config"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// Store is implemented by every thumbnail backend.
type Store interface {
	Store(ctx context.Context, filename string, content []byte, contentType string) (string, error)
	URL(key string) string
}

// New returns the backend selected by cfg.Storage.Driver.
func New(ctx context.Context, cfg config.Config) (Store, error) {
	switch cfg.Storage.Driver {
	case config.StorageDisk:
		return NewDiskStore(cfg.Storage.Dir, cfg.Storage.BaseURL)
	case config.StorageS3:
		client, err := clients.NewS3Client(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return NewS3Store(client, cfg.S3.Bucket, cfg.S3.Region, cfg.S3.PublicURL), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// newKey builds a unique key. The extension comes from contentType when it is
// known, otherwise from filename reduced to lower-case letters and digits.
func newKey(filename, contentType string) string {
	if mtype := mimetype.Lookup(contentType); mtype != nil && mtype.Extension() != "" {
		return uuid.NewString() + mtype.Extension()
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filepath.Base(filename))), ".")
	if i := strings.IndexFunc(ext, func(r rune) bool {
		return (r < 'a' || r > 'z') && (r < '0' || r > '9')
	}); i >= 0 {
		ext = ext[:i]
	}
	if ext == "" {
		return uuid.NewString()
	}
	return uuid.NewString() + "." + ext
}

// escapeKey escapes every path segment of key for use in a URL.
func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i := range segments {
		segments[i] = url.PathEscape(segments[i])
	}
	return strings.Join(segments, "/")
}
