package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore keeps thumbnails in a local directory. The directory is meant to
// be served under baseURL.
type DiskStore struct {
	dir     string
	baseURL string
}

// NewDiskStore creates dir if needed.
func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create thumbnail dir: %w", err)
	}
	return &DiskStore{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Dir returns the directory files are written to.
func (s *DiskStore) Dir() string {
	return s.dir
}

func (s *DiskStore) Store(ctx context.Context, filename string, content []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := newKey(filename, contentType)
	f, err := os.OpenFile(filepath.Join(s.dir, key), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	_, err = f.Write(content)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(filepath.Join(s.dir, key))
		return "", err
	}
	return key, nil
}

func (s *DiskStore) URL(key string) string {
	return s.baseURL + "/" + escapeKey(key)
}
