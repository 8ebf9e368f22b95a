package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalPhotoStore writes named photo buffers under a base directory. It is
// the on-disk implementation of the catalog's photo sink; generated names
// are unique per upload so concurrent writes never collide.
type LocalPhotoStore struct {
	dir string
}

// NewLocalPhotoStore creates the base directory if needed.
func NewLocalPhotoStore(dir string) (*LocalPhotoStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	return &LocalPhotoStore{dir: dir}, nil
}

// Save writes one named buffer. The name is flattened to its base so a
// crafted filename cannot escape the upload directory.
func (s *LocalPhotoStore) Save(_ context.Context, name string, data []byte) error {
	path := filepath.Join(s.dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write photo %s: %w", name, err)
	}
	return nil
}
