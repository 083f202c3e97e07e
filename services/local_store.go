package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kendall-kelly/fieldservice-api/utils"
)

// LocalStore keeps objects on the local filesystem. Keys are flattened to
// their base name, which is unique because document keys embed a UUID.
type LocalStore struct {
	dir string
}

// NewLocalStore creates a store rooted at dir
func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{dir: dir}
}

// Dir returns the directory objects are written to
func (s *LocalStore) Dir() string {
	return s.dir
}

// PutObject writes body to disk
func (s *LocalStore) PutObject(_ context.Context, key, _ string, body io.Reader) error {
	return utils.SaveFile(body, s.dir, filepath.Base(key))
}

// ObjectURL returns the API path that serves the file
func (s *LocalStore) ObjectURL(_ context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	return utils.LocalFileURL(filepath.Base(key)), nil
}

// DeleteObject removes the file; a missing file is not an error
func (s *LocalStore) DeleteObject(_ context.Context, key string) error {
	if key == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, filepath.Base(key)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete local file: %w", err)
	}
	return nil
}
