// Package imagestore persists beacon image uploads on the local
// filesystem. Each authenticated subject owns exactly one image slot;
// a new upload overwrites the previous one.
package imagestore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrImageNotFound is returned when the subject has never uploaded an
// image.
var ErrImageNotFound = errors.New("image not found")

// Store writes and reads per-subject image files under a base
// directory.
type Store struct {
	dir string
}

// New creates a store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating uploads directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save writes the image bytes for a subject, overwriting any previous
// upload. Returns the path the image was written to.
func (s *Store) Save(subject string, data []byte) (string, error) {
	path := s.Path(subject)
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return "", fmt.Errorf("writing image: %w", err)
	}
	return path, nil
}

// Read returns the stored image bytes for a subject.
// Returns ErrImageNotFound if no upload exists.
func (s *Store) Read(subject string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(subject))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrImageNotFound
		}
		return nil, fmt.Errorf("reading image: %w", err)
	}
	return data, nil
}

// Path returns the filesystem path for a subject's image slot. The
// subject comes from a verified token, not from request input, so it
// is used directly in the filename.
func (s *Store) Path(subject string) string {
	return filepath.Join(s.dir, subject+"_image.png")
}
