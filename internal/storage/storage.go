// Package storage persists alert evidence attachments on the local filesystem.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store writes evidence files under a single directory. Paths are keyed by
// alert id plus the uploaded filename, so concurrent resolutions of
// different alerts never contend on the same file.
type Store struct {
	dir string
}

// New creates the store and ensures its directory exists.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Save writes the evidence content for an alert and returns the stored path.
// The write goes to a temp file first and is renamed into place, so readers
// never observe a partially written attachment.
func (s *Store) Save(alertID int64, filename string, r io.Reader) (string, error) {
	name := sanitizeFilename(filename)
	finalPath := filepath.Join(s.dir, fmt.Sprintf("%d_%s", alertID, name))

	tmpPath := filepath.Join(s.dir, ".tmp-"+uuid.NewString())
	f, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("failed to create evidence file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write evidence file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to close evidence file: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to store evidence file: %w", err)
	}

	return finalPath, nil
}

// Remove deletes a stored attachment. Used to back out an evidence write
// when the resolution it belongs to does not go through.
func (s *Store) Remove(path string) error {
	if filepath.Dir(path) != filepath.Clean(s.dir) {
		return fmt.Errorf("path %s is outside the upload directory", path)
	}
	return os.Remove(path)
}

// sanitizeFilename strips any directory components from an uploaded
// filename so it cannot escape the store directory.
func sanitizeFilename(filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "" || name == "." || name == ".." || name == "/" {
		return "attachment"
	}
	return name
}
