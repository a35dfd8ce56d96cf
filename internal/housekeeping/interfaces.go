// filepath: internal/housekeeping/interfaces.go
package housekeeping

import (
	"errors"
	"os"
	"time"
)

// FileStore defines the file operations required by the housekeeping service.
// This decouples the cleanup logic from the real filesystem in tests.
type FileStore interface {
	// ModTime returns the modification time of path, or an error wrapping
	// os.ErrNotExist when there is nothing to clean up.
	ModTime(path string) (time.Time, error)
	Remove(path string) error
}

// OSFileStore implements FileStore on the local filesystem.
type OSFileStore struct{}

// ModTime implements FileStore.
func (OSFileStore) ModTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// Remove implements FileStore. A file that is already gone is not an error.
func (OSFileStore) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
