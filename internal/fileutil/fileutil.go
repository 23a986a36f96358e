// Package fileutil provides helpers for writing exported files.
// Files are created owner-only and never through a symlink on the final
// path component, so a planted link in the export directory cannot redirect
// a write.
package fileutil

import (
	"errors"
	"fmt"
	"os"
)

// MkdirAll creates a directory path and all parents that do not yet exist.
func MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// WriteNew writes data to a file that must not already exist.
// It returns an error satisfying errors.Is(err, os.ErrExist) when the path
// is taken, including by a symlink.
func WriteNew(path string, data []byte, perm os.FileMode) error {
	f, err := createExclusive(path, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// IsExist reports whether err means the target path is already taken.
func IsExist(err error) bool {
	return errors.Is(err, os.ErrExist)
}
