//go:build unix

package fileutil

import (
	"errors"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// createExclusive creates path for writing without following a symlink on
// the final component.
func createExclusive(path string, perm os.FileMode) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL|unix.O_NOFOLLOW, perm)
	if err != nil && errors.Is(err, syscall.ELOOP) {
		return nil, &os.PathError{Op: "open", Path: path, Err: os.ErrExist}
	}
	return f, err
}
