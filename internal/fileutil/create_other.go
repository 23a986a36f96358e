//go:build !unix

package fileutil

import "os"

// createExclusive creates path for writing. O_EXCL refuses existing files and
// links; there is no O_NOFOLLOW equivalent here.
func createExclusive(path string, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
}
