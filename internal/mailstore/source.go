package mailstore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ByteSource is the host-supplied random-access reader a store parses.
// ReadAt is the only I/O a parser may perform.
type ByteSource interface {
	io.ReaderAt
	io.Closer
	Size() int64
	Name() string
}

// FileSource is a ByteSource backed by a local file.
type FileSource struct {
	f    *os.File
	size int64
	name string
}

// OpenFile opens path read-only as a ByteSource.
func OpenFile(path string) (*FileSource, error) {
	if path == "" {
		return nil, ErrNoSource
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if st.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return &FileSource{f: f, size: st.Size(), name: filepath.Base(path)}, nil
}

// ReadAt reads len(p) bytes starting at off. Short reads at end of file
// return io.EOF together with the bytes read.
func (s *FileSource) ReadAt(p []byte, off int64) (int, error) {
	return s.f.ReadAt(p, off)
}

// Size returns the file size captured at open time.
func (s *FileSource) Size() int64 { return s.size }

// Name returns the base file name, used as the archive's display name.
func (s *FileSource) Name() string { return s.name }

// Close releases the underlying file.
func (s *FileSource) Close() error { return s.f.Close() }

// SectionReader exposes the whole source as an io.ReadSeeker for parsers
// that expect sequential access.
func SectionReader(src ByteSource) *io.SectionReader {
	return io.NewSectionReader(src, 0, src.Size())
}
