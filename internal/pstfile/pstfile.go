// Package pstfile adapts Outlook PST archives, parsed by go-pst, to the
// mailstore contracts.
package pstfile

import (
	"context"
	"fmt"
	"sync"

	charsets "github.com/emersion/go-message/charset"
	pst "github.com/mooijtech/go-pst/v6/pkg"
	"golang.org/x/text/encoding"

	"github.com/wesm/pstview/internal/mailstore"
	"github.com/wesm/pstview/internal/textutil"
)

var registerCharsets sync.Once

// Open parses src as a PST file. It satisfies mailstore.Opener.
func Open(ctx context.Context, src mailstore.ByteSource, opts mailstore.OpenOptions) (mailstore.Store, error) {
	registerCharsets.Do(func() {
		pst.ExtendCharsets(func(name string, enc encoding.Encoding) {
			charsets.RegisterEncoding(name, enc)
		})
	})

	name := opts.ANSIEncoding
	if name == "" {
		name = textutil.DefaultANSIEncoding
	}
	enc, err := textutil.LookupEncoding(name)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := pst.New(mailstore.SectionReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", src.Name(), err)
	}
	return &Store{file: file, name: src.Name(), enc: enc}, nil
}

var _ mailstore.Opener = Open

// Store is an opened PST file.
type Store struct {
	file *pst.File
	name string
	enc  encoding.Encoding
}

// DisplayName is the source file name.
func (s *Store) DisplayName() string { return s.name }

// RootFolder returns the top of the folder hierarchy.
func (s *Store) RootFolder(ctx context.Context) (mailstore.Folder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	root, err := s.file.GetRootFolder()
	if err != nil {
		return nil, fmt.Errorf("read root folder: %w", err)
	}
	return &Folder{store: s, raw: root}, nil
}

// Close releases parser resources. The byte source is closed by its owner.
func (s *Store) Close() error {
	s.file.Cleanup()
	return nil
}

// decode repairs a string stored in the archive's legacy encoding.
func (s *Store) decode(v string) string {
	return textutil.DecodeLegacy(v, s.enc)
}
