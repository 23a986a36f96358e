package export

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"

	"github.com/wesm/pstview/internal/fileutil"
)

// Sink delivers a payload to the user as a file.
type Sink interface {
	Deliver(ctx context.Context, data []byte, name, mediaType string) (string, error)
}

// maxDuplicates bounds the name_N.ext probing in DirSink.
const maxDuplicates = 1000

// DirSink writes payloads as owner-only files into Dir. Existing files are
// never overwritten: a clash picks name_2.ext, name_3.ext and so on.
type DirSink struct {
	Dir    string
	Logger *slog.Logger
}

// NewDirSink returns a sink rooted at dir.
func NewDirSink(dir string, logger *slog.Logger) *DirSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirSink{Dir: dir, Logger: logger}
}

// Deliver implements Sink.
func (s *DirSink) Deliver(ctx context.Context, data []byte, name, mediaType string) (string, error) {
	if data == nil {
		return "", ErrNoPayload
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := fileutil.MkdirAll(s.Dir, 0o700); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	name = SanitizeFilename(strings.TrimSpace(name))
	if name == "" || name == "." || name == ".." {
		name = "untitled"
	}
	ext := filepath.Ext(name)
	if ext == "" {
		ext = extensionFor(mediaType)
		name += ext
	}
	stem := strings.TrimSuffix(name, ext)

	for i := 1; i <= maxDuplicates; i++ {
		candidate := name
		if i > 1 {
			candidate = fmt.Sprintf("%s_%d%s", stem, i, ext)
		}
		path := filepath.Join(s.Dir, candidate)
		err := fileutil.WriteNew(path, data, 0o600)
		if err == nil {
			if s.Logger != nil {
				s.Logger.Info("export written", "path", path, "bytes", len(data), "media_type", mediaType)
			}
			return path, nil
		}
		if !fileutil.IsExist(err) {
			return "", fmt.Errorf("write %s: %w", candidate, err)
		}
	}
	return "", fmt.Errorf("write %s: too many files with the same name", name)
}

// extensionFor maps a media type to a file extension for nameless payloads.
func extensionFor(mediaType string) string {
	switch mediaType {
	case MediaRFC822:
		return ".eml"
	case MediaVCard:
		return ".vcf"
	case "", MediaOctetStream:
		return ""
	}
	if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}
