package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wesm/pstview/internal/export"
	"github.com/wesm/pstview/internal/mailstore"
	"github.com/wesm/pstview/internal/pstfile"
	"github.com/wesm/pstview/internal/textutil"
)

// openArchive opens the PST at path with the configured ANSI encoding.
// Closing the returned store does not close the byte source; the caller
// closes both.
func openArchive(ctx context.Context, path string) (mailstore.Store, mailstore.ByteSource, error) {
	src, err := mailstore.OpenFile(path)
	if err != nil {
		return nil, nil, err
	}
	store, err := pstfile.Open(ctx, src, mailstore.OpenOptions{ANSIEncoding: cfg.Store.ANSIEncoding})
	if err != nil {
		src.Close()
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	return store, src, nil
}

// newResolver builds the export resolver from config.
func newResolver() (*export.Resolver, error) {
	enc, err := textutil.LookupEncoding(cfg.Export.VCardEncoding)
	if err != nil {
		return nil, fmt.Errorf("export.vcard_encoding: %w", err)
	}
	return export.NewResolver(enc), nil
}

// newSink returns the download sink for the export directory.
func newSink(dir string, log *slog.Logger) export.Sink {
	if dir == "" {
		dir = cfg.Export.Dir
	}
	return export.NewDirSink(dir, log)
}
