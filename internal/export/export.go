// Package export turns archive messages into downloadable files: it decides
// which export formats apply to a message, names the files, converts the
// message, and hands the bytes to a Sink.
package export

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNoPayload is returned when an export or download produced no bytes.
var ErrNoPayload = errors.New("nothing to export")

// Media types attached to actions.
const (
	MediaOctetStream = "application/octet-stream"
	MediaRFC822      = "message/rfc822"
	MediaVCard       = "text/x-vcard"
)

// Action is one export choice offered for a message.
type Action struct {
	// Label is the user-facing action text, e.g. "Export to EML".
	Label     string
	FileName  string
	MediaType string
	Provide   func(ctx context.Context) ([]byte, error)
}

// Run produces the action's payload. A nil payload is reported as
// ErrNoPayload.
func (a Action) Run(ctx context.Context) ([]byte, error) {
	if a.Provide == nil {
		return nil, fmt.Errorf("%s: %w", a.Label, ErrNoPayload)
	}
	data, err := a.Provide(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.Label, err)
	}
	if data == nil {
		return nil, fmt.Errorf("%s: %w", a.Label, ErrNoPayload)
	}
	return data, nil
}

// SanitizeFilename replaces characters that are unsafe in file names
// (<>:"/\|?* and control characters 0x00-0x1F) with an underscore.
// It is idempotent.
func SanitizeFilename(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r < 0x20:
			return '_'
		case strings.ContainsRune(`<>:"/\|?*`, r):
			return '_'
		default:
			return r
		}
	}, s)
}

// baseName derives a file name stem from a subject or display name.
func baseName(s string) string {
	name := SanitizeFilename(strings.TrimSpace(s))
	if name == "" {
		return "untitled"
	}
	return name
}

// FormatBytesLong formats bytes with full precision for export results.
func FormatBytesLong(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}

// FormatResult describes a completed delivery for display.
func FormatResult(path string, size int) string {
	return fmt.Sprintf("Saved %s (%s)", path, FormatBytesLong(int64(size)))
}
