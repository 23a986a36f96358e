package pstfile

import (
	"context"
	"fmt"
	"strconv"

	pst "github.com/mooijtech/go-pst/v6/pkg"
	"github.com/rotisserie/eris"

	"github.com/wesm/pstview/internal/mailstore"
)

// Folder wraps a go-pst folder.
type Folder struct {
	store *Store
	raw   pst.Folder
}

func (f *Folder) Name() string { return f.store.decode(f.raw.Name) }

func (f *Folder) MessageCount(_ context.Context) (int, error) {
	return int(f.raw.MessageCount), nil
}

func (f *Folder) SubFolders(ctx context.Context) ([]mailstore.Folder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !f.raw.HasSubFolders {
		return nil, nil
	}
	subs, err := f.raw.GetSubFolders()
	if err != nil {
		return nil, fmt.Errorf("read subfolders: %w", err)
	}
	out := make([]mailstore.Folder, len(subs))
	for i := range subs {
		out[i] = &Folder{store: f.store, raw: subs[i]}
	}
	return out, nil
}

// Messages reads every message in the folder. A folder without a contents
// table has no messages.
func (f *Folder) Messages(ctx context.Context) ([]mailstore.Message, error) {
	it, err := f.raw.GetMessageIterator()
	if eris.Is(err, pst.ErrMessagesNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("read contents table: %w", err)
	}

	var out []mailstore.Message
	for it.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, newMessage(f.store, it.Value()))
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("read message: %w", err)
	}
	return out, nil
}

func (f *Folder) Properties() mailstore.Properties {
	return mailstore.Properties{
		"display_name":    f.Name(),
		"content_count":   strconv.Itoa(int(f.raw.MessageCount)),
		"has_sub_folders": strconv.FormatBool(f.raw.HasSubFolders),
		"identifier":      fmt.Sprint(f.raw.Identifier),
	}
}
