// Package mailstoretest provides in-memory implementations of the mailstore
// contracts for tests.
package mailstoretest

import (
	"context"
	"io"
	"sync"

	"github.com/wesm/pstview/internal/mailstore"
)

// Store is an in-memory mailstore.Store.
type Store struct {
	Name    string
	Root    *Folder
	RootErr error

	mu     sync.Mutex
	closed bool
}

// Compile-time checks.
var (
	_ mailstore.Store      = (*Store)(nil)
	_ mailstore.Folder     = (*Folder)(nil)
	_ mailstore.Message    = (*Message)(nil)
	_ mailstore.Attachment = (*Attachment)(nil)
)

func (s *Store) DisplayName() string { return s.Name }

func (s *Store) RootFolder(_ context.Context) (mailstore.Folder, error) {
	if s.RootErr != nil {
		return nil, s.RootErr
	}
	if s.Root == nil {
		return nil, nil
	}
	return s.Root, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (s *Store) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Opener returns a mailstore.Opener that yields s, or err when non-nil.
// The options of the last call are recorded in *gotOpts when gotOpts is
// non-nil.
func (s *Store) Opener(err error, gotOpts *mailstore.OpenOptions) mailstore.Opener {
	return func(_ context.Context, _ mailstore.ByteSource, opts mailstore.OpenOptions) (mailstore.Store, error) {
		if gotOpts != nil {
			*gotOpts = opts
		}
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// Folder is an in-memory mailstore.Folder.
type Folder struct {
	FolderName  string
	Children    []*Folder
	Items       []*Message
	Props       mailstore.Properties
	MessagesErr error
	// Gate, when non-nil, blocks Messages until it is closed.
	Gate chan struct{}
}

func (f *Folder) Name() string { return f.FolderName }

func (f *Folder) MessageCount(_ context.Context) (int, error) { return len(f.Items), nil }

func (f *Folder) SubFolders(_ context.Context) ([]mailstore.Folder, error) {
	out := make([]mailstore.Folder, len(f.Children))
	for i, c := range f.Children {
		out[i] = c
	}
	return out, nil
}

func (f *Folder) Messages(ctx context.Context) ([]mailstore.Message, error) {
	if f.Gate != nil {
		select {
		case <-f.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.MessagesErr != nil {
		return nil, f.MessagesErr
	}
	out := make([]mailstore.Message, len(f.Items))
	for i, m := range f.Items {
		out[i] = m
	}
	return out, nil
}

func (f *Folder) Properties() mailstore.Properties { return f.Props }

// Message is an in-memory mailstore.Message.
type Message struct {
	SubjectText string
	Class       string
	Contact     bool
	Display     string
	From        *mailstore.Contact
	To          []mailstore.Recipient
	Files       []*Attachment
	BodyText    string
	Props       mailstore.Properties
	DetailErr   error
}

func (m *Message) Subject() string      { return m.SubjectText }
func (m *Message) MessageClass() string { return m.Class }
func (m *Message) IsContact() bool      { return m.Contact }

func (m *Message) DisplayName() string {
	if m.Display != "" {
		return m.Display
	}
	return m.SubjectText
}

func (m *Message) Sender() *mailstore.Contact { return m.From }

func (m *Message) Recipients(_ context.Context) ([]mailstore.Recipient, error) {
	if m.DetailErr != nil {
		return nil, m.DetailErr
	}
	return m.To, nil
}

func (m *Message) Attachments(_ context.Context) ([]mailstore.Attachment, error) {
	out := make([]mailstore.Attachment, len(m.Files))
	for i, a := range m.Files {
		out[i] = a
	}
	return out, nil
}

func (m *Message) Body(_ context.Context) (string, error) { return m.BodyText, nil }

func (m *Message) Properties() mailstore.Properties {
	if m.Props != nil {
		return m.Props
	}
	return mailstore.Properties{"subject": m.SubjectText, "message_class": m.Class}
}

// Attachment is an in-memory mailstore.Attachment.
type Attachment struct {
	Name    string
	File    string
	How     mailstore.AttachMethod
	Payload []byte
	Nested  *Message
	Props   mailstore.Properties
}

func (a *Attachment) DisplayName() string           { return a.Name }
func (a *Attachment) Filename() string              { return a.File }
func (a *Attachment) Method() mailstore.AttachMethod { return a.How }

func (a *Attachment) Data(_ context.Context) ([]byte, error) { return a.Payload, nil }

func (a *Attachment) Embedded(_ context.Context) (mailstore.Message, error) {
	if a.Nested == nil {
		return nil, nil
	}
	return a.Nested, nil
}

func (a *Attachment) Properties() mailstore.Properties {
	if a.Props != nil {
		return a.Props
	}
	return mailstore.Properties{"display_name": a.Name}
}

// Source is a ByteSource over an in-memory buffer.
type Source struct {
	Data     []byte
	FileName string
	closed   bool
}

func (s *Source) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(s.Data)) {
		return 0, io.EOF
	}
	n := copy(p, s.Data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (s *Source) Size() int64  { return int64(len(s.Data)) }
func (s *Source) Name() string { return s.FileName }
func (s *Source) Close() error { s.closed = true; return nil }

// Closed reports whether Close has been called.
func (s *Source) Closed() bool { return s.closed }
