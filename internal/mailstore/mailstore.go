// Package mailstore defines the contracts between the browser and a
// read-only mail archive parser. Parsers (see internal/pstfile) adapt a
// concrete file format to these interfaces; the browser never touches the
// underlying bytes itself.
package mailstore

import (
	"context"
	"errors"
)

var (
	// ErrNoSource is returned when a store open is requested before a
	// source file has been chosen.
	ErrNoSource = errors.New("no file selected")

	// ErrEmbeddedUnsupported is returned by Attachment.Embedded when the
	// parser cannot unwrap nested messages.
	ErrEmbeddedUnsupported = errors.New("embedded messages are not supported by this parser")
)

// Properties is an enumerable key/value snapshot of an entity's raw fields.
// It feeds the properties inspector verbatim.
type Properties map[string]string

// AttachMethod mirrors PidTagAttachMethod.
type AttachMethod int

const (
	AttachNone               AttachMethod = 0
	AttachByValue            AttachMethod = 1
	AttachByReference        AttachMethod = 2
	AttachByReferenceResolve AttachMethod = 3
	AttachByReferenceOnly    AttachMethod = 4
	AttachEmbedded           AttachMethod = 5
	AttachOLE                AttachMethod = 6
)

// RecipientType mirrors PidTagRecipientType.
type RecipientType int

const (
	RecipientTo  RecipientType = 1
	RecipientCc  RecipientType = 2
	RecipientBcc RecipientType = 3
)

// String returns the header name for the recipient type.
func (t RecipientType) String() string {
	switch t {
	case RecipientTo:
		return "To"
	case RecipientCc:
		return "Cc"
	case RecipientBcc:
		return "Bcc"
	default:
		return "Unknown"
	}
}

// Well-known message classes.
const (
	ClassNote    = "IPM.Note"
	ClassContact = "IPM.Contact"
)

// OpenOptions controls how a store is parsed.
type OpenOptions struct {
	// ANSIEncoding names the legacy single-byte encoding applied to
	// pre-Unicode string properties (e.g. "windows-1252").
	ANSIEncoding string
}

// Opener constructs a Store over a byte source.
type Opener func(ctx context.Context, src ByteSource, opts OpenOptions) (Store, error)

// Store is an opened archive. It is read-only once opened.
type Store interface {
	DisplayName() string
	RootFolder(ctx context.Context) (Folder, error)
	Close() error
}

// Folder is a node in the store's folder hierarchy.
type Folder interface {
	Name() string
	MessageCount(ctx context.Context) (int, error)
	SubFolders(ctx context.Context) ([]Folder, error)
	Messages(ctx context.Context) ([]Message, error)
	Properties() Properties
}

// Contact is an address plus display name.
type Contact struct {
	AddrType    string
	Address     string
	DisplayName string
	Props       Properties
}

// Recipient is a Contact tagged with its role on a message.
type Recipient struct {
	Contact
	Type RecipientType
}

// Message is a single item in a folder: a mail, a contact card, an
// appointment, a document and so on, distinguished by MessageClass.
type Message interface {
	Subject() string
	MessageClass() string
	// DisplayName is the contact's display name for contact items and
	// the subject otherwise.
	DisplayName() string
	// Sender returns nil when the message has no sender address type.
	Sender() *Contact
	IsContact() bool
	Recipients(ctx context.Context) ([]Recipient, error)
	Attachments(ctx context.Context) ([]Attachment, error)
	Body(ctx context.Context) (string, error)
	Properties() Properties
}

// Attachment is a file or nested message carried by a Message.
type Attachment interface {
	DisplayName() string
	Filename() string
	Method() AttachMethod
	// Data returns the stored payload, or nil when none is stored.
	Data(ctx context.Context) ([]byte, error)
	// Embedded opens the nested message, or returns nil when absent.
	Embedded(ctx context.Context) (Message, error)
	Properties() Properties
}

// First returns the first non-empty value among keys.
func (p Properties) First(keys ...string) string {
	for _, k := range keys {
		if v := p[k]; v != "" {
			return v
		}
	}
	return ""
}
