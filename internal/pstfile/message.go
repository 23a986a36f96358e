package pstfile

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	pst "github.com/mooijtech/go-pst/v6/pkg"
	"github.com/mooijtech/go-pst/v6/pkg/properties"
	"github.com/rotisserie/eris"
	"google.golang.org/protobuf/proto"

	"github.com/wesm/pstview/internal/mailstore"
)

// Message wraps a go-pst message.
type Message struct {
	store *Store
	raw   *pst.Message
	props mailstore.Properties
	class string
}

func newMessage(s *Store, raw *pst.Message) *Message {
	return buildMessage(s, raw, storedClass(s, raw))
}

// buildMessage falls back to the go-pst property type when class is empty.
func buildMessage(s *Store, raw *pst.Message, class string) *Message {
	var pm proto.Message
	if raw != nil {
		pm, _ = raw.Properties.(proto.Message)
	}
	props := snapshot(pm, s.enc)
	if class == "" {
		class = classFor(pm)
	}
	if class != "" {
		props["message_class"] = class
	}
	return &Message{store: s, raw: raw, props: props, class: class}
}

// pidTagMessageClass is the property ID of PidTagMessageClass.
const pidTagMessageClass = 26

// storedClass reads the message class recorded in the file. go-pst only
// uses it to pick a property type, and every class it does not know
// becomes a plain message.
func storedClass(s *Store, raw *pst.Message) string {
	if raw == nil || raw.PropertyContext == nil {
		return ""
	}
	r, err := raw.PropertyContext.GetPropertyReader(pidTagMessageClass, raw.LocalDescriptors)
	if err != nil {
		return ""
	}
	var class string
	switch r.Property.Type {
	case pst.PropertyTypeString:
		if class, err = r.GetString(); err != nil {
			return ""
		}
	case pst.PropertyTypeString8:
		if r.HeapOnNodeReader == nil {
			return ""
		}
		buf := make([]byte, r.Size())
		if _, err := r.ReadAt(buf, 0); err != nil {
			return ""
		}
		class = s.decode(string(buf))
	}
	return strings.TrimSpace(strings.TrimRight(class, "\x00"))
}

func (m *Message) Subject() string {
	return m.props.First("subject", "normalized_subject", "conversation_topic")
}

func (m *Message) MessageClass() string { return m.class }

func (m *Message) IsContact() bool {
	if m.raw != nil {
		if _, ok := m.raw.Properties.(*properties.Contact); ok {
			return true
		}
	}
	return m.class == mailstore.ClassContact
}

func (m *Message) DisplayName() string {
	if m.IsContact() {
		if n := m.props.First("display_name", "file_under", "subject"); n != "" {
			return n
		}
		return strings.TrimSpace(m.props["given_name"] + " " + m.props["surname"])
	}
	return m.Subject()
}

func (m *Message) Sender() *mailstore.Contact { return senderFrom(m.props) }

// Recipients are taken from the display lists go-pst exposes. Entries
// carry a display name and, when the name is an SMTP address, the address.
func (m *Message) Recipients(_ context.Context) ([]mailstore.Recipient, error) {
	var out []mailstore.Recipient
	out = append(out, splitRecipients(m.props["display_to"], mailstore.RecipientTo)...)
	out = append(out, splitRecipients(m.props["display_cc"], mailstore.RecipientCc)...)
	out = append(out, splitRecipients(m.props["display_bcc"], mailstore.RecipientBcc)...)
	return out, nil
}

func (m *Message) Attachments(ctx context.Context) ([]mailstore.Attachment, error) {
	it, err := m.raw.GetAttachmentIterator()
	if eris.Is(err, pst.ErrAttachmentsNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("read attachment table: %w", err)
	}
	var out []mailstore.Attachment
	for it.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, newAttachment(m.store, it.Value()))
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("read attachment: %w", err)
	}
	return out, nil
}

func (m *Message) Body(_ context.Context) (string, error) {
	return m.props.First("body", "notes"), nil
}

func (m *Message) Properties() mailstore.Properties { return m.props }

// Attachment wraps a go-pst attachment.
type Attachment struct {
	store *Store
	raw   *pst.Attachment
	props mailstore.Properties
}

func newAttachment(s *Store, raw *pst.Attachment) *Attachment {
	return &Attachment{store: s, raw: raw, props: snapshot(&raw.Attachment, s.enc)}
}

func (a *Attachment) DisplayName() string {
	return a.props.First("display_name", "attach_long_filename", "attach_filename")
}

func (a *Attachment) Filename() string {
	return a.props.First("attach_long_filename", "attach_filename")
}

func (a *Attachment) Method() mailstore.AttachMethod {
	n, err := strconv.Atoi(a.props["attach_method"])
	if err != nil {
		return mailstore.AttachNone
	}
	return mailstore.AttachMethod(n)
}

// Data reads the stored payload. Only by-value payloads live in the file.
func (a *Attachment) Data(_ context.Context) ([]byte, error) {
	if a.Method() != mailstore.AttachByValue {
		return nil, nil
	}
	var buf bytes.Buffer
	if _, err := a.raw.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("read attachment %q: %w", a.Filename(), err)
	}
	return buf.Bytes(), nil
}

// Embedded is not supported by go-pst.
func (a *Attachment) Embedded(_ context.Context) (mailstore.Message, error) {
	return nil, mailstore.ErrEmbeddedUnsupported
}

func (a *Attachment) Properties() mailstore.Properties { return a.props }

var (
	_ mailstore.Folder     = (*Folder)(nil)
	_ mailstore.Message    = (*Message)(nil)
	_ mailstore.Attachment = (*Attachment)(nil)
)
