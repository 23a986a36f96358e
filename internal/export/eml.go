package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message/mail"

	"github.com/wesm/pstview/internal/mailstore"
)

// maxEmbedDepth bounds recursion into nested message attachments.
const maxEmbedDepth = 8

// EMLConverter renders a message as RFC 5322 bytes: address headers, the
// plain-text body, and file attachments. Embedded messages are written as
// message/rfc822 parts.
type EMLConverter struct{}

// Convert implements MessageConverter.
func (c EMLConverter) Convert(ctx context.Context, msg mailstore.Message) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeEML(ctx, &buf, msg, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type emlPart struct {
	name      string
	mediaType string
	data      []byte
}

func writeEML(ctx context.Context, w io.Writer, msg mailstore.Message, depth int) error {
	recipients, err := msg.Recipients(ctx)
	if err != nil {
		return fmt.Errorf("read recipients: %w", err)
	}
	body, err := msg.Body(ctx)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	parts, err := collectParts(ctx, msg, depth)
	if err != nil {
		return err
	}

	var h mail.Header
	if s := msg.Sender(); s != nil {
		h.SetAddressList("From", []*mail.Address{toAddress(s)})
	}
	for _, typ := range []mailstore.RecipientType{mailstore.RecipientTo, mailstore.RecipientCc, mailstore.RecipientBcc} {
		var list []*mail.Address
		for i := range recipients {
			if recipients[i].Type == typ {
				list = append(list, toAddress(&recipients[i].Contact))
			}
		}
		if len(list) > 0 {
			h.SetAddressList(typ.String(), list)
		}
	}
	h.SetSubject(msg.Subject())

	if len(parts) == 0 {
		h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
		tw, err := mail.CreateSingleInlineWriter(w, h)
		if err != nil {
			return fmt.Errorf("create message: %w", err)
		}
		if _, err := io.WriteString(tw, body); err != nil {
			return fmt.Errorf("write body: %w", err)
		}
		return tw.Close()
	}

	mw, err := mail.CreateWriter(w, h)
	if err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	iw, err := mw.CreateInline()
	if err != nil {
		return fmt.Errorf("create body: %w", err)
	}
	var th mail.InlineHeader
	th.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	pw, err := iw.CreatePart(th)
	if err != nil {
		return fmt.Errorf("create body part: %w", err)
	}
	if _, err := io.WriteString(pw, body); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	if err := pw.Close(); err != nil {
		return err
	}
	if err := iw.Close(); err != nil {
		return err
	}

	for _, p := range parts {
		var ah mail.AttachmentHeader
		ah.SetContentType(p.mediaType, nil)
		if p.mediaType == MediaRFC822 {
			ah.Set("Content-Transfer-Encoding", "8bit")
		}
		ah.SetFilename(p.name)
		aw, err := mw.CreateAttachment(ah)
		if err != nil {
			return fmt.Errorf("create attachment %q: %w", p.name, err)
		}
		if _, err := aw.Write(p.data); err != nil {
			return fmt.Errorf("write attachment %q: %w", p.name, err)
		}
		if err := aw.Close(); err != nil {
			return err
		}
	}
	return mw.Close()
}

// collectParts gathers attachment payloads. Attachments with no stored data
// and nested messages the parser cannot open are skipped.
func collectParts(ctx context.Context, msg mailstore.Message, depth int) ([]emlPart, error) {
	atts, err := msg.Attachments(ctx)
	if err != nil {
		return nil, fmt.Errorf("read attachments: %w", err)
	}
	var parts []emlPart
	for _, att := range atts {
		name := att.Filename()
		if name == "" {
			name = att.DisplayName()
		}
		switch att.Method() {
		case mailstore.AttachByValue, mailstore.AttachByReference:
			data, err := att.Data(ctx)
			if err != nil {
				return nil, fmt.Errorf("read attachment %q: %w", name, err)
			}
			if data == nil {
				continue
			}
			parts = append(parts, emlPart{name: name, mediaType: MediaOctetStream, data: data})
		case mailstore.AttachEmbedded:
			if depth >= maxEmbedDepth {
				continue
			}
			nested, err := att.Embedded(ctx)
			if errors.Is(err, mailstore.ErrEmbeddedUnsupported) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("open embedded %q: %w", name, err)
			}
			if nested == nil {
				continue
			}
			var buf bytes.Buffer
			if err := writeEML(ctx, &buf, nested, depth+1); err != nil {
				return nil, fmt.Errorf("embedded %q: %w", name, err)
			}
			if name == "" {
				name = baseName(nested.Subject())
			}
			if !strings.HasSuffix(strings.ToLower(name), ".eml") {
				name += ".eml"
			}
			parts = append(parts, emlPart{name: name, mediaType: MediaRFC822, data: buf.Bytes()})
		}
	}
	return parts, nil
}

func toAddress(c *mailstore.Contact) *mail.Address {
	return &mail.Address{Name: c.DisplayName, Address: c.Address}
}
