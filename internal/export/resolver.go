package export

import (
	"context"

	"golang.org/x/text/encoding"

	"github.com/wesm/pstview/internal/mailstore"
	"github.com/wesm/pstview/internal/textutil"
)

// MessageConverter renders a message into a file payload.
type MessageConverter interface {
	Convert(ctx context.Context, msg mailstore.Message) ([]byte, error)
}

// VCardConverter renders a contact item as vCard text.
type VCardConverter interface {
	VCard(ctx context.Context, msg mailstore.Message) (string, error)
}

// Resolver assembles the export actions that apply to a message. A format
// is offered only when it is meaningful for the message's class and its
// converter is configured.
type Resolver struct {
	// MSG writes an Outlook .msg container. It needs the open store, and
	// is optional.
	MSG   MessageConverter
	EML   MessageConverter
	VCard VCardConverter
	// VCardEncoding is the fixed output encoding of vCard payloads;
	// nil means UTF-8.
	VCardEncoding encoding.Encoding
}

// NewResolver returns a Resolver with the built-in EML and vCard converters.
func NewResolver(vcardEncoding encoding.Encoding) *Resolver {
	return &Resolver{
		EML:           EMLConverter{},
		VCard:         VCardBuilder{},
		VCardEncoding: vcardEncoding,
	}
}

// Actions lists the export actions for msg in display order: MSG, EML,
// VCard.
func (r *Resolver) Actions(msg mailstore.Message, storeOpen bool) []Action {
	if r == nil || msg == nil {
		return nil
	}
	var actions []Action
	if r.MSG != nil && storeOpen {
		conv := r.MSG
		actions = append(actions, Action{
			Label:     "Export to MSG",
			FileName:  baseName(msg.Subject()) + ".msg",
			MediaType: MediaOctetStream,
			Provide: func(ctx context.Context) ([]byte, error) {
				return conv.Convert(ctx, msg)
			},
		})
	}
	if r.EML != nil && msg.MessageClass() == mailstore.ClassNote {
		conv := r.EML
		actions = append(actions, Action{
			Label:     "Export to EML",
			FileName:  baseName(msg.Subject()) + ".eml",
			MediaType: MediaRFC822,
			Provide: func(ctx context.Context) ([]byte, error) {
				return conv.Convert(ctx, msg)
			},
		})
	}
	if r.VCard != nil && msg.IsContact() {
		conv, enc := r.VCard, r.VCardEncoding
		actions = append(actions, Action{
			Label:     "Export to VCard",
			FileName:  baseName(msg.DisplayName()) + ".vcf",
			MediaType: MediaVCard,
			Provide: func(ctx context.Context) ([]byte, error) {
				text, err := conv.VCard(ctx, msg)
				if err != nil {
					return nil, err
				}
				return textutil.Encode(text, enc)
			},
		})
	}
	return actions
}
