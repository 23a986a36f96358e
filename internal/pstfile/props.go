package pstfile

import (
	"fmt"
	"strings"

	"github.com/mooijtech/go-pst/v6/pkg/properties"
	"golang.org/x/text/encoding"
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/wesm/pstview/internal/mailstore"
	"github.com/wesm/pstview/internal/textutil"
)

// snapshot lists every populated field of m by its proto field name.
// Strings that are not valid UTF-8 are decoded with enc.
func snapshot(m proto.Message, enc encoding.Encoding) mailstore.Properties {
	props := mailstore.Properties{}
	if m == nil {
		return props
	}
	r := m.ProtoReflect()
	if !r.IsValid() {
		return props
	}
	r.Range(func(fd protoreflect.FieldDescriptor, v protoreflect.Value) bool {
		props[string(fd.Name())] = formatField(fd, v, enc)
		return true
	})
	return props
}

func formatField(fd protoreflect.FieldDescriptor, v protoreflect.Value, enc encoding.Encoding) string {
	switch {
	case fd.IsMap():
		return fmt.Sprintf("(%d entries)", v.Map().Len())
	case fd.IsList():
		list := v.List()
		parts := make([]string, list.Len())
		for i := range parts {
			parts[i] = formatScalar(fd, list.Get(i), enc)
		}
		return strings.Join(parts, ", ")
	}
	return formatScalar(fd, v, enc)
}

func formatScalar(fd protoreflect.FieldDescriptor, v protoreflect.Value, enc encoding.Encoding) string {
	switch fd.Kind() {
	case protoreflect.StringKind:
		return textutil.DecodeLegacy(v.String(), enc)
	case protoreflect.BytesKind:
		return fmt.Sprintf("(%d bytes)", len(v.Bytes()))
	case protoreflect.MessageKind, protoreflect.GroupKind:
		return prototext.MarshalOptions{}.Format(v.Message().Interface())
	case protoreflect.EnumKind:
		if ev := fd.Enum().Values().ByNumber(v.Enum()); ev != nil {
			return string(ev.Name())
		}
	}
	return v.String()
}

// classFor infers a message class from the go-pst property type when the
// file's own class cannot be read.
func classFor(m proto.Message) string {
	switch m.(type) {
	case *properties.Appointment:
		return "IPM.Appointment"
	case *properties.Contact:
		return mailstore.ClassContact
	case *properties.Task:
		return "IPM.Task"
	case *properties.Journal:
		return "IPM.Activity"
	case *properties.RSS:
		return "IPM.Post.RSS"
	case *properties.AddressBook:
		return "IPM.DistList"
	case *properties.Note:
		return "IPM.StickyNote"
	case *properties.Message:
		return mailstore.ClassNote
	default:
		return ""
	}
}

// senderFrom builds the sender from a message snapshot, or nil when the
// message records no sender address.
func senderFrom(p mailstore.Properties) *mailstore.Contact {
	addrType := p.First("sender_address_type", "sender_addrtype", "sent_representing_address_type")
	email := p.First("sender_email_address", "sent_representing_email_address")
	if addrType == "" && email == "" {
		return nil
	}
	if addrType == "" {
		addrType = guessAddrType(email)
	}
	return &mailstore.Contact{
		AddrType:    addrType,
		Address:     email,
		DisplayName: p.First("sender_name", "sent_representing_name"),
		Props:       p,
	}
}

// splitRecipients parses a "; "-separated display list.
func splitRecipients(list string, typ mailstore.RecipientType) []mailstore.Recipient {
	var out []mailstore.Recipient
	for _, name := range strings.Split(list, ";") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		c := mailstore.Contact{
			DisplayName: name,
			Props:       mailstore.Properties{"display_name": name, "recipient_type": typ.String()},
		}
		if strings.Contains(name, "@") {
			c.AddrType = "SMTP"
			c.Address = name
		}
		out = append(out, mailstore.Recipient{Contact: c, Type: typ})
	}
	return out
}

func guessAddrType(addr string) string {
	if strings.HasPrefix(addr, "/") {
		return "EX"
	}
	return "SMTP"
}
