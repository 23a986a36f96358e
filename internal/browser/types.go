package browser

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/wesm/pstview/internal/export"
	"github.com/wesm/pstview/internal/mailstore"
)

// View identifies what is currently rendered. Exactly one view is active.
type View int

const (
	ViewUnopened View = iota
	ViewFolders
	ViewMessages
	ViewMessageDetail
	ViewProperties
)

func (v View) String() string {
	switch v {
	case ViewUnopened:
		return "Unopened"
	case ViewFolders:
		return "Folders"
	case ViewMessages:
		return "Messages"
	case ViewMessageDetail:
		return "MessageDetail"
	case ViewProperties:
		return "Properties"
	default:
		return "Unknown"
	}
}

// Phase is the load state of the data behind a view.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseLoaded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseLoading:
		return "Loading"
	case PhaseLoaded:
		return "Loaded"
	case PhaseFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// TaskState is the status of the store-open task.
type TaskState int

const (
	TaskIdle TaskState = iota
	TaskLoading
	TaskSucceeded
	TaskFailed
)

// OpenTask is what the open screen observes.
type OpenTask struct {
	State TaskState
	Err   error
}

// FolderNode is a folder flattened into pre-order with its depth.
type FolderNode struct {
	Key       string
	Depth     int
	Name      string
	ItemCount int
	Folder    mailstore.Folder
}

// Summary is the secondary line shown under the folder name.
func (n FolderNode) Summary() string {
	return fmt.Sprintf("%d emails", n.ItemCount)
}

// ContactSummary is an address plus display name.
type ContactSummary struct {
	Name     string
	AddrType string
	Email    string
	Props    mailstore.Properties
}

// Address renders the address with its type, e.g. "SMTP: a@example.com".
func (c ContactSummary) Address() string {
	return c.AddrType + ": " + c.Email
}

func contactSummary(c mailstore.Contact) ContactSummary {
	return ContactSummary{Name: c.DisplayName, AddrType: c.AddrType, Email: c.Address, Props: c.Props}
}

// MessageSummary is the list projection of a message.
type MessageSummary struct {
	Key          string
	Subject      string
	MessageClass string
	From         *ContactSummary
	Message      mailstore.Message
}

// Summarize projects msg into a summary with the given list key.
func Summarize(msg mailstore.Message, key string) MessageSummary {
	s := MessageSummary{
		Key:          key,
		Subject:      msg.Subject(),
		MessageClass: msg.MessageClass(),
		Message:      msg,
	}
	if c := msg.Sender(); c != nil {
		cs := contactSummary(*c)
		s.From = &cs
	}
	return s
}

// AttachmentKind is the retrieval mode of an attachment.
type AttachmentKind int

const (
	AttachmentUnknown AttachmentKind = iota
	AttachmentFile
	AttachmentEmbedded
)

// AttachmentSummary carries at most one of ProvideFile and ProvideEmbedded.
type AttachmentSummary struct {
	DisplayName     string
	Method          mailstore.AttachMethod
	ProvideFile     func(ctx context.Context) ([]byte, error)
	ProvideEmbedded func(ctx context.Context) (mailstore.Message, error)
	Props           mailstore.Properties
}

// Kind reports which provider, if any, the attachment exposes.
func (a AttachmentSummary) Kind() AttachmentKind {
	switch {
	case a.ProvideFile != nil:
		return AttachmentFile
	case a.ProvideEmbedded != nil:
		return AttachmentEmbedded
	default:
		return AttachmentUnknown
	}
}

// SummarizeAttachment classifies att by its attach method.
func SummarizeAttachment(att mailstore.Attachment) AttachmentSummary {
	name := att.DisplayName()
	if name == "" {
		name = att.Filename()
	}
	s := AttachmentSummary{
		DisplayName: name,
		Method:      att.Method(),
		Props:       att.Properties(),
	}
	switch att.Method() {
	case mailstore.AttachByValue, mailstore.AttachByReference:
		s.ProvideFile = att.Data
	case mailstore.AttachEmbedded:
		s.ProvideEmbedded = att.Embedded
	}
	return s
}

// Property is one row of the properties inspector.
type Property struct {
	Key   string
	Value string
}

// SortedProperties lists p ordered by key.
func SortedProperties(p mailstore.Properties) []Property {
	out := make([]Property, 0, len(p))
	for k, v := range p {
		out = append(out, Property{Key: k, Value: v})
	}
	slices.SortFunc(out, func(a, b Property) int { return strings.Compare(a.Key, b.Key) })
	return out
}

// MessageDetail is the expanded view of the selected message.
type MessageDetail struct {
	To          []ContactSummary
	Cc          []ContactSummary
	Bcc         []ContactSummary
	Attachments []AttachmentSummary
	Body        string
	Properties  []Property
	Exports     []export.Action
	// Card is set for contact items.
	Card *ContactSummary
}

// PropertySource is anything the inspector can list.
type PropertySource struct {
	Label string
	Props mailstore.Properties
}

// PropertiesPage is the inspector's content.
type PropertiesPage struct {
	Title string
	Items []Property
}

// FolderProperties is the inspector source for a folder.
func FolderProperties(n FolderNode) PropertySource {
	var props mailstore.Properties
	if n.Folder != nil {
		props = n.Folder.Properties()
	}
	return PropertySource{Label: "Properties of folder: " + n.Name, Props: props}
}

// MessageProperties is the inspector source for a message.
func MessageProperties(s MessageSummary) PropertySource {
	var props mailstore.Properties
	if s.Message != nil {
		props = s.Message.Properties()
	}
	return PropertySource{Label: "Properties of message: " + s.Subject, Props: props}
}

// ContactProperties is the inspector source for a sender or recipient.
func ContactProperties(c ContactSummary) PropertySource {
	return PropertySource{Label: "Properties of contact: " + c.Name, Props: c.Props}
}

// AttachmentProperties is the inspector source for an attachment.
func AttachmentProperties(a AttachmentSummary) PropertySource {
	return PropertySource{Label: "Properties of attachment: " + a.DisplayName, Props: a.Props}
}

// Family groups message classes for icons and affordances.
type Family int

const (
	FamilyUnknown Family = iota
	FamilyNote
	FamilySecureNote
	FamilyContact
	FamilyAppointment
	FamilySchedule
	FamilyDocument
)

func (f Family) String() string {
	switch f {
	case FamilyNote:
		return "note"
	case FamilySecureNote:
		return "secure note"
	case FamilyContact:
		return "contact"
	case FamilyAppointment:
		return "appointment"
	case FamilySchedule:
		return "schedule"
	case FamilyDocument:
		return "document"
	default:
		return "unknown"
	}
}

// First match wins.
var classFamilies = []struct {
	pattern *regexp.Regexp
	family  Family
}{
	{regexp.MustCompile(`^IPM\.Note$`), FamilyNote},
	{regexp.MustCompile(`^IPM\.Note\.SMIME$`), FamilySecureNote},
	{regexp.MustCompile(`^IPM\.Contact$`), FamilyContact},
	{regexp.MustCompile(`^IPM\.Appointment$`), FamilyAppointment},
	{regexp.MustCompile(`^IPM\.Schedule`), FamilySchedule},
	{regexp.MustCompile(`^IPM\.Document`), FamilyDocument},
}

// ClassFamily maps a message class to its family.
func ClassFamily(messageClass string) Family {
	for _, cf := range classFamilies {
		if cf.pattern.MatchString(messageClass) {
			return cf.family
		}
	}
	return FamilyUnknown
}
