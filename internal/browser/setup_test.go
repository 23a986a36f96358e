package browser

import (
	"context"
	"log/slog"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wesm/pstview/internal/export"
	"github.com/wesm/pstview/internal/mailstore"
	"github.com/wesm/pstview/internal/mailstore/mailstoretest"
)

// msgConverter stands in for an archival .msg writer.
type msgConverter struct{}

func (msgConverter) Convert(_ context.Context, msg mailstore.Message) ([]byte, error) {
	return []byte("msg:" + msg.Subject()), nil
}

// recordingSink records deliveries instead of writing files.
type recordingSink struct {
	names      []string
	mediaTypes []string
	sizes      []int
}

func (r *recordingSink) Deliver(_ context.Context, data []byte, name, mediaType string) (string, error) {
	r.names = append(r.names, name)
	r.mediaTypes = append(r.mediaTypes, mediaType)
	r.sizes = append(r.sizes, len(data))
	return "/exports/" + name, nil
}

// fixture is a small archive:
//
//	(unnamed root)
//	  Inbox     note, contact
//	  Archive   document
//	    2019
type fixture struct {
	store   *mailstoretest.Store
	root    *mailstoretest.Folder
	inbox   *mailstoretest.Folder
	archive *mailstoretest.Folder
	year    *mailstoretest.Folder
	note    *mailstoretest.Message
	nested  *mailstoretest.Message
	contact *mailstoretest.Message
	doc     *mailstoretest.Message
	sink    *recordingSink
	opts    mailstore.OpenOptions
	withMSG bool
}

func newFixture() *fixture {
	f := &fixture{sink: &recordingSink{}, withMSG: true}
	f.nested = &mailstoretest.Message{
		SubjectText: "Original request",
		Class:       mailstore.ClassNote,
		BodyText:    "Can you send the numbers?",
	}
	f.note = &mailstoretest.Message{
		SubjectText: "Quarterly numbers",
		Class:       mailstore.ClassNote,
		From:        &mailstore.Contact{AddrType: "SMTP", Address: "alice@example.com", DisplayName: "Alice"},
		To: []mailstore.Recipient{
			{Contact: mailstore.Contact{AddrType: "SMTP", Address: "bob@example.com", DisplayName: "Bob"}, Type: mailstore.RecipientTo},
			{Contact: mailstore.Contact{AddrType: "SMTP", Address: "carol@example.com", DisplayName: "Carol"}, Type: mailstore.RecipientCc},
			{Contact: mailstore.Contact{AddrType: "EX", Address: "/o=corp/cn=dave", DisplayName: "Dave"}, Type: mailstore.RecipientBcc},
		},
		Files: []*mailstoretest.Attachment{
			{Name: "report.csv", How: mailstore.AttachByValue, Payload: []byte("a,b\n")},
			{Name: "Original request", How: mailstore.AttachEmbedded, Nested: f.nested},
			{Name: "diagram", How: mailstore.AttachOLE},
		},
		BodyText: "See attached.",
		Props: mailstore.Properties{
			"subject":       "Quarterly numbers",
			"message_class": mailstore.ClassNote,
			"importance":    "1",
		},
	}
	f.contact = &mailstoretest.Message{
		SubjectText: "Bob Smith",
		Class:       mailstore.ClassContact,
		Contact:     true,
		Display:     "Bob Smith",
		Props:       mailstore.Properties{"email1_email_address": "bob@example.com"},
	}
	f.doc = &mailstoretest.Message{SubjectText: "Plan.docx", Class: "IPM.Document.Word.Document.12"}

	f.inbox = &mailstoretest.Folder{FolderName: "Inbox", Items: []*mailstoretest.Message{f.note, f.contact}}
	f.year = &mailstoretest.Folder{FolderName: "2019"}
	f.archive = &mailstoretest.Folder{FolderName: "Archive", Items: []*mailstoretest.Message{f.doc}, Children: []*mailstoretest.Folder{f.year}}
	f.root = &mailstoretest.Folder{Children: []*mailstoretest.Folder{f.inbox, f.archive}}
	f.store = &mailstoretest.Store{Name: "archive.pst", Root: f.root}
	return f
}

func (f *fixture) options() Options {
	resolver := export.NewResolver(nil)
	if f.withMSG {
		resolver.MSG = msgConverter{}
	}
	return Options{
		Opener: f.store.Opener(nil, &f.opts),
		OpenSource: func(path string) (mailstore.ByteSource, error) {
			return &mailstoretest.Source{FileName: path}, nil
		},
		Resolver: resolver,
		Sink:     f.sink,
		Logger:   slog.New(slog.DiscardHandler),
	}
}

func (f *fixture) session() *Session {
	return New(f.options())
}

// openSession returns a session with the fixture store opened and its
// folder list loaded.
func openSession(t *testing.T, f *fixture) *Session {
	t.Helper()
	s := f.session()
	s.SetSource("archive.pst")
	run(t, s, s.Dispatch(Command{OpenStore: true}))
	if s.View() != ViewFolders || s.Phase() != PhaseLoaded {
		t.Fatalf("after open: view %v phase %v err %v", s.View(), s.Phase(), s.OpenTask().Err)
	}
	return s
}

// run executes cmd synchronously, feeding every result back into the
// session until no work remains. Messages the session does not handle are
// returned.
func run(t *testing.T, s *Session, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	var unhandled []tea.Msg
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		msg := c()
		if batch, ok := msg.(tea.BatchMsg); ok {
			queue = append(queue, batch...)
			continue
		}
		next, handled := s.Update(msg)
		if !handled {
			unhandled = append(unhandled, msg)
			continue
		}
		queue = append(queue, next)
	}
	return unhandled
}

// folderByName finds a flattened folder node.
func folderByName(t *testing.T, s *Session, name string) FolderNode {
	t.Helper()
	for _, n := range s.Folders() {
		if n.Name == name {
			return n
		}
	}
	t.Fatalf("folder %q not found", name)
	return FolderNode{}
}

// messageBySubject finds a message in the loaded list.
func messageBySubject(t *testing.T, s *Session, subject string) MessageSummary {
	t.Helper()
	for _, m := range s.Messages() {
		if m.Subject == subject {
			return m
		}
	}
	t.Fatalf("message %q not found", subject)
	return MessageSummary{}
}

func exportLabels(d *MessageDetail) []string {
	var out []string
	for _, a := range d.Exports {
		out = append(out, a.Label)
	}
	return out
}

func messageKeys(s *Session) []string {
	var out []string
	for _, m := range s.Messages() {
		out = append(out, m.Key)
	}
	return out
}

func assertView(t *testing.T, s *Session, view View, phase Phase) {
	t.Helper()
	if s.View() != view || s.Phase() != phase {
		t.Errorf("view = %v/%v, want %v/%v (err %v)", s.View(), s.Phase(), view, phase, s.Err())
	}
}

func assertDepth(t *testing.T, s *Session, want int) {
	t.Helper()
	if got := s.Depth(); got != want {
		t.Errorf("stack depth = %d, want %d (%v)", got, want, s.Breadcrumbs())
	}
}
