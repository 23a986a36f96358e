package tui

import (
	"context"
	"log/slog"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/wesm/pstview/internal/browser"
	"github.com/wesm/pstview/internal/export"
	"github.com/wesm/pstview/internal/mailstore"
	"github.com/wesm/pstview/internal/mailstore/mailstoretest"
)

// ansiStart is the escape sequence prefix found in styled terminal output.
const ansiStart = "\x1b["

// colorProfileMu serializes tests that mutate the global lipgloss color profile.
var colorProfileMu sync.Mutex

// forceColorProfile sets lipgloss to ANSI color output for tests that assert
// on styled output. It restores the original profile via t.Cleanup.
func forceColorProfile(t *testing.T) {
	t.Helper()
	colorProfileMu.Lock()
	orig := lipgloss.ColorProfile()
	lipgloss.SetColorProfile(termenv.ANSI)
	t.Cleanup(func() {
		lipgloss.SetColorProfile(orig)
		colorProfileMu.Unlock()
	})
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]`)

func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

// recordingSink records deliveries instead of writing files.
type recordingSink struct {
	mu    sync.Mutex
	names []string
	err   error
}

func (r *recordingSink) Deliver(_ context.Context, data []byte, name, _ string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return "", r.err
	}
	r.names = append(r.names, name)
	return "/exports/" + name, nil
}

func (r *recordingSink) delivered() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.names...)
}

// newArchive builds the archive used across TUI tests:
//
//	(unnamed root)
//	  Inbox     note, contact
//	  Archive   (empty)
func newArchive() *mailstoretest.Store {
	nested := &mailstoretest.Message{SubjectText: "Original request", Class: mailstore.ClassNote, BodyText: "Numbers please."}
	note := &mailstoretest.Message{
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
			{Name: "Original request", How: mailstore.AttachEmbedded, Nested: nested},
			{Name: "diagram", How: mailstore.AttachOLE},
		},
		BodyText: "See attached.",
	}
	contact := &mailstoretest.Message{
		SubjectText: "Bob Smith",
		Class:       mailstore.ClassContact,
		Contact:     true,
		Props:       mailstore.Properties{"email1_email_address": "bob@example.com"},
	}
	inbox := &mailstoretest.Folder{FolderName: "Inbox", Items: []*mailstoretest.Message{note, contact}}
	archive := &mailstoretest.Folder{FolderName: "Archive", Props: mailstore.Properties{"display_name": "Archive", "content_count": "0"}}
	root := &mailstoretest.Folder{Children: []*mailstoretest.Folder{inbox, archive}}
	return &mailstoretest.Store{Name: "archive.pst", Root: root}
}

// =============================================================================
// Test Fixtures
// =============================================================================

// TestModelBuilder helps construct Model instances for testing
type TestModelBuilder struct {
	width   int
	height  int
	store   *mailstoretest.Store
	openErr error
	sink    *recordingSink
	source  string
	opened  bool
}

func NewBuilder() *TestModelBuilder {
	return &TestModelBuilder{
		width:  100,
		height: 24,
		store:  newArchive(),
		sink:   &recordingSink{},
	}
}

func (b *TestModelBuilder) WithSize(width, height int) *TestModelBuilder {
	b.width = width
	b.height = height
	return b
}

// WithOpenError makes the first store open fail with err. Later opens
// succeed.
func (b *TestModelBuilder) WithOpenError(err error) *TestModelBuilder {
	b.openErr = err
	return b
}

// WithSource prefills the path input.
func (b *TestModelBuilder) WithSource(path string) *TestModelBuilder {
	b.source = path
	return b
}

// Opened opens the archive and loads its folder list during Build.
func (b *TestModelBuilder) Opened() *TestModelBuilder {
	b.opened = true
	return b
}

func (b *TestModelBuilder) Build(t *testing.T) Model {
	t.Helper()
	opens := 0
	succeed := b.store.Opener(nil, nil)
	opener := func(ctx context.Context, src mailstore.ByteSource, opts mailstore.OpenOptions) (mailstore.Store, error) {
		opens++
		if opens == 1 && b.openErr != nil {
			return nil, b.openErr
		}
		return succeed(ctx, src, opts)
	}
	session := browser.New(browser.Options{
		Opener: opener,
		OpenSource: func(path string) (mailstore.ByteSource, error) {
			return &mailstoretest.Source{FileName: path}, nil
		},
		Resolver: export.NewResolver(nil),
		Sink:     b.sink,
		Logger:   slog.New(slog.DiscardHandler),
	})
	session.SetSource(b.source)
	t.Cleanup(func() { session.Close() })

	m := New(session, Options{Version: "test123"})
	m.tick = noTick
	m, _ = sendMsg(t, m, tea.WindowSizeMsg{Width: b.width, Height: b.height})

	if b.opened {
		m.pathInput.SetValue("archive.pst")
		var cmd tea.Cmd
		m, cmd = sendKey(t, m, keyEnter())
		m = drive(t, m, cmd)
		if m.session.View() != browser.ViewFolders {
			t.Fatalf("after open: view %v, open task %+v", m.session.View(), m.session.OpenTask())
		}
	}
	return m
}

// buildWithStore is Build that also returns the archive for assertions.
func (b *TestModelBuilder) buildWithStore(t *testing.T) (Model, *mailstoretest.Store, *recordingSink) {
	t.Helper()
	return b.Build(t), b.store, b.sink
}

// noTick replaces tea.Tick so tests never wait on timers.
func noTick(time.Duration, func(time.Time) tea.Msg) tea.Cmd { return nil }

// sendKey sends a key message to the model and returns the updated concrete Model.
func sendKey(t *testing.T, m Model, k tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	newM, cmd := m.Update(k)
	return newM.(Model), cmd
}

// sendMsg sends any tea.Msg through Update and returns the concrete Model.
func sendMsg(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	newM, cmd := m.Update(msg)
	return newM.(Model), cmd
}

const browserPkg = "github.com/wesm/pstview/internal/browser"

// drive runs cmd and everything it leads to synchronously, feeding load
// results and action results back into the model. Other messages (cursor
// blinks and the like) are dropped so no timer is ever awaited.
func drive(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
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
		if msg == nil || reflect.TypeOf(msg).PkgPath() != browserPkg {
			continue
		}
		var next tea.Cmd
		m, next = sendMsg(t, m, msg)
		queue = append(queue, next)
	}
	return m
}

// press sends k and drives whatever it started.
func press(t *testing.T, m Model, k tea.KeyMsg) Model {
	t.Helper()
	m, cmd := sendKey(t, m, k)
	return drive(t, m, cmd)
}

// pressAll presses each key in turn.
func pressAll(t *testing.T, m Model, keys ...tea.KeyMsg) Model {
	t.Helper()
	for _, k := range keys {
		m = press(t, m, k)
	}
	return m
}

// key returns a KeyMsg for a single rune.
func key(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// keyEnter returns a KeyMsg for the Enter key
func keyEnter() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyEnter}
}

// keyEsc returns a KeyMsg for the Escape key
func keyEsc() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyEscape}
}

// keyDown returns a KeyMsg for the Down arrow key
func keyDown() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyDown}
}

// keyUp returns a KeyMsg for the Up arrow key
func keyUp() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyUp}
}

// keyTab returns a KeyMsg for the Tab key
func keyTab() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyTab}
}

// openInboxNote opens the archive, the Inbox, and the first message.
func openInboxNote(t *testing.T) Model {
	t.Helper()
	m := NewBuilder().Opened().Build(t)
	m = pressAll(t, m, keyDown(), keyEnter(), keyEnter())
	assertView(t, m, browser.ViewMessageDetail)
	if m.session.Phase() != browser.PhaseLoaded {
		t.Fatalf("detail phase = %v, err %v", m.session.Phase(), m.session.Err())
	}
	return m
}

// moveDetailCursorTo moves the detail cursor onto the first item whose
// rendered line contains text.
func moveDetailCursorTo(t *testing.T, m Model, text string) Model {
	t.Helper()
	lines, itemLines := m.buildDetailLines()
	for i, line := range itemLines {
		if strings.Contains(lines[line], text) {
			for m.detail.cursor < i {
				m, _ = sendKey(t, m, keyDown())
			}
			return m
		}
	}
	t.Fatalf("no detail item containing %q", text)
	return m
}

func assertView(t *testing.T, m Model, want browser.View) {
	t.Helper()
	if got := m.session.View(); got != want {
		t.Errorf("view = %v, want %v", got, want)
	}
}

func assertRendered(t *testing.T, m Model, wants ...string) {
	t.Helper()
	out := stripANSI(m.View())
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q:\n%s", want, out)
		}
	}
}

func assertNotRendered(t *testing.T, m Model, unwanted string) {
	t.Helper()
	if out := stripANSI(m.View()); strings.Contains(out, unwanted) {
		t.Errorf("view unexpectedly contains %q:\n%s", unwanted, out)
	}
}
