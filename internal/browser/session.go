// Package browser holds the navigation state machine of the archive browser:
// which view is active, what is selected, the back stack, and the
// asynchronous loads each navigation step triggers.
//
// A Session is driven from a single event loop. Dispatch and the navigation
// methods mutate state and return a tea.Cmd for any load they start; the
// loads run off the loop and report back through Update. Every slot carries
// a generation number, and a result whose generation no longer matches is
// dropped, so a slow superseded load never overwrites a newer selection.
package browser

import (
	"context"
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/wesm/pstview/internal/export"
	"github.com/wesm/pstview/internal/mailstore"
	"github.com/wesm/pstview/internal/navigation"
	"github.com/wesm/pstview/internal/textutil"
)

// UnmountedTitle is shown when no frame exists.
const UnmountedTitle = "(Unmounted)"

// Options configures a Session.
type Options struct {
	// Opener parses a store from a byte source. Required.
	Opener mailstore.Opener
	// OpenSource opens the selected path. Defaults to mailstore.OpenFile.
	OpenSource func(path string) (mailstore.ByteSource, error)
	Resolver   *export.Resolver
	Sink       export.Sink
	Logger     *slog.Logger
	// Encoding is the legacy ANSI encoding name. Defaults to windows-1252.
	Encoding string
	Context  context.Context
}

type frame = navigation.Frame[Command, Leave]

// Session is the state of one browsing session. Use New.
type Session struct {
	id         string
	opener     mailstore.Opener
	openSource func(string) (mailstore.ByteSource, error)
	resolver   *export.Resolver
	sink       export.Sink
	log        *slog.Logger
	ctx        context.Context

	sourcePath string
	encoding   string

	openTask OpenTask
	openGen  uint64

	store       mailstore.Store
	src         mailstore.ByteSource
	storeName   string
	storeCtx    context.Context
	cancelStore context.CancelFunc

	folders      []FolderNode
	foldersPhase Phase
	foldersErr   error
	foldersGen   uint64

	selectedFolder *FolderNode
	messages       []MessageSummary
	messagesPhase  Phase
	messagesErr    error
	messagesGen    uint64

	selectedMessage *MessageSummary
	detail          *MessageDetail
	detailPhase     Phase
	detailErr       error
	detailGen       uint64

	properties *PropertiesPage

	stack navigation.Stack[Command, Leave]
	ids   IDGen
}

// New creates a session.
func New(opts Options) *Session {
	s := &Session{
		id:         uuid.NewString(),
		opener:     opts.Opener,
		openSource: opts.OpenSource,
		resolver:   opts.Resolver,
		sink:       opts.Sink,
		log:        opts.Logger,
		ctx:        opts.Context,
		encoding:   opts.Encoding,
	}
	if s.openSource == nil {
		s.openSource = func(path string) (mailstore.ByteSource, error) {
			return mailstore.OpenFile(path)
		}
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	s.log = s.log.With("session", s.id)
	if s.ctx == nil {
		s.ctx = context.Background()
	}
	if s.encoding == "" {
		s.encoding = textutil.DefaultANSIEncoding
	}
	return s
}

// ID returns the session id used in log lines.
func (s *Session) ID() string { return s.id }

// View derives the active view. Properties take precedence over the message
// detail, which takes precedence over the message list, then the folder list.
func (s *Session) View() View {
	switch {
	case s.properties != nil:
		return ViewProperties
	case s.selectedMessage != nil:
		return ViewMessageDetail
	case s.selectedFolder != nil:
		return ViewMessages
	case s.store != nil:
		return ViewFolders
	default:
		return ViewUnopened
	}
}

// Phase returns the load state of the active view's data.
func (s *Session) Phase() Phase {
	switch s.View() {
	case ViewProperties:
		return PhaseLoaded
	case ViewMessageDetail:
		return s.detailPhase
	case ViewMessages:
		return s.messagesPhase
	case ViewFolders:
		return s.foldersPhase
	default:
		return PhaseIdle
	}
}

// Err returns the load error of the active view, if its phase is Failed.
func (s *Session) Err() error {
	switch s.View() {
	case ViewMessageDetail:
		return s.detailErr
	case ViewMessages:
		return s.messagesErr
	case ViewFolders:
		return s.foldersErr
	default:
		return nil
	}
}

// Title is the label of the top frame.
func (s *Session) Title() string {
	if top, ok := s.stack.Top(); ok {
		return top.Label
	}
	return UnmountedTitle
}

// Breadcrumbs lists frame labels from the root up.
func (s *Session) Breadcrumbs() []string { return s.stack.Labels() }

// Depth is the number of frames on the stack.
func (s *Session) Depth() int { return s.stack.Len() }

// CanGoBack reports whether GoBack would do anything.
func (s *Session) CanGoBack() bool { return s.stack.CanGoBack() }

func (s *Session) SourcePath() string               { return s.sourcePath }
func (s *Session) Encoding() string                 { return s.encoding }
func (s *Session) OpenTask() OpenTask               { return s.openTask }
func (s *Session) StoreOpen() bool                  { return s.store != nil }
func (s *Session) StoreName() string                { return s.storeName }
func (s *Session) Folders() []FolderNode            { return s.folders }
func (s *Session) SelectedFolder() *FolderNode      { return s.selectedFolder }
func (s *Session) Messages() []MessageSummary       { return s.messages }
func (s *Session) SelectedMessage() *MessageSummary { return s.selectedMessage }
func (s *Session) Detail() *MessageDetail           { return s.detail }
func (s *Session) Properties() *PropertiesPage      { return s.properties }

// SetSource chooses the archive path for the next open.
func (s *Session) SetSource(path string) { s.sourcePath = path }

// SetEncoding sets the ANSI encoding name for the next open.
func (s *Session) SetEncoding(name string) error {
	if _, err := textutil.LookupEncoding(name); err != nil {
		return err
	}
	s.encoding = name
	return nil
}

// CanOpen reports whether an open may be started. Only one open task may be
// in flight.
func (s *Session) CanOpen() bool { return s.openTask.State != TaskLoading }

// BrowseFolder selects node and pushes its frame.
func (s *Session) BrowseFolder(node FolderNode) tea.Cmd {
	var cmd tea.Cmd
	if s.selectedFolder == nil || s.selectedFolder.Key != node.Key {
		cmd = s.selectFolder(node)
	}
	n := node
	s.stack.Push(frame{
		Label:   node.Name,
		Restore: Command{SelectFolder: &n},
		Leave:   LeaveFolder,
	})
	return cmd
}

// BrowseMessage selects summary and pushes its frame.
func (s *Session) BrowseMessage(summary MessageSummary) tea.Cmd {
	cmd := s.selectMessage(summary)
	m := summary
	s.stack.Push(frame{
		Label:   summary.Subject,
		Restore: Command{SelectMessage: &m},
		Leave:   LeaveMessage,
	})
	return cmd
}

// GoBack leaves the top frame and restores the one below it. It does
// nothing when fewer than two frames exist.
func (s *Session) GoBack() tea.Cmd {
	left, top, ok := s.stack.Back()
	if !ok {
		return nil
	}
	return s.unwind(left, top)
}

// JumpTo pops every frame above index i, leaving each, then restores frame i.
func (s *Session) JumpTo(i int) tea.Cmd {
	left, top, ok := s.stack.TruncateTo(i)
	if !ok {
		return nil
	}
	return s.unwind(left, top)
}

func (s *Session) unwind(left []frame, top frame) tea.Cmd {
	for _, f := range left {
		s.leave(f.Leave)
	}
	s.log.Debug("navigate", "to", top.Label, "depth", s.stack.Len())
	return s.apply(top.Restore, false)
}

// Eject closes the store and returns to the open screen. In-flight loads
// are cancelled and their results discarded.
func (s *Session) Eject() {
	if s.store != nil {
		s.log.Info("store ejected", "name", s.storeName)
	}
	s.closeStore()
	s.sourcePath = ""
	s.openTask = OpenTask{}
	s.openGen++
	s.resetDerived()
	s.ids.Reset()
}

// Close releases the store.
func (s *Session) Close() error {
	err := s.closeStore()
	s.resetDerived()
	return err
}

// resetDerived clears every slot derived from the open store.
func (s *Session) resetDerived() {
	s.folders = nil
	s.foldersPhase = PhaseIdle
	s.foldersErr = nil
	s.foldersGen++
	s.closeMessageList()
	s.properties = nil
	s.stack.Reset()
}

func (s *Session) closeStore() error {
	if s.cancelStore != nil {
		s.cancelStore()
		s.cancelStore = nil
	}
	var firstErr error
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			firstErr = fmt.Errorf("close store: %w", err)
		}
		s.store = nil
	}
	if s.src != nil {
		if err := s.src.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close source: %w", err)
		}
		s.src = nil
	}
	s.storeName = ""
	s.storeCtx = nil
	return firstErr
}

// loadContext is the context for store reads.
func (s *Session) loadContext() context.Context {
	if s.storeCtx != nil {
		return s.storeCtx
	}
	return s.ctx
}
