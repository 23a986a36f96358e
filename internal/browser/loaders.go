package browser

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wesm/pstview/internal/export"
	"github.com/wesm/pstview/internal/mailstore"
)

// UnnamedFolder is shown for folders with an empty name.
const UnnamedFolder = "(Unnamed Folder)"

// storeOpenedMsg is sent when the open task finishes.
type storeOpenedMsg struct {
	gen   uint64
	store mailstore.Store
	src   mailstore.ByteSource
	err   error
}

// foldersLoadedMsg is sent when the folder tree has been flattened.
type foldersLoadedMsg struct {
	gen   uint64
	nodes []FolderNode
	err   error
}

// messagesLoadedMsg is sent when a folder's messages are fetched.
type messagesLoadedMsg struct {
	gen      uint64
	messages []mailstore.Message
	err      error
}

// detailLoadedMsg is sent when a message's detail is resolved.
type detailLoadedMsg struct {
	gen    uint64
	detail *MessageDetail
	err    error
}

// embeddedOpenedMsg is sent when a nested message attachment is opened.
type embeddedOpenedMsg struct {
	gen     uint64
	name    string
	message mailstore.Message
	err     error
}

// ActionResultMsg reports a finished export, download, or view request.
// The session does not consume it; the UI shows it.
type ActionResultMsg struct {
	Action string
	Path   string
	Size   int
	Err    error
}

func (s *Session) startOpen() tea.Cmd {
	s.openGen++
	gen := s.openGen
	s.openTask = OpenTask{State: TaskLoading}

	path, opener, openSource := s.sourcePath, s.opener, s.openSource
	opts := mailstore.OpenOptions{ANSIEncoding: s.encoding}
	ctx := s.ctx
	s.log.Info("opening store", "path", path, "encoding", opts.ANSIEncoding)

	return func() (msg tea.Msg) {
		var src mailstore.ByteSource
		defer func() {
			if r := recover(); r != nil {
				if src != nil {
					src.Close()
				}
				msg = storeOpenedMsg{gen: gen, err: fmt.Errorf("open panic: %v", r)}
			}
		}()

		if path == "" {
			return storeOpenedMsg{gen: gen, err: mailstore.ErrNoSource}
		}
		if opener == nil {
			return storeOpenedMsg{gen: gen, err: errors.New("no store parser configured")}
		}
		var err error
		src, err = openSource(path)
		if err != nil {
			return storeOpenedMsg{gen: gen, err: err}
		}
		store, err := opener(ctx, src, opts)
		if err != nil {
			src.Close()
			return storeOpenedMsg{gen: gen, err: err}
		}
		return storeOpenedMsg{gen: gen, store: store, src: src}
	}
}

func (s *Session) loadFolders(store mailstore.Store, gen uint64) tea.Cmd {
	ctx := s.loadContext()
	return func() (msg tea.Msg) {
		defer func() {
			if r := recover(); r != nil {
				msg = foldersLoadedMsg{gen: gen, err: fmt.Errorf("folders panic: %v", r)}
			}
		}()
		root, err := store.RootFolder(ctx)
		if err != nil {
			return foldersLoadedMsg{gen: gen, err: fmt.Errorf("open root folder: %w", err)}
		}
		nodes, err := FlattenFolders(ctx, root)
		return foldersLoadedMsg{gen: gen, nodes: nodes, err: err}
	}
}

// FlattenFolders walks the tree under root depth-first in pre-order,
// recording each folder's depth (root is 0) and direct message count.
// List keys are left empty.
func FlattenFolders(ctx context.Context, root mailstore.Folder) ([]FolderNode, error) {
	if root == nil {
		return nil, nil
	}
	var out []FolderNode
	var walk func(f mailstore.Folder, depth int) error
	walk = func(f mailstore.Folder, depth int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := f.Name()
		if name == "" {
			name = UnnamedFolder
		}
		count, err := f.MessageCount(ctx)
		if err != nil {
			return fmt.Errorf("count messages in %q: %w", name, err)
		}
		out = append(out, FolderNode{Depth: depth, Name: name, ItemCount: count, Folder: f})
		subs, err := f.SubFolders(ctx)
		if err != nil {
			return fmt.Errorf("list subfolders of %q: %w", name, err)
		}
		for _, sub := range subs {
			if err := walk(sub, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(root, 0); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Session) loadMessages(node FolderNode, gen uint64) tea.Cmd {
	ctx := s.loadContext()
	return func() (msg tea.Msg) {
		defer func() {
			if r := recover(); r != nil {
				msg = messagesLoadedMsg{gen: gen, err: fmt.Errorf("messages panic: %v", r)}
			}
		}()
		if node.Folder == nil {
			return messagesLoadedMsg{gen: gen}
		}
		messages, err := node.Folder.Messages(ctx)
		if err != nil {
			err = fmt.Errorf("list messages in %q: %w", node.Name, err)
		}
		return messagesLoadedMsg{gen: gen, messages: messages, err: err}
	}
}

func (s *Session) loadDetail(summary MessageSummary, gen uint64) tea.Cmd {
	ctx := s.loadContext()
	resolver := s.resolver
	storeOpen := s.store != nil
	return func() (msg tea.Msg) {
		defer func() {
			if r := recover(); r != nil {
				msg = detailLoadedMsg{gen: gen, err: fmt.Errorf("detail panic: %v", r)}
			}
		}()
		detail, err := ResolveDetail(ctx, summary.Message, resolver, storeOpen)
		return detailLoadedMsg{gen: gen, detail: detail, err: err}
	}
}

// ResolveDetail fetches, in order, recipients, attachments, body, the
// property listing and the applicable export actions of msg.
func ResolveDetail(ctx context.Context, msg mailstore.Message, resolver *export.Resolver, storeOpen bool) (*MessageDetail, error) {
	if msg == nil {
		return nil, errors.New("message unavailable")
	}
	d := &MessageDetail{}

	recipients, err := msg.Recipients(ctx)
	if err != nil {
		return nil, fmt.Errorf("read recipients: %w", err)
	}
	for _, r := range recipients {
		c := contactSummary(r.Contact)
		switch r.Type {
		case mailstore.RecipientTo:
			d.To = append(d.To, c)
		case mailstore.RecipientCc:
			d.Cc = append(d.Cc, c)
		case mailstore.RecipientBcc:
			d.Bcc = append(d.Bcc, c)
		}
	}

	atts, err := msg.Attachments(ctx)
	if err != nil {
		return nil, fmt.Errorf("read attachments: %w", err)
	}
	for _, a := range atts {
		d.Attachments = append(d.Attachments, SummarizeAttachment(a))
	}

	if d.Body, err = msg.Body(ctx); err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	props := msg.Properties()
	d.Properties = SortedProperties(props)

	if resolver != nil {
		d.Exports = resolver.Actions(msg, storeOpen)
	}

	if msg.IsContact() {
		d.Card = &ContactSummary{
			Name:     msg.DisplayName(),
			AddrType: "SMTP",
			Email:    props.First("email1_email_address", "email_address"),
			Props:    props,
		}
	}
	return d, nil
}

func (s *Session) exportCmd(action export.Action) tea.Cmd {
	ctx, sink := s.loadContext(), s.sink
	return func() (msg tea.Msg) {
		defer func() {
			if r := recover(); r != nil {
				msg = ActionResultMsg{Action: action.Label, Err: fmt.Errorf("export panic: %v", r)}
			}
		}()
		data, err := action.Run(ctx)
		if err != nil {
			return ActionResultMsg{Action: action.Label, Err: err}
		}
		return deliver(ctx, sink, action.Label, data, action.FileName, action.MediaType)
	}
}

func deliver(ctx context.Context, sink export.Sink, label string, data []byte, name, mediaType string) ActionResultMsg {
	if sink == nil {
		return ActionResultMsg{Action: label, Err: errors.New("no download location configured")}
	}
	path, err := sink.Deliver(ctx, data, name, mediaType)
	if err != nil {
		return ActionResultMsg{Action: label, Err: err}
	}
	return ActionResultMsg{Action: label, Path: path, Size: len(data)}
}

// DownloadAttachment sends the attachment's bytes to the sink. It returns
// nil for attachments without a file provider.
func (s *Session) DownloadAttachment(att AttachmentSummary) tea.Cmd {
	if att.ProvideFile == nil {
		return nil
	}
	ctx, sink := s.loadContext(), s.sink
	label := "Download " + att.DisplayName
	return func() (msg tea.Msg) {
		defer func() {
			if r := recover(); r != nil {
				msg = ActionResultMsg{Action: label, Err: fmt.Errorf("download panic: %v", r)}
			}
		}()
		data, err := att.ProvideFile(ctx)
		if err != nil {
			return ActionResultMsg{Action: label, Err: err}
		}
		if data == nil {
			return ActionResultMsg{Action: label, Err: export.ErrNoPayload}
		}
		return deliver(ctx, sink, label, data, att.DisplayName, export.MediaOctetStream)
	}
}

// OpenEmbedded opens a nested message and browses it. It returns nil for
// attachments without an embedded provider.
func (s *Session) OpenEmbedded(att AttachmentSummary) tea.Cmd {
	if att.ProvideEmbedded == nil {
		return nil
	}
	ctx := s.loadContext()
	gen := s.detailGen
	name := att.DisplayName
	return func() (msg tea.Msg) {
		defer func() {
			if r := recover(); r != nil {
				msg = embeddedOpenedMsg{gen: gen, name: name, err: fmt.Errorf("embedded panic: %v", r)}
			}
		}()
		m, err := att.ProvideEmbedded(ctx)
		return embeddedOpenedMsg{gen: gen, name: name, message: m, err: err}
	}
}

// Update applies a load result. handled is false for messages the session
// does not own.
func (s *Session) Update(msg tea.Msg) (cmd tea.Cmd, handled bool) {
	switch msg := msg.(type) {
	case storeOpenedMsg:
		return s.onStoreOpened(msg), true
	case foldersLoadedMsg:
		s.onFoldersLoaded(msg)
		return nil, true
	case messagesLoadedMsg:
		s.onMessagesLoaded(msg)
		return nil, true
	case detailLoadedMsg:
		s.onDetailLoaded(msg)
		return nil, true
	case embeddedOpenedMsg:
		return s.onEmbeddedOpened(msg), true
	}
	return nil, false
}

func (s *Session) onStoreOpened(msg storeOpenedMsg) tea.Cmd {
	if msg.gen != s.openGen {
		s.log.Debug("dropping stale store open", "gen", msg.gen, "current", s.openGen)
		if msg.store != nil {
			msg.store.Close()
		}
		if msg.src != nil {
			msg.src.Close()
		}
		return nil
	}
	if msg.err == nil && msg.store == nil {
		if msg.src != nil {
			msg.src.Close()
		}
		msg.err = errors.New("archive has no readable store")
	}
	if msg.err != nil {
		s.log.Warn("store open failed", "path", s.sourcePath, "error", msg.err)
		s.openTask = OpenTask{State: TaskFailed, Err: msg.err}
		return nil
	}

	if s.store != nil {
		if err := s.closeStore(); err != nil {
			s.log.Warn("closing previous store", "error", err)
		}
		s.resetDerived()
	}
	s.store = msg.store
	s.src = msg.src
	s.storeName = msg.store.DisplayName()
	if s.storeName == "" && msg.src != nil {
		s.storeName = msg.src.Name()
	}
	s.storeCtx, s.cancelStore = context.WithCancel(s.ctx)
	s.openTask = OpenTask{State: TaskSucceeded}
	s.log.Info("store opened", "name", s.storeName)

	s.foldersGen++
	s.foldersPhase = PhaseLoading
	s.foldersErr = nil
	return s.loadFolders(s.store, s.foldersGen)
}

func (s *Session) onFoldersLoaded(msg foldersLoadedMsg) {
	if msg.gen != s.foldersGen {
		s.log.Debug("dropping stale folder list", "gen", msg.gen, "current", s.foldersGen)
		return
	}
	if msg.err != nil {
		s.log.Warn("folder enumeration failed", "error", msg.err)
		s.foldersPhase = PhaseFailed
		s.foldersErr = msg.err
	} else {
		for i := range msg.nodes {
			msg.nodes[i].Key = s.ids.Next()
		}
		s.folders = msg.nodes
		s.foldersPhase = PhaseLoaded
		s.log.Info("folders loaded", "count", len(msg.nodes))
	}
	s.stack.Push(frame{
		Label:   s.storeName,
		Restore: Command{CloseToFolderList: true},
		Leave:   LeaveNothing,
	})
}

func (s *Session) onMessagesLoaded(msg messagesLoadedMsg) {
	if msg.gen != s.messagesGen {
		s.log.Debug("dropping stale message list", "gen", msg.gen, "current", s.messagesGen)
		return
	}
	if msg.err != nil {
		s.log.Warn("message enumeration failed", "error", msg.err)
		s.messagesPhase = PhaseFailed
		s.messagesErr = msg.err
		return
	}
	summaries := make([]MessageSummary, len(msg.messages))
	for i, m := range msg.messages {
		summaries[i] = Summarize(m, s.ids.Next())
	}
	s.messages = summaries
	s.messagesPhase = PhaseLoaded
}

func (s *Session) onDetailLoaded(msg detailLoadedMsg) {
	if msg.gen != s.detailGen {
		s.log.Debug("dropping stale message detail", "gen", msg.gen, "current", s.detailGen)
		return
	}
	if msg.err != nil {
		s.log.Warn("message detail failed", "error", msg.err)
		s.detailPhase = PhaseFailed
		s.detailErr = msg.err
		return
	}
	s.detail = msg.detail
	s.detailPhase = PhaseLoaded
}

func (s *Session) onEmbeddedOpened(msg embeddedOpenedMsg) tea.Cmd {
	if msg.gen != s.detailGen {
		s.log.Debug("dropping stale embedded message", "name", msg.name)
		return nil
	}
	if msg.err != nil {
		action := "View " + msg.name
		err := msg.err
		return func() tea.Msg { return ActionResultMsg{Action: action, Err: err} }
	}
	if msg.message == nil {
		return nil
	}
	return s.BrowseMessage(Summarize(msg.message, s.ids.Next()))
}
