// Package tui provides a terminal user interface for pstview.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wesm/pstview/internal/browser"
	"github.com/wesm/pstview/internal/export"
)

// Options configuration for TUI.
type Options struct {
	Version string
}

// modalType represents the type of modal dialog.
type modalType int

const (
	modalNone modalType = iota
	modalNavigation
	modalQuitConfirm
	modalHelp
)

// openField is the focused input on the open screen.
type openField int

const (
	fieldPath openField = iota
	fieldEncoding
)

// listState is the cursor and scroll position of one list view.
type listState struct {
	cursor       int
	scrollOffset int
	// owner identifies the data the cursor belongs to; when it changes the
	// cursor starts over.
	owner string
}

// Model is the main TUI model following the Elm architecture.
type Model struct {
	session *browser.Session
	version string

	// Per-view positions
	folders    listState
	messages   listState
	detail     listState // cursor over the detail's actionable items
	properties listState

	detailScroll int

	// Open screen
	pathInput     textinput.Model
	encodingInput textinput.Model
	focus         openField
	openErr       error // input validation error shown on the open screen

	// Modal state
	modal       modalType
	modalCursor int
	helpScroll  int

	// Terminal dimensions
	width    int
	height   int
	pageSize int

	// Exports and downloads in flight
	pendingActions int

	spinnerFrame  int
	spinnerActive bool

	// Flash message (temporary notification)
	flashMessage   string
	flashExpiresAt time.Time

	// tick schedules timed messages; tests replace it.
	tick func(time.Duration, func(time.Time) tea.Msg) tea.Cmd

	quitting bool
}

// New creates a new TUI model over session. The initial path is taken from
// the session's source, so a file given on the command line is prefilled.
func New(session *browser.Session, opts Options) Model {
	path := textinput.New()
	path.Placeholder = "/path/to/archive.pst"
	path.CharLimit = 4096
	path.Width = 60
	path.SetValue(session.SourcePath())
	path.Focus()

	enc := textinput.New()
	enc.Placeholder = "windows-1252"
	enc.CharLimit = 64
	enc.Width = 20
	enc.SetValue(session.Encoding())

	return Model{
		session:       session,
		version:       opts.Version,
		pathInput:     path,
		encodingInput: enc,
		pageSize:      20,
		tick:          tea.Tick,
		// Init starts the spinner along with the open of a prefilled path.
		spinnerActive: session.SourcePath() != "",
	}
}

// Init implements tea.Model. A prefilled path is opened immediately.
func (m Model) Init() tea.Cmd {
	if m.session.SourcePath() == "" {
		return textinput.Blink
	}
	return tea.Batch(m.session.Dispatch(browser.Command{OpenStore: true}), m.spinnerTick())
}

// flashClearMsg clears the flash message after timeout.
type flashClearMsg struct{}

// spinnerTickMsg advances the loading spinner animation.
type spinnerTickMsg struct{}

// spinnerFrames are the Braille dot animation frames for the loading spinner.
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinnerInterval is how fast the spinner animates.
const spinnerInterval = 80 * time.Millisecond

// flashDuration is how long flash messages are displayed.
const flashDuration = 4 * time.Second

// spinnerTick returns a command that fires a spinnerTickMsg after the spinner interval.
func (m Model) spinnerTick() tea.Cmd {
	return m.tick(spinnerInterval, func(time.Time) tea.Msg {
		return spinnerTickMsg{}
	})
}

// startSpinner returns a spinnerTick command if the spinner isn't already active,
// and marks it as active. Call this when loading begins.
func (m *Model) startSpinner() tea.Cmd {
	if m.spinnerActive {
		return nil
	}
	m.spinnerActive = true
	m.spinnerFrame = 0
	return m.spinnerTick()
}

// loading reports whether anything the user is waiting on is in flight.
func (m Model) loading() bool {
	return m.session.OpenTask().State == browser.TaskLoading ||
		m.session.Phase() == browser.PhaseLoading ||
		m.pendingActions > 0
}

// withSpinner batches cmd with a spinner start when cmd begins work.
func (m *Model) withSpinner(cmd tea.Cmd) tea.Cmd {
	if cmd == nil {
		return nil
	}
	return tea.Batch(cmd, m.startSpinner())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Clamp dimensions to prevent panics from strings.Repeat with negative count
		if m.width < 0 {
			m.width = 0
		}
		if m.height < 0 {
			m.height = 0
		}
		// Reserve space for: title bar (1) + breadcrumb (1) + table header (1) + info line (1) + footer (1) = 5
		m.pageSize = m.height - 5
		if m.pageSize < 1 {
			m.pageSize = 1
		}
		m.syncPositions()
		return m, nil

	case browser.ActionResultMsg:
		if m.pendingActions > 0 {
			m.pendingActions--
		}
		if msg.Err != nil {
			return m.showFlash(fmt.Sprintf("%s failed: %v", msg.Action, msg.Err))
		}
		return m.showFlash(export.FormatResult(msg.Path, msg.Size))

	case flashClearMsg:
		// Clear flash message if it hasn't been updated since the timer started
		if time.Now().After(m.flashExpiresAt) || m.flashExpiresAt.IsZero() {
			m.flashMessage = ""
		}
		return m, nil

	case spinnerTickMsg:
		if m.loading() {
			m.spinnerFrame = (m.spinnerFrame + 1) % len(spinnerFrames)
			return m, m.spinnerTick()
		}
		m.spinnerActive = false
		return m, nil
	}

	if cmd, handled := m.session.Update(msg); handled {
		m.syncPositions()
		return m, cmd
	}

	// Cursor blink and other textinput messages
	if m.session.View() == browser.ViewUnopened {
		var cmd tea.Cmd
		if m.focus == fieldPath {
			m.pathInput, cmd = m.pathInput.Update(msg)
		} else {
			m.encodingInput, cmd = m.encodingInput.Update(msg)
		}
		return m, cmd
	}
	return m, nil
}

// syncPositions resets cursors whose underlying data changed and clamps the
// rest to the data now shown.
func (m *Model) syncPositions() {
	s := m.session

	resetIfOwnerChanged(&m.folders, s.StoreName()+"|"+fmt.Sprint(len(s.Folders())))
	clampList(&m.folders, len(s.Folders()), m.pageSize)

	folderKey := ""
	if f := s.SelectedFolder(); f != nil {
		folderKey = f.Key
	}
	resetIfOwnerChanged(&m.messages, folderKey)
	clampList(&m.messages, len(s.Messages()), m.pageSize)

	msgKey := ""
	if sel := s.SelectedMessage(); sel != nil {
		msgKey = sel.Key
		if s.Detail() != nil {
			msgKey += "|loaded"
		}
	}
	if m.detail.owner != msgKey {
		m.detailScroll = 0
	}
	resetIfOwnerChanged(&m.detail, msgKey)
	clampList(&m.detail, len(m.detailItems()), m.pageSize)

	propsTitle := ""
	if p := s.Properties(); p != nil {
		propsTitle = p.Title
		resetIfOwnerChanged(&m.properties, propsTitle)
		clampList(&m.properties, len(p.Items), m.pageSize)
	} else {
		resetIfOwnerChanged(&m.properties, "")
	}
}

func resetIfOwnerChanged(l *listState, owner string) {
	if l.owner != owner {
		*l = listState{owner: owner}
	}
}

func clampList(l *listState, n, pageSize int) {
	if l.cursor >= n {
		l.cursor = n - 1
	}
	if l.cursor < 0 {
		l.cursor = 0
	}
	l.scrollOffset = calculateScrollOffset(l.cursor, l.scrollOffset, pageSize)
}

// showFlash displays a temporary flash message.
func (m Model) showFlash(message string) (tea.Model, tea.Cmd) {
	m.flashMessage = message
	m.flashExpiresAt = time.Now().Add(flashDuration)
	return m, m.tick(flashDuration, func(time.Time) tea.Msg {
		return flashClearMsg{}
	})
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.width == 0 {
		return "Loading..."
	}

	view := m.renderView()
	if m.modal != modalNone {
		view = m.overlayModal(view)
	}
	return view
}

// renderView renders the current view based on the session's active view.
func (m Model) renderView() string {
	var body string
	switch m.session.View() {
	case browser.ViewUnopened:
		body = m.openView()
	case browser.ViewFolders:
		body = m.folderListView()
	case browser.ViewMessages:
		body = m.messageListView()
	case browser.ViewMessageDetail:
		body = m.messageDetailView()
	case browser.ViewProperties:
		body = m.propertiesView()
	}
	return fmt.Sprintf("%s\n%s\n%s", m.headerView(), body, m.footerView())
}
