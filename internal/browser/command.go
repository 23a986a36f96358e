package browser

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wesm/pstview/internal/export"
)

// Command is a batch of independent instructions. Each set field is applied
// once, in field order, against the state as it was before the dispatch.
type Command struct {
	CloseToFolderList bool
	// SelectFolder selects a different folder, or closes the open message
	// when it names the folder already selected.
	SelectFolder   *FolderNode
	SelectMessage  *MessageSummary
	OpenStore      bool
	ShowProperties *PropertySource
	ExportTo       *export.Action
}

// Leave tags what a frame clears when it is popped.
type Leave int

const (
	LeaveNothing Leave = iota
	LeaveFolder
	LeaveMessage
	LeaveProperties
)

func (l Leave) String() string {
	switch l {
	case LeaveNothing:
		return "nothing"
	case LeaveFolder:
		return "folder"
	case LeaveMessage:
		return "message"
	case LeaveProperties:
		return "properties"
	default:
		return "unknown"
	}
}

// Dispatch applies c and returns the loads it started.
func (s *Session) Dispatch(c Command) tea.Cmd {
	return s.apply(c, true)
}

// apply interprets c. Restoring a properties frame re-runs ShowProperties
// with push false so the frame is not duplicated.
func (s *Session) apply(c Command, push bool) tea.Cmd {
	prevFolder := s.selectedFolder
	var cmds []tea.Cmd

	if c.CloseToFolderList {
		s.closeMessageList()
	}
	if c.SelectFolder != nil {
		if prevFolder != nil && prevFolder.Key == c.SelectFolder.Key {
			s.closeMessageView()
		} else {
			cmds = append(cmds, s.selectFolder(*c.SelectFolder))
		}
	}
	if c.SelectMessage != nil {
		cmds = append(cmds, s.selectMessage(*c.SelectMessage))
	}
	if c.OpenStore {
		cmds = append(cmds, s.startOpen())
	}
	if c.ShowProperties != nil {
		s.showProperties(*c.ShowProperties, push)
	}
	if c.ExportTo != nil {
		cmds = append(cmds, s.exportCmd(*c.ExportTo))
	}
	return tea.Batch(cmds...)
}

func (s *Session) leave(l Leave) {
	switch l {
	case LeaveFolder:
		s.clearFolder()
	case LeaveMessage:
		s.closeMessageView()
	case LeaveProperties:
		s.properties = nil
	}
}

// closeMessageView clears the selected message and its detail.
func (s *Session) closeMessageView() {
	s.selectedMessage = nil
	s.detail = nil
	s.detailPhase = PhaseIdle
	s.detailErr = nil
	s.detailGen++
}

// closeMessageList returns to the folder list.
func (s *Session) closeMessageList() {
	s.clearFolder()
}

func (s *Session) clearFolder() {
	s.selectedFolder = nil
	s.messages = nil
	s.messagesPhase = PhaseIdle
	s.messagesErr = nil
	s.messagesGen++
	s.closeMessageView()
}

// selectFolder sets the folder and starts loading its messages. Selecting
// a folder always leaves the open message.
func (s *Session) selectFolder(node FolderNode) tea.Cmd {
	n := node
	s.selectedFolder = &n
	s.closeMessageView()
	s.messages = nil
	s.messagesErr = nil
	s.messagesPhase = PhaseLoading
	s.messagesGen++
	return s.loadMessages(n, s.messagesGen)
}

// selectMessage sets the message and starts loading its detail. Selecting
// the message already selected keeps the loaded detail.
func (s *Session) selectMessage(summary MessageSummary) tea.Cmd {
	if s.selectedMessage != nil && s.selectedMessage.Key == summary.Key {
		return nil
	}
	m := summary
	s.selectedMessage = &m
	s.detail = nil
	s.detailErr = nil
	s.detailPhase = PhaseLoading
	s.detailGen++
	return s.loadDetail(m, s.detailGen)
}

func (s *Session) showProperties(src PropertySource, push bool) {
	s.properties = &PropertiesPage{Title: src.Label, Items: SortedProperties(src.Props)}
	if push {
		restore := src
		s.stack.Push(frame{
			Label:   src.Label,
			Restore: Command{ShowProperties: &restore},
			Leave:   LeaveProperties,
		})
	}
}
