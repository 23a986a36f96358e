package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wesm/pstview/internal/browser"
)

// handleKeyPress routes a key to the modal or the active view.
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.modal != modalNone {
		return m.handleModalKeys(msg)
	}
	switch m.session.View() {
	case browser.ViewUnopened:
		return m.handleOpenKeys(msg)
	case browser.ViewFolders:
		return m.handleFolderKeys(msg)
	case browser.ViewMessages:
		return m.handleMessageListKeys(msg)
	case browser.ViewMessageDetail:
		return m.handleMessageDetailKeys(msg)
	case browser.ViewProperties:
		return m.handlePropertiesKeys(msg)
	}
	return m, nil
}

// handleGlobalKeys handles keys common to all browsing views.
// Returns (model, cmd, true) if the key was handled, or (model, nil, false) otherwise.
func (m Model) handleGlobalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "q":
		m.modal = modalQuitConfirm
		return m, nil, true
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit, true
	case "?":
		m.modal = modalHelp
		m.helpScroll = 0
		return m, nil, true
	case "n":
		m.modal = modalNavigation
		m.modalCursor = m.session.Depth() - 1
		return m, nil, true
	case "E":
		m2, cmd := m.eject()
		return m2, cmd, true
	case "esc", "backspace", "left", "h":
		m2, cmd := m.goBack()
		return m2, cmd, true
	}
	return m, nil, false
}

// handleOpenKeys handles the open screen. Text keys go to the focused input.
func (m Model) handleOpenKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	case "tab", "shift+tab", "up", "down":
		if m.focus == fieldPath {
			m.focus = fieldEncoding
			m.pathInput.Blur()
			return m, m.encodingInput.Focus()
		}
		m.focus = fieldPath
		m.encodingInput.Blur()
		return m, m.pathInput.Focus()
	case "enter":
		return m.openStore()
	}

	var cmd tea.Cmd
	if m.focus == fieldPath {
		m.pathInput, cmd = m.pathInput.Update(msg)
	} else {
		m.encodingInput, cmd = m.encodingInput.Update(msg)
	}
	m.openErr = nil
	return m, cmd
}

// handleFolderKeys handles the folder list.
func (m Model) handleFolderKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	folders := m.session.Folders()
	if navigateList(&m.folders, msg.String(), len(folders), m.pageSize) {
		return m, nil
	}
	if m2, cmd, handled := m.handleGlobalKeys(msg); handled {
		return m2, cmd
	}

	switch msg.String() {
	case "enter", "right", "l":
		if m.folders.cursor < len(folders) {
			cmd := m.session.BrowseFolder(folders[m.folders.cursor])
			m.syncPositions()
			return m, m.withSpinner(cmd)
		}
	case "p":
		if m.folders.cursor < len(folders) {
			src := browser.FolderProperties(folders[m.folders.cursor])
			return m.dispatch(browser.Command{ShowProperties: &src})
		}
	}
	return m, nil
}

// handleMessageListKeys handles the message list of the selected folder.
func (m Model) handleMessageListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	msgs := m.session.Messages()
	if navigateList(&m.messages, msg.String(), len(msgs), m.pageSize) {
		return m, nil
	}
	if m2, cmd, handled := m.handleGlobalKeys(msg); handled {
		return m2, cmd
	}

	switch msg.String() {
	case "enter", "right", "l":
		if m.messages.cursor < len(msgs) {
			cmd := m.session.BrowseMessage(msgs[m.messages.cursor])
			m.syncPositions()
			return m, m.withSpinner(cmd)
		}
	case "p":
		if m.messages.cursor < len(msgs) {
			src := browser.MessageProperties(msgs[m.messages.cursor])
			return m.dispatch(browser.Command{ShowProperties: &src})
		}
	case "r":
		// Reload the folder: close the list and select it again.
		if f := m.session.SelectedFolder(); f != nil {
			node := *f
			m.session.Dispatch(browser.Command{CloseToFolderList: true})
			return m.dispatch(browser.Command{SelectFolder: &node})
		}
	}
	return m, nil
}

// handleMessageDetailKeys handles the message detail.
func (m Model) handleMessageDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	items := m.detailItems()

	switch key {
	case "up", "k", "down", "j", "home", "end", "G":
		navigateList(&m.detail, key, len(items), m.detailPageSize())
		if key == "home" {
			m.detailScroll = 0
		} else {
			m.ensureDetailItemVisible()
		}
		return m, nil
	case "pgdown", "ctrl+d", " ":
		m.scrollDetail(m.detailPageSize())
		return m, nil
	case "pgup", "ctrl+u":
		m.scrollDetail(-m.detailPageSize())
		return m, nil
	}

	if m2, cmd, handled := m.handleGlobalKeys(msg); handled {
		return m2, cmd
	}

	switch key {
	case "enter":
		if item, ok := m.selectedDetailItem(); ok {
			return m.activateDetailItem(item)
		}
	case "p":
		if sel := m.session.SelectedMessage(); sel != nil {
			src := browser.MessageProperties(*sel)
			return m.dispatch(browser.Command{ShowProperties: &src})
		}
	case "i":
		item, ok := m.selectedDetailItem()
		if !ok {
			return m, nil
		}
		var src browser.PropertySource
		switch item.kind {
		case itemContact:
			src = browser.ContactProperties(item.contact)
		case itemAttachment:
			src = browser.AttachmentProperties(item.attachment)
		default:
			return m, nil
		}
		return m.dispatch(browser.Command{ShowProperties: &src})
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		d := m.session.Detail()
		if d == nil {
			return m, nil
		}
		n := int(key[0] - '1')
		if n < len(d.Exports) {
			return m.runExport(d.Exports[n])
		}
		return m.showFlash("No export " + key)
	}
	return m, nil
}

// handlePropertiesKeys handles the properties inspector.
func (m Model) handlePropertiesKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := 0
	if p := m.session.Properties(); p != nil {
		n = len(p.Items)
	}
	if navigateList(&m.properties, msg.String(), n, m.pageSize) {
		return m, nil
	}
	if m2, cmd, handled := m.handleGlobalKeys(msg); handled {
		return m2, cmd
	}
	return m, nil
}

// handleModalKeys handles keys while a modal is shown.
func (m Model) handleModalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.modal {
	case modalQuitConfirm:
		return m.handleQuitConfirmKeys(msg)
	case modalNavigation:
		return m.handleNavigationKeys(msg)
	case modalHelp:
		return m.handleHelpKeys(msg)
	}
	return m, nil
}

func (m Model) handleQuitConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "q", "enter":
		m.quitting = true
		return m, tea.Quit
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	default:
		m.modal = modalNone
	}
	return m, nil
}

// handleNavigationKeys handles the navigation-stack menu. Enter jumps to the
// highlighted frame.
func (m Model) handleNavigationKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	depth := m.session.Depth()
	switch msg.String() {
	case "up", "k":
		if m.modalCursor > 0 {
			m.modalCursor--
		}
	case "down", "j":
		if m.modalCursor < depth-1 {
			m.modalCursor++
		}
	case "enter":
		m.modal = modalNone
		if m.modalCursor >= 0 && m.modalCursor < depth-1 {
			return m.jumpTo(m.modalCursor)
		}
	case "esc", "n", "q":
		m.modal = modalNone
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleHelpKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	maxScroll := len(rawHelpLines) - m.helpMaxVisible()
	if maxScroll < 0 {
		maxScroll = 0
	}
	switch msg.String() {
	case "up", "k":
		if m.helpScroll > 0 {
			m.helpScroll--
		}
		return m, nil
	case "down", "j":
		if m.helpScroll < maxScroll {
			m.helpScroll++
		}
		return m, nil
	}
	m.modal = modalNone
	m.helpScroll = 0
	return m, nil
}
