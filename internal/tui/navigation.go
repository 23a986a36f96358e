package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wesm/pstview/internal/browser"
	"github.com/wesm/pstview/internal/export"
)

// calculateScrollOffset computes the new scroll offset to keep cursor visible within pageSize.
func calculateScrollOffset(cursor, currentOffset, pageSize int) int {
	if cursor < currentOffset {
		return cursor
	}
	if cursor >= currentOffset+pageSize {
		return cursor - pageSize + 1
	}
	return currentOffset
}

// navigateList applies a movement key to l. It reports whether key was a
// movement key.
func navigateList(l *listState, key string, itemCount, pageSize int) bool {
	switch key {
	case "up", "k":
		if l.cursor > 0 {
			l.cursor--
		}
	case "down", "j":
		if l.cursor < itemCount-1 {
			l.cursor++
		}
	case "pgup", "ctrl+u":
		l.cursor -= pageSize
		if l.cursor < 0 {
			l.cursor = 0
		}
	case "pgdown", "ctrl+d":
		l.cursor += pageSize
		if l.cursor >= itemCount {
			l.cursor = itemCount - 1
		}
		if l.cursor < 0 {
			l.cursor = 0
		}
	case "home", "g":
		l.cursor = 0
		l.scrollOffset = 0
		return true
	case "end", "G":
		l.cursor = itemCount - 1
		if l.cursor < 0 {
			l.cursor = 0
		}
	default:
		return false
	}
	l.scrollOffset = calculateScrollOffset(l.cursor, l.scrollOffset, pageSize)
	return true
}

// itemKind is what an actionable detail row refers to.
type itemKind int

const (
	itemContact itemKind = iota
	itemAttachment
	itemExport
)

// detailItem is one selectable row of the message detail.
type detailItem struct {
	kind       itemKind
	role       string // From, To, Cc, Bcc for contacts
	contact    browser.ContactSummary
	attachment browser.AttachmentSummary
	action     export.Action
	number     int // 1-based export number
}

// detailItems lists the selectable rows of the loaded detail in display
// order: sender, recipients, attachments, exports.
func (m Model) detailItems() []detailItem {
	sel := m.session.SelectedMessage()
	d := m.session.Detail()
	if sel == nil || d == nil {
		return nil
	}
	var items []detailItem
	if sel.From != nil {
		items = append(items, detailItem{kind: itemContact, role: "From", contact: *sel.From})
	}
	for _, group := range []struct {
		role     string
		contacts []browser.ContactSummary
	}{{"To", d.To}, {"Cc", d.Cc}, {"Bcc", d.Bcc}} {
		for _, c := range group.contacts {
			items = append(items, detailItem{kind: itemContact, role: group.role, contact: c})
		}
	}
	for _, a := range d.Attachments {
		items = append(items, detailItem{kind: itemAttachment, attachment: a})
	}
	for i, a := range d.Exports {
		items = append(items, detailItem{kind: itemExport, action: a, number: i + 1})
	}
	return items
}

// selectedDetailItem returns the item under the detail cursor.
func (m Model) selectedDetailItem() (detailItem, bool) {
	items := m.detailItems()
	if m.detail.cursor < 0 || m.detail.cursor >= len(items) {
		return detailItem{}, false
	}
	return items[m.detail.cursor], true
}

// activateDetailItem performs the primary action of item: contacts open the
// properties inspector, file attachments download, embedded messages open,
// and exports run.
func (m Model) activateDetailItem(item detailItem) (tea.Model, tea.Cmd) {
	switch item.kind {
	case itemContact:
		src := browser.ContactProperties(item.contact)
		return m.dispatch(browser.Command{ShowProperties: &src})
	case itemAttachment:
		switch item.attachment.Kind() {
		case browser.AttachmentFile:
			cmd := m.session.DownloadAttachment(item.attachment)
			if cmd != nil {
				m.pendingActions++
			}
			return m, m.withSpinner(cmd)
		case browser.AttachmentEmbedded:
			return m, m.withSpinner(m.session.OpenEmbedded(item.attachment))
		default:
			return m.showFlash(item.attachment.DisplayName + " cannot be opened")
		}
	case itemExport:
		return m.runExport(item.action)
	}
	return m, nil
}

// runExport dispatches an export action. Exports leave the view unchanged.
func (m Model) runExport(action export.Action) (tea.Model, tea.Cmd) {
	m.pendingActions++
	a := action
	return m.dispatch(browser.Command{ExportTo: &a})
}

// dispatch sends c to the session.
func (m Model) dispatch(c browser.Command) (tea.Model, tea.Cmd) {
	cmd := m.session.Dispatch(c)
	m.syncPositions()
	return m, m.withSpinner(cmd)
}

// goBack restores the previous frame.
func (m Model) goBack() (tea.Model, tea.Cmd) {
	if !m.session.CanGoBack() {
		return m, nil
	}
	cmd := m.session.GoBack()
	m.syncPositions()
	return m, m.withSpinner(cmd)
}

// jumpTo restores frame i of the navigation stack.
func (m Model) jumpTo(i int) (tea.Model, tea.Cmd) {
	cmd := m.session.JumpTo(i)
	m.syncPositions()
	return m, m.withSpinner(cmd)
}

// eject closes the archive and returns to the open screen.
func (m Model) eject() (tea.Model, tea.Cmd) {
	if !m.session.StoreOpen() && m.session.OpenTask().State != browser.TaskLoading {
		return m, nil
	}
	m.session.Eject()
	m.pathInput.SetValue("")
	m.focus = fieldPath
	m.pathInput.Focus()
	m.encodingInput.Blur()
	m.openErr = nil
	m.syncPositions()
	return m, textinput.Blink
}

// openStore validates the open screen inputs and starts the open task.
func (m Model) openStore() (tea.Model, tea.Cmd) {
	if !m.session.CanOpen() {
		return m, nil
	}
	if err := m.session.SetEncoding(m.encodingInput.Value()); err != nil {
		m.openErr = err
		return m, nil
	}
	m.openErr = nil
	m.session.SetSource(m.pathInput.Value())
	return m.dispatch(browser.Command{OpenStore: true})
}

// scrollDetail moves the detail view by delta lines.
func (m *Model) scrollDetail(delta int) {
	lines, _ := m.buildDetailLines()
	m.detailScroll += delta
	maxScroll := len(lines) - m.detailPageSize()
	if m.detailScroll > maxScroll {
		m.detailScroll = maxScroll
	}
	if m.detailScroll < 0 {
		m.detailScroll = 0
	}
}

// ensureDetailItemVisible scrolls so the line of the selected item shows.
func (m *Model) ensureDetailItemVisible() {
	_, itemLines := m.buildDetailLines()
	if m.detail.cursor < 0 || m.detail.cursor >= len(itemLines) {
		return
	}
	m.detailScroll = calculateScrollOffset(itemLines[m.detail.cursor], m.detailScroll, m.detailPageSize())
}

// detailPageSize returns the page size for detail view (the detail has no table header).
func (m Model) detailPageSize() int {
	return m.pageSize + 1
}
