package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wesm/pstview/internal/browser"
)

// Monochrome theme - adaptive for light and dark terminals
var (
	bgBase   = lipgloss.AdaptiveColor{Light: "#ffffff", Dark: "#000000"}
	bgAlt    = lipgloss.AdaptiveColor{Light: "#f0f0f0", Dark: "#181818"}
	bgCursor = lipgloss.AdaptiveColor{Light: "#e0e0e0", Dark: "#282828"}

	titleBarStyle = lipgloss.NewStyle().
			Bold(true).
			Background(lipgloss.AdaptiveColor{Light: "#e0e0e0", Dark: "#333333"}).
			Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#ffffff"}).
			Padding(0, 1)

	statsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#999999"}).
			Background(bgBase).
			Padding(0, 1)

	// Spinner style - NOT faint so it's visible
	spinnerStyle = lipgloss.NewStyle().
			Bold(true).
			Background(bgBase)

	tableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Background(bgBase)

	separatorStyle = lipgloss.NewStyle().
			Faint(true).
			Background(bgBase)

	cursorRowStyle = lipgloss.NewStyle().
			Background(bgCursor)

	normalRowStyle = lipgloss.NewStyle().
			Background(bgBase)

	altRowStyle = lipgloss.NewStyle().
			Background(bgAlt)

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Background(bgBase)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#999999"}).
			Background(bgBase).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Background(bgBase)

	loadingStyle = lipgloss.NewStyle().
			Italic(true).
			Background(bgBase)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(1, 2).
			Background(bgBase)

	modalTitleStyle = lipgloss.NewStyle().
			Bold(true)

	flashStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#996600", Dark: "#ffcc00"}). // Amber for visibility
			Background(bgBase)
)

// loadInProgressText is the open screen's status while the open task runs.
const loadInProgressText = "Load in progress ..."

// buildTitleBar builds the title bar line (line 1 of the header).
// Format: "pstview [version] - Store name"
func (m Model) buildTitleBar() string {
	titleText := "pstview"
	if m.version != "" && m.version != "dev" && m.version != "unknown" {
		titleText = fmt.Sprintf("pstview [%s]", m.version)
	}
	storeStr := "No archive"
	if m.session.StoreOpen() {
		storeStr = m.session.StoreName()
	}
	return titleBarStyle.Render(padRight(fmt.Sprintf("%s - %s", titleText, storeStr), m.width-2)) // -2 for padding
}

// buildBreadcrumb joins the navigation stack labels, root first.
func (m Model) buildBreadcrumb() string {
	labels := m.session.Breadcrumbs()
	if len(labels) == 0 {
		return browser.UnmountedTitle
	}
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = truncateRunes(l, 30)
	}
	return strings.Join(parts, " > ")
}

// buildStatsString summarizes the active view's data for the header.
func (m Model) buildStatsString() string {
	switch m.session.View() {
	case browser.ViewFolders:
		return fmt.Sprintf("%s folders", formatCount(len(m.session.Folders())))
	case browser.ViewMessages:
		if f := m.session.SelectedFolder(); f != nil {
			return fmt.Sprintf("%s items", formatCount(len(m.session.Messages())))
		}
	case browser.ViewMessageDetail:
		if d := m.session.Detail(); d != nil {
			return fmt.Sprintf("%d attchs", len(d.Attachments))
		}
	case browser.ViewProperties:
		if p := m.session.Properties(); p != nil {
			return fmt.Sprintf("%d props", len(p.Items))
		}
	}
	return ""
}

// headerView renders a two-level header:
// Line 1: pstview [version] - store
// Line 2: breadcrumb | stats
func (m Model) headerView() string {
	line1 := m.buildTitleBar()

	breadcrumbStyled := statsStyle.Render(" " + m.buildBreadcrumb() + " ")
	statsStyled := statsStyle.Render(m.buildStatsString() + " ")
	gap := m.width - lipgloss.Width(breadcrumbStyled) - lipgloss.Width(statsStyled)
	if gap < 0 {
		gap = 0
	}
	line2 := breadcrumbStyled + strings.Repeat(" ", gap) + statsStyled

	return line1 + "\n" + line2
}

// openView renders the open screen: the two inputs and the open task status.
func (m Model) openView() string {
	var lines []string
	lines = append(lines,
		labelStyle.Render(padRight(" Open a PST archive", m.width)),
		normalRowStyle.Render(padRight("", m.width)),
		normalRowStyle.Render(padRight(" File:     "+m.pathInput.View(), m.width)),
		normalRowStyle.Render(padRight(" Encoding: "+m.encodingInput.View(), m.width)),
		normalRowStyle.Render(padRight("", m.width)),
	)

	task := m.session.OpenTask()
	switch {
	case m.openErr != nil:
		lines = append(lines, errorStyle.Render(padRight(fmt.Sprintf(" Error: %v", m.openErr), m.width)))
	case task.State == browser.TaskLoading:
		lines = append(lines, loadingStyle.Render(padRight(" "+loadInProgressText+" "+m.spinnerIndicator(), m.width)))
	case task.State == browser.TaskFailed:
		lines = append(lines,
			errorStyle.Render(padRight(fmt.Sprintf(" Error: %v", task.Err), m.width)),
			normalRowStyle.Render(padRight(" Press Enter to retry", m.width)),
		)
	default:
		lines = append(lines, normalRowStyle.Render(padRight(" Enter a path and press Enter", m.width)))
	}
	return m.fillScreen(strings.Join(lines, "\n"), len(lines), m.pageSize+2)
}

// statusBody renders the loading, error, and empty states shared by lists.
// ok is false when the list itself should be rendered.
func (m Model) statusBody(what string, n int) (string, bool) {
	switch m.session.Phase() {
	case browser.PhaseLoading:
		return m.fillScreen(loadingStyle.Render(padRight(fmt.Sprintf(" Loading %s...", what), m.width)), 1, m.pageSize+2), true
	case browser.PhaseFailed:
		return m.fillScreen(errorStyle.Render(padRight(fmt.Sprintf(" Error: %v", m.session.Err()), m.width)), 1, m.pageSize+2), true
	}
	if n == 0 {
		return m.fillScreen(normalRowStyle.Render(padRight(fmt.Sprintf(" No %s", what), m.width)), 1, m.pageSize+2), true
	}
	return "", false
}

// renderTable renders a header row, the visible rows of a list, and the info line.
func (m Model) renderTable(header string, l listState, rows []string) string {
	var sb strings.Builder
	sb.WriteString(tableHeaderStyle.Render(padRight(header, m.width)))
	sb.WriteString("\n")

	endRow := l.scrollOffset + m.pageSize
	if endRow > len(rows) {
		endRow = len(rows)
	}
	for i := l.scrollOffset; i < endRow; i++ {
		var style lipgloss.Style
		indicator := "  "
		switch {
		case i == l.cursor:
			style = cursorRowStyle
			indicator = "▶ "
		case i%2 == 0:
			style = normalRowStyle
		default:
			style = altRowStyle
		}
		sb.WriteString(style.Render(padRight(indicator+rows[i], m.width)))
		sb.WriteString("\n")
	}
	for i := endRow - l.scrollOffset; i < m.pageSize; i++ {
		sb.WriteString(normalRowStyle.Render(strings.Repeat(" ", m.width)))
		sb.WriteString("\n")
	}
	sb.WriteString(m.renderNotificationLine())
	return sb.String()
}

// folderListView renders the flattened folder tree.
func (m Model) folderListView() string {
	folders := m.session.Folders()
	if body, ok := m.statusBody("folders", len(folders)); ok {
		return body
	}

	countWidth := 14
	nameWidth := m.width - countWidth - 3
	if nameWidth < 10 {
		nameWidth = 10
	}
	rows := make([]string, len(folders))
	for i, f := range folders {
		name := f.Name
		if name == "" {
			name = browser.UnnamedFolder
		}
		name = strings.Repeat("  ", f.Depth) + name
		rows[i] = fmt.Sprintf("%-*s %*s", nameWidth, truncateRunes(name, nameWidth), countWidth, f.Summary())
	}
	header := fmt.Sprintf("  %-*s %*s", nameWidth, "Folder", countWidth, "Items")
	return m.renderTable(header, m.folders, rows)
}

// messageListView renders the messages of the selected folder.
func (m Model) messageListView() string {
	msgs := m.session.Messages()
	if body, ok := m.statusBody("messages", len(msgs)); ok {
		return body
	}

	fromWidth := 30
	subjectWidth := m.width - fromWidth - 8
	if subjectWidth < 10 {
		subjectWidth = 10
	}
	rows := make([]string, len(msgs))
	for i, msg := range msgs {
		from := ""
		if msg.From != nil {
			from = msg.From.Name
			if from == "" {
				from = msg.From.Email
			}
		}
		subject := msg.Subject
		if subject == "" {
			subject = "(no subject)"
		}
		rows[i] = fmt.Sprintf("%s %-*s %s",
			familyIcon(msg.MessageClass),
			subjectWidth, truncateRunes(subject, subjectWidth),
			truncateRunes(from, fromWidth))
	}
	header := fmt.Sprintf("      %-*s %s", subjectWidth, "Subject", "From")
	return m.renderTable(header, m.messages, rows)
}

// buildDetailLines renders the detail as lines and returns, for each
// detail item, the index of the line that shows it.
func (m Model) buildDetailLines() ([]string, []int) {
	sel := m.session.SelectedMessage()
	d := m.session.Detail()
	if sel == nil || d == nil {
		return nil, nil
	}
	width := m.width
	if width <= 0 {
		width = 80
	}

	var lines []string
	var itemLines []int
	items := m.detailItems()

	subject := sel.Subject
	if subject == "" {
		subject = "(no subject)"
	}
	lines = append(lines, "Subject: "+subject)
	lines = append(lines, "Class:   "+sel.MessageClass)

	lastRole := ""
	i := 0
	for ; i < len(items) && items[i].kind == itemContact; i++ {
		label := "         "
		if items[i].role != lastRole {
			label = fmt.Sprintf("%-9s", items[i].role+":")
			lastRole = items[i].role
		}
		itemLines = append(itemLines, len(lines))
		lines = append(lines, label+formatContact(items[i].contact))
	}

	if d.Card != nil {
		lines = append(lines, "", "Contact card:")
		lines = append(lines, "  Name:  "+d.Card.Name)
		if d.Card.Email != "" {
			lines = append(lines, "  Email: "+d.Card.Address())
		}
	}

	if i < len(items) && items[i].kind == itemAttachment {
		lines = append(lines, "", "Attachments:")
		for ; i < len(items) && items[i].kind == itemAttachment; i++ {
			a := items[i].attachment
			itemLines = append(itemLines, len(lines))
			lines = append(lines, fmt.Sprintf("  %s  %s", attachmentAction(a), a.DisplayName))
		}
	}

	if i < len(items) && items[i].kind == itemExport {
		lines = append(lines, "", "Export:")
		for ; i < len(items); i++ {
			itemLines = append(itemLines, len(lines))
			lines = append(lines, fmt.Sprintf("  [%d] %s", items[i].number, items[i].action.Label))
		}
	}

	lines = append(lines, strings.Repeat("─", min(width, 80)))
	lines = append(lines, wrapText(d.Body, width-2)...)
	return lines, itemLines
}

// messageDetailView renders the message detail.
func (m Model) messageDetailView() string {
	pageSize := m.detailPageSize()
	switch m.session.Phase() {
	case browser.PhaseLoading:
		return m.fillScreen(loadingStyle.Render(padRight(" Loading message...", m.width)), 1, pageSize+1)
	case browser.PhaseFailed:
		return m.fillScreen(errorStyle.Render(padRight(fmt.Sprintf(" Error: %v", m.session.Err()), m.width)), 1, pageSize+1)
	}

	lines, itemLines := m.buildDetailLines()
	cursorLine := -1
	if m.detail.cursor >= 0 && m.detail.cursor < len(itemLines) {
		cursorLine = itemLines[m.detail.cursor]
	}

	var sb strings.Builder
	end := m.detailScroll + pageSize
	if end > len(lines) {
		end = len(lines)
	}
	for i := m.detailScroll; i < end; i++ {
		style := normalRowStyle
		if i == cursorLine {
			style = cursorRowStyle
		}
		sb.WriteString(style.Render(padRight(" "+truncateRunes(lines[i], m.width-1), m.width)))
		sb.WriteString("\n")
	}
	for i := end - m.detailScroll; i < pageSize; i++ {
		sb.WriteString(normalRowStyle.Render(strings.Repeat(" ", m.width)))
		sb.WriteString("\n")
	}
	sb.WriteString(m.renderNotificationLine())
	return sb.String()
}

// propertiesView renders the sorted key/value inspector.
func (m Model) propertiesView() string {
	p := m.session.Properties()
	if p == nil || len(p.Items) == 0 {
		return m.fillScreen(normalRowStyle.Render(padRight(" No properties", m.width)), 1, m.pageSize+2)
	}
	keyWidth := 0
	for _, it := range p.Items {
		keyWidth = max(keyWidth, lipgloss.Width(it.Key))
	}
	keyWidth = min(keyWidth, m.width/3)
	valueWidth := max(m.width-keyWidth-5, 10)

	rows := make([]string, len(p.Items))
	for i, it := range p.Items {
		rows[i] = fmt.Sprintf("%-*s  %s", keyWidth, truncateRunes(it.Key, keyWidth), truncateRunes(it.Value, valueWidth))
	}
	return m.renderTable(" "+p.Title, m.properties, rows)
}

// fillScreen pads content to pageSize lines and appends the notification line.
func (m Model) fillScreen(content string, usedLines, pageSize int) string {
	var sb strings.Builder
	sb.WriteString(content)
	sb.WriteString("\n")
	for i := usedLines; i < pageSize-1; i++ {
		sb.WriteString(normalRowStyle.Render(strings.Repeat(" ", m.width)))
		sb.WriteString("\n")
	}
	sb.WriteString(m.renderNotificationLine())
	return sb.String()
}

// footerView renders the key hints and the cursor position.
func (m Model) footerView() string {
	var keys []string
	var posStr string

	switch m.session.View() {
	case browser.ViewUnopened:
		keys = []string{"Enter open", "Tab field", "Esc quit"}
	case browser.ViewFolders:
		keys = []string{"↑/k", "↓/j", "Enter", "p props", "n nav", "E eject", "? help"}
		if n := len(m.session.Folders()); n > 0 {
			posStr = fmt.Sprintf(" %d/%d ", m.folders.cursor+1, n)
		}
	case browser.ViewMessages:
		keys = []string{"↑/k", "↓/j", "Enter", "Esc", "p props", "n nav", "? help"}
		if n := len(m.session.Messages()); n > 0 {
			posStr = fmt.Sprintf(" %d/%d ", m.messages.cursor+1, n)
		}
	case browser.ViewMessageDetail:
		keys = []string{"↑/↓ select", "Enter open", "1-9 export", "p props", "i item props", "Esc back"}
	case browser.ViewProperties:
		keys = []string{"↑/k", "↓/j", "Esc back", "n nav", "q quit"}
		if p := m.session.Properties(); p != nil && len(p.Items) > 0 {
			posStr = fmt.Sprintf(" %d/%d ", m.properties.cursor+1, len(p.Items))
		}
	}

	keysStr := strings.Join(keys, " │ ")
	gap := m.width - lipgloss.Width(keysStr) - lipgloss.Width(posStr) - 2
	if gap < 0 {
		gap = 0
	}
	return footerStyle.Render(keysStr + strings.Repeat(" ", gap) + posStr)
}

// spinnerIndicator returns the current spinner frame string.
func (m Model) spinnerIndicator() string {
	if m.spinnerFrame < len(spinnerFrames) {
		return spinnerFrames[m.spinnerFrame]
	}
	return spinnerFrames[0]
}

// renderNotificationLine shows the flash message, a right-aligned loading
// spinner, or a blank line.
func (m Model) renderNotificationLine() string {
	loading := m.loading()
	if m.flashMessage != "" {
		flash := " " + m.flashMessage
		if loading {
			indicator := m.spinnerIndicator()
			gap := m.width - lipgloss.Width(flash) - lipgloss.Width(indicator)
			if gap < 1 {
				gap = 1
			}
			return flashStyle.Render(padRight(flash+strings.Repeat(" ", gap)+indicator, m.width))
		}
		return flashStyle.Render(padRight(flash, m.width))
	}
	if loading {
		contentWidth := max(m.width-2, 1)
		indicator := spinnerStyle.Render(m.spinnerIndicator())
		gap := max(contentWidth-lipgloss.Width(indicator), 0)
		return statsStyle.Render(padRight(strings.Repeat(" ", gap)+indicator, contentWidth))
	}
	return normalRowStyle.Render(strings.Repeat(" ", m.width))
}

// rawHelpLines contains the help modal content. The first line is the title
// (rendered with modalTitleStyle at display time).
var rawHelpLines = []string{
	"Keyboard Shortcuts",
	"",
	"Navigation",
	"  ↑/k, ↓/j    Move cursor up/down",
	"  PgUp/PgDn   Page up/down",
	"  Home/End    Go to first/last",
	"  Enter       Open folder, message, or item",
	"  Esc/⌫       Go back",
	"  n           Navigation stack (jump back)",
	"",
	"Message",
	"  Enter       Download file, view embedded message,",
	"              show contact, or run export",
	"  1-9         Run export action",
	"  p           Message properties",
	"  i           Properties of selected contact/attachment",
	"",
	"Other",
	"  p           Folder/message properties (in lists)",
	"  r           Reload folder (in message list)",
	"  E           Eject archive",
	"  q           Quit",
	"",
	"[↑/↓] Scroll  [Any other key] Close",
}

// helpMaxVisible returns the max visible lines for the help modal given terminal height.
func (m Model) helpMaxVisible() int {
	v := m.height - 6
	if v < 1 {
		v = 1
	}
	if v > len(rawHelpLines) {
		v = len(rawHelpLines)
	}
	return v
}

// renderHelpModal renders the help modal content with scrolling support.
func (m Model) renderHelpModal() string {
	maxVisible := m.helpMaxVisible()
	scroll := min(m.helpScroll, max(len(rawHelpLines)-maxVisible, 0))

	visible := rawHelpLines[scroll : scroll+maxVisible]
	rendered := make([]string, len(visible))
	for i, line := range visible {
		if scroll+i == 0 {
			rendered[i] = modalTitleStyle.Render(line)
		} else {
			rendered[i] = line
		}
	}
	return strings.Join(rendered, "\n")
}

// renderQuitConfirmModal renders the quit confirmation modal content.
func (m Model) renderQuitConfirmModal() string {
	return modalTitleStyle.Render("Quit?") + "\n\n" +
		"Are you sure you want to quit?\n\n" +
		"[Y] Yes    [N] No"
}

// renderNavigationModal lists the navigation stack, root first.
func (m Model) renderNavigationModal() string {
	var sb strings.Builder
	sb.WriteString(modalTitleStyle.Render("Go To"))
	sb.WriteString("\n\n")
	labels := m.session.Breadcrumbs()
	if len(labels) == 0 {
		sb.WriteString(" " + browser.UnmountedTitle + "\n")
	}
	for i, label := range labels {
		indicator := "○"
		if i == m.modalCursor {
			indicator = "●"
		}
		sb.WriteString(fmt.Sprintf(" %s %s%s\n", indicator, strings.Repeat("  ", i), truncateRunes(label, 40)))
	}
	sb.WriteString("\n[↑/↓] Navigate  [Enter] Go  [Esc] Cancel")
	return sb.String()
}

// overlayModal renders a modal dialog over the content.
func (m Model) overlayModal(background string) string {
	var modalContent string

	switch m.modal {
	case modalQuitConfirm:
		modalContent = m.renderQuitConfirmModal()
	case modalHelp:
		modalContent = m.renderHelpModal()
	case modalNavigation:
		modalContent = m.renderNavigationModal()
	}

	if modalContent == "" {
		return background
	}

	modal := modalStyle.Render(modalContent)

	bgLines := strings.Split(background, "\n")
	modalLines := strings.Split(modal, "\n")

	// Calculate vertical centering
	startLine := max((len(bgLines)-len(modalLines))/2, 0)

	// Calculate horizontal centering
	modalWidth := lipgloss.Width(modal)
	leftPadding := max((m.width-modalWidth)/2, 0)

	// Overlay modal onto background, preserving background where modal doesn't cover
	for i, modalLine := range modalLines {
		lineIdx := startLine + i
		if lineIdx >= len(bgLines) {
			break
		}
		bgLine := bgLines[lineIdx]
		bgWidth := lipgloss.Width(bgLine)

		var composite strings.Builder
		if leftPadding > 0 {
			leftBg := truncateToWidth(bgLine, leftPadding)
			composite.WriteString(leftBg)
			if lipgloss.Width(leftBg) < leftPadding {
				composite.WriteString(strings.Repeat(" ", leftPadding-lipgloss.Width(leftBg)))
			}
		}
		composite.WriteString(modalLine)

		rightStart := leftPadding + modalWidth
		if rightStart < bgWidth {
			composite.WriteString(skipToWidth(bgLine, rightStart))
		}
		bgLines[lineIdx] = composite.String()
	}

	return strings.Join(bgLines, "\n")
}
