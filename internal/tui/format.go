package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"

	"github.com/wesm/pstview/internal/browser"
)

// padRight pads a string with spaces to fill width terminal cells.
// Uses lipgloss.Width to correctly handle ANSI codes and full-width characters.
func padRight(s string, width int) string {
	sw := lipgloss.Width(s)
	if sw >= width {
		// Use ANSI-aware truncation
		return ansi.Truncate(s, width, "")
	}
	return s + strings.Repeat(" ", width-sw)
}

// truncateRunes truncates a string to fit within maxWidth terminal cells.
// Uses runewidth to correctly handle full-width characters (CJK, emoji, etc.)
// that occupy 2 terminal cells but count as 1 rune.
// Also sanitizes the string by removing newlines and other control characters
// that could break the display layout.
func truncateRunes(s string, maxWidth int) string {
	// Remove newlines and carriage returns that could break layout
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\t", " ")

	width := runewidth.StringWidth(s)
	if width <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

// wrapText wraps text to fit within width terminal cells.
// Uses runewidth to correctly handle full-width characters (CJK, emoji, etc.)
func wrapText(text string, width int) []string {
	if width <= 0 {
		width = 80
	}

	var result []string
	lines := strings.Split(text, "\n")

	for _, line := range lines {
		lineWidth := runewidth.StringWidth(line)
		if lineWidth <= width {
			result = append(result, line)
			continue
		}

		// Wrap long lines using terminal cell width
		runes := []rune(line)
		for len(runes) > 0 {
			// Find how many runes fit within width
			currentWidth := 0
			breakAt := 0
			lastSpace := -1

			for i, r := range runes {
				rw := runewidth.RuneWidth(r)
				if currentWidth+rw > width {
					break
				}
				currentWidth += rw
				breakAt = i + 1
				if r == ' ' {
					lastSpace = i
				}
			}

			// Prefer breaking at a space if we found one in the latter half
			if lastSpace > breakAt/2 && breakAt < len(runes) {
				breakAt = lastSpace
			}

			if breakAt == 0 {
				// Single character too wide, take it anyway
				breakAt = 1
			}

			result = append(result, string(runes[:breakAt]))
			runes = runes[breakAt:]

			// Skip leading spaces on continuation lines
			for len(runes) > 0 && runes[0] == ' ' {
				runes = runes[1:]
			}
		}
	}

	return result
}

// truncateToWidth returns the prefix of s that fits within maxWidth visual columns.
// Uses ANSI-aware truncation to preserve escape sequences.
func truncateToWidth(s string, maxWidth int) string {
	return ansi.Truncate(s, maxWidth, "")
}

// skipToWidth returns the suffix of s starting after skipWidth visual columns.
// Uses ANSI-aware cutting to preserve escape sequences.
func skipToWidth(s string, skipWidth int) string {
	// Cut from skipWidth to a large number (beyond any reasonable line width)
	return ansi.Cut(s, skipWidth, 10000)
}

// formatCount formats a count as a human-readable string (e.g., "1.5K", "2.3M").
func formatCount(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	}
	return fmt.Sprintf("%.1fM", float64(n)/1000000)
}

// formatContact renders a sender or recipient as "Name (TYPE: address)".
func formatContact(c browser.ContactSummary) string {
	switch {
	case c.Email == "" && c.Name == "":
		return "(unknown)"
	case c.Email == "":
		return c.Name
	case c.Name == "":
		return c.Address()
	}
	return fmt.Sprintf("%s (%s)", c.Name, c.Address())
}

// familyIcons are the fixed-width tags shown before each message.
var familyIcons = map[browser.Family]string{
	browser.FamilyNote:        "[M]",
	browser.FamilySecureNote:  "[S]",
	browser.FamilyContact:     "[C]",
	browser.FamilyAppointment: "[A]",
	browser.FamilySchedule:    "[R]",
	browser.FamilyDocument:    "[D]",
}

// familyIcon returns the tag for a message class.
func familyIcon(messageClass string) string {
	if icon, ok := familyIcons[browser.ClassFamily(messageClass)]; ok {
		return icon
	}
	return "[?]"
}

// attachmentAction names what Enter does for an attachment.
func attachmentAction(a browser.AttachmentSummary) string {
	switch a.Kind() {
	case browser.AttachmentFile:
		return "Download"
	case browser.AttachmentEmbedded:
		return "View"
	default:
		return "(Unknown)"
	}
}
