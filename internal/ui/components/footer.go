package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/crawler-dashboard-tui/internal/ui/styles"
)

// Shortcut is a key and what it does, shown in tab footers.
type Shortcut struct {
	Key  string
	Desc string
}

// RenderFooter renders shortcuts as "key desc | key desc".
func RenderFooter(shortcuts ...Shortcut) string {
	parts := make([]string, len(shortcuts))
	for i, s := range shortcuts {
		parts[i] = styles.HelpKeyStyle.Render(s.Key) + " " + styles.HelpDescStyle.Render(s.Desc)
	}
	return lipgloss.NewStyle().
		MarginTop(1).
		Foreground(styles.TextMuted).
		Render(strings.Join(parts, styles.HelpSeparatorStyle.Render(" | ")))
}
