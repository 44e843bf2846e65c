package components

import (
	"github.com/charmbracelet/bubbles/table"

	"github.com/j-veylop/crawler-dashboard-tui/internal/ui/styles"
)

// NewTable creates a focused table with the dashboard header and selection styles.
func NewTable(columns []table.Column, height int) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = styles.TableHeaderStyle.Padding(0, 1)
	s.Selected = styles.TableSelectedStyle
	t.SetStyles(s)

	return t
}

// FitColumn widens the column at index flex so the columns fill width.
// The column never shrinks below minWidth.
func FitColumn(columns []table.Column, flex, width, minWidth int) []table.Column {
	fixed := 0
	for i, c := range columns {
		if i != flex {
			// Each cell carries one space of padding on either side.
			fixed += c.Width + 2
		}
	}
	out := make([]table.Column, len(columns))
	copy(out, columns)
	out[flex].Width = max(width-fixed-2, minWidth)
	return out
}
