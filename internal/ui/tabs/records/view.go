package records

import (
	"fmt"
	"slices"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/crawler-dashboard-tui/internal/app"
	"github.com/j-veylop/crawler-dashboard-tui/internal/models"
	"github.com/j-veylop/crawler-dashboard-tui/internal/ui/components"
	"github.com/j-veylop/crawler-dashboard-tui/internal/ui/styles"
)

// View renders the filter tab.
func (m *Model) View() string {
	sections := []string{m.renderTitle()}

	if m.editing {
		sections = append(sections, m.renderForm())
	} else {
		sections = append(sections, m.renderCriteria())
	}
	sections = append(sections, m.renderResults(), m.renderFooter())

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Record Filter")

	count := fmt.Sprintf("%d/%d records", len(m.results), m.total)
	if slices.Contains(m.state.GetLoadingResources(), app.ResourceFilter) {
		count += " · filtering..."
	}
	subtitle := styles.HelpStyle.Render(count)

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

// renderCriteria summarizes the applied criteria on one line.
func (m *Model) renderCriteria() string {
	if m.criteria.IsEmpty() {
		return styles.HelpStyle.Render("No filter applied. Press / to filter.") + "\n"
	}

	var parts []string
	add := func(label, v string) {
		if v != "" {
			parts = append(parts, styles.HelpKeyStyle.Render(label+":")+" "+v)
		}
	}
	add("account", m.criteria.AccountUsername)
	add("guild", m.criteria.Guild)
	add("type", m.criteria.ActivityType)
	add("status", m.criteria.Status)
	add("keyword", m.criteria.Keyword)
	add("level", levelRange(m.criteria))

	return joinParts(parts) + "\n"
}

func joinParts(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += styles.HelpSeparatorStyle.Render("  ")
		}
		out += p
	}
	return out
}

func levelRange(c models.FilterCriteria) string {
	switch {
	case c.MinLevel != nil && c.MaxLevel != nil:
		return fmt.Sprintf("%d-%d", *c.MinLevel, *c.MaxLevel)
	case c.MinLevel != nil:
		return fmt.Sprintf("≥%d", *c.MinLevel)
	case c.MaxLevel != nil:
		return fmt.Sprintf("≤%d", *c.MaxLevel)
	default:
		return ""
	}
}

func (m *Model) renderForm() string {
	cardWidth := min(max(m.width-10, 50), 80)

	rows := []string{styles.CardTitleStyle.Render("Filter Records"), ""}
	for i := range m.inputs {
		f := field(i)
		label := styles.BlurredStyle.Render(fmt.Sprintf("  %-10s", f.label()))
		inputStyle := styles.BlurredBorderStyle
		if f == m.focused {
			label = styles.FocusedStyle.Render(fmt.Sprintf("> %-10s", f.label()))
			inputStyle = styles.FocusedBorderStyle
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Center,
			label, inputStyle.Width(cardWidth-20).Render(m.inputs[i].View())))
	}
	rows = append(rows, "", styles.HelpStyle.Render("Tab: next field | Enter: apply | Esc: close"))

	return styles.ModalContentStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderResults() string {
	cardWidth := max(m.width-6, 40)
	if len(m.results) == 0 {
		msg := "No records match the filter"
		if m.criteria.IsEmpty() {
			msg = "No records crawled yet"
		}
		return styles.CardStyle.Width(cardWidth).Render(styles.HelpStyle.Render(msg))
	}
	return styles.CardStyle.Width(cardWidth).Render(m.table.View())
}

func (m *Model) renderFooter() string {
	if m.editing {
		return components.RenderFooter(
			components.Shortcut{Key: "Tab", Desc: "next"},
			components.Shortcut{Key: "Enter", Desc: "apply"},
			components.Shortcut{Key: "Esc", Desc: "close"},
		)
	}
	return components.RenderFooter(
		components.Shortcut{Key: "/", Desc: "filter"},
		components.Shortcut{Key: "c", Desc: "clear"},
		components.Shortcut{Key: "↑/↓", Desc: "scroll"},
	)
}
