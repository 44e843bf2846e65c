package accounts

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/crawler-dashboard-tui/internal/models"
	"github.com/j-veylop/crawler-dashboard-tui/internal/ui/components"
	"github.com/j-veylop/crawler-dashboard-tui/internal/ui/styles"
)

// View renders the accounts tab.
func (m *Model) View() string {
	if m.state.IsInitialLoading() {
		return m.renderLoading()
	}

	sections := []string{m.renderTitle()}
	if m.adding {
		sections = append(sections, m.renderAddForm())
	} else {
		sections = append(sections, m.renderTable())
		if detail := m.renderDetail(); detail != "" {
			sections = append(sections, detail)
		}
	}
	sections = append(sections, m.renderFooter())

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

// renderLoading renders the loading state.
func (m *Model) renderLoading() string {
	return components.RenderSpinnerCentered(m.spinner, m.width, m.height)
}

// renderTitle renders the accounts tab title.
func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Account Management")

	accounts := m.state.Snapshot().Accounts
	counts := map[models.AccountStatus]int{}
	for _, a := range accounts {
		counts[a.Status]++
	}
	line := fmt.Sprintf("%d accounts  %s  %s  %s",
		len(accounts),
		styles.GetStatusStyle(models.AccountActive).Render(fmt.Sprintf("%d active", counts[models.AccountActive])),
		styles.GetStatusStyle(models.AccountError).Render(fmt.Sprintf("%d error", counts[models.AccountError])),
		styles.GetStatusStyle(models.AccountStandby).Render(fmt.Sprintf("%d standby", counts[models.AccountStandby])),
	)
	if n := len(m.selected); n > 0 {
		line += styles.InfoTextStyle.Render(fmt.Sprintf("  · %d selected", n))
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, styles.HelpStyle.Render(line), "")
}

// renderTable renders the accounts table.
func (m *Model) renderTable() string {
	if len(m.ids) == 0 {
		return m.renderEmptyState()
	}

	cardWidth := max(m.width-6, 60)
	return styles.CardStyle.Width(cardWidth).Render(m.table.View())
}

// renderEmptyState renders the empty state when no accounts exist.
func (m *Model) renderEmptyState() string {
	cardWidth := max(m.width-6, 40)

	content := lipgloss.JoinVertical(lipgloss.Center,
		"",
		styles.SubTitleStyle.Render("No Accounts Configured"),
		"",
		styles.HelpStyle.Render("Add accounts to start crawling."),
		"",
		styles.InfoTextStyle.Render("Press 'n' to add a new account"),
		"",
	)

	return styles.CardStyle.Width(cardWidth).Render(content)
}

// renderDetail shows the success rate and last error of the account under
// the cursor.
func (m *Model) renderDetail() string {
	id := m.cursorID()
	if id == "" {
		return ""
	}
	acc, ok := m.state.Snapshot().Account(id)
	if !ok {
		return ""
	}
	rows := []string{"  " + components.SimpleProgressBar(acc.Rate()*100,
		fmt.Sprintf("%s (%s) success", acc.Username, acc.ShortID()), min(max(m.width-14, 40), 80))}
	if acc.LastError != "" {
		rows = append(rows, styles.ErrorTextStyle.Render("  Last error: "+acc.LastError))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// renderAddForm renders the add account form.
func (m *Model) renderAddForm() string {
	cardWidth := min(max(m.width-10, 50), 80)

	rows := []string{styles.CardTitleStyle.Render("Add New Account"), ""}

	fields := []struct {
		field formField
		label string
		view  string
	}{
		{fieldUsername, "Username:", m.usernameInput.View()},
		{fieldPassword, "Password:", m.passwordInput.View()},
		{fieldGuild, "Preferred guild:", m.guildInput.View()},
	}
	for _, f := range fields {
		label := styles.BlurredStyle.Render("  " + f.label)
		inputStyle := styles.BlurredBorderStyle
		if m.focusedField == f.field {
			label = styles.FocusedStyle.Render("> " + f.label)
			inputStyle = styles.FocusedBorderStyle
		}
		rows = append(rows, label, inputStyle.Width(cardWidth-10).Render(f.view), "")
	}

	submitStyle := styles.ButtonInactiveStyle
	cancelStyle := styles.ButtonInactiveStyle
	if m.focusedField == fieldSubmit {
		submitStyle = styles.ButtonActiveStyle
	}
	if m.focusedField == fieldCancel {
		cancelStyle = styles.ButtonActiveStyle
	}

	buttons := lipgloss.JoinHorizontal(lipgloss.Center,
		submitStyle.Render(" Add Account "),
		"  ",
		cancelStyle.Render(" Cancel "),
	)
	rows = append(rows, buttons, "",
		styles.HelpStyle.Render("Tab: next field | Enter: submit | Esc: cancel"))

	return styles.ModalContentStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// renderFooter renders the footer with keyboard shortcuts.
func (m *Model) renderFooter() string {
	if m.adding {
		return components.RenderFooter(
			components.Shortcut{Key: "Tab", Desc: "next"},
			components.Shortcut{Key: "Enter", Desc: "submit"},
			components.Shortcut{Key: "Esc", Desc: "cancel"},
		)
	}
	return components.RenderFooter(
		components.Shortcut{Key: "Space", Desc: "select"},
		components.Shortcut{Key: "n", Desc: "add"},
		components.Shortcut{Key: "d", Desc: "delete"},
		components.Shortcut{Key: "s/S/D", Desc: "start/stop/delete selected"},
	)
}
