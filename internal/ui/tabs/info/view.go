package info

import (
	"fmt"
	"runtime"
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/crawler-dashboard-tui/internal/store"
	"github.com/j-veylop/crawler-dashboard-tui/internal/ui/styles"
	"github.com/j-veylop/crawler-dashboard-tui/internal/version"
)

// View renders the info tab.
func (m *Model) View() string {
	snap := m.state.Snapshot()

	sections := []string{
		m.renderTitle(),
		m.renderServiceCard(snap),
		m.renderConfigCard(),
		m.renderAboutCard(),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) cardWidth() int {
	return min(max(m.width-6, 50), 90)
}

// renderTitle renders the info tab title.
func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Crawler service, configuration and build information")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

// renderServiceCard renders the remote service build and its changelog.
func (m *Model) renderServiceCard(snap store.Snapshot) string {
	rows := []string{styles.CardTitleStyle.Render("Crawler Service"), ""}

	if !snap.Loaded(store.Version) {
		rows = append(rows, styles.HelpStyle.Render("Version not loaded yet"))
		return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	v := snap.Version
	rows = append(rows,
		renderRow("Version", orDash(v.Version)),
		renderRow("Updated", orDash(v.UpdateDate)),
		renderRow("Architecture", orDash(v.Architecture)),
	)
	if st := snap.CrawlerStatus; st.SystemInfo != "" {
		rows = append(rows, renderRow("System", st.SystemInfo))
	}
	rows = append(rows, renderList("Features", v.Features)...)
	rows = append(rows, renderList("Changelog", v.Changelog)...)

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// renderConfigCard renders the configuration card.
func (m *Model) renderConfigCard() string {
	rows := []string{styles.CardTitleStyle.Render("Configuration"), ""}

	if m.config == nil {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
		return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	settings := m.state.Settings()
	notify := "off"
	if settings.DesktopNotify {
		notify = "on"
	}

	rows = append(rows,
		renderRow("API URL", m.config.APIURL),
		renderRow("Env File", orDash(m.config.EnvPath)),
		renderRow("Database", m.config.DatabasePath),
		renderRow("Export Dir", m.config.ExportDir),
		renderRow("Log File", orDash(m.config.LogPath)),
		renderRow("Request Timeout", m.config.RequestTimeout.String()),
		"",
		styles.SubTitleStyle.Render("Live settings"),
		renderRow("Poll Interval", settings.PollInterval.String()),
		renderRow("Alert Threshold", strconv.Itoa(settings.AlertThreshold)),
		renderRow("Desktop Alerts", notify),
	)
	if m.config.EnvPath != "" {
		rows = append(rows, "", styles.HelpStyle.Render("Edits to the env file apply without a restart"))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// renderAboutCard renders the local build information card.
func (m *Model) renderAboutCard() string {
	snap := m.state.Snapshot()

	rows := []string{
		styles.CardTitleStyle.Render("About Crawler Dashboard TUI"),
		"",
		renderRow("Version", version.GetVersion()),
		renderRow("Build Date", version.GetDate()),
		renderRow("Git Commit", version.GetCommit()),
		renderRow("Go Version", runtime.Version()),
		renderRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)),
		"",
		fmt.Sprintf("Accounts: %s  Records: %s",
			styles.InfoTextStyle.Render(strconv.Itoa(len(snap.Accounts))),
			styles.InfoTextStyle.Render(strconv.Itoa(len(snap.Records)))),
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// renderRow renders a key-value row.
func renderRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(18).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

func renderList(title string, items []string) []string {
	if len(items) == 0 {
		return nil
	}
	rows := []string{"", styles.SubTitleStyle.Render(title)}
	for _, item := range items {
		rows = append(rows, "  • "+item)
	}
	return rows
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
