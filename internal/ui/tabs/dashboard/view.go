package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/j-veylop/crawler-dashboard-tui/internal/models"
	"github.com/j-veylop/crawler-dashboard-tui/internal/store"
	"github.com/j-veylop/crawler-dashboard-tui/internal/ui/components"
	"github.com/j-veylop/crawler-dashboard-tui/internal/ui/styles"
)

// View renders the dashboard component.
func (m *Model) View() string {
	if m.state.IsInitialLoading() {
		return m.renderLoading()
	}

	snap := m.state.Snapshot()

	sections := []string{m.renderTitle()}
	if banner := m.renderStaleBanner(); banner != "" {
		sections = append(sections, banner)
	}
	sections = append(sections,
		m.renderAutomationCard(snap),
		m.renderStatCards(snap),
		m.renderRecords(snap.Records),
	)

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

// renderLoading renders the initial loading state.
func (m *Model) renderLoading() string {
	barWidth := max(min(m.width-10, 40), 10)
	content := lipgloss.JoinVertical(lipgloss.Center,
		m.spinner.ViewResources(m.state.GetLoadingResources()),
		"",
		components.RenderLoadingBar(barWidth, m.animationFrame),
	)
	return styles.CenterBoth(content, m.width, m.height)
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Crawler Dashboard")
	subtitle := styles.HelpStyle.Render("Live view of the remote crawling service")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

// renderStaleBanner warns that the numbers come from an older cycle.
func (m *Model) renderStaleBanner() string {
	err := m.state.LastError()
	if err == nil {
		return ""
	}
	if updated := m.state.GetLastUpdated(); !updated.IsZero() {
		return styles.StaleStyle.Render(fmt.Sprintf("⚠ Showing data from %s: %v", humanize.Time(updated), err)) + "\n"
	}
	return styles.ErrorTextStyle.Render(fmt.Sprintf("⚠ Crawler service unreachable: %v", err)) + "\n"
}

func (m *Model) renderAutomationCard(snap store.Snapshot) string {
	cardWidth := max(m.width-6, 40)
	auto := snap.Automation
	phase := m.commands.AutomationPhase()

	var status string
	switch {
	case phase.Transient():
		status = styles.AutomationPendingStyle.Render("◌ " + strings.ToUpper(phase.String()) + "...")
	case auto.Running:
		status = styles.AutomationRunningStyle.Render("● RUNNING")
	default:
		status = styles.AutomationStoppedStyle.Render("○ STOPPED")
	}

	interval := "-"
	if auto.IntervalSeconds > 0 {
		interval = humanizeSeconds(auto.IntervalSeconds)
	}

	rows := []string{
		fmt.Sprintf("%s %s", styles.CardTitleStyle.Render("Automation"), status),
		"",
		fmt.Sprintf("  Interval        %s", interval),
		m.activeBar.ViewAs(m.activeBar.Percent(), "  Active", max(cardWidth-4, 40)),
		styles.HelpStyle.Render(fmt.Sprintf("  %d of %d accounts auto-crawling", auto.ActiveAccounts, auto.TotalAccounts)),
	}
	if snap.CrawlerStatus.CrawlStatus != "" {
		rows = append(rows, fmt.Sprintf("  Crawler         %s", snap.CrawlerStatus.CrawlStatus))
	}
	if snap.Pending > 0 {
		rows = append(rows, styles.AutomationPendingStyle.Render(
			fmt.Sprintf("  %d operation(s) awaiting confirmation", snap.Pending)))
	}

	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderStatCards(snap store.Snapshot) string {
	active := 0
	for _, a := range snap.Accounts {
		if a.Status == models.AccountActive {
			active++
		}
	}

	cards := []string{
		renderStatCard("Records", humanize.Comma(int64(len(snap.Records)))),
		renderStatCard("Accounts", fmt.Sprintf("%d/%d", active, len(snap.Accounts))),
		renderStatCard("Keyword hits", humanize.Comma(int64(snap.Keywords.TotalDetected))),
		renderStatCard("Total crawls", humanize.Comma(int64(snap.History.TotalCrawls))),
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func renderStatCard(label, value string) string {
	return styles.StatCardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		styles.HelpStyle.Render(label),
		styles.StatValueStyle.Render(value),
	))
}

// record table column widths
const (
	colName     = 16
	colAccount  = 12
	colType     = 10
	colGuild    = 12
	colLevel    = 4
	colProgress = 22
	colStatus   = 10
)

func (m *Model) renderRecords(records []models.Record) string {
	cardWidth := max(m.width-6, 40)
	title := fmt.Sprintf("%s %s",
		styles.CardTitleStyle.Render("Live Records"),
		styles.HelpStyle.Render(fmt.Sprintf("(%d)", len(records))),
	)

	if len(records) == 0 {
		return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left,
			title, "", styles.HelpStyle.Render("  No records crawled yet"),
		))
	}

	header := styles.TableHeaderStyle.Render(fmt.Sprintf("%-*s %-*s %-*s %-*s %*s %-*s %-*s %s",
		colName, "Name", colAccount, "Account", colType, "Type", colGuild, "Guild",
		colLevel, "Lv", colProgress, "Progress", colStatus, "Status", "Seen"))

	rows := []string{title, "", header}
	shown := records
	if len(shown) > maxRecordRows {
		shown = shown[:maxRecordRows]
	}
	for _, r := range shown {
		rows = append(rows, m.renderRecordRow(r))
	}
	if extra := len(records) - len(shown); extra > 0 {
		rows = append(rows, styles.HelpStyle.Render(fmt.Sprintf("  … %d more, use the Filter tab", extra)))
	}

	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderRecordRow(r models.Record) string {
	seen := "-"
	if !r.ObservedAt.IsZero() {
		seen = humanize.Time(r.ObservedAt.Time)
	}
	progress := m.activeBar.ViewCompact(r.ProgressPercent(), colProgress)
	return fmt.Sprintf("%-*s %-*s %-*s %-*s %*d %s %-*s %s",
		colName, truncate(r.CharacterName, colName),
		colAccount, truncate(r.AccountUsername, colAccount),
		colType, truncate(r.ActivityType, colType),
		colGuild, truncate(r.Guild, colGuild),
		colLevel, r.Level,
		lipgloss.NewStyle().Width(colProgress).Render(progress),
		colStatus, truncate(r.Status, colStatus),
		styles.HelpStyle.Render(seen),
	)
}

// humanizeSeconds renders an automation interval, e.g. 300 -> "5m".
func humanizeSeconds(sec int) string {
	if sec%60 == 0 {
		return fmt.Sprintf("%dm", sec/60)
	}
	return fmt.Sprintf("%ds", sec)
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return string(r[:width])
	}
	return string(r[:width-1]) + "…"
}
