package keywords

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	kw "github.com/j-veylop/crawler-dashboard-tui/internal/keywords"
	"github.com/j-veylop/crawler-dashboard-tui/internal/models"
	"github.com/j-veylop/crawler-dashboard-tui/internal/store"
	"github.com/j-veylop/crawler-dashboard-tui/internal/ui/components"
	"github.com/j-veylop/crawler-dashboard-tui/internal/ui/styles"
)

// View renders the keywords tab.
func (m *Model) View() string {
	snap := m.state.Snapshot()
	threshold := m.threshold()

	sections := []string{m.renderHeader(threshold)}
	if !snap.Loaded(store.Keywords) {
		sections = append(sections, styles.HelpStyle.Render("Waiting for keyword statistics from the crawler service..."), "")
	} else {
		stats := snap.Keywords
		sections = append(sections,
			renderOverview(stats),
			m.renderAlerts(kw.Classify(stats.Counts, threshold)),
			m.renderRiskTable(stats),
		)
	}
	sections = append(sections, components.RenderFooter(
		components.Shortcut{Key: "+/-", Desc: "threshold"},
		components.Shortcut{Key: "R", Desc: "reset counts"},
		components.Shortcut{Key: "↑/↓", Desc: "scroll"},
	))

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, sections...))

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) cardWidth() int {
	return max(m.width-6, 40)
}

func (m *Model) renderHeader(threshold int) string {
	title := styles.TitleStyle.Render("Keyword Monitor")
	badge := lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Primary).
		Render(fmt.Sprintf("alert at ≥ %d", threshold))

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", badge), "")
}

func renderOverview(stats models.KeywordStats) string {
	card := func(label, value string) string {
		return styles.StatCardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
			styles.HelpStyle.Render(label),
			styles.StatValueStyle.Render(value),
		))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		card("Detected", humanize.Comma(int64(stats.TotalDetected))),
		card("Unique", humanize.Comma(int64(stats.UniqueKeywords))),
		card("Monitored", humanize.Comma(int64(len(stats.MonitoredKeywords)))),
	)
}

func (m *Model) renderAlerts(c kw.Classification) string {
	rows := []string{styles.CardTitleStyle.Render("High Alerts"), ""}
	if len(c.HighAlert) == 0 {
		rows = append(rows, styles.SuccessTextStyle.Render(
			fmt.Sprintf("  No keyword has reached %d detections", c.Threshold)))
	}
	for _, e := range c.HighAlert {
		rows = append(rows, fmt.Sprintf("  %s %s %s",
			styles.ErrorTextStyle.Render("▲"),
			styles.GetRiskStyle(e.Risk()).Render(e.Keyword),
			styles.HelpStyle.Render(fmt.Sprintf("%d detections", e.Count))))
	}
	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// rankedEntries lists every counted keyword plus monitored keywords that
// have not been detected yet.
func rankedEntries(stats models.KeywordStats) []kw.Entry {
	entries := kw.Ranked(stats.Counts)
	for _, k := range stats.MonitoredKeywords {
		if _, ok := stats.Counts[k]; !ok {
			entries = append(entries, kw.Entry{Keyword: k})
		}
	}
	return entries
}

func (m *Model) renderRiskTable(stats models.KeywordStats) string {
	rows := []string{styles.CardTitleStyle.Render("Risk"), ""}

	entries := rankedEntries(stats)
	if len(entries) == 0 {
		rows = append(rows, styles.HelpStyle.Render("  No keywords monitored"))
		return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	kwWidth := len("Keyword")
	for _, e := range entries {
		kwWidth = max(kwWidth, lipgloss.Width(e.Keyword))
	}

	header := fmt.Sprintf("  %-*s %8s  %-8s %s", kwWidth, "Keyword", "Count", "Risk", "Action")
	rows = append(rows, styles.HelpStyle.Render(header))
	for _, e := range entries {
		risk := e.Risk()
		style := styles.GetRiskStyle(risk)
		rows = append(rows, fmt.Sprintf("  %-*s %8s  %s %s",
			kwWidth, e.Keyword,
			humanize.Comma(int64(e.Count)),
			style.Render(fmt.Sprintf("%-8s", strings.ToUpper(risk.String()))),
			risk.Advice()))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
