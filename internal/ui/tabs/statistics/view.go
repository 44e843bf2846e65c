package statistics

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/j-veylop/crawler-dashboard-tui/internal/app"
	"github.com/j-veylop/crawler-dashboard-tui/internal/models"
	"github.com/j-veylop/crawler-dashboard-tui/internal/store"
	"github.com/j-veylop/crawler-dashboard-tui/internal/ui/components"
	"github.com/j-veylop/crawler-dashboard-tui/internal/ui/styles"
)

// distributionLimit caps each distribution chart.
const distributionLimit = 8

// View renders the statistics tab.
func (m *Model) View() string {
	snap := m.state.Snapshot()

	sections := []string{
		m.renderHeader(),
	}
	if snap.Loaded(store.Statistics) {
		sections = append(sections,
			renderStatCards(snap.Statistics),
			m.renderDistributions(snap.Statistics),
		)
	} else {
		sections = append(sections, styles.HelpStyle.Render("Waiting for statistics from the crawler service..."), "")
	}
	sections = append(sections,
		m.renderCrawlLog(snap.History),
		m.renderCycleHistory(),
		m.renderAlertsAndExports(),
	)

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderHeader() string {
	title := styles.TitleStyle.Render("Statistics")

	rangeStyle := lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Primary)

	rangeIndicator := rangeStyle.Render(fmt.Sprintf("[t] %s", m.timeRange.String()))

	header := lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", rangeIndicator)
	return lipgloss.JoinVertical(lipgloss.Left, header, "")
}

func renderStatCards(st models.Statistics) string {
	cards := []string{
		renderStatCard("Records", humanize.Comma(int64(st.Basic.TotalRecords))),
		renderStatCard("Accounts", fmt.Sprintf("%d/%d", st.Basic.ActiveAccounts, st.Basic.TotalAccounts)),
		renderStatCard("Crawls", humanize.Comma(int64(st.Basic.TotalCrawls))),
		renderStatCard("Accumulated", humanize.Comma(int64(st.Accumulation.TotalAccumulatedCount))),
		renderStatCard("Cycles", humanize.Comma(int64(st.Accumulation.TotalCycles))),
		renderStatCard("Avg / record", fmt.Sprintf("%.1f", st.Accumulation.AvgAccumulatedPerRecord)),
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func renderStatCard(label, value string) string {
	return styles.StatCardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		styles.HelpStyle.Render(label),
		styles.StatValueStyle.Render(value),
	))
}

func (m *Model) renderDistributions(st models.Statistics) string {
	cardWidth := max(m.width-6, 40)
	chartWidth := max(cardWidth-8, 30)

	rows := []string{styles.CardTitleStyle.Render("Distribution"), ""}
	for _, d := range []struct {
		title  string
		counts map[string]int
	}{
		{"By guild", st.GuildDistribution},
		{"By type", st.TypeDistribution},
		{"By account", st.AccountDistribution},
	} {
		rows = append(rows, styles.SubTitleStyle.Render(d.title))
		rows = append(rows, indent(components.RenderDistribution(d.counts, chartWidth, distributionLimit)), "")
	}

	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderCrawlLog(h models.CrawlHistory) string {
	cardWidth := max(m.width-6, 40)

	title := fmt.Sprintf("%s %s",
		styles.CardTitleStyle.Render("Crawl Log"),
		styles.HelpStyle.Render(fmt.Sprintf("%s crawls · %.0f%% success",
			humanize.Comma(int64(h.TotalCrawls)), h.SuccessRate*100)),
	)
	rows := []string{title}
	if len(h.History) > 1 {
		counts := make([]float64, len(h.History))
		for i, e := range h.History {
			counts[i] = float64(e.DataCount)
		}
		rows = append(rows, styles.HelpStyle.Render("  records per crawl ")+
			components.RenderSparkline(counts, max(cardWidth-30, 10)))
	}
	rows = append(rows, "")

	recent := h.Recent(recentCrawls)
	if len(recent) == 0 {
		rows = append(rows, styles.HelpStyle.Render("  No crawls recorded yet"))
	}
	for _, e := range recent {
		mark := styles.SuccessTextStyle.Render("✓")
		if !e.Success {
			mark = styles.ErrorTextStyle.Render("✗")
		}
		when := "-"
		if !e.Timestamp.IsZero() {
			when = humanize.Time(e.Timestamp.Time)
		}
		rows = append(rows, fmt.Sprintf("  %s %-20s %8s records  %s",
			mark, e.Account, humanize.Comma(int64(e.DataCount)), styles.HelpStyle.Render(when)))
	}

	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderCycleHistory() string {
	cardWidth := max(m.width-6, 40)
	rows := []string{styles.CardTitleStyle.Render("Local Cycle History"), ""}

	report := m.state.History()
	switch {
	case slices.Contains(m.state.GetLoadingResources(), app.ResourceHistory):
		rows = append(rows, styles.HelpStyle.Render("  Loading history data..."))
	case m.errorMsg != "":
		rows = append(rows, fmt.Sprintf("  %s %s", styles.ErrorTextStyle.Render("Error:"), m.errorMsg))
	case report == nil || !report.Summary.HasData():
		rows = append(rows,
			styles.HelpStyle.Render("  No cycles recorded in this range."),
			styles.HelpStyle.Render("  Data will appear as poll cycles are applied."))
	default:
		records := make([]float64, len(report.Cycles))
		active := make([]float64, len(report.Cycles))
		for i, c := range report.Cycles {
			records[i] = float64(c.Records)
			active[i] = float64(c.ActiveAccounts)
		}

		chartWidth := max(cardWidth-12, 30)
		chart := components.RenderDualLineChart(records, active, chartWidth, 8,
			fmt.Sprintf("%s: records vs active accounts", report.Range))
		rows = append(rows, indent(chart), "")
		rows = append(rows, "  "+components.RenderLegend([]components.LegendItem{
			{Label: "Records", Color: components.ChartRecordsColor},
			{Label: "Active accounts", Color: components.ChartActiveColor},
		}), "")

		if keywordTotals, ok := keywordSeries(report.Cycles); ok {
			rows = append(rows, indent(components.RenderLineChart(keywordTotals, chartWidth, 5,
				"keyword detections per cycle")), "")
		}

		s := report.Summary
		rows = append(rows,
			fmt.Sprintf("  %d cycles · peak %s records · avg %.1f · automation on %.0f%% of cycles",
				s.Cycles, humanize.Comma(int64(s.PeakRecords)), s.AvgRecords, s.RunningRatio*100),
			styles.HelpStyle.Render(fmt.Sprintf("  %s → %s",
				s.FirstRecorded.Format("Jan 2 15:04"), s.LastRecorded.Format("Jan 2 15:04"))),
		)
	}

	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderAlertsAndExports() string {
	report := m.state.History()
	if report == nil || (len(report.Alerts) == 0 && len(report.Exports) == 0) {
		return ""
	}
	cardWidth := max(m.width-6, 40)

	rows := []string{styles.CardTitleStyle.Render("Recent Alerts"), ""}
	if len(report.Alerts) == 0 {
		rows = append(rows, styles.HelpStyle.Render("  None"))
	}
	for _, a := range report.Alerts {
		rows = append(rows, fmt.Sprintf("  %s %s reached %d (threshold %d)",
			styles.HelpStyle.Render(a.Timestamp.Format("Jan 2 15:04")),
			styles.WarningTextStyle.Render(a.Keyword), a.Count, a.Threshold))
	}

	rows = append(rows, "", styles.CardTitleStyle.Render("Exports"), "")
	if len(report.Exports) == 0 {
		rows = append(rows, styles.HelpStyle.Render("  None"))
	}
	for _, e := range report.Exports {
		rows = append(rows, fmt.Sprintf("  %s %s (%s)",
			styles.HelpStyle.Render(e.Timestamp.Format("Jan 2 15:04")), e.Path, humanize.Bytes(uint64(e.Bytes))))
	}

	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// keywordSeries returns the keyword totals of cycles, false when none was
// ever detected.
func keywordSeries(cycles []models.CycleMetric) ([]float64, bool) {
	out := make([]float64, len(cycles))
	seen := false
	for i, c := range cycles {
		out[i] = float64(c.KeywordTotal)
		seen = seen || c.KeywordTotal > 0
	}
	return out, seen
}

func indent(block string) string {
	var b strings.Builder
	for i, line := range strings.Split(block, "\n") {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("  " + line)
	}
	return b.String()
}
