// Package components provides reusable UI components for the TUI.
package components

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/j-veylop/crawler-dashboard-tui/internal/ui/styles"
)

// Chart series colors.
var (
	ChartRecordsColor = lipgloss.Color("#7D56F4")
	ChartActiveColor  = lipgloss.Color("#04B575")
)

// RenderLineChart creates a single-series ASCII line chart.
func RenderLineChart(data []float64, width, height int, caption string) string {
	if len(data) == 0 {
		return styles.HelpStyle.Render("No data available")
	}

	// Ensure minimum dimensions
	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}

	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}

// RenderDualLineChart plots two series on one axis, padding the shorter with zeros.
func RenderDualLineChart(first, second []float64, width, height int, caption string) string {
	if len(first) == 0 && len(second) == 0 {
		return styles.HelpStyle.Render("No data available")
	}

	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}

	n := max(len(first), len(second))
	a := make([]float64, n)
	b := make([]float64, n)
	copy(a, first)
	copy(b, second)

	return asciigraph.PlotMany([][]float64{a, b},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(
			asciigraph.Blue,
			asciigraph.Green,
		),
	)
}

// RenderBarChart creates a simple horizontal bar chart.
func RenderBarChart(values []float64, labels []string, width int) string {
	if len(values) == 0 {
		return ""
	}

	maxVal := 0.0
	for _, v := range values {
		if v > maxVal {
			maxVal = v
		}
	}
	if maxVal == 0 {
		maxVal = 1
	}

	maxLabelLen := 0
	for _, l := range labels {
		maxLabelLen = max(maxLabelLen, lipgloss.Width(l))
	}

	barWidth := max(width-maxLabelLen-10, 10)

	lines := make([]string, 0, len(values))
	for i, v := range values {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}
		padded := strings.Repeat(" ", maxLabelLen-lipgloss.Width(label)) + label

		barLen := max(int((v/maxVal)*float64(barWidth)), 0)
		bar := lipgloss.NewStyle().Foreground(styles.Secondary).Render(strings.Repeat("█", barLen))
		lines = append(lines, fmt.Sprintf("%s │%s %.0f", padded, bar, v))
	}

	return strings.Join(lines, "\n")
}

// RenderDistribution renders the largest limit entries of a count map as a
// bar chart, largest first. Ties sort by label. A limit <= 0 shows all.
func RenderDistribution(counts map[string]int, width, limit int) string {
	if len(counts) == 0 {
		return styles.HelpStyle.Render("No data available")
	}

	labels := make([]string, 0, len(counts))
	for k := range counts {
		labels = append(labels, k)
	}
	sort.Slice(labels, func(i, j int) bool {
		if counts[labels[i]] != counts[labels[j]] {
			return counts[labels[i]] > counts[labels[j]]
		}
		return labels[i] < labels[j]
	})
	if limit > 0 && len(labels) > limit {
		labels = labels[:limit]
	}

	values := make([]float64, len(labels))
	for i, l := range labels {
		if l == "" {
			labels[i] = "(none)"
		}
		values[i] = float64(counts[l])
	}
	return RenderBarChart(values, labels, width)
}

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// RenderSparkline creates a compact inline sparkline chart.
func RenderSparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}

	maxVal := 0.0
	for _, v := range values {
		if v > maxVal {
			maxVal = v
		}
	}
	if maxVal == 0 {
		maxVal = 1
	}

	// Keep the newest values when there are more than fit.
	if len(values) > width {
		values = values[len(values)-width:]
	}

	var b strings.Builder
	for _, v := range values {
		idx := int((v / maxVal) * float64(len(sparkChars)-1))
		idx = min(max(idx, 0), len(sparkChars)-1)
		b.WriteRune(sparkChars[idx])
	}
	return b.String()
}

// LegendItem represents a single legend entry.
type LegendItem struct {
	Label string
	Color lipgloss.Color
}

// RenderLegend creates a chart legend.
func RenderLegend(items []LegendItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		colorBox := lipgloss.NewStyle().Foreground(item.Color).Render("■")
		parts = append(parts, fmt.Sprintf("%s %s", colorBox, item.Label))
	}
	return strings.Join(parts, "  ")
}
