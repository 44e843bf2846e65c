package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/crawler-dashboard-tui/internal/logger"
	"github.com/j-veylop/crawler-dashboard-tui/internal/ui/styles"
)

const (
	gradientLow  = "#ff6b6b"
	gradientHigh = "#51cf66"
)

// AnimationTickMsg drives loading shimmer frames.
type AnimationTickMsg time.Time

// AnimationTick schedules the next shimmer frame.
func AnimationTick() tea.Cmd {
	return tea.Tick(time.Millisecond*50, func(t time.Time) tea.Msg {
		return AnimationTickMsg(t)
	})
}

// ProgressBar renders a labelled percentage bar, such as an account success
// rate or a record's progress towards its target.
type ProgressBar struct {
	progress progress.Model
	label    string
	percent  float64
}

// NewProgressBar creates a progress bar with a red to green gradient.
func NewProgressBar() ProgressBar {
	return NewProgressBarWithWidth(30)
}

// NewProgressBarWithWidth creates a progress bar with a specific width.
func NewProgressBarWithWidth(width int) ProgressBar {
	p := progress.New(
		progress.WithScaledGradient(gradientLow, gradientHigh),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
	return ProgressBar{progress: p}
}

// Update forwards spring animation frames to the underlying bar.
func (b ProgressBar) Update(msg tea.Msg) (ProgressBar, tea.Cmd) {
	model, cmd := b.progress.Update(msg)
	if p, ok := model.(progress.Model); ok {
		b.progress = p
	}
	return b, cmd
}

// SetPercent animates the bar towards percent (0-100).
func (b *ProgressBar) SetPercent(percent float64) tea.Cmd {
	b.percent = clampPercent(percent)
	return b.progress.SetPercent(b.percent / 100)
}

// Percent returns the target percentage.
func (b ProgressBar) Percent() float64 {
	return b.percent
}

// SetLabel sets the bar label.
func (b *ProgressBar) SetLabel(label string) {
	b.label = label
}

// SetWidth sets the bar width.
func (b *ProgressBar) SetWidth(width int) {
	b.progress.Width = width
}

// View renders the animated bar with its label and target percentage.
func (b ProgressBar) View() string {
	labelStr := styles.ProgressLabelStyle.Width(15).Render(b.label)
	percentStr := percentLabel(b.percent)
	return lipgloss.JoinHorizontal(lipgloss.Center, labelStr, b.progress.View(), " ", percentStr)
}

// ViewAs renders a static bar for percent without touching the animation state.
func (b ProgressBar) ViewAs(percent float64, label string, width int) string {
	percent = clampPercent(percent)
	b.progress.Width = max(width-30, 10)

	labelStr := styles.ProgressLabelStyle.Width(15).Render(label)
	percentStr := percentLabel(percent)

	return lipgloss.JoinHorizontal(lipgloss.Center, labelStr, b.progress.ViewAs(percent/100), " ", percentStr)
}

// ViewCompact renders a compact bar without label.
func (b ProgressBar) ViewCompact(percent float64, width int) string {
	percent = clampPercent(percent)
	b.progress.Width = max(width-8, 5)

	percentStr := styles.GetProgressStyle(percent).Render(fmt.Sprintf("%.0f%%", percent))
	return lipgloss.JoinHorizontal(lipgloss.Center, b.progress.ViewAs(percent/100), " ", percentStr)
}

// RenderGradientBar renders just the bar characters with gradient colors.
func RenderGradientBar(percent float64, width int) string {
	if width < 1 {
		return ""
	}

	filled := min(max(int(float64(width)*clampPercent(percent)/100), 0), width)

	var b strings.Builder
	for i := range width {
		if i < filled {
			t := float64(i) / float64(max(1, width-1))
			color := interpolateColor(gradientLow, gradientHigh, t)
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("█"))
		} else {
			b.WriteString(lipgloss.NewStyle().Foreground(styles.Subtle).Render("░"))
		}
	}
	return b.String()
}

// SimpleProgressBar renders "label [bar] NN%" in width cells.
func SimpleProgressBar(percent float64, label string, width int) string {
	percentWidth := styles.ProgressPercentStyle.GetWidth()
	barWidth := max(width-lipgloss.Width(label)-1-percentWidth-4, 5)

	labelStr := lipgloss.NewStyle().Foreground(styles.TextSecondary).Render(label)
	return fmt.Sprintf("%s [%s] %s", labelStr, RenderGradientBar(percent, barWidth), percentLabel(percent))
}

// percentLabel renders percent right-aligned in the threshold color.
func percentLabel(percent float64) string {
	percent = clampPercent(percent)
	return styles.GetProgressStyle(percent).
		Inherit(styles.ProgressPercentStyle).
		Render(fmt.Sprintf("%.0f%%", percent))
}

// RenderLoadingBar renders a shimmer that sweeps back and forth while the
// first cycle is outstanding.
func RenderLoadingBar(width, frame int) string {
	width = max(width, 10)
	const cycle = 120

	t := float64(frame%cycle) / float64(cycle)
	p := t * 2
	if t >= 0.5 {
		p = (1 - t) * 2
	}
	eased := p * p * (3 - 2*p)
	pos := int(eased * float64(width))

	var b strings.Builder
	for i := range width {
		dist := pos - i
		if dist < 0 {
			dist = -dist
		}
		switch {
		case dist < 3:
			b.WriteString(lipgloss.NewStyle().Foreground(styles.Primary).Render("▓"))
		case dist < 5:
			b.WriteString(lipgloss.NewStyle().Foreground(styles.TextSecondary).Render("▒"))
		default:
			b.WriteString(lipgloss.NewStyle().Foreground(styles.BgLight).Render("░"))
		}
	}
	return b.String()
}

func clampPercent(p float64) float64 {
	return min(max(p, 0), 100)
}

func interpolateColor(fromHex, toHex string, t float64) string {
	from := hexToRGB(fromHex)
	to := hexToRGB(toHex)

	r := int(float64(from[0]) + t*(float64(to[0])-float64(from[0])))
	g := int(float64(from[1]) + t*(float64(to[1])-float64(from[1])))
	b := int(float64(from[2]) + t*(float64(to[2])-float64(from[2])))

	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func hexToRGB(hex string) [3]int {
	hex = strings.TrimPrefix(hex, "#")
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		logger.Error("failed to parse hex color", "hex", hex, "error", err)
		return [3]int{0, 0, 0}
	}
	return [3]int{r, g, b}
}
