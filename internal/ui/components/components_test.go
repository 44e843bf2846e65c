package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

func TestNewSpinner(t *testing.T) {
	s := NewSpinner("Loading")
	if s.label != "Loading" {
		t.Error("Spinner label mismatch")
	}
}

func TestSpinner_Methods(t *testing.T) {
	s := NewSpinner("Init")

	s.SetLabel("Loading")
	if s.Label() != "Loading" {
		t.Errorf("Label = %s, want Loading", s.Label())
	}

	if s.View() == "" {
		t.Error("View returned empty")
	}
	if s.ViewWithLabel() == "" {
		t.Error("ViewWithLabel returned empty")
	}
	if s.Init() == nil {
		t.Error("Init should return command")
	}

	_, cmd := s.Update(spinner.TickMsg{})
	if cmd == nil {
		t.Error("Update should return command for tick")
	}
	if s.Tick() == nil {
		t.Error("Tick should return command")
	}
	if s.Spinner().Spinner.Frames == nil {
		t.Error("Spinner accessor failed")
	}
}

func TestSpinner_ViewResources(t *testing.T) {
	s := NewSpinner("Waiting")
	if got := s.ViewResources(nil); !strings.Contains(got, "Waiting") {
		t.Errorf("ViewResources(nil) = %q, want the label", got)
	}
	got := s.ViewResources([]string{"records", "history"})
	if !strings.Contains(got, "records, history") {
		t.Errorf("ViewResources() = %q, want resource list", got)
	}
}

func TestRenderSpinnerCentered(t *testing.T) {
	s := NewSpinner("Loading...")
	if RenderSpinnerCentered(s, 20, 5) == "" {
		t.Error("RenderSpinnerCentered returned empty")
	}
}

func TestRenderLineChart(t *testing.T) {
	if s := RenderLineChart([]float64{1, 2, 3, 4}, 20, 5, "Test"); s == "" {
		t.Error("RenderLineChart returned empty")
	}
	if s := RenderLineChart(nil, 20, 5, "Test"); !strings.Contains(s, "No data") {
		t.Errorf("RenderLineChart(nil) = %q", s)
	}
}

func TestRenderDualLineChart(t *testing.T) {
	if s := RenderDualLineChart([]float64{1, 2, 3}, []float64{3, 2}, 20, 5, "Title"); s == "" {
		t.Error("RenderDualLineChart returned empty")
	}
	if s := RenderDualLineChart(nil, nil, 20, 5, ""); !strings.Contains(s, "No data") {
		t.Errorf("RenderDualLineChart(nil, nil) = %q", s)
	}
}

func TestRenderBarChart(t *testing.T) {
	s := RenderBarChart([]float64{10, 20}, []string{"A", "B"}, 20)
	if !strings.Contains(s, "20") || strings.Count(s, "\n") != 1 {
		t.Errorf("RenderBarChart() = %q", s)
	}
	if RenderBarChart(nil, nil, 20) != "" {
		t.Error("RenderBarChart(nil) should be empty")
	}
}

func TestRenderDistribution(t *testing.T) {
	counts := map[string]int{"Wudang": 3, "Emei": 7, "Shaolin": 3, "": 1}
	s := RenderDistribution(counts, 40, 3)

	lines := strings.Split(s, "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3: %q", len(lines), s)
	}
	if !strings.Contains(lines[0], "Emei") {
		t.Errorf("first line = %q, want the largest entry", lines[0])
	}
	if !strings.Contains(lines[1], "Shaolin") || !strings.Contains(lines[2], "Wudang") {
		t.Errorf("ties should sort by label: %q", s)
	}

	all := RenderDistribution(counts, 40, 0)
	if !strings.Contains(all, "(none)") {
		t.Errorf("empty label should render as (none): %q", all)
	}
	if !strings.Contains(RenderDistribution(nil, 40, 3), "No data") {
		t.Error("empty distribution should say no data")
	}
}

func TestRenderSparkline(t *testing.T) {
	if s := RenderSparkline([]float64{1, 2, 3}, 10); len([]rune(s)) != 3 {
		t.Errorf("RenderSparkline() = %q, want 3 runes", s)
	}
	s := RenderSparkline([]float64{1, 2, 3, 4, 5}, 2)
	if len([]rune(s)) != 2 || []rune(s)[1] != '█' {
		t.Errorf("RenderSparkline() = %q, want the newest two values", s)
	}
	if RenderSparkline(nil, 10) != "" {
		t.Error("RenderSparkline(nil) should be empty")
	}
}

func TestRenderLegend(t *testing.T) {
	items := []LegendItem{{Label: "Records", Color: lipgloss.Color("#ffffff")}}
	if s := RenderLegend(items); !strings.Contains(s, "Records") {
		t.Errorf("RenderLegend() = %q", s)
	}
}

func TestRenderFooter(t *testing.T) {
	out := RenderFooter(Shortcut{"d", "delete"}, Shortcut{"n", "add"})
	for _, want := range []string{"d", "delete", "add", "|"} {
		if !strings.Contains(out, want) {
			t.Errorf("footer should contain %q, got %q", want, out)
		}
	}
}

func TestFitColumn(t *testing.T) {
	cols := []table.Column{
		{Title: "Name", Width: 10},
		{Title: "Flex", Width: 0},
		{Title: "Level", Width: 5},
	}
	got := FitColumn(cols, 1, 60, 8)
	// 60 - (12 + 7) - 2
	if got[1].Width != 39 {
		t.Errorf("flex width = %d, want 39", got[1].Width)
	}
	if cols[1].Width != 0 {
		t.Error("FitColumn should not modify its input")
	}
	if got := FitColumn(cols, 1, 10, 8); got[1].Width != 8 {
		t.Errorf("flex width = %d, want min 8", got[1].Width)
	}
}

func TestNewTable(t *testing.T) {
	tbl := NewTable([]table.Column{{Title: "Name", Width: 10}}, 5)
	tbl.SetRows([]table.Row{{"alice"}})
	if !strings.Contains(tbl.View(), "alice") {
		t.Error("table should render its rows")
	}
}
