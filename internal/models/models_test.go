package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTimestamp_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"rfc3339", `"2025-03-10T12:30:00Z"`, time.Date(2025, 3, 10, 12, 30, 0, 0, time.UTC)},
		{"rfc3339 offset", `"2025-03-10T14:30:00+02:00"`, time.Date(2025, 3, 10, 12, 30, 0, 0, time.UTC)},
		{"naive", `"2025-03-10T12:30:00"`, time.Date(2025, 3, 10, 12, 30, 0, 0, time.UTC)},
		{"naive micros", `"2025-03-10T12:30:00.123456"`, time.Date(2025, 3, 10, 12, 30, 0, 123456000, time.UTC)},
		{"space separated", `"2025-03-10 12:30:00"`, time.Date(2025, 3, 10, 12, 30, 0, 0, time.UTC)},
		{"unix seconds", `1741609800`, time.Unix(1741609800, 0)},
		{"unix millis", `1741609800000`, time.UnixMilli(1741609800000)},
		{"numeric string", `"1741609800"`, time.Unix(1741609800, 0)},
		{"null", `null`, time.Time{}},
		{"empty string", `""`, time.Time{}},
		{"garbage", `"yesterday"`, time.Time{}},
		{"negative", `-5`, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			if err := json.Unmarshal([]byte(tt.in), &ts); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if !ts.Equal(tt.want) {
				t.Errorf("Unmarshal(%s) = %v, want %v", tt.in, ts.Time, tt.want)
			}
		})
	}
}

func TestTimestamp_MarshalJSON_Zero(t *testing.T) {
	b, err := json.Marshal(Timestamp{})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(b) != "null" {
		t.Errorf("Marshal(zero) = %s, want null", b)
	}
}

func TestRecord_ProgressPercent(t *testing.T) {
	tests := []struct {
		name           string
		current, total int
		want           float64
	}{
		{"half", 5, 10, 50},
		{"zero total", 5, 0, 0},
		{"negative total", 5, -3, 0},
		{"over total", 15, 10, 100},
		{"negative current", -1, 10, 0},
		{"complete", 10, 10, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Record{ProgressCurrent: tt.current, ProgressTotal: tt.total}
			if got := r.ProgressPercent(); got != tt.want {
				t.Errorf("ProgressPercent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecord_UnmarshalJSON_MissingFields(t *testing.T) {
	var r Record
	if err := json.Unmarshal([]byte(`{"name":"Zhang","guild":null}`), &r); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if r.CharacterName != "Zhang" {
		t.Errorf("CharacterName = %q, want %q", r.CharacterName, "Zhang")
	}
	if r.Guild != "" || r.Level != 0 || !r.ObservedAt.IsZero() {
		t.Errorf("missing fields should decode as zero values, got %+v", r)
	}
}

func TestKeywordStats_UnmarshalJSON_Dedup(t *testing.T) {
	data := `{
		"keyword_stats": {"ban": 12, "warn": 3},
		"monitored_keywords": ["ban", "warn", "ban", "jail", "warn"],
		"total_keywords_detected": 15,
		"unique_keywords": 2
	}`
	var ks KeywordStats
	if err := json.Unmarshal([]byte(data), &ks); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	want := []string{"ban", "warn", "jail"}
	if len(ks.MonitoredKeywords) != len(want) {
		t.Fatalf("MonitoredKeywords = %v, want %v", ks.MonitoredKeywords, want)
	}
	for i := range want {
		if ks.MonitoredKeywords[i] != want[i] {
			t.Errorf("MonitoredKeywords[%d] = %q, want %q", i, ks.MonitoredKeywords[i], want[i])
		}
	}
	if ks.Count("ban") != 12 || ks.Count("jail") != 0 {
		t.Errorf("Count() = %d/%d, want 12/0", ks.Count("ban"), ks.Count("jail"))
	}
}

func TestKeywordStats_Clone(t *testing.T) {
	original := KeywordStats{Counts: map[string]int{"ban": 1}, MonitoredKeywords: []string{"ban"}}
	clone := original.Clone()
	clone.Counts["ban"] = 99
	clone.MonitoredKeywords[0] = "x"
	if original.Counts["ban"] != 1 || original.MonitoredKeywords[0] != "ban" {
		t.Error("modifying clone should not affect original (deep copy check)")
	}
}

func TestCrawlHistory_Recent(t *testing.T) {
	h := CrawlHistory{History: []CrawlHistoryEntry{
		{Account: "a"}, {Account: "b"}, {Account: "c"},
	}}
	got := h.Recent(2)
	if len(got) != 2 || got[0].Account != "c" || got[1].Account != "b" {
		t.Errorf("Recent(2) = %+v, want [c b]", got)
	}
	if got := h.Recent(10); len(got) != 3 {
		t.Errorf("Recent(10) len = %d, want 3", len(got))
	}
	if got := h.Recent(0); got != nil {
		t.Errorf("Recent(0) = %+v, want nil", got)
	}
}

func TestFilterCriteria_Immutable(t *testing.T) {
	base := FilterCriteria{}
	withGuild := base.WithGuild("Wudang")
	if base.Guild != "" {
		t.Errorf("base.Guild = %q, want empty", base.Guild)
	}
	if withGuild.Guild != "Wudang" {
		t.Errorf("withGuild.Guild = %q, want %q", withGuild.Guild, "Wudang")
	}

	lvl := 10
	withMin := withGuild.WithMinLevel(&lvl)
	lvl = 99
	if *withMin.MinLevel != 10 {
		t.Errorf("MinLevel = %d, want 10 (argument must be copied)", *withMin.MinLevel)
	}
	if withGuild.MinLevel != nil {
		t.Error("WithMinLevel should not modify the receiver")
	}
	if !withMin.Cleared().IsEmpty() {
		t.Error("Cleared() should be empty")
	}
}

func TestFilterCriteria_IsEmpty(t *testing.T) {
	tests := []struct {
		name string
		c    FilterCriteria
		want bool
	}{
		{"zero", FilterCriteria{}, true},
		{"whitespace only", FilterCriteria{Guild: "  ", Keyword: "\t"}, true},
		{"guild", FilterCriteria{Guild: "Wudang"}, false},
		{"min level", FilterCriteria{}.WithMinLevel(Level(0)), false},
		{"max level", FilterCriteria{}.WithMaxLevel(Level(5)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.IsEmpty(); got != tt.want {
				t.Errorf("IsEmpty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBatchOperation_Valid(t *testing.T) {
	for _, op := range []BatchOperation{BatchStart, BatchStop, BatchDelete} {
		if !op.Valid() {
			t.Errorf("%q.Valid() = false, want true", op)
		}
	}
	if BatchOperation("pause").Valid() {
		t.Error(`"pause".Valid() = true, want false`)
	}
}

func TestBatchResult_Summary(t *testing.T) {
	tests := []struct {
		name string
		r    BatchResult
		want string
	}{
		{
			"all succeeded",
			BatchResult{Operation: BatchStart, Succeeded: []string{"a", "b"}},
			"batch start: 2 succeeded",
		},
		{
			"all failed",
			BatchResult{Operation: BatchStop, Failed: []BatchFailure{{ID: "a", Reason: "locked"}}},
			"batch stop: all 1 failed (locked)",
		},
		{
			"partial",
			BatchResult{
				Operation: BatchDelete,
				Succeeded: []string{"a", "c"},
				Failed:    []BatchFailure{{ID: "b", Reason: "not found"}},
			},
			"batch delete: 2 succeeded, 1 failed (b: not found)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Summary(); got != tt.want {
				t.Errorf("Summary() = %q, want %q", got, tt.want)
			}
		})
	}
	partial := tests[2].r
	if !partial.Partial() {
		t.Error("Partial() = false, want true")
	}
}
