package models

import "time"

// TimeRange represents the selected local history window.
type TimeRange int

const (
	// TimeRangeHour shows cycles from the last hour.
	TimeRangeHour TimeRange = iota
	// TimeRange24Hours shows cycles from the last 24 hours.
	TimeRange24Hours
	// TimeRange7Days shows cycles from the last 7 days.
	TimeRange7Days
	// TimeRangeAllTime shows all retained cycles.
	TimeRangeAllTime
)

// String returns the display name for a time range.
func (t TimeRange) String() string {
	switch t {
	case TimeRangeHour:
		return "1 Hour"
	case TimeRange24Hours:
		return "24 Hours"
	case TimeRange7Days:
		return "7 Days"
	case TimeRangeAllTime:
		return "All Time"
	default:
		return "Unknown"
	}
}

// Duration returns the window length (0 = unlimited).
func (t TimeRange) Duration() time.Duration {
	switch t {
	case TimeRangeHour:
		return time.Hour
	case TimeRange24Hours:
		return 24 * time.Hour
	case TimeRange7Days:
		return 7 * 24 * time.Hour
	case TimeRangeAllTime:
		return 0
	default:
		return 24 * time.Hour
	}
}

// Since returns the lower bound of the window relative to now.
// The zero time is returned for TimeRangeAllTime.
func (t TimeRange) Since(now time.Time) time.Time {
	d := t.Duration()
	if d == 0 {
		return time.Time{}
	}
	return now.Add(-d)
}

// Next cycles to the next time range.
func (t TimeRange) Next() TimeRange {
	return (t + 1) % 4
}

// CycleMetric is one applied poll cycle as recorded in the local history store.
type CycleMetric struct {
	Timestamp      time.Time
	Cycle          uint64
	Records        int
	Accounts       int
	ActiveAccounts int
	KeywordTotal   int
	Running        bool
}

// KeywordAlert records a keyword reaching the alert threshold.
type KeywordAlert struct {
	Timestamp time.Time
	Keyword   string
	Count     int
	Threshold int
}

// ExportRecord records a completed data export.
type ExportRecord struct {
	Timestamp time.Time
	Path      string
	Bytes     int64
}

// CycleSummary aggregates cycle metrics over a time range.
type CycleSummary struct {
	Cycles        int
	PeakRecords   int
	AvgRecords    float64
	RunningRatio  float64
	FirstRecorded time.Time
	LastRecorded  time.Time
}

// HasData reports whether any cycles were aggregated.
func (s CycleSummary) HasData() bool {
	return s.Cycles > 0
}

// Summarize aggregates metrics. Order of input does not matter.
func Summarize(metrics []CycleMetric) CycleSummary {
	var s CycleSummary
	if len(metrics) == 0 {
		return s
	}
	var total, running int
	for _, m := range metrics {
		total += m.Records
		if m.Records > s.PeakRecords {
			s.PeakRecords = m.Records
		}
		if m.Running {
			running++
		}
		if s.FirstRecorded.IsZero() || m.Timestamp.Before(s.FirstRecorded) {
			s.FirstRecorded = m.Timestamp
		}
		if m.Timestamp.After(s.LastRecorded) {
			s.LastRecorded = m.Timestamp
		}
	}
	s.Cycles = len(metrics)
	s.AvgRecords = float64(total) / float64(len(metrics))
	s.RunningRatio = float64(running) / float64(len(metrics))
	return s
}
