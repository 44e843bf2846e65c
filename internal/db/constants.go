package db

import "time"

// sqlTimeLayout is the layout timestamps are written in. SQLite's date
// functions compare it lexically.
const sqlTimeLayout = "2006-01-02 15:04:05"

// historyTables lists every table that carries a timestamp column.
var historyTables = []string{"cycle_metrics", "keyword_alerts", "exports"}

var timeFormats = []string{
	sqlTimeLayout,
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05 -0700 MST",
	"2006-01-02 15:04:05 +0000 UTC",
}

func parseTimeString(s string) (time.Time, bool) {
	for _, format := range timeFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(sqlTimeLayout)
}
