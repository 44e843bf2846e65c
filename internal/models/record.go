package models

// Record is one crawled character row reported by the remote service.
//
// ProgressCurrent and ProgressTotal are reported independently. Nothing
// guarantees ProgressCurrent <= ProgressTotal.
type Record struct {
	ObservedAt       Timestamp `json:"crawl_timestamp"`
	AccountUsername  string    `json:"account_username"`
	CharacterName    string    `json:"name"`
	ActivityType     string    `json:"type"`
	Guild            string    `json:"guild"`
	Status           string    `json:"status"`
	Level            int       `json:"level"`
	ProgressCurrent  int       `json:"count_current"`
	ProgressTotal    int       `json:"count_total"`
	CycleCount       int       `json:"cycle_count"`
	AccumulatedCount int       `json:"accumulated_count"`
}

// ProgressPercent returns current/total as a percentage clamped to [0, 100].
// A non-positive total yields 0.
func (r Record) ProgressPercent() float64 {
	if r.ProgressTotal <= 0 || r.ProgressCurrent <= 0 {
		return 0
	}
	p := float64(r.ProgressCurrent) / float64(r.ProgressTotal) * 100
	if p > 100 {
		return 100
	}
	return p
}

// CloneRecords returns a copy of records that shares no backing array.
func CloneRecords(records []Record) []Record {
	if records == nil {
		return nil
	}
	out := make([]Record, len(records))
	copy(out, records)
	return out
}
