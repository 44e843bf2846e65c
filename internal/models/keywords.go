package models

import "encoding/json"

// KeywordStats is the keyword monitor state from /crawler/keywords.
type KeywordStats struct {
	Counts            map[string]int `json:"keyword_stats"`
	MonitoredKeywords []string       `json:"monitored_keywords"`
	TotalDetected     int            `json:"total_keywords_detected"`
	UniqueKeywords    int            `json:"unique_keywords"`
}

// UnmarshalJSON decodes the payload and removes duplicate monitored keywords
// while keeping their first-seen order.
func (k *KeywordStats) UnmarshalJSON(data []byte) error {
	type alias KeywordStats
	var raw alias
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	raw.MonitoredKeywords = uniqueKeywords(raw.MonitoredKeywords)
	*k = KeywordStats(raw)
	return nil
}

// Count returns the detection count for keyword, 0 when unknown.
func (k KeywordStats) Count(keyword string) int {
	return k.Counts[keyword]
}

// Clone returns a deep copy.
func (k KeywordStats) Clone() KeywordStats {
	k.Counts = cloneCounts(k.Counts)
	if k.MonitoredKeywords != nil {
		kw := make([]string, len(k.MonitoredKeywords))
		copy(kw, k.MonitoredKeywords)
		k.MonitoredKeywords = kw
	}
	return k
}

func uniqueKeywords(in []string) []string {
	if in == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, kw := range in {
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}
