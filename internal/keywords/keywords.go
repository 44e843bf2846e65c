// Package keywords classifies keyword detection counts into risk levels and alerts.
package keywords

import "sort"

// DefaultThreshold is the alert threshold used when none is configured.
const DefaultThreshold = 5

// Risk is the operator-facing severity of a keyword count.
type Risk int

const (
	// Low is fewer than 5 detections.
	Low Risk = iota
	// Medium is 5 to 9 detections.
	Medium
	// High is 10 or more detections.
	High
)

// RiskFor maps a count to its risk level.
func RiskFor(count int) Risk {
	switch {
	case count >= 10:
		return High
	case count >= 5:
		return Medium
	default:
		return Low
	}
}

func (r Risk) String() string {
	switch r {
	case High:
		return "high"
	case Medium:
		return "medium"
	default:
		return "low"
	}
}

// Advice returns the suggested operator action.
func (r Risk) Advice() string {
	switch r {
	case High:
		return "check account now"
	case Medium:
		return "watch account"
	default:
		return "normal monitoring"
	}
}

// Entry is a keyword and its detection count.
type Entry struct {
	Keyword string
	Count   int
}

// Risk returns the entry's risk level.
func (e Entry) Risk() Risk {
	return RiskFor(e.Count)
}

// Classification is the result of Classify.
type Classification struct {
	counts    map[string]int
	HighAlert []Entry
	Threshold int
}

// RiskOf returns the risk of keyword. Unknown keywords are Low.
func (c Classification) RiskOf(keyword string) Risk {
	return RiskFor(c.counts[keyword])
}

// Count returns the count of keyword, 0 when unknown.
func (c Classification) Count(keyword string) int {
	return c.counts[keyword]
}

// ClampThreshold returns threshold, or 1 when it is below 1.
func ClampThreshold(threshold int) int {
	if threshold < 1 {
		return 1
	}
	return threshold
}

// Classify returns the keywords whose count reaches threshold, highest
// count first and ties broken alphabetically.
func Classify(counts map[string]int, threshold int) Classification {
	threshold = ClampThreshold(threshold)
	c := Classification{
		counts:    make(map[string]int, len(counts)),
		Threshold: threshold,
	}
	for kw, n := range counts {
		c.counts[kw] = n
		if n >= threshold {
			c.HighAlert = append(c.HighAlert, Entry{Keyword: kw, Count: n})
		}
	}
	sortEntries(c.HighAlert)
	return c
}

// Ranked returns every keyword ordered like Classification.HighAlert.
func Ranked(counts map[string]int) []Entry {
	out := make([]Entry, 0, len(counts))
	for kw, n := range counts {
		out = append(out, Entry{Keyword: kw, Count: n})
	}
	sortEntries(out)
	return out
}

// Crossings returns the keywords at or above threshold in next that were
// below it (or absent) in prev.
func Crossings(prev, next map[string]int, threshold int) []Entry {
	threshold = ClampThreshold(threshold)
	var out []Entry
	for kw, n := range next {
		if n >= threshold && prev[kw] < threshold {
			out = append(out, Entry{Keyword: kw, Count: n})
		}
	}
	sortEntries(out)
	return out
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Keyword < entries[j].Keyword
	})
}
