package models

// BasicStats are the headline counters of /crawler/stats.
type BasicStats struct {
	TotalRecords   int `json:"total_records"`
	TotalAccounts  int `json:"total_accounts"`
	ActiveAccounts int `json:"active_accounts"`
	TotalCrawls    int `json:"total_crawls"`
}

// AccumulationStats summarize cycle accumulation across records.
type AccumulationStats struct {
	TotalAccumulatedCount   int     `json:"total_accumulated_count"`
	TotalCycles             int     `json:"total_cycles"`
	AvgAccumulatedPerRecord float64 `json:"avg_accumulated_per_record"`
}

// Statistics is the aggregate view served by /crawler/stats.
type Statistics struct {
	AccountDistribution map[string]int    `json:"account_distribution"`
	GuildDistribution   map[string]int    `json:"guild_distribution"`
	TypeDistribution    map[string]int    `json:"type_distribution"`
	Basic               BasicStats        `json:"basic_stats"`
	Accumulation        AccumulationStats `json:"accumulation_stats"`
}

// Clone returns a deep copy of the statistics.
func (s Statistics) Clone() Statistics {
	s.AccountDistribution = cloneCounts(s.AccountDistribution)
	s.GuildDistribution = cloneCounts(s.GuildDistribution)
	s.TypeDistribution = cloneCounts(s.TypeDistribution)
	return s
}

func cloneCounts(m map[string]int) map[string]int {
	if m == nil {
		return nil
	}
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
