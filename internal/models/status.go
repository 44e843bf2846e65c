package models

// AutomationStatus is the process-wide auto-crawl summary from /crawler/auto/status.
type AutomationStatus struct {
	Running         bool `json:"running"`
	IntervalSeconds int  `json:"interval"`
	ActiveAccounts  int  `json:"active_accounts"`
	TotalAccounts   int  `json:"total_accounts"`
}

// CrawlerStatus is the general crawler summary from /crawler/status.
type CrawlerStatus struct {
	CrawlStatus    string `json:"crawl_status"`
	SystemInfo     string `json:"system_info"`
	Version        string `json:"version"`
	LastUpdate     string `json:"last_update"`
	TotalAccounts  int    `json:"total_accounts"`
	ActiveAccounts int    `json:"active_accounts"`
	TotalRecords   int    `json:"total_records"`
	KeywordAlerts  int    `json:"keyword_alerts"`
}

// VersionInfo describes the remote service build.
type VersionInfo struct {
	Version      string   `json:"version"`
	UpdateDate   string   `json:"update_date"`
	Architecture string   `json:"architecture"`
	Changelog    []string `json:"changelog"`
	Features     []string `json:"features"`
}

// CrawlHistoryEntry is one crawl attempt, appended by the service.
type CrawlHistoryEntry struct {
	Timestamp Timestamp `json:"timestamp"`
	Account   string    `json:"account"`
	DataCount int       `json:"data_count"`
	Success   bool      `json:"success"`
}

// CrawlHistory is the /crawler/history payload.
type CrawlHistory struct {
	History     []CrawlHistoryEntry `json:"history"`
	TotalCrawls int                 `json:"total_crawls"`
	SuccessRate float64             `json:"success_rate"`
}

// Recent returns up to n entries, newest first.
func (h CrawlHistory) Recent(n int) []CrawlHistoryEntry {
	if n <= 0 || len(h.History) == 0 {
		return nil
	}
	start := max(len(h.History)-n, 0)
	out := make([]CrawlHistoryEntry, 0, len(h.History)-start)
	for i := len(h.History) - 1; i >= start; i-- {
		out = append(out, h.History[i])
	}
	return out
}

// Clone returns a copy that shares no backing array.
func (h CrawlHistory) Clone() CrawlHistory {
	if h.History != nil {
		entries := make([]CrawlHistoryEntry, len(h.History))
		copy(entries, h.History)
		h.History = entries
	}
	return h
}
