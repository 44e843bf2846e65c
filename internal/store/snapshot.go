package store

import (
	"time"

	"github.com/j-veylop/crawler-dashboard-tui/internal/models"
)

// Partial carries the slices fetched by one cycle. Nil fields are absent.
type Partial struct {
	Records       *[]models.Record
	Accounts      *[]models.Account
	CrawlerStatus *models.CrawlerStatus
	Automation    *models.AutomationStatus
	Version       *models.VersionInfo
	Statistics    *models.Statistics
	Keywords      *models.KeywordStats
	History       *models.CrawlHistory
}

// Slices returns the set of slices present.
func (p Partial) Slices() Set {
	var s Set
	if p.Records != nil {
		s = s.With(Records)
	}
	if p.Accounts != nil {
		s = s.With(Accounts)
	}
	if p.CrawlerStatus != nil {
		s = s.With(CrawlerStatus)
	}
	if p.Automation != nil {
		s = s.With(Automation)
	}
	if p.Version != nil {
		s = s.With(Version)
	}
	if p.Statistics != nil {
		s = s.With(Statistics)
	}
	if p.Keywords != nil {
		s = s.With(Keywords)
	}
	if p.History != nil {
		s = s.With(History)
	}
	return s
}

// Snapshot is a consistent copy of the view. Mutating it does not affect the store.
type Snapshot struct {
	UpdatedAt     [sliceCount]time.Time
	Cycles        [sliceCount]uint64
	Keywords      models.KeywordStats
	Statistics    models.Statistics
	History       models.CrawlHistory
	Version       models.VersionInfo
	CrawlerStatus models.CrawlerStatus
	Records       []models.Record
	Accounts      []models.Account
	Selected      []string
	Automation    models.AutomationStatus
	Pending       int
}

// Cycle returns the id of the cycle that produced sl, 0 if never loaded.
func (s Snapshot) Cycle(sl Slice) uint64 {
	return s.Cycles[sl]
}

// Loaded reports whether sl has been confirmed at least once.
func (s Snapshot) Loaded(sl Slice) bool {
	return s.Cycles[sl] > 0
}

// LoadedSlices returns every slice that holds confirmed data.
func (s Snapshot) LoadedSlices() []Slice {
	var out []Slice
	for sl := range sliceCount {
		if s.Loaded(sl) {
			out = append(out, sl)
		}
	}
	return out
}

// Updated returns when sl was last confirmed.
func (s Snapshot) Updated(sl Slice) time.Time {
	return s.UpdatedAt[sl]
}

// IsSelected reports whether the account id is selected.
func (s Snapshot) IsSelected(id string) bool {
	for _, sel := range s.Selected {
		if sel == id {
			return true
		}
	}
	return false
}

// Account returns the account with id.
func (s Snapshot) Account(id string) (models.Account, bool) {
	for _, a := range s.Accounts {
		if a.ID == id {
			return a, true
		}
	}
	return models.Account{}, false
}

func (s Snapshot) clone() Snapshot {
	s.Records = models.CloneRecords(s.Records)
	s.Accounts = models.CloneAccounts(s.Accounts)
	s.Statistics = s.Statistics.Clone()
	s.Keywords = s.Keywords.Clone()
	s.History = s.History.Clone()
	s.Version.Changelog = append([]string(nil), s.Version.Changelog...)
	s.Version.Features = append([]string(nil), s.Version.Features...)
	s.Selected = append([]string(nil), s.Selected...)
	return s
}
