// Package store holds the client-side view of the crawler service: the last
// confirmed data per slice, pending optimistic patches and the account selection.
package store

import "strings"

// Slice identifies one independently refreshed part of the view.
type Slice int

const (
	// Records is the crawled record list.
	Records Slice = iota
	// Accounts is the crawler account list.
	Accounts
	// CrawlerStatus is the general crawler summary.
	CrawlerStatus
	// Automation is the auto-crawl status.
	Automation
	// Version is the service build info.
	Version
	// Statistics is the aggregate statistics view.
	Statistics
	// Keywords is the keyword monitor state.
	Keywords
	// History is the crawl attempt log.
	History

	sliceCount
)

var sliceNames = [sliceCount]string{
	Records:       "records",
	Accounts:      "accounts",
	CrawlerStatus: "crawler_status",
	Automation:    "automation",
	Version:       "version",
	Statistics:    "statistics",
	Keywords:      "keywords",
	History:       "history",
}

func (s Slice) String() string {
	if s < 0 || s >= sliceCount {
		return "unknown"
	}
	return sliceNames[s]
}

// Set is a set of slices.
type Set uint16

// NewSet returns a set holding slices.
func NewSet(slices ...Slice) Set {
	var s Set
	for _, sl := range slices {
		s = s.With(sl)
	}
	return s
}

// BaseSet is refreshed by every poll cycle.
var BaseSet = NewSet(Records, Accounts, CrawlerStatus, Automation, Version)

// With returns s plus sl.
func (s Set) With(sl Slice) Set {
	return s | 1<<uint(sl)
}

// Has reports whether sl is in s.
func (s Set) Has(sl Slice) bool {
	return s&(1<<uint(sl)) != 0
}

// SubsetOf reports whether every slice of s is in other.
func (s Set) SubsetOf(other Set) bool {
	return s&^other == 0
}

// Union returns the slices in either set.
func (s Set) Union(other Set) Set {
	return s | other
}

// Slices lists the members in declaration order.
func (s Set) Slices() []Slice {
	var out []Slice
	for sl := Slice(0); sl < sliceCount; sl++ {
		if s.Has(sl) {
			out = append(out, sl)
		}
	}
	return out
}

// Len returns the number of slices in s.
func (s Set) Len() int {
	n := 0
	for sl := Slice(0); sl < sliceCount; sl++ {
		if s.Has(sl) {
			n++
		}
	}
	return n
}

func (s Set) String() string {
	names := make([]string, 0, sliceCount)
	for _, sl := range s.Slices() {
		names = append(names, sl.String())
	}
	return "{" + strings.Join(names, ",") + "}"
}
