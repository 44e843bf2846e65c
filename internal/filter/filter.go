// Package filter selects records matching operator criteria, locally or on the service.
package filter

import (
	"context"
	"errors"
	"strings"

	"github.com/j-veylop/crawler-dashboard-tui/internal/apperr"
	"github.com/j-veylop/crawler-dashboard-tui/internal/logger"
	"github.com/j-veylop/crawler-dashboard-tui/internal/models"
)

// Apply returns the records matching every constraint in criteria, in their
// original order. String constraints are trimmed, case-insensitive substring
// matches; level bounds are inclusive; the keyword matches either the
// character name or the status. Empty criteria return every record.
func Apply(records []models.Record, criteria models.FilterCriteria) []models.Record {
	m := newMatcher(criteria)
	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		if m.match(r) {
			out = append(out, r)
		}
	}
	return out
}

type matcher struct {
	minLevel *int
	maxLevel *int
	account  string
	guild    string
	activity string
	status   string
	keyword  string
}

func newMatcher(c models.FilterCriteria) matcher {
	return matcher{
		account:  normalize(c.AccountUsername),
		guild:    normalize(c.Guild),
		activity: normalize(c.ActivityType),
		status:   normalize(c.Status),
		keyword:  normalize(c.Keyword),
		minLevel: c.MinLevel,
		maxLevel: c.MaxLevel,
	}
}

func (m matcher) match(r models.Record) bool {
	if !contains(r.AccountUsername, m.account) ||
		!contains(r.Guild, m.guild) ||
		!contains(r.ActivityType, m.activity) ||
		!contains(r.Status, m.status) {
		return false
	}
	if m.minLevel != nil && r.Level < *m.minLevel {
		return false
	}
	if m.maxLevel != nil && r.Level > *m.maxLevel {
		return false
	}
	if m.keyword != "" && !contains(r.CharacterName, m.keyword) && !contains(r.Status, m.keyword) {
		return false
	}
	return true
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// contains reports whether needle (already lowercased) occurs in field.
// An empty needle always matches.
func contains(field, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(field), needle)
}

// Engine evaluates criteria against records.
type Engine interface {
	Filter(ctx context.Context, records []models.Record, criteria models.FilterCriteria) ([]models.Record, error)
}

// Local evaluates criteria in-process.
type Local struct{}

// Filter implements Engine.
func (Local) Filter(_ context.Context, records []models.Record, criteria models.FilterCriteria) ([]models.Record, error) {
	return Apply(records, criteria), nil
}

// RemoteFilterer is the subset of the service client used by Remote.
type RemoteFilterer interface {
	FilterRecords(ctx context.Context, criteria models.FilterCriteria) ([]models.Record, error)
}

// Remote forwards criteria to the service and returns its answer verbatim.
// The records argument is ignored; the service filters its own data.
type Remote struct {
	Client RemoteFilterer
}

// Filter implements Engine.
func (r Remote) Filter(ctx context.Context, _ []models.Record, criteria models.FilterCriteria) ([]models.Record, error) {
	if r.Client == nil {
		return nil, errors.New("remote filter: no client")
	}
	return r.Client.FilterRecords(ctx, criteria)
}

// Fallback tries Primary and uses Secondary when Primary fails with a
// network error. Other errors are returned as is.
type Fallback struct {
	Primary   Engine
	Secondary Engine
}

// Filter implements Engine.
func (f Fallback) Filter(ctx context.Context, records []models.Record, criteria models.FilterCriteria) ([]models.Record, error) {
	out, err := f.Primary.Filter(ctx, records, criteria)
	if err == nil || !apperr.IsNetwork(err) || ctx.Err() != nil {
		return out, err
	}
	logger.Warn("remote filter failed, evaluating locally", "error", err)
	return f.Secondary.Filter(ctx, records, criteria)
}
