package models

import "strings"

// FilterCriteria selects a subset of records. Every field is optional:
// an empty string or a nil level bound places no constraint on that dimension.
//
// Values are immutable by convention; the With* methods return modified copies.
type FilterCriteria struct {
	MinLevel        *int   `json:"min_level,omitempty"`
	MaxLevel        *int   `json:"max_level,omitempty"`
	AccountUsername string `json:"account_username,omitempty"`
	Guild           string `json:"guild,omitempty"`
	ActivityType    string `json:"type,omitempty"`
	Status          string `json:"status,omitempty"`
	Keyword         string `json:"keyword,omitempty"`
}

// IsEmpty reports whether the criteria constrain nothing.
func (c FilterCriteria) IsEmpty() bool {
	return blank(c.AccountUsername) &&
		blank(c.Guild) &&
		blank(c.ActivityType) &&
		blank(c.Status) &&
		blank(c.Keyword) &&
		c.MinLevel == nil &&
		c.MaxLevel == nil
}

// WithAccount returns a copy with the account constraint set.
func (c FilterCriteria) WithAccount(v string) FilterCriteria {
	c.AccountUsername = v
	return c
}

// WithGuild returns a copy with the guild constraint set.
func (c FilterCriteria) WithGuild(v string) FilterCriteria {
	c.Guild = v
	return c
}

// WithActivityType returns a copy with the activity type constraint set.
func (c FilterCriteria) WithActivityType(v string) FilterCriteria {
	c.ActivityType = v
	return c
}

// WithStatus returns a copy with the status constraint set.
func (c FilterCriteria) WithStatus(v string) FilterCriteria {
	c.Status = v
	return c
}

// WithKeyword returns a copy with the keyword constraint set.
func (c FilterCriteria) WithKeyword(v string) FilterCriteria {
	c.Keyword = v
	return c
}

// WithMinLevel returns a copy with the inclusive lower level bound set.
// A nil argument removes the bound.
func (c FilterCriteria) WithMinLevel(v *int) FilterCriteria {
	c.MinLevel = copyInt(v)
	return c
}

// WithMaxLevel returns a copy with the inclusive upper level bound set.
// A nil argument removes the bound.
func (c FilterCriteria) WithMaxLevel(v *int) FilterCriteria {
	c.MaxLevel = copyInt(v)
	return c
}

// Cleared returns empty criteria.
func (c FilterCriteria) Cleared() FilterCriteria {
	return FilterCriteria{}
}

// Level returns a pointer to v for use with WithMinLevel/WithMaxLevel.
func Level(v int) *int {
	return &v
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
