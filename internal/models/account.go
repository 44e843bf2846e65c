package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AccountStatus is the health of a crawler account as reported by the service.
type AccountStatus string

const (
	// AccountActive means the account crawled successfully recently.
	AccountActive AccountStatus = "active"
	// AccountError means the last crawl failed.
	AccountError AccountStatus = "error"
	// AccountStandby means the account is idle or its state is unknown.
	AccountStandby AccountStatus = "standby"
)

// ParseAccountStatus maps a wire value to an AccountStatus. Unknown values map to standby.
func ParseAccountStatus(s string) AccountStatus {
	switch AccountStatus(strings.ToLower(strings.TrimSpace(s))) {
	case AccountActive, "running":
		return AccountActive
	case AccountError, "failed":
		return AccountError
	default:
		return AccountStandby
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *AccountStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		*s = AccountStandby
		return nil
	}
	*s = ParseAccountStatus(raw)
	return nil
}

// Label returns a short display label.
func (s AccountStatus) Label() string {
	switch s {
	case AccountActive:
		return "Active"
	case AccountError:
		return "Error"
	default:
		return "Standby"
	}
}

// Account is a crawler account owned by the remote service.
type Account struct {
	LastCrawlAt Timestamp     `json:"last_crawl"`
	ID          string        `json:"id"`
	Username    string        `json:"username"`
	Status      AccountStatus `json:"status"`
	LastError   string        `json:"last_error,omitempty"`
	CrawlCount  int           `json:"crawl_count"`
	SuccessRate float64       `json:"success_rate"`
	AutoEnabled bool          `json:"is_auto_enabled"`
}

// Rate returns SuccessRate clamped to [0, 1].
func (a Account) Rate() float64 {
	switch {
	case a.SuccessRate < 0:
		return 0
	case a.SuccessRate > 1:
		return 1
	default:
		return a.SuccessRate
	}
}

// ShortID returns the first 8 characters of the id for display.
func (a Account) ShortID() string {
	if len(a.ID) <= 8 {
		return a.ID
	}
	return a.ID[:8]
}

// CloneAccounts returns a copy of accounts that shares no backing array.
func CloneAccounts(accounts []Account) []Account {
	if accounts == nil {
		return nil
	}
	out := make([]Account, len(accounts))
	copy(out, accounts)
	return out
}

// NewAccount is the add-account form value.
type NewAccount struct {
	Username       string `json:"username"`
	Password       string `json:"password"`
	PreferredGuild string `json:"preferred_guild,omitempty"`
}

// Normalized returns a copy with surrounding whitespace removed from the
// username and guild. Passwords are kept as typed.
func (n NewAccount) Normalized() NewAccount {
	return NewAccount{
		Username:       strings.TrimSpace(n.Username),
		Password:       n.Password,
		PreferredGuild: strings.TrimSpace(n.PreferredGuild),
	}
}

// MissingFields lists the required fields that are empty.
func (n NewAccount) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(n.Username) == "" {
		missing = append(missing, "username")
	}
	if n.Password == "" {
		missing = append(missing, "password")
	}
	return missing
}

// Validate reports missing required fields.
func (n NewAccount) Validate() error {
	if missing := n.MissingFields(); len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}
