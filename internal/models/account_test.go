package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseAccountStatus(t *testing.T) {
	tests := []struct {
		in   string
		want AccountStatus
	}{
		{"active", AccountActive},
		{" ACTIVE ", AccountActive},
		{"running", AccountActive},
		{"error", AccountError},
		{"failed", AccountError},
		{"standby", AccountStandby},
		{"", AccountStandby},
		{"paused", AccountStandby},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseAccountStatus(tt.in); got != tt.want {
				t.Errorf("ParseAccountStatus(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestAccount_UnmarshalJSON(t *testing.T) {
	data := `{
		"id": "a1b2c3d4e5f6",
		"username": "alice",
		"status": "mystery",
		"crawl_count": 12,
		"success_rate": 0.75,
		"is_auto_enabled": true,
		"last_crawl": "2025-03-10T12:30:00"
	}`

	var acc Account
	if err := json.Unmarshal([]byte(data), &acc); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if acc.ID != "a1b2c3d4e5f6" {
		t.Errorf("ID = %q, want %q", acc.ID, "a1b2c3d4e5f6")
	}
	if acc.Status != AccountStandby {
		t.Errorf("Status = %q, want %q", acc.Status, AccountStandby)
	}
	if !acc.AutoEnabled {
		t.Error("AutoEnabled = false, want true")
	}
	if acc.CrawlCount != 12 {
		t.Errorf("CrawlCount = %d, want 12", acc.CrawlCount)
	}
	want := time.Date(2025, 3, 10, 12, 30, 0, 0, time.UTC)
	if !acc.LastCrawlAt.Equal(want) {
		t.Errorf("LastCrawlAt = %v, want %v", acc.LastCrawlAt.Time, want)
	}
	if acc.LastError != "" {
		t.Errorf("LastError = %q, want empty", acc.LastError)
	}
}

func TestAccount_UnmarshalJSON_MissingFields(t *testing.T) {
	var acc Account
	if err := json.Unmarshal([]byte(`{"id":"x","status":42,"last_crawl":null}`), &acc); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if acc.Status != AccountStandby {
		t.Errorf("Status = %q, want %q", acc.Status, AccountStandby)
	}
	if !acc.LastCrawlAt.IsZero() {
		t.Errorf("LastCrawlAt = %v, want zero", acc.LastCrawlAt.Time)
	}
}

func TestAccount_Rate(t *testing.T) {
	tests := []struct {
		rate float64
		want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.42, 0.42},
		{1, 1},
		{1.7, 1},
	}
	for _, tt := range tests {
		if got := (Account{SuccessRate: tt.rate}).Rate(); got != tt.want {
			t.Errorf("Rate() with %v = %v, want %v", tt.rate, got, tt.want)
		}
	}
}

func TestAccount_ShortID(t *testing.T) {
	if got := (Account{ID: "0123456789abcdef"}).ShortID(); got != "01234567" {
		t.Errorf("ShortID() = %q, want %q", got, "01234567")
	}
	if got := (Account{ID: "abc"}).ShortID(); got != "abc" {
		t.Errorf("ShortID() = %q, want %q", got, "abc")
	}
}

func TestCloneAccounts(t *testing.T) {
	if CloneAccounts(nil) != nil {
		t.Error("CloneAccounts(nil) should be nil")
	}
	original := []Account{{ID: "1", Username: "a"}, {ID: "2", Username: "b"}}
	clone := CloneAccounts(original)
	clone[0].Username = "changed"
	if original[0].Username != "a" {
		t.Error("modifying clone should not affect original")
	}
}

func TestNewAccount_Validate(t *testing.T) {
	tests := []struct {
		name    string
		form    NewAccount
		missing []string
	}{
		{"complete", NewAccount{Username: "alice", Password: "pw"}, nil},
		{"blank username", NewAccount{Username: "   ", Password: "pw"}, []string{"username"}},
		{"no password", NewAccount{Username: "alice"}, []string{"password"}},
		{"empty", NewAccount{}, []string{"username", "password"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.form.MissingFields()
			if len(got) != len(tt.missing) {
				t.Fatalf("MissingFields() = %v, want %v", got, tt.missing)
			}
			for i := range got {
				if got[i] != tt.missing[i] {
					t.Errorf("MissingFields()[%d] = %q, want %q", i, got[i], tt.missing[i])
				}
			}
			err := tt.form.Validate()
			if (err != nil) != (len(tt.missing) > 0) {
				t.Errorf("Validate() error = %v, want error %v", err, len(tt.missing) > 0)
			}
		})
	}
}

func TestNewAccount_Normalized(t *testing.T) {
	n := NewAccount{Username: "  alice ", Password: " pw ", PreferredGuild: " Wudang "}.Normalized()
	if n.Username != "alice" {
		t.Errorf("Username = %q, want %q", n.Username, "alice")
	}
	if n.Password != " pw " {
		t.Errorf("Password = %q, want it unchanged", n.Password)
	}
	if n.PreferredGuild != "Wudang" {
		t.Errorf("PreferredGuild = %q, want %q", n.PreferredGuild, "Wudang")
	}
}
