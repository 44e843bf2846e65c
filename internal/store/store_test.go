package store

import (
	"sync"
	"testing"

	"github.com/j-veylop/crawler-dashboard-tui/internal/models"
)

func recordsPartial(names ...string) Partial {
	records := make([]models.Record, 0, len(names))
	for _, n := range names {
		records = append(records, models.Record{CharacterName: n})
	}
	return Partial{Records: &records}
}

func accountsPartial(ids ...string) Partial {
	accounts := make([]models.Account, 0, len(ids))
	for _, id := range ids {
		accounts = append(accounts, models.Account{ID: id, Username: "user-" + id})
	}
	return Partial{Accounts: &accounts}
}

func names(records []models.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.CharacterName
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestReplace_LastIssuedWins(t *testing.T) {
	s := New()
	first := s.NextCycle()
	second := s.NextCycle()

	// The newer cycle resolves first.
	if got := s.Replace(second, recordsPartial("new")); len(got) != 1 || got[0] != Records {
		t.Fatalf("Replace(second) applied %v, want [records]", got)
	}
	if got := s.Replace(first, recordsPartial("old")); got != nil {
		t.Errorf("Replace(first) applied %v, want nothing", got)
	}

	snap := s.Read()
	if !equalStrings(names(snap.Records), []string{"new"}) {
		t.Errorf("Records = %v, want [new]", names(snap.Records))
	}
	if snap.Cycle(Records) != second {
		t.Errorf("Cycle(Records) = %d, want %d", snap.Cycle(Records), second)
	}
}

func TestReplace_PerSliceCycles(t *testing.T) {
	s := New()
	s.Replace(5, accountsPartial("a"))

	// Cycle 3 is older than the accounts but newer than the (never loaded) records.
	p := accountsPartial("stale")
	p.Records = recordsPartial("r1").Records
	applied := s.Replace(3, p)
	if len(applied) != 1 || applied[0] != Records {
		t.Fatalf("applied = %v, want [records]", applied)
	}

	snap := s.Read()
	if len(snap.Accounts) != 1 || snap.Accounts[0].ID != "a" {
		t.Errorf("Accounts = %+v, want [a]", snap.Accounts)
	}
	if !snap.Loaded(Records) || snap.Loaded(Statistics) {
		t.Errorf("Loaded(Records)=%v Loaded(Statistics)=%v", snap.Loaded(Records), snap.Loaded(Statistics))
	}
}

func TestReplace_NeverMerges(t *testing.T) {
	s := New()
	s.Replace(1, recordsPartial("a", "b", "c"))
	s.Replace(2, recordsPartial("d"))
	if got := names(s.Read().Records); !equalStrings(got, []string{"d"}) {
		t.Errorf("Records = %v, want [d]", got)
	}

	s.Replace(3, Partial{Records: &[]models.Record{}})
	snap := s.Read()
	if snap.Records == nil || len(snap.Records) != 0 {
		t.Errorf("Records = %v, want empty non-nil slice", snap.Records)
	}
}

func TestRead_ReturnsCopies(t *testing.T) {
	s := New()
	s.Replace(1, recordsPartial("a"))
	kw := models.KeywordStats{Counts: map[string]int{"ban": 3}}
	s.Replace(1, Partial{Keywords: &kw})

	snap := s.Read()
	snap.Records[0].CharacterName = "mutated"
	snap.Keywords.Counts["ban"] = 100
	kw.Counts["ban"] = 50

	again := s.Read()
	if again.Records[0].CharacterName != "a" {
		t.Error("mutating a snapshot must not affect the store")
	}
	if again.Keywords.Counts["ban"] != 3 {
		t.Errorf("Counts[ban] = %d, want 3", again.Keywords.Counts["ban"])
	}
}

func TestOptimistic_VisibleUntilNewerCycle(t *testing.T) {
	s := New()
	s.Replace(s.NextCycle(), Partial{Automation: &models.AutomationStatus{Running: false}})

	inflight := s.NextCycle() // issued before the patch
	s.ApplyOptimistic(SetAutomationRunning(true))

	if !s.Read().Automation.Running {
		t.Fatal("patch should be visible immediately")
	}
	if s.Confirmed().Automation.Running {
		t.Error("Confirmed() must not include patches")
	}

	// A cycle issued before the patch does not clear it.
	s.Replace(inflight, Partial{Automation: &models.AutomationStatus{Running: false}})
	if !s.Read().Automation.Running {
		t.Error("patch should survive a cycle issued before it")
	}

	// A cycle issued after the patch confirms the slice and drops the patch.
	s.Replace(s.NextCycle(), Partial{Automation: &models.AutomationStatus{Running: true}})
	if s.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", s.Pending())
	}
	if !s.Read().Automation.Running {
		t.Error("confirmed value should be visible")
	}
}

func TestOptimistic_OtherSliceKeepsPatch(t *testing.T) {
	s := New()
	s.Replace(s.NextCycle(), accountsPartial("a", "b"))
	s.ApplyOptimistic(RemoveAccounts("a"))
	s.Replace(s.NextCycle(), recordsPartial("r"))

	if s.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", s.Pending())
	}
	if got := s.Read().Accounts; len(got) != 1 || got[0].ID != "b" {
		t.Errorf("Accounts = %+v, want [b]", got)
	}
}

func TestRevert(t *testing.T) {
	s := New()
	kw := models.KeywordStats{Counts: map[string]int{"ban": 12, "warn": 4}, TotalDetected: 16}
	s.Replace(s.NextCycle(), Partial{Keywords: &kw})

	id := s.ApplyOptimistic(ResetKeywordCounts())
	snap := s.Read()
	if snap.Keywords.Counts["ban"] != 0 || snap.Keywords.TotalDetected != 0 {
		t.Fatalf("reset patch not applied: %+v", snap.Keywords)
	}

	s.Revert(id)
	snap = s.Read()
	if snap.Keywords.Counts["ban"] != 12 || snap.Keywords.TotalDetected != 16 {
		t.Errorf("after Revert keywords = %+v, want original", snap.Keywords)
	}

	// Reverting twice is harmless.
	s.Revert(id)
	if s.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", s.Pending())
	}
}

func TestSetAccountsAuto(t *testing.T) {
	s := New()
	s.Replace(s.NextCycle(), accountsPartial("a", "b", "c"))
	s.ApplyOptimistic(SetAccountsAuto([]string{"a", "c"}, true))

	for _, acc := range s.Read().Accounts {
		want := acc.ID != "b"
		if acc.AutoEnabled != want {
			t.Errorf("account %s AutoEnabled = %v, want %v", acc.ID, acc.AutoEnabled, want)
		}
	}
}

func TestSelection(t *testing.T) {
	s := New()
	s.Replace(s.NextCycle(), accountsPartial("a", "b", "c"))

	if !s.ToggleSelected("c") || !s.ToggleSelected("a") {
		t.Fatal("ToggleSelected should select known accounts")
	}
	if s.ToggleSelected("zzz") {
		t.Error("unknown ids must not be selectable")
	}
	if got := s.Selected(); !equalStrings(got, []string{"a", "c"}) {
		t.Errorf("Selected() = %v, want [a c] in account order", got)
	}
	if s.ToggleSelected("a") {
		t.Error("second toggle should deselect")
	}

	s.SetSelected([]string{"a", "b", "ghost"})
	if got := s.Selected(); !equalStrings(got, []string{"a", "b"}) {
		t.Errorf("Selected() = %v, want [a b]", got)
	}

	// Accounts replace prunes the selection.
	s.Replace(s.NextCycle(), accountsPartial("b", "c"))
	if got := s.Selected(); !equalStrings(got, []string{"b"}) {
		t.Errorf("Selected() after replace = %v, want [b]", got)
	}

	// Optimistic removal prunes as well.
	s.ApplyOptimistic(RemoveAccounts("b"))
	if got := s.Selected(); len(got) != 0 {
		t.Errorf("Selected() after removal = %v, want none", got)
	}

	s.SetSelected([]string{"c"})
	s.ClearSelection()
	if got := s.Read().Selected; len(got) != 0 {
		t.Errorf("Selected after ClearSelection = %v", got)
	}
}

func TestOnChange(t *testing.T) {
	s := New()
	var calls [][]Slice
	s.OnChange(func(_ Snapshot, changed []Slice) {
		calls = append(calls, changed)
	})

	s.Replace(2, recordsPartial("a"))
	s.Replace(1, recordsPartial("stale"))
	id := s.ApplyOptimistic(SetAutomationRunning(true))
	s.Revert(id)

	if len(calls) != 3 {
		t.Fatalf("listener calls = %d, want 3 (stale replace is silent)", len(calls))
	}
	if calls[0][0] != Records || calls[1][0] != Automation || calls[2][0] != Automation {
		t.Errorf("changed slices = %v", calls)
	}
}

func TestReplace_Concurrent(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		cycle := s.NextCycle()
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Replace(cycle, recordsPartial("x"))
			_ = s.Read()
		}()
	}
	wg.Wait()
	if got := s.Read().Cycle(Records); got != 50 {
		t.Errorf("Cycle(Records) = %d, want 50", got)
	}
}

func TestSet(t *testing.T) {
	base := BaseSet
	full := base.With(Statistics).With(Keywords)
	if !base.SubsetOf(full) {
		t.Error("base should be a subset of full")
	}
	if full.SubsetOf(base) {
		t.Error("full should not be a subset of base")
	}
	if base.Len() != 5 || full.Len() != 7 {
		t.Errorf("Len() = %d/%d, want 5/7", base.Len(), full.Len())
	}
	if got := NewSet(Keywords, Records).String(); got != "{records,keywords}" {
		t.Errorf("String() = %q", got)
	}
}
