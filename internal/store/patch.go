package store

// PatchID identifies a staged optimistic patch.
type PatchID uint64

// Patch is a local mutation shown to readers until the service confirms or
// contradicts it.
type Patch struct {
	apply    func(*Snapshot)
	Label    string
	deselect []string
	Slice    Slice
}

// RemoveAccounts hides accounts and drops them from the selection.
func RemoveAccounts(ids ...string) Patch {
	gone := make(map[string]bool, len(ids))
	for _, id := range ids {
		gone[id] = true
	}
	return Patch{
		Slice:    Accounts,
		Label:    "remove accounts",
		deselect: append([]string(nil), ids...),
		apply: func(s *Snapshot) {
			kept := s.Accounts[:0:0]
			for _, a := range s.Accounts {
				if !gone[a.ID] {
					kept = append(kept, a)
				}
			}
			s.Accounts = kept
		},
	}
}

// SetAccountsAuto sets the auto flag of accounts.
func SetAccountsAuto(ids []string, enabled bool) Patch {
	target := make(map[string]bool, len(ids))
	for _, id := range ids {
		target[id] = true
	}
	return Patch{
		Slice: Accounts,
		Label: "set accounts auto",
		apply: func(s *Snapshot) {
			for i := range s.Accounts {
				if target[s.Accounts[i].ID] {
					s.Accounts[i].AutoEnabled = enabled
				}
			}
		},
	}
}

// SetAutomationRunning sets the automation running flag.
func SetAutomationRunning(running bool) Patch {
	return Patch{
		Slice: Automation,
		Label: "set automation running",
		apply: func(s *Snapshot) {
			s.Automation.Running = running
		},
	}
}

// ResetKeywordCounts zeroes every keyword counter.
func ResetKeywordCounts() Patch {
	return Patch{
		Slice: Keywords,
		Label: "reset keyword counts",
		apply: func(s *Snapshot) {
			counts := make(map[string]int, len(s.Keywords.Counts))
			for kw := range s.Keywords.Counts {
				counts[kw] = 0
			}
			s.Keywords.Counts = counts
			s.Keywords.TotalDetected = 0
		},
	}
}

// pendingPatch is a staged patch and the last cycle issued before it.
type pendingPatch struct {
	patch    Patch
	id       PatchID
	baseline uint64
}
