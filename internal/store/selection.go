package store

import "github.com/j-veylop/crawler-dashboard-tui/internal/models"

// ToggleSelected flips the selection of a known account and reports whether
// it is now selected. Unknown ids are ignored.
func (s *Store) ToggleSelected(id string) bool {
	s.mu.Lock()
	view := s.viewLocked()
	if !accountIDs(view.Accounts)[id] {
		s.mu.Unlock()
		return false
	}
	_, on := s.selected[id]
	if on {
		delete(s.selected, id)
	} else {
		s.selected[id] = struct{}{}
	}
	snap, listeners := s.viewLocked(), s.listeners
	s.mu.Unlock()

	notify(listeners, snap, []Slice{Accounts})
	return !on
}

// SetSelected replaces the selection with the known ids among ids.
func (s *Store) SetSelected(ids []string) {
	s.mu.Lock()
	known := accountIDs(s.viewLocked().Accounts)
	s.selected = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if known[id] {
			s.selected[id] = struct{}{}
		}
	}
	snap, listeners := s.viewLocked(), s.listeners
	s.mu.Unlock()

	notify(listeners, snap, []Slice{Accounts})
}

// Selected returns the selected account ids in account list order.
func (s *Store) Selected() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectionLocked(s.viewLocked().Accounts)
}

// ClearSelection deselects every account.
func (s *Store) ClearSelection() {
	s.Deselect()
}

// Deselect removes ids from the selection, or everything when ids is empty.
func (s *Store) Deselect(ids ...string) {
	s.mu.Lock()
	if len(ids) == 0 {
		s.selected = make(map[string]struct{})
	}
	for _, id := range ids {
		delete(s.selected, id)
	}
	snap, listeners := s.viewLocked(), s.listeners
	s.mu.Unlock()

	notify(listeners, snap, []Slice{Accounts})
}

// pruneSelection drops selected ids that are no longer confirmed accounts.
func (s *Store) pruneSelection() {
	known := accountIDs(s.confirmed.Accounts)
	for id := range s.selected {
		if !known[id] {
			delete(s.selected, id)
		}
	}
}

func (s *Store) selectionLocked(accounts []models.Account) []string {
	if len(s.selected) == 0 {
		return nil
	}
	out := make([]string, 0, len(s.selected))
	for _, a := range accounts {
		if _, ok := s.selected[a.ID]; ok {
			out = append(out, a.ID)
		}
	}
	return out
}

func accountIDs(accounts []models.Account) map[string]bool {
	ids := make(map[string]bool, len(accounts))
	for _, a := range accounts {
		ids[a.ID] = true
	}
	return ids
}
