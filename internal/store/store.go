package store

import (
	"sync"
	"time"

	"github.com/j-veylop/crawler-dashboard-tui/internal/logger"
)

// ChangeFunc is invoked after the visible view changed.
type ChangeFunc func(snap Snapshot, changed []Slice)

// Store is the single owner of the client-side view.
//
// Each slice is replaced only by a cycle newer than the one that produced
// it, so a slow older cycle can never overwrite a newer one. Optimistic
// patches stay visible until a cycle issued after them confirms their slice.
type Store struct {
	now       func() time.Time
	selected  map[string]struct{}
	listeners []ChangeFunc
	confirmed Snapshot
	patches   []pendingPatch
	issued    uint64
	nextPatch PatchID
	mu        sync.RWMutex
}

// New creates an empty store.
func New() *Store {
	return &Store{
		now:      time.Now,
		selected: make(map[string]struct{}),
	}
}

// OnChange registers fn to run after every visible change. Listeners run
// outside the store lock in registration order.
func (s *Store) OnChange(fn ChangeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// NextCycle issues a new, strictly increasing cycle id.
func (s *Store) NextCycle() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// Replace applies each slice of partial whose current data came from an
// older cycle. It returns the slices applied; stale slices are ignored.
func (s *Store) Replace(cycle uint64, partial Partial) []Slice {
	s.mu.Lock()
	if cycle > s.issued {
		s.issued = cycle
	}
	now := s.now()
	var applied Set
	for _, sl := range partial.Slices().Slices() {
		if cycle <= s.confirmed.Cycles[sl] {
			continue
		}
		s.setSlice(sl, partial)
		s.confirmed.Cycles[sl] = cycle
		s.confirmed.UpdatedAt[sl] = now
		applied = applied.With(sl)
	}
	if applied == 0 {
		s.mu.Unlock()
		logger.Debug("stale cycle ignored", "cycle", cycle, "slices", partial.Slices().String())
		return nil
	}

	kept := s.patches[:0]
	for _, p := range s.patches {
		if applied.Has(p.patch.Slice) && cycle > p.baseline {
			continue
		}
		kept = append(kept, p)
	}
	s.patches = kept

	if applied.Has(Accounts) {
		s.pruneSelection()
	}
	snap, listeners := s.viewLocked(), s.listeners
	s.mu.Unlock()

	changed := applied.Slices()
	notify(listeners, snap, changed)
	return changed
}

func (s *Store) setSlice(sl Slice, p Partial) {
	c := &s.confirmed
	switch sl {
	case Records:
		c.Records = cloneSlice(*p.Records)
	case Accounts:
		c.Accounts = cloneSlice(*p.Accounts)
	case CrawlerStatus:
		c.CrawlerStatus = *p.CrawlerStatus
	case Automation:
		c.Automation = *p.Automation
	case Version:
		c.Version = *p.Version
	case Statistics:
		c.Statistics = p.Statistics.Clone()
	case Keywords:
		c.Keywords = p.Keywords.Clone()
	case History:
		c.History = p.History.Clone()
	}
}

// Read returns the confirmed view with pending patches applied in order.
func (s *Store) Read() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewLocked()
}

// Confirmed returns the view without optimistic patches.
func (s *Store) Confirmed() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := s.confirmed.clone()
	snap.Selected = s.selectionLocked(snap.Accounts)
	return snap
}

func (s *Store) viewLocked() Snapshot {
	snap := s.confirmed.clone()
	for _, p := range s.patches {
		p.patch.apply(&snap)
	}
	snap.Pending = len(s.patches)
	snap.Selected = s.selectionLocked(snap.Accounts)
	return snap
}

// ApplyOptimistic stages patch and returns an id for Revert.
func (s *Store) ApplyOptimistic(patch Patch) PatchID {
	s.mu.Lock()
	s.nextPatch++
	id := s.nextPatch
	s.patches = append(s.patches, pendingPatch{patch: patch, id: id, baseline: s.issued})
	for _, sel := range patch.deselect {
		delete(s.selected, sel)
	}
	snap, listeners := s.viewLocked(), s.listeners
	s.mu.Unlock()

	logger.Debug("optimistic patch applied", "patch", patch.Label, "id", id)
	notify(listeners, snap, []Slice{patch.Slice})
	return id
}

// Revert drops a pending patch. Reverting an unknown or already confirmed
// patch is a no-op.
func (s *Store) Revert(id PatchID) {
	s.mu.Lock()
	idx := -1
	for i, p := range s.patches {
		if p.id == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	sl := s.patches[idx].patch.Slice
	s.patches = append(s.patches[:idx], s.patches[idx+1:]...)
	snap, listeners := s.viewLocked(), s.listeners
	s.mu.Unlock()

	logger.Debug("optimistic patch reverted", "id", id)
	notify(listeners, snap, []Slice{sl})
}

// Pending returns the number of staged patches.
func (s *Store) Pending() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.patches)
}

func notify(listeners []ChangeFunc, snap Snapshot, changed []Slice) {
	for _, fn := range listeners {
		fn(snap, changed)
	}
}

// cloneSlice copies in, turning nil into an empty slice.
func cloneSlice[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}
