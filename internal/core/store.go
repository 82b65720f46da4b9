package core

import (
	"sort"
	"sync"
)

// Store holds the client-side view of a room's messages as a deduplicated
// sequence ordered by CreatedAt ascending.
//
// Conflict rule: when two records share an ID, the retained record is the one
// that sorts earliest by CreatedAt. This is dedup-keeps-earlier, not
// last-writer-wins; later events for a known ID are dropped unless they sort
// before the retained record.
type Store struct {
	mu   sync.Mutex
	view []Message
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// ReplaceSnapshot sorts and deduplicates a full fetch result and swaps it in
// as the entire view. An empty input yields an empty view.
func (s *Store) ReplaceSnapshot(records []Message) []Message {
	next := reconcile(records)

	s.mu.Lock()
	s.view = next
	s.mu.Unlock()

	return next
}

// MergeIncoming folds a single live event into the view and returns the new
// sequence. The previous view slice is never mutated in place; callers
// holding an earlier View result are unaffected.
func (s *Store) MergeIncoming(incoming Message) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	combined := make([]Message, 0, len(s.view)+1)
	combined = append(combined, s.view...)
	combined = append(combined, incoming)

	s.view = reconcile(combined)
	return s.view
}

// View returns a copy of the current sequence.
func (s *Store) View() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Message, len(s.view))
	copy(out, s.view)
	return out
}

// Len returns the number of retained messages.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.view)
}

// reconcile stable-sorts by CreatedAt ascending, then drops every record
// whose ID was already seen earlier in the sorted order.
func reconcile(records []Message) []Message {
	sorted := make([]Message, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt < sorted[j].CreatedAt
	})

	out := sorted[:0]
	seen := make(map[string]struct{}, len(sorted))
	for _, m := range sorted {
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	return out
}
