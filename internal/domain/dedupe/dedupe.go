// Package dedupe tracks activity instance ids already seen while paging
// through a history.
package dedupe

import "sync"

// Set records ids in first-seen order.
type Set interface {
	// Add records id. Returns true if id was new.
	Add(id string) bool

	// IDs returns the recorded ids, oldest first.
	IDs() []string
}

type inMemorySet struct {
	mu    sync.Mutex
	seen  map[string]struct{}
	order []string
}

// NewSet creates an empty Set.
func NewSet() Set {
	return &inMemorySet{seen: make(map[string]struct{})}
}

func (s *inMemorySet) Add(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[id]; ok {
		return false
	}
	s.seen[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

func (s *inMemorySet) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, len(s.order))
	copy(ids, s.order)
	return ids
}
