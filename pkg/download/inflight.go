package download

import "sync"

// InflightSet is the advisory per-file busy flag owned by the presentation
// layer: it stops a second attempt for the same record from starting while
// one is outstanding, nothing more. Callers must release in a deferred
// path so a failed stage never leaves a record permanently busy.
type InflightSet struct {
	mu  sync.Mutex
	ids map[int64]bool
}

func NewInflightSet() *InflightSet {
	return &InflightSet{ids: make(map[int64]bool)}
}

// TryAcquire marks the record busy, reporting false if it already was.
func (s *InflightSet) TryAcquire(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ids[id] {
		return false
	}
	s.ids[id] = true
	return true
}

func (s *InflightSet) Release(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ids, id)
}

func (s *InflightSet) InFlight(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ids[id]
}
