package world

import (
	"sync"

	"EmberVale/internal/cache"
)

// IDSource hands out per-kind monotonic ids from a single mutation point.
// The first request for a kind seeds the counter from a scan of the live
// cache, so ids continue from max(existing)+1 after a restore; with no
// existing entities of the kind the first id is 0.
type IDSource struct {
	mu     sync.Mutex
	next   map[string]int64
	seeded map[string]bool
}

// NewIDSource builds an empty id source.
func NewIDSource() *IDSource {
	return &IDSource{
		next:   make(map[string]int64),
		seeded: make(map[string]bool),
	}
}

// Next assigns the next id for a kind.
func (s *IDSource) Next(kind string, c *cache.LiveCache) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.seeded[kind] {
		s.seedLocked(kind, c)
	}
	id := s.next[kind]
	s.next[kind] = id + 1
	return id
}

// Observe bumps a kind's counter past an id seen during recovery, so
// restored entities never collide with newly created ones.
func (s *IDSource) Observe(kind string, id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seeded[kind] = true
	if id >= s.next[kind] {
		s.next[kind] = id + 1
	}
}

func (s *IDSource) seedLocked(kind string, c *cache.LiveCache) {
	s.seeded[kind] = true
	if c == nil {
		return
	}
	var max int64 = -1
	for _, id := range c.KindIDs(kind) {
		if id > max {
			max = id
		}
	}
	if max+1 > s.next[kind] {
		s.next[kind] = max + 1
	}
}
