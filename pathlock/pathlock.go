// Package pathlock provides opt-in per-path write serialization.
//
// The persistence core deliberately ships no mutual exclusion: concurrent
// saves to the same path race at the replace step. Callers that want the
// core's single-writer contract enforced in-process can route every save
// through a Map. Lock entries are refcounted and evicted as soon as the
// last holder releases, so the map's footprint is bounded by the number of
// paths with a write in flight, not by the number of paths ever written.
package pathlock

import (
	"path/filepath"
	"sync"

	"github.com/cespare/xxhash/v2"
)

const shardCount = 16

type entry struct {
	mu   sync.Mutex
	refs int
}

type shard struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// Map serializes lock holders per cleaned path.
// The zero value is not usable; call New.
type Map struct {
	shards [shardCount]shard
}

// New creates an empty lock map.
func New() *Map {
	m := &Map{}
	for i := range m.shards {
		m.shards[i].entries = make(map[string]*entry)
	}

	return m
}

// Lock blocks until the calling goroutine holds the lock for path and
// returns the release function. Paths are compared after filepath.Clean, so
// "dir//save.hlx" and "dir/save.hlx" share a lock; distinct spellings of
// the same file via symlinks do not.
func (m *Map) Lock(path string) (unlock func()) {
	p := filepath.Clean(path)
	s := &m.shards[xxhash.Sum64String(p)%shardCount]

	s.mu.Lock()
	e, ok := s.entries[p]
	if !ok {
		e = &entry{}
		s.entries[p] = e
	}
	e.refs++
	s.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		s.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(s.entries, p)
		}
		s.mu.Unlock()
	}
}

// Len reports the number of paths with a lock currently requested or held.
func (m *Map) Len() int {
	n := 0
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.Lock()
		n += len(s.entries)
		s.mu.Unlock()
	}

	return n
}
