// Package listeners keeps the ordered listener lists for each element.
package listeners

import (
	"sync"

	"github.com/vango-dev/sizewatch/pkg/element"
	"github.com/vango-dev/sizewatch/pkg/identity"
)

// Func is called with the element whose size changed.
type Func func(el element.Element)

type entry struct {
	fns   []Func
	wired bool
}

// Store maps element IDs to their registered listeners.
// Insertion order is preserved and defines invocation order.
// It is safe for concurrent use.
type Store struct {
	ids identity.Handler

	mu      sync.RWMutex
	entries map[identity.ID]*entry
}

// NewStore creates a Store that keys elements through ids.
func NewStore(ids identity.Handler) *Store {
	return &Store{
		ids:     ids,
		entries: make(map[identity.ID]*entry),
	}
}

// Add appends fn to the element's listeners, assigning the element an ID
// if it has none. Adding the same function twice registers it twice.
func (s *Store) Add(el element.Element, fn Func) {
	id := s.ids.Set(el)

	s.mu.Lock()
	e := s.entryLocked(id)
	e.fns = append(e.fns, fn)
	s.mu.Unlock()
}

// Get returns a snapshot of the element's listeners in registration order.
func (s *Store) Get(el element.Element) []Func {
	id, ok := s.ids.Get(el)
	if !ok {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok || len(e.fns) == 0 {
		return nil
	}
	out := make([]Func, len(e.fns))
	copy(out, e.fns)
	return out
}

// Len returns the number of listeners registered for the element.
func (s *Store) Len(el element.Element) int {
	id, ok := s.ids.Get(el)
	if !ok {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.entries[id]; ok {
		return len(e.fns)
	}
	return 0
}

// Attach records that the element's change notifications are routed to
// this store. It returns true only for the first call per element.
func (s *Store) Attach(el element.Element) bool {
	id := s.ids.Set(el)

	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entryLocked(id)
	if e.wired {
		return false
	}
	e.wired = true
	return true
}

// RemoveAll drops every listener for the element. The element stays attached.
func (s *Store) RemoveAll(el element.Element) {
	id, ok := s.ids.Get(el)
	if !ok {
		return
	}
	s.mu.Lock()
	if e, ok := s.entries[id]; ok {
		e.fns = nil
	}
	s.mu.Unlock()
}

// Forget drops all state for the element, including its attachment.
func (s *Store) Forget(el element.Element) {
	id, ok := s.ids.Get(el)
	if !ok {
		return
	}
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
}

func (s *Store) entryLocked(id identity.ID) *entry {
	e, ok := s.entries[id]
	if !ok {
		e = &entry{}
		s.entries[id] = e
	}
	return e
}
