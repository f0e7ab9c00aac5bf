// Package identity assigns stable identifiers to elements.
//
// All per-element state in sizewatch is keyed by an ID rather than by the
// element itself. The same element always yields the same ID once
// assigned, and distinct elements never share one.
package identity

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/vango-dev/sizewatch/pkg/element"
)

// ID identifies an element. The zero ID is never assigned.
type ID uint64

// String returns the decimal form of the ID.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Handler looks up and assigns element IDs.
type Handler interface {
	// Get returns the element's ID, if one has been assigned.
	Get(el element.Element) (ID, bool)

	// Set assigns an ID if the element has none and returns it.
	// Repeated calls return the same ID.
	Set(el element.Element) ID
}

// globalIDCounter is shared by every Registry so IDs stay unique across
// independent instances in one process. IDs are never reused.
var globalIDCounter uint64

func nextID() ID {
	return ID(atomic.AddUint64(&globalIDCounter, 1))
}

// Registry is the default Handler. It is safe for concurrent use.
//
// Elements are map keys, so two pointers to a zero-size type may end up
// with one ID. Element implementations must have a non-zero size.
type Registry struct {
	mu  sync.RWMutex
	ids map[element.Element]ID
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{ids: make(map[element.Element]ID)}
}

// Get implements Handler.
func (r *Registry) Get(el element.Element) (ID, bool) {
	r.mu.RLock()
	id, ok := r.ids[el]
	r.mu.RUnlock()
	return id, ok
}

// Set implements Handler.
func (r *Registry) Set(el element.Element) ID {
	if id, ok := r.Get(el); ok {
		return id
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another goroutine may have won the race between the read and write lock.
	if id, ok := r.ids[el]; ok {
		return id
	}
	id := nextID()
	r.ids[el] = id
	return id
}

// Clear drops the element's ID. A later Set assigns a fresh one.
func (r *Registry) Clear(el element.Element) {
	r.mu.Lock()
	delete(r.ids, el)
	r.mu.Unlock()
}

// Len returns the number of elements with an assigned ID.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ids)
}
