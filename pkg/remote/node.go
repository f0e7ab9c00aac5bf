package remote

import (
	"sync"

	"github.com/vango-dev/sizewatch/pkg/element"
)

// Node is an element in the client document. Its size is the last size
// the client reported for it.
type Node struct {
	id      uint64
	name    string
	session *Session

	mu   sync.RWMutex
	size element.Size
}

// ID returns the client-assigned wire ID.
func (n *Node) ID() uint64 {
	return n.id
}

// Name returns the value of the element's data-sizewatch attribute.
func (n *Node) Name() string {
	return n.name
}

// Session returns the session the node belongs to.
func (n *Node) Session() *Session {
	return n.session
}

// Size implements element.Element.
func (n *Node) Size() element.Size {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.size
}

func (n *Node) setSize(w, h int) {
	n.mu.Lock()
	n.size = element.Size{Width: float64(w), Height: float64(h)}
	n.mu.Unlock()
}
