package sizetest

import (
	"sync"

	"github.com/vango-dev/sizewatch/pkg/element"
)

// Box is a mutable element. It is safe for concurrent use.
type Box struct {
	Name string

	mu   sync.Mutex
	size element.Size
}

// NewBox creates a Box of the given size.
func NewBox(width, height float64) *Box {
	return &Box{size: element.Size{Width: width, Height: height}}
}

// Size implements element.Element.
func (b *Box) Size() element.Size {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// Resize changes the box size without notifying anyone.
func (b *Box) Resize(width, height float64) {
	b.mu.Lock()
	b.size = element.Size{Width: width, Height: height}
	b.mu.Unlock()
}
