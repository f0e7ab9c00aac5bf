package sizetest

import (
	"context"
	"sync"

	"github.com/vango-dev/sizewatch/pkg/element"
	"github.com/vango-dev/sizewatch/pkg/listeners"
)

type waiter struct {
	ctx     context.Context
	onReady func(element.Element)
}

// Provider is a capability provider driven by the test.
// Installs stay pending until Complete is called.
type Provider struct {
	// MakeErr, when set, is returned by MakeDetectable.
	MakeErr error

	mu          sync.Mutex
	ready       map[element.Element]bool
	pending     map[element.Element][]waiter
	listeners   map[element.Element][]listeners.Func
	installs    map[element.Element]int
	uninstalled map[element.Element]int
}

// NewProvider creates a Provider with no detectable elements.
func NewProvider() *Provider {
	return &Provider{
		ready:       make(map[element.Element]bool),
		pending:     make(map[element.Element][]waiter),
		listeners:   make(map[element.Element][]listeners.Func),
		installs:    make(map[element.Element]int),
		uninstalled: make(map[element.Element]int),
	}
}

// IsDetectable reports whether el has been completed or marked ready.
func (p *Provider) IsDetectable(el element.Element) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ready[el]
}

// MakeDetectable queues onReady until Complete(el). Overlapping requests
// share one install. Ready elements get onReady immediately.
func (p *Provider) MakeDetectable(ctx context.Context, el element.Element, onReady func(element.Element)) error {
	if p.MakeErr != nil {
		return p.MakeErr
	}

	p.mu.Lock()
	if p.ready[el] {
		p.mu.Unlock()
		onReady(el)
		return nil
	}
	if len(p.pending[el]) == 0 {
		p.installs[el]++
	}
	p.pending[el] = append(p.pending[el], waiter{ctx: ctx, onReady: onReady})
	p.mu.Unlock()
	return nil
}

// AddListener implements the provider contract.
func (p *Provider) AddListener(el element.Element, fn listeners.Func) {
	p.mu.Lock()
	p.listeners[el] = append(p.listeners[el], fn)
	p.mu.Unlock()
}

// Uninstall forgets everything about el.
func (p *Provider) Uninstall(el element.Element) {
	p.mu.Lock()
	delete(p.ready, el)
	delete(p.pending, el)
	delete(p.listeners, el)
	p.uninstalled[el]++
	p.mu.Unlock()
}

// MarkReady makes el detectable without an install.
func (p *Provider) MarkReady(el element.Element) {
	p.mu.Lock()
	p.ready[el] = true
	p.mu.Unlock()
}

// Complete finishes the pending install for el and calls every waiter
// whose context is still live. It returns the number of waiters called.
func (p *Provider) Complete(el element.Element) int {
	p.mu.Lock()
	p.ready[el] = true
	waiters := p.pending[el]
	delete(p.pending, el)
	p.mu.Unlock()

	n := 0
	for _, w := range waiters {
		if w.ctx != nil && w.ctx.Err() != nil {
			continue
		}
		w.onReady(el)
		n++
	}
	return n
}

// Fire simulates an observed size change on el.
func (p *Provider) Fire(el element.Element) {
	p.mu.Lock()
	fns := append([]listeners.Func(nil), p.listeners[el]...)
	p.mu.Unlock()

	for _, fn := range fns {
		fn(el)
	}
}

// Installs returns how many physical installs were started for el.
func (p *Provider) Installs(el element.Element) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.installs[el]
}

// Pending returns the number of waiters for el.
func (p *Provider) Pending(el element.Element) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending[el])
}

// ListenerCount returns how many raw change listeners el has.
func (p *Provider) ListenerCount(el element.Element) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.listeners[el])
}

// Uninstalls returns how many times el was uninstalled.
func (p *Provider) Uninstalls(el element.Element) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.uninstalled[el]
}
