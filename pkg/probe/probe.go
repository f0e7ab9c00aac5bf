// Package probe implements a capability provider on top of an
// asynchronous Installer.
//
// The Installer does the physical work of attaching a size probe to an
// element (for example, asking a browser to attach a ResizeObserver).
// Provider adds the bookkeeping the detector relies on: one install per
// element no matter how many requests overlap, every waiter notified once
// the install completes, and change notifications fanned out to the
// listeners added for the element.
package probe

import (
	"context"
	"log/slog"
	"sync"

	"github.com/vango-dev/sizewatch/pkg/element"
	"github.com/vango-dev/sizewatch/pkg/identity"
	"github.com/vango-dev/sizewatch/pkg/listeners"
)

// Installer attaches size probes to elements.
type Installer interface {
	// Install starts attaching a probe and calls done exactly once when
	// finished. A nil error means the element is now observed. An error
	// return means the install could not be started and done is not called.
	Install(ctx context.Context, el element.Element, done func(error)) error

	// Uninstall detaches the probe from the element.
	Uninstall(el element.Element)
}

type status uint8

const (
	statusNone status = iota
	statusPending
	statusReady
)

type waiter struct {
	ctx     context.Context
	onReady func(element.Element)
}

type state struct {
	status    status
	waiters   []waiter
	listeners []listeners.Func
}

// Provider is safe for concurrent use.
type Provider struct {
	ids       identity.Handler
	installer Installer
	logger    *slog.Logger

	// OnError is called when an install fails. Optional.
	OnError func(el element.Element, err error)

	mu     sync.Mutex
	states map[identity.ID]*state
}

// New creates a Provider. ids should be the same handler the detector uses.
func New(installer Installer, ids identity.Handler, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		ids:       ids,
		installer: installer,
		logger:    logger.With("component", "probe"),
		states:    make(map[identity.ID]*state),
	}
}

// IsDetectable reports whether the element's install has completed.
func (p *Provider) IsDetectable(el element.Element) bool {
	id, ok := p.ids.Get(el)
	if !ok {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	st, ok := p.states[id]
	return ok && st.status == statusReady
}

// MakeDetectable starts an install, or joins the one in progress.
// Ready elements get onReady immediately. Waiters whose context is done
// by the time the install completes are skipped.
//
// If the install cannot be started, the caller that started it gets the
// error. Callers that joined in the meantime already returned nil; they
// are reported through OnError instead.
func (p *Provider) MakeDetectable(ctx context.Context, el element.Element, onReady func(element.Element)) error {
	id := p.ids.Set(el)
	w := waiter{ctx: ctx, onReady: onReady}

	p.mu.Lock()
	st, ok := p.states[id]
	switch {
	case ok && st.status == statusReady:
		p.mu.Unlock()
		onReady(el)
		return nil
	case ok && st.status == statusPending:
		st.waiters = append(st.waiters, w)
		p.mu.Unlock()
		return nil
	}
	if !ok {
		st = &state{}
		p.states[id] = st
	}
	st.status = statusPending
	st.waiters = []waiter{w}
	p.mu.Unlock()

	p.logger.Debug("install started", "element_id", id)

	// The install is shared, so one waiter cancelling must not abort it.
	err := p.installer.Install(context.WithoutCancel(ctx), el, func(err error) {
		p.complete(id, st, el, err)
	})
	if err != nil {
		var joined []waiter
		p.mu.Lock()
		if p.states[id] == st && st.status == statusPending {
			// The first waiter is the caller, which gets err directly.
			joined = st.waiters[1:]
			st.status = statusNone
			st.waiters = nil
		}
		p.mu.Unlock()

		if len(joined) > 0 {
			p.logger.Error("install could not be started", "element_id", id, "waiters", len(joined), "error", err)
			if p.OnError != nil {
				p.OnError(el, err)
			}
		}
		return err
	}
	return nil
}

func (p *Provider) complete(id identity.ID, st *state, el element.Element, err error) {
	p.mu.Lock()
	if p.states[id] != st || st.status != statusPending {
		// Uninstalled while pending.
		p.mu.Unlock()
		return
	}
	waiters := st.waiters
	st.waiters = nil
	if err != nil {
		// Failed installs can be retried by a later MakeDetectable.
		st.status = statusNone
	} else {
		st.status = statusReady
	}
	p.mu.Unlock()

	if err != nil {
		p.logger.Error("install failed", "element_id", id, "waiters", len(waiters), "error", err)
		if p.OnError != nil {
			p.OnError(el, err)
		}
		return
	}

	p.logger.Debug("install complete", "element_id", id, "waiters", len(waiters))
	for _, w := range waiters {
		if w.ctx != nil && w.ctx.Err() != nil {
			continue
		}
		w.onReady(el)
	}
}

// AddListener registers fn for change notifications of el.
func (p *Provider) AddListener(el element.Element, fn listeners.Func) {
	id := p.ids.Set(el)

	p.mu.Lock()
	st, ok := p.states[id]
	if !ok {
		st = &state{}
		p.states[id] = st
	}
	st.listeners = append(st.listeners, fn)
	p.mu.Unlock()
}

// Notify reports an observed size change of el. It is ignored unless the
// element's install has completed.
func (p *Provider) Notify(el element.Element) {
	id, ok := p.ids.Get(el)
	if !ok {
		return
	}

	p.mu.Lock()
	st, ok := p.states[id]
	if !ok || st.status != statusReady {
		p.mu.Unlock()
		return
	}
	fns := make([]listeners.Func, len(st.listeners))
	copy(fns, st.listeners)
	p.mu.Unlock()

	for _, fn := range fns {
		fn(el)
	}
}

// Uninstall detaches the probe and drops all state for el, including
// pending waiters.
func (p *Provider) Uninstall(el element.Element) {
	id, ok := p.ids.Get(el)
	if !ok {
		return
	}

	p.mu.Lock()
	_, known := p.states[id]
	delete(p.states, id)
	p.mu.Unlock()

	if known {
		p.installer.Uninstall(el)
	}
}

// Len returns the number of elements with install state.
func (p *Provider) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.states)
}
