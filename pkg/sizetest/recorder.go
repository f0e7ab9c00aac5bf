package sizetest

import (
	"sync"

	"github.com/vango-dev/sizewatch/pkg/element"
	"github.com/vango-dev/sizewatch/pkg/listeners"
)

// Recorder records listener invocations.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
}

// Call is one recorded invocation.
type Call struct {
	Element element.Element
	Size    element.Size
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Listener returns a listener that records into r.
func (r *Recorder) Listener() listeners.Func {
	return func(el element.Element) {
		r.mu.Lock()
		r.calls = append(r.calls, Call{Element: el, Size: el.Size()})
		r.mu.Unlock()
	}
}

// Count returns the number of recorded calls.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Reset clears recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.calls = nil
	r.mu.Unlock()
}
