package detector

import "github.com/vango-dev/sizewatch/pkg/element"

// Reason says why a listener was invoked outside of a fan-out.
type Reason string

const (
	// ReasonCallOnAdd is the synthetic change on registration.
	ReasonCallOnAdd Reason = "call_on_add"

	// ReasonRace reports a resize that happened while the element was
	// being prepared.
	ReasonRace Reason = "race"
)

// Observer receives detector lifecycle notifications.
// Implementations must be safe for concurrent use.
type Observer interface {
	// InstallRequested is called when an element had to be prepared.
	InstallRequested(el element.Element)

	// Registered is called after a listener was stored. installed is
	// true when registration waited for preparation.
	Registered(el element.Element, installed bool)

	// Invoked is called before a listener is invoked for reason.
	Invoked(el element.Element, reason Reason)

	// FannedOut is called for every observed change with the number of
	// listeners it was delivered to.
	FannedOut(el element.Element, listeners int)
}

// NopObserver ignores all notifications.
type NopObserver struct{}

func (NopObserver) InstallRequested(element.Element) {}
func (NopObserver) Registered(element.Element, bool) {}
func (NopObserver) Invoked(element.Element, Reason)  {}
func (NopObserver) FannedOut(element.Element, int)   {}

type multiObserver []Observer

// Observers combines observers; each notification goes to all of them in order.
func Observers(obs ...Observer) Observer {
	out := make(multiObserver, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

func (m multiObserver) InstallRequested(el element.Element) {
	for _, o := range m {
		o.InstallRequested(el)
	}
}

func (m multiObserver) Registered(el element.Element, installed bool) {
	for _, o := range m {
		o.Registered(el, installed)
	}
}

func (m multiObserver) Invoked(el element.Element, reason Reason) {
	for _, o := range m {
		o.Invoked(el, reason)
	}
}

func (m multiObserver) FannedOut(el element.Element, n int) {
	for _, o := range m {
		o.FannedOut(el, n)
	}
}
