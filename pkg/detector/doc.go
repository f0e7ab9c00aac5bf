// Package detector routes element size changes to registered listeners.
//
// A Detector sits between callers and a capability Provider. The provider
// knows how to observe an element's box size; the detector prepares
// elements for observation on demand and fans every observed change out
// to all listeners registered for that element.
//
// # Registration
//
//	det := detector.New(provider)
//	err := det.ListenTo(ctx, element.One(panel), func(el element.Element) {
//	    log.Printf("panel is now %s", el.Size())
//	})
//
// ListenTo is safe to call before the element is observable. If the
// provider still has to prepare the element, registration completes
// asynchronously once the provider signals readiness.
//
// # Call on add
//
// By default every new listener is invoked once as soon as registration
// completes, as if the element had just changed size. Disable it globally
// with WithCallOnAdd(false) or per call with CallOnAdd(false).
//
// When call-on-add is off and the element had to be prepared first, the
// detector compares the element's size from before preparation with its
// size after registration. If they differ the listener is invoked once,
// so a resize during preparation is never lost. A resize that returns to
// the exact original size within that window is not reported.
//
// # Concurrency
//
// Providers may signal readiness and changes from any goroutine. The
// detector never holds a lock while calling listeners.
package detector
