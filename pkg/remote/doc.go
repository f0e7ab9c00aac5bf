// Package remote exposes elements of a browser document as size-watchable
// elements.
//
// A Session wraps one websocket connection to the sizewatch client
// script. The client announces elements; each becomes a Node. When a
// listener is registered on a Node that is not yet observed, the session
// sends an Install command and the element becomes detectable once the
// client answers with Installed. Resize events from the client are fanned
// out to the registered listeners.
//
//	sess.OnNode = func(s *remote.Session, n *remote.Node) {
//		_ = s.ListenTo(ctx, element.One(n), func(el element.Element) {
//			log.Println(n.Name(), el.Size())
//		})
//	}
//
// Listener callbacks run on the session's read goroutine.
package remote
