// Package element defines the handles sizewatch observes.
//
// An Element is anything with a box size: a node in a remote browser
// document, a render object, or a test double. Elements are compared by
// identity, so implementations must be comparable, which in practice
// means pointer types.
//
// A Target is what callers pass to registration functions. It is either
// a single element or an ordered sequence of elements:
//
//	det.ListenTo(ctx, element.One(panel), onResize)
//	det.ListenTo(ctx, element.Many(header, footer), onResize)
//
// Both forms are normalized to a sequence before processing, so
// element.One(x) and element.Many(x) behave identically.
package element
