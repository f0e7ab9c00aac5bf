// Package sizewatch provides the public API for registering size-change
// listeners on elements.
//
// This is the recommended import for most applications:
//
//	import "github.com/vango-dev/sizewatch"
//
// Usage:
//
//	det := sizewatch.New(provider, sizewatch.WithCallOnAdd(false))
//	err := det.ListenTo(ctx, sizewatch.One(el), func(el sizewatch.Element) {
//	    fmt.Println("resized to", el.Size())
//	})
//
// A listener registered while the element is still being prepared for
// observation is called if the element changed size in the meantime, so
// no resize is lost between registration and the first notification.
package sizewatch

import (
	"github.com/vango-dev/sizewatch/pkg/detector"
	"github.com/vango-dev/sizewatch/pkg/element"
	"github.com/vango-dev/sizewatch/pkg/identity"
)

// Element is anything with a size. Implementations must be comparable.
type Element = element.Element

// Size is the width and height of an element.
type Size = element.Size

// Target is one element or a sequence of elements.
type Target = element.Target

// One returns a target for a single element.
func One(el Element) Target { return element.One(el) }

// Many returns a target for a sequence of elements.
func Many(els ...Element) Target { return element.Many(els...) }

// Listener is called with the element whose size changed.
type Listener = detector.Listener

// Provider makes elements observable.
type Provider = detector.Provider

// Detector registers listeners on elements.
type Detector = detector.Detector

// Option configures a Detector.
type Option = detector.Option

// ListenOption configures a single ListenTo call.
type ListenOption = detector.ListenOption

// IDHandler assigns stable identities to elements.
type IDHandler = identity.Handler

// ErrInvalidArgument is returned for missing elements or listeners.
var ErrInvalidArgument = detector.ErrInvalidArgument

// Detector options.
var (
	WithCallOnAdd  = detector.WithCallOnAdd
	WithIDHandler  = detector.WithIDHandler
	WithLogger     = detector.WithLogger
	WithObserver   = detector.WithObserver
	WithTracerName = detector.WithTracerName
	CallOnAdd      = detector.CallOnAdd
	NewIDRegistry  = identity.NewRegistry
	DefaultOptions = detector.DefaultOptions
)

// New creates a Detector backed by provider.
func New(provider Provider, opts ...Option) *Detector {
	return detector.New(provider, opts...)
}
