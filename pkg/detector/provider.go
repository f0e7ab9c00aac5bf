package detector

import (
	"context"

	"github.com/vango-dev/sizewatch/pkg/element"
	"github.com/vango-dev/sizewatch/pkg/listeners"
)

// Provider observes element box sizes.
type Provider interface {
	// IsDetectable reports whether the element is already observed.
	IsDetectable(el element.Element) bool

	// MakeDetectable prepares the element for observation and calls
	// onReady exactly once when done, after which IsDetectable must
	// report true. Overlapping calls for one element must result in a
	// single installation with every onReady still called. An error is
	// returned only when the request could not be started.
	MakeDetectable(ctx context.Context, el element.Element, onReady func(element.Element)) error

	// AddListener registers fn to be called on every size change of a
	// detectable element.
	AddListener(el element.Element, fn listeners.Func)
}

// Uninstaller is implemented by providers that can stop observing an element.
type Uninstaller interface {
	Uninstall(el element.Element)
}
