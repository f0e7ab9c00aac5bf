package element

import (
	"errors"
	"fmt"
	"strconv"
)

// Element is an opaque handle to a visual node.
//
// Elements are compared by interface equality, so implementations must be
// pointers to types with a non-zero size. Pointers to zero-size types such
// as struct{} may share one address and would alias each other.
//
// Size reports the current box size. It is read at registration time
// and again once registration completes to detect changes that happened
// while the element was being prepared.
type Element interface {
	Size() Size
}

// Size is a width/height pair in CSS pixels.
type Size struct {
	Width  float64
	Height float64
}

// Equal reports whether both dimensions match exactly.
func (s Size) Equal(o Size) bool {
	return s.Width == o.Width && s.Height == o.Height
}

// IsZero reports whether the size is 0x0.
func (s Size) IsZero() bool {
	return s.Width == 0 && s.Height == 0
}

// String returns the size as "WxH".
func (s Size) String() string {
	return strconv.FormatFloat(s.Width, 'f', -1, 64) + "x" + strconv.FormatFloat(s.Height, 'f', -1, 64)
}

// ErrNilElement is returned by Target.Validate when the sequence holds a nil element.
var ErrNilElement = errors.New("element: nil element in target")

// Target is either a single Element or an ordered sequence of Elements.
// The zero Target is absent.
type Target struct {
	single  Element
	many    []Element
	present bool
	isSeq   bool
}

// One returns a target holding a single element.
// One(nil) is absent, like the zero Target.
func One(el Element) Target {
	if el == nil {
		return Target{}
	}
	return Target{single: el, present: true}
}

// Many returns a target holding an ordered sequence of elements.
// An empty sequence is present but yields no elements.
func Many(els ...Element) Target {
	return Target{many: els, present: true, isSeq: true}
}

// IsZero reports whether the target is absent.
func (t Target) IsZero() bool {
	return !t.present
}

// Len returns the number of elements in the target.
func (t Target) Len() int {
	switch {
	case !t.present:
		return 0
	case t.isSeq:
		return len(t.many)
	default:
		return 1
	}
}

// Elements returns the target as a sequence. The returned slice is a copy.
func (t Target) Elements() []Element {
	switch {
	case !t.present:
		return nil
	case t.isSeq:
		out := make([]Element, len(t.many))
		copy(out, t.many)
		return out
	default:
		return []Element{t.single}
	}
}

// Validate checks that every element in the sequence is non-nil.
func (t Target) Validate() error {
	for i, el := range t.Elements() {
		if el == nil {
			return fmt.Errorf("%w (index %d)", ErrNilElement, i)
		}
	}
	return nil
}
