package element

import (
	"errors"
	"testing"
)

type box struct{ size Size }

func (b *box) Size() Size { return b.size }

func TestSizeEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Size
		want bool
	}{
		{"same", Size{100, 50}, Size{100, 50}, true},
		{"width differs", Size{100, 50}, Size{120, 50}, false},
		{"height differs", Size{100, 50}, Size{100, 51}, false},
		{"zero", Size{}, Size{}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Equal(tc.b); got != tc.want {
				t.Errorf("Equal() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSizeString(t *testing.T) {
	if got := (Size{Width: 120, Height: 50.5}).String(); got != "120x50.5" {
		t.Errorf("String() = %q, want %q", got, "120x50.5")
	}
}

func TestTargetNormalization(t *testing.T) {
	el := &box{}

	one := One(el).Elements()
	many := Many(el).Elements()
	if len(one) != 1 || len(many) != 1 {
		t.Fatalf("len(One)=%d len(Many)=%d, want 1 and 1", len(one), len(many))
	}
	if one[0] != many[0] {
		t.Error("One(el) and Many(el) should yield the same element")
	}
}

func TestTargetAbsent(t *testing.T) {
	if !(Target{}).IsZero() {
		t.Error("zero Target should be absent")
	}
	if !One(nil).IsZero() {
		t.Error("One(nil) should be absent")
	}
	if Many().IsZero() {
		t.Error("Many() should be present")
	}
	if got := Many().Len(); got != 0 {
		t.Errorf("Many().Len() = %d, want 0", got)
	}
}

func TestTargetElementsIsCopy(t *testing.T) {
	a, b := &box{}, &box{}
	target := Many(a, b)
	els := target.Elements()
	els[0] = b
	if target.Elements()[0] != a {
		t.Error("mutating Elements() result should not affect the target")
	}
}

func TestTargetValidate(t *testing.T) {
	if err := Many(&box{}, &box{}).Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
	err := Many(&box{}, nil).Validate()
	if !errors.Is(err, ErrNilElement) {
		t.Fatalf("Validate() = %v, want ErrNilElement", err)
	}
}
