package sizetest

import (
	"context"
	"testing"

	"github.com/vango-dev/sizewatch/pkg/element"
)

func TestProviderSharesPendingInstall(t *testing.T) {
	p := NewProvider()
	box := NewBox(10, 10)

	ready := 0
	onReady := func(element.Element) { ready++ }
	for i := 0; i < 3; i++ {
		if err := p.MakeDetectable(context.Background(), box, onReady); err != nil {
			t.Fatalf("MakeDetectable: %v", err)
		}
	}

	if got := p.Installs(box); got != 1 {
		t.Fatalf("Installs() = %d, want 1", got)
	}
	if got := p.Complete(box); got != 3 {
		t.Fatalf("Complete() = %d, want 3", got)
	}
	if ready != 3 || !p.IsDetectable(box) {
		t.Fatalf("ready=%d detectable=%v", ready, p.IsDetectable(box))
	}
}

func TestProviderSkipsCancelledWaiters(t *testing.T) {
	p := NewProvider()
	box := NewBox(10, 10)

	ctx, cancel := context.WithCancel(context.Background())
	called := false
	_ = p.MakeDetectable(ctx, box, func(element.Element) { called = true })
	cancel()

	if got := p.Complete(box); got != 0 || called {
		t.Fatalf("cancelled waiter ran: Complete()=%d called=%v", got, called)
	}
}

func TestRecorderCapturesSize(t *testing.T) {
	rec := NewRecorder()
	box := NewBox(1, 2)
	fn := rec.Listener()

	fn(box)
	box.Resize(3, 4)
	fn(box)

	calls := rec.Calls()
	if len(calls) != 2 {
		t.Fatalf("len(Calls()) = %d", len(calls))
	}
	if !calls[0].Size.Equal(element.Size{Width: 1, Height: 2}) || !calls[1].Size.Equal(element.Size{Width: 3, Height: 4}) {
		t.Fatalf("unexpected sizes: %+v", calls)
	}
	rec.Reset()
	if rec.Count() != 0 {
		t.Fatal("Reset() did not clear calls")
	}
}
