package probe

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/vango-dev/sizewatch/pkg/detector"
	"github.com/vango-dev/sizewatch/pkg/element"
	"github.com/vango-dev/sizewatch/pkg/identity"
	"github.com/vango-dev/sizewatch/pkg/sizetest"
)

// manualInstaller holds installs until finish is called.
type manualInstaller struct {
	mu          sync.Mutex
	startErr    error
	installs    int
	uninstalls  int
	done        map[element.Element]func(error)
	installCtxs []context.Context
}

func newManualInstaller() *manualInstaller {
	return &manualInstaller{done: make(map[element.Element]func(error))}
}

func (m *manualInstaller) Install(ctx context.Context, el element.Element, done func(error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.startErr != nil {
		return m.startErr
	}
	m.installs++
	m.done[el] = done
	m.installCtxs = append(m.installCtxs, ctx)
	return nil
}

func (m *manualInstaller) Uninstall(element.Element) {
	m.mu.Lock()
	m.uninstalls++
	m.mu.Unlock()
}

func (m *manualInstaller) finish(el element.Element, err error) {
	m.mu.Lock()
	done := m.done[el]
	delete(m.done, el)
	m.mu.Unlock()
	if done != nil {
		done(err)
	}
}

func TestOverlappingRequestsShareOneInstall(t *testing.T) {
	inst := newManualInstaller()
	p := New(inst, identity.NewRegistry(), nil)
	box := sizetest.NewBox(1, 1)

	ready := 0
	for i := 0; i < 4; i++ {
		if err := p.MakeDetectable(context.Background(), box, func(element.Element) { ready++ }); err != nil {
			t.Fatalf("MakeDetectable: %v", err)
		}
	}
	if inst.installs != 1 {
		t.Fatalf("installs = %d, want 1", inst.installs)
	}
	if p.IsDetectable(box) {
		t.Fatal("element must not be detectable before the install completes")
	}

	inst.finish(box, nil)
	if ready != 4 {
		t.Fatalf("onReady called %d times, want 4", ready)
	}
	if !p.IsDetectable(box) {
		t.Fatal("element should be detectable after the install completes")
	}

	// Ready elements are answered immediately.
	_ = p.MakeDetectable(context.Background(), box, func(element.Element) { ready++ })
	if ready != 5 || inst.installs != 1 {
		t.Fatalf("ready=%d installs=%d, want 5 and 1", ready, inst.installs)
	}
}

func TestInstallContextIgnoresCallerCancellation(t *testing.T) {
	inst := newManualInstaller()
	p := New(inst, identity.NewRegistry(), nil)
	box := sizetest.NewBox(1, 1)

	ctx, cancel := context.WithCancel(context.Background())
	_ = p.MakeDetectable(ctx, box, func(element.Element) {})
	cancel()

	if err := inst.installCtxs[0].Err(); err != nil {
		t.Fatalf("install context cancelled with caller: %v", err)
	}
}

func TestCancelledWaiterSkipped(t *testing.T) {
	inst := newManualInstaller()
	p := New(inst, identity.NewRegistry(), nil)
	box := sizetest.NewBox(1, 1)

	ctx, cancel := context.WithCancel(context.Background())
	var got []string
	_ = p.MakeDetectable(ctx, box, func(element.Element) { got = append(got, "cancelled") })
	_ = p.MakeDetectable(context.Background(), box, func(element.Element) { got = append(got, "live") })
	cancel()
	inst.finish(box, nil)

	if len(got) != 1 || got[0] != "live" {
		t.Fatalf("got %v, want [live]", got)
	}
}

func TestFailedInstallCanBeRetried(t *testing.T) {
	inst := newManualInstaller()
	p := New(inst, identity.NewRegistry(), nil)
	box := sizetest.NewBox(1, 1)

	var failed error
	p.OnError = func(_ element.Element, err error) { failed = err }

	called := false
	_ = p.MakeDetectable(context.Background(), box, func(element.Element) { called = true })
	boom := errors.New("observer unavailable")
	inst.finish(box, boom)

	if called {
		t.Fatal("onReady must not run for a failed install")
	}
	if failed != boom {
		t.Fatalf("OnError got %v, want %v", failed, boom)
	}
	if p.IsDetectable(box) {
		t.Fatal("failed element must not be detectable")
	}

	_ = p.MakeDetectable(context.Background(), box, func(element.Element) { called = true })
	if inst.installs != 2 {
		t.Fatalf("installs = %d, want 2 after retry", inst.installs)
	}
	inst.finish(box, nil)
	if !called {
		t.Fatal("retry should complete")
	}
}

func TestInstallStartErrorReturned(t *testing.T) {
	inst := newManualInstaller()
	inst.startErr = errors.New("session closed")
	p := New(inst, identity.NewRegistry(), nil)
	box := sizetest.NewBox(1, 1)

	err := p.MakeDetectable(context.Background(), box, func(element.Element) {})
	if err != inst.startErr {
		t.Fatalf("MakeDetectable() = %v, want %v", err, inst.startErr)
	}

	inst.startErr = nil
	if err := p.MakeDetectable(context.Background(), box, func(element.Element) {}); err != nil {
		t.Fatalf("retry after start error: %v", err)
	}
	if inst.installs != 1 {
		t.Fatalf("installs = %d, want 1", inst.installs)
	}
}

func TestNotifyOnlyWhenReady(t *testing.T) {
	inst := newManualInstaller()
	p := New(inst, identity.NewRegistry(), nil)
	box := sizetest.NewBox(1, 1)

	calls := 0
	p.AddListener(box, func(element.Element) { calls++ })
	_ = p.MakeDetectable(context.Background(), box, func(element.Element) {})

	p.Notify(box)
	if calls != 0 {
		t.Fatal("Notify before ready must be ignored")
	}

	inst.finish(box, nil)
	p.Notify(box)
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}

	p.Notify(sizetest.NewBox(1, 1))
	if calls != 1 {
		t.Fatal("Notify on unknown element must be ignored")
	}
}

func TestUninstallWhilePendingDropsStaleCompletion(t *testing.T) {
	inst := newManualInstaller()
	p := New(inst, identity.NewRegistry(), nil)
	box := sizetest.NewBox(1, 1)

	stale := false
	_ = p.MakeDetectable(context.Background(), box, func(element.Element) { stale = true })
	inst.mu.Lock()
	oldDone := inst.done[box]
	inst.mu.Unlock()

	p.Uninstall(box)
	if inst.uninstalls != 1 || p.Len() != 0 {
		t.Fatalf("uninstalls=%d len=%d", inst.uninstalls, p.Len())
	}

	fresh := false
	_ = p.MakeDetectable(context.Background(), box, func(element.Element) { fresh = true })
	oldDone(nil)
	if stale || fresh || p.IsDetectable(box) {
		t.Fatalf("stale completion leaked: stale=%v fresh=%v", stale, fresh)
	}

	inst.finish(box, nil)
	if !fresh || stale {
		t.Fatalf("fresh=%v stale=%v, want true and false", fresh, stale)
	}
}

func TestWithDetector(t *testing.T) {
	ids := identity.NewRegistry()
	inst := newManualInstaller()
	p := New(inst, ids, nil)
	det := detector.New(p, detector.WithIDHandler(ids), detector.WithCallOnAdd(false))
	box := sizetest.NewBox(100, 50)

	first, second := sizetest.NewRecorder(), sizetest.NewRecorder()
	ctx := context.Background()
	if err := det.ListenTo(ctx, element.One(box), first.Listener()); err != nil {
		t.Fatal(err)
	}
	if err := det.ListenTo(ctx, element.One(box), second.Listener()); err != nil {
		t.Fatal(err)
	}

	box.Resize(120, 50)
	inst.finish(box, nil)
	if first.Count() != 1 || second.Count() != 1 {
		t.Fatalf("race check: first=%d second=%d, want 1 each", first.Count(), second.Count())
	}

	p.Notify(box)
	if first.Count() != 2 || second.Count() != 2 {
		t.Fatalf("after notify: first=%d second=%d, want 2 each", first.Count(), second.Count())
	}
	if inst.installs != 1 {
		t.Fatalf("installs = %d, want 1", inst.installs)
	}

	if err := det.Uninstall(element.One(box)); err != nil {
		t.Fatal(err)
	}
	if inst.uninstalls != 1 || p.IsDetectable(box) {
		t.Fatal("detector Uninstall should reach the installer")
	}
}

// joiningInstaller runs join while the install is still being started,
// then refuses to start it.
type joiningInstaller struct {
	join func()
	err  error
}

func (j *joiningInstaller) Install(context.Context, element.Element, func(error)) error {
	j.join()
	return j.err
}

func (j *joiningInstaller) Uninstall(element.Element) {}

func TestStartErrorReportsJoinedWaiters(t *testing.T) {
	ids := identity.NewRegistry()
	inst := &joiningInstaller{err: errors.New("queue full")}
	p := New(inst, ids, nil)
	box := sizetest.NewBox(1, 1)

	var reported []error
	p.OnError = func(_ element.Element, err error) { reported = append(reported, err) }

	var joinedErr error
	joinedReady := false
	inst.join = func() {
		joinedErr = p.MakeDetectable(context.Background(), box, func(element.Element) { joinedReady = true })
	}

	err := p.MakeDetectable(context.Background(), box, func(element.Element) {})
	if err != inst.err {
		t.Fatalf("starting caller got %v, want %v", err, inst.err)
	}
	if joinedErr != nil {
		t.Fatalf("joined caller got %v, want nil", joinedErr)
	}
	if joinedReady {
		t.Fatal("onReady must not run when the install never started")
	}
	if len(reported) != 1 || reported[0] != inst.err {
		t.Fatalf("OnError got %v, want one %v", reported, inst.err)
	}
	if p.IsDetectable(box) {
		t.Fatal("element must not be detectable")
	}
}

func TestStartErrorWithoutJoinedWaitersSkipsOnError(t *testing.T) {
	inst := newManualInstaller()
	inst.startErr = errors.New("session closed")
	p := New(inst, identity.NewRegistry(), nil)

	called := false
	p.OnError = func(element.Element, error) { called = true }
	_ = p.MakeDetectable(context.Background(), sizetest.NewBox(1, 1), func(element.Element) {})
	if called {
		t.Fatal("OnError must not run when only the caller was waiting")
	}
}
