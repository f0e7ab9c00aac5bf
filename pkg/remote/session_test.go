package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/sizewatch/pkg/detector"
	"github.com/vango-dev/sizewatch/pkg/element"
	"github.com/vango-dev/sizewatch/pkg/protocol"
	"github.com/vango-dev/sizewatch/pkg/sizetest"
)

var ctx = context.Background()

type harness struct {
	t     *testing.T
	sess  *Session
	conn  *websocket.Conn
	nodes chan *Node
}

// newHarness starts a session behind an httptest server and dials it.
func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	h := &harness{t: t, nodes: make(chan *Node, 16)}
	ready := make(chan *Session, 1)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		s := NewSession(conn, "test", cfg)
		s.OnNode = func(_ *Session, n *Node) { h.nodes <- n }
		s.Start()
		ready <- s
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	h.conn = conn

	select {
	case h.sess = <-ready:
	case <-time.After(2 * time.Second):
		t.Fatal("session not started")
	}
	t.Cleanup(h.sess.Close)
	return h
}

func (h *harness) sendEvent(ev protocol.Event) {
	h.t.Helper()
	f := protocol.NewFrame(protocol.FrameEvent, protocol.EncodeEvent(&ev))
	if err := h.conn.WriteMessage(websocket.BinaryMessage, f.Encode()); err != nil {
		h.t.Fatalf("write event: %v", err)
	}
}

// readFrame returns the next frame of type ft, skipping server pings.
func (h *harness) readFrame(ft protocol.FrameType) *protocol.Frame {
	h.t.Helper()
	for {
		_ = h.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := h.conn.ReadMessage()
		if err != nil {
			h.t.Fatalf("read: %v", err)
		}
		f, err := protocol.DecodeFrame(msg)
		if err != nil {
			h.t.Fatalf("DecodeFrame: %v", err)
		}
		if f.Type == ft {
			return f
		}
	}
}

func (h *harness) readCommand() *protocol.Command {
	h.t.Helper()
	c, err := protocol.DecodeCommand(h.readFrame(protocol.FrameCommand).Payload)
	if err != nil {
		h.t.Fatalf("DecodeCommand: %v", err)
	}
	return c
}

func (h *harness) announce(id uint64, name string, w, hgt int) *Node {
	h.t.Helper()
	h.sendEvent(protocol.Event{Type: protocol.EventAnnounce, ID: id, Name: name, Width: w, Height: hgt})
	select {
	case n := <-h.nodes:
		return n
	case <-time.After(2 * time.Second):
		h.t.Fatalf("node %q not announced", name)
		return nil
	}
}

// sizes returns a listener reporting sizes on a channel.
func sizes() (detector.Listener, chan element.Size) {
	ch := make(chan element.Size, 16)
	return func(el element.Element) { ch <- el.Size() }, ch
}

func expectSize(t *testing.T, ch chan element.Size, want element.Size) {
	t.Helper()
	select {
	case got := <-ch:
		if !got.Equal(want) {
			t.Fatalf("listener saw %s, want %s", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("listener not called, want %s", want)
	}
}

func expectNone(t *testing.T, ch chan element.Size) {
	t.Helper()
	select {
	case got := <-ch:
		t.Fatalf("unexpected listener call with %s", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestInstallRaceAndResize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CallOnAdd = false
	h := newHarness(t, cfg)
	n := h.announce(7, "sidebar", 100, 50)

	if got := n.Size(); !got.Equal(element.Size{Width: 100, Height: 50}) {
		t.Fatalf("announced size = %s", got)
	}

	fn, ch := sizes()
	if err := h.sess.ListenTo(ctx, element.One(n), fn); err != nil {
		t.Fatal(err)
	}
	if c := h.readCommand(); c.Type != protocol.CommandInstall || c.ID != 7 {
		t.Fatalf("command = %+v, want Install 7", c)
	}

	// Resized while the probe was being attached.
	h.sendEvent(protocol.Event{Type: protocol.EventInstalled, ID: 7, Width: 120, Height: 50})
	expectSize(t, ch, element.Size{Width: 120, Height: 50})

	h.sendEvent(protocol.Event{Type: protocol.EventResize, ID: 7, Width: 130, Height: 60})
	expectSize(t, ch, element.Size{Width: 130, Height: 60})
	expectNone(t, ch)
}

func TestCallOnAddAfterInstall(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	n := h.announce(1, "main", 10, 10)

	fn, ch := sizes()
	if err := h.sess.ListenTo(ctx, element.One(n), fn); err != nil {
		t.Fatal(err)
	}
	h.readCommand()
	h.sendEvent(protocol.Event{Type: protocol.EventInstalled, ID: 1, Width: 10, Height: 10})
	expectSize(t, ch, element.Size{Width: 10, Height: 10})
	expectNone(t, ch)

	// A second listener on the observed node needs no further install.
	fn2, ch2 := sizes()
	if err := h.sess.ListenTo(ctx, element.One(n), fn2); err != nil {
		t.Fatal(err)
	}
	expectSize(t, ch2, element.Size{Width: 10, Height: 10})
	if h.sess.PendingInstalls() != 0 {
		t.Fatalf("pending = %d, want 0", h.sess.PendingInstalls())
	}
}

func TestInstallFailedIsRetried(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	n := h.announce(3, "chart", 1, 1)

	fn, ch := sizes()
	if err := h.sess.ListenTo(ctx, element.One(n), fn); err != nil {
		t.Fatal(err)
	}
	h.readCommand()
	h.sendEvent(protocol.Event{Type: protocol.EventInstallFailed, ID: 3, Reason: "no ResizeObserver"})
	expectNone(t, ch)

	if err := h.sess.ListenTo(ctx, element.One(n), fn); err != nil {
		t.Fatal(err)
	}
	if c := h.readCommand(); c.Type != protocol.CommandInstall || c.ID != 3 {
		t.Fatalf("retry command = %+v", c)
	}
}

func TestUnknownNodeReportsError(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.sendEvent(protocol.Event{Type: protocol.EventResize, ID: 99, Width: 1, Height: 1})

	em, err := protocol.DecodeErrorMessage(h.readFrame(protocol.FrameError).Payload)
	if err != nil {
		t.Fatal(err)
	}
	if em.Code != protocol.ErrUnknownElement || !strings.Contains(em.Message, "E143") {
		t.Fatalf("error = %+v", em)
	}
}

func TestForeignElementRejected(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	err := h.sess.ListenTo(ctx, element.One(sizetest.NewBox(1, 1)), func(element.Element) {})
	if !errors.Is(err, ErrForeignElement) {
		t.Fatalf("err = %v, want ErrForeignElement", err)
	}
}

func TestClientPingIsAnswered(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	ping := protocol.NewFrame(protocol.FrameControl, protocol.EncodeControl(&protocol.Control{Type: protocol.ControlPing, Timestamp: 42}))
	if err := h.conn.WriteMessage(websocket.BinaryMessage, ping.Encode()); err != nil {
		t.Fatal(err)
	}
	for {
		c, err := protocol.DecodeControl(h.readFrame(protocol.FrameControl).Payload)
		if err != nil {
			t.Fatal(err)
		}
		if c.Type == protocol.ControlPong {
			if c.Timestamp != 42 {
				t.Fatalf("pong timestamp = %d", c.Timestamp)
			}
			return
		}
	}
}

func TestCloseFailsPendingInstalls(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	n := h.announce(5, "footer", 1, 1)

	fn, ch := sizes()
	if err := h.sess.ListenTo(ctx, element.One(n), fn); err != nil {
		t.Fatal(err)
	}
	h.readCommand()
	if h.sess.PendingInstalls() != 1 {
		t.Fatalf("pending = %d, want 1", h.sess.PendingInstalls())
	}

	h.sess.CloseWithReason(protocol.CloseServerShutdown, "bye")
	if h.sess.PendingInstalls() != 0 || !h.sess.IsClosed() {
		t.Fatal("close should drop pending installs")
	}
	expectNone(t, ch)

	c, err := protocol.DecodeControl(h.readFrame(protocol.FrameControl).Payload)
	for err == nil && c.Type != protocol.ControlClose {
		c, err = protocol.DecodeControl(h.readFrame(protocol.FrameControl).Payload)
	}
	if err != nil || c.Reason != protocol.CloseServerShutdown {
		t.Fatalf("close frame = %+v, %v", c, err)
	}

	if err := h.sess.ListenTo(ctx, element.One(n), fn); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("ListenTo after close = %v, want ErrSessionClosed", err)
	}
}

func TestUninstallSendsCommand(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	n := h.announce(2, "nav", 5, 5)

	if err := h.sess.ListenTo(ctx, element.One(n), func(element.Element) {}); err != nil {
		t.Fatal(err)
	}
	h.readCommand()
	h.sendEvent(protocol.Event{Type: protocol.EventInstalled, ID: 2, Width: 5, Height: 5})

	deadline := time.Now().Add(2 * time.Second)
	for !h.sess.provider.IsDetectable(n) {
		if time.Now().After(deadline) {
			t.Fatal("node never became detectable")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := h.sess.Detector().Uninstall(element.One(n)); err != nil {
		t.Fatal(err)
	}
	if c := h.readCommand(); c.Type != protocol.CommandUninstall || c.ID != 2 {
		t.Fatalf("command = %+v, want Uninstall 2", c)
	}
}

func TestReannounceKeepsNode(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	n := h.announce(4, "card", 1, 1)

	h.sendEvent(protocol.Event{Type: protocol.EventAnnounce, ID: 4, Name: "card", Width: 2, Height: 2})
	deadline := time.Now().Add(2 * time.Second)
	for !n.Size().Equal(element.Size{Width: 2, Height: 2}) {
		if time.Now().After(deadline) {
			t.Fatalf("size = %s, want 2x2", n.Size())
		}
		time.Sleep(5 * time.Millisecond)
	}
	if len(h.sess.Nodes()) != 1 {
		t.Fatalf("nodes = %d, want 1", len(h.sess.Nodes()))
	}
	select {
	case <-h.nodes:
		t.Fatal("OnNode called for a re-announce")
	default:
	}
}
