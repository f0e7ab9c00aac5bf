package remote

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	errs "github.com/vango-dev/sizewatch/internal/errors"
	"github.com/vango-dev/sizewatch/pkg/detector"
	"github.com/vango-dev/sizewatch/pkg/element"
	"github.com/vango-dev/sizewatch/pkg/identity"
	"github.com/vango-dev/sizewatch/pkg/probe"
	"github.com/vango-dev/sizewatch/pkg/protocol"
)

// Session errors.
var (
	ErrSessionClosed  = errors.New("remote: session closed")
	ErrForeignElement = errors.New("remote: element does not belong to this session")
	ErrInstallFailed  = errors.New("remote: client could not install probe")
	ErrQueueFull      = errors.New("remote: send queue full")
)

// Session is one websocket connection to a sizewatch client.
type Session struct {
	// ID is the server-assigned session identifier.
	ID string

	// OnNode is called on the read goroutine for every newly announced node.
	OnNode func(s *Session, n *Node)

	// OnClose is called once after the session closes.
	OnClose func(s *Session)

	conn     *websocket.Conn
	config   Config
	logger   *slog.Logger
	monitor  Monitor
	ids      *identity.Registry
	provider *probe.Provider
	detector *detector.Detector

	detectorOpts []detector.Option

	mu      sync.Mutex
	nodes   map[uint64]*Node
	pending map[uint64]func(error)

	wmu       sync.Mutex
	send      chan *protocol.Frame
	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	createdAt  time.Time
	lastActive atomic.Int64
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithMonitor sets the transport monitor.
func WithMonitor(m Monitor) Option {
	return func(s *Session) { s.monitor = m }
}

// WithDetectorOptions passes extra options to the session's detector.
func WithDetectorOptions(opts ...detector.Option) Option {
	return func(s *Session) { s.detectorOpts = append(s.detectorOpts, opts...) }
}

// NewSession wraps an upgraded connection. The handshake must already be
// done. Call Start to run the read and write loops.
func NewSession(conn *websocket.Conn, id string, config Config, opts ...Option) *Session {
	s := &Session{
		ID:        id,
		conn:      conn,
		config:    config.withDefaults(),
		monitor:   nopMonitor{},
		ids:       identity.NewRegistry(),
		nodes:     make(map[uint64]*Node),
		pending:   make(map[uint64]func(error)),
		done:      make(chan struct{}),
		createdAt: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "remote", "session_id", id)
	s.send = make(chan *protocol.Frame, s.config.SendQueue)
	s.lastActive.Store(s.createdAt.UnixNano())

	s.provider = probe.New(&installer{s: s}, s.ids, s.logger)
	s.provider.OnError = func(el element.Element, err error) {
		if n, ok := el.(*Node); ok {
			s.logger.Warn("probe install failed", "node", n.name, "error", err)
		}
	}

	dopts := []detector.Option{
		detector.WithCallOnAdd(s.config.CallOnAdd),
		detector.WithIDHandler(s.ids),
		detector.WithLogger(s.logger),
	}
	s.detector = detector.New(s.provider, append(dopts, s.detectorOpts...)...)
	s.detectorOpts = nil
	return s
}

// Start runs the read and write loops in their own goroutines.
func (s *Session) Start() {
	go s.WriteLoop()
	go s.ReadLoop()
}

// ListenTo registers listener on the nodes in target.
func (s *Session) ListenTo(ctx context.Context, target element.Target, listener detector.Listener, opts ...detector.ListenOption) error {
	return s.detector.ListenTo(ctx, target, listener, opts...)
}

// Detector returns the session's detector.
func (s *Session) Detector() *detector.Detector {
	return s.detector
}

// Node returns the node with the given wire ID.
func (s *Session) Node(id uint64) (*Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	return n, ok
}

// Nodes returns all announced nodes ordered by wire ID.
func (s *Session) Nodes() []*Node {
	s.mu.Lock()
	out := make([]*Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		out = append(out, n)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// PendingInstalls returns the number of installs awaiting a client answer.
func (s *Session) PendingInstalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Done is closed when the session closes.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// IsClosed reports whether the session has been closed.
func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// LastActive returns the time of the last client message.
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

// Close closes the session with a normal close reason.
func (s *Session) Close() {
	s.CloseWithReason(protocol.CloseNormal, "")
}

// CloseWithReason sends a close control frame, closes the connection and
// fails every install still waiting for the client.
func (s *Session) CloseWithReason(reason protocol.CloseReason, message string) {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.done)

		_ = s.writeFrame(protocol.NewFrame(protocol.FrameControl, protocol.EncodeControl(&protocol.Control{
			Type:    protocol.ControlClose,
			Reason:  reason,
			Message: message,
		})))
		_ = s.conn.Close()

		s.mu.Lock()
		pending := s.pending
		s.pending = make(map[uint64]func(error))
		s.mu.Unlock()

		for _, done := range pending {
			done(errs.New("E122").Wrap(ErrSessionClosed))
		}

		s.logger.Info("session closed",
			"reason", reason.String(),
			"nodes", len(s.Nodes()),
			"duration", time.Since(s.createdAt).Round(time.Millisecond),
		)
		if s.OnClose != nil {
			s.OnClose(s)
		}
	})
}

// enqueue queues a frame for the write loop without blocking.
func (s *Session) enqueue(f *protocol.Frame) error {
	if s.closed.Load() {
		return errs.New("E122").Wrap(ErrSessionClosed)
	}
	select {
	case s.send <- f:
		return nil
	case <-s.done:
		return errs.New("E122").Wrap(ErrSessionClosed)
	default:
		s.monitor.ProtocolError(protocol.ErrRateLimited)
		return errs.New("E120").WithDetail("send queue full").Wrap(ErrQueueFull)
	}
}

// writeFrame writes one frame to the connection. Writes are serialized
// because the connection supports a single concurrent writer.
func (s *Session) writeFrame(f *protocol.Frame) error {
	data := f.Encode()

	s.wmu.Lock()
	defer s.wmu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := s.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return err
	}
	s.monitor.FrameSent(f.Type, len(data))
	return nil
}

// nodeOf resolves el to a node of this session.
func (s *Session) nodeOf(el element.Element) (*Node, error) {
	n, ok := el.(*Node)
	if !ok || n.session != s {
		return nil, errs.New("E121").Wrap(ErrForeignElement)
	}
	return n, nil
}

// installer sends probe commands to the client.
type installer struct {
	s *Session
}

func (i *installer) Install(_ context.Context, el element.Element, done func(error)) error {
	s := i.s
	n, err := s.nodeOf(el)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.pending[n.id] = done
	s.mu.Unlock()

	err = s.enqueue(protocol.NewFrame(protocol.FrameCommand, protocol.EncodeCommand(&protocol.Command{
		Type: protocol.CommandInstall,
		ID:   n.id,
	})))
	if err != nil {
		s.mu.Lock()
		delete(s.pending, n.id)
		s.mu.Unlock()
		return err
	}
	s.logger.Debug("install requested", "node", n.name, "wire_id", n.id)
	return nil
}

func (i *installer) Uninstall(el element.Element) {
	s := i.s
	n, err := s.nodeOf(el)
	if err != nil {
		return
	}

	s.mu.Lock()
	delete(s.pending, n.id)
	s.mu.Unlock()

	if err := s.enqueue(protocol.NewFrame(protocol.FrameCommand, protocol.EncodeCommand(&protocol.Command{
		Type: protocol.CommandUninstall,
		ID:   n.id,
	}))); err != nil {
		s.logger.Debug("uninstall not sent", "node", n.name, "error", err)
	}
}
