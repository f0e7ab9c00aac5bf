package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	clientdist "github.com/vango-dev/sizewatch/client/dist"
	errs "github.com/vango-dev/sizewatch/internal/errors"
	"github.com/vango-dev/sizewatch/pkg/detector"
	"github.com/vango-dev/sizewatch/pkg/middleware"
	"github.com/vango-dev/sizewatch/pkg/protocol"
	"github.com/vango-dev/sizewatch/pkg/remote"
	"github.com/vango-dev/sizewatch/pkg/telemetry"
)

// Server is the sizewatch HTTP server.
type Server struct {
	config    *Config
	logger    *slog.Logger
	router    chi.Router
	upgrader  websocket.Upgrader
	sessions  *SessionManager
	registry  *prometheus.Registry
	metrics   *telemetry.Metrics
	onSession func(*remote.Session)

	httpServer *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithSessionHandler sets the function called for every new session
// before its loops start. It is the place to set OnNode.
func WithSessionHandler(fn func(*remote.Session)) Option {
	return func(s *Server) { s.onSession = fn }
}

// WithRegistry sets the Prometheus registry. By default each server
// gets its own registry.
func WithRegistry(r *prometheus.Registry) Option {
	return func(s *Server) { s.registry = r }
}

// New creates a server. A nil config means DefaultConfig.
func New(config *Config, opts ...Option) *Server {
	s := &Server{config: config.withDefaults()}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "server")
	s.sessions = newSessionManager(s.config.MaxSessions)

	if s.config.MetricsEnabled {
		if s.registry == nil {
			s.registry = prometheus.NewRegistry()
			s.registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
		}
		s.metrics = telemetry.New(
			telemetry.WithRegistry(s.registry),
			telemetry.WithNamespace(s.config.MetricsNamespace),
		)
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logger(s.logger))
	r.Use(middleware.OpenTelemetry(middleware.WithRequestFilter(func(r *http.Request) bool {
		return r.URL.Path != "/healthz" && r.URL.Path != "/metrics"
	})))

	r.Get("/ws", s.HandleWebSocket)
	r.Get("/sizewatch.js", s.handleClientJS)
	r.Get("/healthz", s.handleHealth)
	if s.registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Sessions returns the session manager.
func (s *Server) Sessions() *SessionManager {
	return s.sessions
}

// Config returns the effective configuration.
func (s *Server) Config() *Config {
	return s.config
}

// checkOrigin allows same-origin requests and the configured origins.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.config.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	host := strings.TrimPrefix(strings.TrimPrefix(origin, "https://"), "http://")
	return strings.EqualFold(host, r.Host)
}

func (s *Server) handleClientJS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(clientdist.SizewatchJS)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok","sessions":` + strconv.Itoa(s.sessions.Count()) + "}\n"))
}

// HandleWebSocket upgrades the connection, performs the handshake and
// starts a session.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	conn.SetReadLimit(s.config.MaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(s.config.HandshakeTimeout))

	_, msg, err := conn.ReadMessage()
	if err != nil {
		s.logger.Warn("handshake read failed", "error", err)
		conn.Close()
		return
	}

	frame, err := protocol.DecodeFrame(msg)
	if err == nil && frame.Type != protocol.FrameHandshake {
		err = fmt.Errorf("expected handshake frame, got %s", frame.Type)
	}
	var hello *protocol.ClientHello
	if err == nil {
		hello, err = protocol.DecodeClientHello(frame.Payload)
	}
	if err != nil {
		s.logger.Warn("handshake rejected", "error", errs.New("E140").Wrap(err))
		s.sendHandshakeError(conn, protocol.HandshakeInvalidFormat)
		conn.Close()
		return
	}
	if !hello.Version.Compatible() {
		s.logger.Warn("handshake rejected", "error", errs.New("E141").
			WithDetailf("client speaks %s, server speaks %s", hello.Version, protocol.CurrentVersion))
		s.sendHandshakeError(conn, protocol.HandshakeVersionMismatch)
		conn.Close()
		return
	}

	var opts []remote.Option
	opts = append(opts, remote.WithLogger(s.logger))
	if s.metrics != nil {
		opts = append(opts,
			remote.WithMonitor(s.metrics),
			remote.WithDetectorOptions(detector.WithObserver(s.metrics)),
		)
	}
	session := remote.NewSession(conn, uuid.NewString(), s.config.Session, opts...)

	if !s.sessions.tryAdd(session) {
		s.logger.Warn("session limit reached", "limit", s.config.MaxSessions)
		s.sendHandshakeError(conn, protocol.HandshakeServerBusy)
		conn.Close()
		return
	}
	if s.metrics != nil {
		s.metrics.SessionOpened()
	}
	session.OnClose = func(sess *remote.Session) {
		s.sessions.remove(sess.ID)
		if s.metrics != nil {
			s.metrics.SessionClosed()
		}
	}

	s.sendServerHello(conn, session)
	s.logger.Info("session started", "session_id", session.ID, "user_agent", hello.UserAgent)

	if s.onSession != nil {
		s.onSession(session)
	}
	session.Start()
}

func (s *Server) sendHandshakeError(conn *websocket.Conn, status protocol.HandshakeStatus) {
	s.writeHello(conn, &protocol.ServerHello{Status: status, ServerTime: uint64(time.Now().UnixMilli())})
}

func (s *Server) sendServerHello(conn *websocket.Conn, session *remote.Session) {
	s.writeHello(conn, &protocol.ServerHello{
		Status:     protocol.HandshakeOK,
		SessionID:  session.ID,
		ServerTime: uint64(time.Now().UnixMilli()),
	})
}

func (s *Server) writeHello(conn *websocket.Conn, hello *protocol.ServerHello) {
	frame := protocol.NewFrame(protocol.FrameHandshake, protocol.EncodeServerHello(hello))
	_ = conn.SetWriteDeadline(time.Now().Add(s.config.Session.WriteTimeout))
	if err := conn.WriteMessage(websocket.BinaryMessage, frame.Encode()); err != nil {
		s.logger.Debug("handshake write failed", "error", err)
	}
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
	}

	if s.config.IdleTimeout > 0 {
		reapCtx, stopReap := context.WithCancel(ctx)
		defer stopReap()
		go s.sessions.reapLoop(reapCtx, s.config.IdleTimeout)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", ln.Addr().String())
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down...")
		return s.Shutdown(context.WithoutCancel(ctx))
	}
}

// Shutdown closes all sessions and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.sessions.Shutdown()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	s.logger.Info("server shutdown complete")
	return nil
}
