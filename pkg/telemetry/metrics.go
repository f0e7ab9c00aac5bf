// Package telemetry collects Prometheus metrics for sizewatch.
//
// Metrics collected (with the default namespace):
//   - sizewatch_registrations_total: listener registrations by path (installed, detectable)
//   - sizewatch_installs_requested_total: probe installs requested by the detector
//   - sizewatch_listener_calls_total: direct listener invocations by reason
//   - sizewatch_fanouts_total: observed changes fanned out
//   - sizewatch_fanout_listeners: listeners reached per fan-out
//   - sizewatch_active_sessions: open websocket sessions
//   - sizewatch_sessions_total: sessions accepted
//   - sizewatch_frames_total: frames by direction and type
//   - sizewatch_frame_bytes_total: frame bytes by direction
//   - sizewatch_protocol_errors_total: protocol errors by code
//
// Metrics implements detector.Observer and remote.Monitor.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/sizewatch/pkg/detector"
	"github.com/vango-dev/sizewatch/pkg/element"
	"github.com/vango-dev/sizewatch/pkg/protocol"
	"github.com/vango-dev/sizewatch/pkg/remote"
)

// Config configures the metrics.
type Config struct {
	// Namespace is the metrics namespace (default: "sizewatch").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the metrics.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "sizewatch",
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the sizewatch collectors.
type Metrics struct {
	registrations     *prometheus.CounterVec
	installsRequested prometheus.Counter
	listenerCalls     *prometheus.CounterVec
	fanouts           prometheus.Counter
	fanoutListeners   prometheus.Histogram
	activeSessions    prometheus.Gauge
	sessionsTotal     prometheus.Counter
	frames            *prometheus.CounterVec
	frameBytes        *prometheus.CounterVec
	protocolErrors    *prometheus.CounterVec
}

var (
	_ detector.Observer = (*Metrics)(nil)
	_ remote.Monitor    = (*Metrics)(nil)
)

// New creates and registers the collectors. Registering twice on the
// same registry panics, so tests pass a fresh prometheus.NewRegistry.
func New(opts ...Option) *Metrics {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	counter := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}
	}

	return &Metrics{
		registrations: factory.NewCounterVec(
			counter("registrations_total", "Listener registrations by path"),
			[]string{"path"}),

		installsRequested: factory.NewCounter(
			counter("installs_requested_total", "Probe installs requested by the detector")),

		listenerCalls: factory.NewCounterVec(
			counter("listener_calls_total", "Direct listener invocations by reason"),
			[]string{"reason"}),

		fanouts: factory.NewCounter(
			counter("fanouts_total", "Observed size changes fanned out to listeners")),

		fanoutListeners: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "fanout_listeners",
			Help:        "Listeners reached per fan-out",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{0, 1, 2, 4, 8, 16, 32, 64},
		}),

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_sessions",
			Help:        "Number of active WebSocket sessions",
			ConstLabels: config.ConstLabels,
		}),

		sessionsTotal: factory.NewCounter(
			counter("sessions_total", "Total WebSocket sessions accepted")),

		frames: factory.NewCounterVec(
			counter("frames_total", "Protocol frames by direction and type"),
			[]string{"direction", "type"}),

		frameBytes: factory.NewCounterVec(
			counter("frame_bytes_total", "Protocol frame bytes by direction"),
			[]string{"direction"}),

		protocolErrors: factory.NewCounterVec(
			counter("protocol_errors_total", "Protocol errors reported to clients by code"),
			[]string{"code"}),
	}
}

// InstallRequested implements detector.Observer.
func (m *Metrics) InstallRequested(element.Element) {
	m.installsRequested.Inc()
}

// Registered implements detector.Observer.
func (m *Metrics) Registered(_ element.Element, installed bool) {
	path := "detectable"
	if installed {
		path = "installed"
	}
	m.registrations.WithLabelValues(path).Inc()
}

// Invoked implements detector.Observer.
func (m *Metrics) Invoked(_ element.Element, reason detector.Reason) {
	m.listenerCalls.WithLabelValues(string(reason)).Inc()
}

// FannedOut implements detector.Observer.
func (m *Metrics) FannedOut(_ element.Element, listeners int) {
	m.fanouts.Inc()
	m.fanoutListeners.Observe(float64(listeners))
}

// SessionOpened records an accepted session.
func (m *Metrics) SessionOpened() {
	m.sessionsTotal.Inc()
	m.activeSessions.Inc()
}

// SessionClosed records a closed session.
func (m *Metrics) SessionClosed() {
	m.activeSessions.Dec()
}

// FrameReceived implements remote.Monitor.
func (m *Metrics) FrameReceived(ft protocol.FrameType, bytes int) {
	m.frames.WithLabelValues("in", ft.String()).Inc()
	m.frameBytes.WithLabelValues("in").Add(float64(bytes))
}

// FrameSent implements remote.Monitor.
func (m *Metrics) FrameSent(ft protocol.FrameType, bytes int) {
	m.frames.WithLabelValues("out", ft.String()).Inc()
	m.frameBytes.WithLabelValues("out").Add(float64(bytes))
}

// ProtocolError implements remote.Monitor.
func (m *Metrics) ProtocolError(code protocol.ErrorCode) {
	m.protocolErrors.WithLabelValues(code.String()).Inc()
}
