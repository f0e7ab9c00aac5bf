package server

import (
	"time"

	"github.com/vango-dev/sizewatch/pkg/remote"
)

// Config holds server settings.
type Config struct {
	// Address is the listen address (default ":7070").
	Address string

	// ReadHeaderTimeout bounds reading request headers.
	ReadHeaderTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration

	// HandshakeTimeout is how long a new connection has to send ClientHello.
	HandshakeTimeout time.Duration

	// AllowedOrigins lists origins allowed to open websockets in addition
	// to same-origin requests. "*" allows every origin.
	AllowedOrigins []string

	// IdleTimeout closes sessions whose client sent nothing for this long.
	// Heartbeat pongs count as activity. Negative disables the check.
	IdleTimeout time.Duration

	// MaxSessions caps concurrent sessions. Zero means no limit.
	MaxSessions int

	// MaxMessageSize is the websocket read limit in bytes.
	MaxMessageSize int64

	// MetricsEnabled mounts /metrics.
	MetricsEnabled bool

	// MetricsNamespace is the Prometheus namespace.
	MetricsNamespace string

	// Session is applied to every session.
	Session remote.Config
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Address:           ":7070",
		ReadHeaderTimeout: 10 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		HandshakeTimeout:  5 * time.Second,
		IdleTimeout:       5 * time.Minute,
		MaxMessageSize:    64 * 1024,
		MetricsEnabled:    true,
		MetricsNamespace:  "sizewatch",
		Session:           remote.DefaultConfig(),
	}
}

// withDefaults returns a copy with zero fields filled from DefaultConfig.
func (c *Config) withDefaults() *Config {
	d := DefaultConfig()
	if c == nil {
		return d
	}
	out := *c
	if out.Address == "" {
		out.Address = d.Address
	}
	if out.ReadHeaderTimeout <= 0 {
		out.ReadHeaderTimeout = d.ReadHeaderTimeout
	}
	if out.ShutdownTimeout <= 0 {
		out.ShutdownTimeout = d.ShutdownTimeout
	}
	if out.HandshakeTimeout <= 0 {
		out.HandshakeTimeout = d.HandshakeTimeout
	}
	if out.IdleTimeout == 0 {
		out.IdleTimeout = d.IdleTimeout
	}
	if out.MaxMessageSize <= 0 {
		out.MaxMessageSize = d.MaxMessageSize
	}
	if out.MetricsNamespace == "" {
		out.MetricsNamespace = d.MetricsNamespace
	}
	return &out
}
