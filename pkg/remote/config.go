package remote

import "time"

// Config holds per-session settings.
type Config struct {
	// ReadTimeout is how long the session waits for any client message.
	// The client pings well within it.
	ReadTimeout time.Duration

	// WriteTimeout bounds every websocket write.
	WriteTimeout time.Duration

	// HeartbeatInterval is the interval between server pings.
	HeartbeatInterval time.Duration

	// SendQueue is the capacity of the outbound frame queue.
	SendQueue int

	// MaxNodes caps announced elements per session. Zero means no limit.
	MaxNodes int

	// CallOnAdd is the session detector's call-on-add default.
	CallOnAdd bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		HeartbeatInterval: 30 * time.Second,
		SendQueue:         256,
		MaxNodes:          10000,
		CallOnAdd:         true,
	}
}

// withDefaults fills zero durations and sizes from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = d.HeartbeatInterval
	}
	if c.SendQueue <= 0 {
		c.SendQueue = d.SendQueue
	}
	return c
}
