package detector

import (
	"log/slog"

	"github.com/vango-dev/sizewatch/pkg/identity"
)

// DefaultTracerName is the OpenTelemetry tracer used for ListenTo spans.
const DefaultTracerName = "sizewatch"

// Options holds process-wide defaults for a Detector.
// They are fixed at construction.
type Options struct {
	// CallOnAdd invokes new listeners once on registration (default: true).
	CallOnAdd bool

	// IDHandler replaces the default identity registry entirely.
	IDHandler identity.Handler

	// Logger receives debug and error logs (default: slog.Default()).
	Logger *slog.Logger

	// Observer is notified of registrations and invocations.
	Observer Observer

	// TracerName names the OpenTelemetry tracer (default: "sizewatch").
	TracerName string
}

// Option configures a Detector.
type Option func(*Options)

// DefaultOptions returns the built-in defaults.
func DefaultOptions() Options {
	return Options{
		CallOnAdd:  true,
		TracerName: DefaultTracerName,
	}
}

// WithCallOnAdd sets the default call-on-add policy.
func WithCallOnAdd(v bool) Option {
	return func(o *Options) {
		o.CallOnAdd = v
	}
}

// WithIDHandler replaces the identity service.
func WithIDHandler(h identity.Handler) Option {
	return func(o *Options) {
		o.IDHandler = h
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithObserver sets the observer. Use Observers to combine several.
func WithObserver(obs Observer) Option {
	return func(o *Options) {
		o.Observer = obs
	}
}

// WithTracerName sets the OpenTelemetry tracer name.
func WithTracerName(name string) Option {
	return func(o *Options) {
		o.TracerName = name
	}
}

// ListenOption overrides a default for a single ListenTo call.
type ListenOption func(*listenConfig)

type listenConfig struct {
	callOnAdd bool
}

// CallOnAdd overrides the call-on-add policy for one call.
func CallOnAdd(v bool) ListenOption {
	return func(c *listenConfig) {
		c.callOnAdd = v
	}
}
