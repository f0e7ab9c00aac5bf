package detector

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/sizewatch/pkg/element"
	"github.com/vango-dev/sizewatch/pkg/identity"
	"github.com/vango-dev/sizewatch/pkg/listeners"
)

// Listener is called with the element whose size changed.
type Listener = listeners.Func

// Detector registers size-change listeners on elements.
// All durable state lives in its identity handler and listener store.
type Detector struct {
	provider  Provider
	callOnAdd bool
	ids       identity.Handler
	store     *listeners.Store
	observer  Observer
	logger    *slog.Logger
	tracer    trace.Tracer
}

// New creates a Detector backed by provider.
func New(provider Provider, opts ...Option) *Detector {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if o.IDHandler == nil {
		o.IDHandler = identity.NewRegistry()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Observer == nil {
		o.Observer = NopObserver{}
	}
	if o.TracerName == "" {
		o.TracerName = DefaultTracerName
	}

	return &Detector{
		provider:  provider,
		callOnAdd: o.CallOnAdd,
		ids:       o.IDHandler,
		store:     listeners.NewStore(o.IDHandler),
		observer:  o.Observer,
		logger:    o.Logger.With("component", "detector"),
		tracer:    otel.Tracer(o.TracerName),
	}
}

// IDs returns the identity handler shared by the detector's state.
func (d *Detector) IDs() identity.Handler {
	return d.ids
}

// CallOnAddDefault reports the global call-on-add policy.
func (d *Detector) CallOnAddDefault() bool {
	return d.callOnAdd
}

// ListenerCount returns the number of listeners registered for el.
func (d *Detector) ListenerCount(el element.Element) int {
	return d.store.Len(el)
}

// ListenTo registers listener for size changes of every element in target.
//
// Argument errors are reported synchronously, before any element is
// touched, and match ErrInvalidArgument. Errors from the provider are
// returned unchanged and stop processing of the remaining elements.
// Registration on elements the provider still has to prepare completes
// after ListenTo returns.
func (d *Detector) ListenTo(ctx context.Context, target element.Target, listener Listener, opts ...ListenOption) (err error) {
	if target.IsZero() {
		return invalidArgument("E100", nil)
	}
	if listener == nil {
		return invalidArgument("E101", nil)
	}
	if err := target.Validate(); err != nil {
		return invalidArgument("E102", err)
	}

	cfg := listenConfig{callOnAdd: d.callOnAdd}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, span := d.tracer.Start(ctx, "sizewatch.ListenTo",
		trace.WithAttributes(
			attribute.Int("sizewatch.elements", target.Len()),
			attribute.Bool("sizewatch.call_on_add", cfg.callOnAdd),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	for _, el := range target.Elements() {
		if err := d.listen(ctx, el, listener, cfg.callOnAdd); err != nil {
			return err
		}
	}
	return nil
}

func (d *Detector) listen(ctx context.Context, el element.Element, listener Listener, callOnAdd bool) error {
	// Baseline for the race check below.
	pre := el.Size()

	if d.provider.IsDetectable(el) {
		d.attach(el)
		d.register(el, listener, callOnAdd, false)
		return nil
	}

	d.observer.InstallRequested(el)
	d.logger.Debug("installing probe", "element_id", d.ids.Set(el), "size", pre.String())

	return d.provider.MakeDetectable(ctx, el, func(el element.Element) {
		d.attach(el)
		d.register(el, listener, callOnAdd, true)

		// Call-on-add already reported the current state.
		if callOnAdd {
			return
		}
		if post := el.Size(); !post.Equal(pre) {
			d.logger.Debug("resized during install",
				"element_id", d.ids.Set(el),
				"before", pre.String(),
				"after", post.String(),
			)
			d.invoke(el, listener, ReasonRace)
		}
	})
}

// attach routes the provider's change notifications for el to fanOut,
// once per element.
func (d *Detector) attach(el element.Element) {
	if d.store.Attach(el) {
		d.provider.AddListener(el, d.fanOut)
	}
}

func (d *Detector) register(el element.Element, listener Listener, callOnAdd, installed bool) {
	d.store.Add(el, listener)
	d.observer.Registered(el, installed)

	if callOnAdd {
		d.invoke(el, listener, ReasonCallOnAdd)
	}
}

func (d *Detector) invoke(el element.Element, listener Listener, reason Reason) {
	d.observer.Invoked(el, reason)
	listener(el)
}

// fanOut delivers one observed change to every listener of el in
// registration order.
func (d *Detector) fanOut(el element.Element) {
	fns := d.store.Get(el)
	d.observer.FannedOut(el, len(fns))
	for _, fn := range fns {
		fn(el)
	}
}

// RemoveAllListeners drops every listener registered for the elements in
// target. The elements stay observed.
func (d *Detector) RemoveAllListeners(target element.Target) error {
	if target.IsZero() {
		return invalidArgument("E100", nil)
	}
	if err := target.Validate(); err != nil {
		return invalidArgument("E102", err)
	}
	for _, el := range target.Elements() {
		d.store.RemoveAll(el)
	}
	return nil
}

// Uninstall drops all listeners for the elements in target and asks the
// provider to stop observing them. A later ListenTo prepares the element
// again. Providers that do not implement Uninstaller keep observing; only
// the listeners are dropped.
func (d *Detector) Uninstall(target element.Target) error {
	if target.IsZero() {
		return invalidArgument("E100", nil)
	}
	if err := target.Validate(); err != nil {
		return invalidArgument("E102", err)
	}

	u, canUninstall := d.provider.(Uninstaller)
	for _, el := range target.Elements() {
		if !canUninstall {
			// The provider keeps calling fanOut, so the attachment must stay.
			d.store.RemoveAll(el)
			continue
		}
		u.Uninstall(el)
		d.store.Forget(el)
		if id, ok := d.ids.Get(el); ok {
			d.logger.Debug("uninstalled", "element_id", id)
		}
	}
	return nil
}
