package telemetry

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vango-dev/sizewatch/pkg/detector"
	"github.com/vango-dev/sizewatch/pkg/element"
	"github.com/vango-dev/sizewatch/pkg/protocol"
	"github.com/vango-dev/sizewatch/pkg/sizetest"
)

func TestMetricsObserveDetector(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(WithRegistry(reg))

	p := sizetest.NewProvider()
	det := detector.New(p, detector.WithObserver(m), detector.WithCallOnAdd(false))
	box := sizetest.NewBox(100, 50)

	ctx := context.Background()
	rec := sizetest.NewRecorder()
	if err := det.ListenTo(ctx, element.One(box), rec.Listener()); err != nil {
		t.Fatal(err)
	}
	box.Resize(120, 50)
	p.Complete(box)
	if err := det.ListenTo(ctx, element.One(box), rec.Listener()); err != nil {
		t.Fatal(err)
	}
	p.Fire(box)

	if got := testutil.ToFloat64(m.installsRequested); got != 1 {
		t.Errorf("installs_requested_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.listenerCalls.WithLabelValues(string(detector.ReasonRace))); got != 1 {
		t.Errorf("listener_calls_total{reason=race} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.fanouts); got != 1 {
		t.Errorf("fanouts_total = %v, want 1", got)
	}

	want := `
# HELP sizewatch_registrations_total Listener registrations by path
# TYPE sizewatch_registrations_total counter
sizewatch_registrations_total{path="detectable"} 1
sizewatch_registrations_total{path="installed"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(want), "sizewatch_registrations_total"); err != nil {
		t.Error(err)
	}
}

func TestMetricsSessionsAndFrames(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(WithRegistry(reg), WithNamespace("sw"), WithConstLabels(prometheus.Labels{"instance": "a"}))

	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()
	m.FrameReceived(protocol.FrameEvent, 10)
	m.FrameSent(protocol.FrameCommand, 6)
	m.ProtocolError(protocol.ErrUnknownElement)

	if got := testutil.ToFloat64(m.activeSessions); got != 1 {
		t.Errorf("active_sessions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.sessionsTotal); got != 2 {
		t.Errorf("sessions_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.frameBytes.WithLabelValues("in")); got != 10 {
		t.Errorf("frame_bytes_total{direction=in} = %v, want 10", got)
	}

	want := `
# HELP sw_protocol_errors_total Protocol errors reported to clients by code
# TYPE sw_protocol_errors_total counter
sw_protocol_errors_total{code="UnknownElement",instance="a"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(want), "sw_protocol_errors_total"); err != nil {
		t.Error(err)
	}
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(WithRegistry(reg))

	defer func() {
		if recover() == nil {
			t.Fatal("second New on the same registry should panic")
		}
	}()
	New(WithRegistry(reg))
}
