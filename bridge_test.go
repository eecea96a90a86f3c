package greenmq

import (
	"errors"
	"testing"

	"go.uber.org/atomic"
)

type readinessErrTransport struct {
	fakeTransport
}

func (rt *readinessErrTransport) Readiness() (Readiness, error) {
	return 0, errors.New("readiness unavailable")
}

func newTestBridge(ft TransportSocket) (*eventBridge, *gate, *gate, *atomic.Bool) {
	rd := newGate()
	wr := newGate()
	closed := atomic.NewBool(false)
	return newEventBridge(ft, closed, rd, wr), rd, wr, closed
}

func TestBridgeSignalsPerDirection(t *testing.T) {
	ft := newFakeTransport(20)
	b, rd, wr, _ := newTestBridge(ft)

	// neither direction ready
	b.notify()
	if rd.set() || wr.set() {
		t.Fatalf("gate signaled without readiness")
	}

	ft.setReadable(true)
	b.notify()
	if !rd.set() {
		t.Fatalf("read gate not signaled for readable transport")
	}
	if wr.set() {
		t.Fatalf("write gate signaled without writability")
	}

	rd.clear()
	ft.setWritable(true)
	b.notify()
	if !rd.set() || !wr.set() {
		t.Fatalf("both gates should be signaled when both directions ready")
	}
}

func TestBridgeSignalsBothGatesAfterClose(t *testing.T) {
	ft := newFakeTransport(21)
	b, rd, wr, closed := newTestBridge(ft)
	closed.Store(true)
	b.notify()
	if !rd.set() || !wr.set() {
		t.Fatalf("closed socket notification must release both directions")
	}
}

func TestBridgeSignalsBothGatesOnReadinessError(t *testing.T) {
	rt := &readinessErrTransport{}
	rt.fd = 22
	b, rd, wr, _ := newTestBridge(rt)
	b.notify()
	if !rd.set() || !wr.set() {
		t.Fatalf("unreadable readiness must wake both directions")
	}
}

func TestBridgeCancelWithoutWatchIsNoop(t *testing.T) {
	ft := newFakeTransport(23)
	b, _, _, _ := newTestBridge(ft)
	if err := b.cancel(); err != nil {
		t.Fatalf("cancel without registration: %+v", err)
	}
}

func TestBridgeCancelIsExactlyOnce(t *testing.T) {
	ft := newFakeTransport(24)
	loop := NewManualLoop()
	b, _, _, _ := newTestBridge(ft)
	if err := b.register(loop); err != nil {
		t.Fatalf("register: %+v", err)
	}
	if loop.Watches() != 1 {
		t.Fatalf("expected one watch, got %d", loop.Watches())
	}
	if err := b.cancel(); err != nil {
		t.Fatalf("cancel: %+v", err)
	}
	if err := b.cancel(); err != nil {
		t.Fatalf("second cancel: %+v", err)
	}
	if loop.Watches() != 0 {
		t.Fatalf("watch leaked after cancel")
	}
}
