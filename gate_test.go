package greenmq

import (
	"testing"
	"time"
)

func TestGateIsLevelTriggered(t *testing.T) {
	g := newGate()
	g.signal()
	time.Sleep(10 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		g.await()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("await suspended on an already-signaled gate")
	}
}

func TestGateCollapsesRepeatedSignals(t *testing.T) {
	g := newGate()
	g.signal()
	g.signal()
	g.signal()
	g.await()
	if g.set() {
		t.Fatalf("repeated signals queued instead of collapsing")
	}
}

func TestGateClearConsumesPendingSignal(t *testing.T) {
	g := newGate()
	g.signal()
	g.clear()
	if g.set() {
		t.Fatalf("clear left the gate signaled")
	}
	// clearing an empty gate is a no-op
	g.clear()
	if g.set() {
		t.Fatalf("clear on empty gate signaled it")
	}
}
