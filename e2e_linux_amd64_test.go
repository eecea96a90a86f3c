package greenmq

import (
	"bytes"
	"testing"
	"time"
)

func startTestLoop(t *testing.T) *EventLoop {
	t.Helper()
	loop, err := NewEventLoop(EventLoopConfig{Name: "e2e", EventBufferSize: 32})
	if err != nil {
		t.Fatalf("new event loop: %+v", err)
	}
	go loop.Start()
	t.Cleanup(loop.Stop)
	return loop
}

func wrapPair(t *testing.T, ctx *Context, pc *PairContext) (*Socket, *Socket) {
	t.Helper()
	rawA, rawB, err := pc.SocketPair()
	if err != nil {
		t.Fatalf("socketpair: %+v", err)
	}
	a, err := ctx.Wrap(rawA)
	if err != nil {
		t.Fatalf("wrap: %+v", err)
	}
	b, err := ctx.Wrap(rawB)
	if err != nil {
		t.Fatalf("wrap: %+v", err)
	}
	return a, b
}

func TestEndToEndReceiverSuspendsUntilPeerSends(t *testing.T) {
	loop := startTestLoop(t)
	pc := NewPairContext(SocketConfig{})
	defer pc.Close()
	ctx := NewContext(pc, loop, ContextConfig{})
	a, b := wrapPair(t, ctx, pc)
	defer a.Close()
	defer b.Close()

	payload := []byte("ping")
	type result struct {
		msg []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		msg, err := b.Recv(0)
		done <- result{msg, err}
	}()

	// let the receiver reach its suspension point before sending
	waitFor(t, "receiver to suspend", func() bool {
		return b.Stats().Suspends >= 1
	})
	if err := a.Send(payload, 0); err != nil {
		t.Fatalf("send: %+v", err)
	}

	select {
	case res := <-done:
		if res.err != nil {
			t.Fatalf("recv: %+v", res.err)
		}
		if !bytes.Equal(res.msg, payload) {
			t.Fatalf("payload mismatch: %q", res.msg)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("suspended receiver never resumed")
	}
}

func TestEndToEndSenderSuspendsUntilPeerDrains(t *testing.T) {
	loop := startTestLoop(t)
	pc := NewPairContext(SocketConfig{
		SendBufferSize: 4096,
		RecvBufferSize: 4096,
	})
	defer pc.Close()
	ctx := NewContext(pc, loop, ContextConfig{})
	a, b := wrapPair(t, ctx, pc)
	defer a.Close()
	defer b.Close()

	const messages = 64
	payload := bytes.Repeat([]byte("m"), 1024)

	sendDone := make(chan error, 1)
	go func() {
		for i := 0; i < messages; i++ {
			if err := a.Send(payload, 0); err != nil {
				sendDone <- err
				return
			}
		}
		sendDone <- nil
	}()

	// drain slowly so the sender hits a full buffer at least once
	received := 0
	for received < messages {
		msg, err := b.Recv(0)
		if err != nil {
			t.Fatalf("recv %d: %+v", received, err)
		}
		if !bytes.Equal(msg, payload) {
			t.Fatalf("message %d corrupted", received)
		}
		received++
		if received%8 == 0 {
			time.Sleep(time.Millisecond)
		}
	}

	select {
	case err := <-sendDone:
		if err != nil {
			t.Fatalf("send: %+v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("sender never completed")
	}

	stats := a.Stats()
	if stats.TotalSends != messages {
		t.Fatalf("expected %d sends, got %d", messages, stats.TotalSends)
	}
	if stats.TotalSentBytes != uint64(messages*len(payload)) {
		t.Fatalf("sent byte count mismatch: %d", stats.TotalSentBytes)
	}
	if b.Stats().TotalReceivedBytes != uint64(messages*len(payload)) {
		t.Fatalf("received byte count mismatch: %d", b.Stats().TotalReceivedBytes)
	}
}

func TestEndToEndCloseWakesSuspendedReceiver(t *testing.T) {
	loop := startTestLoop(t)
	pc := NewPairContext(SocketConfig{})
	defer pc.Close()
	ctx := NewContext(pc, loop, ContextConfig{})
	a, b := wrapPair(t, ctx, pc)
	defer a.Close()

	done := make(chan error, 1)
	go func() {
		_, err := b.Recv(0)
		done <- err
	}()
	waitFor(t, "receiver to suspend", func() bool {
		return b.Stats().Suspends >= 1
	})

	if err := b.Close(); err != nil {
		t.Fatalf("close: %+v", err)
	}
	select {
	case err := <-done:
		if err == nil {
			t.Fatalf("recv on closed socket returned no error")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("close did not unblock the suspended receiver")
	}
}
