package greenmq

import (
	"testing"
	"time"
)

func TestEventLoopDeliversReadinessCallbacks(t *testing.T) {
	loop, err := NewEventLoop(EventLoopConfig{Name: "test", EventBufferSize: 16})
	if err != nil {
		t.Fatalf("new event loop: %+v", err)
	}
	go loop.Start()
	defer loop.Stop()

	pc := NewPairContext(SocketConfig{})
	defer pc.Close()
	a, b, err := pc.SocketPair()
	if err != nil {
		t.Fatalf("socketpair: %+v", err)
	}
	defer a.Close()
	defer b.Close()

	fired := make(chan struct{}, 16)
	fd, err := a.PollFd()
	if err != nil {
		t.Fatalf("pollfd: %+v", err)
	}
	watch, err := loop.RegisterReadWatch(fd, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatalf("register: %+v", err)
	}

	if err := b.Send([]byte("wake"), 0); err != nil {
		t.Fatalf("send: %+v", err)
	}
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatalf("no notification for readable descriptor")
	}

	if err := watch.Cancel(); err != nil {
		t.Fatalf("cancel: %+v", err)
	}
	if err := watch.Cancel(); err != nil {
		t.Fatalf("second cancel: %+v", err)
	}

	// drain, then verify no further deliveries after cancel
	if _, err := a.Recv(0); err != nil {
		t.Fatalf("recv: %+v", err)
	}
	for len(fired) > 0 {
		<-fired
	}
	if err := b.Send([]byte("again"), 0); err != nil {
		t.Fatalf("send: %+v", err)
	}
	select {
	case <-fired:
		t.Fatalf("canceled watch still delivered a notification")
	case <-time.After(100 * time.Millisecond):
	}
}
