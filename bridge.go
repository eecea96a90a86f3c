package greenmq

import (
	"github.com/rs/zerolog/log"
	"go.uber.org/atomic"
)

// eventBridge connects one transport socket to the event loop: it holds
// the persistent read watch on the socket's pollable descriptor and turns
// loop notifications into gate signals. It never performs I/O itself.
type eventBridge struct {
	transport TransportSocket
	closed    *atomic.Bool
	rdGate    *gate
	wrGate    *gate
	watch     Watch
}

func newEventBridge(transport TransportSocket, closed *atomic.Bool, rdGate, wrGate *gate) *eventBridge {
	return &eventBridge{
		transport: transport,
		closed:    closed,
		rdGate:    rdGate,
		wrGate:    wrGate,
	}
}

// register subscribes notify against the loop using the transport's
// pollable descriptor.
func (b *eventBridge) register(loop Loop) error {
	fd, err := b.transport.PollFd()
	if err != nil {
		return err
	}
	watch, err := loop.RegisterReadWatch(fd, b.notify)
	if err != nil {
		return err
	}
	b.watch = watch
	return nil
}

// notify runs on every loop notification for the watched descriptor.
// After close both gates are signaled unconditionally so that any
// suspended goroutine is released rather than waiting forever on a socket
// that will never become ready again; this is not true I/O readiness, the
// woken caller re-attempts and observes the transport's closed-socket
// error. Signaling with no waiter is harmless: the next await consumes the
// pending flag and returns immediately.
func (b *eventBridge) notify() {
	if b.closed.Load() {
		b.rdGate.signal()
		b.wrGate.signal()
		return
	}
	bits, err := b.transport.Readiness()
	if err != nil {
		// Readiness is unreadable; wake both directions so waiters
		// re-attempt and surface whatever the transport reports.
		if log.Debug().Enabled() {
			log.Debug().Msgf("readiness query failed: %+v", err)
		}
		b.rdGate.signal()
		b.wrGate.signal()
		return
	}
	if bits&ReadySend != 0 {
		b.wrGate.signal()
	}
	if bits&ReadyRecv != 0 {
		b.rdGate.signal()
	}
}

// cancel releases the watch exactly once. A bridge that never completed
// register has no watch; that is not an error.
func (b *eventBridge) cancel() error {
	if b.watch == nil {
		return nil
	}
	watch := b.watch
	b.watch = nil
	return watch.Cancel()
}
