package greenmq

import (
	"errors"

	"github.com/rs/zerolog/log"
	"go.uber.org/atomic"
)

// defSpinThreshold is how many consecutive would-block failures a call
// absorbs by retrying immediately before it starts suspending on the
// readiness gate. Short-lived contention (common under heavy socket
// churn) resolves within a few attempts and is cheaper to spin through
// than to pay a full suspend/resume round trip through the scheduler.
const defSpinThreshold = 5

// Socket adapts a non-blocking transport socket to callers that want
// blocking semantics: Send and Recv appear to block, but the calling
// goroutine yields while waiting for readiness instead of occupying the
// transport in its blocking mode. A Socket is owned by a single logical
// caller per direction; concurrent senders (or concurrent receivers) on
// one socket are not arbitrated.
type Socket struct {
	id        string
	transport TransportSocket
	rdGate    *gate
	wrGate    *gate
	bridge    *eventBridge
	closed    *atomic.Bool
	spin      int
	stats     *socketStats
}

func newSocket(id string, transport TransportSocket, loop Loop, spin int) (*Socket, error) {
	if spin <= 0 {
		spin = defSpinThreshold
	}
	s := &Socket{
		id:        id,
		transport: transport,
		rdGate:    newGate(),
		wrGate:    newGate(),
		closed:    atomic.NewBool(false),
		spin:      spin,
		stats:     newSocketStats(),
	}
	s.bridge = newEventBridge(transport, s.closed, s.rdGate, s.wrGate)
	if err := s.bridge.register(loop); err != nil {
		cerr := transport.Close()
		if cerr != nil {
			log.Error().Msgf("[%s] error occurs while closing transport socket: %+v", id, cerr)
		}
		return nil, err
	}
	return s, nil
}

// Send delivers p to the transport. With DontWait set the transport's raw
// non-blocking primitive is invoked once and its result propagates
// untouched, including ErrWouldBlock. Otherwise the call returns only on
// success or on a non-transient error, suspending the goroutine while the
// transport cannot accept the message.
func (s *Socket) Send(p []byte, flags Flag) error {
	if flags&DontWait != 0 {
		return s.transport.Send(p, flags)
	}
	err := s.ioLoop(s.wrGate, func() error {
		return s.transport.Send(p, flags|DontWait)
	})
	if err != nil {
		return err
	}
	s.stats.markSend(len(p))
	return nil
}

// Recv returns the next complete message from the transport. Flag
// semantics mirror Send.
func (s *Socket) Recv(flags Flag) ([]byte, error) {
	if flags&DontWait != 0 {
		return s.transport.Recv(flags)
	}
	var msg []byte
	err := s.ioLoop(s.rdGate, func() error {
		var opErr error
		msg, opErr = s.transport.Recv(flags | DontWait)
		return opErr
	})
	if err != nil {
		return nil, err
	}
	s.stats.markRecv(len(msg))
	return msg, nil
}

// ioLoop runs one transport operation to completion: spin through the
// first would-block failures, then suspend on the gate before every
// further attempt. The attempt counter is never reset, so the cheap
// spinning happens at most once per call. The gate is cleared before the
// attempt, not after it, so a readiness signal arriving between a failed
// attempt and the suspension is kept and the wakeup cannot be lost.
func (s *Socket) ioLoop(g *gate, op func() error) error {
	attempts := 0
	for {
		if attempts >= s.spin {
			g.clear()
		}
		err := op()
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrWouldBlock) {
			routeEvent(s.id, genSocketErrorEvent(s.id, TransportErrorEvent, err))
			return err
		}
		attempts++
		if attempts < s.spin {
			s.stats.spins.Inc()
			continue
		}
		s.stats.suspends.Inc()
		g.await()
	}
}

// Close closes the transport socket and cancels the loop watch, each
// exactly once; a second Close is a no-op. Both gates are force-signaled
// so a goroutine suspended in Send or Recv wakes, re-attempts, and
// surfaces the transport's own closed-socket error.
func (s *Socket) Close() error {
	if !s.closed.CAS(false, true) {
		return nil
	}
	var err error
	if !s.transport.Closed() {
		err = s.transport.Close()
	}
	cerr := s.bridge.cancel()
	if cerr != nil {
		log.Error().Msgf("[%s] error occurs while canceling loop watch: %+v", s.id, cerr)
	}
	s.rdGate.signal()
	s.wrGate.signal()
	routeEvent(s.id, genSocketClosedEvent(s.id))
	return err
}

// Closed reports whether Close has been called.
func (s *Socket) Closed() bool {
	return s.closed.Load()
}

// Stats returns a snapshot of the socket's activity counters.
func (s *Socket) Stats() SocketStats {
	return s.stats.snapshot()
}
