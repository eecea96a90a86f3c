package greenmq

import (
	"strconv"

	"go.uber.org/atomic"
)

// ContextConfig carries per-context tunables for the sockets it creates.
type ContextConfig struct {
	// SpinThreshold overrides how many would-block failures a call
	// retries inline before suspending; zero keeps the default.
	SpinThreshold int
}

// Context is a socket factory over a transport context. Every socket it
// produces is an adaptive Socket; no raw transport socket escapes it.
type Context struct {
	transport TransportContext
	loop      Loop
	spin      int
	seq       *atomic.Uint64
}

func NewContext(transport TransportContext, loop Loop, config ContextConfig) *Context {
	return &Context{
		transport: transport,
		loop:      loop,
		spin:      config.SpinThreshold,
		seq:       atomic.NewUint64(0),
	}
}

// Socket creates a transport socket of the given type and wraps it.
// Returns ErrContextClosed if the transport context has been closed.
func (c *Context) Socket(socketType int) (*Socket, error) {
	if c.transport.Closed() {
		return nil, ErrContextClosed
	}
	ts, err := c.transport.NewSocket(socketType)
	if err != nil {
		return nil, err
	}
	return c.Wrap(ts)
}

// Wrap adapts an existing transport socket, registering its loop watch.
// The context takes no ownership beyond construction; the returned Socket
// owns the transport socket exclusively.
func (c *Context) Wrap(ts TransportSocket) (*Socket, error) {
	if c.transport.Closed() {
		return nil, ErrContextClosed
	}
	id := "sock-" + strconv.FormatUint(c.seq.Inc(), 10)
	return newSocket(id, ts, c.loop, c.spin)
}
