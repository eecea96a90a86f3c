package greenmq

// Readiness is a per-direction readiness bitmask reported by a transport
// socket. A set bit means the matching operation can currently complete
// without blocking.
type Readiness uint32

const (
	ReadyRecv Readiness = 1 << iota
	ReadySend
)

// Flag carries per-call flag bits for Send and Recv.
type Flag uint32

// DontWait requests the raw non-blocking behavior of the transport:
// no retry, no suspension, ErrWouldBlock surfaces directly to the caller.
const DontWait Flag = 1 << 0

// TransportSocket is the underlying messaging endpoint. Send and Recv are
// expected to honor DontWait and report the transient condition as
// ErrWouldBlock; every call either completes fully or fails (no partial
// messages). Exactly one Socket owns a given TransportSocket.
type TransportSocket interface {
	Send(p []byte, flags Flag) error
	Recv(flags Flag) ([]byte, error)
	// Readiness reports the current per-direction readiness bits.
	Readiness() (Readiness, error)
	// PollFd returns the OS-level descriptor whose readability an event
	// loop can watch to learn about readiness changes on this socket.
	PollFd() (int, error)
	Close() error
	Closed() bool
}

// TransportContext produces transport sockets.
type TransportContext interface {
	NewSocket(socketType int) (TransportSocket, error)
	Closed() bool
}
