package greenmq

import (
	"io"
	"os"
	"sync"

	"github.com/eapache/queue"
	"github.com/rs/zerolog/log"
	"go.uber.org/atomic"
	"golang.org/x/sys/unix"
)

const defMaxMessageSize = 64 * 1024

// PairContext is a TransportContext over in-kernel socket pairs
// (SOCK_SEQPACKET, so every message is delivered whole or not at all).
// NewSocket creates a connected pair, returns one end and parks the peer;
// Accept hands out parked peers in creation order.
type PairContext struct {
	closed  *atomic.Bool
	config  SocketConfig
	lock    *sync.Mutex
	pending *queue.Queue
}

func NewPairContext(config SocketConfig) *PairContext {
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = defMaxMessageSize
	}
	return &PairContext{
		closed:  atomic.NewBool(false),
		config:  config,
		lock:    &sync.Mutex{},
		pending: queue.New(),
	}
}

// SocketPair creates a connected pair of transport sockets.
func (pc *PairContext) SocketPair() (TransportSocket, TransportSocket, error) {
	if pc.closed.Load() {
		return nil, nil, ErrContextClosed
	}
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_SEQPACKET|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, nil, os.NewSyscallError("socketpair", err)
	}
	for _, fd := range fds {
		applyPairSocketOptions(fd, pc.config)
	}
	a := newPairSocket(fds[0], pc.config.MaxMessageSize)
	b := newPairSocket(fds[1], pc.config.MaxMessageSize)
	return a, b, nil
}

// NewSocket implements TransportContext. The socket type is opaque to
// this transport and ignored.
func (pc *PairContext) NewSocket(socketType int) (TransportSocket, error) {
	a, b, err := pc.SocketPair()
	if err != nil {
		return nil, err
	}
	pc.lock.Lock()
	pc.pending.Add(b)
	pc.lock.Unlock()
	return a, nil
}

// Accept returns the parked peer of an earlier NewSocket call, or
// ErrWouldBlock when none is pending.
func (pc *PairContext) Accept() (TransportSocket, error) {
	if pc.closed.Load() {
		return nil, ErrContextClosed
	}
	pc.lock.Lock()
	defer pc.lock.Unlock()
	if pc.pending.Length() == 0 {
		return nil, ErrWouldBlock
	}
	peer := pc.pending.Peek().(TransportSocket)
	pc.pending.Remove()
	return peer, nil
}

// Close marks the context closed and closes any parked peers.
func (pc *PairContext) Close() {
	if !pc.closed.CAS(false, true) {
		return
	}
	pc.lock.Lock()
	defer pc.lock.Unlock()
	for pc.pending.Length() > 0 {
		peer := pc.pending.Peek().(TransportSocket)
		pc.pending.Remove()
		err := peer.Close()
		if err != nil {
			log.Error().Msgf("got error while closing parked peer socket: %+v", err)
		}
	}
}

func (pc *PairContext) Closed() bool {
	return pc.closed.Load()
}

func applyPairSocketOptions(fd int, config SocketConfig) {
	err := unix.SetNonblock(fd, true)
	if err != nil {
		log.Error().Msgf("got error while setting socket options O_NONBLOCK: %+v", err)
	}
	if config.RecvBufferSize > 0 {
		err = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, config.RecvBufferSize)
		if err != nil {
			log.Error().Msgf("got error while setting socket options SO_RCVBUF: %+v", err)
		}
	}
	if config.SendBufferSize > 0 {
		err = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, config.SendBufferSize)
		if err != nil {
			log.Error().Msgf("got error while setting socket options SO_SNDBUF: %+v", err)
		}
	}
}

func newPairSocket(fd, maxMsg int) *pairSocket {
	return &pairSocket{
		fd:     fd,
		maxMsg: maxMsg,
		closed: atomic.NewBool(false),
	}
}

type pairSocket struct {
	fd     int
	maxMsg int
	closed *atomic.Bool
}

func (ps *pairSocket) Send(p []byte, flags Flag) error {
	if ps.closed.Load() {
		return ErrSocketClosed
	}
	if len(p) > ps.maxMsg {
		return os.NewSyscallError("send", unix.EMSGSIZE)
	}
	err := unix.Sendto(ps.fd, p, unix.MSG_NOSIGNAL, nil)
	if err != nil {
		if err == unix.EAGAIN {
			return ErrWouldBlock
		}
		return os.NewSyscallError("send", err)
	}
	return nil
}

func (ps *pairSocket) Recv(flags Flag) ([]byte, error) {
	if ps.closed.Load() {
		return nil, ErrSocketClosed
	}
	buffer := make([]byte, ps.maxMsg)
	n, _, err := unix.Recvfrom(ps.fd, buffer, 0)
	if err != nil {
		if err == unix.EAGAIN {
			return nil, ErrWouldBlock
		}
		return nil, os.NewSyscallError("recv", err)
	}
	if n == 0 {
		// Zero-length read on SOCK_SEQPACKET means the peer is gone.
		return nil, io.EOF
	}
	return buffer[:n], nil
}

func (ps *pairSocket) Readiness() (Readiness, error) {
	if ps.closed.Load() {
		return 0, ErrSocketClosed
	}
	fds := []unix.PollFd{{Fd: int32(ps.fd), Events: unix.POLLIN | unix.POLLOUT}}
	_, err := unix.Poll(fds, 0)
	if err != nil && err != unix.EINTR {
		return 0, os.NewSyscallError("poll", err)
	}
	var bits Readiness
	if fds[0].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
		bits |= ReadyRecv
	}
	if fds[0].Revents&unix.POLLOUT != 0 {
		bits |= ReadySend
	}
	return bits, nil
}

func (ps *pairSocket) PollFd() (int, error) {
	if ps.closed.Load() {
		return 0, ErrSocketClosed
	}
	return ps.fd, nil
}

func (ps *pairSocket) Close() error {
	if !ps.closed.CAS(false, true) {
		return nil
	}
	return os.NewSyscallError("close", unix.Close(ps.fd))
}

func (ps *pairSocket) Closed() bool {
	return ps.closed.Load()
}
