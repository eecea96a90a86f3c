package greenmq

import "errors"

// ErrWouldBlock is the transient "cannot complete right now" condition of
// a non-blocking transport primitive. The adaptive send/receive path
// absorbs it entirely; callers only ever see it when they pass DontWait.
var ErrWouldBlock = errors.New("operation would block")

// ErrContextClosed is returned when a socket is requested from a context
// whose underlying transport context has been closed.
var ErrContextClosed = errors.New("context closed")

// ErrSocketClosed is returned by the pair transport for operations on a
// closed socket.
var ErrSocketClosed = errors.New("socket closed")

var noWatchFound = errors.New("no watch found for fd")
