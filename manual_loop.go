package greenmq

import (
	"sync"

	"github.com/eapache/queue"
	"go.uber.org/atomic"
)

// ManualLoop is a deterministic Loop for tests and simulations: nothing
// fires unless the driver says so. Notifications can be delivered
// immediately with Fire or queued with Post and drained with Dispatch.
type ManualLoop struct {
	lock    *sync.Mutex
	watches map[int]func()
	pending *queue.Queue
}

func NewManualLoop() *ManualLoop {
	return &ManualLoop{
		lock:    &sync.Mutex{},
		watches: make(map[int]func()),
		pending: queue.New(),
	}
}

func (ml *ManualLoop) RegisterReadWatch(fd int, callback func()) (Watch, error) {
	ml.lock.Lock()
	defer ml.lock.Unlock()
	ml.watches[fd] = callback
	return &manualWatch{
		loop:     ml,
		fd:       fd,
		canceled: atomic.NewBool(false),
	}, nil
}

// Fire invokes the callback registered for fd, if any, on the calling
// goroutine.
func (ml *ManualLoop) Fire(fd int) {
	ml.lock.Lock()
	callback := ml.watches[fd]
	ml.lock.Unlock()
	if callback != nil {
		callback()
	}
}

// Post queues a notification for fd without delivering it.
func (ml *ManualLoop) Post(fd int) {
	ml.lock.Lock()
	defer ml.lock.Unlock()
	ml.pending.Add(fd)
}

// Dispatch drains queued notifications in order, invoking the callbacks
// registered at delivery time. Returns how many were delivered.
func (ml *ManualLoop) Dispatch() int {
	delivered := 0
	for {
		ml.lock.Lock()
		if ml.pending.Length() == 0 {
			ml.lock.Unlock()
			return delivered
		}
		fd := ml.pending.Peek().(int)
		ml.pending.Remove()
		callback := ml.watches[fd]
		ml.lock.Unlock()
		if callback != nil {
			callback()
			delivered++
		}
	}
}

// Watches reports how many live registrations the loop holds.
func (ml *ManualLoop) Watches() int {
	ml.lock.Lock()
	defer ml.lock.Unlock()
	return len(ml.watches)
}

type manualWatch struct {
	loop     *ManualLoop
	fd       int
	canceled *atomic.Bool
}

func (w *manualWatch) Cancel() error {
	if !w.canceled.CAS(false, true) {
		return nil
	}
	w.loop.lock.Lock()
	defer w.loop.lock.Unlock()
	delete(w.loop.watches, w.fd)
	return nil
}
