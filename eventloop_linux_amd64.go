package greenmq

import (
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.uber.org/atomic"
)

type EventLoopConfig struct {
	Name            string
	LockOsThread    bool
	EventBufferSize int
}

// EventLoop is the epoll-backed Loop implementation. One loop serves any
// number of sockets; all registered callbacks run on the loop goroutine.
type EventLoop struct {
	Name         string
	lockOsThread bool
	isRunning    *atomic.Bool
	poller       *Poller
	watches      *watchTable
}

func NewEventLoop(config EventLoopConfig) (*EventLoop, error) {
	if log.Debug().Enabled() {
		log.Debug().Msgf("init event loop:%+v", config)
	} else {
		log.Info().Msgf("init event loop:%s", config.Name)
	}

	poller, err := openPoller(config.EventBufferSize)
	if err != nil {
		log.Error().Msgf("can't open poller: %+v", err)
		return nil, err
	}
	eLoop := &EventLoop{
		Name:         config.Name,
		lockOsThread: config.LockOsThread,
		isRunning:    atomic.NewBool(false),
		poller:       poller,
		watches:      newWatchTable(),
	}
	return eLoop, nil
}

// Start runs the poll loop until Stop is called. It blocks; run it on a
// dedicated goroutine.
func (el *EventLoop) Start() {
	if el.lockOsThread {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}
	el.isRunning.Store(true)
	go el.reportWatches()
	for el.isRunning.Load() {
		evCount, err := el.poller.waitForEvents(el.dispatch)
		if err != nil {
			log.Error().Msgf("got error while waiting for the net events: %+v", err)
		}
		if log.Debug().Enabled() && evCount > 0 {
			log.Debug().Msgf("processed %d netpoll events", evCount)
		}
	}
	el.poller.close()
}

func (el *EventLoop) Stop() {
	el.isRunning.Store(false)
}

func (el *EventLoop) dispatch(fd int, events uint32) error {
	callback, err := el.watches.find(fd)
	if err != nil {
		derr := el.poller.delete(fd)
		if derr != nil {
			log.Error().Msgf("[%d] error occurs while detaching fd from netpoll: %v", fd, derr)
		}
		return nil
	}
	callback()
	return nil
}

// RegisterReadWatch implements Loop. The watch persists across readiness
// changes until its Cancel.
func (el *EventLoop) RegisterReadWatch(fd int, callback func()) (Watch, error) {
	el.watches.add(fd, callback)
	err := el.poller.addWatch(fd)
	if err != nil {
		el.watches.remove(fd)
		return nil, err
	}
	return &epollWatch{
		loop:     el,
		fd:       fd,
		canceled: atomic.NewBool(false),
	}, nil
}

func (el *EventLoop) reportWatches() {
	ticker := time.NewTicker(20 * time.Second)
	defer ticker.Stop()
	for el.isRunning.Load() {
		<-ticker.C
		log.Debug().Msgf("total watches: %d", el.watches.count())
	}
}

type epollWatch struct {
	loop     *EventLoop
	fd       int
	canceled *atomic.Bool
}

func (w *epollWatch) Cancel() error {
	if !w.canceled.CAS(false, true) {
		return nil
	}
	w.loop.watches.remove(w.fd)
	return w.loop.poller.delete(w.fd)
}

// watchTable maps descriptors to their notification callbacks.
func newWatchTable() *watchTable {
	return &watchTable{
		lock:    &sync.RWMutex{},
		watches: make(map[int]func()),
	}
}

type watchTable struct {
	lock    *sync.RWMutex
	watches map[int]func()
}

func (wt *watchTable) find(fd int) (func(), error) {
	wt.lock.RLock()
	defer wt.lock.RUnlock()
	callback, ok := wt.watches[fd]
	if ok {
		return callback, nil
	}
	return nil, noWatchFound
}

func (wt *watchTable) add(fd int, callback func()) {
	wt.lock.Lock()
	defer wt.lock.Unlock()
	wt.watches[fd] = callback
}

func (wt *watchTable) remove(fd int) {
	wt.lock.Lock()
	defer wt.lock.Unlock()
	delete(wt.watches, fd)
}

func (wt *watchTable) count() int {
	wt.lock.RLock()
	defer wt.lock.RUnlock()
	return len(wt.watches)
}
