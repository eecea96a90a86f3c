package greenmq

// gate is a one-slot readiness flag that a single goroutine can wait on.
// signal sets the flag, collapsing repeated signals into one pending
// readiness; await consumes the flag, suspending the caller until it is
// set. The flag is level-triggered: a signal delivered while nobody waits
// is observed by the next await without suspending.
type gate struct {
	ch chan struct{}
}

func newGate() *gate {
	return &gate{ch: make(chan struct{}, 1)}
}

func (g *gate) signal() {
	select {
	case g.ch <- struct{}{}:
	default:
	}
}

func (g *gate) clear() {
	select {
	case <-g.ch:
	default:
	}
}

// await suspends the calling goroutine until the flag is set, then
// consumes it. At most one goroutine may await a given gate at a time.
func (g *gate) await() {
	<-g.ch
}

// set reports whether a signal is currently pending without consuming it.
func (g *gate) set() bool {
	return len(g.ch) > 0
}
