package greenmq

// Loop is the readiness-notification facility a Socket registers against.
// It is injected rather than taken from a process-wide global so tests can
// substitute a deterministic implementation (see ManualLoop).
type Loop interface {
	// RegisterReadWatch adds a persistent watch on the descriptor: the
	// callback fires on every readiness change of fd until the returned
	// watch is canceled, not just on the first one.
	RegisterReadWatch(fd int, callback func()) (Watch, error)
}

// Watch is a live loop registration. Cancel releases the loop-level
// descriptor resource; canceling twice is a no-op.
type Watch interface {
	Cancel() error
}
