package greenmq

import (
	"time"

	"go.uber.org/atomic"
)

// SocketStats is a point-in-time snapshot of one socket's activity.
type SocketStats struct {
	TotalSends         uint64
	TotalRecvs         uint64
	TotalSentBytes     uint64
	TotalReceivedBytes uint64
	Spins              uint64
	Suspends           uint64
	LastActivityTime   int64
}

type socketStats struct {
	sends        *atomic.Uint64
	recvs        *atomic.Uint64
	sentBytes    *atomic.Uint64
	recvBytes    *atomic.Uint64
	spins        *atomic.Uint64
	suspends     *atomic.Uint64
	lastActivity *atomic.Int64
}

func newSocketStats() *socketStats {
	return &socketStats{
		sends:        atomic.NewUint64(0),
		recvs:        atomic.NewUint64(0),
		sentBytes:    atomic.NewUint64(0),
		recvBytes:    atomic.NewUint64(0),
		spins:        atomic.NewUint64(0),
		suspends:     atomic.NewUint64(0),
		lastActivity: atomic.NewInt64(0),
	}
}

func (st *socketStats) markSend(n int) {
	st.sends.Inc()
	st.sentBytes.Add(uint64(n))
	st.lastActivity.Store(time.Now().UnixMilli())
}

func (st *socketStats) markRecv(n int) {
	st.recvs.Inc()
	st.recvBytes.Add(uint64(n))
	st.lastActivity.Store(time.Now().UnixMilli())
}

func (st *socketStats) snapshot() SocketStats {
	return SocketStats{
		TotalSends:         st.sends.Load(),
		TotalRecvs:         st.recvs.Load(),
		TotalSentBytes:     st.sentBytes.Load(),
		TotalReceivedBytes: st.recvBytes.Load(),
		Spins:              st.spins.Load(),
		Suspends:           st.suspends.Load(),
		LastActivityTime:   st.lastActivity.Load(),
	}
}
