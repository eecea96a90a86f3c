package greenmq

import (
	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

// RaiseFdLimit lifts the soft open-file limit to the hard limit. Every
// live socket holds a descriptor plus an epoll watch, so churn-heavy
// workloads exhaust the default soft limit quickly.
func RaiseFdLimit() {
	noRLimit := &unix.Rlimit{}
	err := unix.Getrlimit(unix.RLIMIT_NOFILE, noRLimit)
	if err != nil {
		log.Error().Msgf("error occur while getting OS limit of open files: %+v", err)
		return
	}
	if noRLimit.Cur >= noRLimit.Max {
		return
	}
	err = unix.Setrlimit(unix.RLIMIT_NOFILE, &unix.Rlimit{
		Cur: noRLimit.Max,
		Max: noRLimit.Max,
	})
	if err != nil {
		log.Error().Msgf("error occur while setting OS limit of open files: %+v", err)
	}
}
