package state

import (
	"sync/atomic"
	"time"
)

// atomicTime stores a monotonic time.Time for lock-free read/write between
// the report-receive goroutine and the heartbeat goroutine (§5:
// "last_report_time: an atomic monotonic timestamp").
type atomicTime struct {
	v atomic.Value // holds time.Time
}

func (a *atomicTime) Store(t time.Time) {
	a.v.Store(t)
}

func (a *atomicTime) Load() (time.Time, bool) {
	v := a.v.Load()
	if v == nil {
		return time.Time{}, false
	}
	return v.(time.Time), true
}
