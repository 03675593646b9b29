package common

import (
	"sync"
	"time"
)

// TimerPool recycles timers used for bounded waits. Since Go 1.23 a stopped
// or reset timer never delivers a stale tick, so no draining is needed.
type TimerPool struct {
	p sync.Pool
}

func (tp *TimerPool) Borrow(d time.Duration) *time.Timer {
	if x := tp.p.Get(); x != nil {
		t := x.(*time.Timer)
		t.Reset(d)
		return t
	}
	return time.NewTimer(d)
}

func (tp *TimerPool) Return(t *time.Timer) {
	t.Stop()
	tp.p.Put(t)
}

var _TimerPool TimerPool

func BorrowTimer(d time.Duration) *time.Timer { return _TimerPool.Borrow(d) }

func ReturnTimer(t *time.Timer) { _TimerPool.Return(t) }
