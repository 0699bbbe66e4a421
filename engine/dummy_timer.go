package engine

import (
	"fmt"
	"sync"
	"time"

	pq "github.com/named-data/repo-go/types/priority_queue"
)

type dummyEvent struct {
	f func()
}

// DummyTimer is a deterministic timer for tests. Time only moves when
// MoveForward is called; due events fire in schedule order.
type DummyTimer struct {
	now    time.Time
	events pq.Queue[*dummyEvent, int64]
	// Lock is not a very important thing because:
	//   1. The engine itself is single-threaded
	//   2. This timer is for test only, and there is a low chance for race.
	lock sync.Mutex
}

func NewDummyTimer() *DummyTimer {
	return &DummyTimer{
		now:    time.Unix(0, 0).UTC(),
		events: pq.New[*dummyEvent, int64](),
	}
}

// Now returns the current virtual time.
func (tm *DummyTimer) Now() time.Time {
	tm.lock.Lock()
	defer tm.lock.Unlock()
	return tm.now
}

// MoveForward advances the virtual clock and fires every event that
// became due, in time order.
func (tm *DummyTimer) MoveForward(d time.Duration) {
	tm.lock.Lock()
	tm.now = tm.now.Add(d)
	deadline := tm.now.UnixNano()
	tm.lock.Unlock()

	for {
		tm.lock.Lock()
		if tm.events.Len() == 0 || tm.events.PeekPriority() >= deadline {
			tm.lock.Unlock()
			return
		}
		ev := tm.events.Pop()
		tm.lock.Unlock()

		if ev.f != nil {
			ev.f()
		}
	}
}

// Schedule queues f to run once the virtual clock passes now+d.
func (tm *DummyTimer) Schedule(d time.Duration, f func()) func() error {
	tm.lock.Lock()
	defer tm.lock.Unlock()

	ev := &dummyEvent{f: f}
	item := tm.events.Push(ev, tm.now.Add(d).UnixNano())

	return func() error {
		tm.lock.Lock()
		defer tm.lock.Unlock()
		if ev.f == nil {
			return fmt.Errorf("event has already been canceled")
		}
		ev.f = nil
		tm.events.Remove(item)
		return nil
	}
}

// Sleep blocks until the virtual clock passes now+d.
func (tm *DummyTimer) Sleep(d time.Duration) {
	ch := make(chan struct{})
	tm.Schedule(d, func() {
		close(ch)
	})
	<-ch
}

// Nonce returns a fixed 8-byte nonce.
func (*DummyTimer) Nonce() []byte {
	return []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
}
