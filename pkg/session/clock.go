package session

import (
	"cmp"
	"slices"
	"sync"
	"time"
)

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	// Stop cancels the callback. It reports false if the callback already
	// ran or was stopped.
	Stop() bool
}

// Scheduler runs callbacks after a delay. Callbacks may run on another
// goroutine.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// TimerScheduler schedules callbacks with time.AfterFunc.
type TimerScheduler struct{}

// AfterFunc implements Scheduler.
func (TimerScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// ManualScheduler is a deterministic Clock and Scheduler. Time only moves
// when Advance is called, and due callbacks run synchronously inside
// Advance in due-time order.
type ManualScheduler struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*manualTimer
}

// NewManualScheduler returns a scheduler whose clock starts at start.
func NewManualScheduler(start time.Time) *ManualScheduler {
	return &ManualScheduler{now: start}
}

// Now implements Clock.
func (m *ManualScheduler) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// AfterFunc implements Scheduler.
func (m *ManualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{m: m, due: m.now.Add(d), seq: m.seq, f: f}
	m.seq++
	m.timers = append(m.timers, t)
	return t
}

// Advance moves the clock forward by d, running every callback that falls
// due on the way. Callbacks scheduled by other callbacks run too if they
// fall due before the new time.
func (m *ManualScheduler) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		t := m.nextDue(target)
		if t == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		if t.due.After(m.now) {
			m.now = t.due
		}
		m.remove(t)
		t.fired = true
		m.mu.Unlock()

		t.f()
	}
}

// Pending returns the number of scheduled callbacks that have not run.
func (m *ManualScheduler) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

func (m *ManualScheduler) nextDue(target time.Time) *manualTimer {
	if len(m.timers) == 0 {
		return nil
	}
	t := slices.MinFunc(m.timers, func(a, b *manualTimer) int {
		if c := a.due.Compare(b.due); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	})
	if t.due.After(target) {
		return nil
	}
	return t
}

func (m *ManualScheduler) remove(t *manualTimer) {
	m.timers = slices.DeleteFunc(m.timers, func(x *manualTimer) bool { return x == t })
}

type manualTimer struct {
	m     *ManualScheduler
	due   time.Time
	seq   int
	f     func()
	fired bool
	done  bool
}

func (t *manualTimer) Stop() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	if t.fired || t.done {
		return false
	}
	t.done = true
	t.m.remove(t)
	return true
}
