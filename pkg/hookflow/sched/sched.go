// Package sched provides the cooperative scheduling primitive used by
// hookflow for non-blocking waits.
//
// The dispatch engine never sleeps or polls on its own; anything that needs
// to resume later (a debounced state save, an async hook step waiting out
// a settle period) asks a Scheduler to call it back. The default
// implementation is timer-backed; tests use Manual to advance virtual time
// deterministically.
package sched

import (
	"context"
	"sort"
	"sync"
	"time"
)

// CancelFunc cancels a scheduled resumption.
// Returns true if the callback had not fired yet and was cancelled.
type CancelFunc func() bool

// Scheduler schedules a callback to run after a delay.
// Implementations must be safe for concurrent use.
type Scheduler interface {
	// ScheduleResume arranges for fn to be called once, after the given
	// delay. The returned CancelFunc stops the callback if it has not
	// fired yet.
	ScheduleResume(after time.Duration, fn func()) CancelFunc
}

// Timer is a Scheduler backed by the runtime timer wheel.
// Callbacks run on their own goroutine, as with time.AfterFunc.
type Timer struct{}

// NewTimer creates a timer-backed scheduler.
func NewTimer() *Timer {
	return &Timer{}
}

// ScheduleResume implements Scheduler.
func (*Timer) ScheduleResume(after time.Duration, fn func()) CancelFunc {
	t := time.AfterFunc(after, fn)
	return t.Stop
}

// Sleep waits for the given duration using the scheduler, returning early
// with the context's error if ctx is cancelled first. Unlike time.Sleep it
// does not occupy a timer when cancelled.
func Sleep(ctx context.Context, s Scheduler, d time.Duration) error {
	done := make(chan struct{})
	cancel := s.ScheduleResume(d, func() { close(done) })

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		cancel()
		return ctx.Err()
	}
}

// Manual is a Scheduler driven by explicit Advance calls, for
// deterministic tests. Time does not pass on its own; callbacks fire, in
// deadline order, only when Advance moves the virtual clock past them.
type Manual struct {
	mu      sync.Mutex
	now     time.Duration
	nextID  int
	pending []*manualEntry
}

type manualEntry struct {
	id       int
	deadline time.Duration
	fn       func()
}

// NewManual creates a manually driven scheduler.
func NewManual() *Manual {
	return &Manual{}
}

// ScheduleResume implements Scheduler.
func (m *Manual) ScheduleResume(after time.Duration, fn func()) CancelFunc {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	e := &manualEntry{
		id:       m.nextID,
		deadline: m.now + after,
		fn:       fn,
	}
	m.pending = append(m.pending, e)

	return func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, p := range m.pending {
			if p.id == e.id {
				m.pending = append(m.pending[:i], m.pending[i+1:]...)
				return true
			}
		}
		return false
	}
}

// Advance moves the virtual clock forward and fires every callback whose
// deadline has been reached, in deadline order (scheduling order for equal
// deadlines). Callbacks run on the caller's goroutine, without the lock
// held, so they may schedule further resumptions.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now += d
	m.mu.Unlock()

	for {
		e := m.popDue()
		if e == nil {
			return
		}
		e.fn()
	}
}

// popDue removes and returns the earliest due entry, or nil.
func (m *Manual) popDue() *manualEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	sort.SliceStable(m.pending, func(i, j int) bool {
		if m.pending[i].deadline != m.pending[j].deadline {
			return m.pending[i].deadline < m.pending[j].deadline
		}
		return m.pending[i].id < m.pending[j].id
	})

	if len(m.pending) == 0 || m.pending[0].deadline > m.now {
		return nil
	}
	e := m.pending[0]
	m.pending = m.pending[1:]
	return e
}

// Pending returns the number of callbacks not yet fired.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}
