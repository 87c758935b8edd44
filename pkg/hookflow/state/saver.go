package state

import (
	"sync"
	"time"

	"github.com/randalmurphal/hookflow/pkg/hookflow/event"
	"github.com/randalmurphal/hookflow/pkg/hookflow/sched"
)

// DefaultSaveTimeout is the debounce delay used by SaveAfterTimeout when
// not overridden.
const DefaultSaveTimeout = 1000 * time.Millisecond

// Saver writes one named state through a Store, with optional debouncing.
//
// SaveAfterTimeout is useful to avoid saving too often: called
// consecutively, it saves only once, resetting the timer on each call so
// the write happens after the last call's timeout elapses.
type Saver struct {
	store   Store
	name    string
	timeout time.Duration
	sched   sched.Scheduler

	// onError is invoked when a deferred save fails. The timer callback
	// has no caller to return the error to.
	onError func(error)

	mu      sync.Mutex
	cancel  sched.CancelFunc
	pending *event.Properties
}

// SaverOption configures a Saver.
type SaverOption func(*Saver)

// WithSaveTimeout sets the debounce delay for SaveAfterTimeout.
func WithSaveTimeout(d time.Duration) SaverOption {
	return func(s *Saver) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithScheduler sets the scheduler used for deferred saves.
// Defaults to a timer-backed scheduler.
func WithScheduler(sc sched.Scheduler) SaverOption {
	return func(s *Saver) {
		s.sched = sc
	}
}

// WithErrorHandler sets the callback invoked when a deferred save fails.
func WithErrorHandler(fn func(error)) SaverOption {
	return func(s *Saver) {
		s.onError = fn
	}
}

// NewSaver creates a saver for the given state name.
func NewSaver(store Store, name string, opts ...SaverOption) *Saver {
	s := &Saver{
		store:   store,
		name:    name,
		timeout: DefaultSaveTimeout,
		sched:   sched.NewTimer(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the state name this saver writes.
func (s *Saver) Name() string {
	return s.name
}

// Save writes the properties immediately, cancelling any pending deferred
// save.
func (s *Saver) Save(props *event.Properties) error {
	s.mu.Lock()
	s.dropPendingLocked()
	s.mu.Unlock()

	return s.store.Save(s.name, props)
}

// SaveAfterTimeout schedules a save of the properties after the debounce
// timeout. Each call cancels the previous timer and starts a new one, so
// consecutive calls result in a single save after the last call.
// The properties are referenced, not copied, until the save happens.
func (s *Saver) SaveAfterTimeout(props *event.Properties) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dropPendingLocked()
	s.pending = props
	s.cancel = s.sched.ScheduleResume(s.timeout, s.flushDeferred)
}

// flushDeferred is the timer callback for SaveAfterTimeout.
func (s *Saver) flushDeferred() {
	s.mu.Lock()
	props := s.pending
	s.pending = nil
	s.cancel = nil
	s.mu.Unlock()

	if props == nil {
		return
	}
	if err := s.store.Save(s.name, props); err != nil && s.onError != nil {
		s.onError(err)
	}
}

// Flush writes any pending deferred save immediately.
func (s *Saver) Flush() error {
	s.mu.Lock()
	props := s.pending
	s.dropPendingLocked()
	s.mu.Unlock()

	if props == nil {
		return nil
	}
	return s.store.Save(s.name, props)
}

// dropPendingLocked cancels the pending timer and clears held properties.
// Caller must hold s.mu.
func (s *Saver) dropPendingLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.pending = nil
}
