package phonebook

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"phonebook/internal/notify"
)

// options is shared by NewStore and NewReconciler.
type options struct {
	logger   *zap.Logger
	duration time.Duration
	state    *State
}

// Option configures a Store or a Reconciler.
type Option func(*options)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithNotificationDuration sets how long a notification stays visible.
func WithNotificationDuration(d time.Duration) Option {
	return func(o *options) { o.duration = d }
}

// WithState seeds the store.
func WithState(s State) Option {
	return func(o *options) { o.state = &s }
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop(), duration: notify.DefaultDuration}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Store owns the phonebook state. Every change goes through Dispatch; the
// last writer wins.
type Store struct {
	mu      sync.Mutex
	state   State
	timers  *notify.Timers
	subs    map[int]func(State)
	nextSub int
	logger  *zap.Logger
}

// NewStore creates a store. Call Close on teardown to cancel pending clears.
func NewStore(opts ...Option) *Store {
	o := buildOptions(opts)
	s := &Store{
		subs:   make(map[int]func(State)),
		logger: o.logger,
	}
	if o.state != nil {
		s.state = *o.state
	}
	s.timers = notify.NewTimers(o.duration, func(kind notify.Kind, seq uint64) {
		s.Dispatch(Expired{Kind: kind, Seq: seq})
	})
	return s
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// NotificationDuration returns the auto-clear delay.
func (s *Store) NotificationDuration() time.Duration {
	return s.timers.Duration()
}

// Dispatch applies e and returns the resulting state. A Notified event also
// arms the auto-clear for its slot, replacing the previous one.
func (s *Store) Dispatch(e Event) State {
	s.mu.Lock()
	next := Reduce(s.state, e)
	s.state = next
	if n, ok := e.(Notified); ok {
		s.timers.Schedule(n.Kind, next.Seq)
	}
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	if ce := s.logger.Check(zap.DebugLevel, "dispatch"); ce != nil {
		ce.Write(
			zap.String("event", fmt.Sprintf("%T", e)),
			zap.Int("contacts", len(next.Contacts)),
			zap.Uint64("seq", next.Seq),
		)
	}

	for _, fn := range subs {
		fn(next)
	}
	return next
}

// Subscribe registers fn to receive every new state. fn runs on the
// dispatching goroutine and must not block.
func (s *Store) Subscribe(fn func(State)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Close cancels every pending auto-clear. It is safe to call more than once.
func (s *Store) Close() {
	s.timers.Close()
}
