// Package notify provides the transient notification slots shown above the
// phonebook and the timers that clear them.
package notify

import (
	"sync"
	"time"
)

// DefaultDuration is how long a notification stays visible.
const DefaultDuration = 3000 * time.Millisecond

// Kind selects one of the two independent notification slots.
type Kind int

const (
	Success Kind = iota
	Error
)

// Kinds lists every slot, in render order.
var Kinds = []Kind{Error, Success}

// String returns the slot name.
func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Notification is the content of one slot. Seq identifies which Notified
// event produced it so a superseded clear can be recognised.
type Notification struct {
	Message string `json:"message,omitempty"`
	Seq     uint64 `json:"seq,omitempty"`
}

// Active reports whether the slot currently shows a message.
func (n Notification) Active() bool { return n.Message != "" }

// Timers keeps at most one pending auto-clear per Kind. Scheduling a new
// clear for a kind stops the previous one.
type Timers struct {
	mu       sync.Mutex
	duration time.Duration
	handles  map[Kind]*time.Timer
	seqs     map[Kind]uint64
	closed   bool
	onExpire func(kind Kind, seq uint64)
}

// NewTimers creates a timer set. onExpire runs on the timer goroutine.
func NewTimers(duration time.Duration, onExpire func(kind Kind, seq uint64)) *Timers {
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &Timers{
		duration: duration,
		handles:  make(map[Kind]*time.Timer),
		seqs:     make(map[Kind]uint64),
		onExpire: onExpire,
	}
}

// Duration returns the auto-clear delay.
func (t *Timers) Duration() time.Duration { return t.duration }

// Schedule arms the clear for kind, cancelling any earlier one.
func (t *Timers) Schedule(kind Kind, seq uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	if prev := t.handles[kind]; prev != nil {
		prev.Stop()
	}
	t.seqs[kind] = seq
	t.handles[kind] = time.AfterFunc(t.duration, func() {
		t.fire(kind, seq)
	})
}

func (t *Timers) fire(kind Kind, seq uint64) {
	t.mu.Lock()
	// A timer that lost the race with Stop must not clear a newer message.
	if t.closed || t.seqs[kind] != seq {
		t.mu.Unlock()
		return
	}
	delete(t.handles, kind)
	delete(t.seqs, kind)
	onExpire := t.onExpire
	t.mu.Unlock()

	if onExpire != nil {
		onExpire(kind, seq)
	}
}

// Cancel stops the pending clear for kind, if any.
func (t *Timers) Cancel(kind Kind) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if h := t.handles[kind]; h != nil {
		h.Stop()
	}
	delete(t.handles, kind)
	delete(t.seqs, kind)
}

// Pending reports whether a clear is armed for kind.
func (t *Timers) Pending(kind Kind) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.handles[kind]
	return ok
}

// Close cancels every pending clear. Later Schedule calls are ignored.
func (t *Timers) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for kind, h := range t.handles {
		h.Stop()
		delete(t.handles, kind)
		delete(t.seqs, kind)
	}
	t.closed = true
}
