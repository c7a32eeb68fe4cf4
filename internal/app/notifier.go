package app

import (
	"sync"
	"time"
)

// NotificationDuration is how long a message stays visible.
const NotificationDuration = 3 * time.Second

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Notification is the state of the single message slot.
type Notification struct {
	Seq      uint64
	Message  string
	Severity Severity
	Visible  bool
}

// Timer is the part of *time.Timer the notifier needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Notifier holds one transient message. Showing a message replaces the current one
// and restarts the hide timer.
type Notifier struct {
	mu          sync.Mutex
	afterFunc   AfterFunc
	current     Notification
	timer       Timer
	closed      bool
	subscribers map[chan Notification]struct{}
}

func NewNotifier() *Notifier {
	return NewNotifierWithTimer(realAfterFunc)
}

// NewNotifierWithTimer is test-only for deterministic hiding.
func NewNotifierWithTimer(afterFunc AfterFunc) *Notifier {
	return &Notifier{
		afterFunc:   afterFunc,
		subscribers: make(map[chan Notification]struct{}),
	}
}

// Show displays message and schedules it to hide.
func (n *Notifier) Show(message string, severity Severity) Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return n.current
	}
	if n.timer != nil {
		n.timer.Stop()
	}
	n.current = Notification{
		Seq:      n.current.Seq + 1,
		Message:  message,
		Severity: severity,
		Visible:  true,
	}
	seq := n.current.Seq
	n.timer = n.afterFunc(NotificationDuration, func() { n.hide(seq) })
	n.broadcastLocked()
	return n.current
}

// hide clears the slot unless a newer message replaced seq.
func (n *Notifier) hide(seq uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed || n.current.Seq != seq || !n.current.Visible {
		return
	}
	n.current.Visible = false
	n.timer = nil
	n.broadcastLocked()
}

// Current returns the slot state.
func (n *Notifier) Current() Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Subscribe returns a channel of slot changes, starting with the current state.
// The caller must invoke the returned cancel function to avoid leaks.
func (n *Notifier) Subscribe() (<-chan Notification, func()) {
	ch := make(chan Notification, 4)

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	n.subscribers[ch] = struct{}{}
	ch <- n.current
	n.mu.Unlock()

	cancel := func() {
		n.mu.Lock()
		if _, ok := n.subscribers[ch]; ok {
			delete(n.subscribers, ch)
			close(ch)
		}
		n.mu.Unlock()
	}
	return ch, cancel
}

// Close stops the pending timer and ends every subscription.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	for ch := range n.subscribers {
		delete(n.subscribers, ch)
		close(ch)
	}
}

func (n *Notifier) broadcastLocked() {
	for ch := range n.subscribers {
		select {
		case ch <- n.current:
		default:
			// slow subscriber: drop the oldest update so the newest state gets through
			select {
			case <-ch:
			default:
			}
			ch <- n.current
		}
	}
}
