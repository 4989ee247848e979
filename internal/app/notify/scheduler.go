package notify

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sifan077/ushort/internal/app/model"
	"github.com/sifan077/ushort/internal/infra/metrics"
)

// DisplayDuration is how long a notification stays up after the latest Show.
const DisplayDuration = 4 * time.Second

// Listener is told about every change of the notification slot. n is nil when
// the slot was cleared.
type Listener func(n *model.Notification)

// Notifier is what workflows use to talk to the user.
type Notifier interface {
	Show(message string, kind model.NotificationKind)
	Dismiss()
}

// Scheduler owns the single notification slot and its auto-dismiss timer.
type Scheduler struct {
	mu        sync.Mutex
	clock     clock.Clock
	current   *model.Notification
	timer     *clock.Timer
	gen       uint64
	listeners []Listener
}

// NewScheduler returns a scheduler driven by clk (the wall clock when nil).
func NewScheduler(clk clock.Clock, listeners ...Listener) *Scheduler {
	if clk == nil {
		clk = clock.New()
	}
	return &Scheduler{clock: clk, listeners: listeners}
}

// Subscribe adds a listener.
func (s *Scheduler) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Show replaces whatever is displayed with message and restarts the
// dismiss window.
func (s *Scheduler) Show(message string, kind model.NotificationKind) {
	s.mu.Lock()
	s.stopTimerLocked()

	n := &model.Notification{Message: message, Kind: kind, CreatedAt: s.clock.Now()}
	s.current = n
	gen := s.gen
	s.timer = s.clock.AfterFunc(DisplayDuration, func() { s.expire(gen) })
	listeners := s.snapshotListenersLocked()
	s.mu.Unlock()

	metrics.NotificationsShown.WithLabelValues(string(kind)).Inc()
	notifyAll(listeners, n)
}

// Dismiss clears the slot immediately and cancels the pending timer.
func (s *Scheduler) Dismiss() {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return
	}
	s.stopTimerLocked()
	s.current = nil
	listeners := s.snapshotListenersLocked()
	s.mu.Unlock()

	notifyAll(listeners, nil)
}

// Current returns a copy of the live notification, if any.
func (s *Scheduler) Current() (model.Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return model.Notification{}, false
	}
	return *s.current, true
}

// Close cancels the pending timer without notifying listeners.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
	s.current = nil
}

func (s *Scheduler) expire(gen uint64) {
	s.mu.Lock()
	// A superseded timer may still fire if Stop lost the race.
	if gen != s.gen || s.current == nil {
		s.mu.Unlock()
		return
	}
	s.current = nil
	s.timer = nil
	s.gen++
	listeners := s.snapshotListenersLocked()
	s.mu.Unlock()

	notifyAll(listeners, nil)
}

func (s *Scheduler) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}

func (s *Scheduler) snapshotListenersLocked() []Listener {
	out := make([]Listener, len(s.listeners))
	copy(out, s.listeners)
	return out
}

func notifyAll(listeners []Listener, n *model.Notification) {
	for _, l := range listeners {
		if n == nil {
			l(nil)
			continue
		}
		c := *n
		l(&c)
	}
}
