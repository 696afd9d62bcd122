package perspective

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultSnooze is how long a mute lasts before it reverts on its own.
const DefaultSnooze = 3 * time.Minute

// Snooze is the mute toggle. Muting arms a timer that unmutes after the
// snooze duration; any toggle cancels a pending timer.
type Snooze struct {
	mu       sync.Mutex
	clock    clock.Clock
	duration time.Duration
	muted    bool
	timer    *clock.Timer
	gen      uint64

	// onChange runs outside the lock after every change. expired is true
	// when the timer, not a toggle, caused it.
	onChange func(muted, expired bool)
}

func NewSnooze(clk clock.Clock, duration time.Duration, onChange func(muted, expired bool)) *Snooze {
	if duration <= 0 {
		duration = DefaultSnooze
	}
	return &Snooze{clock: clk, duration: duration, onChange: onChange}
}

// Toggle flips the mute state and returns the new one.
func (s *Snooze) Toggle() bool {
	s.mu.Lock()
	s.muted = !s.muted
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.muted {
		gen := s.gen
		s.timer = s.clock.AfterFunc(s.duration, func() { s.expire(gen) })
	}
	muted := s.muted
	s.mu.Unlock()

	s.notify(muted, false)
	return muted
}

func (s *Snooze) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

// Stop cancels a pending auto-unmute without changing the state.
func (s *Snooze) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Snooze) expire(gen uint64) {
	s.mu.Lock()
	// A toggle after the timer was armed owns the state now.
	if gen != s.gen || !s.muted {
		s.mu.Unlock()
		return
	}
	s.muted = false
	s.timer = nil
	s.gen++
	s.mu.Unlock()

	s.notify(false, true)
}

func (s *Snooze) notify(muted, expired bool) {
	if s.onChange != nil {
		s.onChange(muted, expired)
	}
}
