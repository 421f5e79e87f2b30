package dom

import (
	"context"
	"sort"
	"time"
)

// Clock supplies time to a Scheduler.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type systemClock struct{}

// SystemClock returns a Clock backed by the wall clock.
func SystemClock() Clock { return systemClock{} }

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ManualClock is a Clock that only moves when slept on or advanced.
type ManualClock struct {
	now time.Time
}

// NewManualClock creates a ManualClock starting at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the clock's current time.
func (c *ManualClock) Now() time.Time { return c.now }

// Sleep advances the clock by d without blocking.
func (c *ManualClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.Advance(d)
	return nil
}

// Advance moves the clock forward.
func (c *ManualClock) Advance(d time.Duration) {
	if d > 0 {
		c.now = c.now.Add(d)
	}
}

// TimerID identifies a scheduled callback.
type TimerID uint64

type timer struct {
	id  TimerID
	due time.Time
	fn  func()
}

// Scheduler is a single-threaded timer queue. Callbacks never run on
// another goroutine: they run inside Sleep, RunDue or Drain.
type Scheduler struct {
	clock  Clock
	timers []*timer
	nextID TimerID
}

// NewScheduler creates a scheduler on clock c.
func NewScheduler(c Clock) *Scheduler {
	return &Scheduler{clock: c}
}

// Clock returns the scheduler's clock.
func (s *Scheduler) Clock() Clock { return s.clock }

// SetTimeout schedules fn to run once d has elapsed.
func (s *Scheduler) SetTimeout(d time.Duration, fn func()) TimerID {
	s.nextID++
	s.timers = append(s.timers, &timer{id: s.nextID, due: s.clock.Now().Add(d), fn: fn})
	sort.SliceStable(s.timers, func(i, j int) bool {
		return s.timers[i].due.Before(s.timers[j].due)
	})
	return s.nextID
}

// ClearTimeout cancels a pending callback. It reports whether one was removed.
func (s *Scheduler) ClearTimeout(id TimerID) bool {
	for i, t := range s.timers {
		if t.id == id {
			s.timers = append(s.timers[:i], s.timers[i+1:]...)
			return true
		}
	}
	return false
}

// Pending returns the number of scheduled callbacks.
func (s *Scheduler) Pending() int { return len(s.timers) }

// RunDue runs every callback whose time has come, including ones scheduled
// by callbacks with zero delay. It returns how many ran.
func (s *Scheduler) RunDue() int {
	ran := 0
	for len(s.timers) > 0 {
		next := s.timers[0]
		if next.due.After(s.clock.Now()) {
			break
		}
		s.timers = s.timers[1:]
		next.fn()
		ran++
	}
	return ran
}

// Sleep suspends for d and then runs due callbacks.
func (s *Scheduler) Sleep(ctx context.Context, d time.Duration) error {
	err := s.clock.Sleep(ctx, d)
	s.RunDue()
	return err
}

// Drain sleeps until every pending callback has run.
func (s *Scheduler) Drain(ctx context.Context) error {
	for len(s.timers) > 0 {
		wait := s.timers[0].due.Sub(s.clock.Now())
		if wait > 0 {
			if err := s.clock.Sleep(ctx, wait); err != nil {
				return err
			}
		}
		s.RunDue()
	}
	return nil
}
