// Package schedule arms a recurring daily trigger that fires a dispatch run
// at a configured local time of day.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"time"
)

// defaultPollInterval is how often the scheduler checks whether the trigger
// is due. One minute gives sufficient resolution for HH:MM schedules without
// busy-polling.
const defaultPollInterval = 60 * time.Second

var specPattern = regexp.MustCompile(`^([0-9]{1,2}):([0-9]{2})$`)

// Spec is a daily time-of-day trigger, interpreted in local time.
type Spec struct {
	Hour   int
	Minute int
}

// ParseSpec parses a schedule time in HH:MM 24-hour form.
func ParseSpec(s string) (Spec, error) {
	m := specPattern.FindStringSubmatch(s)
	if m == nil {
		return Spec{}, fmt.Errorf("invalid schedule time %q, expected HH:MM", s)
	}

	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour > 23 {
		return Spec{}, fmt.Errorf("invalid schedule hour %d in %q", hour, s)
	}
	if minute > 59 {
		return Spec{}, fmt.Errorf("invalid schedule minute %d in %q", minute, s)
	}

	return Spec{Hour: hour, Minute: minute}, nil
}

// String returns the spec in HH:MM form.
func (sp Spec) String() string {
	return fmt.Sprintf("%02d:%02d", sp.Hour, sp.Minute)
}

// Scheduler fires a callback once per day at the configured time. Firings are
// strictly serialized: the callback runs to completion on the scheduler's own
// goroutine before the next tick is evaluated.
type Scheduler struct {
	spec Spec
	poll time.Duration
	now  func() time.Time
	run  func(context.Context)

	lastFired time.Time
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithPollInterval overrides the tick interval. Used by tests to drive the
// scheduler quickly.
func WithPollInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		s.poll = d
	}
}

// WithClock overrides the time source. Used by tests for deterministic
// trigger evaluation.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// New creates a Scheduler that invokes run on each firing of spec.
func New(spec Spec, run func(context.Context), opts ...Option) *Scheduler {
	s := &Scheduler{
		spec: spec,
		poll: defaultPollInterval,
		now:  time.Now,
		run:  run,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run blocks, firing the callback each day at the scheduled time, until the
// context is cancelled. Cancellation is only observed between runs; a firing
// in progress always completes.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped")
			return nil
		case <-ticker.C:
			now := s.now()
			if s.due(now) {
				s.lastFired = now.Truncate(time.Minute)
				slog.Info("scheduled dispatch firing", "at", s.spec.String())
				s.fire(ctx)
			}
		}
	}
}

// due reports whether the trigger matches now and has not already fired in
// this minute. Multiple ticks can land inside the scheduled minute; only the
// first one fires.
func (s *Scheduler) due(now time.Time) bool {
	if now.Hour() != s.spec.Hour || now.Minute() != s.spec.Minute {
		return false
	}
	return !now.Truncate(time.Minute).Equal(s.lastFired)
}

// fire invokes the callback, containing any panic so a failing run leaves the
// scheduler armed for the next day.
func (s *Scheduler) fire(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("scheduled dispatch panicked", "panic", r)
		}
	}()
	s.run(ctx)
}
