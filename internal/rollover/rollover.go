// Package rollover resets the daily habit checklist when the calendar date
// changes, both on a cron schedule and on startup.
package rollover

import (
	"fmt"
	"log/slog"
	gosync "sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nhle/winterbreak/internal/datekey"
	"github.com/nhle/winterbreak/internal/store"
)

// Roller performs the actual reset.
type Roller interface {
	Rollover()
}

// Scheduler runs Roller once per date.
type Scheduler struct {
	mu     gosync.Mutex
	local  *store.Local
	roller Roller
	spec   string
	loc    *time.Location
	log    *slog.Logger
	now    func() time.Time
	onRoll func(date string)
	cron   *cron.Cron
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithLocation sets the zone the cron spec is evaluated in.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) { s.loc = loc }
}

// OnRollover registers fn to run after each reset with the new date key.
func OnRollover(fn func(date string)) Option {
	return func(s *Scheduler) { s.onRoll = fn }
}

// New validates spec (standard five-field cron syntax) and returns an
// unstarted scheduler.
func New(local *store.Local, roller Roller, spec string, log *slog.Logger, opts ...Option) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid rollover schedule %q: %w", spec, err)
	}
	if log == nil {
		log = slog.Default()
	}
	s := &Scheduler{
		local:  local,
		roller: roller,
		spec:   spec,
		loc:    time.Local,
		log:    log,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CatchUp resets habits if the last recorded rollover happened on an
// earlier date and reports whether it did. On first run the current date is
// recorded without a reset so that today's check-ins survive.
func (s *Scheduler) CatchUp() bool {
	s.mu.Lock()
	today := datekey.FromTime(s.now().In(s.loc))

	var last string
	if !s.local.Load(store.KeyRolloverDate, &last) {
		s.local.Save(store.KeyRolloverDate, today)
		s.mu.Unlock()
		s.log.Debug("rollover date initialized", "date_key", today)
		return false
	}
	if last >= today {
		s.mu.Unlock()
		return false
	}

	s.roller.Rollover()
	s.local.Save(store.KeyRolloverDate, today)
	s.mu.Unlock()

	s.log.Info("daily rollover", "from", last, "to", today)
	if s.onRoll != nil {
		s.onRoll(today)
	}
	return true
}

// Start catches up and then schedules CatchUp on the cron spec.
func (s *Scheduler) Start() error {
	s.CatchUp()

	c := cron.New(
		cron.WithLocation(s.loc),
		cron.WithLogger(cronLogger{s.log}),
		cron.WithChain(cron.Recover(cronLogger{s.log}), cron.SkipIfStillRunning(cronLogger{s.log})),
	)
	if _, err := c.AddFunc(s.spec, func() { s.CatchUp() }); err != nil {
		return fmt.Errorf("scheduling rollover: %w", err)
	}
	c.Start()

	s.mu.Lock()
	s.cron = c
	s.mu.Unlock()
	return nil
}

// Stop halts the cron loop and waits for a running reset to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
}

// Next returns when the next scheduled reset fires after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	sched, err := cron.ParseStandard(s.spec)
	if err != nil {
		return time.Time{}
	}
	return sched.Next(t.In(s.loc))
}

// cronLogger forwards cron's logr-style calls to slog.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append([]any{"err", err}, keysAndValues...)...)
}
