package app

import (
	"context"
	"errors"
	"slices"

	"github.com/nhle/winterbreak/internal/habit"
	"github.com/nhle/winterbreak/internal/model"
	"github.com/nhle/winterbreak/internal/remote"
	wsync "github.com/nhle/winterbreak/internal/sync"
)

// Dashboard holds the remote-only records shown next to today's plan.
type Dashboard struct {
	Student      model.Student
	Weekly       []model.WeeklyAchievement
	Achievements []model.Achievement
	Rewards      []model.UnlockedReward
}

// LoadReport lists which remote resources could not be loaded and which
// were only available from the cache. Cached values never replace local
// state.
type LoadReport struct {
	Failed map[string]error
	Stale  []string
}

// OK reports whether every resource loaded.
func (r LoadReport) OK() bool { return len(r.Failed) == 0 }

func (r *LoadReport) fail(name string, err error) {
	if r.Failed == nil {
		r.Failed = map[string]error{}
	}
	r.Failed[name] = err
}

// Load refreshes today's state from the remote. Local state was already
// loaded by Open, so every step degrades on its own: a failed read falls
// back to its cache, and with no cache the local value is kept.
func (a *App) Load(ctx context.Context) LoadReport {
	var report LoadReport
	if !a.client.Enabled() {
		return report
	}
	today := a.Today()

	progress, src, err := wsync.SafeReadFrom(ctx, a.syncer, "progress:"+today, func(ctx context.Context) (model.DailyProgress, error) {
		return a.client.GetProgress(ctx, today)
	})
	var progressPtr *model.DailyProgress
	switch {
	case err != nil:
		report.fail("progress", err)
	case src == wsync.FromCache:
		report.Stale = append(report.Stale, "progress")
	default:
		progressPtr = &progress
	}

	rows, src, err := wsync.SafeReadFrom(ctx, a.syncer, "habit_checks:"+today, func(ctx context.Context) ([]remote.HabitCheckRow, error) {
		return a.client.GetHabitChecks(ctx, today)
	})
	switch {
	case err != nil:
		report.fail("habit_checks", err)
		rows = nil
	case src == wsync.FromCache:
		report.Stale = append(report.Stale, "habit_checks")
		rows = nil
	}
	checks := make([]habit.HabitCheck, 0, len(rows))
	for _, r := range rows {
		checks = append(checks, habit.HabitCheck{HabitType: r.HabitType, Completed: r.IsCompleted})
	}
	if len(checks) > 0 || progressPtr != nil {
		a.habits.ApplyRemote(checks, progressPtr)
	}

	interests, src, err := wsync.SafeReadFrom(ctx, a.syncer, "interests", a.client.GetOrCreateInterests)
	switch {
	case err != nil:
		report.fail("interests", err)
	case src == wsync.FromCache:
		report.Stale = append(report.Stale, "interests")
	default:
		a.mergeInterests(interests)
	}

	events, src, err := wsync.SafeReadFrom(ctx, a.syncer, "schedule:"+today, func(ctx context.Context) ([]model.ScheduleEvent, error) {
		return a.client.GetSchedule(ctx, today)
	})
	switch {
	case err != nil:
		report.fail("schedule", err)
	case src == wsync.FromCache:
		report.Stale = append(report.Stale, "schedule")
	default:
		a.schedule.SetByDate(today, a.mergeSchedule(today, events))
	}

	a.loadDashboard(ctx, &report)

	if !report.OK() || len(report.Stale) > 0 {
		a.log.Warn("partial load", "failed", len(report.Failed), "stale", report.Stale)
	}
	return report
}

// mergeSchedule combines remote rows for date with local state: local-only
// fields of a synced event survive, events not yet pushed are kept, and
// rows whose delete is still pending stay hidden.
func (a *App) mergeSchedule(date string, remoteEvents []model.ScheduleEvent) []model.ScheduleEvent {
	local := a.schedule.GetByDate(date)
	pending := a.PendingDeletes()

	byRemote := make(map[string]model.ScheduleEvent, len(local))
	for _, e := range local {
		if e.Synced() {
			byRemote[e.RemoteID] = e
		}
	}

	merged := make([]model.ScheduleEvent, 0, len(remoteEvents)+len(local))
	for _, r := range remoteEvents {
		if slices.Contains(pending, r.RemoteID) {
			continue
		}
		r.Date = date
		if l, ok := byRemote[r.RemoteID]; ok {
			r.LocalID = l.LocalID
			r.Subtitle = l.Subtitle
			r.Kind = l.Kind
			r.Subtasks = slices.Clone(l.Subtasks)
		}
		merged = append(merged, r)
	}
	for _, e := range local {
		if !e.Synced() {
			merged = append(merged, e)
		}
	}
	return merged
}

func (a *App) loadDashboard(ctx context.Context, report *LoadReport) {
	var d Dashboard

	student, err := wsync.SafeRead(ctx, a.syncer, "student", a.ensureStudent)
	if err != nil {
		report.fail("student", err)
	}
	d.Student = student

	if d.Weekly, err = wsync.SafeRead(ctx, a.syncer, "weekly_achievements", a.client.GetWeeklyAchievements); err != nil {
		report.fail("weekly_achievements", err)
	}
	if d.Achievements, err = wsync.SafeRead(ctx, a.syncer, "achievements", a.client.GetAchievements); err != nil {
		report.fail("achievements", err)
	}
	if d.Rewards, err = wsync.SafeRead(ctx, a.syncer, "unlocked_rewards", a.client.GetUnlockedRewards); err != nil {
		report.fail("unlocked_rewards", err)
	}

	a.mu.Lock()
	a.dashboard = d
	a.mu.Unlock()
}

// ensureStudent returns the profile row, creating it from the configured
// profile on first use.
func (a *App) ensureStudent(ctx context.Context) (model.Student, error) {
	s, err := a.client.GetStudent(ctx)
	if errors.Is(err, remote.ErrNotFound) {
		return a.client.UpsertStudent(ctx, a.cfg.Profile.Name, a.cfg.Profile.Avatar)
	}
	return s, err
}

// Dashboard returns the records fetched by the last Load.
func (a *App) Dashboard() Dashboard {
	a.mu.Lock()
	defer a.mu.Unlock()

	d := a.dashboard
	d.Weekly = slices.Clone(d.Weekly)
	d.Achievements = slices.Clone(d.Achievements)
	d.Rewards = slices.Clone(d.Rewards)
	if d.Student.Name == "" {
		d.Student.Name = a.cfg.Profile.Name
		d.Student.Avatar = a.cfg.Profile.Avatar
	}
	return d
}

// UnlockReward records a reward remotely and adds it to the dashboard.
func (a *App) UnlockReward(ctx context.Context, name, icon, condition string) (model.UnlockedReward, error) {
	r, err := a.client.UnlockReward(ctx, name, icon, condition)
	if err != nil {
		return model.UnlockedReward{}, err
	}
	a.mu.Lock()
	a.dashboard.Rewards = append([]model.UnlockedReward{r}, a.dashboard.Rewards...)
	a.mu.Unlock()
	return r, nil
}

// Stats are lifetime counts kept on the remote.
type Stats struct {
	MathDays    int
	EnglishDays int
	HabitChecks map[string]int
}

// Stats counts completed days and habit check-ins remotely.
func (a *App) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	var err error
	if s.MathDays, err = a.client.CountCompletedDays(ctx, model.ProgressMath); err != nil {
		return s, err
	}
	if s.EnglishDays, err = a.client.CountCompletedDays(ctx, model.ProgressEnglish); err != nil {
		return s, err
	}
	s.HabitChecks = map[string]int{}
	for _, k := range a.habits.Keys() {
		n, err := a.client.CountHabitChecks(ctx, k)
		if err != nil {
			return s, err
		}
		s.HabitChecks[k] = n
	}
	return s, nil
}
