package habit_test

import (
	"context"
	"testing"
	"time"

	"github.com/nhle/winterbreak/internal/habit"
	"github.com/nhle/winterbreak/internal/model"
	"github.com/nhle/winterbreak/internal/remote"
	"github.com/nhle/winterbreak/internal/remote/remotetest"
	"github.com/nhle/winterbreak/internal/store"
	wsync "github.com/nhle/winterbreak/internal/sync"
	"github.com/nhle/winterbreak/tests/testutil"
)

var today = time.Date(2026, 2, 10, 9, 0, 0, 0, time.Local)

func newTracker(t *testing.T, cfg model.RemoteConfig) (*habit.Tracker, *store.Local, *wsync.Syncer) {
	t.Helper()
	local := testutil.NewTestLocal(t)
	log := testutil.DiscardLogger()
	s := wsync.NewSyncer(remote.NewClient(cfg), local, wsync.NewQueue(local, log), nil, log)
	tr := habit.NewTracker(local, s, nil, log, habit.WithClock(func() time.Time { return today }))
	tr.Load()
	return tr, local, s
}

func TestToggleTwiceRestoresState(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := newTracker(t, model.RemoteConfig{})

	before := tr.Habits()["piano"].Completed
	beforePct := tr.Progress().Habits

	on, err := tr.Toggle(ctx, "piano")
	if err != nil {
		t.Fatal(err)
	}
	if on.Completed == before || on.Progress == beforePct {
		t.Fatalf("first toggle = %+v", on)
	}
	if on.Progress != 14 {
		t.Fatalf("progress = %d, want 14 (1 of 7)", on.Progress)
	}

	off, err := tr.Toggle(ctx, "piano")
	if err != nil {
		t.Fatal(err)
	}
	if off.Completed != before || off.Progress != beforePct {
		t.Fatalf("second toggle = %+v, want completed=%v progress=%d", off, before, beforePct)
	}
	if dates := tr.Habits()["piano"].CompletedDates; len(dates) != 0 {
		t.Fatalf("history = %v, want empty", dates)
	}
}

func TestToggleUnknownHabit(t *testing.T) {
	tr, _, _ := newTracker(t, model.RemoteConfig{})
	if _, err := tr.Toggle(context.Background(), "juggling"); err == nil {
		t.Fatal("expected error")
	}
}

func TestLoadAcceptsBooleanRecords(t *testing.T) {
	local := testutil.NewTestLocal(t)
	local.Save(store.KeyHabits, map[string]any{
		"wake":  true,
		"piano": map[string]any{"completed": true, "completedDates": []string{"2026-02-09", "2026-02-10"}},
	})
	log := testutil.DiscardLogger()
	s := wsync.NewSyncer(remote.NewClient(model.RemoteConfig{}), local, wsync.NewQueue(local, log), nil, log)
	tr := habit.NewTracker(local, s, nil, log, habit.WithClock(func() time.Time { return today }))
	tr.Load()

	h := tr.Habits()
	if !h["wake"].Completed || !h["piano"].Completed || h["sleep"] == nil {
		t.Fatalf("habits = %+v", h)
	}
	if got := tr.Streak("piano"); got != 2 {
		t.Fatalf("streak = %d, want 2", got)
	}
}

func TestToggleMirrorsRemotely(t *testing.T) {
	ctx := context.Background()
	srv := remotetest.New(t)
	tr, _, s := newTracker(t, srv.Config())

	res, err := tr.Toggle(ctx, "wake")
	if err != nil || res.Status != wsync.Confirmed {
		t.Fatalf("toggle = %+v, %v", res, err)
	}
	checks := srv.Rows("habit_checks")
	if len(checks) != 1 || checks[0]["habit_type"] != "wake" || checks[0]["is_completed"] != true {
		t.Fatalf("habit_checks = %+v", checks)
	}
	progress := srv.Rows("daily_progress")
	if len(progress) != 1 || progress[0]["habits_progress"] != float64(14) {
		t.Fatalf("daily_progress = %+v", progress)
	}

	srv.SetDown(true)
	res, _ = tr.Toggle(ctx, "wake")
	if res.Status != wsync.Queued || s.Queue().Len() != 2 {
		t.Fatalf("offline toggle = %+v, queue %d", res, s.Queue().Len())
	}

	srv.SetDown(false)
	s.Flush(ctx)
	checks = srv.Rows("habit_checks")
	if checks[0]["is_completed"] != false {
		t.Fatalf("replayed check = %+v", checks[0])
	}
}

func TestRolloverKeepsHistory(t *testing.T) {
	ctx := context.Background()
	tr, local, _ := newTracker(t, model.RemoteConfig{})
	tr.Toggle(ctx, "math")
	tr.SetProgress(ctx, model.ProgressMath, 80)

	tr.Rollover()

	h := tr.Habits()["math"]
	if h.Completed || !h.CompletedOn("2026-02-10") {
		t.Fatalf("after rollover = %+v", h)
	}
	if tr.Progress() != (model.DailyProgress{}) {
		t.Fatalf("progress = %+v", tr.Progress())
	}

	var saved model.Habits
	if !local.Load(store.KeyHabits, &saved) || saved["math"].Completed {
		t.Fatalf("persisted = %+v", saved)
	}
}

func TestSetProgressRejectsHabitsField(t *testing.T) {
	tr, _, _ := newTracker(t, model.RemoteConfig{})
	if _, err := tr.SetProgress(context.Background(), model.ProgressHabits, 10); err == nil {
		t.Fatal("expected error")
	}
	if _, err := tr.SetProgress(context.Background(), "chess", 10); err == nil {
		t.Fatal("expected error")
	}
	st, err := tr.SetProgress(context.Background(), model.ProgressEnglish, 150)
	if err != nil || st != wsync.LocalOnly || tr.Progress().English != 100 {
		t.Fatalf("SetProgress = %v, %v, %+v", st, err, tr.Progress())
	}
}

func TestApplyRemote(t *testing.T) {
	tr, _, _ := newTracker(t, model.RemoteConfig{})
	tr.ApplyRemote([]habit.HabitCheck{{HabitType: "wake", Completed: true}, {HabitType: "bogus", Completed: true}},
		&model.DailyProgress{Math: 50})

	if !tr.Habits()["wake"].Completed {
		t.Fatal("remote check not applied")
	}
	p := tr.Progress()
	if p.Math != 50 || p.Habits != 14 {
		t.Fatalf("progress = %+v", p)
	}
}
