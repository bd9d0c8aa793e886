package app

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/nhle/winterbreak/internal/credential"
	"github.com/nhle/winterbreak/internal/model"
	"github.com/nhle/winterbreak/internal/remote/remotetest"
	wsync "github.com/nhle/winterbreak/internal/sync"
	"github.com/nhle/winterbreak/tests/testutil"
)

const testDay = "2026-01-06"

func testClock() time.Time {
	return time.Date(2026, time.January, 6, 10, 0, 0, 0, time.Local)
}

func testConfig(t *testing.T, rc model.RemoteConfig) *model.AppConfig {
	t.Helper()
	return &model.AppConfig{
		Remote:   rc,
		Storage:  model.StorageConfig{DBPath: ":memory:", PhotoDir: t.TempDir()},
		Habits:   model.HabitConfig{Keys: append([]string(nil), model.DefaultHabitKeys...)},
		Monitor:  model.MonitorConfig{ProbeIntervalSec: 30},
		Rollover: model.RolloverConfig{Cron: "0 0 * * *"},
		Profile:  model.ProfileConfig{Name: "Mia", Avatar: "🐧"},
	}
}

func openApp(t *testing.T, cfg *model.AppConfig) *App {
	t.Helper()
	a, err := Open(cfg, testutil.DiscardLogger(),
		WithClock(testClock),
		WithConfigPath(filepath.Join(t.TempDir(), "config.yaml")),
		WithKeyLookup(func(string) (string, error) { return "", credential.ErrNotFound }),
	)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func onlineApp(t *testing.T) (*App, *remotetest.Server) {
	t.Helper()
	srv := remotetest.New(t)
	return openApp(t, testConfig(t, srv.Config())), srv
}

func localApp(t *testing.T) *App {
	t.Helper()
	return openApp(t, testConfig(t, model.RemoteConfig{StudentID: model.DefaultStudentID}))
}

func skating() model.ScheduleEvent {
	return model.ScheduleEvent{Title: "Skating", StartHour: 10, EndHour: 11}
}

func TestAddEventPushesAndAdoptsRemoteID(t *testing.T) {
	a, srv := onlineApp(t)

	saved, err := a.AddEvent(context.Background(), testDay, skating())
	if err != nil {
		t.Fatalf("AddEvent: %v", err)
	}
	if !saved.Synced() {
		t.Fatal("expected event to carry a remote id")
	}
	if saved.Status != model.StatusPending || saved.Icon == "" || saved.Color == "" {
		t.Errorf("defaults not applied: %+v", saved)
	}

	rows := srv.Rows("schedule_items")
	if len(rows) != 1 || rows[0]["event_title"] != "Skating" || rows[0]["id"] != saved.RemoteID {
		t.Fatalf("remote rows = %v", rows)
	}
	if got := a.Schedule().GetByDate(testDay); len(got) != 1 || got[0].RemoteID != saved.RemoteID {
		t.Errorf("local = %+v", got)
	}
}

func TestAddEventRejectsInvalid(t *testing.T) {
	a := localApp(t)
	ctx := context.Background()

	if _, err := a.AddEvent(ctx, testDay, model.ScheduleEvent{StartHour: 9, EndHour: 10}); err == nil {
		t.Error("expected error for a missing title")
	}
	if _, err := a.AddEvent(ctx, "not-a-date", skating()); err == nil {
		t.Error("expected error for a bad date")
	}
	backwards := skating()
	backwards.EndHour = 8
	if _, err := a.AddEvent(ctx, testDay, backwards); err == nil {
		t.Error("expected error for an event ending before it starts")
	}
}

func TestOfflineEventPushedLater(t *testing.T) {
	a, srv := onlineApp(t)
	ctx := context.Background()

	srv.SetDown(true)
	saved, err := a.AddEvent(ctx, testDay, skating())
	if err != nil {
		t.Fatalf("AddEvent: %v", err)
	}
	if saved.Synced() {
		t.Fatal("event should stay local while the remote is down")
	}

	srv.SetDown(false)
	if n := a.PushUnsynced(ctx); n != 1 {
		t.Errorf("pushed = %d, want 1", n)
	}
	got := a.Schedule().GetByDate(testDay)
	if len(got) != 1 || !got[0].Synced() {
		t.Fatalf("local = %+v", got)
	}
	if len(srv.Rows("schedule_items")) != 1 {
		t.Errorf("remote rows = %d", len(srv.Rows("schedule_items")))
	}
}

func TestPushUnsyncedSkipsInsertInFlight(t *testing.T) {
	a, srv := onlineApp(t)
	ctx := context.Background()

	srv.SetDown(true)
	saved, err := a.AddEvent(ctx, testDay, skating())
	if err != nil {
		t.Fatalf("AddEvent: %v", err)
	}
	srv.SetDown(false)

	if !a.claim(saved.LocalID) {
		t.Fatal("claim should succeed for an idle event")
	}
	if n := a.PushUnsynced(ctx); n != 0 {
		t.Errorf("pushed = %d while insert in flight, want 0", n)
	}
	if rows := srv.Rows("schedule_items"); len(rows) != 0 {
		t.Errorf("remote rows = %d, want 0", len(rows))
	}
	if got := a.push(ctx, saved); got.Synced() {
		t.Error("second push of an in-flight event should not insert")
	}

	a.release(saved.LocalID)
	if n := a.PushUnsynced(ctx); n != 1 {
		t.Errorf("pushed = %d after release, want 1", n)
	}
	if rows := srv.Rows("schedule_items"); len(rows) != 1 {
		t.Errorf("remote rows = %d, want 1", len(rows))
	}
}

func TestDeleteEventRetriesRemoteDelete(t *testing.T) {
	a, srv := onlineApp(t)
	ctx := context.Background()

	saved, err := a.AddEvent(ctx, testDay, skating())
	if err != nil {
		t.Fatalf("AddEvent: %v", err)
	}

	srv.SetDown(true)
	if _, err := a.DeleteEvent(ctx, testDay, saved.Ref()); err != nil {
		t.Fatalf("DeleteEvent: %v", err)
	}
	if len(a.Schedule().GetByDate(testDay)) != 0 {
		t.Error("event should be gone locally")
	}
	if pending := a.PendingDeletes(); len(pending) != 1 || pending[0] != saved.RemoteID {
		t.Fatalf("pending = %v", pending)
	}

	srv.SetDown(false)
	a.PushUnsynced(ctx)
	if len(a.PendingDeletes()) != 0 {
		t.Errorf("pending after retry = %v", a.PendingDeletes())
	}
	if len(srv.Rows("schedule_items")) != 0 {
		t.Error("remote row should be deleted")
	}
}

func TestDeleteEventSearchesOtherDates(t *testing.T) {
	a := localApp(t)
	ctx := context.Background()

	saved, err := a.AddEvent(ctx, "2026-01-08", skating())
	if err != nil {
		t.Fatalf("AddEvent: %v", err)
	}
	if _, err := a.DeleteEvent(ctx, testDay, saved.Ref()); err != nil {
		t.Fatalf("DeleteEvent: %v", err)
	}
	if _, err := a.DeleteEvent(ctx, testDay, saved.Ref()); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}

func TestToggleStatus(t *testing.T) {
	a, srv := onlineApp(t)
	ctx := context.Background()

	saved, err := a.AddEvent(ctx, testDay, skating())
	if err != nil {
		t.Fatalf("AddEvent: %v", err)
	}

	ev, ws, err := a.ToggleStatus(ctx, testDay, saved.Ref())
	if err != nil {
		t.Fatalf("ToggleStatus: %v", err)
	}
	if ev.Status != model.StatusCompleted || ws != wsync.Confirmed {
		t.Errorf("status = %q ws = %v", ev.Status, ws)
	}
	if rows := srv.Rows("schedule_items"); rows[0]["status"] != model.StatusCompleted {
		t.Errorf("remote status = %v", rows[0]["status"])
	}

	ev, _, err = a.ToggleStatus(ctx, testDay, saved.Ref())
	if err != nil || ev.Status != model.StatusPending {
		t.Errorf("second toggle = %q, %v", ev.Status, err)
	}
}

func TestToggleStatusLocalOnly(t *testing.T) {
	a := localApp(t)
	ctx := context.Background()

	saved, _ := a.AddEvent(ctx, testDay, skating())
	ev, ws, err := a.ToggleStatus(ctx, testDay, saved.Ref())
	if err != nil {
		t.Fatalf("ToggleStatus: %v", err)
	}
	if ev.Status != model.StatusCompleted || ws != wsync.LocalOnly {
		t.Errorf("status = %q ws = %v", ev.Status, ws)
	}
	if a.Queue().Len() != 0 {
		t.Error("local-only toggles must not queue")
	}
}

func TestRescheduleMovesEvent(t *testing.T) {
	a := localApp(t)
	ctx := context.Background()

	saved, _ := a.AddEvent(ctx, testDay, skating())
	moved, err := a.Reschedule(ctx, testDay, saved.Ref(), "2026-01-07", 14, 0, 15, 30)
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	if moved.Date != "2026-01-07" || moved.StartHour != 14 || moved.EndMin != 30 {
		t.Errorf("moved = %+v", moved)
	}
	if len(a.Schedule().GetByDate(testDay)) != 0 {
		t.Error("old date should be empty")
	}
	if got := a.Schedule().GetByDate("2026-01-07"); len(got) != 1 || got[0].Title != "Skating" {
		t.Errorf("new date = %+v", got)
	}

	if _, err := a.Reschedule(ctx, "2026-01-07", moved.Ref(), "2026-01-07", 16, 0, 15, 0); err == nil {
		t.Error("expected error for an inverted time range")
	}
}

func TestSubtasks(t *testing.T) {
	a := localApp(t)
	saved, _ := a.AddEvent(context.Background(), testDay, skating())
	id := saved.Ref()

	if _, err := a.AddSubtask(testDay, id, "  "); err == nil {
		t.Error("expected error for blank subtask")
	}
	a.AddSubtask(testDay, id, "Find gloves")
	ev, err := a.AddSubtask(testDay, id, "Pack snacks")
	if err != nil || len(ev.Subtasks) != 2 {
		t.Fatalf("subtasks = %+v, %v", ev.Subtasks, err)
	}

	ev, err = a.ToggleSubtask(testDay, id, ev.Subtasks[0].ID)
	if err != nil || !ev.Subtasks[0].Done {
		t.Errorf("toggle = %+v, %v", ev.Subtasks, err)
	}
	ev, err = a.DeleteSubtask(testDay, id, ev.Subtasks[1].ID)
	if err != nil || len(ev.Subtasks) != 1 {
		t.Errorf("delete = %+v, %v", ev.Subtasks, err)
	}
	if _, err := a.DeleteSubtask(testDay, id, 99); err == nil {
		t.Error("expected error for unknown subtask")
	}
}

func TestLoadMergesRemoteSchedule(t *testing.T) {
	a, srv := onlineApp(t)
	ctx := context.Background()

	kept, _ := a.AddEvent(ctx, testDay, skating())
	a.AddSubtask(testDay, kept.Ref(), "Sharpen skates")

	gone, _ := a.AddEvent(ctx, testDay, model.ScheduleEvent{Title: "Dentist", StartHour: 15, EndHour: 16})
	srv.SetDown(true)
	a.DeleteEvent(ctx, testDay, gone.Ref())
	srv.SetDown(false)

	srv.Seed("schedule_items", remotetest.Row{
		"student_id":   model.DefaultStudentID,
		"date":         testDay,
		"event_title":  "Library",
		"event_icon":   "📚",
		"start_hour":   13,
		"start_minute": 0,
		"end_hour":     14,
		"end_minute":   0,
		"color":        "#5B9BD5",
		"status":       model.StatusPending,
	})

	a.Load(ctx)

	got := a.Schedule().GetByDate(testDay)
	titles := map[string]model.ScheduleEvent{}
	for _, e := range got {
		titles[e.Title] = e
	}
	if len(got) != 2 {
		t.Fatalf("events = %+v", got)
	}
	if _, ok := titles["Dentist"]; ok {
		t.Error("pending delete should stay hidden")
	}
	if e, ok := titles["Skating"]; !ok || len(e.Subtasks) != 1 {
		t.Errorf("local subtasks lost: %+v", e)
	}
	if _, ok := titles["Library"]; !ok {
		t.Error("remote event missing")
	}
}

func TestOfflineLoadKeepsLocalState(t *testing.T) {
	a, srv := onlineApp(t)
	ctx := context.Background()

	if r := a.Load(ctx); len(r.Stale) != 0 {
		t.Fatalf("online load = %+v", r)
	}

	ev, err := a.AddEvent(ctx, testDay, skating())
	if err != nil || !ev.Synced() {
		t.Fatalf("AddEvent = %+v, %v", ev, err)
	}
	if _, err := a.AddSubtask(testDay, ev.Ref(), "Sharpen skates"); err != nil {
		t.Fatalf("AddSubtask: %v", err)
	}
	if _, err := a.SetProgress(ctx, model.ProgressMath, 80); err != nil {
		t.Fatalf("SetProgress: %v", err)
	}
	if _, err := a.RecordChoice(ctx, "movie", "Frozen", "art"); err != nil {
		t.Fatalf("RecordChoice: %v", err)
	}

	srv.SetDown(true)
	r := a.Load(ctx)
	for _, name := range []string{"progress", "interests", "schedule"} {
		if !slices.Contains(r.Stale, name) {
			t.Errorf("stale = %v, missing %s", r.Stale, name)
		}
	}

	got := a.Schedule().GetByDate(testDay)
	if len(got) != 1 || got[0].RemoteID != ev.RemoteID || len(got[0].Subtasks) != 1 {
		t.Errorf("synced event lost after offline load: %+v", got)
	}
	if p := a.Habits().Progress(); p.Math != 80 {
		t.Errorf("math = %d, want 80", p.Math)
	}
	if got := a.Interests()["art"]; got != InterestStep {
		t.Errorf("art = %d, want %d", got, InterestStep)
	}
}

func TestRecordChoice(t *testing.T) {
	a := localApp(t)
	ctx := context.Background()

	res, err := a.RecordChoice(ctx, "movie", "Frozen", "art")
	if err != nil {
		t.Fatalf("RecordChoice: %v", err)
	}
	if res.Score != InterestStep || res.Choice.Date != testDay {
		t.Errorf("res = %+v", res)
	}
	for range 20 {
		a.RecordChoice(ctx, "movie", "Frozen", "art")
	}
	if got := a.Interests()["art"]; got != model.MaxInterestScore {
		t.Errorf("art = %d, want capped at %d", got, model.MaxInterestScore)
	}
	if c, ok := a.LastChoice(); !ok || c.Title != "Frozen" {
		t.Errorf("last choice = %+v", c)
	}
	if _, err := a.RecordChoice(ctx, "movie", "", "art"); err == nil {
		t.Error("expected error for missing title")
	}
}

func TestStatePersistsAcrossOpen(t *testing.T) {
	cfg := testConfig(t, model.RemoteConfig{StudentID: model.DefaultStudentID})
	cfg.Storage.DBPath = filepath.Join(t.TempDir(), "winterbreak.db")

	a, err := Open(cfg, testutil.DiscardLogger(), WithClock(testClock),
		WithKeyLookup(func(string) (string, error) { return "", credential.ErrNotFound }))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := a.AddEvent(context.Background(), testDay, skating()); err != nil {
		t.Fatalf("AddEvent: %v", err)
	}
	a.RecordChoice(context.Background(), "city", "Kyoto", "travel")
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	b := openApp(t, cfg)
	if got := b.Schedule().GetByDate(testDay); len(got) != 1 {
		t.Errorf("events after reopen = %+v", got)
	}
	if b.Interests()["travel"] != InterestStep {
		t.Errorf("interests after reopen = %v", b.Interests())
	}
}

func TestWriteReport(t *testing.T) {
	a := localApp(t)
	ctx := context.Background()

	saved, _ := a.AddEvent(ctx, testDay, skating())
	a.ToggleStatus(ctx, testDay, saved.Ref())

	d, err := a.Digest(ctx, "2026-1-6")
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if d.Date != testDay || len(d.Events) != 1 || len(d.Habits) != len(a.Habits().Keys()) {
		t.Errorf("digest = %+v", d)
	}
	if d.Student != "Mia" {
		t.Errorf("student = %q", d.Student)
	}

	var buf bytes.Buffer
	if err := a.WriteReport(ctx, &buf, testDay); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	if !strings.Contains(buf.String(), "Subject: Mia's day 2026-01-06: 1/1 done") {
		t.Errorf("message header missing subject:\n%.300s", buf.String())
	}

	if err := a.SendReport(ctx, testDay); err == nil {
		t.Error("expected error without a mailbox")
	}
	if _, err := a.Digest(ctx, "yesterday"); err == nil {
		t.Error("expected error for bad date")
	}
}

func TestStatusText(t *testing.T) {
	if got := statusText("Saved", wsync.Queued); got != "Saved (queued until online)" {
		t.Errorf("queued = %q", got)
	}
	if got := statusText("Saved", wsync.Confirmed); got != "Saved" {
		t.Errorf("confirmed = %q", got)
	}
}
