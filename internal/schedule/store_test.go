package schedule_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nhle/winterbreak/internal/model"
	"github.com/nhle/winterbreak/internal/schedule"
	"github.com/nhle/winterbreak/internal/store"
	"github.com/nhle/winterbreak/tests/testutil"
)

var fixedNow = time.Date(2026, 2, 10, 8, 30, 0, 0, time.Local)

func newStore(t *testing.T) (*schedule.Store, *store.Local) {
	t.Helper()
	local := testutil.NewTestLocal(t)
	s := schedule.New(local,
		schedule.WithClock(func() time.Time { return fixedNow }),
		schedule.WithLogger(testutil.DiscardLogger()),
	)
	s.Init(nil)
	return s, local
}

func mathEvent() model.ScheduleEvent {
	return model.ScheduleEvent{
		LocalID:   1,
		Title:     "Math",
		StartHour: 9,
		EndHour:   10,
		Status:    model.StatusPending,
	}
}

func strPtr(s string) *string { return &s }

func TestAddThenGetByLooseKey(t *testing.T) {
	s, _ := newStore(t)

	s.Init(map[string][]model.ScheduleEvent{})
	s.AddEvent("2026-02-10", mathEvent())

	got := s.GetByDate("2026-2-10")
	if len(got) != 1 || got[0].Title != "Math" {
		t.Fatalf("GetByDate(2026-2-10) = %+v, want one Math event", got)
	}
}

func TestEquivalentSpellingsResolveToSameList(t *testing.T) {
	s, _ := newStore(t)
	s.AddEvent("2026-2-10", mathEvent())

	spellings := []string{
		"2026-2-10",
		"2026-02-10",
		" 2026-02-10 ",
		time.Date(2026, 2, 10, 15, 4, 5, 0, time.Local).UTC().Format(time.RFC3339),
		time.Date(2026, 2, 10, 23, 0, 0, 0, time.Local).Format(time.RFC3339),
	}
	for _, k := range spellings {
		got := s.GetByDate(k)
		if len(got) != 1 || got[0].LocalID != 1 {
			t.Errorf("GetByDate(%q) = %+v", k, got)
		}
	}
	if got := s.GetToday(); len(got) != 1 {
		t.Errorf("GetToday() = %+v", got)
	}
}

func TestGetByDateNeverNil(t *testing.T) {
	s, _ := newStore(t)

	for _, k := range []string{"2030-01-01", "not-a-date", ""} {
		if got := s.GetByDate(k); got == nil || len(got) != 0 {
			t.Errorf("GetByDate(%q) = %#v, want empty non-nil", k, got)
		}
	}
}

func TestGetByDateReturnsCopy(t *testing.T) {
	s, _ := newStore(t)
	s.AddEvent("2026-02-10", mathEvent())

	got := s.GetByDate("2026-02-10")
	got[0].Title = "changed"

	if again := s.GetByDate("2026-02-10"); again[0].Title != "Math" {
		t.Fatalf("caller mutation leaked into store: %q", again[0].Title)
	}
}

func TestAddThenRemove(t *testing.T) {
	s, _ := newStore(t)

	added := s.AddEvent("2026-02-10", mathEvent())
	if added == nil {
		t.Fatal("AddEvent returned nil")
	}

	removed := s.RemoveEvent("2026-2-10", added.Ref())
	if removed == nil || removed.Title != "Math" || removed.LocalID != added.LocalID {
		t.Fatalf("RemoveEvent = %+v, want the added event", removed)
	}
	if got := s.GetByDate("2026-02-10"); len(got) != 0 {
		t.Fatalf("list not empty after remove: %+v", got)
	}
	if again := s.RemoveEvent("2026-02-10", added.Ref()); again != nil {
		t.Fatalf("second RemoveEvent = %+v, want nil", again)
	}
}

func TestAddAssignsLocalID(t *testing.T) {
	s, _ := newStore(t)

	a := s.AddEvent("2026-02-10", model.ScheduleEvent{Title: "a"})
	b := s.AddEvent("2026-02-10", model.ScheduleEvent{Title: "b"})
	if a.LocalID == 0 || b.LocalID == 0 || a.LocalID == b.LocalID {
		t.Fatalf("local ids = %d, %d; want distinct non-zero", a.LocalID, b.LocalID)
	}
	if a.Date != "2026-02-10" {
		t.Fatalf("Date = %q", a.Date)
	}
}

func TestAddEventInvalidKey(t *testing.T) {
	s, _ := newStore(t)

	if got := s.AddEvent("someday", mathEvent()); got != nil {
		t.Fatalf("AddEvent(invalid) = %+v, want nil", got)
	}
	if dates := s.Dates(); len(dates) != 0 {
		t.Fatalf("Dates = %v", dates)
	}
}

func TestUpdateMissLeavesOtherDates(t *testing.T) {
	s, _ := newStore(t)
	s.AddEvent("2026-02-10", mathEvent())
	other := mathEvent()
	other.LocalID = 2
	other.Title = "Piano"
	s.AddEvent("2026-02-11", other)

	before := s.Snapshot()

	if got := s.UpdateEvent("2026-02-10", "2", model.EventPatch{Title: strPtr("x")}); got != nil {
		t.Fatalf("UpdateEvent on wrong date = %+v, want nil", got)
	}
	if got := s.UpdateEvent("2026-02-12", "999", model.EventPatch{Title: strPtr("x")}); got != nil {
		t.Fatalf("UpdateEvent on missing id = %+v, want nil", got)
	}

	after := s.Snapshot()
	for k, list := range before {
		if len(after[k]) != len(list) || (len(list) > 0 && after[k][0].Title != list[0].Title) {
			t.Fatalf("date %s changed: %+v -> %+v", k, list, after[k])
		}
	}
}

func TestUpdateMatchesEitherID(t *testing.T) {
	s, _ := newStore(t)
	s.AddEvent("2026-02-10", mathEvent())

	remote := "3f6c1d2e-8a1b-4c3d-9e0f-112233445566"
	got := s.UpdateEvent("2026-02-10", "1", model.EventPatch{RemoteID: &remote})
	if got == nil || got.RemoteID != remote || got.LocalID != 1 {
		t.Fatalf("UpdateEvent(local id) = %+v", got)
	}

	got = s.UpdateEvent("2026-02-10", remote, model.EventPatch{Status: strPtr(model.StatusCompleted)})
	if got == nil || got.Status != model.StatusCompleted || got.Title != "Math" {
		t.Fatalf("UpdateEvent(remote id) = %+v", got)
	}
}

func TestFindEventAndMove(t *testing.T) {
	s, _ := newStore(t)
	s.AddEvent("2026-02-10", mathEvent())

	date, ev, ok := s.FindEvent("1")
	if !ok || date != "2026-02-10" || ev.Title != "Math" {
		t.Fatalf("FindEvent = %q, %+v, %v", date, ev, ok)
	}

	start := 14
	moved := s.MoveEvent("2026-02-10", "1", "2026-2-12", model.EventPatch{StartHour: &start})
	if moved == nil || moved.Date != "2026-02-12" || moved.StartHour != 14 {
		t.Fatalf("MoveEvent = %+v", moved)
	}
	if len(s.GetByDate("2026-02-10")) != 0 || len(s.GetByDate("2026-02-12")) != 1 {
		t.Fatalf("snapshot after move = %+v", s.Snapshot())
	}
	if _, _, ok := s.FindEvent("404"); ok {
		t.Fatal("FindEvent found a missing id")
	}
}

func TestRoundTripThroughPersistence(t *testing.T) {
	s, local := newStore(t)

	events := []model.ScheduleEvent{
		mathEvent(),
		{LocalID: 2, RemoteID: "3f6c1d2e-8a1b-4c3d-9e0f-112233445566", Title: "Piano",
			StartHour: 15, EndHour: 16, Status: model.StatusCompleted,
			Subtasks: []model.Subtask{{ID: 1, Text: "scales", Done: true}}},
	}
	s.SetByDate("2026-2-10", events)
	s.Save()

	reloaded := schedule.New(local, schedule.WithLogger(testutil.DiscardLogger()))
	if !reloaded.Load() {
		t.Fatal("Load found nothing")
	}

	got := reloaded.GetByDate("2026-02-10")
	if len(got) != 2 {
		t.Fatalf("reloaded %d events, want 2", len(got))
	}
	if got[0].Title != "Math" || got[1].RemoteID != events[1].RemoteID ||
		len(got[1].Subtasks) != 1 || !got[1].Subtasks[0].Done {
		t.Fatalf("reloaded = %+v", got)
	}
}

func TestLoadAcceptsLegacyShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		key  string
	}{
		{
			name: "loose keys and numeric id",
			raw:  `{"2026-2-10":[{"id":1707552000000,"title":"Math","startHour":9,"endHour":10}]}`,
			key:  "2026-02-10",
		},
		{
			name: "bare list is today",
			raw:  `[{"id":"3f6c1d2e-8a1b-4c3d-9e0f-112233445566","event_title":"Math"}]`,
			key:  "2026-02-10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newStore(t)
			byDate, err := schedule.DecodeSnapshot([]byte(tt.raw), s.TodayKey())
			if err != nil {
				t.Fatalf("DecodeSnapshot: %v", err)
			}
			s.Init(byDate)

			got := s.GetByDate(tt.key)
			if len(got) != 1 || got[0].Title != "Math" {
				t.Fatalf("GetByDate = %+v", got)
			}
			if got[0].LocalID == 0 && got[0].RemoteID == "" {
				t.Fatalf("legacy id not resolved: %+v", got[0])
			}
		})
	}
}

func TestSubscriberIsolation(t *testing.T) {
	s, _ := newStore(t)

	var secondCalls int
	s.Subscribe(func(schedule.Snapshot) { panic("boom") })
	s.Subscribe(func(snap schedule.Snapshot) {
		secondCalls++
		if len(snap["2026-02-10"]) != 1 {
			t.Errorf("snapshot = %+v", snap)
		}
	})

	s.AddEvent("2026-02-10", mathEvent())

	if secondCalls != 1 {
		t.Fatalf("second subscriber called %d times, want 1", secondCalls)
	}
}

func TestUnsubscribe(t *testing.T) {
	s, _ := newStore(t)

	var calls int
	unsubscribe := s.Subscribe(func(schedule.Snapshot) { calls++ })
	s.AddEvent("2026-02-10", mathEvent())
	unsubscribe()
	s.AddEvent("2026-02-10", mathEvent())

	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestMissDoesNotNotify(t *testing.T) {
	s, _ := newStore(t)

	var calls int
	s.Subscribe(func(schedule.Snapshot) { calls++ })
	s.RemoveEvent("2026-02-10", "1")
	s.UpdateEvent("2026-02-10", "1", model.EventPatch{})

	if calls != 0 {
		t.Fatalf("calls = %d, want 0", calls)
	}
}

func TestDisposeDropsSubscribers(t *testing.T) {
	s, _ := newStore(t)

	var calls int
	s.Subscribe(func(schedule.Snapshot) { calls++ })
	s.Dispose()
	s.AddEvent("2026-02-10", mathEvent())

	if calls != 0 {
		t.Fatalf("calls after Dispose = %d", calls)
	}
	if len(s.GetByDate("2026-02-10")) != 1 {
		t.Fatal("store unusable after Dispose")
	}
}

func TestUnsynced(t *testing.T) {
	s, _ := newStore(t)
	s.AddEvent("2026-02-10", mathEvent())
	synced := mathEvent()
	synced.LocalID = 2
	synced.RemoteID = "3f6c1d2e-8a1b-4c3d-9e0f-112233445566"
	s.AddEvent("2026-02-11", synced)

	got := s.Unsynced()
	if len(got) != 1 || got[0].LocalID != 1 {
		t.Fatalf("Unsynced = %+v", got)
	}
}

func TestInitTodayPlacesListUnderToday(t *testing.T) {
	s, _ := newStore(t)

	var snaps []schedule.Snapshot
	s.Subscribe(func(snap schedule.Snapshot) { snaps = append(snaps, snap) })

	second := mathEvent()
	second.LocalID = 2
	second.Title = "Piano"
	second.StartHour, second.EndHour = 11, 12
	s.InitToday([]model.ScheduleEvent{mathEvent(), second})

	got := s.GetToday()
	if len(got) != 2 || got[0].Title != "Math" || got[1].Title != "Piano" {
		t.Fatalf("GetToday = %+v", got)
	}
	if len(s.GetByDate("2026-02-10")) != 2 {
		t.Errorf("list not stored under today's key")
	}
	if len(snaps) != 1 || len(snaps[0]["2026-02-10"]) != 2 {
		t.Errorf("snapshots = %+v", snaps)
	}
}

// failingKV accepts reads and rejects every write.
type failingKV struct{}

func (failingKV) Get(context.Context, string) (string, error) { return "", store.ErrNotFound }
func (failingKV) Set(context.Context, string, string) error {
	return errors.New("disk full")
}
func (failingKV) Delete(context.Context, string) error { return errors.New("disk full") }
func (failingKV) Keys(context.Context, string) ([]string, error) {
	return nil, nil
}

func TestMutationsSurvivePersistenceFailure(t *testing.T) {
	s := schedule.New(store.NewLocal(failingKV{}, testutil.DiscardLogger()),
		schedule.WithClock(func() time.Time { return fixedNow }),
		schedule.WithLogger(testutil.DiscardLogger()),
	)
	s.Init(nil)

	notified := 0
	s.Subscribe(func(schedule.Snapshot) { notified++ })

	added := s.AddEvent("2026-02-10", mathEvent())
	if added == nil || added.Title != "Math" {
		t.Fatalf("AddEvent = %+v", added)
	}
	updated := s.UpdateEvent("2026-02-10", "1", model.EventPatch{Title: strPtr("Algebra")})
	if updated == nil || updated.Title != "Algebra" {
		t.Fatalf("UpdateEvent = %+v", updated)
	}

	if got := s.GetByDate("2026-02-10"); len(got) != 1 || got[0].Title != "Algebra" {
		t.Errorf("in-memory state = %+v", got)
	}
	if notified != 2 {
		t.Errorf("notified %d times, want 2", notified)
	}
}
