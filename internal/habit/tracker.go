// Package habit tracks daily habit check-ins and the aggregate habit
// progress derived from them.
package habit

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	gosync "sync"
	"time"

	"github.com/nhle/winterbreak/internal/datekey"
	"github.com/nhle/winterbreak/internal/model"
	"github.com/nhle/winterbreak/internal/store"
	wsync "github.com/nhle/winterbreak/internal/sync"
)

// Info is how a habit is shown.
type Info struct {
	Name     string
	Subtitle string
	Icon     string
}

// Catalog describes the default habits.
var Catalog = map[string]Info{
	"wake":     {Name: "Early rise", Subtitle: "up before 7:30", Icon: "🌅"},
	"sleep":    {Name: "Early sleep", Subtitle: "in bed by 22:00", Icon: "🌙"},
	"spine":    {Name: "Spine exercises", Subtitle: "five sets before bed", Icon: "🧘"},
	"exercise": {Name: "Exercise", Subtitle: "30 minutes", Icon: "🏃"},
	"math":     {Name: "Math review", Subtitle: "Feynman notes", Icon: "📝"},
	"english":  {Name: "English", Subtitle: "reading aloud", Icon: "📖"},
	"piano":    {Name: "Piano", Subtitle: "30 minutes", Icon: "🎹"},
}

// Describe returns display info for key, falling back to the key itself.
func Describe(key string) Info {
	if info, ok := Catalog[key]; ok {
		return info
	}
	return Info{Name: key, Icon: "✅"}
}

// ToggleResult reports the state after a toggle.
type ToggleResult struct {
	Habit     string
	Completed bool
	Progress  int
	Status    wsync.WriteStatus
}

// Tracker owns the habit records and the day's progress.
type Tracker struct {
	mu       gosync.Mutex
	keys     []string
	habits   model.Habits
	progress model.DailyProgress

	local  *store.Local
	syncer *wsync.Syncer
	log    *slog.Logger
	now    func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the clock used for today's key.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// NewTracker creates a tracker for keys. Call Load before use.
func NewTracker(local *store.Local, syncer *wsync.Syncer, keys []string, log *slog.Logger, opts ...Option) *Tracker {
	if log == nil {
		log = slog.Default()
	}
	if len(keys) == 0 {
		keys = model.DefaultHabitKeys
	}
	t := &Tracker{
		keys:   slices.Clone(keys),
		habits: model.Habits{},
		local:  local,
		syncer: syncer,
		log:    log,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Load reads habits and progress from local persistence. Records saved in
// the older boolean shape are converted here, once.
func (t *Tracker) Load() {
	t.mu.Lock()
	defer t.mu.Unlock()

	habits := model.Habits{}
	t.local.Load(store.KeyHabits, &habits)
	for _, k := range t.keys {
		if habits[k] == nil {
			habits[k] = &model.HabitRecord{}
		}
	}
	t.habits = habits

	var p model.DailyProgress
	if t.local.Load(store.KeyProgress, &p) {
		t.progress = p
	}
}

// Keys returns the tracked habit keys in display order.
func (t *Tracker) Keys() []string {
	return slices.Clone(t.keys)
}

// Habits returns a copy of every record.
func (t *Tracker) Habits() model.Habits {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(model.Habits, len(t.habits))
	for k, h := range t.habits {
		c := *h
		c.CompletedDates = slices.Clone(h.CompletedDates)
		out[k] = &c
	}
	return out
}

// Progress returns the day's progress.
func (t *Tracker) Progress() model.DailyProgress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.progress
}

// Toggle flips habitType for today, recomputes habit progress, persists,
// and mirrors both the check and the progress remotely.
func (t *Tracker) Toggle(ctx context.Context, habitType string) (ToggleResult, error) {
	today := datekey.FromTime(t.now())

	t.mu.Lock()
	h, ok := t.habits[habitType]
	if !ok {
		t.mu.Unlock()
		return ToggleResult{}, fmt.Errorf("unknown habit %q", habitType)
	}

	h.Completed = !h.Completed
	if h.Completed {
		if !h.CompletedOn(today) {
			h.CompletedDates = append(h.CompletedDates, today)
		}
	} else {
		h.CompletedDates = slices.DeleteFunc(h.CompletedDates, func(d string) bool { return d == today })
	}
	completed := h.Completed
	pct := t.recomputeLocked()
	t.saveLocked()
	t.mu.Unlock()

	t.log.Debug("habit toggled", "habit", habitType, "completed", completed, "progress", pct)

	status := t.syncer.Write(ctx, model.ActionToggleHabit, model.HabitCheckPayload{
		HabitType: habitType, Date: today, Completed: completed,
	})
	t.syncer.Write(ctx, model.ActionUpdateProgress, model.ProgressPayload{
		Date: today, Field: model.ProgressHabits, Value: pct,
	})

	return ToggleResult{Habit: habitType, Completed: completed, Progress: pct, Status: status}, nil
}

// SetProgress sets a non-habit progress field (math or english).
func (t *Tracker) SetProgress(ctx context.Context, field string, value int) (wsync.WriteStatus, error) {
	if field == model.ProgressHabits {
		return wsync.LocalOnly, fmt.Errorf("habit progress is derived from check-ins")
	}
	value = max(0, min(value, 100))

	t.mu.Lock()
	if !t.progress.Set(field, value) {
		t.mu.Unlock()
		return wsync.LocalOnly, fmt.Errorf("unknown progress field %q", field)
	}
	t.saveLocked()
	t.mu.Unlock()

	return t.syncer.Write(ctx, model.ActionUpdateProgress, model.ProgressPayload{
		Date: datekey.FromTime(t.now()), Field: field, Value: value,
	}), nil
}

// Rollover starts a new day: every habit is unchecked, history is kept, and
// the day's progress resets.
func (t *Tracker) Rollover() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, h := range t.habits {
		h.Completed = false
	}
	t.progress = model.DailyProgress{}
	t.saveLocked()
	t.log.Info("habits rolled over", "date_key", datekey.FromTime(t.now()))
}

// ApplyRemote merges remote state for today: habits checked remotely are
// marked completed and progress is replaced.
func (t *Tracker) ApplyRemote(checks []HabitCheck, progress *model.DailyProgress) {
	today := datekey.FromTime(t.now())

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, c := range checks {
		if !c.Completed {
			continue
		}
		h, ok := t.habits[c.HabitType]
		if !ok {
			continue
		}
		h.Completed = true
		if !h.CompletedOn(today) {
			h.CompletedDates = append(h.CompletedDates, today)
		}
	}
	if progress != nil {
		t.progress = *progress
	}
	t.recomputeLocked()
	t.saveLocked()
}

// HabitCheck is a remote check-in for today.
type HabitCheck struct {
	HabitType string
	Completed bool
}

// Streak counts consecutive days, ending today or yesterday, on which
// habitType was completed.
func (t *Tracker) Streak(habitType string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	h, ok := t.habits[habitType]
	if !ok {
		return 0
	}
	day := datekey.FromTime(t.now())
	if !h.CompletedOn(day) {
		day = datekey.AddDays(day, -1)
	}
	n := 0
	for h.CompletedOn(day) {
		n++
		day = datekey.AddDays(day, -1)
	}
	return n
}

// recomputeLocked derives habit progress from a full scan of the records.
func (t *Tracker) recomputeLocked() int {
	pct := 0
	if len(t.keys) > 0 {
		done := t.habits.CompletedCount(t.keys)
		pct = int(math.Round(float64(done) / float64(len(t.keys)) * 100))
	}
	t.progress.Habits = pct
	return pct
}

func (t *Tracker) saveLocked() {
	t.local.Save(store.KeyHabits, t.habits)
	t.local.Save(store.KeyProgress, t.progress)
}
