// Package schedule owns the in-memory map from calendar date to that day's
// ordered events. Every mutation persists the whole map and then notifies
// subscribers.
package schedule

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/nhle/winterbreak/internal/datekey"
	"github.com/nhle/winterbreak/internal/model"
	"github.com/nhle/winterbreak/internal/store"
)

// Snapshot is a detached copy of the store's contents keyed by date.
type Snapshot map[string][]model.ScheduleEvent

// Listener receives a snapshot after every mutation.
type Listener func(Snapshot)

type subscriber struct {
	id int
	fn Listener
}

// Store is the single source of truth for schedule events. The zero value
// is not usable; construct with New and call Init or Load before use.
type Store struct {
	mu          sync.Mutex
	data        map[string][]model.ScheduleEvent
	subscribers []subscriber
	nextSubID   int
	lastLocalID int64

	local *store.Local
	log   *slog.Logger
	now   func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used for today's key and local ids.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// New creates an empty store persisting through local.
func New(local *store.Local, opts ...Option) *Store {
	s := &Store{
		data:  map[string][]model.ScheduleEvent{},
		local: local,
		log:   slog.Default(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init replaces the whole map. Keys are normalized; unparseable keys are
// dropped and logged. Init does not persist.
func (s *Store) Init(byDate map[string][]model.ScheduleEvent) {
	s.mu.Lock()
	s.data = s.normalizeMap(byDate)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// InitToday replaces the whole map with a single list for today.
func (s *Store) InitToday(events []model.ScheduleEvent) {
	s.Init(map[string][]model.ScheduleEvent{s.TodayKey(): events})
}

// Load initializes the store from local persistence. It reports whether a
// saved schedule was found.
func (s *Store) Load() bool {
	raw, ok := s.local.LoadRaw(store.KeySchedule)
	if !ok {
		s.Init(nil)
		return false
	}
	byDate, err := DecodeSnapshot(raw, s.TodayKey())
	if err != nil {
		s.log.Warn("saved schedule is unreadable", "err", err)
		s.Init(nil)
		return false
	}
	s.Init(byDate)
	return true
}

// Dispose drops all subscribers and data.
func (s *Store) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = nil
	s.data = map[string][]model.ScheduleEvent{}
}

// TodayKey returns the key for the store clock's current date.
func (s *Store) TodayKey() string {
	return datekey.FromTime(s.now())
}

// GetByDate returns a copy of the events for dateKey. It never returns nil.
func (s *Store) GetByDate(dateKey string) []model.ScheduleEvent {
	nk, ok := s.normalize(dateKey)
	if !ok {
		return []model.ScheduleEvent{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneList(s.data[nk])
}

// GetToday returns a copy of today's events.
func (s *Store) GetToday() []model.ScheduleEvent {
	return s.GetByDate(s.TodayKey())
}

// SetByDate replaces the list for dateKey. It reports false when the key
// cannot be parsed.
func (s *Store) SetByDate(dateKey string, events []model.ScheduleEvent) bool {
	nk, ok := s.normalize(dateKey)
	if !ok {
		return false
	}

	s.mutate(func() {
		list := make([]model.ScheduleEvent, 0, len(events))
		for _, e := range events {
			e = e.Clone()
			e.Date = nk
			list = append(list, e)
		}
		s.data[nk] = list
	})
	return true
}

// AddEvent appends ev to dateKey's list and returns the stored copy. An
// event with neither id gets a fresh local id. It returns nil when the key
// cannot be parsed.
func (s *Store) AddEvent(dateKey string, ev model.ScheduleEvent) *model.ScheduleEvent {
	nk, ok := s.normalize(dateKey)
	if !ok {
		return nil
	}

	var added model.ScheduleEvent
	s.mutate(func() {
		ev = ev.Clone()
		ev.Date = nk
		if ev.LocalID == 0 && ev.RemoteID == "" {
			ev.LocalID = s.nextLocalIDLocked()
		}
		s.data[nk] = append(s.data[nk], ev)
		added = ev.Clone()
	})
	return &added
}

// UpdateEvent merges patch into the event named id on dateKey. It returns
// nil, leaving state untouched, when the id is not on that date.
func (s *Store) UpdateEvent(dateKey, id string, patch model.EventPatch) *model.ScheduleEvent {
	nk, ok := s.normalize(dateKey)
	if !ok {
		return nil
	}

	var updated *model.ScheduleEvent
	s.mutateIf(func() bool {
		list := s.data[nk]
		idx := indexOf(list, id)
		if idx < 0 {
			return false
		}
		e := patch.Apply(list[idx].Clone())
		e.Date = nk
		list[idx] = e
		c := e.Clone()
		updated = &c
		return true
	})
	return updated
}

// RemoveEvent deletes the event named id from dateKey and returns it, or
// nil when it is not there.
func (s *Store) RemoveEvent(dateKey, id string) *model.ScheduleEvent {
	nk, ok := s.normalize(dateKey)
	if !ok {
		return nil
	}

	var removed *model.ScheduleEvent
	s.mutateIf(func() bool {
		list := s.data[nk]
		idx := indexOf(list, id)
		if idx < 0 {
			return false
		}
		e := list[idx]
		s.data[nk] = append(list[:idx:idx], list[idx+1:]...)
		removed = &e
		return true
	})
	return removed
}

// MoveEvent removes the event named id from fromKey, applies patch and
// appends it to toKey as one mutation. It returns nil when the event is
// not on fromKey or either key is invalid.
func (s *Store) MoveEvent(fromKey, id, toKey string, patch model.EventPatch) *model.ScheduleEvent {
	from, ok := s.normalize(fromKey)
	if !ok {
		return nil
	}
	to, ok := s.normalize(toKey)
	if !ok {
		return nil
	}

	var moved *model.ScheduleEvent
	s.mutateIf(func() bool {
		list := s.data[from]
		idx := indexOf(list, id)
		if idx < 0 {
			return false
		}
		e := patch.Apply(list[idx].Clone())
		s.data[from] = append(list[:idx:idx], list[idx+1:]...)
		e.Date = to
		s.data[to] = append(s.data[to], e)
		c := e.Clone()
		moved = &c
		return true
	})
	return moved
}

// FindEvent scans every date for the event named id. Dates are visited in
// ascending order.
func (s *Store) FindEvent(id string) (string, model.ScheduleEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range s.datesLocked() {
		if idx := indexOf(s.data[k], id); idx >= 0 {
			return k, s.data[k][idx].Clone(), true
		}
	}
	return "", model.ScheduleEvent{}, false
}

// Dates returns every date key that has at least one event, ascending.
func (s *Store) Dates() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var keys []string
	for _, k := range s.datesLocked() {
		if len(s.data[k]) > 0 {
			keys = append(keys, k)
		}
	}
	return keys
}

// Unsynced returns copies of all events without a remote id.
func (s *Store) Unsynced() []model.ScheduleEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.ScheduleEvent
	for _, k := range s.datesLocked() {
		for _, e := range s.data[k] {
			if !e.Synced() {
				out = append(out, e.Clone())
			}
		}
	}
	return out
}

// Snapshot returns a deep copy of the whole map.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers fn to run after every mutation. The returned func
// unregisters it.
func (s *Store) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}

	s.mu.Lock()
	s.nextSubID++
	id := s.nextSubID
	s.subscribers = append(s.subscribers, subscriber{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subscribers {
			if sub.id == id {
				s.subscribers = append(s.subscribers[:i:i], s.subscribers[i+1:]...)
				return
			}
		}
	}
}

// Save persists the whole map. Failures are logged, not returned.
func (s *Store) Save() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveLocked()
}

func (s *Store) nextLocalIDLocked() int64 {
	id := s.now().UnixMilli()
	if id <= s.lastLocalID {
		id = s.lastLocalID + 1
	}
	s.lastLocalID = id
	return id
}

// mutate applies fn under the lock, persists, then notifies.
func (s *Store) mutate(fn func()) {
	s.mutateIf(func() bool {
		fn()
		return true
	})
}

// mutateIf is mutate for operations that may find nothing to change.
func (s *Store) mutateIf(fn func() bool) {
	s.mu.Lock()
	if !fn() {
		s.mu.Unlock()
		return
	}
	s.saveLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

func (s *Store) saveLocked() {
	s.local.Save(store.KeySchedule, s.data)
}

// notify runs each listener with its own copy of snap. A panicking listener
// is logged and does not stop the others.
func (s *Store) notify(snap Snapshot) {
	s.mu.Lock()
	subs := append([]subscriber(nil), s.subscribers...)
	s.mu.Unlock()

	for i, sub := range subs {
		view := snap
		if i > 0 {
			view = snap.clone()
		}
		s.call(sub, view)
	}
}

func (s *Store) call(sub subscriber, snap Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Warn("schedule listener panicked", "subscriber", sub.id, "panic", fmt.Sprint(r))
		}
	}()
	sub.fn(snap)
}

func (s *Store) normalize(dateKey string) (string, bool) {
	nk, ok := datekey.Normalize(dateKey)
	if !ok {
		s.log.Warn("ignoring invalid date key", "date_key", dateKey)
	}
	return nk, ok
}

func (s *Store) normalizeMap(byDate map[string][]model.ScheduleEvent) map[string][]model.ScheduleEvent {
	out := make(map[string][]model.ScheduleEvent, len(byDate))
	for k, list := range byDate {
		nk, ok := s.normalize(k)
		if !ok {
			continue
		}
		for _, e := range list {
			e = e.Clone()
			e.Date = nk
			out[nk] = append(out[nk], e)
			if e.LocalID > s.lastLocalID {
				s.lastLocalID = e.LocalID
			}
		}
		if _, ok := out[nk]; !ok {
			out[nk] = []model.ScheduleEvent{}
		}
	}
	return out
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot(s.data).clone()
}

func (s *Store) datesLocked() []string {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (snap Snapshot) clone() Snapshot {
	out := make(Snapshot, len(snap))
	for k, list := range snap {
		out[k] = cloneList(list)
	}
	return out
}

func cloneList(list []model.ScheduleEvent) []model.ScheduleEvent {
	out := make([]model.ScheduleEvent, len(list))
	for i, e := range list {
		out[i] = e.Clone()
	}
	return out
}

func indexOf(list []model.ScheduleEvent, id string) int {
	for i, e := range list {
		if e.MatchesID(id) {
			return i
		}
	}
	return -1
}

// DecodeSnapshot reads a persisted schedule. Both a date-keyed object and a
// bare list (treated as todayKey's events) are accepted.
func DecodeSnapshot(raw []byte, todayKey string) (map[string][]model.ScheduleEvent, error) {
	var byDate map[string][]model.ScheduleEvent
	if err := json.Unmarshal(raw, &byDate); err == nil {
		return byDate, nil
	}

	var list []model.ScheduleEvent
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decoding schedule: %w", err)
	}
	return map[string][]model.ScheduleEvent{todayKey: list}, nil
}
