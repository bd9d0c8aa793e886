package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nhle/winterbreak/internal/model"
	"github.com/nhle/winterbreak/internal/notify"
	"github.com/nhle/winterbreak/internal/remote"
	"github.com/nhle/winterbreak/internal/store"
)

// WriteStatus is the outcome of SafeWrite.
type WriteStatus int

const (
	// Confirmed means the remote accepted the write.
	Confirmed WriteStatus = iota
	// Queued means the write failed and waits in the offline queue.
	Queued
	// LocalOnly means no remote is configured; the write stays local.
	LocalOnly
)

func (s WriteStatus) String() string {
	switch s {
	case Confirmed:
		return "confirmed"
	case Queued:
		return "queued"
	default:
		return "local-only"
	}
}

// Syncer mirrors local writes to the remote with cache and queue fallbacks.
type Syncer struct {
	remote   *remote.Client
	local    *store.Local
	queue    *Queue
	notifier notify.Notifier
	log      *slog.Logger
	now      func() time.Time
	onQueued func(error)
}

// NewSyncer wires the remote client to local persistence and the queue.
func NewSyncer(rc *remote.Client, local *store.Local, q *Queue, n notify.Notifier, log *slog.Logger) *Syncer {
	if log == nil {
		log = slog.Default()
	}
	if n == nil {
		n = notify.Log{Logger: log}
	}
	return &Syncer{remote: rc, local: local, queue: q, notifier: n, log: log, now: time.Now}
}

// OnQueued registers fn to run whenever a failed write is queued.
func (s *Syncer) OnQueued(fn func(error)) {
	s.onQueued = fn
}

// Remote returns the underlying client.
func (s *Syncer) Remote() *remote.Client {
	return s.remote
}

// Queue returns the offline queue.
func (s *Syncer) Queue() *Queue {
	return s.queue
}

// Online reports whether a remote is configured.
func (s *Syncer) Online() bool {
	return s.remote.Enabled()
}

// Source tells where a value returned by SafeReadFrom came from.
type Source int

const (
	FromRemote Source = iota
	FromCache
)

// SafeRead fetches a remote resource and caches it under name. When the
// fetch fails it returns the last cached value regardless of age; with no
// cache the fetch error is returned.
func SafeRead[T any](ctx context.Context, s *Syncer, name string, fetch func(context.Context) (T, error)) (T, error) {
	v, _, err := SafeReadFrom(ctx, s, name, fetch)
	return v, err
}

// SafeReadFrom is SafeRead that also reports whether the value is fresh.
// A cached value may be older than local state and must not replace it.
func SafeReadFrom[T any](ctx context.Context, s *Syncer, name string, fetch func(context.Context) (T, error)) (T, Source, error) {
	var err error
	if s.remote.Enabled() {
		var v T
		v, err = fetch(ctx)
		if err == nil {
			s.writeCache(name, v)
			return v, FromRemote, nil
		}
	} else {
		err = remote.ErrDisabled
	}

	if cached, ok := readCache[T](s, name); ok {
		if !errors.Is(err, remote.ErrDisabled) {
			s.log.Warn("remote read failed, serving cache", "resource", name, "err", err)
		}
		return cached, FromCache, nil
	}

	var zero T
	return zero, FromCache, fmt.Errorf("reading %s: %w", name, err)
}

func (s *Syncer) writeCache(name string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.log.Error("caching remote value", "resource", name, "err", err)
		return
	}
	s.local.Save(store.CacheKey(name), model.CacheEntry{Data: data, Timestamp: s.now()})
}

func readCache[T any](s *Syncer, name string) (T, bool) {
	var zero T
	var entry model.CacheEntry
	if !s.local.Load(store.CacheKey(name), &entry) || len(entry.Data) == 0 {
		return zero, false
	}
	var v T
	if err := json.Unmarshal(entry.Data, &v); err != nil {
		s.log.Warn("cached value is corrupt", "resource", name, "err", err)
		return zero, false
	}
	return v, true
}

// NewAction encodes payload as an action of type t.
func NewAction(t model.ActionType, payload any) (model.Action, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return model.Action{}, fmt.Errorf("encoding %s payload: %w", t, err)
	}
	return model.Action{Type: t, Payload: data}, nil
}

// SafeWrite performs action remotely. On failure the action is queued for
// replay and the user is told; the local state is already updated, so
// callers treat Queued as success.
func (s *Syncer) SafeWrite(ctx context.Context, action model.Action) WriteStatus {
	if !s.remote.Enabled() {
		return LocalOnly
	}

	err := s.Dispatch(ctx, action)
	if err == nil {
		return Confirmed
	}
	if errors.Is(err, ErrUnknownAction) {
		s.log.Error("refusing to queue unknown action", "action_type", action.Type)
		return LocalOnly
	}

	s.log.Warn("remote write failed, queueing", "action_type", action.Type, "err", err)
	s.queue.Enqueue(action)
	if s.onQueued != nil {
		s.onQueued(err)
	}
	if remote.IsAuthError(err) {
		s.notifier.Notify(notify.Error, "Sync key rejected; changes are saved on this device")
	} else {
		s.notifier.Notify(notify.Warn, "Offline: change saved locally and will sync later")
	}
	return Queued
}

// Write encodes payload and performs SafeWrite.
func (s *Syncer) Write(ctx context.Context, t model.ActionType, payload any) WriteStatus {
	action, err := NewAction(t, payload)
	if err != nil {
		s.log.Error("encoding action", "action_type", t, "err", err)
		return LocalOnly
	}
	return s.SafeWrite(ctx, action)
}

// Flush replays the offline queue. It does nothing without a remote.
func (s *Syncer) Flush(ctx context.Context) FlushResult {
	if !s.remote.Enabled() {
		return FlushResult{}
	}
	res := s.queue.Flush(ctx, s.Dispatch)
	if res.Replayed > 0 || res.Dropped > 0 {
		s.log.Info("offline queue flushed", "replayed", res.Replayed, "retained", res.Retained, "dropped", res.Dropped)
	}
	if res.Replayed > 0 {
		s.notifier.Notify(notify.Info, fmt.Sprintf("Synced %d offline change(s)", res.Replayed))
	}
	return res
}

// Dispatch performs one action against the remote.
func (s *Syncer) Dispatch(ctx context.Context, action model.Action) error {
	switch action.Type {
	case model.ActionToggleHabit:
		var p model.HabitCheckPayload
		if err := decodePayload(action, &p); err != nil {
			return err
		}
		return s.remote.SetHabitCheck(ctx, p.Date, p.HabitType, p.Completed)

	case model.ActionUpdateProgress:
		var p model.ProgressPayload
		if err := decodePayload(action, &p); err != nil {
			return err
		}
		return s.remote.UpdateProgress(ctx, p.Date, p.Field, p.Value)

	case model.ActionRecordChoice:
		var p model.ChoicePayload
		if err := decodePayload(action, &p); err != nil {
			return err
		}
		return s.remote.RecordChoice(ctx, p.Date, p.Type, p.Title)

	case model.ActionUpdateInterest:
		var p model.InterestPayload
		if err := decodePayload(action, &p); err != nil {
			return err
		}
		return s.remote.SetInterest(ctx, p.InterestType, p.Score)

	case model.ActionUpdateTimelineStatus:
		var p model.TimelineStatusPayload
		if err := decodePayload(action, &p); err != nil {
			return err
		}
		return s.remote.UpdateScheduleStatus(ctx, p.RemoteID, p.Status)
	}

	return fmt.Errorf("%w: %q", ErrUnknownAction, action.Type)
}

// decodePayload treats an undecodable payload like an unknown action: it
// can never succeed, so it is not retried.
func decodePayload(action model.Action, v any) error {
	if err := json.Unmarshal(action.Payload, v); err != nil {
		return fmt.Errorf("%w: bad %s payload: %v", ErrUnknownAction, action.Type, err)
	}
	return nil
}
