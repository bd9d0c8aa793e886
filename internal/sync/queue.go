package sync

import (
	"context"
	"errors"
	"log/slog"
	gosync "sync"
	"time"

	"github.com/nhle/winterbreak/internal/model"
	"github.com/nhle/winterbreak/internal/store"
)

// MaxAttempts is how many failed replays an entry survives. The replay
// that fails with attempts already at MaxAttempts drops it.
const MaxAttempts = 3

// ErrUnknownAction is returned by a dispatcher for an action type outside
// the replayable set. Such entries are dropped without retry.
var ErrUnknownAction = errors.New("unknown action type")

// Dispatcher performs one queued remote write.
type Dispatcher func(ctx context.Context, action model.Action) error

// FlushResult summarizes one Flush.
type FlushResult struct {
	Replayed int
	Retained int
	Dropped  int
}

// Queue is the persisted list of remote writes waiting for replay. The
// persisted list is authoritative; nothing is cached in memory.
type Queue struct {
	mu       gosync.Mutex
	flushing bool
	lastID   int64

	local *store.Local
	log   *slog.Logger
	now   func() time.Time
}

// NewQueue returns a queue persisted through local.
func NewQueue(local *store.Local, log *slog.Logger) *Queue {
	if log == nil {
		log = slog.Default()
	}
	return &Queue{local: local, log: log, now: time.Now}
}

// Enqueue appends action with zero attempts and returns the stored entry.
func (q *Queue) Enqueue(action model.Action) model.QueueEntry {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries := q.loadLocked()
	entry := model.QueueEntry{Action: action, ID: q.nextIDLocked()}
	entries = append(entries, entry)
	q.local.Save(store.KeyOfflineQueue, entries)

	q.log.Info("queued remote write", "action_type", action.Type, "queue_id", entry.ID, "pending", len(entries))
	return entry
}

// Entries returns the pending entries in enqueue order.
func (q *Queue) Entries() []model.QueueEntry {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.loadLocked()
}

// Len returns the number of pending entries.
func (q *Queue) Len() int {
	return len(q.Entries())
}

// Flush replays every pending entry through dispatch. Successful entries
// are removed; failed ones have attempts incremented and are dropped once
// attempts exceeds MaxAttempts. Entries enqueued while a flush is running
// are kept for the next flush. A concurrent Flush call returns immediately.
func (q *Queue) Flush(ctx context.Context, dispatch Dispatcher) FlushResult {
	q.mu.Lock()
	if q.flushing {
		q.mu.Unlock()
		return FlushResult{}
	}
	q.flushing = true
	pending := q.loadLocked()
	q.mu.Unlock()

	var (
		res  FlushResult
		kept []model.QueueEntry
		seen = make(map[int64]bool, len(pending))
	)
	for _, e := range pending {
		seen[e.ID] = true

		if ctx.Err() != nil {
			kept = append(kept, e)
			continue
		}

		err := dispatch(ctx, e.Action)
		switch {
		case err == nil:
			res.Replayed++
		case errors.Is(err, ErrUnknownAction):
			res.Dropped++
			q.log.Warn("dropping unknown queued action", "action_type", e.Type, "queue_id", e.ID)
		default:
			e.Attempts++
			if e.Attempts <= MaxAttempts {
				kept = append(kept, e)
				q.log.Info("queued write failed", "action_type", e.Type, "queue_id", e.ID, "attempts", e.Attempts, "err", err)
				continue
			}
			res.Dropped++
			q.log.Warn("dropping queued write after retries", "action_type", e.Type, "queue_id", e.ID, "attempts", e.Attempts, "err", err)
		}
	}
	res.Retained = len(kept)

	q.mu.Lock()
	defer q.mu.Unlock()
	for _, e := range q.loadLocked() {
		if !seen[e.ID] {
			kept = append(kept, e)
		}
	}
	if kept == nil {
		kept = []model.QueueEntry{}
	}
	q.local.Save(store.KeyOfflineQueue, kept)
	q.flushing = false

	return res
}

func (q *Queue) loadLocked() []model.QueueEntry {
	var entries []model.QueueEntry
	q.local.Load(store.KeyOfflineQueue, &entries)
	for _, e := range entries {
		if e.ID > q.lastID {
			q.lastID = e.ID
		}
	}
	return entries
}

// nextIDLocked returns a unique millisecond timestamp. Callers load the
// persisted entries first so lastID covers them.
func (q *Queue) nextIDLocked() int64 {
	id := q.now().UnixMilli()
	if id <= q.lastID {
		id = q.lastID + 1
	}
	q.lastID = id
	return id
}
