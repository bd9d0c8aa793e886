package store

import (
	"context"
	"errors"
)

// Keys under which application state is persisted.
const (
	KeySchedule     = "schedule"
	KeyHabits       = "habits"
	KeyProgress     = "progress"
	KeyInterests    = "interests"
	KeyChoice       = "choice"
	KeyOfflineQueue = "offline_queue"
	KeyProfile      = "profile"
	KeyRolloverDate = "rollover_date"

	// KeyScheduleDeletes holds remote ids whose delete has not reached the
	// remote yet.
	KeyScheduleDeletes = "schedule_deletes"

	// CachePrefix prefixes remote read caches, e.g. "cache:habits".
	CachePrefix = "cache:"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("store: key not found")

// KV is a string key-value store. Values are opaque; callers serialize.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// CacheKey returns the KV key holding the cached copy of a remote resource.
func CacheKey(name string) string {
	return CachePrefix + name
}
