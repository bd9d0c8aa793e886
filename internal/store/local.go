package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
)

// Local serializes values as JSON into a KV. Write and decode failures are
// logged and swallowed so local mutations always succeed for callers.
type Local struct {
	kv  KV
	log *slog.Logger
}

// NewLocal wraps kv. A nil logger uses slog.Default.
func NewLocal(kv KV, log *slog.Logger) *Local {
	if log == nil {
		log = slog.Default()
	}
	return &Local{kv: kv, log: log}
}

// Load decodes the value under key into v. It reports false when the key is
// absent or its value does not decode; v is left untouched in either case.
func (l *Local) Load(key string, v any) bool {
	raw, err := l.kv.Get(context.Background(), key)
	if errors.Is(err, ErrNotFound) {
		return false
	}
	if err != nil {
		l.log.Warn("local load failed", "key", key, "err", err)
		return false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		l.log.Warn("local value is corrupt", "key", key, "err", err)
		return false
	}
	return true
}

// LoadRaw returns the undecoded JSON under key.
func (l *Local) LoadRaw(key string) (json.RawMessage, bool) {
	raw, err := l.kv.Get(context.Background(), key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			l.log.Warn("local load failed", "key", key, "err", err)
		}
		return nil, false
	}
	if !json.Valid([]byte(raw)) {
		l.log.Warn("local value is corrupt", "key", key)
		return nil, false
	}
	return json.RawMessage(raw), true
}

// Save encodes v under key.
func (l *Local) Save(key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		l.log.Error("local save: encoding", "key", key, "err", err)
		return
	}
	if err := l.kv.Set(context.Background(), key, string(data)); err != nil {
		l.log.Error("local save failed", "key", key, "err", err)
	}
}

// Remove deletes key.
func (l *Local) Remove(key string) {
	if err := l.kv.Delete(context.Background(), key); err != nil {
		l.log.Error("local remove failed", "key", key, "err", err)
	}
}
