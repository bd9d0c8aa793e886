package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	gosync "sync"
	"time"

	"github.com/nhle/winterbreak/internal/credential"
	"github.com/nhle/winterbreak/internal/datekey"
	"github.com/nhle/winterbreak/internal/habit"
	"github.com/nhle/winterbreak/internal/model"
	"github.com/nhle/winterbreak/internal/notify"
	"github.com/nhle/winterbreak/internal/photos"
	"github.com/nhle/winterbreak/internal/remote"
	"github.com/nhle/winterbreak/internal/rollover"
	"github.com/nhle/winterbreak/internal/schedule"
	"github.com/nhle/winterbreak/internal/store"
	wsync "github.com/nhle/winterbreak/internal/sync"
)

// ErrEventNotFound is returned when no date holds the requested event.
var ErrEventNotFound = errors.New("schedule event not found")

// App owns every long-lived component and exposes the operations the
// terminal UI and the CLI share.
type App struct {
	cfg       *model.AppConfig
	cfgPath   string
	log       *slog.Logger
	now       func() time.Time
	keyLookup func(string) (string, error)

	db       *store.SQLiteStore
	local    *store.Local
	client   *remote.Client
	queue    *wsync.Queue
	syncer   *wsync.Syncer
	toasts   *notify.Channel
	schedule *schedule.Store
	habits   *habit.Tracker
	album    *photos.Album
	monitor  *wsync.Monitor
	roller   *rollover.Scheduler

	mu        gosync.Mutex
	interests model.Interests
	choice    *model.Choice
	deletes   []string
	inflight  map[int64]bool
	dashboard Dashboard
}

// Option configures Open.
type Option func(*options)

type options struct {
	now        func() time.Time
	keyLookup  func(string) (string, error)
	configPath string
}

// WithClock overrides the clock used for today's key.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithKeyLookup replaces the system keyring lookup for stored secrets.
func WithKeyLookup(fn func(string) (string, error)) Option {
	return func(o *options) { o.keyLookup = fn }
}

// WithConfigPath records where cfg was loaded from so settings can be
// saved back.
func WithConfigPath(path string) Option {
	return func(o *options) { o.configPath = path }
}

// Open builds the application from cfg and loads local state. Remote data
// is not fetched until Load is called.
func Open(cfg *model.AppConfig, log *slog.Logger, opts ...Option) (*App, error) {
	if log == nil {
		log = slog.Default()
	}
	o := options{now: time.Now, keyLookup: credential.Get, configPath: model.DefaultConfigPath()}
	for _, opt := range opts {
		opt(&o)
	}

	db, err := store.NewSQLiteStore(cfg.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening local store: %w", err)
	}

	remoteCfg := cfg.Remote
	key, err := credential.ResolveRemoteKey(remoteCfg.Key, o.keyLookup)
	if err != nil {
		log.Warn("reading remote key from keyring", "err", err)
	}
	remoteCfg.Key = key

	a := &App{
		cfg:       cfg,
		cfgPath:   o.configPath,
		log:       log,
		now:       o.now,
		keyLookup: o.keyLookup,
		db:        db,
		local:     store.NewLocal(db, log),
		client:    remote.NewClient(remoteCfg),
		toasts:    notify.NewChannel(32, log),
	}
	a.queue = wsync.NewQueue(a.local, log)
	a.syncer = wsync.NewSyncer(a.client, a.local, a.queue, a.toasts, log)
	a.schedule = schedule.New(a.local, schedule.WithClock(o.now), schedule.WithLogger(log))
	a.habits = habit.NewTracker(a.local, a.syncer, cfg.Habits.Keys, log, habit.WithClock(o.now))
	a.album = photos.NewAlbum(cfg.Storage.PhotoDir, log)
	a.monitor = wsync.NewMonitor(a.syncer, time.Duration(cfg.Monitor.ProbeIntervalSec)*time.Second, a.PushUnsynced, log)

	a.roller, err = rollover.New(a.local, a.habits, cfg.Rollover.Cron, log,
		rollover.WithClock(o.now),
		rollover.OnRollover(func(date string) {
			a.toasts.Notify(notify.Info, "New day: habits reset for "+date)
		}),
	)
	if err != nil {
		db.Close()
		return nil, err
	}

	a.init()

	if a.client.Enabled() {
		log.Info("remote sync enabled", "url", remoteCfg.URL, "student_id", a.client.StudentID())
	} else {
		log.Info("running local-only")
	}
	return a, nil
}

// init loads everything kept on this device.
func (a *App) init() {
	a.schedule.Load()
	a.habits.Load()

	a.mu.Lock()
	defer a.mu.Unlock()

	a.interests = model.Interests{}
	a.local.Load(store.KeyInterests, &a.interests)
	for _, t := range model.DefaultInterestTypes {
		if _, ok := a.interests[t]; !ok {
			a.interests[t] = 0
		}
	}
	var c model.Choice
	if a.local.Load(store.KeyChoice, &c) {
		a.choice = &c
	}
	a.local.Load(store.KeyScheduleDeletes, &a.deletes)
}

// Close stops background work and releases the local store.
func (a *App) Close() error {
	a.monitor.Stop()
	a.roller.Stop()
	a.schedule.Dispose()
	a.toasts.Close()
	return a.db.Close()
}

// Config returns the configuration the app was opened with.
func (a *App) Config() *model.AppConfig { return a.cfg }

// ConfigPath returns the file settings are saved to.
func (a *App) ConfigPath() string { return a.cfgPath }

// Schedule returns the schedule store.
func (a *App) Schedule() *schedule.Store { return a.schedule }

// Habits returns the habit tracker.
func (a *App) Habits() *habit.Tracker { return a.habits }

// Album returns the photo album.
func (a *App) Album() *photos.Album { return a.album }

// Monitor returns the connectivity monitor.
func (a *App) Monitor() *wsync.Monitor { return a.monitor }

// Rollover returns the daily reset scheduler.
func (a *App) Rollover() *rollover.Scheduler { return a.roller }

// Queue returns the offline queue.
func (a *App) Queue() *wsync.Queue { return a.queue }

// Toasts delivers user-facing notifications.
func (a *App) Toasts() <-chan notify.Toast { return a.toasts.C() }

// RemoteEnabled reports whether a remote store is configured.
func (a *App) RemoteEnabled() bool { return a.client.Enabled() }

// Today returns today's date key.
func (a *App) Today() string { return datekey.FromTime(a.now()) }

// Flush replays the offline queue and then pushes local-only records.
func (a *App) Flush(ctx context.Context) (wsync.FlushResult, int) {
	res := a.syncer.Flush(ctx)
	if !a.client.Enabled() {
		return res, 0
	}
	return res, a.PushUnsynced(ctx)
}

// ClearCache drops every cached remote read and returns how many were
// removed. Local state is untouched.
func (a *App) ClearCache(ctx context.Context) (int, error) {
	n, err := a.db.ClearCache(ctx)
	if err != nil {
		return 0, err
	}
	a.log.Info("remote cache cleared", "entries", n)
	return n, nil
}

// ToggleHabit flips a habit for today.
func (a *App) ToggleHabit(ctx context.Context, habitType string) (habit.ToggleResult, error) {
	return a.habits.Toggle(ctx, habitType)
}

// SetProgress sets the math or english progress for today.
func (a *App) SetProgress(ctx context.Context, field string, value int) (wsync.WriteStatus, error) {
	return a.habits.SetProgress(ctx, field, value)
}

// warn logs a failed remote call and tells the user the change is local.
func (a *App) warn(msg string, err error, args ...any) {
	a.log.Warn(msg, append(args, "err", err)...)
	a.monitor.MarkOffline(err)
	if remote.IsAuthError(err) {
		a.toasts.Notify(notify.Error, "Sync key rejected; changes are saved on this device")
		return
	}
	a.toasts.Notify(notify.Warn, "Saved on this device; will sync when online")
}
