// Package photos keeps the student's photo album on disk and mirrors it to
// the remote store when one is configured.
package photos

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/peterbourgon/diskv/v3"

	"github.com/nhle/winterbreak/internal/datekey"
	"github.com/nhle/winterbreak/internal/model"
)

// ErrNotFound is returned when no photo has the requested id.
var ErrNotFound = errors.New("photo not found")

// Entry is a photo stored on this device. RemoteID is empty until the photo
// has been uploaded.
type Entry struct {
	model.Photo
	RemoteID string `json:"remote_id,omitempty"`
}

// Synced reports whether the photo exists remotely.
func (e Entry) Synced() bool { return e.RemoteID != "" }

// Remote is the subset of the remote client the album mirrors against.
type Remote interface {
	Enabled() bool
	GetPhotos(ctx context.Context) ([]model.Photo, error)
	AddPhoto(ctx context.Context, date, data string) (model.Photo, error)
	DeletePhoto(ctx context.Context, id string) error
}

// Album stores one JSON file per photo under <dir>/<date>/<id>.
type Album struct {
	d   *diskv.Diskv
	log *slog.Logger
	now func() time.Time
}

// NewAlbum opens (or creates) an album rooted at dir.
func NewAlbum(dir string, log *slog.Logger) *Album {
	if log == nil {
		log = slog.Default()
	}
	return &Album{
		d: diskv.New(diskv.Options{
			BasePath:          dir,
			AdvancedTransform: keyToPathTransform,
			InverseTransform:  pathToKeyTransform,
			CacheSizeMax:      4 * 1024 * 1024,
		}),
		log: log,
		now: time.Now,
	}
}

func keyToPathTransform(s string) *diskv.PathKey {
	parts := strings.Split(s, "/")
	return &diskv.PathKey{
		Path:     parts[:len(parts)-1],
		FileName: parts[len(parts)-1],
	}
}

func pathToKeyTransform(pathKey *diskv.PathKey) string {
	return strings.Join(append(append([]string(nil), pathKey.Path...), pathKey.FileName), "/")
}

func toKey(e Entry) string {
	return e.Date + "/" + e.ID
}

// Add stores encoded photo data for date and returns the new entry.
func (a *Album) Add(date, data string) (Entry, error) {
	key, ok := datekey.Normalize(date)
	if !ok {
		return Entry{}, fmt.Errorf("invalid date %q", date)
	}
	if data == "" {
		return Entry{}, errors.New("photo data must not be empty")
	}

	created := a.now().UTC()
	sum := md5.Sum([]byte(created.Format(time.RFC3339Nano) + data))
	e := Entry{Photo: model.Photo{
		ID:        fmt.Sprintf("%x", sum[:8]),
		Date:      key,
		Data:      data,
		CreatedAt: created,
	}}
	if err := a.write(e); err != nil {
		return Entry{}, err
	}
	return e, nil
}

func (a *Album) write(e Entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := a.d.Write(toKey(e), b); err != nil {
		return fmt.Errorf("writing photo %s: %w", e.ID, err)
	}
	return nil
}

func (a *Album) read(key string) (Entry, error) {
	b, err := a.d.Read(key)
	if err != nil {
		return Entry{}, err
	}
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return Entry{}, err
	}
	pk := keyToPathTransform(key)
	e.ID = pk.FileName
	return e, nil
}

// List returns every photo, oldest first.
func (a *Album) List(ctx context.Context) []Entry {
	return a.list(ctx, "")
}

// ListByDate returns the photos taken on date, oldest first.
func (a *Album) ListByDate(ctx context.Context, date string) []Entry {
	key, ok := datekey.Normalize(date)
	if !ok {
		return []Entry{}
	}
	return a.list(ctx, key+"/")
}

func (a *Album) list(ctx context.Context, prefix string) []Entry {
	all := make([]Entry, 0)
	for key := range a.d.KeysPrefix(prefix, ctx.Done()) {
		e, err := a.read(key)
		if err != nil {
			a.log.Warn("skipping unreadable photo", "key", key, "err", err)
			continue
		}
		all = append(all, e)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Date != all[j].Date {
			return all[i].Date < all[j].Date
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	return all
}

// Find looks a photo up by its local or remote id.
func (a *Album) Find(ctx context.Context, id string) (Entry, string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for key := range a.d.Keys(ctx.Done()) {
		e, err := a.read(key)
		if err != nil {
			continue
		}
		if e.ID == id || (e.RemoteID != "" && e.RemoteID == id) {
			return e, key, nil
		}
	}
	return Entry{}, "", ErrNotFound
}

// Delete removes a photo locally and returns what was removed. The caller
// is responsible for deleting the remote copy of a synced photo.
func (a *Album) Delete(ctx context.Context, id string) (Entry, error) {
	e, key, err := a.Find(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	if err := a.d.Erase(key); err != nil {
		return Entry{}, fmt.Errorf("erasing photo %s: %w", id, err)
	}
	return e, nil
}

// SyncResult counts the photos moved by Sync.
type SyncResult struct {
	Pushed int
	Pulled int
}

// Sync uploads local photos that have no remote id and downloads remote
// photos this device has not seen. Upload failures stop the push but do not
// lose the local copy.
func (a *Album) Sync(ctx context.Context, r Remote) (SyncResult, error) {
	var res SyncResult
	if r == nil || !r.Enabled() {
		return res, nil
	}

	local := a.List(ctx)
	known := make(map[string]bool, len(local))
	for _, e := range local {
		if e.RemoteID != "" {
			known[e.RemoteID] = true
			continue
		}
		created, err := r.AddPhoto(ctx, e.Date, e.Data)
		if err != nil {
			return res, fmt.Errorf("uploading photo %s: %w", e.ID, err)
		}
		e.RemoteID = created.ID
		if err := a.write(e); err != nil {
			return res, err
		}
		known[created.ID] = true
		res.Pushed++
	}

	remotePhotos, err := r.GetPhotos(ctx)
	if err != nil {
		return res, fmt.Errorf("listing remote photos: %w", err)
	}
	for _, p := range remotePhotos {
		if known[p.ID] {
			continue
		}
		date, ok := datekey.Normalize(p.Date)
		if !ok {
			date = datekey.FromTime(p.CreatedAt)
		}
		e := Entry{Photo: p, RemoteID: p.ID}
		e.Date = date
		if err := a.write(e); err != nil {
			return res, err
		}
		res.Pulled++
	}

	a.log.Debug("photo album synced", "pushed", res.Pushed, "pulled", res.Pulled)
	return res, nil
}
