package app

import (
	"context"
	"io"
	"time"

	"github.com/nhle/winterbreak/internal/calendar"
	"github.com/nhle/winterbreak/internal/photos"
)

// AddPhoto stores photo data for date and uploads it when possible.
func (a *App) AddPhoto(ctx context.Context, date, data string) (photos.Entry, error) {
	e, err := a.album.Add(date, data)
	if err != nil {
		return photos.Entry{}, err
	}
	if _, err := a.album.Sync(ctx, a.client); err != nil {
		a.warn("uploading photo", err, "photo_id", e.ID)
		return e, nil
	}
	if synced, _, err := a.album.Find(ctx, e.ID); err == nil {
		e = synced
	}
	return e, nil
}

// Photos lists every photo on this device, oldest date first.
func (a *App) Photos(ctx context.Context) []photos.Entry {
	return a.album.List(ctx)
}

// SyncPhotos uploads local photos and downloads remote ones.
func (a *App) SyncPhotos(ctx context.Context) (photos.SyncResult, error) {
	return a.album.Sync(ctx, a.client)
}

// DeletePhoto removes a photo locally and, for an uploaded one, remotely.
func (a *App) DeletePhoto(ctx context.Context, id string) (photos.Entry, error) {
	e, err := a.album.Delete(ctx, id)
	if err != nil {
		return photos.Entry{}, err
	}
	if e.Synced() && a.client.Enabled() {
		if err := a.client.DeletePhoto(ctx, e.RemoteID); err != nil {
			a.warn("deleting remote photo", err, "photo_id", e.RemoteID)
		}
	}
	return e, nil
}

// ExportCalendar writes every schedule event as iCalendar.
func (a *App) ExportCalendar(w io.Writer) error {
	return calendar.Export(w, a.schedule.Snapshot(), time.Local)
}

// ImportCalendar adds the timed events in r as new local events and
// returns how many were added.
func (a *App) ImportCalendar(ctx context.Context, r io.Reader) (int, error) {
	events, err := calendar.Import(r, time.Local, a.log)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range events {
		e.Kind = KindImported
		if _, err := a.AddEvent(ctx, e.Date, e); err != nil {
			a.log.Warn("skipping imported event", "title", e.Title, "err", err)
			continue
		}
		n++
	}
	return n, nil
}
