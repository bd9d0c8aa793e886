package app

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/nhle/winterbreak/internal/model"
	"github.com/nhle/winterbreak/internal/store"
	wsync "github.com/nhle/winterbreak/internal/sync"
)

// Event kinds.
const (
	KindCustom   = "custom"
	KindImported = "imported"
)

// AddEvent validates ev, stores it on date and, when a remote is configured,
// inserts it remotely and records the returned remote id. A failed insert
// leaves the event local-only; PushUnsynced retries it.
func (a *App) AddEvent(ctx context.Context, date string, ev model.ScheduleEvent) (model.ScheduleEvent, error) {
	ev.LocalID, ev.RemoteID = 0, ""
	ev.Title = strings.TrimSpace(ev.Title)
	if ev.Icon == "" {
		ev.Icon = model.DefaultEventIcon
	}
	if ev.Color == "" {
		ev.Color = model.DefaultEventColor
	}
	if ev.Status == "" {
		ev.Status = model.StatusPending
	}
	if ev.Kind == "" {
		ev.Kind = KindCustom
	}
	if err := ev.Validate(); err != nil {
		return model.ScheduleEvent{}, err
	}

	stored := a.schedule.AddEvent(date, ev)
	if stored == nil {
		return model.ScheduleEvent{}, fmt.Errorf("invalid date %q", date)
	}
	a.log.Debug("schedule event added", "date_key", stored.Date, "event_id", stored.Ref())

	return a.push(ctx, *stored), nil
}

// push writes ev remotely and adopts the remote id. It returns the latest
// local copy whether or not the push succeeded.
func (a *App) push(ctx context.Context, ev model.ScheduleEvent) model.ScheduleEvent {
	if !a.client.Enabled() {
		return ev
	}
	if !ev.Synced() {
		if !a.claim(ev.LocalID) {
			return ev
		}
		defer a.release(ev.LocalID)
	}
	remoteID, err := a.client.SaveScheduleItem(ctx, ev)
	if err != nil {
		a.warn("pushing schedule event", err, "event_id", ev.Ref())
		return ev
	}
	if remoteID == ev.RemoteID {
		return ev
	}
	updated := a.schedule.UpdateEvent(ev.Date, ev.Ref(), model.EventPatch{RemoteID: &remoteID})
	if updated == nil {
		// Removed while the insert was in flight.
		a.log.Warn("pushed event vanished locally", "event_id", ev.Ref(), "remote_id", remoteID)
		return ev
	}
	return *updated
}

// claim marks an unsynced event as being inserted remotely. It reports false
// when another insert of the same event is already in flight.
func (a *App) claim(localID int64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.inflight[localID] {
		return false
	}
	if a.inflight == nil {
		a.inflight = make(map[int64]bool)
	}
	a.inflight[localID] = true
	return true
}

func (a *App) release(localID int64) {
	a.mu.Lock()
	delete(a.inflight, localID)
	a.mu.Unlock()
}

// locate finds id on date, falling back to a scan of every date.
func (a *App) locate(date, id string) (string, model.ScheduleEvent, bool) {
	for _, e := range a.schedule.GetByDate(date) {
		if e.MatchesID(id) {
			return e.Date, e, true
		}
	}
	return a.schedule.FindEvent(id)
}

// EditEvent applies patch to the event named id and re-validates the
// result before storing it.
func (a *App) EditEvent(ctx context.Context, date, id string, patch model.EventPatch) (model.ScheduleEvent, error) {
	patch.RemoteID = nil
	key, current, ok := a.locate(date, id)
	if !ok {
		return model.ScheduleEvent{}, fmt.Errorf("%w: %s", ErrEventNotFound, id)
	}
	if err := patch.Apply(current.Clone()).Validate(); err != nil {
		return model.ScheduleEvent{}, err
	}

	updated := a.schedule.UpdateEvent(key, id, patch)
	if updated == nil {
		return model.ScheduleEvent{}, fmt.Errorf("%w: %s", ErrEventNotFound, id)
	}
	return a.push(ctx, *updated), nil
}

// Reschedule moves the event named id to toDate and the given times.
func (a *App) Reschedule(ctx context.Context, fromDate, id, toDate string, startHour, startMin, endHour, endMin int) (model.ScheduleEvent, error) {
	key, current, ok := a.locate(fromDate, id)
	if !ok {
		return model.ScheduleEvent{}, fmt.Errorf("%w: %s", ErrEventNotFound, id)
	}
	patch := model.EventPatch{StartHour: &startHour, StartMin: &startMin, EndHour: &endHour, EndMin: &endMin}
	if err := patch.Apply(current.Clone()).Validate(); err != nil {
		return model.ScheduleEvent{}, err
	}

	moved := a.schedule.MoveEvent(key, id, toDate, patch)
	if moved == nil {
		return model.ScheduleEvent{}, fmt.Errorf("cannot move %s to %q", id, toDate)
	}
	a.log.Debug("schedule event moved", "event_id", id, "from", key, "date_key", moved.Date)
	return a.push(ctx, *moved), nil
}

// DeleteEvent removes the event named id. When it is not on date every
// other date is searched. A synced event is deleted remotely too; if that
// fails the delete is retried by PushUnsynced.
func (a *App) DeleteEvent(ctx context.Context, date, id string) (model.ScheduleEvent, error) {
	removed := a.schedule.RemoveEvent(date, id)
	if removed == nil {
		if key, _, ok := a.schedule.FindEvent(id); ok {
			removed = a.schedule.RemoveEvent(key, id)
		}
	}
	if removed == nil {
		return model.ScheduleEvent{}, fmt.Errorf("%w: %s", ErrEventNotFound, id)
	}
	a.log.Debug("schedule event deleted", "date_key", removed.Date, "event_id", removed.Ref())

	if removed.Synced() && a.client.Enabled() {
		if err := a.client.DeleteScheduleItem(ctx, removed.RemoteID); err != nil {
			a.warn("deleting remote schedule event", err, "remote_id", removed.RemoteID)
			a.addPendingDelete(removed.RemoteID)
		}
	}
	return *removed, nil
}

func (a *App) addPendingDelete(remoteID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !slices.Contains(a.deletes, remoteID) {
		a.deletes = append(a.deletes, remoteID)
	}
	a.local.Save(store.KeyScheduleDeletes, a.deletes)
}

// ToggleStatus marks the event completed, or back to pending when it
// already is. Synced events mirror the new status through the offline-safe
// write path.
func (a *App) ToggleStatus(ctx context.Context, date, id string) (model.ScheduleEvent, wsync.WriteStatus, error) {
	key, current, ok := a.locate(date, id)
	if !ok {
		return model.ScheduleEvent{}, wsync.LocalOnly, fmt.Errorf("%w: %s", ErrEventNotFound, id)
	}
	status := model.StatusCompleted
	if current.Status == model.StatusCompleted {
		status = model.StatusPending
	}

	updated := a.schedule.UpdateEvent(key, id, model.EventPatch{Status: &status})
	if updated == nil {
		return model.ScheduleEvent{}, wsync.LocalOnly, fmt.Errorf("%w: %s", ErrEventNotFound, id)
	}
	if !updated.Synced() {
		return *updated, wsync.LocalOnly, nil
	}
	ws := a.syncer.Write(ctx, model.ActionUpdateTimelineStatus, model.TimelineStatusPayload{
		RemoteID: updated.RemoteID, Status: status,
	})
	return *updated, ws, nil
}

// AddSubtask appends a checklist item to the event. Subtasks stay on this
// device.
func (a *App) AddSubtask(date, id, text string) (model.ScheduleEvent, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.ScheduleEvent{}, fmt.Errorf("subtask text must not be empty")
	}
	return a.editSubtasks(date, id, func(list []model.Subtask) ([]model.Subtask, bool) {
		var next int64
		for _, st := range list {
			next = max(next, st.ID)
		}
		return append(list, model.Subtask{ID: next + 1, Text: text}), true
	})
}

// ToggleSubtask flips one checklist item.
func (a *App) ToggleSubtask(date, id string, subtaskID int64) (model.ScheduleEvent, error) {
	return a.editSubtasks(date, id, func(list []model.Subtask) ([]model.Subtask, bool) {
		for i := range list {
			if list[i].ID == subtaskID {
				list[i].Done = !list[i].Done
				return list, true
			}
		}
		return list, false
	})
}

// DeleteSubtask removes one checklist item.
func (a *App) DeleteSubtask(date, id string, subtaskID int64) (model.ScheduleEvent, error) {
	return a.editSubtasks(date, id, func(list []model.Subtask) ([]model.Subtask, bool) {
		n := len(list)
		list = slices.DeleteFunc(list, func(st model.Subtask) bool { return st.ID == subtaskID })
		return list, len(list) != n
	})
}

func (a *App) editSubtasks(date, id string, fn func([]model.Subtask) ([]model.Subtask, bool)) (model.ScheduleEvent, error) {
	key, current, ok := a.locate(date, id)
	if !ok {
		return model.ScheduleEvent{}, fmt.Errorf("%w: %s", ErrEventNotFound, id)
	}
	list, changed := fn(slices.Clone(current.Subtasks))
	if !changed {
		return current, fmt.Errorf("subtask not found on %s", id)
	}
	updated := a.schedule.UpdateEvent(key, id, model.EventPatch{Subtasks: &list})
	if updated == nil {
		return model.ScheduleEvent{}, fmt.Errorf("%w: %s", ErrEventNotFound, id)
	}
	return *updated, nil
}

// PushUnsynced retries remote deletes that failed earlier, inserts every
// event that has no remote id yet and uploads new photos. It returns how
// many records reached the remote. It runs after the offline queue is
// flushed on reconnect.
func (a *App) PushUnsynced(ctx context.Context) int {
	if !a.client.Enabled() {
		return 0
	}
	pushed := a.retryDeletes(ctx)

	for _, ev := range a.schedule.Unsynced() {
		if ctx.Err() != nil {
			return pushed
		}
		if !a.claim(ev.LocalID) {
			a.log.Debug("insert already in flight", "event_id", ev.Ref())
			continue
		}
		remoteID, err := a.client.SaveScheduleItem(ctx, ev)
		if err == nil && a.schedule.UpdateEvent(ev.Date, ev.Ref(), model.EventPatch{RemoteID: &remoteID}) != nil {
			pushed++
		}
		a.release(ev.LocalID)
		if err != nil {
			a.log.Warn("pushing local event", "event_id", ev.Ref(), "err", err)
			break
		}
	}

	res, err := a.album.Sync(ctx, a.client)
	if err != nil {
		a.log.Warn("syncing photos", "err", err)
	}
	pushed += res.Pushed

	if pushed > 0 {
		a.log.Info("local records pushed", "count", pushed)
	}
	return pushed
}

func (a *App) retryDeletes(ctx context.Context) int {
	a.mu.Lock()
	pending := slices.Clone(a.deletes)
	a.mu.Unlock()

	var done []string
	for _, id := range pending {
		if err := a.client.DeleteScheduleItem(ctx, id); err != nil {
			a.log.Warn("retrying remote delete", "remote_id", id, "err", err)
			break
		}
		done = append(done, id)
	}
	if len(done) == 0 {
		return 0
	}

	a.mu.Lock()
	a.deletes = slices.DeleteFunc(a.deletes, func(id string) bool { return slices.Contains(done, id) })
	a.local.Save(store.KeyScheduleDeletes, a.deletes)
	a.mu.Unlock()
	return len(done)
}

// PendingDeletes returns remote ids whose delete has not been confirmed.
func (a *App) PendingDeletes() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.deletes)
}
