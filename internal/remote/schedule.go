package remote

import (
	"context"
	"fmt"

	"github.com/nhle/winterbreak/internal/model"
)

const tableSchedule = "schedule_items"

// GetSchedule returns the student's schedule items for date ordered by
// start time.
func (c *Client) GetSchedule(ctx context.Context, date string) ([]model.ScheduleEvent, error) {
	q := eq("student_id", c.studentID, "date", date)
	q.Set("order", "start_hour.asc,start_minute.asc")

	var rows []ScheduleItemRow
	if err := c.selectRows(ctx, tableSchedule, q, &rows); err != nil {
		return nil, err
	}
	events := make([]model.ScheduleEvent, 0, len(rows))
	for _, r := range rows {
		events = append(events, r.Event())
	}
	return events, nil
}

// SaveScheduleItem writes e and returns its remote id. An event without a
// remote id, or whose row no longer exists, is inserted.
func (c *Client) SaveScheduleItem(ctx context.Context, e model.ScheduleEvent) (string, error) {
	row := scheduleRowFor(c.studentID, e)

	if e.RemoteID != "" {
		var updated []ScheduleItemRow
		if err := c.update(ctx, tableSchedule, eq("id", e.RemoteID), row, &updated); err != nil {
			return "", fmt.Errorf("updating schedule item %s: %w", e.RemoteID, err)
		}
		if len(updated) > 0 {
			return e.RemoteID, nil
		}
	}

	var created []ScheduleItemRow
	if err := c.insert(ctx, tableSchedule, []ScheduleItemRow{row}, &created); err != nil {
		return "", fmt.Errorf("inserting schedule item %q: %w", e.Title, err)
	}
	first, err := single(created, tableSchedule)
	if err != nil {
		return "", err
	}
	if !model.IsRemoteID(first.ID) {
		return "", fmt.Errorf("remote returned malformed id %q", first.ID)
	}
	return first.ID, nil
}

// DeleteScheduleItem removes the row with the given remote id.
func (c *Client) DeleteScheduleItem(ctx context.Context, remoteID string) error {
	if err := c.remove(ctx, tableSchedule, eq("id", remoteID)); err != nil {
		return fmt.Errorf("deleting schedule item %s: %w", remoteID, err)
	}
	return nil
}

// UpdateScheduleStatus sets the status of a synced schedule item.
func (c *Client) UpdateScheduleStatus(ctx context.Context, remoteID, status string) error {
	patch := map[string]string{"status": status}
	if err := c.update(ctx, tableSchedule, eq("id", remoteID), patch, nil); err != nil {
		return fmt.Errorf("updating status of %s: %w", remoteID, err)
	}
	return nil
}
