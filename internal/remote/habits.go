package remote

import (
	"context"
	"fmt"
	"time"
)

const tableHabitChecks = "habit_checks"

// GetHabitChecks returns the student's habit rows for date.
func (c *Client) GetHabitChecks(ctx context.Context, date string) ([]HabitCheckRow, error) {
	var rows []HabitCheckRow
	if err := c.selectRows(ctx, tableHabitChecks, eq("student_id", c.studentID, "date", date), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// SetHabitCheck records habitType as completed or not on date. It writes the
// absolute state, so repeating it is harmless.
func (c *Client) SetHabitCheck(ctx context.Context, date, habitType string, completed bool) error {
	var existing []HabitCheckRow
	filter := eq("student_id", c.studentID, "date", date, "habit_type", habitType)
	if err := c.selectRows(ctx, tableHabitChecks, filter, &existing); err != nil {
		return err
	}

	var completedAt *time.Time
	if completed {
		ts := c.now().UTC()
		completedAt = &ts
	}

	if len(existing) > 0 {
		patch := map[string]any{"is_completed": completed, "completed_at": completedAt}
		if err := c.update(ctx, tableHabitChecks, eq("id", existing[0].ID), patch, nil); err != nil {
			return fmt.Errorf("updating habit %s: %w", habitType, err)
		}
		return nil
	}

	row := map[string]any{
		"student_id":   c.studentID,
		"date":         date,
		"habit_type":   habitType,
		"is_completed": completed,
		"completed_at": completedAt,
	}
	if err := c.insert(ctx, tableHabitChecks, []map[string]any{row}, nil); err != nil {
		return fmt.Errorf("inserting habit %s: %w", habitType, err)
	}
	return nil
}

// CountHabitChecks counts completed checks of habitType across all days.
func (c *Client) CountHabitChecks(ctx context.Context, habitType string) (int, error) {
	q := eq("student_id", c.studentID, "habit_type", habitType, "is_completed", "true")
	return c.count(ctx, tableHabitChecks, q)
}
