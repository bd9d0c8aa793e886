package remote

import (
	"context"
	"fmt"
	"net/url"

	"github.com/nhle/winterbreak/internal/model"
)

const tableProgress = "daily_progress"

// GetProgress returns the progress row for date, creating a zeroed row when
// the student has none yet.
func (c *Client) GetProgress(ctx context.Context, date string) (model.DailyProgress, error) {
	var rows []ProgressRow
	if err := c.selectRows(ctx, tableProgress, eq("student_id", c.studentID, "date", date), &rows); err != nil {
		return model.DailyProgress{}, err
	}
	if len(rows) > 0 {
		return rows[0].DailyProgress, nil
	}

	var created []ProgressRow
	row := ProgressRow{StudentID: c.studentID, Date: date}
	if err := c.insert(ctx, tableProgress, []ProgressRow{row}, &created); err != nil {
		return model.DailyProgress{}, fmt.Errorf("creating progress for %s: %w", date, err)
	}
	return model.DailyProgress{}, nil
}

// UpdateProgress sets one progress field for date. field is one of
// math, english or habits.
func (c *Client) UpdateProgress(ctx context.Context, date, field string, value int) error {
	var probe model.DailyProgress
	if !probe.Set(field, value) {
		return fmt.Errorf("unknown progress field %q", field)
	}
	column := field + "_progress"

	var rows []ProgressRow
	patch := map[string]int{column: value}
	if err := c.update(ctx, tableProgress, eq("student_id", c.studentID, "date", date), patch, &rows); err != nil {
		return err
	}
	if len(rows) > 0 {
		return nil
	}

	row := ProgressRow{StudentID: c.studentID, Date: date, DailyProgress: probe}
	if err := c.insert(ctx, tableProgress, []ProgressRow{row}, nil); err != nil {
		return fmt.Errorf("creating progress for %s: %w", date, err)
	}
	return nil
}

// CountCompletedDays counts days on which field reached 100.
func (c *Client) CountCompletedDays(ctx context.Context, field string) (int, error) {
	var probe model.DailyProgress
	if !probe.Set(field, 0) {
		return 0, fmt.Errorf("unknown progress field %q", field)
	}
	q := url.Values{}
	q.Set("student_id", "eq."+c.studentID)
	q.Set(field+"_progress", "gte.100")
	return c.count(ctx, tableProgress, q)
}
