package remote

import (
	"context"
	"fmt"
)

const tableChoices = "daily_choices"

// RecordChoice stores the day's choice, replacing any earlier one for date.
func (c *Client) RecordChoice(ctx context.Context, date, choiceType, title string) error {
	if err := c.remove(ctx, tableChoices, eq("student_id", c.studentID, "date", date)); err != nil {
		return fmt.Errorf("clearing choice for %s: %w", date, err)
	}
	row := ChoiceRow{StudentID: c.studentID, Date: date, ChoiceType: choiceType, ChoiceTitle: title}
	if err := c.insert(ctx, tableChoices, []ChoiceRow{row}, nil); err != nil {
		return fmt.Errorf("recording choice for %s: %w", date, err)
	}
	return nil
}
