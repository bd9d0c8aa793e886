package remote

import (
	"context"
	"fmt"

	"github.com/nhle/winterbreak/internal/model"
)

const tableInterests = "interest_scores"

// GetInterests returns the student's interest scores keyed by type.
func (c *Client) GetInterests(ctx context.Context) (model.Interests, error) {
	var rows []InterestRow
	if err := c.selectRows(ctx, tableInterests, eq("student_id", c.studentID), &rows); err != nil {
		return nil, err
	}
	out := make(model.Interests, len(rows))
	for _, r := range rows {
		out[r.InterestType] = r.Score
	}
	return out, nil
}

// EnsureInterestScores seeds a zero score for every default interest type.
// Existing scores are overwritten, so call it only for a student with none.
func (c *Client) EnsureInterestScores(ctx context.Context) error {
	now := c.now().UTC()
	rows := make([]InterestRow, 0, len(model.DefaultInterestTypes))
	for _, t := range model.DefaultInterestTypes {
		rows = append(rows, InterestRow{StudentID: c.studentID, InterestType: t, UpdatedAt: now})
	}
	if err := c.upsert(ctx, tableInterests, "student_id,interest_type", rows, nil); err != nil {
		return fmt.Errorf("seeding interests: %w", err)
	}
	return nil
}

// GetOrCreateInterests returns the scores, seeding defaults first when the
// student has none.
func (c *Client) GetOrCreateInterests(ctx context.Context) (model.Interests, error) {
	interests, err := c.GetInterests(ctx)
	if err != nil {
		return nil, err
	}
	if len(interests) > 0 {
		return interests, nil
	}
	if err := c.EnsureInterestScores(ctx); err != nil {
		return nil, err
	}
	return c.GetInterests(ctx)
}

// SetInterest writes an absolute score, clamped to 0..MaxInterestScore.
func (c *Client) SetInterest(ctx context.Context, interestType string, score int) error {
	score = max(0, min(score, model.MaxInterestScore))
	row := InterestRow{
		StudentID:    c.studentID,
		InterestType: interestType,
		Score:        score,
		UpdatedAt:    c.now().UTC(),
	}
	if err := c.upsert(ctx, tableInterests, "student_id,interest_type", []InterestRow{row}, nil); err != nil {
		return fmt.Errorf("setting interest %s: %w", interestType, err)
	}
	return nil
}
