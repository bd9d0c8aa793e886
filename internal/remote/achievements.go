package remote

import (
	"context"
	"fmt"
	"net/url"

	"github.com/nhle/winterbreak/internal/model"
)

const (
	tableWeeklyAchievements = "weekly_achievements"
	tableAchievements       = "achievements"
	tableUnlockedRewards    = "unlocked_rewards"
)

func (c *Client) ordered(column string) url.Values {
	q := eq("student_id", c.studentID)
	q.Set("order", column+".desc")
	return q
}

// GetWeeklyAchievements returns highlighted performances, newest first.
func (c *Client) GetWeeklyAchievements(ctx context.Context) ([]model.WeeklyAchievement, error) {
	var rows []model.WeeklyAchievement
	if err := c.selectRows(ctx, tableWeeklyAchievements, c.ordered("achievement_date"), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// AddWeeklyAchievement inserts a and returns the stored row.
func (c *Client) AddWeeklyAchievement(ctx context.Context, a model.WeeklyAchievement) (model.WeeklyAchievement, error) {
	row := struct {
		StudentID string `json:"student_id"`
		model.WeeklyAchievement
	}{c.studentID, a}
	row.ID = ""

	var created []model.WeeklyAchievement
	if err := c.insert(ctx, tableWeeklyAchievements, []any{row}, &created); err != nil {
		return model.WeeklyAchievement{}, fmt.Errorf("adding weekly achievement: %w", err)
	}
	return single(created, tableWeeklyAchievements)
}

// GetAchievements returns earned badges, newest first.
func (c *Client) GetAchievements(ctx context.Context) ([]model.Achievement, error) {
	var rows []model.Achievement
	if err := c.selectRows(ctx, tableAchievements, c.ordered("earned_at"), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// AddAchievement records a newly earned badge.
func (c *Client) AddAchievement(ctx context.Context, name, description, icon string) (model.Achievement, error) {
	row := map[string]string{
		"student_id":       c.studentID,
		"achievement_name": name,
		"achievement_desc": description,
		"achievement_icon": icon,
	}
	var created []model.Achievement
	if err := c.insert(ctx, tableAchievements, []map[string]string{row}, &created); err != nil {
		return model.Achievement{}, fmt.Errorf("adding achievement %q: %w", name, err)
	}
	return single(created, tableAchievements)
}

// GetUnlockedRewards returns unlocked rewards, newest first.
func (c *Client) GetUnlockedRewards(ctx context.Context) ([]model.UnlockedReward, error) {
	var rows []model.UnlockedReward
	if err := c.selectRows(ctx, tableUnlockedRewards, c.ordered("unlocked_at"), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// UnlockReward records a reward unlock.
func (c *Client) UnlockReward(ctx context.Context, name, icon, condition string) (model.UnlockedReward, error) {
	row := map[string]string{
		"student_id":       c.studentID,
		"reward_name":      name,
		"reward_icon":      icon,
		"unlock_condition": condition,
	}
	var created []model.UnlockedReward
	if err := c.insert(ctx, tableUnlockedRewards, []map[string]string{row}, &created); err != nil {
		return model.UnlockedReward{}, fmt.Errorf("unlocking reward %q: %w", name, err)
	}
	return single(created, tableUnlockedRewards)
}
