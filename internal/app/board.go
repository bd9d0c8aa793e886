package app

import (
	"context"

	"github.com/nhle/winterbreak/internal/model"
	"github.com/nhle/winterbreak/internal/ui/dashboard"
)

// board exposes the App to the dashboard view.
type board struct{ a *App }

func (b board) Summary() dashboard.Data {
	d := b.a.Dashboard()
	data := dashboard.Data{
		Student:      d.Student,
		Weekly:       d.Weekly,
		Achievements: d.Achievements,
		Rewards:      d.Rewards,
		Interests:    b.a.Interests(),
	}
	if c, ok := b.a.LastChoice(); ok {
		data.LastChoice = &c
	}
	return data
}

func (b board) Counts(ctx context.Context) (dashboard.Counts, error) {
	s, err := b.a.Stats(ctx)
	if err != nil {
		return dashboard.Counts{}, err
	}
	return dashboard.Counts{MathDays: s.MathDays, EnglishDays: s.EnglishDays, HabitChecks: s.HabitChecks}, nil
}

func (b board) UnlockReward(ctx context.Context, name, icon, condition string) (model.UnlockedReward, error) {
	return b.a.UnlockReward(ctx, name, icon, condition)
}
