package app

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"github.com/nhle/winterbreak/internal/model"
	"github.com/nhle/winterbreak/internal/store"
	wsync "github.com/nhle/winterbreak/internal/sync"
)

// InterestStep is how much one choice raises its interest score.
const InterestStep = 10

// ChoiceResult reports the outcome of RecordChoice.
type ChoiceResult struct {
	Choice   model.Choice
	Interest string
	Score    int
	Status   wsync.WriteStatus
}

// Interests returns a copy of the interest scores.
func (a *App) Interests() model.Interests {
	a.mu.Lock()
	defer a.mu.Unlock()
	return maps.Clone(a.interests)
}

// LastChoice returns the most recent choice, if any.
func (a *App) LastChoice() (model.Choice, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.choice == nil {
		return model.Choice{}, false
	}
	return *a.choice, true
}

// RecordChoice stores today's choice and raises the matching interest by
// InterestStep, capped at model.MaxInterestScore. Both writes are mirrored
// through the offline-safe path.
func (a *App) RecordChoice(ctx context.Context, choiceType, title, interest string) (ChoiceResult, error) {
	choiceType = strings.TrimSpace(choiceType)
	title = strings.TrimSpace(title)
	interest = strings.TrimSpace(interest)
	if choiceType == "" || title == "" {
		return ChoiceResult{}, fmt.Errorf("choice type and title are required")
	}
	if interest == "" {
		return ChoiceResult{}, fmt.Errorf("interest type is required")
	}

	choice := model.Choice{Date: a.Today(), Type: choiceType, Title: title}

	a.mu.Lock()
	score := min(a.interests[interest]+InterestStep, model.MaxInterestScore)
	a.interests[interest] = score
	a.choice = &choice
	a.local.Save(store.KeyInterests, a.interests)
	a.local.Save(store.KeyChoice, choice)
	a.mu.Unlock()

	a.log.Debug("choice recorded", "choice_type", choiceType, "interest", interest, "score", score)

	status := a.syncer.Write(ctx, model.ActionRecordChoice, model.ChoicePayload{
		Date: choice.Date, Type: choiceType, Title: title,
	})
	a.syncer.Write(ctx, model.ActionUpdateInterest, model.InterestPayload{
		InterestType: interest, Score: score,
	})

	return ChoiceResult{Choice: choice, Interest: interest, Score: score, Status: status}, nil
}

// mergeInterests adopts remote scores. While the offline queue holds
// writes, a higher local score is kept since it has not been replayed yet.
func (a *App) mergeInterests(scores model.Interests) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for k, v := range scores {
		if v > a.interests[k] || a.queue.Len() == 0 {
			a.interests[k] = v
		}
	}
	a.local.Save(store.KeyInterests, a.interests)
}
