package model

import (
	"encoding/json"
	"time"
)

// ActionType tags a replayable remote write.
type ActionType string

// The closed set of actions the offline queue can replay.
const (
	ActionToggleHabit          ActionType = "toggle-habit"
	ActionUpdateProgress       ActionType = "update-progress"
	ActionRecordChoice         ActionType = "record-choice"
	ActionUpdateInterest       ActionType = "update-interest"
	ActionUpdateTimelineStatus ActionType = "update-timeline-status"
)

// Action is a remote write intent.
type Action struct {
	Type    ActionType      `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// QueueEntry is an Action waiting for replay.
type QueueEntry struct {
	Action
	ID       int64 `json:"id"`
	Attempts int   `json:"attempts"`
}

// CacheEntry is the last good value of a remote resource.
type CacheEntry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// Payloads carried by queued actions. They hold absolute values so a replay
// after a partial failure converges instead of toggling twice.

// HabitCheckPayload sets one habit's completion for a date.
type HabitCheckPayload struct {
	HabitType string `json:"habit_type"`
	Date      string `json:"date"`
	Completed bool   `json:"completed"`
}

// ProgressPayload sets one daily_progress field.
type ProgressPayload struct {
	Date  string `json:"date"`
	Field string `json:"field"`
	Value int    `json:"value"`
}

// ChoicePayload records the day's choice.
type ChoicePayload struct {
	Date  string `json:"date"`
	Type  string `json:"choice_type"`
	Title string `json:"choice_title"`
}

// InterestPayload sets an interest score.
type InterestPayload struct {
	InterestType string `json:"interest_type"`
	Score        int    `json:"score"`
}

// TimelineStatusPayload sets the status of a synced schedule item.
type TimelineStatusPayload struct {
	RemoteID string `json:"remote_id"`
	Status   string `json:"status"`
}
