package remote

import (
	"time"

	"github.com/nhle/winterbreak/internal/model"
)

// ProgressRow is a daily_progress row.
type ProgressRow struct {
	ID        string `json:"id,omitempty"`
	StudentID string `json:"student_id"`
	Date      string `json:"date"`
	model.DailyProgress
}

// HabitCheckRow is a habit_checks row.
type HabitCheckRow struct {
	ID          string     `json:"id,omitempty"`
	StudentID   string     `json:"student_id"`
	Date        string     `json:"date"`
	HabitType   string     `json:"habit_type"`
	IsCompleted bool       `json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at"`
}

// InterestRow is an interest_scores row.
type InterestRow struct {
	StudentID    string    `json:"student_id"`
	InterestType string    `json:"interest_type"`
	Score        int       `json:"score"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ChoiceRow is a daily_choices row.
type ChoiceRow struct {
	ID          string `json:"id,omitempty"`
	StudentID   string `json:"student_id"`
	Date        string `json:"date"`
	ChoiceType  string `json:"choice_type"`
	ChoiceTitle string `json:"choice_title"`
}

// ScheduleItemRow is a schedule_items row.
type ScheduleItemRow struct {
	ID          string `json:"id,omitempty"`
	StudentID   string `json:"student_id"`
	Date        string `json:"date"`
	EventTitle  string `json:"event_title"`
	EventIcon   string `json:"event_icon"`
	StartHour   int    `json:"start_hour"`
	StartMinute int    `json:"start_minute"`
	EndHour     int    `json:"end_hour"`
	EndMinute   int    `json:"end_minute"`
	Color       string `json:"color"`
	Status      string `json:"status"`
}

// Event converts the row into a synced schedule event.
func (r ScheduleItemRow) Event() model.ScheduleEvent {
	return model.ScheduleEvent{
		RemoteID:  r.ID,
		Date:      r.Date,
		StartHour: r.StartHour,
		StartMin:  r.StartMinute,
		EndHour:   r.EndHour,
		EndMin:    r.EndMinute,
		Title:     r.EventTitle,
		Icon:      r.EventIcon,
		Color:     r.Color,
		Status:    r.Status,
	}
}

func scheduleRowFor(studentID string, e model.ScheduleEvent) ScheduleItemRow {
	icon := e.Icon
	if icon == "" {
		icon = model.DefaultEventIcon
	}
	color := e.Color
	if color == "" {
		color = model.DefaultEventColor
	}
	status := e.Status
	if status == "" {
		status = model.StatusPending
	}
	return ScheduleItemRow{
		StudentID:   studentID,
		Date:        e.Date,
		EventTitle:  e.Title,
		EventIcon:   icon,
		StartHour:   e.StartHour,
		StartMinute: e.StartMin,
		EndHour:     e.EndHour,
		EndMinute:   e.EndMin,
		Color:       color,
		Status:      status,
	}
}
