package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Schedule event status values.
const (
	StatusPending   = "pending"
	StatusCurrent   = "current"
	StatusCompleted = "completed"
)

// Defaults applied to events created without an icon or color.
const (
	DefaultEventIcon  = "📌"
	DefaultEventColor = "#F4D03F"
)

// Subtask is a checklist entry inside a schedule event.
type Subtask struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// ScheduleEvent is one timed activity on a single calendar date.
//
// An event always has a LocalID assigned when it is created on this device.
// RemoteID is empty until the remote store has accepted the event and
// returned its own identifier.
type ScheduleEvent struct {
	LocalID  int64  `json:"localId"`
	RemoteID string `json:"remoteId,omitempty"`

	// Date is the canonical YYYY-MM-DD key of the day the event belongs to.
	Date string `json:"date"`

	StartHour int `json:"startHour"`
	StartMin  int `json:"startMin"`
	EndHour   int `json:"endHour"`
	EndMin    int `json:"endMin"`

	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Icon     string `json:"icon"`
	Color    string `json:"color"`
	Status   string `json:"status"`

	// Kind records where the event came from (custom, city, movie).
	Kind string `json:"kind,omitempty"`

	Subtasks []Subtask `json:"subtasks,omitempty"`
}

// Ref returns the identifier callers should use to address the event: the
// remote id once synced, the local id otherwise.
func (e ScheduleEvent) Ref() string {
	if e.RemoteID != "" {
		return e.RemoteID
	}
	return strconv.FormatInt(e.LocalID, 10)
}

// MatchesID reports whether id names this event by either identifier.
func (e ScheduleEvent) MatchesID(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}
	if e.RemoteID != "" && e.RemoteID == id {
		return true
	}
	return e.LocalID != 0 && strconv.FormatInt(e.LocalID, 10) == id
}

// Synced reports whether the remote store knows about this event.
func (e ScheduleEvent) Synced() bool {
	return e.RemoteID != ""
}

// StartMinutes returns the start time as minutes after midnight.
func (e ScheduleEvent) StartMinutes() int {
	return e.StartHour*60 + e.StartMin
}

// EndMinutes returns the end time as minutes after midnight.
func (e ScheduleEvent) EndMinutes() int {
	return e.EndHour*60 + e.EndMin
}

// Validate checks the time range of an event. The schedule store does not
// call it; it is enforced where user input enters the system.
func (e ScheduleEvent) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return fmt.Errorf("event title must not be empty")
	}
	if e.StartHour < 0 || e.StartHour > 24 || e.EndHour < 0 || e.EndHour > 24 {
		return fmt.Errorf("event hours must be within 0-24")
	}
	if e.StartMin < 0 || e.StartMin > 59 || e.EndMin < 0 || e.EndMin > 59 {
		return fmt.Errorf("event minutes must be within 0-59")
	}
	if (e.StartHour == 24 && e.StartMin != 0) || (e.EndHour == 24 && e.EndMin != 0) {
		return fmt.Errorf("event times must not be later than 24:00")
	}
	if e.EndMinutes() < e.StartMinutes() {
		return fmt.Errorf("event must not end (%02d:%02d) before it starts (%02d:%02d)",
			e.EndHour, e.EndMin, e.StartHour, e.StartMin)
	}
	return nil
}

// Clone returns a copy that shares no slices with e.
func (e ScheduleEvent) Clone() ScheduleEvent {
	if e.Subtasks != nil {
		e.Subtasks = append([]Subtask(nil), e.Subtasks...)
	}
	return e
}

// UnmarshalJSON accepts both the current shape and the older one that used
// a single "id" field (a number before sync, a UUID after) together with
// event_title / event_icon / event_subtitle names.
func (e *ScheduleEvent) UnmarshalJSON(data []byte) error {
	type plain ScheduleEvent
	var aux struct {
		plain
		LegacyID       json.RawMessage `json:"id"`
		LegacyTitle    string          `json:"event_title"`
		LegacyIcon     string          `json:"event_icon"`
		LegacySubtitle string          `json:"event_subtitle"`
		LegacyType     string          `json:"type"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*e = ScheduleEvent(aux.plain)

	if len(aux.LegacyID) > 0 && e.LocalID == 0 && e.RemoteID == "" {
		if err := e.adoptLegacyID(aux.LegacyID); err != nil {
			return err
		}
	}
	if e.Title == "" {
		e.Title = aux.LegacyTitle
	}
	if e.Icon == "" {
		e.Icon = aux.LegacyIcon
	}
	if e.Subtitle == "" {
		e.Subtitle = aux.LegacySubtitle
	}
	if e.Kind == "" {
		e.Kind = aux.LegacyType
	}
	return nil
}

// adoptLegacyID resolves the old single-field id once, at decode time.
func (e *ScheduleEvent) adoptLegacyID(raw json.RawMessage) error {
	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		if n, err := num.Int64(); err == nil {
			e.LocalID = n
			return nil
		}
		if f, err := num.Float64(); err == nil {
			e.LocalID = int64(f)
			return nil
		}
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return fmt.Errorf("decoding legacy event id %s: %w", string(raw), err)
	}
	if IsRemoteID(s) {
		e.RemoteID = s
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		e.LocalID = n
	}
	return nil
}

// IsRemoteID reports whether s is shaped like a server-assigned identifier.
func IsRemoteID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// EventPatch is a partial update for a schedule event. Nil fields are left
// untouched.
type EventPatch struct {
	RemoteID  *string
	StartHour *int
	StartMin  *int
	EndHour   *int
	EndMin    *int
	Title     *string
	Subtitle  *string
	Icon      *string
	Color     *string
	Status    *string
	Subtasks  *[]Subtask
}

// Apply returns e with the patch fields merged in.
func (p EventPatch) Apply(e ScheduleEvent) ScheduleEvent {
	if p.RemoteID != nil {
		e.RemoteID = *p.RemoteID
	}
	if p.StartHour != nil {
		e.StartHour = *p.StartHour
	}
	if p.StartMin != nil {
		e.StartMin = *p.StartMin
	}
	if p.EndHour != nil {
		e.EndHour = *p.EndHour
	}
	if p.EndMin != nil {
		e.EndMin = *p.EndMin
	}
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Subtitle != nil {
		e.Subtitle = *p.Subtitle
	}
	if p.Icon != nil {
		e.Icon = *p.Icon
	}
	if p.Color != nil {
		e.Color = *p.Color
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
	if p.Subtasks != nil {
		e.Subtasks = append([]Subtask(nil), (*p.Subtasks)...)
	}
	return e
}
