package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DefaultHabitKeys lists the habits tracked when the config names none.
var DefaultHabitKeys = []string{
	"wake", "sleep", "spine", "exercise", "math", "english", "piano",
}

// HabitRecord is the completion state of one habit.
//
// Older data stored a bare boolean per habit; UnmarshalJSON accepts both
// shapes so the rest of the code only ever sees this struct.
type HabitRecord struct {
	Completed      bool     `json:"completed"`
	CompletedDates []string `json:"completedDates"`
}

// UnmarshalJSON decodes either a boolean or the object form.
func (h *HabitRecord) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*h = HabitRecord{}
		return nil
	}

	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*h = HabitRecord{Completed: b}
		return nil
	}

	type plain HabitRecord
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decoding habit record: %w", err)
	}
	*h = HabitRecord(p)
	return nil
}

// CompletedOn reports whether dateKey is in the completion history.
func (h HabitRecord) CompletedOn(dateKey string) bool {
	for _, d := range h.CompletedDates {
		if d == dateKey {
			return true
		}
	}
	return false
}

// Habits maps habit type to its record.
type Habits map[string]*HabitRecord

// CompletedCount returns how many of keys are currently completed.
func (hs Habits) CompletedCount(keys []string) int {
	n := 0
	for _, k := range keys {
		if r, ok := hs[k]; ok && r != nil && r.Completed {
			n++
		}
	}
	return n
}
