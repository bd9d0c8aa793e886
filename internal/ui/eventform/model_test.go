package eventform

import (
	"testing"

	"github.com/nhle/winterbreak/internal/model"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		h, m    int
		wantErr bool
	}{
		{in: "09:30", h: 9, m: 30},
		{in: " 7:05 ", h: 7, m: 5},
		{in: "24:00", h: 24, m: 0},
		{in: "24:01", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "noon", wantErr: true},
		{in: "1230", wantErr: true},
	}
	for _, tt := range tests {
		h, m, err := ParseClock(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseClock(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClock(%q): %v", tt.in, err)
			continue
		}
		if h != tt.h || m != tt.m {
			t.Errorf("ParseClock(%q) = %d:%d, want %d:%d", tt.in, h, m, tt.h, tt.m)
		}
	}
}

func TestValidateEnd(t *testing.T) {
	m := New(80, 24)
	m.fb.start = "10:00"

	if err := m.validateEnd("09:59"); err == nil {
		t.Error("expected error for end before start")
	}
	if err := m.validateEnd("10:00"); err != nil {
		t.Errorf("zero-length event rejected: %v", err)
	}
}

func TestSubmitKeepsIdentity(t *testing.T) {
	m := New(80, 24)
	ev := model.ScheduleEvent{
		LocalID: 7, Date: "2026-01-05", Title: "Piano",
		StartHour: 15, EndHour: 16, Icon: "🎹", Color: "#5DADE2",
		Status:   model.StatusPending,
		Subtasks: []model.Subtask{{ID: 1, Text: "scales"}},
	}
	m.StartEdit(ev)
	m.fb.title = "Piano lesson"
	m.fb.date = "2026-1-6"
	m.fb.end = "16:30"

	msg, ok := m.handleSubmit()().(EventSubmittedMsg)
	if !ok {
		t.Fatal("expected EventSubmittedMsg")
	}
	if !msg.Edit || msg.FromDate != "2026-01-05" || msg.ID != "7" {
		t.Errorf("unexpected edit target: %+v", msg)
	}
	got := msg.Event
	if got.Date != "2026-01-06" || got.Title != "Piano lesson" || got.EndMin != 30 {
		t.Errorf("unexpected event: %+v", got)
	}
	if len(got.Subtasks) != 1 || got.LocalID != 7 {
		t.Errorf("subtasks or id lost: %+v", got)
	}
}
