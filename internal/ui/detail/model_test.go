package detail

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/winterbreak/internal/keys"
	"github.com/nhle/winterbreak/internal/model"
)

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func testEvent() model.ScheduleEvent {
	return model.ScheduleEvent{
		LocalID: 3, Date: "2026-01-05", Title: "Math", StartHour: 9, EndHour: 10,
		Status: model.StatusPending,
		Subtasks: []model.Subtask{
			{ID: 1, Text: "chapter 1"},
			{ID: 2, Text: "chapter 2"},
		},
	}
}

func TestToggleSendsSelectedSubtask(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 24)
	m.SetEvent(testEvent())

	m, _ = m.Update(runeKey('j'))
	_, cmd := m.Update(runeKey('x'))
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg, ok := cmd().(SubtaskMsg)
	if !ok {
		t.Fatalf("expected SubtaskMsg, got %T", cmd())
	}
	if msg.Action != "toggle" || msg.SubtaskID != 2 || msg.EventID != "3" || msg.Date != "2026-01-05" {
		t.Errorf("unexpected message: %+v", msg)
	}
}

func TestAddSubtask(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 24)
	m.SetEvent(testEvent())

	m, _ = m.Update(runeKey('a'))
	if !m.Adding() {
		t.Fatal("expected input focus")
	}
	for _, r := range "review" {
		m, _ = m.Update(runeKey(r))
	}
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.Adding() {
		t.Error("input should close after enter")
	}
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg := cmd().(SubtaskMsg)
	if msg.Action != "add" || msg.Text != "review" {
		t.Errorf("unexpected message: %+v", msg)
	}
}

func TestSetEventClampsCursor(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 24)
	ev := testEvent()
	m.SetEvent(ev)
	m, _ = m.Update(runeKey('j'))

	ev.Subtasks = ev.Subtasks[:1]
	m.SetEvent(ev)
	if _, ok := m.selected(); !ok {
		t.Error("cursor should stay on an existing subtask")
	}
}
