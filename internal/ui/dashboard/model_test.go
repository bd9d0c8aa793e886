package dashboard

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/winterbreak/internal/keys"
	"github.com/nhle/winterbreak/internal/model"
)

type fakeSource struct {
	data     Data
	counts   Counts
	countErr error
	unlocked []string
}

func (f *fakeSource) Summary() Data { return f.data }

func (f *fakeSource) Counts(context.Context) (Counts, error) { return f.counts, f.countErr }

func (f *fakeSource) UnlockReward(_ context.Context, name, icon, condition string) (model.UnlockedReward, error) {
	f.unlocked = append(f.unlocked, name)
	r := model.UnlockedReward{Name: name, Icon: icon, UnlockCondition: condition}
	f.data.Rewards = append(f.data.Rewards, r)
	return r, nil
}

func TestViewShowsSummary(t *testing.T) {
	src := &fakeSource{data: Data{
		Student:   model.Student{Name: "Mia", Avatar: "🐧"},
		Interests: model.Interests{"art": 30, "science": 70},
		Weekly:    []model.WeeklyAchievement{{Date: "2026-01-05", Title: "Spelling bee", Icon: "🐝", Score: 95}},
	}}
	m := New(src, keys.DefaultKeyMap(), 100, 40)
	m, _ = m.Update(m.Init()())

	out := m.View()
	for _, want := range []string{"Mia", "science", "Spelling bee", "none unlocked"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if strings.Index(out, "science") > strings.Index(out, "art ") {
		t.Error("higher interest should be listed first")
	}
}

func TestCounts(t *testing.T) {
	src := &fakeSource{counts: Counts{MathDays: 4, EnglishDays: 2, HabitChecks: map[string]int{"reading": 9}}}
	m := New(src, keys.DefaultKeyMap(), 100, 40)

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	m, _ = m.Update(cmd())
	if m.counts == nil || m.counts.MathDays != 4 {
		t.Fatalf("counts = %+v", m.counts)
	}
	if !strings.Contains(m.View(), "math days     4") {
		t.Error("counts not rendered")
	}

	src.countErr = errors.New("offline")
	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	m, _ = m.Update(cmd())
	if m.statusMsg != "Error: offline" {
		t.Errorf("status = %q", m.statusMsg)
	}
}

func TestUnlockReward(t *testing.T) {
	src := &fakeSource{}
	m := New(src, keys.DefaultKeyMap(), 100, 40)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})
	if !m.Editing() {
		t.Fatal("expected form mode")
	}

	m.fb.name = " Movie night "
	m.fb.icon = "🎬"
	m, cmd := m.Update(m.saveReward()())
	if len(src.unlocked) != 1 || src.unlocked[0] != "Movie night" {
		t.Errorf("unlocked = %v", src.unlocked)
	}
	if m.Editing() || m.statusMsg != "Unlocked 🎬 Movie night" {
		t.Errorf("mode = %v status = %q", m.mode, m.statusMsg)
	}
	m, _ = m.Update(cmd())
	if len(m.data.Rewards) != 1 {
		t.Errorf("rewards = %d", len(m.data.Rewards))
	}
}

func TestRenderInterestsClampsBar(t *testing.T) {
	out := renderInterests(model.Interests{"music": 250})
	if !strings.Contains(out, "250") {
		t.Errorf("score missing: %q", out)
	}
}
