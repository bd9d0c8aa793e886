// Package today renders one day of the plan: the event timeline and the
// habit checklist.
package today

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/winterbreak/internal/datekey"
	"github.com/nhle/winterbreak/internal/habit"
	"github.com/nhle/winterbreak/internal/keys"
	"github.com/nhle/winterbreak/internal/model"
	"github.com/nhle/winterbreak/internal/theme"
)

// HabitRow is one line of the habit panel.
type HabitRow struct {
	Key       string
	Info      habit.Info
	Completed bool
	Streak    int
}

// DayLoadedMsg carries the events of a date.
type DayLoadedMsg struct {
	Date   string
	Events []model.ScheduleEvent
}

// HabitsLoadedMsg carries the habit panel rows and today's progress.
type HabitsLoadedMsg struct {
	Rows     []HabitRow
	Progress model.DailyProgress
}

// DayChangedMsg asks the root model to load another date.
type DayChangedMsg struct{ Date string }

// NewEventMsg asks for the event form on Date.
type NewEventMsg struct{ Date string }

// EditEventMsg asks for the event form prefilled with Event.
type EditEventMsg struct{ Event model.ScheduleEvent }

// SelectedEventMsg opens the subtask view for an event.
type SelectedEventMsg struct{ Event model.ScheduleEvent }

// ToggleEventMsg flips an event between pending and completed.
type ToggleEventMsg struct{ Date, ID string }

// DeleteEventMsg removes an event.
type DeleteEventMsg struct{ Date, ID string }

// ToggleHabitMsg flips a habit for today.
type ToggleHabitMsg struct{ Habit string }

type panel int

const (
	panelSchedule panel = iota
	panelHabits
)

// Model is the main day view component.
type Model struct {
	list     list.Model
	keys     *keys.KeyMap
	date     string
	today    string
	habits   []HabitRow
	progress model.DailyProgress
	cursor   int
	focus    panel
	nowMin   *int
	width    int
	height   int
}

// New creates a day view showing date.
func New(k *keys.KeyMap, date string, width, height int) Model {
	nowMin := -1
	delegate := EventDelegate{now: &nowMin}
	l := list.New([]list.Item{}, delegate, width, height-2)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.SetShowTitle(false)

	return Model{
		list:   l,
		keys:   k,
		date:   date,
		today:  date,
		nowMin: &nowMin,
		width:  width,
		height: height,
	}
}

// Date returns the date currently shown.
func (m Model) Date() string { return m.date }

// SetToday sets the date the "now" marker and habit panel refer to.
func (m *Model) SetToday(date string, now time.Time) {
	m.today = date
	if m.date == date {
		*m.nowMin = now.Hour()*60 + now.Minute()
	} else {
		*m.nowMin = -1
	}
}

// Update handles messages for the day view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case DayLoadedMsg:
		m.date = msg.Date
		if m.date != m.today {
			*m.nowMin = -1
		}
		items := make([]list.Item, len(msg.Events))
		for i, e := range msg.Events {
			items[i] = EventItem{Event: e}
		}
		cmd := m.list.SetItems(items)
		return m, cmd

	case HabitsLoadedMsg:
		m.habits = msg.Rows
		m.progress = msg.Progress
		if m.cursor >= len(m.habits) {
			m.cursor = max(0, len(m.habits)-1)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.SwitchPanel):
		if m.focus == panelSchedule {
			m.focus = panelHabits
		} else {
			m.focus = panelSchedule
		}
		return m, nil

	case key.Matches(msg, m.keys.PrevDay):
		return m, changeDay(datekey.AddDays(m.date, -1))

	case key.Matches(msg, m.keys.NextDay):
		return m, changeDay(datekey.AddDays(m.date, 1))

	case key.Matches(msg, m.keys.Today):
		return m, changeDay(m.today)

	case key.Matches(msg, m.keys.New):
		date := m.date
		return m, func() tea.Msg { return NewEventMsg{Date: date} }
	}

	if m.focus == panelHabits {
		return m.handleHabitKeys(msg)
	}
	return m.handleScheduleKeys(msg)
}

func (m Model) handleScheduleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	item, ok := m.list.SelectedItem().(EventItem)

	switch {
	case key.Matches(msg, m.keys.Toggle):
		if ok {
			return m, send(ToggleEventMsg{Date: m.date, ID: item.Event.Ref()})
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if ok {
			return m, send(DeleteEventMsg{Date: m.date, ID: item.Event.Ref()})
		}
		return m, nil

	case key.Matches(msg, m.keys.Edit):
		if ok {
			return m, send(EditEventMsg{Event: item.Event})
		}
		return m, nil

	case key.Matches(msg, m.keys.Select):
		if ok {
			return m, send(SelectedEventMsg{Event: item.Event})
		}
		return m, nil
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleHabitKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.habits)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Toggle), key.Matches(msg, m.keys.Select):
		if m.cursor < len(m.habits) {
			return m, send(ToggleHabitMsg{Habit: m.habits[m.cursor].Key})
		}
	}
	return m, nil
}

func changeDay(date string) tea.Cmd {
	return send(DayChangedMsg{Date: date})
}

func send(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

// View renders the timeline next to the habit panel.
func (m Model) View() string {
	left, right := m.panelWidths()
	schedule := lipgloss.NewStyle().Width(left).Render(m.renderSchedule())
	habits := lipgloss.NewStyle().Width(right).Render(m.renderHabits())
	return lipgloss.JoinHorizontal(lipgloss.Top, schedule, habits)
}

func (m Model) panelWidths() (int, int) {
	right := 34
	if m.width < 80 {
		right = m.width / 3
	}
	return m.width - right, right
}

func (m Model) renderSchedule() string {
	title := m.date
	if t, err := datekey.Parse(m.date); err == nil {
		title = t.Format("Mon Jan 2")
	}
	if m.date == m.today {
		title += " · today"
	}
	if m.focus == panelSchedule {
		title = "▸ " + title
	}
	header := theme.PanelTitleStyle.Render(title)

	if len(m.list.Items()) == 0 {
		empty := lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Padding(1, 2).
			Render("Nothing planned.\nPress n to add an event.")
		return lipgloss.JoinVertical(lipgloss.Left, header, empty)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, m.list.View())
}

func (m Model) renderHabits() string {
	title := "Habits"
	if m.focus == panelHabits {
		title = "▸ " + title
	}

	var b strings.Builder
	for i, h := range m.habits {
		mark := "○"
		if h.Completed {
			mark = "✓"
		}
		line := fmt.Sprintf("%s %s %s", mark, h.Info.Icon, h.Info.Name)
		if h.Streak > 1 {
			line += theme.DimmedStyle.Render(fmt.Sprintf(" %dd", h.Streak))
		}
		switch {
		case m.focus == panelHabits && i == m.cursor:
			line = theme.SelectedItemStyle.Render(line)
		case h.Completed:
			line = theme.ListItemStyle.Inherit(theme.DimmedStyle).Render(line)
		default:
			line = theme.ListItemStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}

	progress := fmt.Sprintf("\nhabits  %s\nmath    %s\nenglish %s",
		percent(m.progress.Habits), percent(m.progress.Math), percent(m.progress.English))

	return lipgloss.JoinVertical(lipgloss.Left,
		theme.PanelTitleStyle.Render(title),
		b.String(),
		progress,
	)
}

func percent(p int) string {
	return theme.ProgressStyle(p).Render(fmt.Sprintf("%3d%%", p))
}

// SelectedEvent returns the highlighted event, if any.
func (m Model) SelectedEvent() (model.ScheduleEvent, bool) {
	item, ok := m.list.SelectedItem().(EventItem)
	return item.Event, ok
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	left, _ := m.panelWidths()
	m.list.SetSize(left, height-2)
}
