package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/winterbreak/internal/keys"
	"github.com/nhle/winterbreak/internal/model"
	"github.com/nhle/winterbreak/internal/theme"
)

// BackMsg signals the parent to navigate back to the day view.
type BackMsg struct{}

// EventLoadedMsg replaces the event being shown, typically after a
// subtask change was saved.
type EventLoadedMsg struct {
	Event model.ScheduleEvent
}

// SubtaskMsg asks the parent to change a subtask of the current event.
type SubtaskMsg struct {
	Action    string // "add", "toggle" or "delete"
	Date      string
	EventID   string
	SubtaskID int64
	Text      string
}

// Model is the event detail view: header plus subtask checklist.
type Model struct {
	event    *model.ScheduleEvent
	viewport viewport.Model
	input    textinput.Model
	adding   bool
	cursor   int
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	ti := textinput.New()
	ti.Placeholder = "new subtask"
	ti.Prompt = "+ "
	ti.CharLimit = 200
	ti.Width = width - 8

	return Model{
		viewport: vp,
		input:    ti,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Adding reports whether the subtask input has focus.
func (m Model) Adding() bool { return m.adding }

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case EventLoadedMsg:
		m.SetEvent(msg.Event)
		return m, nil

	case tea.KeyMsg:
		if m.adding {
			return m.updateInput(msg)
		}
		return m.handleKeys(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) updateInput(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.adding = false
		m.input.Blur()
		m.input.Reset()
		m.refresh()
		return m, nil
	case "enter":
		text := strings.TrimSpace(m.input.Value())
		m.adding = false
		m.input.Blur()
		m.input.Reset()
		m.refresh()
		if text == "" || m.event == nil {
			return m, nil
		}
		return m, m.send("add", 0, text)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.refresh()
	return m, cmd
}

func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return BackMsg{} }

	case key.Matches(msg, m.keys.AddSubtask):
		if m.event == nil {
			return m, nil
		}
		m.adding = true
		cmd := m.input.Focus()
		m.refresh()
		return m, cmd

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
			m.refresh()
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.event != nil && m.cursor < len(m.event.Subtasks)-1 {
			m.cursor++
			m.refresh()
		}
		return m, nil

	case key.Matches(msg, m.keys.Toggle):
		if st, ok := m.selected(); ok {
			return m, m.send("toggle", st.ID, "")
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if st, ok := m.selected(); ok {
			return m, m.send("delete", st.ID, "")
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) selected() (model.Subtask, bool) {
	if m.event == nil || m.cursor >= len(m.event.Subtasks) {
		return model.Subtask{}, false
	}
	return m.event.Subtasks[m.cursor], true
}

func (m Model) send(action string, subtaskID int64, text string) tea.Cmd {
	msg := SubtaskMsg{
		Action:    action,
		Date:      m.event.Date,
		EventID:   m.event.Ref(),
		SubtaskID: subtaskID,
		Text:      text,
	}
	return func() tea.Msg { return msg }
}

// View renders the detail view.
func (m Model) View() string {
	if m.event == nil {
		emptyStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return emptyStyle.Render("No event selected")
	}
	return m.viewport.View()
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderContent())
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.event == nil {
		return ""
	}

	ev := m.event
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(strings.TrimSpace(ev.Icon+" "+ev.Title)))

	timeRange := fmt.Sprintf("%02d:%02d-%02d:%02d", ev.StartHour, ev.StartMin, ev.EndHour, ev.EndMin)
	badgeLine := lipgloss.JoinHorizontal(
		lipgloss.Top,
		theme.TimeStyle.Render(timeRange),
		"  ",
		theme.StatusStyle(ev.Status).Render(ev.Status),
	)
	sections = append(sections, badgeLine)

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	if ev.Subtitle != "" {
		sections = append(sections, metaStyle.Render(ev.Subtitle))
	}
	sync := "not synced yet"
	if ev.Synced() {
		sync = "synced"
	}
	sections = append(sections, metaStyle.Render(fmt.Sprintf("%s · %s", ev.Date, sync)))

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(min(m.width-4, 80), 0)))
	sections = append(sections, "", separator, "")

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	done := 0
	for _, st := range ev.Subtasks {
		if st.Done {
			done++
		}
	}
	sections = append(sections, headerStyle.Render(
		fmt.Sprintf("Subtasks (%d/%d)", done, len(ev.Subtasks)),
	))

	if len(ev.Subtasks) == 0 && !m.adding {
		sections = append(sections, lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("No subtasks. Press a to add one."))
	}
	for i, st := range ev.Subtasks {
		mark := "[ ]"
		if st.Done {
			mark = "[x]"
		}
		line := mark + " " + st.Text
		switch {
		case i == m.cursor && !m.adding:
			line = theme.SelectedItemStyle.Render(line)
		case st.Done:
			line = theme.ListItemStyle.Inherit(theme.DimmedStyle).Render(line)
		default:
			line = theme.ListItemStyle.Render(line)
		}
		sections = append(sections, line)
	}
	if m.adding {
		sections = append(sections, m.input.View())
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetEvent updates the event being displayed and re-renders the content.
func (m *Model) SetEvent(ev model.ScheduleEvent) {
	same := m.event != nil && m.event.Ref() == ev.Ref()
	c := ev.Clone()
	m.event = &c
	if !same {
		m.cursor = 0
		m.viewport.GotoTop()
	}
	if m.cursor >= len(c.Subtasks) {
		m.cursor = max(0, len(c.Subtasks)-1)
	}
	m.refresh()
}

// Event returns the event being shown.
func (m Model) Event() (model.ScheduleEvent, bool) {
	if m.event == nil {
		return model.ScheduleEvent{}, false
	}
	return *m.event, true
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	m.input.Width = width - 8
	m.refresh()
}
