package today

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/winterbreak/internal/model"
	"github.com/nhle/winterbreak/internal/theme"
)

// EventItem wraps a schedule event so it can be used in a bubbles/list.
type EventItem struct {
	Event model.ScheduleEvent
}

// FilterValue returns the string used for fuzzy filtering.
func (i EventItem) FilterValue() string { return i.Event.Title }

// Title returns the event title for the list.
func (i EventItem) Title() string { return i.Event.Title }

// Description returns the time range and status.
func (i EventItem) Description() string {
	return TimeRange(i.Event) + " | " + i.Event.Status
}

// TimeRange formats an event's start and end as HH:MM-HH:MM.
func TimeRange(e model.ScheduleEvent) string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", e.StartHour, e.StartMin, e.EndHour, e.EndMin)
}

// EventDelegate implements list.ItemDelegate for timeline rows.
type EventDelegate struct {
	// now is the minute of day used to mark the running event, or -1.
	now *int
}

// Height returns the number of lines each item takes.
func (d EventDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d EventDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused for now).
func (d EventDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single timeline row.
func (d EventDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ei, ok := item.(EventItem)
	if !ok {
		return
	}
	e := ei.Event
	isSelected := index == m.Index()

	mark := "○"
	switch {
	case e.Status == model.StatusCompleted:
		mark = "✓"
	case d.running(e):
		mark = "▶"
	}

	title := e.Title
	if e.Subtitle != "" {
		title += " · " + e.Subtitle
	}
	if n := len(e.Subtasks); n > 0 {
		done := 0
		for _, st := range e.Subtasks {
			if st.Done {
				done++
			}
		}
		title += fmt.Sprintf(" [%d/%d]", done, n)
	}
	if !e.Synced() {
		title += " *"
	}

	width := m.Width() - 20
	if width < 10 {
		width = 10
	}
	if lipgloss.Width(title) > width {
		title = truncate(title, width)
	}

	line := strings.Join([]string{
		theme.TimeStyle.Render(TimeRange(e)),
		theme.EventColor(e.Color).Render(mark),
		e.Icon,
		title,
	}, " ")

	if e.Status == model.StatusCompleted {
		line = theme.DimmedStyle.Render(line)
	}
	if isSelected {
		fmt.Fprint(w, theme.SelectedItemStyle.Render(line))
		return
	}
	fmt.Fprint(w, theme.ListItemStyle.Render(line))
}

func (d EventDelegate) running(e model.ScheduleEvent) bool {
	if d.now == nil || *d.now < 0 {
		return false
	}
	return e.StartMinutes() <= *d.now && *d.now < e.EndMinutes()
}

func truncate(s string, width int) string {
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes)) > width-1 {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
