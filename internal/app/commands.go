package app

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/winterbreak/internal/datekey"
	"github.com/nhle/winterbreak/internal/habit"
	"github.com/nhle/winterbreak/internal/model"
	"github.com/nhle/winterbreak/internal/notify"
	wsync "github.com/nhle/winterbreak/internal/sync"
	"github.com/nhle/winterbreak/internal/ui/command"
	"github.com/nhle/winterbreak/internal/ui/detail"
	"github.com/nhle/winterbreak/internal/ui/eventform"
	"github.com/nhle/winterbreak/internal/ui/today"
)

// opTimeout bounds a single user action including its remote calls.
const opTimeout = 30 * time.Second

// hydratedMsg is sent after the startup remote load.
type hydratedMsg struct{ report LoadReport }

// resultMsg reports the outcome of a user action.
type resultMsg struct {
	text   string
	err    error
	habits bool
}

func (r resultMsg) toast() notify.Toast {
	if r.err != nil {
		return notify.Toast{Level: notify.Error, Message: r.err.Error(), At: time.Now()}
	}
	return notify.Toast{Level: notify.Info, Message: r.text, At: time.Now()}
}

func opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), opTimeout)
}

// statusText describes where a write ended up.
func statusText(what string, ws wsync.WriteStatus) string {
	switch ws {
	case wsync.Queued:
		return what + " (queued until online)"
	case wsync.LocalOnly:
		return what + " (saved on this device)"
	default:
		return what
	}
}

// loadDay returns a command that reads one date from the schedule store.
func (m Model) loadDay(date string) tea.Cmd {
	a := m.app
	return func() tea.Msg {
		return today.DayLoadedMsg{Date: date, Events: a.Schedule().GetByDate(date)}
	}
}

// loadHabits returns a command that builds the habit panel rows.
func (m Model) loadHabits() tea.Cmd {
	a := m.app
	return func() tea.Msg {
		habits := a.Habits().Habits()
		keys := a.Habits().Keys()
		rows := make([]today.HabitRow, 0, len(keys))
		for _, k := range keys {
			row := today.HabitRow{Key: k, Info: habit.Describe(k), Streak: a.Habits().Streak(k)}
			if h, ok := habits[k]; ok && h != nil {
				row.Completed = h.Completed
			}
			rows = append(rows, row)
		}
		return today.HabitsLoadedMsg{Rows: rows, Progress: a.Habits().Progress()}
	}
}

// hydrate returns a command that merges remote state into local state.
func (m Model) hydrate() tea.Cmd {
	a := m.app
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*opTimeout)
		defer cancel()
		return hydratedMsg{report: a.Load(ctx)}
	}
}

// reloadDetail returns a command that re-reads the event shown in the
// detail view.
func (m Model) reloadDetail(date, id string) tea.Cmd {
	a := m.app
	return func() tea.Msg {
		_, ev, ok := a.locate(date, id)
		if !ok {
			return detail.BackMsg{}
		}
		return detail.EventLoadedMsg{Event: ev}
	}
}

func (m Model) createEvent(ev model.ScheduleEvent) tea.Cmd {
	a := m.app
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()
		saved, err := a.AddEvent(ctx, ev.Date, ev)
		if err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{text: fmt.Sprintf("Added %q on %s", saved.Title, saved.Date)}
	}
}

// saveEdit applies a submitted edit, moving the event first when its date
// changed.
func (m Model) saveEdit(msg eventform.EventSubmittedMsg) tea.Cmd {
	a := m.app
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()

		ev := msg.Event
		id := msg.ID
		if msg.FromDate != ev.Date {
			moved, err := a.Reschedule(ctx, msg.FromDate, id, ev.Date,
				ev.StartHour, ev.StartMin, ev.EndHour, ev.EndMin)
			if err != nil {
				return resultMsg{err: err}
			}
			id = moved.Ref()
		}
		saved, err := a.EditEvent(ctx, ev.Date, id, model.EventPatch{
			StartHour: &ev.StartHour,
			StartMin:  &ev.StartMin,
			EndHour:   &ev.EndHour,
			EndMin:    &ev.EndMin,
			Title:     &ev.Title,
			Subtitle:  &ev.Subtitle,
			Icon:      &ev.Icon,
			Color:     &ev.Color,
		})
		if err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{text: fmt.Sprintf("Saved %q", saved.Title)}
	}
}

func (m Model) toggleEvent(date, id string) tea.Cmd {
	a := m.app
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()
		ev, ws, err := a.ToggleStatus(ctx, date, id)
		if err != nil {
			return resultMsg{err: err}
		}
		if ev.Status == model.StatusCompleted {
			return resultMsg{text: statusText("Done: "+ev.Title, ws)}
		}
		return resultMsg{text: statusText("Reopened: "+ev.Title, ws)}
	}
}

func (m Model) deleteEvent(date, id string) tea.Cmd {
	a := m.app
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()
		ev, err := a.DeleteEvent(ctx, date, id)
		if err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{text: fmt.Sprintf("Deleted %q", ev.Title)}
	}
}

func (m Model) toggleHabit(habitType string) tea.Cmd {
	a := m.app
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()
		res, err := a.ToggleHabit(ctx, habitType)
		if err != nil {
			return resultMsg{err: err, habits: true}
		}
		// Confirmed toggles are visible in the panel; only report the rest.
		text := ""
		if res.Status != wsync.Confirmed && a.RemoteEnabled() {
			text = statusText(habit.Describe(habitType).Name, res.Status)
		}
		return resultMsg{text: text, habits: true}
	}
}

func (m Model) editSubtask(msg detail.SubtaskMsg) tea.Cmd {
	a := m.app
	return func() tea.Msg {
		var err error
		switch msg.Action {
		case "add":
			_, err = a.AddSubtask(msg.Date, msg.EventID, msg.Text)
		case "toggle":
			_, err = a.ToggleSubtask(msg.Date, msg.EventID, msg.SubtaskID)
		case "delete":
			_, err = a.DeleteSubtask(msg.Date, msg.EventID, msg.SubtaskID)
		default:
			err = fmt.Errorf("unknown subtask action %q", msg.Action)
		}
		if err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{}
	}
}

// flush returns a command that replays the offline queue on demand.
func (m Model) flush() tea.Cmd {
	a := m.app
	return func() tea.Msg {
		if !a.RemoteEnabled() {
			return resultMsg{text: "No remote configured; everything is saved on this device"}
		}
		ctx, cancel := opContext()
		defer cancel()
		res, pushed := a.Flush(ctx)
		return resultMsg{
			text: fmt.Sprintf("Sync: %d replayed, %d kept, %d dropped, %d pushed",
				res.Replayed, res.Retained, res.Dropped, pushed),
			habits: true,
		}
	}
}

// executeCommand handles a command from the command palette.
func (m *Model) executeCommand(cmd command.Command) tea.Cmd {
	a := m.app
	switch cmd.Name {
	case "sync":
		return m.flush()

	case "quit":
		return tea.Quit

	case "settings", "config":
		m.previousView = ViewToday
		m.currentView = ViewConfig
		return m.configView.Init()

	case "photos":
		m.previousView = ViewToday
		m.currentView = ViewPhotos
		return m.photoView.Init()

	case "board", "dashboard":
		m.previousView = ViewToday
		m.currentView = ViewDashboard
		return m.board.Init()

	case "today":
		return m.loadDay(a.Today())

	case "goto":
		date, ok := datekey.Normalize(cmd.Arg(0))
		if !ok {
			return result(resultMsg{err: fmt.Errorf("goto: %q is not a date", cmd.Arg(0))})
		}
		return m.loadDay(date)

	case model.ProgressMath, model.ProgressEnglish:
		n, err := strconv.Atoi(cmd.Arg(0))
		if err != nil {
			return result(resultMsg{err: fmt.Errorf("%s: want a percentage", cmd.Name)})
		}
		field := cmd.Name
		return func() tea.Msg {
			ctx, cancel := opContext()
			defer cancel()
			ws, err := a.SetProgress(ctx, field, n)
			if err != nil {
				return resultMsg{err: err}
			}
			return resultMsg{text: statusText(fmt.Sprintf("%s progress saved", field), ws), habits: true}
		}

	case "choose":
		choiceType, interest, title := cmd.Arg(0), cmd.Arg(1), cmd.Rest(2)
		return func() tea.Msg {
			ctx, cancel := opContext()
			defer cancel()
			res, err := a.RecordChoice(ctx, choiceType, title, interest)
			if err != nil {
				return resultMsg{err: err}
			}
			return resultMsg{text: statusText(fmt.Sprintf("Chose %q; %s is now %d", title, res.Interest, res.Score), res.Status)}
		}

	case "export":
		path := cmd.Arg(0)
		if path == "" {
			path = "winterbreak.ics"
		}
		return func() tea.Msg {
			f, err := os.Create(path)
			if err != nil {
				return resultMsg{err: err}
			}
			defer f.Close()
			if err := a.ExportCalendar(f); err != nil {
				return resultMsg{err: err}
			}
			return resultMsg{text: "Exported schedule to " + path}
		}

	case "import":
		path := cmd.Arg(0)
		return func() tea.Msg {
			f, err := os.Open(path)
			if err != nil {
				return resultMsg{err: err}
			}
			defer f.Close()
			ctx, cancel := opContext()
			defer cancel()
			n, err := a.ImportCalendar(ctx, f)
			if err != nil {
				return resultMsg{err: err}
			}
			return resultMsg{text: fmt.Sprintf("Imported %d events from %s", n, path)}
		}

	case "report":
		date := a.Today()
		if cmd.Arg(0) != "" {
			d, ok := datekey.Normalize(cmd.Arg(0))
			if !ok {
				return result(resultMsg{err: fmt.Errorf("report: %q is not a date", cmd.Arg(0))})
			}
			date = d
		}
		if a.Config().Report.Enabled() {
			return func() tea.Msg {
				ctx, cancel := opContext()
				defer cancel()
				if err := a.SendReport(ctx, date); err != nil {
					return resultMsg{err: err}
				}
				return resultMsg{text: "Report for " + date + " saved to " + a.Config().Report.Mailbox}
			}
		}
		path := "winterbreak-" + date + ".eml"
		return func() tea.Msg {
			f, err := os.Create(path)
			if err != nil {
				return resultMsg{err: err}
			}
			defer f.Close()
			ctx, cancel := opContext()
			defer cancel()
			if err := a.WriteReport(ctx, f, date); err != nil {
				return resultMsg{err: err}
			}
			return resultMsg{text: "Report written to " + path}
		}

	default:
		return result(resultMsg{err: fmt.Errorf("unknown command %q", cmd.Name)})
	}
}

func result(r resultMsg) tea.Cmd {
	return func() tea.Msg { return r }
}
