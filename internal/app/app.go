package app

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/winterbreak/internal/notify"
	"github.com/nhle/winterbreak/internal/schedule"
	wsync "github.com/nhle/winterbreak/internal/sync"
	"github.com/nhle/winterbreak/internal/ui"
	"github.com/nhle/winterbreak/internal/ui/command"
	configview "github.com/nhle/winterbreak/internal/ui/config"
	"github.com/nhle/winterbreak/internal/ui/dashboard"
	"github.com/nhle/winterbreak/internal/ui/detail"
	"github.com/nhle/winterbreak/internal/ui/eventform"
	helpview "github.com/nhle/winterbreak/internal/ui/help"
	"github.com/nhle/winterbreak/internal/ui/photolist"
	"github.com/nhle/winterbreak/internal/ui/today"
)

// toastTTL is how long a notification stays in the frame.
const toastTTL = 4 * time.Second

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewToday ViewState = iota
	ViewDetail
	ViewHelp
	ViewCommand
	ViewEventCreate
	ViewEventEdit
	ViewConfig
	ViewPhotos
	ViewDashboard
)

// toastMsg carries a notification from the app's channel.
type toastMsg struct{ toast notify.Toast }

// toastExpiredMsg clears the toast shown at time at.
type toastExpiredMsg struct{ at time.Time }

// scheduleChangedMsg is sent after any schedule mutation.
type scheduleChangedMsg struct{}

// clockMsg advances the "now" marker once a minute.
type clockMsg time.Time

// Model is the root Bubble Tea model that manages view routing,
// layout, and access to the App.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	app          *App
	keys         *KeyMap
	today        today.Model
	detail       detail.Model
	helpView     helpview.Model
	commandView  command.Model
	eventForm    eventform.Model
	configView   configview.Model
	photoView    photolist.Model
	board        dashboard.Model
	conn         wsync.State
	pending      int
	toast        *notify.Toast
	changes      chan struct{}
	unsubscribe  func()
	ready        bool
}

// NewModel creates the root application model for a.
func NewModel(a *App) Model {
	keys := DefaultKeyMap()

	changes := make(chan struct{}, 1)
	unsubscribe := a.Schedule().Subscribe(func(schedule.Snapshot) {
		select {
		case changes <- struct{}{}:
		default:
		}
	})

	conn := wsync.StateUnknown
	if !a.RemoteEnabled() {
		conn = wsync.StateLocalOnly
	}

	return Model{
		currentView: ViewToday,
		app:         a,
		keys:        keys,
		today:       today.New(keys, a.Today(), 80, 24),
		detail:      detail.New(keys, 80, 24),
		helpView:    helpview.New(keys, 80, 24),
		commandView: command.New(80, 24),
		eventForm:   eventform.New(80, 24),
		configView:  configview.New(*a.Config(), a.ConfigPath(), keys, 80, 24),
		photoView:   photolist.New(a, keys, 80, 24),
		board:       dashboard.New(board{a: a}, keys, 80, 24),
		conn:        conn,
		pending:     a.Queue().Len(),
		changes:     changes,
		unsubscribe: unsubscribe,
	}
}

// Init loads the current day, hydrates from the remote and starts the
// background listeners.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadDay(m.today.Date()),
		m.loadHabits(),
		m.hydrate(),
		m.app.Monitor().Start(),
		m.waitForToast(),
		m.waitForChange(),
		tickClock(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.layout.StatusBarHeight = 2
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.today.SetSize(contentWidth, contentHeight)
		m.detail.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.commandView.SetSize(contentWidth, contentHeight)
		m.eventForm.SetSize(contentWidth, contentHeight)
		m.configView.SetSize(contentWidth, contentHeight)
		m.photoView.SetSize(contentWidth, contentHeight)
		m.board.SetSize(contentWidth, contentHeight)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case wsync.ConnectivityMsg:
		m.conn = msg.State
		m.pending = m.app.Queue().Len()
		var cmds []tea.Cmd
		if msg.Reconnected && (msg.Flush.Replayed > 0 || msg.Pushed > 0) {
			cmds = append(cmds, m.showToast(notify.Toast{
				Level:   notify.Info,
				Message: fmt.Sprintf("Back online: %d queued, %d new records synced", msg.Flush.Replayed, msg.Pushed),
				At:      time.Now(),
			}))
		}
		cmds = append(cmds, m.app.Monitor().WaitForNextResult())
		return m, tea.Batch(cmds...)

	case hydratedMsg:
		m.pending = m.app.Queue().Len()
		var cmd tea.Cmd
		if n := len(msg.report.Failed) + len(msg.report.Stale); n > 0 && m.app.RemoteEnabled() {
			cmd = m.showToast(notify.Toast{
				Level:   notify.Warn,
				Message: fmt.Sprintf("Offline: showing data on this device (%d remote reads failed)", n),
				At:      time.Now(),
			})
		}
		return m, tea.Batch(cmd, m.loadHabits())

	case toastMsg:
		cmd := m.showToast(msg.toast)
		return m, tea.Batch(cmd, m.waitForToast())

	case toastExpiredMsg:
		if m.toast != nil && m.toast.At.Equal(msg.at) {
			m.toast = nil
		}
		return m, nil

	case scheduleChangedMsg:
		cmds := []tea.Cmd{m.loadDay(m.today.Date()), m.waitForChange()}
		if ev, ok := m.detail.Event(); ok && m.currentView == ViewDetail {
			cmds = append(cmds, m.reloadDetail(ev.Date, ev.Ref()))
		}
		return m, tea.Batch(cmds...)

	case clockMsg:
		now := time.Time(msg)
		m.today.SetToday(m.app.Today(), now)
		return m, tickClock()

	case resultMsg:
		m.pending = m.app.Queue().Len()
		var cmds []tea.Cmd
		if msg.text != "" || msg.err != nil {
			cmds = append(cmds, m.showToast(msg.toast()))
		}
		if msg.habits {
			cmds = append(cmds, m.loadHabits())
		}
		return m, tea.Batch(cmds...)

	case today.DayLoadedMsg, today.HabitsLoadedMsg:
		var cmd tea.Cmd
		m.today, cmd = m.today.Update(msg)
		return m, cmd

	case today.DayChangedMsg:
		return m, m.loadDay(msg.Date)

	case today.NewEventMsg:
		m.previousView = m.currentView
		m.currentView = ViewEventCreate
		cmd := m.eventForm.StartCreate(msg.Date)
		return m, cmd

	case today.EditEventMsg:
		m.previousView = m.currentView
		m.currentView = ViewEventEdit
		cmd := m.eventForm.StartEdit(msg.Event)
		return m, cmd

	case today.SelectedEventMsg:
		m.previousView = m.currentView
		m.currentView = ViewDetail
		m.detail.SetEvent(msg.Event)
		return m, nil

	case today.ToggleEventMsg:
		return m, m.toggleEvent(msg.Date, msg.ID)

	case today.DeleteEventMsg:
		return m, m.deleteEvent(msg.Date, msg.ID)

	case today.ToggleHabitMsg:
		return m, m.toggleHabit(msg.Habit)

	case eventform.EventSubmittedMsg:
		m.currentView = ViewToday
		if msg.Edit {
			return m, m.saveEdit(msg)
		}
		return m, m.createEvent(msg.Event)

	case eventform.EventFormCancelMsg:
		m.currentView = m.previousView
		return m, nil

	case detail.BackMsg:
		m.currentView = ViewToday
		return m, nil

	case configview.ConfigDoneMsg:
		m.currentView = ViewToday
		return m, nil

	case configview.ConfigSavedMsg:
		cmd := m.showToast(notify.Toast{Level: notify.Info, Message: "Settings saved; restart to apply"})
		return m, cmd

	case photolist.PhotoListCloseMsg, dashboard.DashboardCloseMsg:
		m.currentView = ViewToday
		return m, nil

	case detail.SubtaskMsg:
		return m, m.editSubtask(msg)

	case command.CommandMsg:
		m.currentView = m.previousView
		cmd := m.executeCommand(command.Command(msg))
		return m, cmd

	case tea.KeyMsg:
		// Forms and text inputs own every key while active.
		if m.currentView == ViewEventCreate || m.currentView == ViewEventEdit {
			return m.updateActiveView(msg)
		}
		if m.currentView == ViewDetail && m.detail.Adding() {
			return m.updateActiveView(msg)
		}
		if m.currentView == ViewConfig && m.configView.Editing() {
			return m.updateActiveView(msg)
		}
		if m.currentView == ViewPhotos && m.photoView.Editing() {
			return m.updateActiveView(msg)
		}
		if m.currentView == ViewDashboard && m.board.Editing() {
			return m.updateActiveView(msg)
		}

		switch {
		case msg.String() == "ctrl+c":
			return m, tea.Quit

		case key.Matches(msg, m.keys.Quit):
			if m.currentView == ViewCommand {
				break
			}
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			if m.currentView == ViewCommand {
				break
			}
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
			} else {
				m.previousView = m.currentView
				m.currentView = ViewHelp
			}
			return m, nil

		case key.Matches(msg, m.keys.Command):
			if m.currentView == ViewCommand {
				m.currentView = m.previousView
				return m, nil
			}
			m.previousView = m.currentView
			m.currentView = ViewCommand
			cmd := m.commandView.Focus()
			return m, cmd

		case key.Matches(msg, m.keys.Back):
			if m.currentView == ViewHelp || m.currentView == ViewCommand {
				m.currentView = m.previousView
				return m, nil
			}

		case key.Matches(msg, m.keys.Settings):
			if m.currentView == ViewToday {
				m.previousView = m.currentView
				m.currentView = ViewConfig
				return m, m.configView.Init()
			}

		case key.Matches(msg, m.keys.Photos):
			if m.currentView == ViewToday {
				m.previousView = m.currentView
				m.currentView = ViewPhotos
				return m, m.photoView.Init()
			}

		case key.Matches(msg, m.keys.Dashboard):
			if m.currentView == ViewToday {
				m.previousView = m.currentView
				m.currentView = ViewDashboard
				return m, m.board.Init()
			}

		case key.Matches(msg, m.keys.Refresh):
			if m.currentView == ViewToday {
				return m, tea.Batch(m.app.Monitor().Refresh(), m.flush())
			}
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewToday:
		m.today, cmd = m.today.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewEventCreate, ViewEventEdit:
		m.eventForm, cmd = m.eventForm.Update(msg)
	case ViewConfig:
		m.configView, cmd = m.configView.Update(msg)
	case ViewPhotos:
		m.photoView, cmd = m.photoView.Update(msg)
	case ViewDashboard:
		m.board, cmd = m.board.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("Winter Break", m.conn.String(), m.syncDetail())
	content := m.renderContent()

	toastLine := ""
	if m.toast != nil {
		toastLine = m.layout.RenderToast(m.toast.Level.String(), m.toast.Message)
	}
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, toastLine+"\n"+statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewToday:
		return m.today.View()
	case ViewDetail:
		return m.detail.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewEventCreate, ViewEventEdit:
		return m.eventForm.View()
	case ViewConfig:
		return m.configView.View()
	case ViewPhotos:
		return m.photoView.View()
	case ViewDashboard:
		return m.board.View()
	default:
		return ""
	}
}

// syncDetail summarizes what is waiting to reach the remote.
func (m Model) syncDetail() string {
	if m.pending > 0 {
		return fmt.Sprintf("%d queued", m.pending)
	}
	return ""
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return ": close command | enter execute | esc back"
	case ViewDetail:
		if m.detail.Adding() {
			return "enter save | esc cancel"
		}
		return "esc back | a add | x toggle | d delete | j/k move"
	case ViewEventCreate, ViewEventEdit:
		return "enter submit | esc cancel"
	case ViewConfig:
		return "e edit | enter test | esc back"
	case ViewPhotos:
		return "n add | d delete | r sync | esc back"
	case ViewDashboard:
		return "n unlock reward | r counts | esc back"
	default:
		return "q quit | ? help | n new | e edit | x done | enter subtasks | h/l day | tab habits | p photos | b board | r sync"
	}
}

// Close releases the schedule subscription.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

func (m *Model) showToast(t notify.Toast) tea.Cmd {
	if t.At.IsZero() {
		t.At = time.Now()
	}
	m.toast = &t
	at := t.At
	return tea.Tick(toastTTL, func(time.Time) tea.Msg {
		return toastExpiredMsg{at: at}
	})
}

func (m Model) waitForToast() tea.Cmd {
	ch := m.app.Toasts()
	return func() tea.Msg {
		t, ok := <-ch
		if !ok {
			return nil
		}
		return toastMsg{toast: t}
	}
}

func (m Model) waitForChange() tea.Cmd {
	ch := m.changes
	return func() tea.Msg {
		<-ch
		return scheduleChangedMsg{}
	}
}

func tickClock() tea.Cmd {
	return tea.Every(time.Minute, func(t time.Time) tea.Msg {
		return clockMsg(t)
	})
}
