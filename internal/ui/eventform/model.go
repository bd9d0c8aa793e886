package eventform

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/winterbreak/internal/datekey"
	"github.com/nhle/winterbreak/internal/model"
	"github.com/nhle/winterbreak/internal/theme"
)

// EventSubmittedMsg is dispatched when the form is completed. For an edit,
// FromDate and ID name the original event.
type EventSubmittedMsg struct {
	Event    model.ScheduleEvent
	Edit     bool
	FromDate string
	ID       string
}

// EventFormCancelMsg is dispatched when the user cancels the form.
type EventFormCancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title    string
	subtitle string
	icon     string
	color    string
	date     string
	start    string
	end      string
}

// Model is the Bubble Tea model for the event create/edit form.
type Model struct {
	form     *huh.Form
	fb       *formBindings
	editMode bool
	original model.ScheduleEvent
	width    int
	height   int
}

// New creates a new event form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// StartCreate initializes the form for a new event on date.
func (m *Model) StartCreate(date string) tea.Cmd {
	m.editMode = false
	m.original = model.ScheduleEvent{}
	*m.fb = formBindings{
		icon:  model.DefaultEventIcon,
		color: model.DefaultEventColor,
		date:  date,
		start: "09:00",
		end:   "10:00",
	}
	m.form = m.buildForm()
	return m.form.Init()
}

// StartEdit initializes the form with an existing event.
func (m *Model) StartEdit(ev model.ScheduleEvent) tea.Cmd {
	m.editMode = true
	m.original = ev.Clone()
	*m.fb = formBindings{
		title:    ev.Title,
		subtitle: ev.Subtitle,
		icon:     ev.Icon,
		color:    ev.Color,
		date:     ev.Date,
		start:    FormatClock(ev.StartHour, ev.StartMin),
		end:      FormatClock(ev.EndHour, ev.EndMin),
	}
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the event form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return EventFormCancelMsg{} }
	}

	return m, cmd
}

// View renders the event form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "New Event"
	if m.editMode {
		titleText = "Edit Event"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render(titleText) + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Placeholder("What is happening?").
				Value(&m.fb.title).
				Validate(validateRequired("Title")),
			huh.NewInput().
				Title("Subtitle").
				Placeholder("Optional").
				Value(&m.fb.subtitle),
			huh.NewInput().
				Title("Icon").
				CharLimit(8).
				Value(&m.fb.icon),
			huh.NewInput().
				Title("Date").
				Placeholder("YYYY-MM-DD").
				Value(&m.fb.date).
				Validate(validateDate),
			huh.NewInput().
				Title("Start").
				Placeholder("HH:MM").
				Value(&m.fb.start).
				Validate(validateClock),
			huh.NewInput().
				Title("End").
				Placeholder("HH:MM").
				Value(&m.fb.end).
				Validate(m.validateEnd),
			huh.NewSelect[string]().
				Title("Color").
				Options(colorOptions(m.fb.color)...).
				Value(&m.fb.color),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

var palette = []struct{ name, hex string }{
	{"Yellow", model.DefaultEventColor},
	{"Green", "#58D68D"},
	{"Blue", "#5DADE2"},
	{"Purple", "#AF7AC5"},
	{"Orange", "#F0B27A"},
	{"Red", "#EC7063"},
}

func colorOptions(current string) []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(palette)+1)
	found := false
	for _, c := range palette {
		opts = append(opts, huh.NewOption(c.name, c.hex))
		if strings.EqualFold(c.hex, current) {
			found = true
		}
	}
	if current != "" && !found {
		opts = append(opts, huh.NewOption(current, current))
	}
	return opts
}

func (m Model) handleSubmit() tea.Cmd {
	date, _ := datekey.Normalize(m.fb.date)
	sh, sm, _ := ParseClock(m.fb.start)
	eh, em, _ := ParseClock(m.fb.end)

	ev := m.original
	ev.Date = date
	ev.Title = strings.TrimSpace(m.fb.title)
	ev.Subtitle = strings.TrimSpace(m.fb.subtitle)
	ev.Icon = strings.TrimSpace(m.fb.icon)
	ev.Color = m.fb.color
	ev.StartHour, ev.StartMin = sh, sm
	ev.EndHour, ev.EndMin = eh, em

	msg := EventSubmittedMsg{Event: ev, Edit: m.editMode}
	if m.editMode {
		msg.FromDate = m.original.Date
		msg.ID = m.original.Ref()
	}
	return func() tea.Msg { return msg }
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

// ParseClock parses "HH:MM" into hour and minute. 24:00 is accepted as the
// end of the day.
func ParseClock(s string) (int, int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, 0, fmt.Errorf("use HH:MM")
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, 0, fmt.Errorf("use HH:MM")
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, 0, fmt.Errorf("use HH:MM")
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, 0, fmt.Errorf("%s is not a time of day", s)
	}
	return h, m, nil
}

// FormatClock renders hour and minute as HH:MM.
func FormatClock(h, m int) string {
	return fmt.Sprintf("%02d:%02d", h, m)
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateDate(s string) error {
	if _, ok := datekey.Normalize(s); !ok {
		return fmt.Errorf("invalid date, use YYYY-MM-DD")
	}
	return nil
}

func validateClock(s string) error {
	_, _, err := ParseClock(s)
	return err
}

func (m Model) validateEnd(s string) error {
	eh, em, err := ParseClock(s)
	if err != nil {
		return err
	}
	sh, sm, err := ParseClock(m.fb.start)
	if err != nil {
		return nil
	}
	if eh*60+em < sh*60+sm {
		return fmt.Errorf("end must not be before start")
	}
	return nil
}
