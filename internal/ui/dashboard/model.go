package dashboard

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/winterbreak/internal/habit"
	"github.com/nhle/winterbreak/internal/keys"
	"github.com/nhle/winterbreak/internal/model"
	"github.com/nhle/winterbreak/internal/theme"
)

// Data is everything the dashboard shows without a remote round trip.
type Data struct {
	Student      model.Student
	Weekly       []model.WeeklyAchievement
	Achievements []model.Achievement
	Rewards      []model.UnlockedReward
	Interests    model.Interests
	LastChoice   *model.Choice
}

// Counts are lifetime totals read from the remote.
type Counts struct {
	MathDays    int
	EnglishDays int
	HabitChecks map[string]int
}

// Source supplies the dashboard.
type Source interface {
	Summary() Data
	Counts(ctx context.Context) (Counts, error)
	UnlockReward(ctx context.Context, name, icon, condition string) (model.UnlockedReward, error)
}

// DashboardCloseMsg signals the parent to close the dashboard.
type DashboardCloseMsg struct{}

type dashMode int

const (
	modeView dashMode = iota
	modeForm
)

type formBindings struct {
	name      string
	icon      string
	condition string
}

type dataLoadedMsg struct{ data Data }

type countsLoadedMsg struct {
	counts Counts
	err    error
}

type rewardSavedMsg struct {
	reward model.UnlockedReward
	err    error
}

// countTimeout bounds the remote count queries.
const countTimeout = 30 * time.Second

// Model is the Bubble Tea model for the progress dashboard.
type Model struct {
	mode      dashMode
	src       Source
	keys      *keys.KeyMap
	data      Data
	counts    *Counts
	form      *huh.Form
	fb        *formBindings
	statusMsg string
	width     int
	height    int
}

// New creates a dashboard model.
func New(src Source, k *keys.KeyMap, width, height int) Model {
	return Model{
		mode:  modeView,
		src:   src,
		keys:  k,
		fb:    &formBindings{},
		width: width, height: height,
	}
}

// Init loads the cached summary.
func (m Model) Init() tea.Cmd {
	return m.loadData()
}

// Editing reports whether the reward form owns the keyboard.
func (m Model) Editing() bool {
	return m.mode == modeForm
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case dataLoadedMsg:
		m.data = msg.data
		return m, nil

	case countsLoadedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		c := msg.counts
		m.counts = &c
		m.statusMsg = ""
		return m, nil

	case rewardSavedMsg:
		m.mode = modeView
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		m.statusMsg = fmt.Sprintf("Unlocked %s %s", msg.reward.Icon, msg.reward.Name)
		return m, m.loadData()

	case tea.KeyMsg:
		if m.mode == modeForm {
			return m.updateForm(msg)
		}
		return m.handleKey(msg)
	}

	if m.mode == modeForm {
		return m.updateForm(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return DashboardCloseMsg{} }

	case key.Matches(msg, m.keys.Refresh):
		m.statusMsg = "Counting..."
		return m, m.loadCounts()

	case key.Matches(msg, m.keys.New):
		m.fb.name = ""
		m.fb.icon = "🏆"
		m.fb.condition = ""
		m.form = m.buildForm()
		m.mode = modeForm
		cmd := m.form.Init()
		return m, cmd
	}
	return m, nil
}

func (m Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Reward").
				Placeholder("Movie night").
				Value(&m.fb.name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Icon").
				Placeholder("🏆").
				Value(&m.fb.icon),
			huh.NewInput().
				Title("Unlocked By").
				Placeholder("7 days of reading").
				Value(&m.fb.condition),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	if m.form.State == huh.StateCompleted {
		return m, m.saveReward()
	}
	if m.form.State == huh.StateAborted {
		m.mode = modeView
		return m, nil
	}
	return m, cmd
}

// View renders the dashboard.
func (m Model) View() string {
	if m.mode == modeForm && m.form != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.form.View())
	}

	var b strings.Builder
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue).MarginTop(1)
	dim := lipgloss.NewStyle().Foreground(theme.ColorGray)

	name := m.data.Student.Name
	if name == "" {
		name = "Student"
	}
	b.WriteString(titleStyle.Render(strings.TrimSpace(m.data.Student.Avatar + " " + name)))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("Interests"))
	b.WriteString("\n")
	b.WriteString(renderInterests(m.data.Interests))
	if m.data.LastChoice != nil {
		c := m.data.LastChoice
		b.WriteString(dim.Render(fmt.Sprintf("last choice: %s (%s) on %s", c.Title, c.Type, c.Date)))
		b.WriteString("\n")
	}

	b.WriteString(sectionStyle.Render("This Week"))
	b.WriteString("\n")
	if len(m.data.Weekly) == 0 {
		b.WriteString(dim.Render("nothing yet"))
		b.WriteString("\n")
	}
	for _, w := range m.data.Weekly {
		b.WriteString(fmt.Sprintf("%s %s  %s  %d", w.Icon, w.Date, w.Title, w.Score))
		if w.Comment != "" {
			b.WriteString(dim.Render("  " + w.Comment))
		}
		b.WriteString("\n")
	}

	b.WriteString(sectionStyle.Render("Achievements"))
	b.WriteString("\n")
	if len(m.data.Achievements) == 0 {
		b.WriteString(dim.Render("none earned"))
		b.WriteString("\n")
	}
	for _, a := range m.data.Achievements {
		b.WriteString(fmt.Sprintf("%s %s", a.Icon, a.Name))
		if a.Description != "" {
			b.WriteString(dim.Render("  " + a.Description))
		}
		b.WriteString("\n")
	}

	b.WriteString(sectionStyle.Render("Rewards"))
	b.WriteString("\n")
	if len(m.data.Rewards) == 0 {
		b.WriteString(dim.Render("none unlocked"))
		b.WriteString("\n")
	}
	for _, r := range m.data.Rewards {
		b.WriteString(fmt.Sprintf("%s %s", r.Icon, r.Name))
		if r.UnlockCondition != "" {
			b.WriteString(dim.Render("  " + r.UnlockCondition))
		}
		b.WriteString("\n")
	}

	if m.counts != nil {
		b.WriteString(sectionStyle.Render("All Time"))
		b.WriteString("\n")
		b.WriteString(renderCounts(*m.counts))
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(dim.Render("n unlock reward | r all-time counts | esc back"))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

// renderInterests draws one bar per interest, highest score first.
func renderInterests(in model.Interests) string {
	if len(in) == 0 {
		return lipgloss.NewStyle().Foreground(theme.ColorGray).Render("no choices yet") + "\n"
	}
	names := make([]string, 0, len(in))
	for k := range in {
		names = append(names, k)
	}
	slices.SortFunc(names, func(a, b string) int {
		if in[a] != in[b] {
			return in[b] - in[a]
		}
		return strings.Compare(a, b)
	})

	var b strings.Builder
	for _, k := range names {
		score := in[k]
		filled := min(max(score*20/model.MaxInterestScore, 0), 20)
		bar := lipgloss.NewStyle().Foreground(theme.ColorGreen).Render(strings.Repeat("█", filled)) +
			lipgloss.NewStyle().Foreground(theme.ColorGray).Render(strings.Repeat("░", 20-filled))
		b.WriteString(fmt.Sprintf("%-10s %s %3d\n", k, bar, score))
	}
	return b.String()
}

func renderCounts(c Counts) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("math days     %d\n", c.MathDays))
	b.WriteString(fmt.Sprintf("english days  %d\n", c.EnglishDays))
	habits := make([]string, 0, len(c.HabitChecks))
	for k := range c.HabitChecks {
		habits = append(habits, k)
	}
	slices.Sort(habits)
	for _, k := range habits {
		info := habit.Describe(k)
		b.WriteString(fmt.Sprintf("%s %-11s %d\n", info.Icon, info.Name, c.HabitChecks[k]))
	}
	return b.String()
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
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

func (m Model) loadData() tea.Cmd {
	src := m.src
	return func() tea.Msg {
		return dataLoadedMsg{data: src.Summary()}
	}
}

func (m Model) loadCounts() tea.Cmd {
	src := m.src
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), countTimeout)
		defer cancel()
		c, err := src.Counts(ctx)
		return countsLoadedMsg{counts: c, err: err}
	}
}

func (m Model) saveReward() tea.Cmd {
	src := m.src
	name := strings.TrimSpace(m.fb.name)
	icon := strings.TrimSpace(m.fb.icon)
	condition := strings.TrimSpace(m.fb.condition)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), countTimeout)
		defer cancel()
		r, err := src.UnlockReward(ctx, name, icon, condition)
		return rewardSavedMsg{reward: r, err: err}
	}
}
