package help

import (
	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/winterbreak/internal/keys"
	"github.com/nhle/winterbreak/internal/theme"
)

// Commands lists the palette commands shown under the key bindings.
var Commands = []string{
	"sync                        replay queued writes now",
	"today | goto DATE           change the day shown",
	"math N | english N          set today's study progress",
	"choose TYPE INTEREST TITLE  record today's choice",
	"export FILE                 write the schedule as .ics",
	"import FILE                 add events from an .ics file",
	"report [DATE]               mail or save the daily report",
	"photos | board | settings   open the album, dashboard or settings",
	"quit",
}

// Model is the help overlay view.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:   keys,
		help:   h,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the help overlay.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("Keyboard Shortcuts")

	m.help.Width = m.width - 4
	m.help.ShowAll = true
	helpText := m.help.View(m.keys)

	cmdTitle := titleStyle.MarginTop(1).Render("Commands (:)")
	var cmds string
	for _, c := range Commands {
		cmds += theme.HelpStyle.Render(c) + "\n"
	}

	content := lipgloss.JoinVertical(lipgloss.Left, title, helpText, cmdTitle, cmds)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(content)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
