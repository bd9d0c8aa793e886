package photolist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/mitchellh/go-homedir"

	"github.com/nhle/winterbreak/internal/datekey"
	"github.com/nhle/winterbreak/internal/keys"
	"github.com/nhle/winterbreak/internal/photos"
	"github.com/nhle/winterbreak/internal/theme"
)

// Library is what the photo view reads and changes.
type Library interface {
	Photos(ctx context.Context) []photos.Entry
	AddPhoto(ctx context.Context, date, data string) (photos.Entry, error)
	DeletePhoto(ctx context.Context, id string) (photos.Entry, error)
	SyncPhotos(ctx context.Context) (photos.SyncResult, error)
}

// PhotoListCloseMsg signals the parent to close the photo view.
type PhotoListCloseMsg struct{}

type photoMode int

const (
	modeList photoMode = iota
	modeForm
	modeConfirmDelete
)

type formBindings struct {
	path    string
	date    string
	confirm bool
}

type photosLoadedMsg struct {
	photos []photos.Entry
}

type photoChangedMsg struct {
	status string
	err    error
}

// opTimeout bounds uploads and deletes.
const opTimeout = 60 * time.Second

// Model is the Bubble Tea model for the photo album.
type Model struct {
	mode        photoMode
	lib         Library
	keys        *keys.KeyMap
	photos      []photos.Entry
	selectedIdx int
	form        *huh.Form
	confirmForm *huh.Form
	fb          *formBindings
	statusMsg   string
	today       func() string
	width       int
	height      int
}

// New creates a new photo album model.
func New(lib Library, k *keys.KeyMap, width, height int) Model {
	return Model{
		mode:  modeList,
		lib:   lib,
		keys:  k,
		fb:    &formBindings{},
		today: datekey.Today,
		width: width, height: height,
	}
}

// Init loads the album.
func (m Model) Init() tea.Cmd {
	return m.loadPhotos()
}

// Editing reports whether a form owns the keyboard.
func (m Model) Editing() bool {
	return m.mode != modeList
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case photosLoadedMsg:
		m.photos = msg.photos
		if m.selectedIdx >= len(m.photos) && m.selectedIdx > 0 {
			m.selectedIdx = len(m.photos) - 1
		}
		return m, nil

	case photoChangedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.statusMsg = msg.status
		}
		m.mode = modeList
		return m, m.loadPhotos()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateActiveForm(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case modeList:
		return m.handleListKey(msg)
	case modeForm:
		return m.updateForm(msg)
	case modeConfirmDelete:
		return m.updateConfirm(msg)
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return PhotoListCloseMsg{} }

	case key.Matches(msg, m.keys.Down):
		if len(m.photos) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.photos)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.photos) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.photos) - 1
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.New):
		m.fb.path = ""
		m.fb.date = m.today()
		m.form = m.buildForm()
		m.mode = modeForm
		cmd := m.form.Init()
		return m, cmd

	case key.Matches(msg, m.keys.Delete):
		if len(m.photos) == 0 {
			return m, nil
		}
		m.fb.confirm = false
		m.confirmForm = m.buildConfirmForm()
		m.mode = modeConfirmDelete
		cmd := m.confirmForm.Init()
		return m, cmd

	case key.Matches(msg, m.keys.Refresh):
		m.statusMsg = "Syncing..."
		return m, m.syncPhotos()
	}
	return m, nil
}

func (m Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Image File").
				Placeholder("~/Pictures/snowman.jpg").
				Value(&m.fb.path).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("path is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Date").
				Placeholder("YYYY-MM-DD").
				Value(&m.fb.date).
				Validate(func(s string) error {
					if _, ok := datekey.Normalize(s); !ok {
						return fmt.Errorf("invalid date, use YYYY-MM-DD")
					}
					return nil
				}),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) buildConfirmForm() *huh.Form {
	label := ""
	if m.selectedIdx < len(m.photos) {
		p := m.photos[m.selectedIdx]
		label = p.Date + " " + p.ID
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete photo %s?", label)).
				Description("It is removed from this device and the remote album.").
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(&m.fb.confirm),
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
		return m, m.addPhoto()
	}
	if m.form.State == huh.StateAborted {
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirmForm == nil {
		return m, nil
	}
	mdl, cmd := m.confirmForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmForm = f
	}
	if m.confirmForm.State == huh.StateCompleted {
		if m.fb.confirm && m.selectedIdx < len(m.photos) {
			p := m.photos[m.selectedIdx]
			return m, m.deletePhoto(p.ID)
		}
		m.mode = modeList
		return m, nil
	}
	if m.confirmForm.State == huh.StateAborted {
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m Model) updateActiveForm(msg tea.Msg) (Model, tea.Cmd) {
	switch m.mode {
	case modeForm:
		return m.updateForm(msg)
	case modeConfirmDelete:
		return m.updateConfirm(msg)
	}
	return m, nil
}

// View renders the album.
func (m Model) View() string {
	switch m.mode {
	case modeForm:
		return m.viewForm(m.form)
	case modeConfirmDelete:
		return m.viewForm(m.confirmForm)
	default:
		return m.viewList()
	}
}

func (m Model) viewList() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	b.WriteString(titleStyle.Render("Photo Album"))
	b.WriteString("\n\n")

	if len(m.photos) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
		b.WriteString(emptyStyle.Render("No photos yet. Press 'n' to add one."))
	} else {
		for i, p := range m.photos {
			mark := "☁"
			if !p.Synced() {
				mark = "*"
			}
			label := fmt.Sprintf("📷 %s  %s  %s %s", p.Date, p.ID, photos.MediaType(p.Data), mark)

			if i == m.selectedIdx {
				b.WriteString(theme.SelectedItemStyle.Render(label))
			} else {
				b.WriteString(theme.ListItemStyle.Render(label))
			}
			b.WriteString("\n")
		}
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).Render(
		"n add | d delete | r sync | esc back",
	))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

func (m Model) viewForm(f *huh.Form) string {
	if f == nil {
		return ""
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(f.View())
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

func (m Model) loadPhotos() tea.Cmd {
	lib := m.lib
	return func() tea.Msg {
		return photosLoadedMsg{photos: lib.Photos(context.Background())}
	}
}

func (m Model) addPhoto() tea.Cmd {
	lib := m.lib
	path := strings.TrimSpace(m.fb.path)
	date := m.fb.date
	return func() tea.Msg {
		data, err := photos.EncodeFile(expandHome(path))
		if err != nil {
			return photoChangedMsg{err: err}
		}
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		e, err := lib.AddPhoto(ctx, date, data)
		if err != nil {
			return photoChangedMsg{err: err}
		}
		return photoChangedMsg{status: fmt.Sprintf("Added photo %s for %s", e.ID, e.Date)}
	}
}

func (m Model) deletePhoto(id string) tea.Cmd {
	lib := m.lib
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		_, err := lib.DeletePhoto(ctx, id)
		return photoChangedMsg{status: "Photo deleted", err: err}
	}
}

func (m Model) syncPhotos() tea.Cmd {
	lib := m.lib
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		res, err := lib.SyncPhotos(ctx)
		if err != nil {
			return photoChangedMsg{err: err}
		}
		return photoChangedMsg{status: fmt.Sprintf("Uploaded %d, downloaded %d", res.Pushed, res.Pulled)}
	}
}

func expandHome(p string) string {
	expanded, err := homedir.Expand(p)
	if err != nil {
		return p
	}
	return expanded
}
