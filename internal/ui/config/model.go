package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/nhle/winterbreak/internal/credential"
	"github.com/nhle/winterbreak/internal/keys"
	"github.com/nhle/winterbreak/internal/model"
	"github.com/nhle/winterbreak/internal/remote"
	"github.com/nhle/winterbreak/internal/theme"
)

// ConfigMode represents the current state of the settings view.
type ConfigMode int

const (
	ModeSummary        ConfigMode = iota // Show the current remote settings
	ModeForm                             // Edit remote settings
	ModeValidating                       // Testing connection
	ModeValidateResult                   // Show validation result
)

// ConfigDoneMsg signals the settings view should close.
type ConfigDoneMsg struct{}

// ConfigSavedMsg signals the settings were written. They apply on the
// next start.
type ConfigSavedMsg struct {
	Config model.AppConfig
}

// ValidateResultMsg carries the result of a connection test.
type ValidateResultMsg struct {
	Err error
}

// configSavedInternalMsg is sent after the settings are persisted.
type configSavedInternalMsg struct {
	cfg model.AppConfig
	err error
}

// Saver persists settings. The default writes the YAML file and the
// keyring entry.
type Saver func(path string, cfg *model.AppConfig, key string) error

// Pinger tests a remote configuration.
type Pinger func(ctx context.Context, cfg model.RemoteConfig) error

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	url       string
	studentID string
	key       string
	name      string
}

// Model is the Bubble Tea model for the remote settings view.
type Model struct {
	mode   ConfigMode
	cfg    model.AppConfig
	path   string
	form   *huh.Form
	fb     *formBindings
	save   Saver
	ping   Pinger
	keySet bool

	validError error
	spinner    spinner.Model
	statusMsg  string

	keys          *keys.KeyMap
	width, height int
}

// New creates a settings view for cfg, saved to path.
func New(cfg model.AppConfig, path string, k *keys.KeyMap, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		mode:    ModeSummary,
		cfg:     cfg,
		path:    path,
		fb:      &formBindings{},
		save:    SaveSettings,
		ping:    PingRemote,
		keySet:  cfg.Remote.Key != "",
		keys:    k,
		spinner: sp,
		width:   width,
		height:  height,
	}
}

// WithSaver replaces how settings are persisted.
func (m Model) WithSaver(s Saver) Model {
	m.save = s
	return m
}

// WithPinger replaces the connection test.
func (m Model) WithPinger(p Pinger) Model {
	m.ping = p
	return m
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Editing reports whether the form owns the keyboard.
func (m Model) Editing() bool {
	return m.mode == ModeForm
}

// Update handles messages and dispatches based on current mode.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case ValidateResultMsg:
		m.validError = msg.Err
		m.mode = ModeValidateResult
		return m, nil

	case configSavedInternalMsg:
		m.mode = ModeSummary
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error saving settings: %v", msg.err)
			return m, nil
		}
		m.cfg = msg.cfg
		m.statusMsg = "Settings saved; restart to apply"
		cfg := msg.cfg
		return m, func() tea.Msg { return ConfigSavedMsg{Config: cfg} }

	case spinner.TickMsg:
		if m.mode == ModeValidating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	if m.mode == ModeForm {
		return m.updateForm(msg)
	}
	return m, nil
}

// handleKeyMsg processes key messages based on the current mode.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case ModeSummary:
		return m.handleSummaryKeys(msg)
	case ModeForm:
		return m.updateForm(msg)
	case ModeValidateResult:
		return m.handleValidateResultKeys(msg)
	case ModeValidating:
		// Only allow escape during validation
		if msg.String() == "esc" {
			m.mode = ModeSummary
			return m, nil
		}
	}
	return m, nil
}

func (m Model) handleSummaryKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return ConfigDoneMsg{} }

	case key.Matches(msg, m.keys.Edit), msg.String() == "enter":
		*m.fb = formBindings{
			url:       m.cfg.Remote.URL,
			studentID: m.cfg.Remote.StudentID,
			name:      m.cfg.Profile.Name,
		}
		m.statusMsg = ""
		m.mode = ModeForm
		m.form = m.buildForm()
		cmd := m.form.Init()
		return m, cmd
	}
	return m, nil
}

func (m Model) handleValidateResultKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "s":
		m.mode = ModeValidating
		return m, m.persist()
	case "r":
		m.mode = ModeValidating
		return m, tea.Batch(m.spinner.Tick, m.validate())
	case "esc":
		m.mode = ModeSummary
		m.validError = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Remote URL").
				Description("Row store endpoint; leave empty to stay on this device").
				Placeholder("https://example.supabase.co").
				Value(&m.fb.url).
				Validate(validateOptionalURL),
			huh.NewInput().
				Title("Student ID").
				Placeholder(model.DefaultStudentID).
				Value(&m.fb.studentID).
				Validate(validateOptionalUUID),
			huh.NewInput().
				Title("Access Key").
				Description("Stored in the system keyring; leave empty to keep the current one").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.key).
				Validate(validateOptionalKey),
			huh.NewInput().
				Title("Your Name").
				Value(&m.fb.name),
		),
	).WithWidth(m.formWidth())
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
		m.applyForm()
		if m.cfg.Remote.URL == "" {
			m.mode = ModeValidating
			return m, m.persist()
		}
		m.mode = ModeValidating
		return m, tea.Batch(m.spinner.Tick, m.validate())
	}
	if m.form.State == huh.StateAborted {
		m.mode = ModeSummary
		return m, nil
	}

	return m, cmd
}

func (m *Model) applyForm() {
	m.cfg.Remote.URL = strings.TrimRight(strings.TrimSpace(m.fb.url), "/")
	m.cfg.Remote.StudentID = strings.TrimSpace(m.fb.studentID)
	if m.cfg.Remote.StudentID == "" {
		m.cfg.Remote.StudentID = model.DefaultStudentID
	}
	if k := strings.TrimSpace(m.fb.key); k != "" {
		m.cfg.Remote.Key = k
		m.keySet = true
	}
	m.cfg.Profile.Name = strings.TrimSpace(m.fb.name)
	m.fb.key = ""
}

func (m Model) validate() tea.Cmd {
	ping := m.ping
	rc := m.cfg.Remote
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return ValidateResultMsg{Err: ping(ctx, rc)}
	}
}

func (m Model) persist() tea.Cmd {
	save := m.save
	path := m.path
	cfg := m.cfg
	return func() tea.Msg {
		key := cfg.Remote.Key
		err := save(path, &cfg, key)
		return configSavedInternalMsg{cfg: cfg, err: err}
	}
}

// SaveSettings writes cfg to path and the access key to the keyring.
func SaveSettings(path string, cfg *model.AppConfig, key string) error {
	if key != "" {
		if err := credential.Set(credential.RemoteKey, key); err != nil {
			return fmt.Errorf("storing access key: %w", err)
		}
	}
	return model.SaveConfig(path, cfg)
}

// PingRemote checks that the remote answers with cfg.
func PingRemote(ctx context.Context, cfg model.RemoteConfig) error {
	c := remote.NewClient(cfg)
	if !c.Enabled() {
		return remote.ErrDisabled
	}
	return c.Ping(ctx)
}

// View renders the settings view.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	var body string
	switch m.mode {
	case ModeForm:
		if m.form != nil {
			body = m.form.View()
		}
	case ModeValidating:
		body = m.spinner.View() + " Testing connection..."
	case ModeValidateResult:
		body = m.renderValidateResult()
	default:
		body = m.renderSummary()
	}

	content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Remote Sync"), body)
	return lipgloss.NewStyle().Padding(1, 2).Render(content)
}

func (m Model) renderSummary() string {
	label := lipgloss.NewStyle().Foreground(theme.ColorGray).Width(12)
	value := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	url := m.cfg.Remote.URL
	if url == "" {
		url = "(none, local-only)"
	}
	keyState := "not set"
	if m.keySet {
		keyState = "set"
	}

	lines := []string{
		label.Render("URL") + value.Render(url),
		label.Render("Student") + value.Render(m.cfg.Remote.StudentID),
		label.Render("Key") + value.Render(keyState),
		label.Render("Name") + value.Render(m.cfg.Profile.Name),
		"",
		theme.HelpStyle.Render("e edit | esc back"),
	}
	if m.statusMsg != "" {
		lines = append(lines, "", theme.DimmedStyle.Render(m.statusMsg))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderValidateResult() string {
	if m.validError == nil {
		return lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.NewStyle().Foreground(theme.ColorGreen).Render("✓ Connected"),
			"",
			theme.HelpStyle.Render("enter save | esc discard"),
		)
	}
	msg := m.validError.Error()
	if remote.IsAuthError(m.validError) {
		msg = "The access key was rejected"
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Foreground(theme.ColorRed).Render("✗ "+msg),
		"",
		theme.HelpStyle.Render("r retry | s save anyway | esc discard"),
	)
}

// SetSize updates the view dimensions.
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

func validateOptionalURL(s string) error {
	s = strings.TrimSpace(s)
	if s == "" || model.ValidRemoteURL(s) {
		return nil
	}
	return fmt.Errorf("must be an http(s) URL")
}

func validateOptionalUUID(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := uuid.Parse(s); err != nil {
		return fmt.Errorf("must be a UUID")
	}
	return nil
}

func validateOptionalKey(s string) error {
	s = strings.TrimSpace(s)
	if s == "" || model.ValidRemoteKey(s) {
		return nil
	}
	return fmt.Errorf("does not look like an access key")
}
