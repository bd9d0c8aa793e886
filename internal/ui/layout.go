package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/winterbreak/internal/theme"
)

// Layout manages the multi-panel terminal layout dimensions.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
// HeaderHeight and StatusBarHeight default to 1.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int { return l.Width }

// ContentHeight returns the rows left between header and status bar.
func (l Layout) ContentHeight() int {
	return max(l.Height-l.HeaderHeight-l.StatusBarHeight, 0)
}

// RenderHeader draws the title on the left and the connectivity state on
// the right, with detail (pending writes, last error) after the state.
func (l Layout) RenderHeader(title, state, detail string) string {
	bg := theme.HeaderStyle.GetBackground()
	left := theme.HeaderStyle.Render(title)

	right := theme.ConnectivityStyle(state).Background(bg).Render("● " + state)
	if detail != "" {
		right += theme.HeaderStyle.Render(" " + detail)
	}
	right = theme.HeaderStyle.Align(lipgloss.Right).Render(right)

	pad := l.Width - lipgloss.Width(left) - lipgloss.Width(right)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, fill(theme.HeaderStyle, pad), right)
}

// RenderStatusBar draws the key hints padded to the full width.
func (l Layout) RenderStatusBar(hints string) string {
	bar := theme.StatusBarStyle.Render(hints)
	pad := l.Width - lipgloss.Width(bar)
	return lipgloss.JoinHorizontal(lipgloss.Top, bar, fill(theme.StatusBarStyle, pad))
}

// fill returns n cells of the style's background.
func fill(style lipgloss.Style, n int) string {
	return style.Render(lipgloss.NewStyle().
		Width(max(n, 0)).
		Background(style.GetBackground()).
		Render(""))
}

// RenderToast renders a one-line notification above the status bar.
func (l Layout) RenderToast(level, message string) string {
	return theme.ToastStyle(level).
		Width(l.Width).
		MaxHeight(1).
		Render(message)
}

// RenderWithFrame stacks header, content and status bar.
func (l Layout) RenderWithFrame(header, content, statusBar string) string {
	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}
