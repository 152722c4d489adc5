package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/cardx/internal/models"
)

var styles = NewPalette("#5A8DEE", "#3FB950", "#F85149", "#D29922", "#8B949E")

// Palette holds the styles for headings, step statuses and help text.
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

// NewPalette builds a palette from foreground colors: title, done, failed, warning, help.
func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
	}
}

// Status renders a step status in its color.
func (p *Palette) Status(s models.StepStatus) string {
	switch s {
	case models.StatusDone:
		return p.ok.Render(string(s))
	case models.StatusFailed:
		return p.err.Render(string(s))
	default:
		return p.help.Render(string(s))
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
