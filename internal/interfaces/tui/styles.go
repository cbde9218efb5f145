package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/trendstep/storefront/internal/application/notice"
)

var (
	brand   = lipgloss.Color("#111827")
	accent  = lipgloss.Color("#F97316")
	muted   = lipgloss.Color("#6B7280")
	success = lipgloss.Color("#16A34A")
	warning = lipgloss.Color("#CA8A04")
	danger  = lipgloss.Color("#DC2626")
)

type styles struct {
	Title       lipgloss.Style
	Badge       lipgloss.Style
	Pane        lipgloss.Style
	FocusedPane lipgloss.Style
	PaneTitle   lipgloss.Style
	Summary     lipgloss.Style
	Total       lipgloss.Style
	Prompt      lipgloss.Style
	Muted       lipgloss.Style
}

func defaultStyles() styles {
	pane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(muted).
		Padding(0, 1)
	return styles{
		Title:       lipgloss.NewStyle().Bold(true).Foreground(brand).Background(accent).Padding(0, 1),
		Badge:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(danger).Padding(0, 1),
		Pane:        pane,
		FocusedPane: pane.BorderForeground(accent),
		PaneTitle:   lipgloss.NewStyle().Bold(true),
		Summary:     lipgloss.NewStyle().Foreground(muted),
		Total:       lipgloss.NewStyle().Bold(true),
		Prompt:      lipgloss.NewStyle().Foreground(accent).Bold(true),
		Muted:       lipgloss.NewStyle().Foreground(muted),
	}
}

func (s styles) notice(kind notice.Kind) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	switch kind {
	case notice.KindSuccess:
		return base.Foreground(success)
	case notice.KindWarning:
		return base.Foreground(warning)
	case notice.KindDanger:
		return base.Foreground(danger)
	default:
		return base
	}
}
