package ui

import (
	"io"
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/famtree/pkg/model"
)

// TermProfile holds the detected terminal color profile. Computed once at
// package init so every style helper can branch without re-detecting.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeBg returns the given hex color for TrueColor terminals and
// lipgloss.NoColor{} otherwise, so 16/256-color terminals keep their own
// background.
func ThemeBg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.TrueColor {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(hex)
}

// ThemeFg returns the given hex color for ANSI256+ terminals and a safe
// ANSI white (color 7) for 16-color or lower terminals.
func ThemeFg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(hex)
}

type Theme struct {
	Renderer *lipgloss.Renderer

	// Colors
	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor

	// Relations
	Son      lipgloss.AdaptiveColor
	Daughter lipgloss.AdaptiveColor
	Neutral  lipgloss.AdaptiveColor

	// UI Elements
	Border    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor

	// Styles
	Base     lipgloss.Style
	Header   lipgloss.Style
	Status   lipgloss.Style
	Error    lipgloss.Style
	Panel    lipgloss.Style
	Selected lipgloss.Style

	// Canvas cell styles, indexed by cellStyle. Built once so painting a
	// frame does not allocate styles per cell.
	cells [cellStyleCount]lipgloss.Style
}

// DefaultTheme returns the Dracula-inspired adaptive theme.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		Primary:   lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"},
		Secondary: lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
		Subtext:   lipgloss.AdaptiveColor{Light: "#666666", Dark: "#BFBFBF"},

		Son:      lipgloss.AdaptiveColor{Light: "#2563EB", Dark: "#60A5FA"},
		Daughter: lipgloss.AdaptiveColor{Light: "#DB2777", Dark: "#F472B6"},
		Neutral:  lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"},

		Border:    lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#44475A"},
		Highlight: lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"},
		Muted:     lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
	}

	t.Base = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#F8F8F2"})

	t.Header = r.NewStyle().
		Background(t.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true).
		Padding(0, 1)

	t.Status = r.NewStyle().Foreground(t.Subtext)
	t.Error = r.NewStyle().Foreground(ColorDanger).Bold(true)

	t.Panel = r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary).
		Padding(0, 1)

	t.Selected = r.NewStyle().
		Background(ColorBgHighlight).
		Foreground(t.Primary).
		Bold(true)

	t.cells[cellPlain] = r.NewStyle()
	t.cells[cellEdge] = r.NewStyle().Foreground(t.Border)
	t.cells[cellSon] = r.NewStyle().Foreground(t.Son)
	t.cells[cellDaughter] = r.NewStyle().Foreground(t.Daughter)
	t.cells[cellNeutral] = r.NewStyle().Foreground(t.Neutral)
	t.cells[cellName] = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#F8F8F2"}).Bold(true)
	t.cells[cellText] = r.NewStyle().Foreground(t.Subtext)
	t.cells[cellSelected] = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.cells[cellHighlight] = r.NewStyle().Foreground(t.Highlight).Bold(true)

	return t
}

// NamedTheme builds the theme for a config value: "dark" and "light" force
// the background, anything else detects it.
func NamedTheme(name string, w io.Writer) Theme {
	r := lipgloss.NewRenderer(w)
	switch name {
	case "dark":
		r.SetHasDarkBackground(true)
	case "light":
		r.SetHasDarkBackground(false)
	}
	return DefaultTheme(r)
}

// RelationColor returns the accent for a member's relation tag.
func (t Theme) RelationColor(r model.Relation) lipgloss.AdaptiveColor {
	switch r {
	case model.RelationSon:
		return t.Son
	case model.RelationDaughter:
		return t.Daughter
	default:
		return t.Neutral
	}
}

func (t Theme) cell(s cellStyle) lipgloss.Style {
	if int(s) < 0 || int(s) >= len(t.cells) {
		return t.cells[cellPlain]
	}
	return t.cells[s]
}

// TestTheme returns a theme suitable for use in tests.
func TestTheme() Theme {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetHasDarkBackground(true)
	return DefaultTheme(r)
}
