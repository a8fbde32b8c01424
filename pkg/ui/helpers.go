package ui

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/famtree/pkg/model"
	"github.com/vanderheijden86/famtree/pkg/tree"
)

// truncateRunesHelper truncates a string to max visual width (cells), adding suffix if needed.
// Uses go-runewidth to handle wide characters correctly.
func truncateRunesHelper(s string, maxWidth int, suffix string) string {
	if maxWidth <= 0 {
		return ""
	}

	width := runewidth.StringWidth(s)
	if width <= maxWidth {
		return s
	}

	suffixWidth := runewidth.StringWidth(suffix)
	if suffixWidth > maxWidth {
		// Even suffix is too wide, truncate suffix
		return runewidth.Truncate(suffix, maxWidth, "")
	}

	targetWidth := maxWidth - suffixWidth
	return runewidth.Truncate(s, targetWidth, "") + suffix
}

// padRight pads s with spaces to width cells.
func padRight(s string, width int) string {
	w := runewidth.StringWidth(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

// truncate truncates s to maxWidth cells with an ellipsis.
func truncate(s string, maxWidth int) string {
	return truncateRunesHelper(s, maxWidth, "…")
}

// cardLines is the text shown inside a member card, most important first.
func cardLines(m model.Member) []string {
	lines := []string{m.FullName(), m.Lifespan()}
	if m.Spouse != "" {
		lines = append(lines, "⚭ "+m.Spouse)
	}
	return lines
}

// memberMarkdown renders the detail pane source for node.
func memberMarkdown(n *tree.Node, elementID string) string {
	m := n.Member
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", orDash(m.FullName()))

	if parent := m.ParentName; parent != "" || n.Parent != nil {
		if n.Parent != nil {
			parent = n.Parent.Member.FullName()
		}
		rel := string(m.Relation)
		if rel == "" {
			rel = "child"
		}
		fmt.Fprintf(&b, "*%s of %s*\n\n", rel, parent)
	}

	b.WriteString("| Field | Value |\n|---|---|\n")
	rows := [][2]string{
		{"ID", m.ID},
		{"Element", elementID},
		{"Generation", fmt.Sprintf("%d", m.Generation)},
		{"Lifespan", m.Lifespan()},
		{"Spouse", m.Spouse},
		{"Contact", m.ContactNumber},
		{"Address", m.Address},
		{"Email", m.Email},
		{"Photo", m.ProfilePic},
	}
	for _, r := range rows {
		fmt.Fprintf(&b, "| %s | %s |\n", r[0], escapeCell(orDash(r[1])))
	}

	if len(n.Children) > 0 {
		fmt.Fprintf(&b, "\n## Children (%d)\n\n", len(n.Children))
		for _, c := range n.Children {
			fmt.Fprintf(&b, "- %s\n", orDash(c.Member.FullName()))
		}
	}
	return b.String()
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
