package ui

import (
	"io"
	"strings"
	"testing"

	"github.com/vanderheijden86/famtree/pkg/model"
	"github.com/vanderheijden86/famtree/pkg/tree"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"abc", 5, "abc"},
		{"abcdef", 4, "abc…"},
		{"日本語", 4, "日…"},
		{"abc", 0, ""},
		{"abc", 1, "…"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d): expected %q, got %q", tt.in, tt.max, tt.want, got)
		}
	}
}

func TestPadRight(t *testing.T) {
	if got := padRight("ab", 4); got != "ab  " {
		t.Errorf("expected %q, got %q", "ab  ", got)
	}
	if got := padRight("日", 4); got != "日  " {
		t.Errorf("expected %q, got %q", "日  ", got)
	}
	if got := padRight("abcdef", 3); got != "abcdef" {
		t.Errorf("expected input unchanged, got %q", got)
	}
}

func TestCardLines(t *testing.T) {
	m := model.Member{Name: "Ram", LastName: "Adhikari", Spouse: "Gita"}
	lines := cardLines(m)
	if len(lines) != 3 || lines[0] != "Ram Adhikari" || lines[2] != "⚭ Gita" {
		t.Errorf("unexpected card lines %q", lines)
	}
	if got := len(cardLines(model.Member{Name: "Solo"})); got != 2 {
		t.Errorf("expected 2 lines without a spouse, got %d", got)
	}
}

func TestMemberMarkdown(t *testing.T) {
	members := family()
	members[1].Address = "Ward 4 | Pokhara"
	f := tree.Build(members)

	root, _ := f.Node("a")
	md := memberMarkdown(root, "family-member-a")
	for _, want := range []string{"# Ram Adhikari", "| Element | family-member-a |", "## Children (2)", "- Sita Adhikari", "- Gopal Thapa"} {
		if !strings.Contains(md, want) {
			t.Errorf("expected %q in:\n%s", want, md)
		}
	}
	if strings.Contains(md, " of ") {
		t.Errorf("expected no parent line for a root:\n%s", md)
	}

	child, _ := f.Node("b")
	md = memberMarkdown(child, "family-member-b")
	for _, want := range []string{"*daughter of Ram Adhikari*", `Ward 4 \| Pokhara`, "| Email | - |"} {
		if !strings.Contains(md, want) {
			t.Errorf("expected %q in:\n%s", want, md)
		}
	}
	if strings.Contains(md, "## Children") {
		t.Error("expected no children section for a leaf")
	}
}

func TestRenderZoomBar(t *testing.T) {
	th := TestTheme()
	bar := stripANSI(RenderZoomBar(1.0, 0.1, 2.0, 10, th))
	if !strings.HasSuffix(bar, " 100%") {
		t.Errorf("expected percentage suffix, got %q", bar)
	}
	if got := strings.Count(bar, "█"); got != 5 {
		t.Errorf("expected 5 filled cells, got %d", got)
	}
	if got := stripANSI(RenderZoomBar(5, 0.1, 2.0, 4, th)); !strings.HasPrefix(got, "████") {
		t.Errorf("expected full bar above max, got %q", got)
	}
	if RenderZoomBar(1, 0.1, 2, 0, th) != "" {
		t.Error("expected empty bar for zero width")
	}
}

func TestRelationBadgeAndColor(t *testing.T) {
	th := TestTheme()
	cases := map[model.Relation]string{model.RelationSon: "S", model.RelationDaughter: "D", "": "·"}
	for rel, want := range cases {
		if got := stripANSI(RenderRelationBadge(rel, th)); got != want {
			t.Errorf("badge for %q: expected %q, got %q", rel, want, got)
		}
	}
	if th.RelationColor(model.RelationDaughter) != th.Daughter {
		t.Error("expected daughter accent")
	}
	if th.RelationColor("other") != th.Neutral {
		t.Error("expected neutral accent for an untagged member")
	}
}

func TestNamedTheme(t *testing.T) {
	if NamedTheme("light", io.Discard).Renderer.HasDarkBackground() {
		t.Error("expected light theme to force a light background")
	}
	if !NamedTheme("dark", io.Discard).Renderer.HasDarkBackground() {
		t.Error("expected dark theme to force a dark background")
	}
	if got := stripANSI(RenderDivider(3, TestTheme())); got != "───" {
		t.Errorf("expected divider, got %q", got)
	}
}
