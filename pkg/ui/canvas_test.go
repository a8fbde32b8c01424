package ui

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/famtree/pkg/layout"
	"github.com/vanderheijden86/famtree/pkg/model"
	"github.com/vanderheijden86/famtree/pkg/tree"
)

func paintFamily(t *testing.T, members []model.Member, f Frame, w, h int) *Canvas {
	t.Helper()
	forest := tree.Build(members)
	f.Forest = forest
	f.Layout = layout.Compute(forest, layout.CellOptions())
	if f.Zoom == 0 {
		f.Zoom = 1
	}
	c := NewCanvas(w, h)
	c.Paint(f)
	return c
}

func TestPaintDrawsCardsAndEdges(t *testing.T) {
	c := paintFamily(t, family(), Frame{}, 60, 20)
	plain := c.Plain()

	for _, want := range []string{"Ram Adhikari", "Sita Adhikari", "Gopal Thapa", "╭", "╯", "│", "─"} {
		if !strings.Contains(plain, want) {
			t.Errorf("expected %q in canvas:\n%s", want, plain)
		}
	}
	if strings.Contains(plain, "┏") {
		t.Error("expected no heavy border without a selection")
	}
	if got := len(strings.Split(plain, "\n")); got != 20 {
		t.Errorf("expected 20 rows, got %d", got)
	}
}

func TestPaintSelectedAndHighlightedUseHeavyBorder(t *testing.T) {
	for _, f := range []Frame{{Selected: "a"}, {Highlight: "b"}} {
		plain := paintFamily(t, family(), f, 60, 20).Plain()
		if got := strings.Count(plain, "┏"); got != 1 {
			t.Errorf("expected one heavy card for %+v, got %d", f, got)
		}
	}
}

func TestPaintTinyZoomShowsInitials(t *testing.T) {
	plain := paintFamily(t, family(), Frame{Zoom: 0.1}, 20, 5).Plain()
	if !strings.Contains(plain, "RA") {
		t.Errorf("expected initials at tiny zoom:\n%s", plain)
	}
}

func TestPaintWideRunesKeepRowWidth(t *testing.T) {
	members := []model.Member{
		{ID: "w", Name: "李", LastName: "小龍", Spouse: "山田花子"},
		{ID: "x", ParentID: "w", Name: "明", LastName: "李"},
	}
	c := paintFamily(t, members, Frame{}, 40, 16)
	for i, row := range strings.Split(c.Plain(), "\n") {
		if got := runewidth.StringWidth(row); got != 40 {
			t.Errorf("row %d: expected width 40, got %d (%q)", i, got, row)
		}
	}
	if !strings.Contains(c.Plain(), "李 小龍") {
		t.Errorf("expected wide name on canvas:\n%s", c.Plain())
	}
}

func TestPaintScrolledAwayIsBlank(t *testing.T) {
	c := paintFamily(t, family(), Frame{ScrollX: 1000, ScrollY: 1000}, 30, 10)
	if strings.TrimSpace(c.Plain()) != "" {
		t.Errorf("expected blank canvas, got:\n%s", c.Plain())
	}
}

func TestPaintNilInputsIsNoop(t *testing.T) {
	c := NewCanvas(5, 2)
	c.Paint(Frame{})
	if c.Plain() != "     \n     " {
		t.Errorf("expected blank canvas, got %q", c.Plain())
	}
	if w, h := NewCanvas(-1, 3).Size(); w != 0 || h != 3 {
		t.Errorf("expected 0x3, got %dx%d", w, h)
	}
}

func TestRenderMatchesPlainText(t *testing.T) {
	c := paintFamily(t, family(), Frame{Selected: "a"}, 60, 20)
	if got := stripANSI(c.Render(TestTheme())); got != c.Plain() {
		t.Errorf("expected styled render to match plain text:\n%s\n---\n%s", got, c.Plain())
	}
}

func TestLineJoinsCrossings(t *testing.T) {
	c := NewCanvas(5, 5)
	c.hline(0, 4, 2)
	c.vline(2, 0, 4)
	if p := c.at(2, 2); p.r != '┼' {
		t.Errorf("expected junction, got %q", p.r)
	}
}
