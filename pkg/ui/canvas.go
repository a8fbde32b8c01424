package ui

import (
	"math"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/famtree/pkg/layout"
	"github.com/vanderheijden86/famtree/pkg/model"
	"github.com/vanderheijden86/famtree/pkg/tree"
)

type cellStyle int

const (
	cellPlain cellStyle = iota
	cellEdge
	cellSon
	cellDaughter
	cellNeutral
	cellName
	cellText
	cellSelected
	cellHighlight
	cellStyleCount
)

// continuation marks the right half of a wide rune.
const continuation rune = -1

type cell struct {
	r     rune
	style cellStyle
}

// Canvas is a fixed-size grid of styled terminal cells.
type Canvas struct {
	w, h  int
	cells []cell
}

// NewCanvas returns a blank w×h canvas.
func NewCanvas(w, h int) *Canvas {
	w, h = max(w, 0), max(h, 0)
	c := &Canvas{w: w, h: h, cells: make([]cell, w*h)}
	for i := range c.cells {
		c.cells[i] = cell{r: ' '}
	}
	return c
}

// Size returns the canvas dimensions.
func (c *Canvas) Size() (w, h int) { return c.w, c.h }

func (c *Canvas) at(x, y int) *cell {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return nil
	}
	return &c.cells[y*c.w+x]
}

func (c *Canvas) set(x, y int, r rune, s cellStyle) {
	if p := c.at(x, y); p != nil {
		p.r, p.style = r, s
	}
}

// text writes s at (x, y), clipped to maxW cells.
func (c *Canvas) text(x, y int, s string, maxW int, style cellStyle) {
	s = truncate(s, maxW)
	for _, r := range s {
		rw := runewidth.RuneWidth(r)
		if rw == 0 {
			continue
		}
		c.set(x, y, r, style)
		if rw == 2 {
			c.set(x+1, y, continuation, style)
		}
		x += rw
	}
}

// line joins box-drawing strokes so crossings read as junctions.
func (c *Canvas) line(x, y int, r rune) {
	p := c.at(x, y)
	if p == nil {
		return
	}
	switch {
	case p.r == r:
	case (p.r == '│' && r == '─') || (p.r == '─' && r == '│'):
		p.r = '┼'
	case p.r == ' ':
		p.r = r
	default:
		if p.style != cellEdge {
			return
		}
		p.r = r
	}
	p.style = cellEdge
}

func (c *Canvas) hline(x0, x1, y int) {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	for x := x0; x <= x1; x++ {
		c.line(x, y, '─')
	}
}

func (c *Canvas) vline(x, y0, y1 int) {
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		c.line(x, y, '│')
	}
}

// box draws a bordered rectangle and clears its interior.
func (c *Canvas) box(x, y, w, h int, style cellStyle, heavy bool) {
	tl, tr, bl, br, hz, vt := '╭', '╮', '╰', '╯', '─', '│'
	if heavy {
		tl, tr, bl, br, hz, vt = '┏', '┓', '┗', '┛', '━', '┃'
	}
	for yy := y; yy < y+h; yy++ {
		for xx := x; xx < x+w; xx++ {
			var r rune
			switch {
			case yy == y && xx == x:
				r = tl
			case yy == y && xx == x+w-1:
				r = tr
			case yy == y+h-1 && xx == x:
				r = bl
			case yy == y+h-1 && xx == x+w-1:
				r = br
			case yy == y || yy == y+h-1:
				r = hz
			case xx == x || xx == x+w-1:
				r = vt
			default:
				c.set(xx, yy, ' ', cellPlain)
				continue
			}
			c.set(xx, yy, r, style)
		}
	}
}

// Plain returns the canvas text without styling, one line per row.
func (c *Canvas) Plain() string {
	return c.render(func(_ cellStyle, s string) string { return s })
}

// Render returns the canvas with theme styles applied to runs of cells.
func (c *Canvas) Render(t Theme) string {
	return c.render(func(s cellStyle, text string) string {
		if s == cellPlain {
			return text
		}
		return t.cell(s).Render(text)
	})
}

func (c *Canvas) render(paint func(cellStyle, string) string) string {
	var out strings.Builder
	var run strings.Builder
	for y := 0; y < c.h; y++ {
		if y > 0 {
			out.WriteByte('\n')
		}
		cur := cellPlain
		for x := 0; x < c.w; x++ {
			p := c.cells[y*c.w+x]
			if p.r == continuation {
				continue
			}
			if p.style != cur && run.Len() > 0 {
				out.WriteString(paint(cur, run.String()))
				run.Reset()
			}
			cur = p.style
			run.WriteRune(p.r)
		}
		if run.Len() > 0 {
			out.WriteString(paint(cur, run.String()))
			run.Reset()
		}
	}
	return out.String()
}

// Frame is everything needed to paint one canvas frame.
type Frame struct {
	Forest    *tree.Forest
	Layout    *layout.Layout
	Zoom      float64
	ScrollX   float64
	ScrollY   float64
	Selected  string
	Highlight string
}

// Paint draws f onto c. Layout coordinates are scaled by f.Zoom and
// shifted by the scroll offset; anything outside the canvas is clipped.
func (c *Canvas) Paint(f Frame) {
	if f.Layout == nil || f.Forest == nil || f.Zoom <= 0 {
		return
	}
	tx := func(v float64) int { return int(math.Round(v*f.Zoom - f.ScrollX)) }
	ty := func(v float64) int { return int(math.Round(v*f.Zoom - f.ScrollY)) }

	for _, e := range f.Layout.Edges() {
		fx, fy, mid := tx(e.From.X), ty(e.From.Y), ty(e.MidY)
		cx, cy := tx(e.To.X), ty(e.To.Y)
		c.vline(fx, fy, mid)
		c.hline(fx, cx, mid)
		if cy-1 >= mid {
			c.vline(cx, mid, cy-1)
		}
	}

	for _, id := range f.Layout.IDs() {
		r, _ := f.Layout.Rect(id)
		node, ok := f.Forest.Node(id)
		if !ok {
			continue
		}
		x, y := tx(r.X), ty(r.Y)
		w := max(int(math.Round(r.W*f.Zoom)), 1)
		h := max(int(math.Round(r.H*f.Zoom)), 1)
		if x+w <= 0 || y+h <= 0 || x >= c.w || y >= c.h {
			continue
		}
		c.card(node.Member, x, y, w, h, id == f.Selected, id == f.Highlight)
	}
}

func relationCell(r model.Relation) cellStyle {
	switch r {
	case model.RelationSon:
		return cellSon
	case model.RelationDaughter:
		return cellDaughter
	default:
		return cellNeutral
	}
}

func (c *Canvas) card(m model.Member, x, y, w, h int, selected, highlighted bool) {
	border := relationCell(m.Relation)
	switch {
	case highlighted:
		border = cellHighlight
	case selected:
		border = cellSelected
	}

	if w < 3 || h < 3 {
		// Too small for a border: a block of initials.
		label := m.Initials()
		for yy := y; yy < y+h; yy++ {
			for xx := x; xx < x+w; xx++ {
				c.set(xx, yy, '▪', border)
			}
		}
		c.text(x, y+h/2, label, w, border)
		return
	}

	c.box(x, y, w, h, border, highlighted || selected)
	inner := w - 2
	for i, line := range cardLines(m) {
		row := y + 1 + i
		if row >= y+h-1 {
			break
		}
		style := cellText
		if i == 0 {
			style = cellName
		}
		c.text(x+1, row, line, inner, style)
	}
}
