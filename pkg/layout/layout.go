// Package layout computes tree geometry: each parent sits above its
// children, children are laid out left to right beneath it, and the parent
// is centred over the span of its subtree.
//
// Coordinates are in unscaled content units. The terminal renderer uses
// cells, the exporters use pixels; zoom is applied by the consumer.
package layout

import (
	"github.com/vanderheijden86/famtree/pkg/metrics"
	"github.com/vanderheijden86/famtree/pkg/tree"
)

// Options sizes the cards and the gaps between them.
type Options struct {
	NodeWidth  float64
	NodeHeight float64
	HGap       float64 // between siblings
	VGap       float64 // between generations
	RootGap    float64 // between separate families
	Padding    float64 // around the whole tree
}

// CellOptions suits the terminal canvas.
func CellOptions() Options {
	return Options{NodeWidth: 24, NodeHeight: 5, HGap: 2, VGap: 2, RootGap: 4, Padding: 1}
}

// PixelOptions suits SVG and PNG export.
func PixelOptions() Options {
	return Options{NodeWidth: 180, NodeHeight: 96, HGap: 24, VGap: 48, RootGap: 48, Padding: 32}
}

func (o Options) normalized() Options {
	if o.NodeWidth <= 0 {
		o.NodeWidth = 1
	}
	if o.NodeHeight <= 0 {
		o.NodeHeight = 1
	}
	if o.HGap < 0 {
		o.HGap = 0
	}
	if o.VGap < 0 {
		o.VGap = 0
	}
	if o.RootGap < 0 {
		o.RootGap = 0
	}
	if o.Padding < 0 {
		o.Padding = 0
	}
	return o
}

// Edge connects a parent's bottom centre to a child's top centre through
// a horizontal bus at MidY.
type Edge struct {
	ParentID string
	ChildID  string
	From     Point
	To       Point
	MidY     float64
}

// Layout is the computed geometry for one forest.
type Layout struct {
	opts   Options
	rects  map[string]Rect
	order  []string
	edges  []Edge
	width  float64
	height float64
}

// Compute lays out the forest. An empty forest yields an empty layout with
// zero size.
func Compute(f *tree.Forest, opts Options) *Layout {
	defer metrics.Timer(metrics.LayoutCompute)()

	opts = opts.normalized()
	l := &Layout{
		opts:  opts,
		rects: make(map[string]Rect),
	}
	if f == nil || f.Empty() {
		return l
	}

	widths := make(map[*tree.Node]float64, f.Len())
	for _, r := range f.Roots() {
		subtreeWidth(r, opts, widths)
	}

	x := opts.Padding
	for i, r := range f.Roots() {
		if i > 0 {
			x += opts.RootGap
		}
		l.place(r, x, widths)
		x += widths[r]
	}

	l.width = x + opts.Padding
	l.height = opts.Padding*2 + float64(f.Depth()+1)*opts.NodeHeight + float64(f.Depth())*opts.VGap
	return l
}

func subtreeWidth(n *tree.Node, opts Options, widths map[*tree.Node]float64) float64 {
	var sum float64
	for i, c := range n.Children {
		if i > 0 {
			sum += opts.HGap
		}
		sum += subtreeWidth(c, opts, widths)
	}
	w := opts.NodeWidth
	if sum > w {
		w = sum
	}
	widths[n] = w
	return w
}

func (l *Layout) place(n *tree.Node, left float64, widths map[*tree.Node]float64) {
	o := l.opts
	w := widths[n]
	r := Rect{
		X: left + (w-o.NodeWidth)/2,
		Y: o.Padding + float64(n.Depth)*(o.NodeHeight+o.VGap),
		W: o.NodeWidth,
		H: o.NodeHeight,
	}
	l.rects[n.ID()] = r
	l.order = append(l.order, n.ID())

	if len(n.Children) == 0 {
		return
	}

	var span float64
	for i, c := range n.Children {
		if i > 0 {
			span += o.HGap
		}
		span += widths[c]
	}
	cx := left + (w-span)/2
	for i, c := range n.Children {
		if i > 0 {
			cx += o.HGap
		}
		l.place(c, cx, widths)
		child := l.rects[c.ID()]
		l.edges = append(l.edges, Edge{
			ParentID: n.ID(),
			ChildID:  c.ID(),
			From:     Point{X: r.CenterX(), Y: r.Bottom()},
			To:       Point{X: child.CenterX(), Y: child.Y},
			MidY:     r.Bottom() + o.VGap/2,
		})
		cx += widths[c]
	}
}

// Rect returns the box for id.
func (l *Layout) Rect(id string) (Rect, bool) {
	r, ok := l.rects[id]
	return r, ok
}

// Size returns the natural (unscaled) content size.
func (l *Layout) Size() (w, h float64) { return l.width, l.height }

// Edges returns parent-child connectors in placement order.
func (l *Layout) Edges() []Edge { return l.edges }

// IDs returns placed ids in pre-order.
func (l *Layout) IDs() []string { return l.order }

// Len returns the number of placed boxes.
func (l *Layout) Len() int { return len(l.order) }

// Options returns the options the layout was computed with.
func (l *Layout) Options() Options { return l.opts }

// Hit returns the id whose box contains p, if any.
func (l *Layout) Hit(p Point) (string, bool) {
	for _, id := range l.order {
		if l.rects[id].Contains(p) {
			return id, true
		}
	}
	return "", false
}
