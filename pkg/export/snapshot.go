// Package export renders the family tree to static files: SVG and PNG
// snapshots of the laid-out forest, and a PNG ID card for one member.
package export

import (
	"fmt"
	"html"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"git.sr.ht/~sbinet/gg"
	"github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"

	"github.com/vanderheijden86/famtree/pkg/layout"
	"github.com/vanderheijden86/famtree/pkg/metrics"
	"github.com/vanderheijden86/famtree/pkg/model"
	"github.com/vanderheijden86/famtree/pkg/stage"
	"github.com/vanderheijden86/famtree/pkg/tree"
)

// HeaderHeight is the unscaled height of the title block above the tree.
const HeaderHeight = 56

// SnapshotOptions controls tree snapshot export.
type SnapshotOptions struct {
	Path   string // Output path; format inferred from extension when Format empty
	Format string // "svg" or "png" (case-insensitive)
	Title  string

	Forest *tree.Forest
	// Layout defaults to layout.PixelOptions over Forest.
	Layout *layout.Layout
	// Zoom scales the tree; 0 means 1.
	Zoom float64
	// Highlight draws a ring around this member.
	Highlight string
	// ElementPrefix names member groups "<prefix>-<id>".
	ElementPrefix string
}

func (o SnapshotOptions) normalized() SnapshotOptions {
	if o.Layout == nil {
		o.Layout = layout.Compute(o.Forest, layout.PixelOptions())
	}
	if o.Zoom <= 0 {
		o.Zoom = 1
	}
	if strings.TrimSpace(o.Title) == "" {
		o.Title = "Family Tree"
	}
	if o.ElementPrefix == "" {
		o.ElementPrefix = stage.DefaultElementPrefix
	}
	return o
}

// SaveTreeSnapshot renders the forest as SVG or PNG.
func SaveTreeSnapshot(opts SnapshotOptions) error {
	if opts.Forest == nil || opts.Forest.Empty() {
		return fmt.Errorf("no members to export")
	}
	if opts.Path == "" {
		return fmt.Errorf("output path is required")
	}

	format := strings.ToLower(strings.TrimPrefix(opts.Format, "."))
	if format == "" {
		switch strings.ToLower(filepath.Ext(opts.Path)) {
		case ".svg":
			format = "svg"
		case ".png":
			format = "png"
		case "":
			format = "svg"
			opts.Path += ".svg"
		default:
			format = strings.TrimPrefix(strings.ToLower(filepath.Ext(opts.Path)), ".")
		}
	}
	if format != "svg" && format != "png" {
		return fmt.Errorf("unsupported format %q (want svg or png)", format)
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	defer metrics.Timer(metrics.ExportRender)()
	opts = opts.normalized()
	if format == "png" {
		return renderPNG(opts)
	}

	file, err := os.Create(opts.Path)
	if err != nil {
		return err
	}
	if err := WriteSVG(file, opts); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// --- rendering -------------------------------------------------------------

var (
	colorSon       = color.RGBA{0x60, 0xa5, 0xfa, 0xff}
	colorDaughter  = color.RGBA{0xf4, 0x72, 0xb6, 0xff}
	colorNeutral   = color.RGBA{0x9c, 0xa3, 0xaf, 0xff}
	colorCard      = color.RGBA{0xff, 0xff, 0xff, 0xff}
	colorStroke    = color.RGBA{0x22, 0x22, 0x22, 0xff}
	colorEdge      = color.RGBA{0x6b, 0x80, 0xbf, 0xff}
	colorText      = color.RGBA{0x11, 0x11, 0x11, 0xff}
	colorSubtle    = color.RGBA{0x66, 0x66, 0x66, 0xff}
	colorBackdrop  = color.RGBA{0xf9, 0xfa, 0xfb, 0xff}
	colorHeaderBG  = color.RGBA{0xf3, 0xf4, 0xf6, 0xff}
	colorHighlight = color.RGBA{0xfb, 0xbf, 0x24, 0xff}
	colorAvatar    = color.RGBA{0xe5, 0xe7, 0xeb, 0xff}
)

func relationColor(r model.Relation) color.RGBA {
	switch r {
	case model.RelationSon:
		return colorSon
	case model.RelationDaughter:
		return colorDaughter
	default:
		return colorNeutral
	}
}

// card geometry relative to a node rect
const (
	bandH     = 6.0
	avatarR   = 16.0
	avatarPad = 10.0
	textX     = avatarPad*2 + avatarR*2
)

func canvasSize(opts SnapshotOptions) (int, int) {
	w, h := opts.Layout.Size()
	cw := int(w*opts.Zoom + 0.5)
	if cw < 320 {
		cw = 320
	}
	return cw, HeaderHeight + int(h*opts.Zoom+0.5)
}

func cardLines(m model.Member) []string {
	lines := []string{m.FullName(), m.Lifespan()}
	if m.Spouse != "" {
		lines = append(lines, "Spouse: "+m.Spouse)
	}
	return lines
}

// WriteSVG renders the snapshot as SVG to w. Each member is a group whose
// id is the member's element identifier.
func WriteSVG(w io.Writer, opts SnapshotOptions) error {
	opts = opts.normalized()
	width, height := canvasSize(opts)

	canvas := svg.New(w)
	canvas.Start(width, height)
	canvas.Rect(0, 0, width, height, fmt.Sprintf("fill:%s", css(colorBackdrop)))
	canvas.Rect(0, 0, width, HeaderHeight-8, fmt.Sprintf("fill:%s", css(colorHeaderBG)))
	canvas.Text(16, 24, opts.Title, fmt.Sprintf("fill:%s;font-size:16px;font-family:monospace;font-weight:bold", css(colorText)))
	canvas.Text(16, 42, summaryLine(opts), fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(colorSubtle)))

	canvas.Gtransform(fmt.Sprintf("translate(0,%d) scale(%s)", HeaderHeight, trimFloat(opts.Zoom)))

	for _, e := range opts.Layout.Edges() {
		canvas.Polyline(
			[]int{px(e.From.X), px(e.From.X), px(e.To.X), px(e.To.X)},
			[]int{px(e.From.Y), px(e.MidY), px(e.MidY), px(e.To.Y)},
			fmt.Sprintf("fill:none;stroke:%s;stroke-width:2", css(colorEdge)),
		)
	}

	for _, id := range opts.Layout.IDs() {
		node, ok := opts.Forest.Node(id)
		if !ok {
			continue
		}
		r, _ := opts.Layout.Rect(id)
		m := node.Member
		x, y, cw, ch := px(r.X), px(r.Y), px(r.W), px(r.H)

		canvas.Gid(stage.ElementID(opts.ElementPrefix, id))
		canvas.Title(m.FullName())
		if id == opts.Highlight {
			canvas.Roundrect(x-4, y-4, cw+8, ch+8, 12, 12,
				fmt.Sprintf("fill:none;stroke:%s;stroke-width:4", css(colorHighlight)))
		}
		canvas.Roundrect(x, y, cw, ch, 8, 8,
			fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1.2", css(colorCard), css(colorStroke)))
		canvas.Rect(x, y, cw, int(bandH), fmt.Sprintf("fill:%s", css(relationColor(m.Relation))))

		ax, ay := x+int(avatarPad+avatarR), y+int(bandH+avatarPad+avatarR)
		if m.HasProfilePic() {
			d := int(avatarR * 2)
			canvas.Image(ax-int(avatarR), ay-int(avatarR), d, d, html.EscapeString(m.ProfilePic))
		} else {
			canvas.Circle(ax, ay, int(avatarR), fmt.Sprintf("fill:%s", css(colorAvatar)))
			canvas.Text(ax, ay+4, m.Initials(),
				fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace;text-anchor:middle", css(colorSubtle)))
		}

		maxChars := int((r.W - textX - 6) / 7)
		for i, line := range cardLines(m) {
			style := fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace", css(colorSubtle))
			if i == 0 {
				style = fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace;font-weight:bold", css(colorText))
			}
			canvas.Text(x+int(textX), y+int(bandH)+22+i*16, truncate(line, maxChars), style)
		}
		canvas.Gend()
	}

	canvas.Gend()
	canvas.End()
	return nil
}

func renderPNG(opts SnapshotOptions) error {
	width, height := canvasSize(opts)
	dc := gg.NewContext(width, height)
	dc.SetColor(colorBackdrop)
	dc.Clear()

	dc.SetColor(colorHeaderBG)
	dc.DrawRectangle(0, 0, float64(width), HeaderHeight-8)
	dc.Fill()
	dc.SetFontFace(basicfont.Face7x13)
	dc.SetColor(colorText)
	dc.DrawStringAnchored(opts.Title, 16, 20, 0, 0.5)
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(summaryLine(opts), 16, 38, 0, 0.5)

	dc.Push()
	dc.Translate(0, HeaderHeight)
	dc.Scale(opts.Zoom, opts.Zoom)

	dc.SetColor(colorEdge)
	dc.SetLineWidth(2)
	for _, e := range opts.Layout.Edges() {
		dc.MoveTo(e.From.X, e.From.Y)
		dc.LineTo(e.From.X, e.MidY)
		dc.LineTo(e.To.X, e.MidY)
		dc.LineTo(e.To.X, e.To.Y)
		dc.Stroke()
	}

	for _, id := range opts.Layout.IDs() {
		node, ok := opts.Forest.Node(id)
		if !ok {
			continue
		}
		r, _ := opts.Layout.Rect(id)
		drawNode(dc, node.Member, r, id == opts.Highlight)
	}
	dc.Pop()

	return dc.SavePNG(opts.Path)
}

func drawNode(dc *gg.Context, m model.Member, r layout.Rect, highlight bool) {
	if highlight {
		dc.SetColor(colorHighlight)
		dc.SetLineWidth(4)
		dc.DrawRoundedRectangle(r.X-4, r.Y-4, r.W+8, r.H+8, 12)
		dc.Stroke()
	}
	dc.SetColor(colorCard)
	dc.DrawRoundedRectangle(r.X, r.Y, r.W, r.H, 8)
	dc.Fill()
	dc.SetColor(colorStroke)
	dc.SetLineWidth(1.2)
	dc.DrawRoundedRectangle(r.X, r.Y, r.W, r.H, 8)
	dc.Stroke()

	dc.SetColor(relationColor(m.Relation))
	dc.DrawRectangle(r.X, r.Y, r.W, bandH)
	dc.Fill()

	// PNG export does not fetch images; every avatar is a placeholder.
	ax, ay := r.X+avatarPad+avatarR, r.Y+bandH+avatarPad+avatarR
	dc.SetColor(colorAvatar)
	dc.DrawCircle(ax, ay, avatarR)
	dc.Fill()
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(m.Initials(), ax, ay, 0.5, 0.5)

	maxChars := int((r.W - textX - 6) / 7)
	for i, line := range cardLines(m) {
		dc.SetColor(colorSubtle)
		if i == 0 {
			dc.SetColor(colorText)
		}
		dc.DrawStringAnchored(truncate(line, maxChars), r.X+textX, r.Y+bandH+18+float64(i)*16, 0, 0.5)
	}
}

func summaryLine(opts SnapshotOptions) string {
	return fmt.Sprintf("members: %d  roots: %d  depth: %d  version: %s",
		opts.Forest.Len(), len(opts.Forest.Roots()), opts.Forest.Depth()+1, opts.Forest.Version())
}

// --- helpers ---------------------------------------------------------------

func px(v float64) int {
	if v < 0 {
		return int(v - 0.5)
	}
	return int(v + 0.5)
}

func trimFloat(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", v), "0"), ".")
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
