package export

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"git.sr.ht/~sbinet/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/vanderheijden86/famtree/pkg/model"
)

// Card dimensions in pixels.
const (
	CardWidth  = 640
	CardHeight = 360
)

// CardFields lists the label/value rows printed on a member card. Empty
// values are shown as "-".
func CardFields(m model.Member) [][2]string {
	parent := m.ParentName
	if parent == "" {
		parent = m.ParentID
	}
	rel := string(m.Relation)
	if parent != "" && rel != "" {
		rel = rel + " of " + parent
	}
	rows := [][2]string{
		{"ID", m.ID},
		{"Relation", rel},
		{"Generation", fmt.Sprintf("%d", m.Generation)},
		{"Lifespan", m.Lifespan()},
		{"Spouse", m.Spouse},
		{"Contact", m.ContactNumber},
		{"Address", m.Address},
		{"Email", m.Email},
	}
	for i := range rows {
		if rows[i][1] == "" {
			rows[i][1] = "-"
		}
	}
	return rows
}

// RenderMemberCard draws an ID card for m.
func RenderMemberCard(m model.Member) image.Image {
	const (
		pad     = 24.0
		headerH = 64.0
		photo   = 120.0
	)
	dc := gg.NewContext(CardWidth, CardHeight)
	dc.SetColor(colorCard)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	dc.SetColor(relationColor(m.Relation))
	dc.DrawRectangle(0, 0, CardWidth, headerH)
	dc.Fill()
	dc.SetColor(colorCard)
	dc.DrawStringAnchored("FAMILY ID CARD", pad, headerH/2-9, 0, 0.5)
	dc.DrawStringAnchored(truncate(m.FullName(), 70), pad, headerH/2+9, 0, 0.5)

	// Photo placeholder with initials.
	px, py := pad, headerH+pad
	dc.SetColor(colorAvatar)
	dc.DrawRoundedRectangle(px, py, photo, photo, 10)
	dc.Fill()
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(m.Initials(), px+photo/2, py+photo/2, 0.5, 0.5)

	tx := px + photo + pad
	labelW := 84.0
	maxChars := int((CardWidth - tx - labelW - pad) / 7)
	for i, row := range CardFields(m) {
		y := py + 8 + float64(i)*22
		dc.SetColor(colorSubtle)
		dc.DrawStringAnchored(row[0], tx, y, 0, 0.5)
		dc.SetColor(colorText)
		dc.DrawStringAnchored(truncate(row[1], maxChars), tx+labelW, y, 0, 0.5)
	}

	dc.SetColor(colorStroke)
	dc.SetLineWidth(2)
	dc.DrawRoundedRectangle(1, 1, CardWidth-2, CardHeight-2, 12)
	dc.Stroke()

	return dc.Image()
}

// SaveMemberCard writes m's ID card as PNG to path.
func SaveMemberCard(m model.Member, path string) error {
	if m.ID == "" {
		return fmt.Errorf("member has no id")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}
	if err := gg.SavePNG(path, RenderMemberCard(m)); err != nil {
		return fmt.Errorf("write card %s: %w", path, err)
	}
	return nil
}
