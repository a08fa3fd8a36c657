package render

import (
	"fmt"
	"image"
	"io"
	"unicode/utf8"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
)

const (
	baseFontSize  = 14.0
	baseLineWidth = 2.0
	titlePadding  = 12.0
)

// Raster draws scenes into an in-memory image with gg.
type Raster struct {
	dc      *gg.Context
	palette Palette
	scale   float64
}

// NewRaster allocates a w×h image cleared to the palette background. Text and
// strokes are sized for the given scene scale.
func NewRaster(w, h int, scale float64, p Palette) (*Raster, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid raster size %dx%d", w, h)
	}
	if scale <= 0 {
		scale = 1
	}
	ttf, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	dc := gg.NewContext(w, h)
	dc.SetFontFace(truetype.NewFace(ttf, &truetype.Options{
		Size:    baseFontSize * scale,
		DPI:     72,
		Hinting: font.HintingFull,
	}))
	dc.SetColor(p.Background)
	dc.Clear()
	return &Raster{dc: dc, palette: p, scale: scale}, nil
}

func (r *Raster) DrawEdge(e Edge) {
	r.dc.SetColor(r.palette.Edge)
	r.dc.SetLineWidth(baseLineWidth * r.scale)
	r.dc.MoveTo(e.From.X, e.From.Y)
	r.dc.QuadraticTo(e.Ctrl.X, e.Ctrl.Y, e.To.X, e.To.Y)
	r.dc.Stroke()
}

func (r *Raster) DrawBubble(b Bubble) {
	rect := b.Rect()
	w, h := b.Size.W, b.Size.H
	radius := h / 3

	r.dc.DrawRoundedRectangle(rect.Min.X, rect.Min.Y, w, h, radius)
	r.dc.SetColor(r.palette.Fill(b.Color, b.Completed))
	r.dc.FillPreserve()
	lw := baseLineWidth * r.scale
	border := r.palette.Border
	if b.Selected {
		border = r.palette.Selected
		lw *= 2
	}
	if b.Root {
		lw *= 1.5
	}
	r.dc.SetColor(border)
	r.dc.SetLineWidth(lw)
	r.dc.Stroke()

	textLeft := rect.Min.X + titlePadding*r.scale
	if b.Completed {
		r.drawCheck(textLeft, b.Center.Y, h/4)
		textLeft += h / 3
	}
	avail := rect.Max.X - titlePadding*r.scale - textLeft
	title := r.fit(b.Title, avail)
	r.dc.SetColor(r.palette.Text)
	r.dc.DrawStringAnchored(title, (textLeft+rect.Max.X-titlePadding*r.scale)/2, b.Center.Y, 0.5, 0.35)
}

func (r *Raster) drawCheck(x, cy, size float64) {
	r.dc.SetColor(r.palette.Selected)
	r.dc.SetLineWidth(baseLineWidth * r.scale)
	r.dc.MoveTo(x, cy)
	r.dc.LineTo(x+size*0.4, cy+size*0.4)
	r.dc.LineTo(x+size, cy-size*0.5)
	r.dc.Stroke()
}

// fit shortens s with an ellipsis until it is at most max pixels wide.
func (r *Raster) fit(s string, max float64) string {
	if w, _ := r.dc.MeasureString(s); w <= max {
		return s
	}
	for len(s) > 0 {
		_, size := utf8.DecodeLastRuneInString(s)
		s = s[:len(s)-size]
		if w, _ := r.dc.MeasureString(s + "…"); w <= max {
			return s + "…"
		}
	}
	return ""
}

func (r *Raster) Image() image.Image { return r.dc.Image() }

func (r *Raster) EncodePNG(w io.Writer) error { return r.dc.EncodePNG(w) }
