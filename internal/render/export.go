package render

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/go-pdf/fpdf"

	"treemind/internal/geom"
	"treemind/internal/mindmap"
)

// ErrNoDocument is returned when an export produces nothing usable.
var ErrNoDocument = errors.New("export produced no document")

const (
	minPixelScale = 0.1
	maxPixelScale = 4

	// MaxRasterSide bounds the exported image side in pixels.
	MaxRasterSide = 8192
)

type ExportOptions struct {
	// PixelScale multiplies the canvas side to get the image side. Zero
	// means 1.
	PixelScale float64
	Palette    *Palette
	Title      string
}

// Document is an exported mind map: a PNG of the whole canvas and the same
// image wrapped in a single-page PDF sized to it.
type Document struct {
	PDF    []byte
	PNG    []byte
	Width  int
	Height int
}

type scaled float64

func (k scaled) ToScreen(p geom.Point) geom.Point { return p.Scale(float64(k)) }

func (k scaled) Scale() float64 { return float64(k) }

// Export renders the whole canvas of tree independent of any live viewport.
// It only reads the tree.
func Export(tree *mindmap.Tree, opts ExportOptions) (*Document, error) {
	k := opts.PixelScale
	if k == 0 {
		k = 1
	}
	if !geom.Finite(k) {
		return nil, fmt.Errorf("%w: invalid pixel scale %v", ErrNoDocument, k)
	}
	k = geom.Clamp(k, minPixelScale, maxPixelScale)
	palette := DefaultPalette()
	if opts.Palette != nil {
		palette = *opts.Palette
	}

	var tr Transform = Identity{}
	if k != 1 {
		tr = scaled(k)
	}
	scene := Build(tree, tr)

	sidef := math.Ceil(tree.Extent() * k)
	if sidef > MaxRasterSide {
		return nil, fmt.Errorf("%w: %v px image exceeds %d px, lower the pixel scale", ErrNoDocument, sidef, MaxRasterSide)
	}
	side := int(sidef)
	r, err := NewRaster(side, side, k, palette)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoDocument, err)
	}
	Draw(scene, r)

	var png bytes.Buffer
	if err := r.EncodePNG(&png); err != nil {
		return nil, fmt.Errorf("%w: encode png: %w", ErrNoDocument, err)
	}
	if png.Len() == 0 {
		return nil, ErrNoDocument
	}

	pdf, err := wrapPDF(png.Bytes(), float64(side), opts.Title)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoDocument, err)
	}
	return &Document{PDF: pdf, PNG: png.Bytes(), Width: side, Height: side}, nil
}

// wrapPDF places a PNG on one page of exactly its size, one point per pixel.
func wrapPDF(png []byte, side float64, title string) ([]byte, error) {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: side, Ht: side},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	if title != "" {
		pdf.SetTitle(title, true)
	}
	pdf.SetCreator("treemind", false)
	pdf.AddPage()

	opt := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("canvas", opt, bytes.NewReader(png))
	pdf.ImageOptions("canvas", 0, 0, side, side, false, opt, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	if out.Len() == 0 {
		return nil, errors.New("empty pdf")
	}
	return out.Bytes(), nil
}
