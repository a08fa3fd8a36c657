package render

import (
	"image/color"

	"github.com/charmbracelet/lipgloss"

	"treemind/internal/mindmap"
)

// Palette decides how color tags and node states look in raster output.
type Palette struct {
	Background color.Color
	Edge       color.Color
	Text       color.Color
	Border     color.Color
	Selected   color.Color
	Fills      map[mindmap.Color]color.RGBA
}

func DefaultPalette() Palette {
	return Palette{
		Background: color.White,
		Edge:       color.RGBA{120, 120, 130, 255},
		Text:       color.RGBA{33, 33, 33, 255},
		Border:     color.RGBA{70, 70, 80, 255},
		Selected:   color.RGBA{21, 101, 192, 255},
		Fills: map[mindmap.Color]color.RGBA{
			mindmap.ColorDefault: {245, 245, 245, 255},
			mindmap.ColorBlue:    {227, 242, 253, 255},
			mindmap.ColorGreen:   {232, 245, 233, 255},
			mindmap.ColorOrange:  {255, 243, 224, 255},
			mindmap.ColorPurple:  {243, 229, 245, 255},
			mindmap.ColorRed:     {255, 235, 238, 255},
			mindmap.ColorYellow:  {255, 253, 231, 255},
			mindmap.ColorTeal:    {224, 242, 241, 255},
		},
	}
}

// Fill returns the bubble fill for a tag; completed nodes are washed out
// toward white.
func (p Palette) Fill(c mindmap.Color, completed bool) color.Color {
	f, ok := p.Fills[c]
	if !ok {
		f = p.Fills[mindmap.ColorDefault]
	}
	if completed {
		f = color.RGBA{
			R: f.R/2 + 127,
			G: f.G/2 + 127,
			B: f.B/2 + 127,
			A: f.A,
		}
	}
	return f
}

// termColors are ANSI colors for the terminal renderer, by tag.
var termColors = map[mindmap.Color]lipgloss.Color{
	mindmap.ColorDefault: lipgloss.Color("7"),
	mindmap.ColorBlue:    lipgloss.Color("12"),
	mindmap.ColorGreen:   lipgloss.Color("10"),
	mindmap.ColorOrange:  lipgloss.Color("208"),
	mindmap.ColorPurple:  lipgloss.Color("13"),
	mindmap.ColorRed:     lipgloss.Color("9"),
	mindmap.ColorYellow:  lipgloss.Color("11"),
	mindmap.ColorTeal:    lipgloss.Color("14"),
}

// TermColor is the ANSI color of a tag.
func TermColor(c mindmap.Color) lipgloss.Color {
	if tc, ok := termColors[c]; ok {
		return tc
	}
	return termColors[mindmap.ColorDefault]
}
