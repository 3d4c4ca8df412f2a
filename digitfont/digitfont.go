// Package digitfont is a 3x5 bitmap font covering the characters needed for
// numeric readouts: digits, a few punctuation marks and the letters of "BPM".
//
// Font implements tinyfont.Fonter, so it works with tinyfont.WriteLine and
// any drivers.Displayer.
package digitfont

import (
	"image/color"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
)

const (
	// Width is the glyph width in pixels.
	Width = 3
	// Height is the glyph height in pixels.
	Height = 5
	// Advance is the horizontal distance between two glyph origins.
	Advance = Width + 1
)

// Font is the readout font. Concurrent use is not safe; glyphs are reused.
var Font tinyfont.Fonter = &font{}

// glyphs holds 5 rows per rune, 3 bits per row, bit 2 being the leftmost
// pixel.
var glyphs = map[rune][Height]byte{
	'0': {0b111, 0b101, 0b101, 0b101, 0b111},
	'1': {0b010, 0b110, 0b010, 0b010, 0b111},
	'2': {0b111, 0b001, 0b111, 0b100, 0b111},
	'3': {0b111, 0b001, 0b011, 0b001, 0b111},
	'4': {0b101, 0b101, 0b111, 0b001, 0b001},
	'5': {0b111, 0b100, 0b111, 0b001, 0b111},
	'6': {0b111, 0b100, 0b111, 0b101, 0b111},
	'7': {0b111, 0b001, 0b010, 0b010, 0b010},
	'8': {0b111, 0b101, 0b111, 0b101, 0b111},
	'9': {0b111, 0b101, 0b111, 0b001, 0b111},
	'-': {0b000, 0b000, 0b111, 0b000, 0b000},
	'.': {0b000, 0b000, 0b000, 0b000, 0b010},
	':': {0b000, 0b010, 0b000, 0b010, 0b000},
	' ': {},
	'B': {0b110, 0b101, 0b110, 0b101, 0b110},
	'P': {0b110, 0b101, 0b110, 0b100, 0b100},
	'M': {0b101, 0b111, 0b111, 0b101, 0b101},
	'?': {0b111, 0b001, 0b011, 0b000, 0b010},
}

type font struct {
	g glyph
}

func (f *font) GetYAdvance() uint8 { return Height + 1 }

func (f *font) GetGlyph(r rune) tinyfont.Glypher {
	if _, ok := glyphs[r]; !ok {
		r = '?'
	}
	f.g.r = r
	return &f.g
}

type glyph struct {
	r rune
}

// Draw draws the glyph with its bottom row on the baseline y.
func (g *glyph) Draw(display drivers.Displayer, x, y int16, c color.RGBA) {
	rows := glyphs[g.r]
	for row := 0; row < Height; row++ {
		for col := 0; col < Width; col++ {
			if rows[row]&(0b100>>col) == 0 {
				continue
			}
			display.SetPixel(x+int16(col), y-int16(Height-1-row), c)
		}
	}
}

func (g *glyph) Info() tinyfont.GlyphInfo {
	return tinyfont.GlyphInfo{
		Rune:     g.r,
		Width:    Width,
		Height:   Height,
		XAdvance: Advance,
		XOffset:  0,
		YOffset:  -(Height - 1),
	}
}

// Bitmap returns the rows of r and whether the font covers it.
func Bitmap(r rune) ([Height]byte, bool) {
	b, ok := glyphs[r]
	return b, ok
}
