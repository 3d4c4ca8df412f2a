package rgb565

import (
	"image"
	"image/color"
)

// Color is a packed RGB565 value.
type Color uint16

// Common colors.
const (
	Black Color = 0x0000
	White Color = 0xFFFF
	Red   Color = 0xF800
	Green Color = 0x07E0
	Blue  Color = 0x001F
)

// RGBA implements color.Color.
// Each channel is expanded to 16 bits by replicating its high bits.
func (c Color) RGBA() (r, g, b, a uint32) {
	r5 := uint32(c>>11) & 0x1F
	g6 := uint32(c>>5) & 0x3F
	b5 := uint32(c) & 0x1F
	r = (r5<<11 | r5<<6 | r5<<1 | r5>>4)
	g = (g6<<10 | g6<<4 | g6>>2)
	b = (b5<<11 | b5<<6 | b5<<1 | b5>>4)
	return r, g, b, 0xFFFF
}

// FromRGB packs 8-bit channels.
func FromRGB(r, g, b uint8) Color {
	return Color(uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3))
}

func toRGB565(c color.Color) color.Color {
	if v, ok := c.(Color); ok {
		return v
	}
	r, g, b, _ := c.RGBA()
	return FromRGB(uint8(r>>8), uint8(g>>8), uint8(b>>8))
}

// Model converts colors to Color.
var Model = color.ModelFunc(toRGB565)

// Convert returns c as a Color.
func Convert(c color.Color) Color {
	return Model.Convert(c).(Color)
}

// Image is an RGB565 image. Pixels are stored big-endian, two bytes each.
type Image struct {
	Pix    []byte          // Pixel data
	Stride int             // Bytes per row
	Rect   image.Rectangle // Image bounds
}

// NewImage returns a black image with the given bounds.
func NewImage(r image.Rectangle) *Image {
	w, h := r.Dx(), r.Dy()
	if w < 0 || h < 0 {
		return &Image{Rect: r}
	}
	return &Image{
		Pix:    make([]byte, 2*w*h),
		Stride: 2 * w,
		Rect:   r,
	}
}

// ColorModel returns the color model of the image.
func (p *Image) ColorModel() color.Model {
	return Model
}

// Bounds returns the image bounds.
func (p *Image) Bounds() image.Rectangle {
	return p.Rect
}

// At implements image.Image.
func (p *Image) At(x, y int) color.Color {
	return p.RGB565At(x, y)
}

// RGB565At returns the pixel at (x, y), or Black outside the bounds.
func (p *Image) RGB565At(x, y int) Color {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return Black
	}
	i := p.PixOffset(x, y)
	return Color(uint16(p.Pix[i])<<8 | uint16(p.Pix[i+1]))
}

// Set implements draw.Image.
func (p *Image) Set(x, y int, c color.Color) {
	p.SetRGB565(x, y, Convert(c))
}

// SetRGB565 sets the pixel at (x, y) without color conversion.
func (p *Image) SetRGB565(x, y int, c Color) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return
	}
	i := p.PixOffset(x, y)
	p.Pix[i] = byte(c >> 8)
	p.Pix[i+1] = byte(c)
}

// PixOffset returns the index of the first byte of the pixel at (x, y).
func (p *Image) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*2
}

// Row returns the bytes of row y between columns x0 (inclusive) and x1
// (exclusive), aliasing Pix.
func (p *Image) Row(y, x0, x1 int) []byte {
	return p.Pix[p.PixOffset(x0, y):p.PixOffset(x1, y)]
}
