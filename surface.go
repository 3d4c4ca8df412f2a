package ecgreadout

import (
	"image"
	"image/color"
	"image/draw"
)

// Surface is the set of drawing primitives the renderer needs from a display.
//
// Calls are synchronous. Addressing, framing and chip select handling are
// entirely up to the implementation.
type Surface interface {
	// DrawPixel sets a single pixel.
	DrawPixel(x, y int, c color.Color) error
	// DrawVLine draws length pixels downward starting at (x, y).
	DrawVLine(x, y, length int, c color.Color) error
	// FillRect fills a w×h rectangle whose top-left corner is (x, y).
	FillRect(x, y, w, h int, c color.Color) error
}

// ImageSurface is a Surface drawing into an in-memory image, e.g. an
// *rgb565.Image or an *image.RGBA. It also satisfies drivers.Displayer so
// tinyfont can write into it.
type ImageSurface struct {
	Img draw.Image
}

// NewImageSurface returns a Surface backed by img.
func NewImageSurface(img draw.Image) *ImageSurface {
	return &ImageSurface{Img: img}
}

// DrawPixel implements Surface.
func (s *ImageSurface) DrawPixel(x, y int, c color.Color) error {
	s.Img.Set(x, y, c)
	return nil
}

// DrawVLine implements Surface.
func (s *ImageSurface) DrawVLine(x, y, length int, c color.Color) error {
	return s.FillRect(x, y, 1, length, c)
}

// FillRect implements Surface.
func (s *ImageSurface) FillRect(x, y, w, h int, c color.Color) error {
	r := image.Rect(x, y, x+w, y+h).Intersect(s.Img.Bounds())
	if r.Empty() {
		return nil
	}
	draw.Draw(s.Img, r, image.NewUniform(c), image.Point{}, draw.Src)
	return nil
}

// Size implements drivers.Displayer.
func (s *ImageSurface) Size() (x, y int16) {
	b := s.Img.Bounds()
	return int16(b.Max.X), int16(b.Max.Y)
}

// SetPixel implements drivers.Displayer.
func (s *ImageSurface) SetPixel(x, y int16, c color.RGBA) {
	s.Img.Set(int(x), int(y), c)
}

// Display implements drivers.Displayer. The image is always up to date.
func (s *ImageSurface) Display() error {
	return nil
}
