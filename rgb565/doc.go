// Package rgb565 provides the 16-bit color format used by ILI9341-class TFT
// controllers.
//
// Each pixel is 5 bits of red, 6 bits of green and 5 bits of blue packed
// into a big-endian 16-bit word, the order the controller expects on the
// wire:
//
//	bit:   15..11  10..5  4..0
//	       R       G      B
//
//	White = 0xFFFF, Black = 0x0000, Red = 0xF800
//	Bytes on the wire for 0xF800: 0xF8 0x00
//
// This package provides:
//
// - Color: a color type holding one packed RGB565 value
// - Model: a color model converting standard Go colors to Color
// - Image: an image.Image / draw.Image whose Pix buffer can be sent to the
// display as is
//
// Example usage:
//
//	img := rgb565.NewImage(image.Rect(0, 0, 320, 240))
//	img.SetRGB565(10, 20, rgb565.Color(0xF800))
//	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
package rgb565
