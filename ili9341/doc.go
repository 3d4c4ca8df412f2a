// Package ili9341 controls an ILI9341 TFT display via SPI.
//
// The ILI9341 is a 240×320 RGB565 LCD controller found on most 2.2"-3.2"
// SPI modules. This driver implements the display.Drawer interface from
// periph.io, the drivers.Displayer interface from TinyGo, and direct pixel,
// vertical line and rectangle primitives.
//
// # Display Characteristics
//
// - 16-bit color (RGB565), sent big-endian
// - 240×320 native portrait panel, rotatable in steps of 90°
// - Address windows: only the pixels being changed are transferred
// - Display inversion and sleep mode
//
// # Hardware Connection
//
//	Display Pin → System Pin
//	GND         → GND
//	VCC         → 3.3V
//	SCK         → SPI Clock (SCLK)
//	SDI/MOSI    → SPI Data (MOSI)
//	D/C         → GPIO (any available pin)
//	CS          → SPI Chip Select
//	RESET       → Optional: GPIO for hardware reset
//	LED         → 3.3V (backlight)
//
// # Basic Usage
//
//	package main
//
//	import (
//		"periph.io/x/conn/v3/gpio/gpioreg"
//		"periph.io/x/conn/v3/spi/spireg"
//		"periph.io/x/devices/v3/ecgreadout/ili9341"
//		"periph.io/x/devices/v3/ecgreadout/rgb565"
//		"periph.io/x/host/v3"
//	)
//
//	func main() {
//		host.Init()
//		p, _ := spireg.Open("")
//		dc := gpioreg.ByName("GPIO24")
//
//		// 320×240 landscape
//		dev, _ := ili9341.NewSPI(p, dc, nil)
//		defer dev.Halt()
//
//		dev.FillRect(10, 10, 100, 50, rgb565.Red)
//		dev.DrawVLine(200, 20, 120, rgb565.Green)
//	}
//
// # Primitives and Differential Updates
//
// DrawPixel, DrawVLine and FillRect open an address window just large enough
// for the shape and stream the color into it. Consecutive operations on the
// same columns or rows skip the redundant CASET or PASET command.
//
// Draw keeps a shadow copy of the panel RAM and only sends the bounding box
// of the pixels that differ from it:
//
//	dev.Draw(dev.Bounds(), myImage, image.Point{})
//
// # Rotation
//
// Opts.Rotation takes the drivers.Rotation constants. Rotation0 and
// Rotation180 are portrait (W ≤ 240, H ≤ 320), Rotation90 and Rotation270
// are landscape (W ≤ 320, H ≤ 240). SetRotation across orientations swaps
// W and H and clears the screen.
//
// # Datasheet
//
// https://cdn-shop.adafruit.com/datasheets/ILI9341.pdf
package ili9341
