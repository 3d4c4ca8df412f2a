package ili9341

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/ecgreadout/rgb565"
	"tinygo.org/x/drivers"
)

// Panel geometry in its native (portrait) orientation.
const (
	nativeW = 240
	nativeH = 320
)

// Commands.
const (
	cmdSWRESET  = 0x01 // Software reset
	cmdSLPIN    = 0x10 // Enter sleep mode
	cmdSLPOUT   = 0x11 // Sleep out
	cmdINVOFF   = 0x20 // Display inversion off
	cmdINVON    = 0x21 // Display inversion on
	cmdGAMMASET = 0x26 // Gamma curve select
	cmdDISPOFF  = 0x28 // Display off
	cmdDISPON   = 0x29 // Display on
	cmdCASET    = 0x2A // Column address set
	cmdPASET    = 0x2B // Page address set
	cmdRAMWR    = 0x2C // Memory write
	cmdMADCTL   = 0x36 // Memory access control
	cmdVSCRSADD = 0x37 // Vertical scrolling start address
	cmdPIXFMT   = 0x3A // Pixel format
	cmdFRMCTR1  = 0xB1 // Frame rate control
	cmdDFUNCTR  = 0xB6 // Display function control
	cmdPWCTR1   = 0xC0 // Power control 1
	cmdPWCTR2   = 0xC1 // Power control 2
	cmdVMCTR1   = 0xC5 // VCOM control 1
	cmdVMCTR2   = 0xC7 // VCOM control 2
	cmdGMCTRP1  = 0xE0 // Positive gamma correction
	cmdGMCTRN1  = 0xE1 // Negative gamma correction
)

// MADCTL bits.
const (
	madctlMY  = 0x80 // Bottom to top
	madctlMX  = 0x40 // Right to left
	madctlMV  = 0x20 // Row/column exchange
	madctlML  = 0x10 // Vertical refresh order
	madctlBGR = 0x08 // Blue-green-red panel order
)

// maxChunk bounds a single SPI transfer; spidev rejects larger ones by default.
const maxChunk = 4096

// Opts is the configuration for the ILI9341 display.
type Opts struct {
	// Display dimensions in pixels, after rotation
	W int // Width (default: 320)
	H int // Height (default: 240)

	Rotation drivers.Rotation // Clockwise rotation (default: Rotation90 when W > H)
	Inverted bool             // Invert colors, needed by some IPS panels

	// SPI clock (default: 16MHz)
	Hz physic.Frequency

	// Optional hardware reset pin
	RST gpio.PinIO // Reset pin (optional, nil if not used)
}

// Dev is the device handle for the ILI9341 display.
type Dev struct {
	// Communication
	c   conn.Conn   // SPI connection
	dc  gpio.PinOut // Data/Command pin
	rst gpio.PinIO  // Reset pin (optional)

	// Display geometry
	rect     image.Rectangle
	rotation drivers.Rotation

	// Cached address window; an unchanged window is not sent again
	win image.Rectangle

	// Shadow of the panel RAM, used by Draw for differential updates
	shadow *rgb565.Image
	next   *rgb565.Image

	// Scratch transfer buffer
	buf []byte

	// State
	halted bool
}

// NewSPI creates a new ILI9341 device connected via SPI.
//
// The SPI port is configured in Mode0, 8-bit transfers. The dc (Data/Command)
// GPIO pin must be provided and configured as an output.
//
// opts can be nil to use defaults (320x240 landscape display).
func NewSPI(p spi.Port, dc gpio.PinOut, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &Opts{W: 320, H: 240, Rotation: drivers.Rotation90}
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	hz := opts.Hz
	if hz == 0 {
		hz = 16 * physic.MegaHertz
	}

	c, err := p.Connect(hz, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("ili9341: %w", err)
	}

	d := newDev(c, dc, opts)
	if err := d.init(opts); err != nil {
		return nil, err
	}
	return d, nil
}

func newDev(c conn.Conn, dc gpio.PinOut, opts *Opts) *Dev {
	rect := image.Rect(0, 0, opts.W, opts.H)
	chunk := maxChunk
	if l, ok := c.(conn.Limits); ok && l.MaxTxSize() > 0 && l.MaxTxSize() < chunk {
		chunk = l.MaxTxSize()
	}
	return &Dev{
		c:        c,
		dc:       dc,
		rst:      opts.RST,
		rect:     rect,
		rotation: opts.Rotation,
		shadow:   rgb565.NewImage(rect),
		buf:      make([]byte, chunk&^1),
	}
}

func (o *Opts) validate() error {
	if o.W <= 0 || o.H <= 0 {
		return errors.New("ili9341: width and height must be positive")
	}
	w, h := nativeW, nativeH
	if o.landscape() {
		w, h = nativeH, nativeW
	}
	if o.W > w || o.H > h {
		return fmt.Errorf("ili9341: %dx%d does not fit a %dx%d panel in this rotation", o.W, o.H, w, h)
	}
	return nil
}

func (o *Opts) landscape() bool {
	return landscape(o.Rotation)
}

// landscape reports whether rotation puts the long side of the panel
// horizontally.
func landscape(rotation drivers.Rotation) bool {
	switch rotation % 8 {
	case drivers.Rotation90, drivers.Rotation270, drivers.Rotation90Mirror, drivers.Rotation270Mirror:
		return true
	}
	return false
}

// init sends the initialization sequence to the display.
func (d *Dev) init(opts *Opts) error {
	if d.rst != nil {
		if err := d.rst.Out(gpio.High); err != nil {
			return fmt.Errorf("ili9341: failed to pull RST high: %w", err)
		}
		time.Sleep(5 * time.Millisecond)
		if err := d.rst.Out(gpio.Low); err != nil {
			return fmt.Errorf("ili9341: failed to pull RST low: %w", err)
		}
		time.Sleep(20 * time.Millisecond)
		if err := d.rst.Out(gpio.High); err != nil {
			return fmt.Errorf("ili9341: failed to pull RST high: %w", err)
		}
		time.Sleep(150 * time.Millisecond)
	} else {
		if err := d.sendCommand(cmdSWRESET); err != nil {
			return err
		}
		time.Sleep(150 * time.Millisecond)
	}

	for _, c := range initSequence {
		if err := d.sendCommand(c.cmd, c.args...); err != nil {
			return err
		}
	}
	if opts.Inverted {
		if err := d.sendCommand(cmdINVON); err != nil {
			return err
		}
	}
	if err := d.SetRotation(d.rotation); err != nil {
		return err
	}
	if err := d.sendCommand(cmdSLPOUT); err != nil {
		return err
	}
	time.Sleep(120 * time.Millisecond)
	if err := d.sendCommand(cmdDISPON); err != nil {
		return err
	}
	return d.FillRect(0, 0, d.rect.Dx(), d.rect.Dy(), rgb565.Black)
}

type command struct {
	cmd  byte
	args []byte
}

// initSequence is the power, VCOM and gamma setup recommended for the
// common 2.4"-2.8" modules.
var initSequence = []command{
	{0xEF, []byte{0x03, 0x80, 0x02}},
	{0xCF, []byte{0x00, 0xC1, 0x30}},
	{0xED, []byte{0x64, 0x03, 0x12, 0x81}},
	{0xE8, []byte{0x85, 0x00, 0x78}},
	{0xCB, []byte{0x39, 0x2C, 0x00, 0x34, 0x02}},
	{0xF7, []byte{0x20}},
	{0xEA, []byte{0x00, 0x00}},
	{cmdPWCTR1, []byte{0x23}},
	{cmdPWCTR2, []byte{0x10}},
	{cmdVMCTR1, []byte{0x3E, 0x28}},
	{cmdVMCTR2, []byte{0x86}},
	{cmdVSCRSADD, []byte{0x00}},
	{cmdPIXFMT, []byte{0x55}}, // 16 bits per pixel
	{cmdFRMCTR1, []byte{0x00, 0x18}},
	{cmdDFUNCTR, []byte{0x08, 0x82, 0x27}},
	{0xF2, []byte{0x00}}, // 3 gamma disable
	{cmdGAMMASET, []byte{0x01}},
	{cmdGMCTRP1, []byte{0x0F, 0x31, 0x2B, 0x0C, 0x0E, 0x08, 0x4E, 0xF1, 0x37, 0x07, 0x10, 0x03, 0x0E, 0x09, 0x00}},
	{cmdGMCTRN1, []byte{0x00, 0x0E, 0x14, 0x03, 0x11, 0x07, 0x31, 0xC1, 0x48, 0x08, 0x0F, 0x0C, 0x31, 0x36, 0x0F}},
}

// sendCommand sends a command byte followed by its parameters.
func (d *Dev) sendCommand(cmd byte, args ...byte) error {
	if err := d.dc.Out(gpio.Low); err != nil {
		return err
	}
	if err := d.c.Tx([]byte{cmd}, nil); err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}
	return d.sendData(args)
}

// sendData sends a slice of data bytes.
func (d *Dev) sendData(data []byte) error {
	if err := d.dc.Out(gpio.High); err != nil {
		return err
	}
	return d.c.Tx(data, nil)
}

// setWindow selects the RAM area the next memory write fills and starts the
// write.
func (d *Dev) setWindow(r image.Rectangle) error {
	x0, x1 := r.Min.X, r.Max.X-1
	y0, y1 := r.Min.Y, r.Max.Y-1
	if r.Min.X != d.win.Min.X || r.Max.X != d.win.Max.X {
		if err := d.sendCommand(cmdCASET, byte(x0>>8), byte(x0), byte(x1>>8), byte(x1)); err != nil {
			return err
		}
	}
	if r.Min.Y != d.win.Min.Y || r.Max.Y != d.win.Max.Y {
		if err := d.sendCommand(cmdPASET, byte(y0>>8), byte(y0), byte(y1>>8), byte(y1)); err != nil {
			return err
		}
	}
	d.win = r
	return d.sendCommand(cmdRAMWR)
}

// fill sends the same color for every pixel of r.
func (d *Dev) fill(r image.Rectangle, c rgb565.Color) error {
	if err := d.setWindow(r); err != nil {
		return err
	}
	n := 2 * r.Dx() * r.Dy()
	chunk := d.buf
	if n < len(chunk) {
		chunk = chunk[:n]
	}
	for i := 0; i < len(chunk); i += 2 {
		chunk[i] = byte(c >> 8)
		chunk[i+1] = byte(c)
	}
	if err := d.dc.Out(gpio.High); err != nil {
		return err
	}
	for n > 0 {
		k := len(chunk)
		if n < k {
			k = n
		}
		if err := d.c.Tx(chunk[:k], nil); err != nil {
			return err
		}
		n -= k
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			d.shadow.SetRGB565(x, y, c)
		}
	}
	return nil
}

// writeRect sends the pixels of r from src, which must cover r.
func (d *Dev) writeRect(r image.Rectangle, src *rgb565.Image) error {
	if err := d.setWindow(r); err != nil {
		return err
	}
	if err := d.dc.Out(gpio.High); err != nil {
		return err
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := src.Row(y, r.Min.X, r.Max.X)
		for len(row) > 0 {
			k := len(d.buf)
			if len(row) < k {
				k = len(row)
			}
			if err := d.c.Tx(row[:k], nil); err != nil {
				return err
			}
			row = row[k:]
		}
		copy(d.shadow.Row(y, r.Min.X, r.Max.X), src.Row(y, r.Min.X, r.Max.X))
	}
	return nil
}

// ColorModel returns the color model of the display.
func (d *Dev) ColorModel() color.Model {
	return rgb565.Model
}

// Bounds returns the image bounds of the display.
func (d *Dev) Bounds() image.Rectangle {
	return d.rect
}

// DrawPixel sets one pixel. Pixels outside the display are ignored.
func (d *Dev) DrawPixel(x, y int, c color.Color) error {
	return d.FillRect(x, y, 1, 1, c)
}

// DrawVLine draws length pixels downward from (x, y).
func (d *Dev) DrawVLine(x, y, length int, c color.Color) error {
	return d.FillRect(x, y, 1, length, c)
}

// FillRect fills a rectangle, clipped to the display.
func (d *Dev) FillRect(x, y, w, h int, c color.Color) error {
	if d.halted {
		return errors.New("ili9341: halted")
	}
	r := image.Rect(x, y, x+w, y+h).Intersect(d.rect)
	if r.Empty() {
		return nil
	}
	return d.fill(r, rgb565.Convert(c))
}

// Size implements drivers.Displayer.
func (d *Dev) Size() (x, y int16) {
	return int16(d.rect.Dx()), int16(d.rect.Dy())
}

// SetPixel implements drivers.Displayer. Errors are dropped; use DrawPixel to
// get them.
func (d *Dev) SetPixel(x, y int16, c color.RGBA) {
	_ = d.DrawPixel(int(x), int(y), c)
}

// Display implements drivers.Displayer. Every write goes straight to the
// panel, so there is nothing to flush.
func (d *Dev) Display() error {
	if d.halted {
		return errors.New("ili9341: halted")
	}
	return nil
}

// Draw draws an image onto the display, sending only the bounding box of the
// pixels that differ from what is already on the panel.
func (d *Dev) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	if d.halted {
		return errors.New("ili9341: halted")
	}
	dst = dst.Intersect(d.rect)
	if dst.Empty() {
		return nil
	}
	if d.next == nil {
		d.next = rgb565.NewImage(d.rect)
	}
	copy(d.next.Pix, d.shadow.Pix)
	draw.Draw(d.next, dst, src, sp, draw.Src)

	changed := d.calculateDiff(dst)
	if changed.Empty() {
		return nil
	}
	return d.writeRect(changed, d.next)
}

// calculateDiff returns the smallest rectangle within area holding every
// pixel that differs between the shadow and the next frame.
func (d *Dev) calculateDiff(area image.Rectangle) image.Rectangle {
	var changed image.Rectangle
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			if d.shadow.RGB565At(x, y) == d.next.RGB565At(x, y) {
				continue
			}
			changed = changed.Union(image.Rect(x, y, x+1, y+1))
		}
	}
	return changed
}

// SetRotation changes the rotation of the device (clockwise).
//
// Switching between portrait and landscape swaps the width and height of
// Bounds and clears the screen to black.
func (d *Dev) SetRotation(rotation drivers.Rotation) error {
	var madctl byte
	switch rotation % 8 {
	case drivers.Rotation0:
		madctl = madctlMX | madctlBGR
	case drivers.Rotation90:
		madctl = madctlMV | madctlBGR
	case drivers.Rotation180:
		madctl = madctlMY | madctlBGR | madctlML
	case drivers.Rotation270:
		madctl = madctlMX | madctlMY | madctlMV | madctlBGR | madctlML
	case drivers.Rotation0Mirror:
		madctl = madctlBGR
	case drivers.Rotation90Mirror:
		madctl = madctlMY | madctlMV | madctlBGR | madctlML
	case drivers.Rotation180Mirror:
		madctl = madctlMX | madctlMY | madctlBGR | madctlML
	case drivers.Rotation270Mirror:
		madctl = madctlMX | madctlMY | madctlMV | madctlBGR | madctlML
	}
	if err := d.sendCommand(cmdMADCTL, madctl); err != nil {
		return err
	}
	swap := landscape(rotation) != landscape(d.rotation)
	d.rotation = rotation
	if !swap {
		return nil
	}
	d.rect = image.Rect(0, 0, d.rect.Dy(), d.rect.Dx())
	d.shadow = rgb565.NewImage(d.rect)
	d.next = nil
	d.win = image.Rectangle{}
	return d.FillRect(0, 0, d.rect.Dx(), d.rect.Dy(), rgb565.Black)
}

// Rotation returns the current rotation.
func (d *Dev) Rotation() drivers.Rotation {
	return d.rotation
}

// Invert inverts the display colors.
func (d *Dev) Invert(invert bool) error {
	if d.halted {
		return errors.New("ili9341: halted")
	}
	cmd := byte(cmdINVOFF)
	if invert {
		cmd = cmdINVON
	}
	return d.sendCommand(cmd)
}

// Sleep puts the panel in or out of sleep mode. RAM content is kept.
func (d *Dev) Sleep(sleep bool) error {
	if d.halted {
		return errors.New("ili9341: halted")
	}
	if sleep {
		if err := d.sendCommand(cmdSLPIN); err != nil {
			return err
		}
		time.Sleep(5 * time.Millisecond)
		return nil
	}
	return d.sendCommand(cmdSLPOUT)
}

// Halt turns the display off.
// After calling Halt, the display will not respond to further commands
// until the device is re-initialized.
func (d *Dev) Halt() error {
	d.halted = true
	return d.sendCommand(cmdDISPOFF)
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("ili9341.Dev{%dx%d}", d.rect.Dx(), d.rect.Dy())
}
