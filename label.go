package ecgreadout

import (
	"fmt"
	"image"
	"image/color"

	"periph.io/x/devices/v3/ecgreadout/digitfont"
	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
)

// labelHeight is the space reserved above the plot area for the rate label.
const labelHeight = digitfont.Height + 3

// rateText formats a heart rate estimate for the label.
func rateText(bpm float64, err error) string {
	if err != nil {
		return "--- BPM"
	}
	return fmt.Sprintf("%3.0f BPM", bpm)
}

// label writes the heart rate above the trace. It needs a surface that can
// also act as a drivers.Displayer; other surfaces are left untouched.
type label struct {
	at     image.Point
	fg, bg color.Color
	last   string
}

func (l *label) draw(s Surface, text string) error {
	d, ok := s.(drivers.Displayer)
	if !ok || text == l.last {
		return nil
	}
	w := width(text)
	if prev := width(l.last); w < prev {
		w = prev
	}
	if err := s.FillRect(l.at.X, l.at.Y, int(w), digitfont.Height, l.bg); err != nil {
		return err
	}
	tinyfont.WriteLine(d, digitfont.Font, int16(l.at.X), int16(l.at.Y+digitfont.Height-1), text, toRGBA(l.fg))
	l.last = text
	return d.Display()
}

// width returns the horizontal space taken by s.
func width(s string) uint32 {
	if s == "" {
		return 0
	}
	_, w := tinyfont.LineWidth(digitfont.Font, s)
	return w
}

func toRGBA(c color.Color) color.RGBA {
	return color.RGBAModel.Convert(c).(color.RGBA)
}
