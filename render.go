package ecgreadout

import (
	"image"
	"image/color"
)

// RenderStats counts the primitives issued for one frame.
type RenderStats struct {
	Columns    int // columns visited
	Pixels     int // single pixel operations, erase and draw
	ErasedRuns int // vertical runs drawn in the background color
	DrawnRuns  int // vertical runs drawn in the foreground color
}

// Runs returns the total number of vertical runs.
func (s RenderStats) Runs() int {
	return s.ErasedRuns + s.DrawnRuns
}

// Renderer draws a trace incrementally: each frame erases what the previous
// snapshot put on screen and draws the new snapshot, one column at a time,
// instead of clearing the whole plot area.
//
// Column 0 is the oldest sample of a snapshot. The segment drawn in column i
// connects sample i-1 to sample i; when both are within the jitter threshold
// of each other only the sample pixel itself is touched.
type Renderer struct {
	origin image.Point
	height int
	jitter int
	fg, bg color.Color

	prev  Snapshot
	stats RenderStats
}

// NewRenderer returns a renderer whose plot area has its top-left corner at
// origin and is height pixels tall.
func NewRenderer(origin image.Point, height, jitter int, fg, bg color.Color) *Renderer {
	return &Renderer{
		origin: origin,
		height: height,
		jitter: jitter,
		fg:     fg,
		bg:     bg,
	}
}

// Previous returns the snapshot currently on screen.
func (r *Renderer) Previous() Snapshot {
	return r.prev
}

// Stats returns the counters of the last Render call.
func (r *Renderer) Stats() RenderStats {
	return r.stats
}

// Render replaces the trace of the previous snapshot with cur.
//
// Columns covered by both snapshots get exactly one erase operation and one
// draw operation. Columns only covered by cur are drawn, columns only covered by
// the previous snapshot are erased. An empty cur is a no-op. On a surface
// error the frame is abandoned and the previous snapshot is kept, so the
// next call erases from the old state.
func (r *Renderer) Render(cur Snapshot, s Surface) error {
	r.stats = RenderStats{}
	if cur.Len() == 0 {
		return nil
	}
	n := cur.Len()
	if r.prev.Len() > n {
		n = r.prev.Len()
	}
	for i := 0; i < n; i++ {
		x := r.origin.X + i
		if i < r.prev.Len() {
			if err := r.erase(s, x, i); err != nil {
				return err
			}
		}
		if i < cur.Len() {
			if err := r.draw(s, x, cur.Samples, i); err != nil {
				return err
			}
		}
	}
	r.stats.Columns = n
	r.prev = cur
	return nil
}

// erase removes what the previous frame drew in column i: the connecting run
// when there was one, which covers the sample pixel, or the pixel alone.
func (r *Renderer) erase(s Surface, x, i int) error {
	if top, length, ok := r.run(r.prev.Samples, i); ok {
		r.stats.ErasedRuns++
		return s.DrawVLine(x, top, length, r.bg)
	}
	r.stats.Pixels++
	return s.DrawPixel(x, r.row(r.prev.At(i)), r.bg)
}

// draw draws column i: the connecting run when it is steep, which covers
// the sample pixel, or the sample pixel alone.
func (r *Renderer) draw(s Surface, x int, samples []Sample, i int) error {
	if top, length, ok := r.run(samples, i); ok {
		r.stats.DrawnRuns++
		return s.DrawVLine(x, top, length, r.fg)
	}
	r.stats.Pixels++
	return s.DrawPixel(x, r.row(samples[i]), r.fg)
}

// run returns the vertical span between samples[i-1] and samples[i] when
// their difference exceeds the jitter threshold.
func (r *Renderer) run(samples []Sample, i int) (top, length int, ok bool) {
	if i == 0 {
		return 0, 0, false
	}
	a, b := samples[i-1], samples[i]
	if abs(int(a)-int(b)) <= r.jitter {
		return 0, 0, false
	}
	top, bottom := r.row(a), r.row(b)
	if top > bottom {
		top, bottom = bottom, top
	}
	return top, bottom - top + 1, true
}

// row converts an amplitude to a screen row; larger amplitudes are higher up.
func (r *Renderer) row(v Sample) int {
	h := int(v)
	if h < 0 {
		h = 0
	}
	if h > r.height-1 {
		h = r.height - 1
	}
	return r.origin.Y + r.height - 1 - h
}

// DrawFrame outlines the plot area with a one pixel border in the foreground
// color, just outside of it.
func (r *Renderer) DrawFrame(s Surface, width int) error {
	x0, y0 := r.origin.X-1, r.origin.Y-1
	w, h := width+2, r.height+2
	if err := s.FillRect(x0, y0, w, 1, r.fg); err != nil {
		return err
	}
	if err := s.FillRect(x0, y0+h-1, w, 1, r.fg); err != nil {
		return err
	}
	if err := s.DrawVLine(x0, y0, h, r.fg); err != nil {
		return err
	}
	return s.DrawVLine(x0+w-1, y0, h, r.fg)
}

// Clear fills the plot area with the background color and forgets the
// on-screen snapshot.
func (r *Renderer) Clear(s Surface, width int) error {
	if err := s.FillRect(r.origin.X, r.origin.Y, width, r.height, r.bg); err != nil {
		return err
	}
	r.prev = Snapshot{}
	return nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
