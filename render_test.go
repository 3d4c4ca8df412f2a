package ecgreadout

import (
	"errors"
	"image"
	"testing"

	"periph.io/x/devices/v3/ecgreadout/rgb565"
)

var (
	fg = rgb565.White
	bg = rgb565.Black
)

func snap(samples ...Sample) Snapshot {
	return Snapshot{Samples: samples, Occupancy: len(samples), Capacity: len(samples) + 1}
}

func newTestRenderer() *Renderer {
	return NewRenderer(image.Pt(10, 20), 100, 40, fg, bg)
}

// steep counts the columns whose two samples differ by more than jitter.
func steep(s Snapshot, jitter int) int {
	n := 0
	for i := 1; i < s.Len(); i++ {
		if abs(int(s.At(i))-int(s.At(i-1))) > jitter {
			n++
		}
	}
	return n
}

func TestRenderEmpty(t *testing.T) {
	r := newTestRenderer()
	rec := &recorder{}
	if err := r.Render(snap(1, 2, 3), rec); err != nil {
		t.Fatal(err)
	}
	rec.ops = nil

	if err := r.Render(Snapshot{}, rec); err != nil {
		t.Fatal(err)
	}
	if len(rec.ops) != 0 {
		t.Errorf("empty snapshot issued %d operations", len(rec.ops))
	}
	if r.Previous().Len() != 3 {
		t.Error("empty snapshot replaced the previous one")
	}
}

func TestRenderNewestOnRight(t *testing.T) {
	b := newTestBuffer(t, 5)
	pushRange(b, 0, 4)

	r := newTestRenderer()
	rec := &recorder{}
	if err := r.Render(b.Snapshot(), rec); err != nil {
		t.Fatal(err)
	}
	if len(rec.ops) != 4 {
		t.Fatalf("got %d operations, want 4", len(rec.ops))
	}
	// Oldest sample (0) at the origin column, newest (3) at the right end.
	first, last := rec.ops[0], rec.ops[3]
	if first.x != 10 || first.y != 119 {
		t.Errorf("oldest drawn at (%d,%d), want (10,119)", first.x, first.y)
	}
	if last.x != 13 || last.y != 116 {
		t.Errorf("newest drawn at (%d,%d), want (13,116)", last.x, last.y)
	}
}

func TestRenderFirstFrame(t *testing.T) {
	r := newTestRenderer()
	rec := &recorder{}
	if err := r.Render(snap(10, 10, 90, 90), rec); err != nil {
		t.Fatal(err)
	}

	// Rows: 20 + 99 - amplitude.
	want := []op{
		{"pixel", 10, 109, 1, 1, fg},
		{"pixel", 11, 109, 1, 1, fg},
		{"vline", 12, 29, 1, 81, fg},
		{"pixel", 13, 29, 1, 1, fg},
	}
	if len(rec.ops) != len(want) {
		t.Fatalf("ops = %v, want %v", rec.ops, want)
	}
	for i := range want {
		if rec.ops[i] != want[i] {
			t.Errorf("op %d = %v, want %v", i, rec.ops[i], want[i])
		}
	}
	if st := r.Stats(); st.Columns != 4 || st.Pixels != 3 || st.DrawnRuns != 1 || st.ErasedRuns != 0 {
		t.Errorf("stats = %+v", st)
	}
}

func TestRenderSpike(t *testing.T) {
	r := newTestRenderer()
	rec := &recorder{}
	if err := r.Render(snap(0, 0, 0, 0, 0, 0), rec); err != nil {
		t.Fatal(err)
	}
	rec.ops = nil

	if err := r.Render(snap(0, 0, 0, 0, 0, 80), rec); err != nil {
		t.Fatal(err)
	}
	st := r.Stats()
	if st.DrawnRuns != 1 || st.ErasedRuns != 0 {
		t.Fatalf("stats = %+v, want one drawn run", st)
	}
	var runs []op
	for _, o := range rec.ops {
		if o.kind == "vline" {
			runs = append(runs, o)
		}
	}
	want := op{"vline", 15, 39, 1, 81, fg}
	if len(runs) != 1 || runs[0] != want {
		t.Errorf("runs = %v, want [%v]", runs, want)
	}
	if n := rec.count("pixel", bg); n != 6 {
		t.Errorf("%d pixels erased, want 6", n)
	}
}

func TestRenderOneOpPerColumn(t *testing.T) {
	a := snap(50, 52, 99, 10, 10, 60, 61, 0, 99, 98, 3, 3)
	b := snap(5, 90, 88, 87, 20, 21, 80, 15, 15, 15, 70, 0)
	const jitter = 40

	r := newTestRenderer()
	rec := &recorder{}
	if err := r.Render(a, rec); err != nil {
		t.Fatal(err)
	}
	rec.ops = nil
	if err := r.Render(b, rec); err != nil {
		t.Fatal(err)
	}

	perColumn := map[int][2]int{}
	for _, o := range rec.ops {
		c := perColumn[o.x]
		if o.c == bg {
			c[0]++
		} else {
			c[1]++
		}
		perColumn[o.x] = c
	}
	for i := 0; i < b.Len(); i++ {
		if c := perColumn[10+i]; c != [2]int{1, 1} {
			t.Errorf("column %d: %d erase and %d draw operations, want 1 and 1", i, c[0], c[1])
		}
	}
	if got, want := rec.count("vline", fg), steep(b, jitter); got != want {
		t.Errorf("%d runs drawn, want %d", got, want)
	}
	if got, want := rec.count("vline", bg), steep(a, jitter); got != want {
		t.Errorf("%d runs erased, want %d", got, want)
	}
	st := r.Stats()
	if st.Runs() != steep(a, jitter)+steep(b, jitter) {
		t.Errorf("stats = %+v", st)
	}
	if st.Pixels+st.Runs() != len(rec.ops) {
		t.Errorf("stats count %d operations, %d issued", st.Pixels+st.Runs(), len(rec.ops))
	}
}

func TestRenderDifferentLengths(t *testing.T) {
	tests := []struct {
		name        string
		prev, cur   Snapshot
		erase, draw int
	}{
		{"growing", snap(1, 2), snap(1, 2, 3, 4), 2, 4},
		{"shrinking", snap(1, 2, 3, 4, 5), snap(1, 2), 5, 2},
		{"first frame", Snapshot{}, snap(1, 2, 3), 0, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRenderer()
			rec := &recorder{}
			if tt.prev.Len() > 0 {
				if err := r.Render(tt.prev, rec); err != nil {
					t.Fatal(err)
				}
				rec.ops = nil
			}
			if err := r.Render(tt.cur, rec); err != nil {
				t.Fatal(err)
			}
			if got := rec.count("pixel", bg); got != tt.erase {
				t.Errorf("erased %d columns, want %d", got, tt.erase)
			}
			if got := rec.count("pixel", fg); got != tt.draw {
				t.Errorf("drew %d columns, want %d", got, tt.draw)
			}
		})
	}
}

func TestRenderRowClamp(t *testing.T) {
	r := newTestRenderer()
	rec := &recorder{}
	if err := r.Render(snap(-30, -30, 500, 500), rec); err != nil {
		t.Fatal(err)
	}
	if y := rec.ops[0].y; y != 119 {
		t.Errorf("negative sample drawn at row %d, want bottom row 119", y)
	}
	if o := rec.ops[2]; o.kind != "vline" || o.y != 20 || o.h != 100 {
		t.Errorf("full scale run = %v, want rows 20..119", o)
	}
	if y := rec.ops[3].y; y != 20 {
		t.Errorf("oversized sample drawn at row %d, want top row 20", y)
	}
}

func TestRenderSurfaceError(t *testing.T) {
	r := newTestRenderer()
	first := snap(1, 2, 3)
	if err := r.Render(first, &recorder{}); err != nil {
		t.Fatal(err)
	}

	rec := &recorder{fail: 2}
	if err := r.Render(snap(7, 8, 9), rec); !errors.Is(err, errSurface) {
		t.Fatalf("Render() error = %v, want errSurface", err)
	}
	if p := r.Previous(); !p.Equal(first) {
		t.Errorf("previous snapshot = %v after a failed frame, want %v", p.Samples, first.Samples)
	}
}

func TestDrawFrameAndClear(t *testing.T) {
	img := rgb565.NewImage(image.Rect(0, 0, 40, 40))
	s := NewImageSurface(img)
	r := NewRenderer(image.Pt(5, 5), 10, 40, fg, bg)

	if err := r.DrawFrame(s, 20); err != nil {
		t.Fatal(err)
	}
	border := []image.Point{{4, 4}, {25, 4}, {4, 15}, {25, 15}, {14, 4}, {14, 15}, {4, 10}, {25, 10}}
	for _, p := range border {
		if img.RGB565At(p.X, p.Y) != fg {
			t.Errorf("border pixel %v not drawn", p)
		}
	}
	inside := []image.Point{{5, 5}, {24, 14}, {3, 3}, {26, 16}}
	for _, p := range inside {
		if img.RGB565At(p.X, p.Y) != bg {
			t.Errorf("pixel %v should not be part of the border", p)
		}
	}

	if err := r.Render(snap(3, 3, 3), s); err != nil {
		t.Fatal(err)
	}
	if err := r.Clear(s, 20); err != nil {
		t.Fatal(err)
	}
	if r.Previous().Len() != 0 {
		t.Error("Clear kept the previous snapshot")
	}
	for x := 5; x < 8; x++ {
		if img.RGB565At(x, 11) != bg {
			t.Errorf("trace pixel (%d,11) survived Clear", x)
		}
	}
	if img.RGB565At(4, 4) != fg {
		t.Error("Clear erased the border")
	}
}
