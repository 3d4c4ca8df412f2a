package ecgreadout

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/pin"
)

// fakeADC returns raw[i] on the i-th read, or the error registered for i.
type fakeADC struct {
	pin.BasicPin
	raw   []int32
	errs  map[int]error
	max   int32
	reads int
}

func (f *fakeADC) Range() (analog.Sample, analog.Sample) {
	return analog.Sample{}, analog.Sample{V: 3300 * physic.MilliVolt, Raw: f.max}
}

func (f *fakeADC) Read() (analog.Sample, error) {
	i := f.reads
	f.reads++
	if err := f.errs[i]; err != nil {
		return analog.Sample{Raw: 512}, err
	}
	return analog.Sample{Raw: f.raw[i%len(f.raw)]}, nil
}

func newFakeADC(max int32, raw ...int32) *fakeADC {
	return &fakeADC{BasicPin: pin.BasicPin{N: "A0"}, raw: raw, max: max}
}

func TestAcquirerScale(t *testing.T) {
	tests := []struct {
		raw     int32
		want    Sample
		clamped bool
	}{
		{0, 0, false},
		{1023, 200, false},
		{512, 100, false},
		{1, 0, false},
		{2000, 200, true},
		{-5, 0, true},
	}
	for _, tt := range tests {
		adc := newFakeADC(1023, tt.raw)
		buf, _ := NewBuffer(8)
		a := NewAcquirer(adc, buf, 200, 0)

		if got := a.Tick(); got != tt.want {
			t.Errorf("raw %d: Tick() = %d, want %d", tt.raw, got, tt.want)
		}
		if s := buf.Snapshot(); s.Len() != 1 || s.At(0) != tt.want {
			t.Errorf("raw %d: buffer = %v", tt.raw, s.Samples)
		}
		if _, clamped := a.scale(tt.raw); clamped != tt.clamped {
			t.Errorf("raw %d: clamped = %v, want %v", tt.raw, clamped, tt.clamped)
		}
	}
}

func TestAcquirerRawMax(t *testing.T) {
	tests := []struct {
		name     string
		rangeMax int32
		rawMax   int32
		want     int32
	}{
		{"explicit", 4095, 255, 255},
		{"from range", 4095, 0, 4095},
		{"default", 0, 0, DefaultRawMax},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, _ := NewBuffer(4)
			a := NewAcquirer(newFakeADC(tt.rangeMax, 0), buf, 100, tt.rawMax)
			if a.rawMax != tt.want {
				t.Errorf("rawMax = %d, want %d", a.rawMax, tt.want)
			}
		})
	}
}

func TestAcquirerReadError(t *testing.T) {
	adc := newFakeADC(1023, 1023)
	adc.errs = map[int]error{1: errors.New("bus error")}
	buf, _ := NewBuffer(8)
	reg := prometheus.NewRegistry()
	a := NewAcquirer(adc, buf, 100, 0)
	a.metrics = NewMetrics(reg)

	for i := 0; i < 3; i++ {
		a.Tick()
	}
	s := buf.Snapshot()
	want := []Sample{100, 0, 100}
	for i, v := range want {
		if s.At(i) != v {
			t.Fatalf("buffer = %v, want %v", s.Samples, want)
		}
	}
	if got := testutil.ToFloat64(a.metrics.ADCErrors); got != 1 {
		t.Errorf("adc errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(a.metrics.Samples); got != 3 {
		t.Errorf("samples = %v, want 3", got)
	}
}

func TestAcquirerClampMetric(t *testing.T) {
	adc := newFakeADC(100, 50, 150, -1)
	buf, _ := NewBuffer(8)
	a := NewAcquirer(adc, buf, 10, 0)
	a.metrics = NewMetrics(prometheus.NewRegistry())

	for i := 0; i < 3; i++ {
		a.Tick()
	}
	if got := testutil.ToFloat64(a.metrics.Clamped); got != 2 {
		t.Errorf("clamped = %v, want 2", got)
	}
	s := buf.Snapshot()
	if s.At(0) != 5 || s.At(1) != 10 || s.At(2) != 0 {
		t.Errorf("buffer = %v, want [5 10 0]", s.Samples)
	}
}
