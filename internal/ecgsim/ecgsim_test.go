package ecgsim

import (
	"errors"
	"testing"
	"time"

	"periph.io/x/conn/v3/analog"
)

var _ analog.PinADC = (*Sim)(nil)

func TestNewDefaults(t *testing.T) {
	s, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	if s.Name() != "ECGSIM" {
		t.Errorf("Name() = %q, want ECGSIM", s.Name())
	}
	if s.Number() != -1 {
		t.Errorf("Number() = %d, want -1", s.Number())
	}
	lo, hi := s.Range()
	if lo.Raw != 0 || hi.Raw != 1023 {
		t.Errorf("Range() = %d..%d, want 0..1023", lo.Raw, hi.Raw)
	}
	if got := s.String(); got != "ecgsim.Sim{ECGSIM, 72 BPM}" {
		t.Errorf("String() = %q", got)
	}
}

func TestNewInvalid(t *testing.T) {
	tests := []struct {
		name string
		opts Opts
	}{
		{"rate too high", Opts{BPM: 400}},
		{"negative rate", Opts{BPM: -1}},
		{"negative period", Opts{SamplingPeriod: -time.Millisecond}},
		{"negative noise", Opts{Noise: -0.1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(&tt.opts); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestBeats(t *testing.T) {
	tests := []struct {
		bpm   float64
		reads int
		want  int
	}{
		{60, 1000, 10},
		{120, 1000, 20},
		{90, 400, 6},
	}
	for _, tt := range tests {
		s, err := New(&Opts{BPM: tt.bpm, SamplingPeriod: 10 * time.Millisecond})
		if err != nil {
			t.Fatal(err)
		}
		thr := int32(613) // 60% of full scale
		beats := 0
		var prev int32
		for i := 0; i < tt.reads; i++ {
			v, err := s.Read()
			if err != nil {
				t.Fatal(err)
			}
			if v.Raw > thr && prev <= thr {
				beats++
			}
			prev = v.Raw
		}
		if beats != tt.want {
			t.Errorf("%.0f BPM: %d beats in %d reads, want %d", tt.bpm, beats, tt.reads, tt.want)
		}
	}
}

func TestRangeRespected(t *testing.T) {
	s, err := New(&Opts{Noise: 0.5, RawMax: 255, Seed: 7})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 500; i++ {
		v, err := s.Read()
		if err != nil {
			t.Fatal(err)
		}
		if v.Raw < 0 || v.Raw > 255 {
			t.Fatalf("read %d: raw %d outside 0..255", i, v.Raw)
		}
	}
}

func TestDeterministic(t *testing.T) {
	a, _ := New(&Opts{Noise: 0.05, Seed: 42})
	b, _ := New(&Opts{Noise: 0.05, Seed: 42})
	for i := 0; i < 100; i++ {
		va, _ := a.Read()
		vb, _ := b.Read()
		if va != vb {
			t.Fatalf("read %d: %v != %v", i, va, vb)
		}
	}
}

func TestFailEvery(t *testing.T) {
	s, err := New(&Opts{FailEvery: 3})
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i <= 9; i++ {
		_, err := s.Read()
		if wantErr := i%3 == 0; wantErr != errors.Is(err, ErrRead) {
			t.Errorf("read %d: err = %v", i, err)
		}
	}
}

func TestHalt(t *testing.T) {
	s, _ := New(nil)
	if err := s.Halt(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Read(); err == nil {
		t.Error("Read should fail when halted")
	}
}

func TestSetBPM(t *testing.T) {
	s, _ := New(nil)
	s.SetBPM(150)
	if got := s.cycle(); got != 400*time.Millisecond {
		t.Errorf("cycle() = %v, want 400ms", got)
	}
}
