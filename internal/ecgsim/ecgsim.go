// Package ecgsim provides a synthetic, non-clinical ECG source that behaves
// like an analog input pin.
//
// Each heartbeat is the sum of gaussian P, Q, R, S and T waves on top of a
// slow baseline wander. The waveform advances by one sampling period on each
// Read, so the output only depends on how often it is read, not on wall time.
package ecgsim

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/physic"
)

// Opts is the configuration of a Sim.
type Opts struct {
	Name string // Pin name (default: "ECGSIM")

	BPM            float64       // Heart rate (default: 72)
	SamplingPeriod time.Duration // Time advanced per Read (default: 33.333ms)
	Noise          float64       // Noise amplitude relative to the R wave (default: 0)
	RawMax         int32         // Full-scale raw reading (default: 1023)
	Seed           uint64        // Noise seed

	// FailEvery makes every n-th Read fail, to exercise error handling.
	FailEvery int
}

// ErrRead is returned by Read when a failure is injected with FailEvery.
var ErrRead = errors.New("ecgsim: injected read failure")

// wave is one gaussian component of a heartbeat.
type wave struct {
	amp   float64       // relative to the R wave
	at    float64       // position within the cycle, 0..1
	sigma time.Duration // width
}

// The R wave is wide enough to be seen at display sampling rates (~30Hz).
var beat = []wave{
	{0.08, 0.18, 25 * time.Millisecond},  // P
	{-0.12, 0.30, 10 * time.Millisecond}, // Q
	{1.00, 0.32, 20 * time.Millisecond},  // R
	{-0.25, 0.35, 12 * time.Millisecond}, // S
	{0.25, 0.60, 50 * time.Millisecond},  // T
}

// Output mapping: baseline at 20% of full scale, R peak at 90%.
const (
	baseline = 0.2
	gain     = 0.7
)

// Sim is a synthetic ECG source implementing analog.PinADC.
type Sim struct {
	mu     sync.Mutex
	opts   Opts
	phase  float64
	reads  int
	rng    *rand.Rand
	halted bool
}

// New returns a simulator. opts can be nil to use defaults.
func New(opts *Opts) (*Sim, error) {
	o := Opts{}
	if opts != nil {
		o = *opts
	}
	if o.Name == "" {
		o.Name = "ECGSIM"
	}
	if o.BPM == 0 {
		o.BPM = 72
	}
	if o.SamplingPeriod == 0 {
		o.SamplingPeriod = 33333333 * time.Nanosecond
	}
	if o.RawMax == 0 {
		o.RawMax = 1023
	}
	if o.BPM < 0 || o.BPM > 300 {
		return nil, fmt.Errorf("ecgsim: heart rate %.0f out of range", o.BPM)
	}
	if o.SamplingPeriod < 0 || o.RawMax < 0 || o.Noise < 0 || o.FailEvery < 0 {
		return nil, errors.New("ecgsim: options must not be negative")
	}
	return &Sim{
		opts: o,
		rng:  rand.New(rand.NewPCG(o.Seed, o.Seed^0x9E3779B97F4A7C15)),
	}, nil
}

// String implements conn.Resource.
func (s *Sim) String() string {
	return fmt.Sprintf("ecgsim.Sim{%s, %.0f BPM}", s.opts.Name, s.opts.BPM)
}

// Halt implements conn.Resource. Further reads fail.
func (s *Sim) Halt() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.halted = true
	return nil
}

// Name implements pin.Pin.
func (s *Sim) Name() string {
	return s.opts.Name
}

// Number implements pin.Pin.
func (s *Sim) Number() int {
	return -1
}

// Function implements pin.Pin.
func (s *Sim) Function() string {
	return "ADC"
}

// Range implements analog.PinADC.
func (s *Sim) Range() (analog.Sample, analog.Sample) {
	return analog.Sample{}, analog.Sample{V: physic.Volt, Raw: s.opts.RawMax}
}

// Read implements analog.PinADC. It returns the next sample of the trace.
func (s *Sim) Read() (analog.Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.halted {
		return analog.Sample{}, errors.New("ecgsim: halted")
	}
	s.reads++
	v := s.level()
	s.advance()
	if s.opts.FailEvery > 0 && s.reads%s.opts.FailEvery == 0 {
		return analog.Sample{}, ErrRead
	}
	raw := int32(math.Round(v * float64(s.opts.RawMax)))
	if raw < 0 {
		raw = 0
	}
	if raw > s.opts.RawMax {
		raw = s.opts.RawMax
	}
	return analog.Sample{V: physic.ElectricPotential(v * float64(physic.Volt)), Raw: raw}, nil
}

// SetBPM changes the heart rate from the next beat on.
func (s *Sim) SetBPM(bpm float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts.BPM = bpm
}

func (s *Sim) cycle() time.Duration {
	return time.Duration(float64(time.Minute) / s.opts.BPM)
}

// level returns the output at the current phase as a fraction of full scale.
func (s *Sim) level() float64 {
	c := s.cycle().Seconds()
	v := 0.05 * math.Sin(2*math.Pi*s.phase)
	for _, w := range beat {
		z := (s.phase - w.at) * c / w.sigma.Seconds()
		v += w.amp * math.Exp(-0.5*z*z)
	}
	if s.opts.Noise > 0 {
		v += s.opts.Noise * (2*s.rng.Float64() - 1)
	}
	return baseline + gain*v
}

func (s *Sim) advance() {
	s.phase += float64(s.opts.SamplingPeriod) / float64(s.cycle())
	s.phase -= math.Floor(s.phase)
}
