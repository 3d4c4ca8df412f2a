package ecgreadout

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"periph.io/x/conn/v3/analog"
)

// ErrHalted is returned by operations on a halted Readout.
var ErrHalted = errors.New("ecgreadout: halted")

// Opts is the configuration of a Readout.
type Opts struct {
	// Top-left corner of the plot area on the display.
	X, Y int
	// Plot size in pixels. W is also the buffer capacity, so up to W-1
	// samples are on screen.
	W, H int

	// Time between two samples (default: 33.333ms).
	SamplingPeriod time.Duration
	// Time between two redraws in Run (default: 100ms).
	RefreshPeriod time.Duration

	// Minimum amplitude difference between neighbouring samples for the
	// renderer to draw a connecting run instead of a single pixel (default: 40).
	// Zero selects the default; a negative value means no threshold, so every
	// step is drawn as a run.
	Jitter int
	// Amplitude a sample must exceed to count as a peak (default: 90).
	PeakThreshold Sample
	// Samples skipped after a peak (default: 4). Zero selects the default; a
	// negative value disables the refractory skip.
	Refractory int
	// Full-scale ADC reading; 0 uses the ADC range.
	RawMax int32

	// Trace and background colors (default: white on black).
	Foreground, Background color.Color

	// ShowRate writes the heart rate above the plot area on surfaces that
	// implement drivers.Displayer.
	ShowRate bool

	// Metrics is optional.
	Metrics *Metrics
	// Logger defaults to a disabled logger.
	Logger *zerolog.Logger
}

// DefaultOpts lays out a trace on a 320x240 display, leaving room for the
// border and the rate label.
var DefaultOpts = Opts{
	X:              1,
	Y:              labelHeight + 1,
	W:              318,
	H:              200,
	SamplingPeriod: 33333333 * time.Nanosecond,
	RefreshPeriod:  100 * time.Millisecond,
	Jitter:         40,
	PeakThreshold:  90,
	Refractory:     4,
	Foreground:     color.White,
	Background:     color.Black,
	ShowRate:       true,
}

// Readout samples an analog input, keeps the last W samples and plots them
// on a Surface.
type Readout struct {
	opts     Opts
	surface  Surface
	buf      *Buffer
	acq      *Acquirer
	renderer *Renderer
	label    *label
	log      zerolog.Logger

	halted atomic.Bool
}

// New returns a Readout sampling adc and drawing on s.
//
// opts can be nil to use DefaultOpts. Zero durations, thresholds and colors
// are replaced by their defaults.
func New(adc analog.PinADC, s Surface, opts *Opts) (*Readout, error) {
	if adc == nil {
		return nil, errors.New("ecgreadout: analog input is required")
	}
	if s == nil {
		return nil, errors.New("ecgreadout: surface is required")
	}
	o := DefaultOpts
	if opts != nil {
		o = *opts
		o.fillDefaults()
	}
	if err := o.validate(); err != nil {
		return nil, err
	}

	buf, err := NewBuffer(o.W)
	if err != nil {
		return nil, err
	}
	log := zerolog.Nop()
	if o.Logger != nil {
		log = *o.Logger
	}
	log = log.With().Str("adc", adc.Name()).Logger()

	acq := NewAcquirer(adc, buf, o.H, o.RawMax)
	acq.metrics = o.Metrics
	acq.log = log

	r := &Readout{
		opts:     o,
		surface:  s,
		buf:      buf,
		acq:      acq,
		renderer: NewRenderer(image.Pt(o.X, o.Y), o.H, o.Jitter, o.Foreground, o.Background),
		log:      log,
	}
	if o.ShowRate {
		r.label = &label{at: image.Pt(o.X, o.Y-labelHeight), fg: o.Foreground, bg: o.Background}
	}
	return r, nil
}

func (o *Opts) fillDefaults() {
	if o.SamplingPeriod == 0 {
		o.SamplingPeriod = DefaultOpts.SamplingPeriod
	}
	if o.RefreshPeriod == 0 {
		o.RefreshPeriod = DefaultOpts.RefreshPeriod
	}
	if o.Jitter == 0 {
		o.Jitter = DefaultOpts.Jitter
	} else if o.Jitter < 0 {
		o.Jitter = 0
	}
	if o.PeakThreshold == 0 {
		o.PeakThreshold = DefaultOpts.PeakThreshold
	}
	if o.Refractory == 0 {
		o.Refractory = DefaultOpts.Refractory
	} else if o.Refractory < 0 {
		o.Refractory = 0
	}
	if o.Foreground == nil {
		o.Foreground = DefaultOpts.Foreground
	}
	if o.Background == nil {
		o.Background = DefaultOpts.Background
	}
}

func (o *Opts) validate() error {
	if o.W < 2 {
		return errors.New("ecgreadout: width must be at least 2")
	}
	if o.H <= 0 {
		return errors.New("ecgreadout: height must be positive")
	}
	if o.X < 0 || o.Y < 0 {
		return errors.New("ecgreadout: origin must not be negative")
	}
	if o.ShowRate && o.Y < labelHeight {
		return fmt.Errorf("ecgreadout: origin Y must be at least %d to fit the rate label", labelHeight)
	}
	if o.SamplingPeriod < 0 || o.RefreshPeriod < 0 {
		return errors.New("ecgreadout: periods must be positive")
	}
	return nil
}

// Buffer returns the sample buffer.
func (r *Readout) Buffer() *Buffer {
	return r.buf
}

// Tick takes one sample. It is meant to be called every SamplingPeriod and
// may run concurrently with Display and HeartRate.
func (r *Readout) Tick() {
	if r.halted.Load() {
		return
	}
	r.acq.Tick()
}

// DrawFrame clears the plot area and outlines it.
func (r *Readout) DrawFrame() error {
	if r.halted.Load() {
		return ErrHalted
	}
	if err := r.renderer.Clear(r.surface, r.opts.W); err != nil {
		return err
	}
	if r.label != nil {
		r.label.last = ""
	}
	return r.renderer.DrawFrame(r.surface, r.opts.W)
}

// Display redraws the trace from a fresh snapshot and, when enabled, the rate
// label. It must not be called concurrently with itself or DrawFrame.
func (r *Readout) Display() error {
	if r.halted.Load() {
		return ErrHalted
	}
	snap := r.buf.Snapshot()
	if err := r.renderer.Render(snap, r.surface); err != nil {
		return fmt.Errorf("ecgreadout: render: %w", err)
	}
	st := r.renderer.Stats()
	r.opts.Metrics.frame(st)
	r.log.Trace().
		Int("samples", snap.Len()).
		Int("pixels", st.Pixels).
		Int("runs", st.Runs()).
		Msg("frame")

	if r.label == nil {
		return nil
	}
	bpm, err := r.estimate(snap)
	if err := r.label.draw(r.surface, rateText(bpm, err)); err != nil {
		return fmt.Errorf("ecgreadout: label: %w", err)
	}
	return nil
}

// HeartRate estimates the heart rate from the current window.
// It returns ErrInsufficientSignal when fewer than two peaks are visible.
func (r *Readout) HeartRate() (float64, error) {
	return r.estimate(r.buf.Snapshot())
}

func (r *Readout) estimate(snap Snapshot) (float64, error) {
	bpm, err := EstimateRate(snap, r.opts.PeakThreshold, r.opts.Refractory, r.opts.SamplingPeriod)
	r.opts.Metrics.rate(bpm, err)
	if err != nil {
		r.log.Debug().Err(err).Int("samples", snap.Len()).Msg("no rate")
	}
	return bpm, err
}

// Run samples every SamplingPeriod and redraws every RefreshPeriod until ctx
// is done or a redraw fails.
func (r *Readout) Run(ctx context.Context) error {
	if err := r.DrawFrame(); err != nil {
		return err
	}
	r.log.Info().
		Dur("sampling", r.opts.SamplingPeriod).
		Dur("refresh", r.opts.RefreshPeriod).
		Int("width", r.opts.W).
		Int("height", r.opts.H).
		Msg("readout started")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t := time.NewTicker(r.opts.SamplingPeriod)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-t.C:
				r.Tick()
			}
		}
	})
	g.Go(func() error {
		t := time.NewTicker(r.opts.RefreshPeriod)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-t.C:
				if err := r.Display(); err != nil {
					r.log.Error().Err(err).Msg("display failed")
					return err
				}
			}
		}
	})
	return g.Wait()
}

// Halt stops sampling and drawing. The surface is not touched.
func (r *Readout) Halt() error {
	r.halted.Store(true)
	return nil
}

// String returns a string representation of the readout.
func (r *Readout) String() string {
	return fmt.Sprintf("ecgreadout.Readout{%dx%d@(%d,%d)}", r.opts.W, r.opts.H, r.opts.X, r.opts.Y)
}
