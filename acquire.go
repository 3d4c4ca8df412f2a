package ecgreadout

import (
	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/analog"
)

// DefaultRawMax is the full-scale reading assumed when the ADC does not
// report a usable range (10-bit converters are the common case).
const DefaultRawMax = 1023

// Acquirer reads one analog value per tick, rescales it to pixel units and
// pushes it into a Buffer.
type Acquirer struct {
	adc    analog.PinADC
	buf    *Buffer
	height int
	rawMax int32

	metrics *Metrics
	log     zerolog.Logger
}

// NewAcquirer returns an Acquirer feeding buf from adc.
//
// Readings in [0, rawMax] are mapped linearly onto [0, height]. If rawMax is
// not positive, the maximum of adc.Range() is used, then DefaultRawMax.
func NewAcquirer(adc analog.PinADC, buf *Buffer, height int, rawMax int32) *Acquirer {
	if rawMax <= 0 {
		if _, hi := adc.Range(); hi.Raw > 0 {
			rawMax = hi.Raw
		} else {
			rawMax = DefaultRawMax
		}
	}
	return &Acquirer{
		adc:    adc,
		buf:    buf,
		height: height,
		rawMax: rawMax,
		log:    zerolog.Nop(),
	}
}

// Tick samples the ADC once and pushes the scaled value.
//
// It never fails: a read error is logged and recorded as a baseline sample,
// and out-of-range readings are clamped.
func (a *Acquirer) Tick() Sample {
	v, err := a.adc.Read()
	if err != nil {
		a.metrics.adcError()
		a.log.Debug().Err(err).Msg("read failed")
		v.Raw = 0
	}
	s, clamped := a.scale(v.Raw)
	if clamped {
		a.metrics.clamped()
	}
	a.buf.Push(s)
	a.metrics.sample()
	return s
}

// scale maps a raw reading onto [0, height].
func (a *Acquirer) scale(raw int32) (Sample, bool) {
	switch {
	case raw < 0:
		return 0, true
	case raw > a.rawMax:
		return Sample(a.height), true
	}
	return Sample(int64(raw) * int64(a.height) / int64(a.rawMax)), false
}
