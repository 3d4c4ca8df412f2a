package ecgreadout

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors updated by a Readout.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Samples            prometheus.Counter
	ADCErrors          prometheus.Counter
	Clamped            prometheus.Counter
	DrawOps            *prometheus.CounterVec
	Frames             prometheus.Counter
	HeartRate          prometheus.Gauge
	InsufficientSignal prometheus.Counter
}

// NewMetrics creates the collectors and registers them on reg.
// Pass prometheus.DefaultRegisterer to expose them through promhttp.Handler.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Samples: f.NewCounter(prometheus.CounterOpts{
			Namespace: "ecgreadout",
			Name:      "samples_total",
			Help:      "Samples pushed into the ring buffer.",
		}),
		ADCErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: "ecgreadout",
			Name:      "adc_errors_total",
			Help:      "Analog reads that failed and were replaced by a baseline sample.",
		}),
		Clamped: f.NewCounter(prometheus.CounterOpts{
			Namespace: "ecgreadout",
			Name:      "clamped_samples_total",
			Help:      "Readings outside the ADC range that were clamped.",
		}),
		DrawOps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ecgreadout",
			Name:      "draw_ops_total",
			Help:      "Primitive display operations issued by the renderer.",
		}, []string{"op"}),
		Frames: f.NewCounter(prometheus.CounterOpts{
			Namespace: "ecgreadout",
			Name:      "frames_total",
			Help:      "Frames rendered.",
		}),
		HeartRate: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "ecgreadout",
			Name:      "heart_rate_bpm",
			Help:      "Last successful heart rate estimate.",
		}),
		InsufficientSignal: f.NewCounter(prometheus.CounterOpts{
			Namespace: "ecgreadout",
			Name:      "insufficient_signal_total",
			Help:      "Estimates that could not find two peaks.",
		}),
	}
}

func (m *Metrics) sample() {
	if m != nil {
		m.Samples.Inc()
	}
}

func (m *Metrics) adcError() {
	if m != nil {
		m.ADCErrors.Inc()
	}
}

func (m *Metrics) clamped() {
	if m != nil {
		m.Clamped.Inc()
	}
}

func (m *Metrics) frame(st RenderStats) {
	if m == nil {
		return
	}
	m.Frames.Inc()
	m.DrawOps.WithLabelValues("pixel").Add(float64(st.Pixels))
	m.DrawOps.WithLabelValues("run").Add(float64(st.Runs()))
}

func (m *Metrics) rate(bpm float64, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.InsufficientSignal.Inc()
		return
	}
	m.HeartRate.Set(bpm)
}
