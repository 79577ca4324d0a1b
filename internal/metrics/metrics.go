// Package metrics provides Prometheus metrics for the render loop and server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dlford/clock/internal/render"
)

const namespace = "ledclock"

type Metrics struct {
	Frames       prometheus.Counter
	FrameSeconds prometheus.Histogram
	DigitRefresh prometheus.Counter
	DriverErrors prometheus.Counter
	WSClients    *prometheus.GaugeVec
	SamplerLag   prometheus.Gauge
}

// New registers every metric on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Frames: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Rendered frames",
		}),
		FrameSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frame_seconds",
			Help:      "Time to render and write one frame",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
		DigitRefresh: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "digit_refresh_total",
			Help:      "Clock string refreshes",
		}),
		DriverErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "driver_errors_total",
			Help:      "Failed frame writes",
		}),
		WSClients: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_clients",
			Help:      "Connected websocket clients",
		}, []string{"stream"}),
		SamplerLag: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sampler_lag_seconds",
			Help:      "How late the last clock refresh was",
		}),
	}
}

// Observe records one frame.
func (m *Metrics) Observe(s render.FrameStats) {
	if m == nil {
		return
	}
	m.Frames.Inc()
	m.FrameSeconds.Observe(s.Duration.Seconds())
	if s.DigitsChanged {
		m.DigitRefresh.Inc()
		m.SamplerLag.Set(s.Lag.Seconds())
	}
	if s.Err != nil {
		m.DriverErrors.Inc()
	}
}
