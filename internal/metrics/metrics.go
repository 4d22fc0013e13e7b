// SPDX-License-Identifier: MIT

// Package metrics exposes Prometheus counters for the synthesis and analysis
// pipelines.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"timbre/internal/synth"
)

const namespace = "timbre"

// Metrics holds the pipeline collectors registered on one registry.
type Metrics struct {
	registry *prometheus.Registry

	renders          *prometheus.CounterVec
	renderSeconds    *prometheus.HistogramVec
	samples          *prometheus.CounterVec
	clipped          *prometheus.CounterVec
	nonFinite        *prometheus.CounterVec
	spectra          prometheus.Counter
	spectrumBins     prometheus.Gauge
	transformSeconds prometheus.Histogram
}

// New registers the pipeline collectors, plus the Go and process collectors,
// on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		renders: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "synth",
			Name:      "renders_total",
			Help:      "Completed synthesis runs by patch and outcome.",
		}, []string{"patch", "outcome"}),
		renderSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "synth",
			Name:      "render_duration_seconds",
			Help:      "Wall time of a synthesis run.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"patch"}),
		samples: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "synth",
			Name:      "samples_total",
			Help:      "Samples rendered.",
		}, []string{"patch"}),
		clipped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "synth",
			Name:      "clipped_samples_total",
			Help:      "Samples whose combined value fell outside the clip bounds.",
		}, []string{"patch"}),
		nonFinite: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "synth",
			Name:      "nonfinite_samples_total",
			Help:      "Samples whose combined value was NaN or infinite.",
		}, []string{"patch"}),
		spectra: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "spectra_total",
			Help:      "Spectra computed.",
		}),
		spectrumBins: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "transform_length",
			Help:      "Transform length K of the last spectrum.",
		}),
		transformSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "transform_duration_seconds",
			Help:      "Wall time of one transform.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// SampleObserver counts rendered, clipped and non-finite samples for one
// patch. Counters are resolved once so observing a sample does not allocate.
type SampleObserver struct {
	samples   prometheus.Counter
	clipped   prometheus.Counter
	nonFinite prometheus.Counter
}

// Observer returns a synth.Observer bound to patch.
func (m *Metrics) Observer(patch string) *SampleObserver {
	return &SampleObserver{
		samples:   m.samples.WithLabelValues(patch),
		clipped:   m.clipped.WithLabelValues(patch),
		nonFinite: m.nonFinite.WithLabelValues(patch),
	}
}

func (o *SampleObserver) ObserveSample(ev *synth.SampleEvent) {
	o.samples.Inc()
	switch {
	case !synth.IsFinite(ev.Raw):
		o.nonFinite.Inc()
	case ev.Raw != ev.Clipped:
		o.clipped.Inc()
	}
}

var _ synth.Observer = (*SampleObserver)(nil)

// RecordRender records the outcome and wall time of one synthesis run.
func (m *Metrics) RecordRender(patch string, elapsed time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.renders.WithLabelValues(patch, outcome).Inc()
	m.renderSeconds.WithLabelValues(patch).Observe(elapsed.Seconds())
}

// RecordSpectrum records one transform of length k.
func (m *Metrics) RecordSpectrum(k int, elapsed time.Duration) {
	m.spectra.Inc()
	m.spectrumBins.Set(float64(k))
	m.transformSeconds.Observe(elapsed.Seconds())
}
