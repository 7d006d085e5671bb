// Package metrics exposes the collector's Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters, gauges and histograms for the collector.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry             *prometheus.Registry
	requestsTotal        prometheus.Counter
	errorsTotal          prometheus.Counter
	eventsTotal          *prometheus.CounterVec
	phase                *prometheus.GaugeVec
	framesTotal          *prometheus.CounterVec
	framesDroppedTotal   *prometheus.CounterVec
	capturesSavedTotal   prometheus.Counter
	exportFailuresTotal  prometheus.Counter
	exportDuration       prometheus.Histogram
	classificationsTotal *prometheus.CounterVec
	classifyDuration     prometheus.Histogram
}

// Phases lists every session phase name so the phase gauge always reports all of them.
var Phases = []string{
	"no_camera",
	"waiting_for_config",
	"ready_to_record",
	"preparing_for_gesture",
	"recording_motion",
	"saving_motion",
	"export_failed",
}

// New creates and registers Prometheus metrics for the collector.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "collector_requests_total",
			Help: "Total number of HTTP requests received",
		}),
		errorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "collector_errors_total",
			Help: "Total number of HTTP responses with error status (4xx or 5xx)",
		}),
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "collector_session_events_total",
			Help: "Session events processed by the inbox, by event type",
		}, []string{"event"}),
		phase: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "collector_session_phase",
			Help: "1 for the active session phase, 0 otherwise",
		}, []string{"phase"}),
		framesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "collector_landmark_frames_total",
			Help: "Landmark results delivered by each source",
		}, []string{"source"}),
		framesDroppedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "collector_landmark_frames_dropped_total",
			Help: "Camera frames skipped because the source was still busy",
		}, []string{"source"}),
		capturesSavedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "collector_captures_saved_total",
			Help: "Gesture captures written to disk",
		}),
		exportFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "collector_export_failures_total",
			Help: "Gesture captures that failed to export",
		}),
		exportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "collector_export_duration_seconds",
			Help:    "Time from save command to terminal export result",
			Buckets: prometheus.DefBuckets,
		}),
		classificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "collector_classifications_total",
			Help: "Classifier runs by outcome (ok, error, skipped)",
		}, []string{"outcome"}),
		classifyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "collector_classify_duration_seconds",
			Help:    "Classifier run latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.errorsTotal,
		m.eventsTotal,
		m.phase,
		m.framesTotal,
		m.framesDroppedTotal,
		m.capturesSavedTotal,
		m.exportFailuresTotal,
		m.exportDuration,
		m.classificationsTotal,
		m.classifyDuration,
	)
	m.SetPhase("no_camera")

	return m
}

// Registry returns the registry the metrics are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	if m == nil {
		return
	}
	m.requestsTotal.Inc()
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	if m == nil {
		return
	}
	m.errorsTotal.Inc()
}

// IncEvent counts one processed session event.
func (m *Metrics) IncEvent(event string) {
	if m == nil {
		return
	}
	m.eventsTotal.WithLabelValues(event).Inc()
}

// SetPhase marks phase as the active session phase.
func (m *Metrics) SetPhase(phase string) {
	if m == nil {
		return
	}
	for _, p := range Phases {
		v := 0.0
		if p == phase {
			v = 1
		}
		m.phase.WithLabelValues(p).Set(v)
	}
}

// IncFrames counts one landmark result from source.
func (m *Metrics) IncFrames(source string) {
	if m == nil {
		return
	}
	m.framesTotal.WithLabelValues(source).Inc()
}

// IncFramesDropped counts one camera frame a busy source skipped.
func (m *Metrics) IncFramesDropped(source string) {
	if m == nil {
		return
	}
	m.framesDroppedTotal.WithLabelValues(source).Inc()
}

// ObserveExport records a finished export.
func (m *Metrics) ObserveExport(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.exportDuration.Observe(d.Seconds())
	if err != nil {
		m.exportFailuresTotal.Inc()
		return
	}
	m.capturesSavedTotal.Inc()
}

// ObserveClassification records a classifier run. A zero duration marks a skipped run.
func (m *Metrics) ObserveClassification(d time.Duration, err error) {
	if m == nil {
		return
	}
	switch {
	case err != nil:
		m.classificationsTotal.WithLabelValues("error").Inc()
	case d == 0:
		m.classificationsTotal.WithLabelValues("skipped").Inc()
		return
	default:
		m.classificationsTotal.WithLabelValues("ok").Inc()
	}
	m.classifyDuration.Observe(d.Seconds())
}

// Handler returns an http.Handler that serves Prometheus metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
