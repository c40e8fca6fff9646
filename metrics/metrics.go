// Package metrics exposes Prometheus collectors for analyses and front ends.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry       *prometheus.Registry
	analyses       *prometheus.CounterVec
	analysisTime   prometheus.Histogram
	eventsParsed   prometheus.Counter
	recordsSkipped prometheus.Counter
	botMessages    *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	activeSessions prometheus.GaugeFunc
}

// New registers every collector on a fresh registry. sessions, when non-nil,
// backs the active sessions gauge.
func New(sessions func() int) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spike_analyses_total",
			Help: "Analyses run, by outcome.",
		}, []string{"outcome"}),
		analysisTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "spike_analysis_duration_seconds",
			Help:    "Time spent parsing and scanning one spike log.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		eventsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spike_events_parsed_total",
			Help: "Spike records parsed into events.",
		}),
		recordsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spike_records_skipped_total",
			Help: "Record blocks dropped for a missing or invalid Time field.",
		}),
		botMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spike_bot_messages_total",
			Help: "Telegram messages handled, by kind.",
		}, []string{"kind"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
	if sessions == nil {
		sessions = func() int { return 0 }
	}
	m.activeSessions = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "spike_sessions_active",
		Help: "Chats currently collecting spike text.",
	}, func() float64 { return float64(sessions()) })

	m.registry.MustRegister(
		m.analyses,
		m.analysisTime,
		m.eventsParsed,
		m.recordsSkipped,
		m.botMessages,
		m.httpRequests,
		m.httpDuration,
		m.activeSessions,
	)
	return m
}

func (m *Metrics) ObserveAnalysis(outcome string, d time.Duration) {
	m.analyses.WithLabelValues(outcome).Inc()
	m.analysisTime.Observe(d.Seconds())
}

func (m *Metrics) ObserveParse(events, skipped int) {
	m.eventsParsed.Add(float64(events))
	m.recordsSkipped.Add(float64(skipped))
}

func (m *Metrics) BotMessage(kind string) {
	m.botMessages.WithLabelValues(kind).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// Instrument wraps next, counting requests and timing them under route.
func (m *Metrics) Instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		m.httpRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	})
}
