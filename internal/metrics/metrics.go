// ABOUTME: Prometheus metrics for the playback queue
// ABOUTME: Observes scheduler activity and serves a private registry over HTTP
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/voxroute/voxroute/internal/playback"
)

// Metrics holds the voxroute collectors
type Metrics struct {
	reg      *prometheus.Registry
	channels int

	enqueued   *prometheus.CounterVec
	playbacks  *prometheus.CounterVec
	queueDepth prometheus.Gauge
	duration   prometheus.Histogram
}

// otherChannel labels requests for channels outside the table
const otherChannel = "other"

// New creates collectors on a private registry. Channels at or above
// channels share one label value.
func New(channels int) *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reg.MustRegister(collectors.NewGoCollector())

	return &Metrics{
		reg:      reg,
		channels: channels,

		enqueued: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voxroute_requests_total",
			Help: "Number of playback requests received per channel",
		}, []string{"channel"}),

		playbacks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voxroute_playbacks_total",
			Help: "Number of finished playback units by outcome",
		}, []string{"outcome"}),

		queueDepth: f.NewGauge(prometheus.GaugeOpts{
			Name: "voxroute_queue_depth",
			Help: "Number of units waiting to play",
		}),

		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "voxroute_playback_seconds",
			Help:    "Time spent playing a unit",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),
	}
}

// Enqueued implements playback.Observer
func (m *Metrics) Enqueued(channel, depth int) {
	m.enqueued.WithLabelValues(m.channelLabel(channel)).Inc()
	m.queueDepth.Set(float64(depth))
}

func (m *Metrics) channelLabel(channel int) string {
	if channel < 0 || channel >= m.channels {
		return otherChannel
	}
	return strconv.Itoa(channel)
}

// Finished implements playback.Observer
func (m *Metrics) Finished(channel int, outcome playback.Outcome, elapsed time.Duration, depth int) {
	m.playbacks.WithLabelValues(outcome.String()).Inc()
	m.duration.Observe(elapsed.Seconds())
	m.queueDepth.Set(float64(depth))
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.InstrumentMetricHandler(
		m.reg, promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{}),
	)
}
