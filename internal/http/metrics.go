package http

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "serachart"

// collectors are the service's own Prometheus metrics. A nil *collectors
// records nothing, which keeps the poller usable on its own.
type collectors struct {
	registry *prometheus.Registry

	fetches       *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	points        *prometheus.GaugeVec
	renders       *prometheus.CounterVec
	renderTime    *prometheus.HistogramVec
	hovers        *prometheus.CounterVec
}

func newCollectors(snapshots func() float64) *collectors {
	c := &collectors{
		registry: prometheus.NewRegistry(),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "history_fetches_total",
			Help:      "History batch fetches by metric and result.",
		}, []string{"metric", "result"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "history_fetch_duration_seconds",
			Help:      "Time spent fetching one history batch.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"metric"}),
		points: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "history_points",
			Help:      "Valid samples in the cached batch.",
		}, []string{"metric", "window"}),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "chart_renders_total",
			Help:      "Rendered charts by output format.",
		}, []string{"format"}),
		renderTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "chart_render_duration_seconds",
			Help:      "Time spent drawing and encoding one chart.",
			Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5},
		}, []string{"format"}),
		hovers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "hover_requests_total",
			Help:      "Hover lookups by outcome.",
		}, []string{"outcome"}),
	}
	c.registry.MustRegister(
		c.fetches,
		c.fetchDuration,
		c.points,
		c.renders,
		c.renderTime,
		c.hovers,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "render_snapshots",
			Help:      "Render snapshots kept for hover lookups.",
		}, snapshots),
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return c
}

func (c *collectors) handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *collectors) observeFetch(metric string, took time.Duration, err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.fetches.WithLabelValues(metric, result).Inc()
	c.fetchDuration.WithLabelValues(metric).Observe(took.Seconds())
}

func (c *collectors) observePoints(metric, window string, n int) {
	if c == nil {
		return
	}
	c.points.WithLabelValues(metric, window).Set(float64(n))
}

func (c *collectors) observeRender(format string, took time.Duration) {
	if c == nil {
		return
	}
	c.renders.WithLabelValues(format).Inc()
	c.renderTime.WithLabelValues(format).Observe(took.Seconds())
}

func (c *collectors) observeHover(outcome string) {
	if c == nil {
		return
	}
	c.hovers.WithLabelValues(outcome).Inc()
}
