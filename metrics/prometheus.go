// Package metrics exports worker metrics to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/nmcp/model"
)

const namespace = "nmcp"

// PrometheusCollector records worker metrics as Prometheus series. It
// implements nmcp.MetricsCollector.
type PrometheusCollector struct {
	cycles         *prometheus.CounterVec
	pending        prometheus.Gauge
	items          *prometheus.CounterVec
	itemDuration   prometheus.Histogram
	pages          *prometheus.CounterVec
	points         *prometheus.CounterVec
	commits        *prometheus.CounterVec
	commitDuration *prometheus.HistogramVec
}

// NewPrometheusCollector registers the worker metrics with reg.
// A nil reg selects prometheus.DefaultRegisterer.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusCollector{
		// Poll cycles, labeled by whether listing the pending items worked.
		cycles: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cycles_total",
				Help:      "Total number of poll cycles",
			},
			[]string{"result"},
		),
		pending: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_items",
			Help:      "Number of pending items seen by the last poll",
		}),
		items: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "items_total",
				Help:      "Total number of processed items by outcome and failed stage",
			},
			[]string{"outcome", "stage"},
		),
		itemDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "item_duration_seconds",
			Help:      "Time to fetch, build and persist one item",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		pages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "branch_pages_total",
				Help:      "Total number of branch pages fetched",
			},
			[]string{"branch"},
		),
		points: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "branch_points_total",
				Help:      "Total number of branch points accumulated",
			},
			[]string{"branch"},
		),
		commits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commits_total",
				Help:      "Total number of dataset commits",
			},
			[]string{"dataset", "result"},
		),
		commitDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "commit_duration_seconds",
				Help:      "Duration of dataset commits",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"dataset"},
		),
	}
}

// RecordCycle implements nmcp.MetricsCollector.
func (c *PrometheusCollector) RecordCycle(pending int, _ time.Duration, err error) {
	if err != nil {
		c.cycles.WithLabelValues("error").Inc()
		return
	}
	c.cycles.WithLabelValues("ok").Inc()
	c.pending.Set(float64(pending))
}

// RecordItem implements nmcp.MetricsCollector.
func (c *PrometheusCollector) RecordItem(outcome model.State, stage string, duration time.Duration) {
	c.items.WithLabelValues(outcome.String(), stage).Inc()
	c.itemDuration.Observe(duration.Seconds())
}

// RecordBranch implements nmcp.MetricsCollector.
func (c *PrometheusCollector) RecordBranch(b model.Branch, pages, points int) {
	c.pages.WithLabelValues(b.String()).Add(float64(pages))
	c.points.WithLabelValues(b.String()).Add(float64(points))
}

// RecordCommit implements nmcp.MetricsCollector.
func (c *PrometheusCollector) RecordCommit(dataset string, duration time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.commits.WithLabelValues(dataset, result).Inc()
	c.commitDuration.WithLabelValues(dataset).Observe(duration.Seconds())
}

// Handler serves the metrics gathered by g.
// A nil g selects prometheus.DefaultGatherer.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
