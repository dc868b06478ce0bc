// Package metrics exposes Prometheus collectors for feed fetching and rendering.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FeedRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quakemap_feed_requests_total",
		Help: "Feed fetch attempts by feed and outcome",
	}, []string{"feed", "outcome"})
	FeedRetriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quakemap_feed_retries_total",
		Help: "Feed fetch retries after a failed attempt",
	}, []string{"feed"})
	FeedDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quakemap_feed_duration_seconds",
		Help:    "Feed fetch duration including retries",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"feed"})
	RenderPassesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quakemap_render_passes_total",
		Help: "Render passes by result",
	}, []string{"result"})
	MarkersTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quakemap_markers_total",
		Help: "Earthquake markers styled",
	})
	SkippedFeaturesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quakemap_skipped_features_total",
		Help: "Features excluded from a layer because of invalid fields",
	}, []string{"layer"})
	PlateLinesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quakemap_plate_lines_total",
		Help: "Plate boundary polylines emitted",
	})
)

func init() {
	prometheus.MustRegister(FeedRequestsTotal)
	prometheus.MustRegister(FeedRetriesTotal)
	prometheus.MustRegister(FeedDurationSeconds)
	prometheus.MustRegister(RenderPassesTotal)
	prometheus.MustRegister(MarkersTotal)
	prometheus.MustRegister(SkippedFeaturesTotal)
	prometheus.MustRegister(PlateLinesTotal)
}

// Handler serves the registered collectors for scraping.
func Handler() http.Handler { return promhttp.Handler() }
