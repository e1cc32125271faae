// Package metrics exposes Prometheus collectors for the ingestion pipeline
// and the read API.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	sitesTotal                 *prometheus.CounterVec
	candidatesTotal            *prometheus.CounterVec
	articlesTotal              *prometheus.CounterVec
	imagesTotal                *prometheus.CounterVec
	activeWorkers              prometheus.Gauge
	siteDurationSeconds        prometheus.Histogram
	fetchWaitSeconds           prometheus.Histogram
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init registers the collectors with the default registry. It is safe to call
// multiple times; every Observe helper calls it.
func Init() {
	once.Do(func() {
		sitesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "news_sites_total",
				Help: "Sites processed, labeled by status (ok, failed).",
			},
			[]string{"status"},
		)

		candidatesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "news_candidates_total",
				Help: "Candidate articles attempted, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		articlesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "news_articles_total",
				Help: "Articles stored, labeled by site and category.",
			},
			[]string{"site", "category"},
		)

		imagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "news_images_total",
				Help: "Image acquisitions, labeled by result.",
			},
			[]string{"result"},
		)

		activeWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "news_active_workers",
				Help: "Number of workers currently processing a site.",
			},
		)

		siteDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "news_site_duration_seconds",
				Help:    "Wall time spent processing one site.",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
			},
		)

		fetchWaitSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "news_fetch_wait_seconds",
				Help:    "Time page fetches spent waiting on the per-host rate limiter.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "news_api_requests_total",
				Help: "Read API requests, labeled by route and status code.",
			},
			[]string{"route", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "news_api_request_duration_seconds",
				Help:    "Read API latency, labeled by route.",
				Buckets: []float64{0.005, 0.025, 0.1, 0.25, 1},
			},
			[]string{"route"},
		)
	})
}

// SanitizeSite reduces a site URL to its bare lowercase host, with any
// leading "www." removed, so one publication maps to one label value.
// Unparseable input becomes "unknown".
func SanitizeSite(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if host == "" {
		return "unknown"
	}
	return host
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}

// ObserveSite records a finished site and how long it took.
func ObserveSite(failed bool, duration time.Duration) {
	Init()
	status := "ok"
	if failed {
		status = "failed"
	}
	sitesTotal.WithLabelValues(status).Inc()
	siteDurationSeconds.Observe(duration.Seconds())
}

// ObserveFetchWait records time spent throttled before a page fetch.
func ObserveFetchWait(d time.Duration) {
	Init()
	fetchWaitSeconds.Observe(d.Seconds())
}

// ObserveCandidate increments the candidate counter for an outcome.
func ObserveCandidate(outcome string) {
	Init()
	candidatesTotal.WithLabelValues(outcome).Inc()
}

// ObserveArticle increments the stored-article counter.
func ObserveArticle(site, category string) {
	Init()
	articlesTotal.WithLabelValues(SanitizeSite(site), category).Inc()
}

// ObserveImage increments the image counter for a result.
func ObserveImage(result string) {
	Init()
	imagesTotal.WithLabelValues(result).Inc()
}

// ObserveAPIRequest records one served read API request.
func ObserveAPIRequest(route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(route).Observe(duration.Seconds())
}

// IncActiveWorkers increments the active workers gauge.
func IncActiveWorkers() {
	Init()
	activeWorkers.Inc()
}

// DecActiveWorkers decrements the active workers gauge.
func DecActiveWorkers() {
	Init()
	activeWorkers.Dec()
}
