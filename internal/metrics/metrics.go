package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finadvisor_http_requests_total",
			Help: "Total number of HTTP requests by route, method and status",
		},
		[]string{"route", "method", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finadvisor_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	HTTPInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "finadvisor_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		},
	)

	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finadvisor_analyses_total",
			Help: "Total number of analysis runs by outcome",
		},
		[]string{"outcome"},
	)

	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finadvisor_analysis_duration_seconds",
			Help:    "Duration of analysis runs in seconds",
			Buckets: []float64{0.05, 0.25, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"outcome"},
	)

	CreditScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "finadvisor_credit_score",
			Help:    "Distribution of computed credit scores",
			Buckets: prometheus.LinearBuckets(300, 50, 9),
		},
	)

	AdvisoryCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finadvisor_advisory_calls_total",
			Help: "Total number of upstream advisory attempts by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	AdvisoryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finadvisor_advisory_duration_seconds",
			Help:    "Duration of upstream advisory attempts in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"provider"},
	)

	AdvisoryInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "finadvisor_advisory_in_flight",
			Help: "Number of advisory calls holding a concurrency slot",
		},
		[]string{"provider"},
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "finadvisor_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)
)
