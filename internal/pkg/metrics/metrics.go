package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP

var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	},
	[]string{"method", "route", "status"},
)

var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	},
	[]string{"method", "route"},
)

var HTTPRequestsInFlight = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "Current number of HTTP requests being processed",
	},
)

// Cache

var CacheHits = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total number of Redis cache hits",
	},
	[]string{"key_prefix"},
)

var CacheMisses = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total number of Redis cache misses",
	},
	[]string{"key_prefix"},
)

// Reviews

var ReviewsCreated = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "reviews_created_total",
		Help: "Total number of reviews submitted",
	},
)

var ModerationDecisions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "review_moderation_decisions_total",
		Help: "Moderation decisions by resulting status",
	},
	[]string{"status"},
)

var HelpfulVotes = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "review_helpful_votes_total",
		Help: "Helpfulness vote toggles by vote type and ledger action",
	},
	[]string{"vote", "action"},
)

var RatingRecomputes = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "rating_recomputes_total",
		Help: "Rating recomputations by outcome",
	},
	[]string{"outcome"},
)

// Events

var EventsPublished = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "review_events_published_total",
		Help: "Review events handed to the broker by outcome",
	},
	[]string{"broker", "outcome"},
)
