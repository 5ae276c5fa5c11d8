package metrics

import "strconv"

func RecordCacheHit(keyPrefix string) {
	CacheHits.WithLabelValues(keyPrefix).Inc()
}

func RecordCacheMiss(keyPrefix string) {
	CacheMisses.WithLabelValues(keyPrefix).Inc()
}

func RecordHTTPRequest(method, route string, status int, seconds float64) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(seconds)
}

func RecordRatingRecompute(outcome string) {
	RatingRecomputes.WithLabelValues(outcome).Inc()
}

func RecordEventPublished(broker string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	EventsPublished.WithLabelValues(broker, outcome).Inc()
}
