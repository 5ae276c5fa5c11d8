package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordRatingRecompute(t *testing.T) {
	before := testutil.ToFloat64(RatingRecomputes.WithLabelValues("ok"))

	RecordRatingRecompute("ok")

	assert.Equal(t, before+1, testutil.ToFloat64(RatingRecomputes.WithLabelValues("ok")))
}

func TestRecordEventPublished(t *testing.T) {
	okBefore := testutil.ToFloat64(EventsPublished.WithLabelValues("nats", "ok"))
	errBefore := testutil.ToFloat64(EventsPublished.WithLabelValues("nats", "error"))

	RecordEventPublished("nats", nil)
	RecordEventPublished("nats", errors.New("down"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(EventsPublished.WithLabelValues("nats", "ok")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(EventsPublished.WithLabelValues("nats", "error")))
}

func TestRecordCacheHitMiss(t *testing.T) {
	hits := testutil.ToFloat64(CacheHits.WithLabelValues("stats"))
	misses := testutil.ToFloat64(CacheMisses.WithLabelValues("stats"))

	RecordCacheHit("stats")
	RecordCacheMiss("stats")
	RecordCacheMiss("stats")

	assert.Equal(t, hits+1, testutil.ToFloat64(CacheHits.WithLabelValues("stats")))
	assert.Equal(t, misses+2, testutil.ToFloat64(CacheMisses.WithLabelValues("stats")))
}
