package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsManager_Counters(t *testing.T) {
	m := NewMetricsManager("market_test")

	m.ListingCreated()
	m.ListingCreated()
	m.ListingTransitioned("approved")
	m.ImageUploaded(true)
	m.ImageUploaded(false)
	m.ImageDeleteFailed()
	m.CacheLookup("listing", true)
	m.ObserveHTTP("/api/v1/listings", "GET", 200, 15*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ListingsCreatedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ListingTransitionsTotal.WithLabelValues("approved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ImageUploadsTotal.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ImageDeleteFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookupsTotal.WithLabelValues("listing", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("/api/v1/listings", "GET", "200")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.HTTPRequestLatency))
}
