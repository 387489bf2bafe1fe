package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector

	assert.NotPanics(t, func() {
		c.ObserveHTTP("GET", "/", 200, time.Millisecond)
		c.FeedEvent("bookmarks", "INSERT")
		c.FeedDrop("bookmarks", "slow_subscriber")
		c.FeedSubscriptions(1)
		c.RelayMessage("out", "insert")
		c.TitleFetch("fetched")
		c.TitleCache(true)
	})
}

func TestCollector_Counts(t *testing.T) {
	c := NewCollector()

	c.FeedEvent("bookmarks", "INSERT")
	c.FeedEvent("bookmarks", "INSERT")
	c.RelayMessage("in", "delete")
	c.TitleCache(false)

	assert.InDelta(t, 2, testutil.ToFloat64(c.FeedEvents.WithLabelValues("bookmarks", "INSERT")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.RelayMessages.WithLabelValues("in", "delete")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.CacheMisses), 0)
}

func TestMiddleware_RecordsRoutePattern(t *testing.T) {
	c := NewCollector()
	r := chi.NewRouter()
	r.Use(c.Middleware)
	r.Get("/api/v1/bookmarks/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/bookmarks/bm-1", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)

	got := testutil.ToFloat64(c.HTTPRequests.WithLabelValues(http.MethodGet, "/api/v1/bookmarks/{id}", "418"))
	assert.InDelta(t, 1, got, 0)
}

func TestHandler_ServesMetrics(t *testing.T) {
	c := NewCollector()
	c.TitleFetch("fallback")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `smartbookmarks_title_fetches_total{source="fallback"} 1`)
}
