package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Abdurahmanit/GroupProject/media-service/internal/platform/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve_LatencyLabelIsRoutePattern(t *testing.T) {
	mm := metrics.NewMetricsManager("test_http")
	mux := chi.NewRouter()
	mux.Use(Observe(mm))
	mux.Get("/api/media/listings/{listingID}/images", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Distinct listing ids must collapse into one metric series.
	for _, target := range []string{"/api/media/listings/L1/images", "/api/media/listings/L2/images"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	assert.Equal(t, 1, testutil.CollectAndCount(mm.APILatency))
}
