package middlewarectx

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/household-ledger/internal/config"
	"github.com/magabrotheeeer/household-ledger/internal/lib/sl"
)

func okHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("success")); err != nil {
			t.Errorf("failed to write response: %v", err)
		}
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("allows requests within rate limit", func(t *testing.T) {
		mw := RateLimitMiddleware(sl.Discard(), config.RateLimit{RPS: 10, Burst: 10})(okHandler(t))

		for range 10 {
			w := httptest.NewRecorder()
			mw.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sync/maria", nil))
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "success", w.Body.String())
		}
	})

	t.Run("blocks requests exceeding rate limit", func(t *testing.T) {
		mw := rateLimit(sl.Discard(), rate.NewLimiter(rate.Limit(0.001), 1))(okHandler(t))

		w := httptest.NewRecorder()
		mw.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sync/maria", nil))
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		mw.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sync/maria", nil))
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.JSONEq(t, `{"status":"Error","error":"too many requests"}`, w.Body.String())
	})
}

func TestBodyLimit(t *testing.T) {
	var readErr error
	h := BodyLimit(4)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader("0123456789")))

	var tooLarge *http.MaxBytesError
	require.ErrorAs(t, readErr, &tooLarge)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/sync/{userId}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"maria", "bruno"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/sync/"+id, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("/api/sync/{userId}", http.MethodGet, "404")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}
