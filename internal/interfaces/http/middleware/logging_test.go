package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ListSense/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ListSense/internal/testutil"
)

func statusHandler(code int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(code)
		_, _ = w.Write([]byte("ok"))
	})
}

func TestRequestLogging_Levels(t *testing.T) {
	tests := []struct {
		code  int
		level string
	}{
		{http.StatusOK, "info"},
		{http.StatusNotFound, "warn"},
		{http.StatusBadGateway, "error"},
	}
	for _, tt := range tests {
		log := testutil.NewMockLogger()
		h := RequestLogging(log, LoggingConfig{})(statusHandler(tt.code))

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/extract", nil))

		require.Len(t, log.GetMessages(), 1, "status %d", tt.code)
		msg := log.GetMessages()[0]
		assert.Equal(t, tt.level, msg.Level)
		assert.Equal(t, "http", msg.Logger)
		path, _ := msg.Field("path")
		assert.Equal(t, "/api/v1/extract", path)
	}
}

func TestRequestLogging_SkipsAndSlow(t *testing.T) {
	log := testutil.NewMockLogger()
	slow := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(5 * time.Millisecond)
	})
	h := RequestLogging(log, LoggingConfig{SkipPaths: []string{"/healthz"}, SlowThreshold: time.Millisecond})(slow)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Empty(t, log.GetMessages())

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/entities", nil))
	assert.True(t, log.HasMessage("warn", "slow request"))
}

func TestRequestContext_PropagatesID(t *testing.T) {
	var seen string
	inner := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = logging.RequestIDFromContext(r.Context())
	})
	h := chimw.RequestID(RequestContext(inner))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get(HeaderRequestID))
}

type routeRecorder struct {
	method, route string
	status        int
}

func (r *routeRecorder) RecordHTTPRequest(method, route string, status int, _ time.Duration) {
	r.method, r.route, r.status = method, route, status
}

func TestMetrics_UsesRoutePattern(t *testing.T) {
	rec := &routeRecorder{}
	r := chi.NewRouter()
	r.Use(Metrics(rec))
	r.Get("/api/v1/entities/{name}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/entities/fruit", nil))
	assert.Equal(t, routeRecorder{method: "GET", route: "/api/v1/entities/{name}", status: http.StatusTeapot}, *rec)
}

func TestBodyLimit(t *testing.T) {
	var readErr error
	h := BodyLimit(4)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 16)
		_, readErr = r.Body.Read(buf)
		for readErr == nil {
			_, readErr = r.Body.Read(buf)
		}
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("too long body")))

	var mbe *http.MaxBytesError
	assert.ErrorAs(t, readErr, &mbe)
}

//Personal.AI order the ending
