package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/salesops/crm-dashboard/internal/auth"
	"github.com/salesops/crm-dashboard/internal/config"
	"github.com/salesops/crm-dashboard/internal/domain"
	"github.com/salesops/crm-dashboard/internal/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestLogging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	handler := middleware.Logging(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	t.Run("generates a request id", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil))

		id := w.Header().Get(middleware.RequestIDHeader)
		_, err := uuid.Parse(id)
		assert.NoError(t, err)

		entries := logs.TakeAll()
		require.Len(t, entries, 1)
		fields := entries[0].ContextMap()
		assert.Equal(t, id, fields["request_id"])
		assert.Equal(t, int64(http.StatusTeapot), fields["status_code"])
		assert.Equal(t, int64(15), fields["response_size"])
	})

	t.Run("keeps a valid incoming request id", func(t *testing.T) {
		incoming := uuid.NewString()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil)
		req.Header.Set(middleware.RequestIDHeader, incoming)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, incoming, w.Header().Get(middleware.RequestIDHeader))
		logs.TakeAll()
	})

	t.Run("replaces a malformed request id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil)
		req.Header.Set(middleware.RequestIDHeader, "<script>")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.NotEqual(t, "<script>", w.Header().Get(middleware.RequestIDHeader))
		logs.TakeAll()
	})
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	handler := middleware.Recovery(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body domain.APIError
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, domain.ErrorTypeInternal, body.Type)
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestSecurityHeaders(t *testing.T) {
	cfg := &config.SecurityConfig{
		EnableHSTS:            true,
		HSTSMaxAge:            3600,
		HSTSIncludeSubdomains: true,
		FrameOptions:          "DENY",
		ContentTypeNosniff:    true,
		ReferrerPolicy:        "no-referrer",
	}
	handler := middleware.SecurityHeaders(cfg)(okHandler)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-referrer", w.Header().Get("Referrer-Policy"))
	assert.Equal(t, "max-age=3600; includeSubDomains", w.Header().Get("Strict-Transport-Security"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Empty(t, w.Header().Get("X-XSS-Protection"), "unset headers are not sent")

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Empty(t, w.Header().Get("Cache-Control"))
}

func TestCORS(t *testing.T) {
	preflight := func(handler http.Handler, origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/dashboard", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}
	base := config.CORSConfig{AllowedMethods: []string{"GET", "POST"}, AllowedHeaders: []string{"Authorization"}}

	t.Run("explicit origins", func(t *testing.T) {
		cfg := base
		cfg.AllowedOrigins = []string{"https://dashboard.example.com"}
		handler := middleware.CORS(&cfg, "production", zap.NewNop())(okHandler)

		assert.Equal(t, "https://dashboard.example.com",
			preflight(handler, "https://dashboard.example.com").Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, preflight(handler, "https://evil.example.com").Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("development allows any origin", func(t *testing.T) {
		cfg := base
		handler := middleware.CORS(&cfg, "development", zap.NewNop())(okHandler)

		assert.Equal(t, "http://localhost:3000",
			preflight(handler, "http://localhost:3000").Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("production without origins denies", func(t *testing.T) {
		cfg := base
		handler := middleware.CORS(&cfg, "production", zap.NewNop())(okHandler)

		assert.Empty(t, preflight(handler, "http://localhost:3000").Header().Get("Access-Control-Allow-Origin"))
	})
}

func newRateLimiter(perMinute int) *middleware.RateLimiter {
	return middleware.NewRateLimiter(&config.RateLimitConfig{
		Enabled:               true,
		RequestsPerMinute:     perMinute,
		RequestsPerMinuteAuth: perMinute,
		SyncRequestsPerMinute: 1,
		WhitelistIPs:          []string{"127.0.0.1"},
		WhitelistPaths:        []string{"/health", "/swagger/*"},
	}, zap.NewNop())
}

func hit(handler http.Handler, path, remote string, caller *auth.Caller) int {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = remote
	if caller != nil {
		req = req.WithContext(auth.WithCaller(req.Context(), caller))
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimiter(t *testing.T) {
	t.Run("limits by ip", func(t *testing.T) {
		handler := newRateLimiter(2).LimitByIP(okHandler)

		assert.Equal(t, http.StatusOK, hit(handler, "/api/v1/dashboard", "10.0.0.1:1000", nil))
		assert.Equal(t, http.StatusOK, hit(handler, "/api/v1/dashboard", "10.0.0.1:1000", nil))
		assert.Equal(t, http.StatusTooManyRequests, hit(handler, "/api/v1/dashboard", "10.0.0.1:1000", nil))
		assert.Equal(t, http.StatusOK, hit(handler, "/api/v1/dashboard", "10.0.0.2:1000", nil), "other ips have their own budget")
	})

	t.Run("whitelists", func(t *testing.T) {
		handler := newRateLimiter(1).LimitByIP(okHandler)

		for i := 0; i < 5; i++ {
			assert.Equal(t, http.StatusOK, hit(handler, "/api/v1/dashboard", "127.0.0.1:1000", nil))
			assert.Equal(t, http.StatusOK, hit(handler, "/health", "10.0.0.9:1000", nil))
			assert.Equal(t, http.StatusOK, hit(handler, "/swagger/index.html", "10.0.0.9:1000", nil))
		}
	})

	t.Run("sync limit is per caller", func(t *testing.T) {
		handler := newRateLimiter(100).LimitSync(okHandler)
		alice := &auth.Caller{Subject: "alice"}
		bob := &auth.Caller{Subject: "bob"}

		assert.Equal(t, http.StatusOK, hit(handler, "/api/v1/sync", "10.0.0.3:1000", alice))
		assert.Equal(t, http.StatusTooManyRequests, hit(handler, "/api/v1/sync", "10.0.0.3:1000", alice))
		assert.Equal(t, http.StatusOK, hit(handler, "/api/v1/sync", "10.0.0.3:1000", bob))
	})

	t.Run("disabled", func(t *testing.T) {
		rl := middleware.NewRateLimiter(&config.RateLimitConfig{Enabled: false, RequestsPerMinute: 1, RequestsPerMinuteAuth: 1}, zap.NewNop())
		handler := rl.Limit(okHandler)
		for i := 0; i < 10; i++ {
			assert.Equal(t, http.StatusOK, hit(handler, "/api/v1/dashboard", "10.0.0.4:1000", nil))
		}
	})
}
