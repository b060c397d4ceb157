package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/goalcoach/internal/config"
	"github.com/templui/goalcoach/internal/ctxkeys"
)

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mark("first"), mark("second"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"first", "second", "handler"}, order)
}

func TestNonceAndSecurityHeaders(t *testing.T) {
	var nonce, templNonce string
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nonce = GetNonce(r.Context())
		templNonce = templ.GetNonce(r.Context())
	}),
		Config(&config.Config{AppName: "Goalcoach", S3Endpoint: "http://localhost:9000", OpenAIAPIKey: "sk-secret"}),
		NonceMiddleware,
		SecurityHeaders,
	)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotEmpty(t, nonce)
	assert.Equal(t, nonce, templNonce)
	assert.Len(t, nonce, 24)

	csp := rec.Header().Get("Content-Security-Policy")
	assert.Contains(t, csp, "script-src 'self' 'nonce-"+nonce+"'")
	assert.Contains(t, csp, "img-src 'self' data: http://localhost:9000")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestConfig_Sanitized(t *testing.T) {
	var got *config.Config
	h := Config(&config.Config{AppName: "Goalcoach", OpenAIAPIKey: "sk-secret", DBConnection: "postgres://x"})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = ctxkeys.Config(r.Context())
		}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotNil(t, got)
	assert.Equal(t, "Goalcoach", got.AppName)
	assert.Empty(t, got.OpenAIAPIKey)
	assert.Empty(t, got.DBConnection)
}

func TestRealIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded for", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.1:1234", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": " 198.51.100.2 "}, "10.0.0.1:1234", "198.51.100.2"},
		{"remote addr", nil, "192.0.2.1:5555", "192.0.2.1"},
		{"ipv6 remote addr", nil, "[::1]:5555", "::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := RealIP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = ctxkeys.ClientIP(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tt.want, got)
		})
	}
}

func newTestLimiter(t *testing.T, limit int, window time.Duration, now *time.Time) *RateLimiter {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	rl := NewRateLimiter(ctx, limit, window)
	rl.now = func() time.Time { return *now }
	return rl
}

func TestRateLimiter_SlidingWindow(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rl := newTestLimiter(t, 2, time.Minute, &now)

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"), "limits are per IP")

	now = now.Add(61 * time.Second)
	assert.True(t, rl.Allow("a"))

	now = now.Add(2 * time.Minute)
	rl.cleanup()
	rl.mu.Lock()
	assert.Empty(t, rl.requests)
	rl.mu.Unlock()
}

func TestRateLimiter_Limit(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rl := newTestLimiter(t, 1, 30*time.Second, &now)

	h := RealIP(rl.Limit(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"Too many requests. Please try again later."}`, rec.Body.String())
}

func TestRequestLogging_CapturesStatus(t *testing.T) {
	h := RequestLogging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/goals", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "short"))
}

func TestTracing_UsesRoutePattern(t *testing.T) {
	mux := http.NewServeMux()
	var pattern string
	mux.HandleFunc("GET /api/goals/{id}", func(w http.ResponseWriter, r *http.Request) {
		pattern = r.Pattern
		w.WriteHeader(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	Tracing(mux).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/goals/abc", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "GET /api/goals/{id}", pattern)
}
