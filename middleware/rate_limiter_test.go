package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newLimitedRouter(t *testing.T, perMin int, trusted []string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if err := r.SetTrustedProxies(trusted); err != nil {
		t.Fatal(err)
	}
	r.Use(RateLimitMiddleware(perMin))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func hit(r *gin.Engine, remote, forwarded string) int {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = remote
	if forwarded != "" {
		req.Header.Set("X-Forwarded-For", forwarded)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	r := newLimitedRouter(t, 1, nil)

	if code := hit(r, "203.0.113.7:5000", ""); code != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", code)
	}
	if code := hit(r, "203.0.113.7:5001", "198.51.100.1"); code != http.StatusTooManyRequests {
		t.Fatalf("spoofed header: expected 429, got %d", code)
	}
	if code := hit(r, "203.0.113.8:5000", ""); code != http.StatusOK {
		t.Fatalf("other client: expected 200, got %d", code)
	}
}

func TestRateLimitUsesForwardedForFromTrustedProxy(t *testing.T) {
	r := newLimitedRouter(t, 1, []string{"10.0.0.1"})

	if code := hit(r, "10.0.0.1:4000", "198.51.100.1"); code != http.StatusOK {
		t.Fatalf("first client: expected 200, got %d", code)
	}
	if code := hit(r, "10.0.0.1:4000", "198.51.100.2"); code != http.StatusOK {
		t.Fatalf("second client behind the proxy: expected 200, got %d", code)
	}
	if code := hit(r, "10.0.0.1:4000", "198.51.100.1"); code != http.StatusTooManyRequests {
		t.Fatalf("repeat client: expected 429, got %d", code)
	}
}
