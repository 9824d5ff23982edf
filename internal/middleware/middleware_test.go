package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pinvault/config"
	"pinvault/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(NewIPRateLimiter(0.001, 2)))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 3)
	for i := range codes {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes[i] = w.Code
	}

	assert.Equal(t, []int{200, 200, 429}, codes)
}

func TestIPRateLimiter_Sweep(t *testing.T) {
	l := NewIPRateLimiter(1, 1)
	l.Allow("1.2.3.4")
	l.Sweep(-time.Second)
	assert.Empty(t, l.limiters)
}

func TestIPRateLimiter_RunSweeperStopsWithContext(t *testing.T) {
	l := NewIPRateLimiter(1, 1)
	l.Allow("1.2.3.4")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		l.RunSweeper(ctx, time.Millisecond, -time.Second)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		l.mu.Lock()
		defer l.mu.Unlock()
		return len(l.limiters) == 0
	}, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper still running after cancel")
	}
}

func TestAuthChain(t *testing.T) {
	cfg := &config.JWTConfig{AccessSecret: "k", AccessExpiry: time.Hour, Issuer: "pinvault"}
	admin, err := auth.GenerateAccessToken(cfg, 1, "a@x.com", "ADMIN")
	require.NoError(t, err)
	customer, err := auth.GenerateAccessToken(cfg, 2, "c@x.com", "CUSTOMER")
	require.NoError(t, err)

	r := gin.New()
	r.Use(RequestLogger(zap.NewNop()))
	r.GET("/admin", AuthRequired(cfg), RequireRole("ADMIN"), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/maybe", OptionalAuth(cfg), func(c *gin.Context) {
		if OptionalUserID(c) == nil {
			c.String(http.StatusOK, "guest")
			return
		}
		c.String(http.StatusOK, "user")
	})

	cases := []struct {
		path, token string
		code        int
		body        string
	}{
		{"/admin", "", http.StatusUnauthorized, ""},
		{"/admin", customer, http.StatusForbidden, ""},
		{"/admin", admin, http.StatusNoContent, ""},
		{"/maybe", "", http.StatusOK, "guest"},
		{"/maybe", "junk", http.StatusOK, "guest"},
		{"/maybe", customer, http.StatusOK, "user"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		if tc.token != "" {
			req.Header.Set("Authorization", "Bearer "+tc.token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, tc.code, w.Code, tc.path)
		if tc.body != "" {
			assert.Equal(t, tc.body, w.Body.String())
		}
	}
}
