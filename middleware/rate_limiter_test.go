package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := NewRateLimiter(60)

	r := gin.New()
	r.Use(limiter.Middleware())
	r.POST("/queue-join", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := map[int]int{}
	for i := 0; i < limiter.burst+1; i++ {
		req := httptest.NewRequest(http.MethodPost, "/queue-join", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes[w.Code]++
	}
	assert.Equal(t, limiter.burst, codes[http.StatusOK])
	assert.Equal(t, 1, codes[http.StatusTooManyRequests])

	req := httptest.NewRequest(http.MethodPost, "/queue-join", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.10")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, "other clients keep their own budget")
}

func TestRateLimiterPrune(t *testing.T) {
	limiter := NewRateLimiter(100)
	limiter.getLimiter("198.51.100.1")
	limiter.visitors["198.51.100.1"].lastSeen = time.Now().Add(-time.Hour)
	limiter.getLimiter("198.51.100.2")

	assert.Equal(t, 1, limiter.prune(time.Minute))
	assert.Len(t, limiter.visitors, 1)
}

func TestGetClientIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{"forwarded", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.2"}, "10.0.0.2:1234", "203.0.113.5"},
		{"real ip", map[string]string{"X-Real-IP": "203.0.113.6"}, "10.0.0.2:1234", "203.0.113.6"},
		{"garbage header", map[string]string{"X-Forwarded-For": "unknown"}, "192.0.2.1:80", "192.0.2.1"},
		{"remote", nil, "192.0.2.7:5555", "192.0.2.7"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Request.RemoteAddr = tc.remote
			for k, v := range tc.header {
				c.Request.Header.Set(k, v)
			}
			assert.Equal(t, tc.want, getClientIP(c))
		})
	}
}
