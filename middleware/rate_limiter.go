package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"clinicfront/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter holds a map of IP addresses to their rate limiters.
type RateLimiter struct {
	visitors map[string]*visitor
	perMin   int
	burst    int
	mu       sync.Mutex
}

// NewRateLimiter allows perMin requests per minute per client IP.
func NewRateLimiter(perMin int) *RateLimiter {
	if perMin <= 0 {
		perMin = 100
	}
	burst := perMin / 10
	if burst < 5 {
		burst = 5
	}
	return &RateLimiter{visitors: make(map[string]*visitor), perMin: perMin, burst: burst}
}

// getLimiter returns the rate limiter for a given IP, creating one if it doesn't exist.
func (s *RateLimiter) getLimiter(ip string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, exists := s.visitors[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(s.perMin)), s.burst)}
		s.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// prune forgets visitors idle for longer than idle.
func (s *RateLimiter) prune(idle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().Add(-idle)
	removed := 0
	for ip, v := range s.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(s.visitors, ip)
			removed++
		}
	}
	return removed
}

// StartCleanup prunes idle visitors every interval until ctx is done.
func (s *RateLimiter) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.prune(interval)
			}
		}
	}()
}

// Middleware limits requests per IP address.
func (s *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := getClientIP(c)
		if !s.getLimiter(ip).Allow() {
			zap.L().Warn("Rate limit exceeded", zap.String("ip", ip), zap.String("path", c.Request.URL.Path))
			if utils.WantsJSON(c) {
				c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded. Try again later."})
				return
			}
			c.Data(http.StatusTooManyRequests, "text/html; charset=utf-8",
				[]byte("<h1>Too many requests</h1><p>Please wait a moment and try again.</p>"))
			c.Abort()
			return
		}
		c.Next()
	}
}
