package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitConfig holds configuration for rate limiting. This guards
// the HTTP auth endpoints only; socket events are not rate limited.
type RateLimitConfig struct {
	RequestsPerSecond int
	BurstSize         int
	CleanupInterval   time.Duration
}

// AuthRateLimit for the register/login endpoints.
var AuthRateLimit = RateLimitConfig{
	RequestsPerSecond: 5,
	BurstSize:         10,
	CleanupInterval:   5 * time.Minute,
}

// IPRateLimiter manages rate limiters for different IP addresses.
type IPRateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	config   RateLimitConfig
}

func NewIPRateLimiter(config RateLimitConfig) *IPRateLimiter {
	limiter := &IPRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		config:   config,
	}

	go limiter.cleanupRoutine()

	return limiter
}

func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	limiter, exists := i.limiters[ip]
	if !exists {
		limiter = rate.NewLimiter(rate.Limit(i.config.RequestsPerSecond), i.config.BurstSize)
		i.limiters[ip] = limiter
	}

	return limiter
}

// cleanupRoutine periodically drops limiters that have refilled, i.e.
// IPs that went quiet.
func (i *IPRateLimiter) cleanupRoutine() {
	ticker := time.NewTicker(i.config.CleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		i.mu.Lock()
		for ip, limiter := range i.limiters {
			if limiter.Tokens() == float64(i.config.BurstSize) {
				delete(i.limiters, ip)
			}
		}
		i.mu.Unlock()
	}
}

func clientIP(c *gin.Context) string {
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		ip := forwarded
		if idx := strings.IndexByte(forwarded, ','); idx >= 0 {
			ip = forwarded[:idx]
		}
		if net.ParseIP(ip) != nil {
			return ip
		}
	}

	if realIP := c.GetHeader("X-Real-IP"); realIP != "" {
		if net.ParseIP(realIP) != nil {
			return realIP
		}
	}

	ip, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}
	return ip
}

func RateLimit(limiter *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.GetLimiter(clientIP(c)).Allow() {
			c.Header("Retry-After", "1")
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			c.Abort()
			return
		}

		c.Next()
	}
}
