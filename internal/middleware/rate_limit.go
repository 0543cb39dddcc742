package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/svargasl/finpanel/pkg/httpx"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerMinute int
}

// DefaultAuthRateLimit limits sign-in attempts to 5 per minute per IP.
func DefaultAuthRateLimit() RateLimitConfig {
	return RateLimitConfig{RequestsPerMinute: 5}
}

// RateLimitByIP rate limits requests by client IP. A zero or negative
// config falls back to DefaultAuthRateLimit.
func RateLimitByIP(config RateLimitConfig) func(next http.Handler) http.Handler {
	if config.RequestsPerMinute <= 0 {
		config = DefaultAuthRateLimit()
	}
	return httprate.Limit(
		config.RequestsPerMinute,
		1*time.Minute,
		httprate.WithKeyByRealIP(),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.WriteTooManyRequests(w, "Rate limit exceeded")
		}),
	)
}
