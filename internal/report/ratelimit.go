package report

import (
	"net/http"

	"golang.org/x/time/rate"

	"github.com/atmx/sales-engine/internal/metrics"
)

// RateLimit returns middleware that rejects requests beyond rps with 429.
// The limit is shared by all callers of this instance.
func RateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				metrics.RateLimited.Inc()
				writeError(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
