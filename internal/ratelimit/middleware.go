package ratelimit

import (
	"net"
	"net/http"
	"strconv"

	"github.com/smartbookmarks/smartbookmarks/internal/http/response"
)

// Middleware rejects requests over the per-IP limit with 429.
// It expects chi's RealIP middleware to have normalized RemoteAddr.
func (krl *KeyedRateLimiter) Middleware(next http.Handler) http.Handler {
	retryAfter := "1"
	if krl.limit > 0 {
		if secs := int(1 / float64(krl.limit)); secs > 1 {
			retryAfter = strconv.Itoa(secs)
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !krl.Allow(clientIP(r)) {
			w.Header().Set("Retry-After", retryAfter)
			response.TooManyRequests(w, nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
