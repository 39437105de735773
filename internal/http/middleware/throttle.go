package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"time"
)

// Limiter decides whether one more attempt for key is allowed.
type Limiter interface {
	Allow(key string) (bool, time.Duration)
}

// Throttle rejects requests from a client address once limiter refuses it.
// It expects RemoteAddr to have been rewritten by chi's RealIP.
func Throttle(limiter Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.RemoteAddr
			if host, _, err := net.SplitHostPort(key); err == nil {
				key = host
			}
			if ok, wait := limiter.Allow(key); !ok {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				http.Error(w, "too many attempts", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
