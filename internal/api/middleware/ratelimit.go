package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/futig/lessonplan-backend/internal/config"
	"github.com/futig/lessonplan-backend/internal/pkg/response"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimit limits requests per client IP with a token bucket refilled at
// MaxRequests per Window. Idle visitors expire from the cache.
func RateLimit(cfg config.RateLimitConfig) func(next http.Handler) http.Handler {
	if !cfg.Enabled || cfg.MaxRequests <= 0 || cfg.Window <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	expiry := max(cfg.Window*3, time.Minute)
	visitors := cache.New(expiry, time.Minute)
	every := rate.Every(cfg.Window / time.Duration(cfg.MaxRequests))
	retryAfter := strconv.Itoa(max(int(cfg.Window.Seconds())/cfg.MaxRequests, 1))

	var mu sync.Mutex
	limiterFor := func(key string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()

		if v, ok := visitors.Get(key); ok {
			visitors.Set(key, v, cache.DefaultExpiration)
			return v.(*rate.Limiter)
		}
		l := rate.NewLimiter(every, cfg.MaxRequests)
		visitors.Set(key, l, cache.DefaultExpiration)
		return l
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !limiterFor(ip).Allow() {
				ctxzap.Warn(r.Context(), "rate limit exceeded", zap.String("client_ip", ip))
				w.Header().Set("Retry-After", retryAfter)
				response.Error(w, http.StatusTooManyRequests, "请求过于频繁，请稍后再试")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
