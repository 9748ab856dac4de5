package http

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"web-analytics-service/internal/ingest/enrichment"
	"web-analytics-service/pkg/problemdetails"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// entry holds a rate limiter and last seen timestamp for cleanup.
type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter provides per-client rate limiting on the beacon endpoint.
// Beacons come from arbitrary pages at arbitrary volume; this caps what any
// single address can push.
type RateLimiter struct {
	limiters  map[string]*entry
	mu        sync.Mutex
	rateLimit rate.Limit
	burst     int
	stop      chan struct{}
	stopOnce  sync.Once
}

// NewRateLimiter creates a rate limiter allowing requestsPerMinute per client.
// Rates below one request per minute are clamped to one.
func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	if requestsPerMinute < 1 {
		requestsPerMinute = 1
	}
	rl := &RateLimiter{
		limiters:  make(map[string]*entry),
		rateLimit: rate.Every(time.Minute / time.Duration(requestsPerMinute)),
		burst:     requestsPerMinute,
		stop:      make(chan struct{}),
	}
	rl.startCleanup()
	return rl
}

// Stop terminates the cleanup goroutine. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) getLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	e, exists := rl.limiters[ip]
	if !exists {
		limiter := rate.NewLimiter(rl.rateLimit, rl.burst)
		rl.limiters[ip] = &entry{limiter: limiter, lastSeen: time.Now()}
		return limiter
	}

	e.lastSeen = time.Now()
	return e.limiter
}

// Middleware enforces the per-client limit, keyed by the same client address
// the ingestion pipeline attributes visits to.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limiter := rl.getLimiter(enrichment.ClientIP(r))

		if !limiter.Allow() {
			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", rl.burst))
			w.Header().Set("X-RateLimit-Remaining", "0")
			writeProblem(w, problemdetails.New(
				http.StatusTooManyRequests,
				problemdetails.TypeRateLimitExceeded,
				"Rate Limit Exceeded",
				"Too many requests. Please try again later.",
			))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// startCleanup drops limiters for clients idle over an hour, until Stop.
func (rl *RateLimiter) startCleanup() {
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-rl.stop:
				return
			case <-ticker.C:
				rl.mu.Lock()
				for ip, e := range rl.limiters {
					if time.Since(e.lastSeen) > time.Hour {
						delete(rl.limiters, ip)
					}
				}
				rl.mu.Unlock()
			}
		}
	}()
}

// LoggerMiddleware logs HTTP requests with zap.
func LoggerMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Info("http request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Duration("duration", time.Since(start)),
					zap.String("remote_addr", r.RemoteAddr),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// BeaconRecoverer converts panics on the beacon route into a 400 problem
// response. A tracking beacon must never surface a server failure to the
// embedding page as anything slower or louder than a rejected request.
func BeaconRecoverer(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic in beacon handler", zap.Any("panic", rec))
					writeProblem(w, problemdetails.New(
						http.StatusBadRequest,
						problemdetails.TypeInternalError,
						"Request Failed",
						"The event could not be processed",
					))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
