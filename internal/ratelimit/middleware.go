package ratelimit

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/taskhub/taskhub-api/internal/api/shared"
	"github.com/taskhub/taskhub-api/internal/platform/logger"
)

// Middleware applies a Limiter to every request it wraps, keyed by the
// client IP. Run it after chi's RealIP so proxies are accounted for.
type Middleware struct {
	limiter Limiter
	logger  *slog.Logger
}

// NewMiddleware creates a Middleware. A nil limiter makes Limit a
// pass-through, which is how the limiter is disabled without Redis.
func NewMiddleware(limiter Limiter, log *slog.Logger) *Middleware {
	if log == nil {
		log = slog.Default()
	}
	return &Middleware{limiter: limiter, logger: log.With("component", "ratelimit")}
}

// Limit wraps next.
func (m *Middleware) Limit(next http.Handler) http.Handler {
	if m.limiter == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		res, err := m.limiter.Allow(r.Context(), ip)
		if err != nil {
			// Fail open: an unavailable limiter must not lock users out.
			logger.FromContextOrDefault(r.Context(), m.logger).Warn("rate limiter unavailable, allowing request",
				"error", err,
				"path", r.URL.Path)
			next.ServeHTTP(w, r)
			return
		}

		setHeaders(w, res)
		if !res.Allowed {
			retry := int(res.RetryAfter.Seconds())
			if retry < 1 {
				retry = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			shared.RespondWithErrorAndLog(w, r, http.StatusTooManyRequests,
				fmt.Sprintf("Request was throttled. Expected available in %d seconds.", retry), nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func setHeaders(w http.ResponseWriter, res Result) {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
}

// clientIP returns the host part of RemoteAddr. RealIP rewrites it to a
// bare address, so a missing port is tolerated.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
