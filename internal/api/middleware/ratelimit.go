package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/velocart/storefront-backend/internal/errors"
	"github.com/velocart/storefront-backend/internal/ratelimit"
	"github.com/velocart/storefront-backend/internal/utils/response"
)

type RateLimitMiddleware struct {
	limiter ratelimit.Limiter
}

func NewRateLimitMiddleware(limiter ratelimit.Limiter) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: limiter}
}

// Limit throttles per subject. It must run after Authenticate; requests
// without a subject fall back to the remote address. Limiter outages fail
// open so redis downtime never blocks checkout.
func (m *RateLimitMiddleware) Limit(next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := LoggerFromContext(r.Context())

		key, ok := SubjectFromContext(r.Context())
		if !ok {
			key = r.RemoteAddr
		}

		allowed, retryAfter, err := m.limiter.Allow(r.Context(), key)
		if err != nil {
			logger.Warn("Rate limit check failed, allowing request", slog.Any("error", err))
			next.ServeHTTP(w, r)

			return
		}

		if !allowed {
			logger.Warn("Rate limit exceeded", slog.Int("retry_after", retryAfter))
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			response.Error(w, errors.TooManyRequestsError(
				fmt.Sprintf("Too many order attempts, please retry in %d seconds.", retryAfter)))

			return
		}

		next.ServeHTTP(w, r)
	}
}
