package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/mealora/mealora-backend/api/responses"
	"github.com/mealora/mealora-backend/pkg/config"
	pkgerrors "github.com/mealora/mealora-backend/pkg/errors"
	"github.com/mealora/mealora-backend/pkg/logger"
)

type rateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// ClaimRateLimit throttles claim attempts per courier in a fixed window.
// Redis being down degrades to allowing the request: the conditional write
// stays correct without the limiter, claims just get noisier.
func ClaimRateLimit(cfg config.RateLimitConfig, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil || cfg.ClaimLimit <= 0 || cfg.ClaimWindow <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			courierID := UserIDFromContext(ctx)

			allowed, count, err := store.FixedWindowAllow(ctx, "claim:"+courierID.String(), int64(cfg.ClaimLimit), cfg.ClaimWindow)
			if err != nil {
				if logg != nil {
					logg.Warn(ctx, "claim rate limiter unavailable, allowing request")
				}
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				if logg != nil {
					logg.Warn(logg.WithField(ctx, "claim_attempts", count), "claim rate limit exceeded")
				}
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many claim attempts"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
