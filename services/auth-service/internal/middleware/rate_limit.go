package middleware

import (
	"net/http"
	"time"

	"MedSchedulePlatform/pkg/errors"
	"MedSchedulePlatform/pkg/logger"
	"MedSchedulePlatform/pkg/ratelimit"
	"MedSchedulePlatform/services/auth-service/internal/pkg/clientip"
	"MedSchedulePlatform/services/auth-service/internal/service"
)

var errTooManyRequests = errors.New(errors.ErrTooManyRequests, "too many requests")

// RateLimitMiddleware ограничивает частоту запросов по IP адресу
// или, при byUser, по имени аутентифицированного пользователя.
// При недоступности хранилища лимитов запрос пропускается.
func RateLimitMiddleware(rateLimiter ratelimit.RateLimiter, limit int, window time.Duration, byUser bool, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "ip:" + clientip.FromRequest(r)
			if byUser {
				if identity, ok := service.IdentityFromContext(r.Context()); ok {
					key = "user:" + identity.Username
				}
			}

			limitExceeded, err := rateLimiter.CheckRateLimit(r.Context(), key, limit, window)
			if err != nil {
				log.Error("Rate limit check failed",
					logger.CtxField(r.Context()),
					logger.Error(err),
					logger.String("key", key))
				next.ServeHTTP(w, r)
				return
			}

			if limitExceeded {
				log.Warn("Rate limit exceeded",
					logger.String("key", key),
					logger.Int("limit", limit),
					logger.String("window", window.String()),
					logger.String("method", r.Method),
					logger.String("path", r.URL.Path))
				errors.WriteJSON(w, errTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
