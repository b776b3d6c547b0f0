package middleware

import (
	"context"
	"net/http"
	"strings"

	"MedSchedulePlatform/pkg/errors"
	"MedSchedulePlatform/pkg/logger"
	"MedSchedulePlatform/services/auth-service/internal/domain"
	"MedSchedulePlatform/services/auth-service/internal/metrics"
	"MedSchedulePlatform/services/auth-service/internal/pkg/clientip"
)

// BlockGuard источник решений о блокировке IP (service.BruteForceGuard)
type BlockGuard interface {
	IsIPBlocked(ctx context.Context, ip string) (bool, error)
	CleanupExpired(ctx context.Context) (int64, error)
}

// IPAccessControl не пропускает запросы с заблокированных IP адресов.
// Маршруты входа и администрирования, а также loopback адреса не проверяются.
type IPAccessControl struct {
	guard          BlockGuard
	exemptPrefixes []string
	metrics        *metrics.SecurityMetrics
	log            logger.Logger
}

// NewIPAccessControl создает новый экземпляр IPAccessControl
func NewIPAccessControl(guard BlockGuard, exemptPrefixes []string, securityMetrics *metrics.SecurityMetrics, log logger.Logger) *IPAccessControl {
	return &IPAccessControl{
		guard:          guard,
		exemptPrefixes: exemptPrefixes,
		metrics:        securityMetrics,
		log:            log,
	}
}

// Enforce определяет IP клиента, кладет его в контекст и отклоняет
// запросы с заблокированных адресов ответом 403
func (c *IPAccessControl) Enforce(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientip.FromRequest(r)
		r = r.WithContext(clientip.WithIP(r.Context(), ip))

		if c.isExempt(r.URL.Path) || clientip.IsLoopback(ip) {
			next.ServeHTTP(w, r)
			return
		}

		blocked, err := c.guard.IsIPBlocked(r.Context(), ip)
		if err != nil {
			// хранилище недоступно: пропускаем запрос
			c.log.Error("IP block check failed",
				logger.CtxField(r.Context()),
				logger.Error(err),
				logger.String("ip_address", ip))
			next.ServeHTTP(w, r)
			return
		}

		if blocked {
			c.metrics.Rejected("ip_blocked")
			c.log.Warn("Request from blocked IP rejected",
				logger.CtxField(r.Context()),
				logger.String("ip_address", ip),
				logger.String("method", r.Method),
				logger.String("path", r.URL.Path))
			errors.WriteJSON(w, domain.ErrIPBlocked)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (c *IPAccessControl) isExempt(path string) bool {
	for _, prefix := range c.exemptPrefixes {
		if prefix != "" && strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// CleanupExpired снимает истекшие блокировки. Вызывается планировщиком.
func (c *IPAccessControl) CleanupExpired(ctx context.Context) (int64, error) {
	return c.guard.CleanupExpired(ctx)
}
