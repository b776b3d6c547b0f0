package middleware

import (
	"context"
	"net/http"
	"strings"

	"MedSchedulePlatform/pkg/errors"
	"MedSchedulePlatform/pkg/logger"
	"MedSchedulePlatform/services/auth-service/internal/domain"
	"MedSchedulePlatform/services/auth-service/internal/metrics"
	"MedSchedulePlatform/services/auth-service/internal/service"
)

// TokenValidator проверяет access токен (service.TokenService)
type TokenValidator interface {
	Validate(token string) (*service.TokenClaims, error)
}

// PrincipalFinder поиск субъекта по имени (service.Directory)
type PrincipalFinder interface {
	FindPrincipalByUsername(ctx context.Context, username string) (domain.Principal, error)
}

// SessionChecker проверка активности сессии (service.SessionRegistry)
type SessionChecker interface {
	IsActive(ctx context.Context, sessionID string) (bool, error)
}

// AuthenticationGateway определяет субъекта запроса по Bearer токену.
// Никогда не отклоняет запрос сам: без валидного токена запрос идет дальше
// анонимным, а защищенные маршруты закрывает RequireRoles.
type AuthenticationGateway struct {
	tokens          TokenValidator
	directory       PrincipalFinder
	sessions        SessionChecker
	toucher         service.ActivityToucher
	enforceLiveness bool
	metrics         *metrics.SecurityMetrics
	log             logger.Logger
}

// GatewayOption настройка AuthenticationGateway
type GatewayOption func(*AuthenticationGateway)

// WithSessionLiveness требует, чтобы сессия из токена была активна
func WithSessionLiveness(sessions SessionChecker) GatewayOption {
	return func(g *AuthenticationGateway) {
		g.sessions = sessions
		g.enforceLiveness = sessions != nil
	}
}

// WithMetrics подключает счетчики отказов
func WithMetrics(securityMetrics *metrics.SecurityMetrics) GatewayOption {
	return func(g *AuthenticationGateway) {
		g.metrics = securityMetrics
	}
}

// NewAuthenticationGateway создает новый экземпляр AuthenticationGateway
func NewAuthenticationGateway(tokens TokenValidator, directory PrincipalFinder, toucher service.ActivityToucher, log logger.Logger, opts ...GatewayOption) *AuthenticationGateway {
	g := &AuthenticationGateway{
		tokens:    tokens,
		directory: directory,
		toucher:   toucher,
		log:       log,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Middleware устанавливает субъекта запроса в контексте
func (g *AuthenticationGateway) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		claims, err := g.tokens.Validate(token)
		if err != nil {
			reason := "token_invalid"
			if errors.Is(err, domain.ErrTokenExpired) {
				reason = "token_expired"
			}
			g.metrics.Rejected(reason)
			g.log.Debug("Bearer token rejected",
				logger.CtxField(ctx),
				logger.String("reason", reason),
				logger.Error(err))
			next.ServeHTTP(w, r.WithContext(service.WithAuthError(ctx, err)))
			return
		}

		if g.enforceLiveness {
			active, err := g.sessions.IsActive(ctx, claims.SessionID)
			if err != nil {
				g.log.Error("Session liveness check failed",
					logger.CtxField(ctx),
					logger.Error(err),
					logger.String("session_id", claims.SessionID))
				next.ServeHTTP(w, r.WithContext(service.WithAuthError(ctx, domain.ErrUnauthenticated)))
				return
			}
			if !active {
				g.metrics.Rejected("session_inactive")
				authErr := domain.ErrTokenInvalid.WithDetails("session is no longer active")
				next.ServeHTTP(w, r.WithContext(service.WithAuthError(ctx, authErr)))
				return
			}
		}

		if _, exists := service.IdentityFromContext(ctx); !exists {
			principal, err := g.directory.FindPrincipalByUsername(ctx, claims.Username)
			if err != nil {
				if !errors.Is(err, domain.ErrPrincipalNotFound) {
					g.log.Error("Principal lookup failed",
						logger.CtxField(ctx),
						logger.Error(err),
						logger.String("username", claims.Username))
				}
				next.ServeHTTP(w, r.WithContext(service.WithAuthError(ctx, domain.ErrTokenInvalid)))
				return
			}

			identity := principal.Identity()
			identity.SessionID = claims.SessionID
			ctx = service.WithIdentity(ctx, identity)
		}

		if claims.SessionID != "" {
			g.toucher.Submit(claims.SessionID)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken достает токен из заголовка "Authorization: Bearer <token>"
func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
