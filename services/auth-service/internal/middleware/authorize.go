package middleware

import (
	"net/http"

	"MedSchedulePlatform/pkg/errors"
	"MedSchedulePlatform/services/auth-service/internal/domain"
	"MedSchedulePlatform/services/auth-service/internal/service"
)

// RequireRoles пропускает только аутентифицированные запросы с одной из ролей.
// Без ролей достаточно аутентификации. Ответы: 401 без субъекта, 403 при чужой роли.
func RequireRoles(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := service.IdentityFromContext(r.Context())
			if !ok {
				if authErr := service.AuthErrorFromContext(r.Context()); authErr != nil {
					errors.WriteJSON(w, authErr)
					return
				}
				errors.WriteJSON(w, domain.ErrUnauthenticated)
				return
			}

			if len(roles) > 0 && !hasRole(identity.Role, roles) {
				errors.WriteJSON(w, domain.ErrForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func hasRole(role domain.Role, allowed []domain.Role) bool {
	for _, candidate := range allowed {
		if role == candidate {
			return true
		}
	}
	return false
}
