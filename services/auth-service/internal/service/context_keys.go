package service

import (
	"context"

	"MedSchedulePlatform/services/auth-service/internal/domain"
)

// Ключи для использования в контексте.
// Используются для передачи данных между middleware и сервисами.
type (
	identityKey  struct{}
	authErrorKey struct{}
)

// WithIdentity кладет аутентифицированного субъекта в контекст
func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext возвращает субъекта запроса
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(domain.Identity)
	return identity, ok && identity.Username != ""
}

// ActorFromContext имя пользователя запроса или SYSTEM
func ActorFromContext(ctx context.Context) string {
	if identity, ok := IdentityFromContext(ctx); ok {
		return identity.Username
	}
	return domain.SystemActor
}

// WithAuthError запоминает, почему токен запроса не принят.
// Слой авторизации отвечает по этой ошибке на защищенных маршрутах.
func WithAuthError(ctx context.Context, err error) context.Context {
	return context.WithValue(ctx, authErrorKey{}, err)
}

// AuthErrorFromContext ошибка проверки токена или nil
func AuthErrorFromContext(ctx context.Context) error {
	err, _ := ctx.Value(authErrorKey{}).(error)
	return err
}
