package handlers

import (
	"context"

	"github.com/yunxin2415/noke/internal/models"
)

// contextKey тип для ключей контекста
type contextKey string

const (
	// PrincipalKey ключ для хранения аутентифицированного пользователя в контексте
	PrincipalKey contextKey = "principal"
)

// WithPrincipal кладет пользователя в контекст запроса
func WithPrincipal(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, PrincipalKey, user)
}

// GetPrincipal извлекает пользователя из контекста запроса.
// Возвращает (nil, false) для анонимного запроса.
func GetPrincipal(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(PrincipalKey).(*models.User)
	return user, ok
}
