package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/yunxin2415/noke/internal/server/handlers"
	"github.com/yunxin2415/noke/internal/server/storage"
)

// bearerToken извлекает токен из заголовка Authorization.
// Возвращает пустую строку, если заголовка нет или формат не "Bearer <token>".
func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return parts[1]
}

// RequireAuth создает middleware, требующий валидный JWT.
// Пользователь из claims подгружается из хранилища и кладется
// в контекст запроса; без токена или с невалидным токеном — 401.
func RequireAuth(logger *slog.Logger, jwtConfig handlers.JWTConfig, users storage.UserStorage) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := bearerToken(r)
			if tokenString == "" {
				logger.Warn("missing or malformed Authorization header")
				http.Error(w, "Unauthorized: missing token", http.StatusUnauthorized)
				return
			}

			claims, err := handlers.ValidateAccessToken(jwtConfig, tokenString)
			if err != nil {
				logger.Warn("invalid access token", "error", err)
				if errors.Is(err, handlers.ErrTokenExpired) {
					http.Error(w, "Unauthorized: token expired", http.StatusUnauthorized)
					return
				}
				http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
				return
			}

			// Подгружаем пользователя: роль и профиль могли измениться
			// после выдачи токена
			user, err := users.GetUserByID(r.Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, storage.ErrUserNotFound) {
					logger.Warn("token subject no longer exists", "user_id", claims.UserID)
					http.Error(w, "Unauthorized: unknown user", http.StatusUnauthorized)
					return
				}
				logger.Error("failed to load token subject", "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			logger.Debug("user authenticated", "user_id", user.ID, "username", user.Username)

			ctx := handlers.WithPrincipal(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth создает middleware для маршрутов, доступных и анонимам.
// Валидный токен кладет пользователя в контекст, невалидный или
// отсутствующий пропускает запрос дальше без principal.
func OptionalAuth(logger *slog.Logger, jwtConfig handlers.JWTConfig, users storage.UserStorage) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := bearerToken(r)
			if tokenString == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := handlers.ValidateAccessToken(jwtConfig, tokenString)
			if err != nil {
				logger.Debug("ignoring invalid token on optional route", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.GetUserByID(r.Context(), claims.UserID)
			if err != nil {
				logger.Debug("ignoring token for unknown user", "user_id", claims.UserID)
				next.ServeHTTP(w, r)
				return
			}

			ctx := handlers.WithPrincipal(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin создает middleware, пускающий только администраторов.
// Вешается после RequireAuth: здесь проверяется только роль.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := handlers.GetPrincipal(r.Context())
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !user.IsAdmin() {
				logger.Warn("non-admin access to admin route",
					"user_id", user.ID,
					"path", r.URL.Path,
				)
				http.Error(w, "Forbidden: admin role required", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
