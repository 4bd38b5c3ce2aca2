// Package server собирает HTTP сервер блога: маршруты, цепочку
// middleware и жизненный цикл http.Server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/yunxin2415/noke/internal/captcha"
	"github.com/yunxin2415/noke/internal/config"
	"github.com/yunxin2415/noke/internal/server/handlers"
	"github.com/yunxin2415/noke/internal/server/middleware"
	"github.com/yunxin2415/noke/internal/server/storage"
)

const shutdownTimeout = 5 * time.Second

// Server инкапсулирует http.Server и зависимости обработчиков
type Server struct {
	logger     *slog.Logger
	cfg        *config.Config
	storage    storage.Storage
	challenges captcha.Store
	uploader   handlers.Uploader
	version    string
	httpServer *http.Server
}

// New создает сервер. uploader может быть nil, тогда загрузки отключены.
func New(logger *slog.Logger, cfg *config.Config, store storage.Storage, challenges captcha.Store, uploader handlers.Uploader, version string) *Server {
	s := &Server{
		logger:     logger,
		cfg:        cfg,
		storage:    store,
		challenges: challenges,
		uploader:   uploader,
		version:    version,
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// routes собирает mux и навешивает middleware
func (s *Server) routes() http.Handler {
	jwtConfig := handlers.JWTConfig{
		Secret:   []byte(s.cfg.JWT.Secret),
		TokenTTL: s.cfg.JWT.TokenTTL,
	}

	authHandler := handlers.NewAuthHandler(s.logger, s.storage, s.challenges, jwtConfig)
	articleHandler := handlers.NewArticleHandler(s.logger, s.storage, s.storage)
	userHandler := handlers.NewUserHandler(s.logger, s.storage, s.storage, s.storage, s.uploader)
	adminHandler := handlers.NewAdminHandler(s.logger, s.storage, s.storage, s.storage, s.uploader)
	uploadHandler := handlers.NewUploadHandler(s.logger, s.uploader)
	healthHandler := handlers.NewHealthHandler(s.logger, s.version)
	homeHandler := handlers.NewHomeHandler(s.logger, s.storage, s.storage)

	requireAuth := middleware.RequireAuth(s.logger, jwtConfig, s.storage)
	optionalAuth := middleware.OptionalAuth(s.logger, jwtConfig, s.storage)
	requireAdmin := middleware.RequireAdmin(s.logger)
	// Выдача капчи и логин дешевы для перебора, ограничиваем по IP
	authLimit := middleware.RateLimit(10, time.Minute, s.logger)

	mux := http.NewServeMux()

	// Авторизация
	mux.Handle("GET /api/auth/captcha", authLimit(http.HandlerFunc(authHandler.Captcha)))
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.Handle("POST /api/auth/login", authLimit(http.HandlerFunc(authHandler.Login)))
	mux.HandleFunc("GET /api/auth/check/{username}", authHandler.CheckUser)

	// Статьи. Чтение доступно анонимам, приватность решает policy.
	mux.Handle("GET /api/articles", optionalAuth(http.HandlerFunc(articleHandler.List)))
	mux.Handle("GET /api/articles/user", requireAuth(http.HandlerFunc(articleHandler.UserArticles)))
	mux.Handle("GET /api/articles/{id}", optionalAuth(http.HandlerFunc(articleHandler.Get)))
	mux.Handle("GET /api/articles/{id}/download", optionalAuth(http.HandlerFunc(articleHandler.Download)))
	mux.Handle("POST /api/articles", requireAuth(http.HandlerFunc(articleHandler.Create)))
	mux.Handle("PUT /api/articles/{id}", requireAuth(http.HandlerFunc(articleHandler.Update)))
	mux.Handle("DELETE /api/articles/{id}", requireAuth(http.HandlerFunc(articleHandler.Delete)))

	// Профиль и подписки
	mux.Handle("GET /api/user/profile", requireAuth(http.HandlerFunc(userHandler.Profile)))
	mux.Handle("PUT /api/user/profile", requireAuth(http.HandlerFunc(userHandler.UpdateProfile)))
	mux.Handle("PUT /api/user/password", requireAuth(http.HandlerFunc(userHandler.UpdatePassword)))
	mux.Handle("DELETE /api/user/account", requireAuth(http.HandlerFunc(userHandler.DeleteAccount)))
	mux.Handle("POST /api/user/follow/{username}", requireAuth(http.HandlerFunc(userHandler.Follow)))
	mux.Handle("DELETE /api/user/follow/{username}", requireAuth(http.HandlerFunc(userHandler.Unfollow)))
	mux.Handle("GET /api/user/follow/{username}", requireAuth(http.HandlerFunc(userHandler.Following)))

	// Администрирование
	mux.Handle("GET /api/admin/users", requireAuth(requireAdmin(http.HandlerFunc(adminHandler.ListUsers))))
	mux.Handle("PUT /api/admin/users/{id}", requireAuth(requireAdmin(http.HandlerFunc(adminHandler.UpdateUser))))
	mux.Handle("DELETE /api/admin/users/{id}", requireAuth(requireAdmin(http.HandlerFunc(adminHandler.DeleteUser))))

	// Загрузки
	mux.Handle("POST /api/upload", requireAuth(http.HandlerFunc(uploadHandler.Upload)))

	mux.HandleFunc("GET /api/home", homeHandler.Home)
	mux.HandleFunc("GET /api/health", healthHandler.Health)

	// Внешние слои цепочки: recovery ловит паники всего, что ниже
	var handler http.Handler = mux
	handler = middleware.CORS(s.cfg.CORS.AllowedOrigins)(handler)
	handler = middleware.Logging(s.logger)(handler)
	handler = middleware.Recovery(s.logger)(handler)

	return handler
}

// Run запускает сервер и блокируется до отмены ctx или ошибки listen.
// При отмене ctx выполняется graceful shutdown.
func (s *Server) Run(ctx context.Context) error {
	errC := make(chan error, 1)

	go func() {
		s.logger.Info("server listening", slog.String("addr", s.cfg.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errC <- err
		}
	}()

	select {
	case err := <-errC:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
