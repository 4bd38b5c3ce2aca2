package handlers

import (
	"log/slog"
	"net/http"

	"github.com/yunxin2415/noke/internal/server/storage"
	"github.com/yunxin2415/noke/pkg/api"
)

// HomeHandler отдает сводку для главной страницы
type HomeHandler struct {
	logger         *slog.Logger
	userStorage    storage.UserStorage
	articleStorage storage.ArticleStorage
}

// NewHomeHandler создает новый handler главной страницы
func NewHomeHandler(logger *slog.Logger, userStorage storage.UserStorage, articleStorage storage.ArticleStorage) *HomeHandler {
	return &HomeHandler{
		logger:         logger,
		userStorage:    userStorage,
		articleStorage: articleStorage,
	}
}

// Home обрабатывает GET /api/home
// Возвращает счетчики статей и пользователей для главной страницы
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	totalArticles, err := h.articleStorage.CountArticles(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to count articles", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	totalUsers, err := h.userStorage.CountUsers(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to count users", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := api.HomeResponse{
		TotalArticles: totalArticles,
		TotalUsers:    totalUsers,
	}

	sendJSON(h.logger, w, resp, http.StatusOK)
}
