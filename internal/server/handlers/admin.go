package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yunxin2415/noke/internal/models"
	"github.com/yunxin2415/noke/internal/server/storage"
	"github.com/yunxin2415/noke/internal/validation"
	"github.com/yunxin2415/noke/pkg/api"
)

// AdminHandler обрабатывает административные запросы.
// Все маршруты за RequireAdmin middleware.
type AdminHandler struct {
	logger         *slog.Logger
	userStorage    storage.UserStorage
	articleStorage storage.ArticleStorage
	followStorage  storage.FollowStorage
	uploader       Uploader // nil, когда загрузки выключены
}

// NewAdminHandler создает новый handler для административных операций
func NewAdminHandler(logger *slog.Logger, userStorage storage.UserStorage, articleStorage storage.ArticleStorage, followStorage storage.FollowStorage, uploader Uploader) *AdminHandler {
	return &AdminHandler{
		logger:         logger,
		userStorage:    userStorage,
		articleStorage: articleStorage,
		followStorage:  followStorage,
		uploader:       uploader,
	}
}

// ListUsers обрабатывает GET /api/admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	users, err := h.userStorage.ListUsers(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list users", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := make([]*api.User, 0, len(users))
	for _, user := range users {
		resp = append(resp, api.NewUser(user))
	}

	sendJSON(h.logger, w, resp, http.StatusOK)
}

// UpdateUser обрабатывает PUT /api/admin/users/{id}
// Администратор может менять email и роль
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := h.fetchUser(w, r)
	if !ok {
		return
	}

	var req api.AdminUpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Email != nil {
		if err := validation.ValidateEmail(*req.Email); err != nil {
			sendError(h.logger, w, err.Error(), http.StatusBadRequest)
			return
		}
		user.Email = *req.Email
	}
	if req.Role != nil {
		if *req.Role != models.RoleUser && *req.Role != models.RoleAdmin {
			sendError(h.logger, w, "unknown role", http.StatusBadRequest)
			return
		}
		user.Role = *req.Role
	}
	user.UpdatedAt = time.Now()

	if err := h.userStorage.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			sendError(h.logger, w, "email already registered", http.StatusConflict)
			return
		}
		h.logger.ErrorContext(ctx, "failed to update user", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "user updated by admin", slog.String("user_id", user.ID))

	resp := api.AdminUpdateUserResponse{
		Message: "User updated",
		User:    api.NewUser(user),
	}

	sendJSON(h.logger, w, resp, http.StatusOK)
}

// DeleteUser обрабатывает DELETE /api/admin/users/{id}
// Аккаунты с ролью ADMIN не удаляются даже администратором
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := h.fetchUser(w, r)
	if !ok {
		return
	}

	if user.IsAdmin() {
		h.logger.WarnContext(ctx, "refused to delete admin account", slog.String("user_id", user.ID))
		sendError(h.logger, w, "admin accounts cannot be deleted", http.StatusForbidden)
		return
	}

	deleted, err := h.articleStorage.DeleteArticlesByAuthor(ctx, user.ID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to delete user articles", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := h.followStorage.DeleteFollowsOfUser(ctx, user.ID); err != nil {
		h.logger.ErrorContext(ctx, "failed to delete user follows", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := h.userStorage.DeleteUser(ctx, user.ID); err != nil {
		h.logger.ErrorContext(ctx, "failed to delete user", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	if h.uploader != nil && user.Avatar != "" {
		if err := h.uploader.RemoveByURL(ctx, user.Avatar); err != nil {
			h.logger.WarnContext(ctx, "failed to remove uploaded object",
				slog.String("url", user.Avatar), slog.Any("error", err))
		}
	}

	h.logger.InfoContext(ctx, "user deleted by admin",
		slog.String("user_id", user.ID),
		slog.Int("articles_deleted", deleted))

	sendJSON(h.logger, w, api.MessageResponse{Message: "User deleted"}, http.StatusOK)
}

func (h *AdminHandler) fetchUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	ctx := r.Context()

	userID := r.PathValue("id")
	if userID == "" {
		sendError(h.logger, w, "user id is required", http.StatusBadRequest)
		return nil, false
	}

	user, err := h.userStorage.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			sendError(h.logger, w, "user not found", http.StatusNotFound)
			return nil, false
		}
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return nil, false
	}

	return user, true
}
