package handlers

import (
	"context"
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

// UserHandler обрабатывает запросы к профилю и подпискам
type UserHandler struct {
	logger         *slog.Logger
	userStorage    storage.UserStorage
	articleStorage storage.ArticleStorage
	followStorage  storage.FollowStorage
	uploader       Uploader // nil, когда загрузки выключены
	authenticator  *Authenticator
}

// NewUserHandler создает новый handler для пользователей
func NewUserHandler(logger *slog.Logger, userStorage storage.UserStorage, articleStorage storage.ArticleStorage, followStorage storage.FollowStorage, uploader Uploader) *UserHandler {
	return &UserHandler{
		logger:         logger,
		userStorage:    userStorage,
		articleStorage: articleStorage,
		followStorage:  followStorage,
		uploader:       uploader,
		authenticator:  NewAuthenticator(userStorage),
	}
}

// removeUpload чистит объект в хранилище загрузок, не прерывая запрос
func (h *UserHandler) removeUpload(ctx context.Context, rawURL string) {
	if h.uploader == nil || rawURL == "" {
		return
	}
	if err := h.uploader.RemoveByURL(ctx, rawURL); err != nil {
		h.logger.WarnContext(ctx, "failed to remove uploaded object",
			slog.String("url", rawURL), slog.Any("error", err))
	}
}

// Profile обрабатывает GET /api/user/profile
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, ok := GetPrincipal(r.Context())
	if !ok {
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	sendJSON(h.logger, w, api.NewUser(user), http.StatusOK)
}

// UpdateProfile обрабатывает PUT /api/user/profile
// Меняются только email, bio и avatar
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := GetPrincipal(ctx)
	if !ok {
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.UpdateProfileRequest
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
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	previousAvatar := ""
	if req.Avatar != nil && *req.Avatar != user.Avatar {
		previousAvatar = user.Avatar
		user.Avatar = *req.Avatar
	}
	user.UpdatedAt = time.Now()

	if err := h.userStorage.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			sendError(h.logger, w, "email already registered", http.StatusConflict)
			return
		}
		h.logger.ErrorContext(ctx, "failed to update profile", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.removeUpload(ctx, previousAvatar)

	h.logger.InfoContext(ctx, "profile updated", slog.String("user_id", user.ID))

	sendJSON(h.logger, w, api.NewUser(user), http.StatusOK)
}

// UpdatePassword обрабатывает PUT /api/user/password
// Текущий пароль проверяется перед сменой
func (h *UserHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := GetPrincipal(ctx)
	if !ok {
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.UpdatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := validation.ValidatePassword(req.NewPassword); err != nil {
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := h.authenticator.Authenticate(ctx, user.Username, req.CurrentPassword); err != nil {
		if errors.Is(err, ErrBadCredentials) {
			sendError(h.logger, w, "current password is incorrect", http.StatusBadRequest)
			return
		}
		h.logger.ErrorContext(ctx, "failed to verify current password", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	hash, err := HashPassword(req.NewPassword)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to hash password", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	user.PasswordHash = hash
	user.UpdatedAt = time.Now()

	if err := h.userStorage.UpdateUser(ctx, user); err != nil {
		h.logger.ErrorContext(ctx, "failed to update password", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "password updated", slog.String("user_id", user.ID))

	sendJSON(h.logger, w, api.MessageResponse{Message: "Password updated"}, http.StatusOK)
}

// DeleteAccount обрабатывает DELETE /api/user/account
// Пароль проверяется повторно; статьи и подписки удаляются каскадом.
// Административные аккаунты этим путем не удаляются.
func (h *UserHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := GetPrincipal(ctx)
	if !ok {
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if user.IsAdmin() {
		sendError(h.logger, w, "admin accounts cannot be deleted", http.StatusForbidden)
		return
	}

	var req api.DeleteAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if _, err := h.authenticator.Authenticate(ctx, user.Username, req.Password); err != nil {
		if errors.Is(err, ErrBadCredentials) {
			sendError(h.logger, w, "password is incorrect", http.StatusBadRequest)
			return
		}
		h.logger.ErrorContext(ctx, "failed to verify password", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
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

	h.removeUpload(ctx, user.Avatar)

	h.logger.InfoContext(ctx, "account deleted",
		slog.String("user_id", user.ID),
		slog.Int("articles_deleted", deleted))

	sendJSON(h.logger, w, api.MessageResponse{Message: "Account deleted"}, http.StatusOK)
}

// Follow обрабатывает POST /api/user/follow/{username}
func (h *UserHandler) Follow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	follower, ok := GetPrincipal(ctx)
	if !ok {
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	followee, ok := h.fetchTarget(w, r)
	if !ok {
		return
	}

	if followee.ID == follower.ID {
		sendError(h.logger, w, "cannot follow yourself", http.StatusBadRequest)
		return
	}

	if err := h.followStorage.CreateFollow(ctx, follower.ID, followee.ID); err != nil {
		if errors.Is(err, storage.ErrAlreadyFollowing) {
			sendError(h.logger, w, "already following", http.StatusConflict)
			return
		}
		h.logger.ErrorContext(ctx, "failed to create follow", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(h.logger, w, api.MessageResponse{Message: "Following " + followee.Username}, http.StatusOK)
}

// Unfollow обрабатывает DELETE /api/user/follow/{username}
func (h *UserHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	follower, ok := GetPrincipal(ctx)
	if !ok {
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	followee, ok := h.fetchTarget(w, r)
	if !ok {
		return
	}

	if err := h.followStorage.DeleteFollow(ctx, follower.ID, followee.ID); err != nil {
		if errors.Is(err, storage.ErrFollowNotFound) {
			sendError(h.logger, w, "not following", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to delete follow", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(h.logger, w, api.MessageResponse{Message: "Unfollowed " + followee.Username}, http.StatusOK)
}

// Following обрабатывает GET /api/user/follow/{username}
// Подписан ли текущий пользователь на username
func (h *UserHandler) Following(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	follower, ok := GetPrincipal(ctx)
	if !ok {
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	followee, ok := h.fetchTarget(w, r)
	if !ok {
		return
	}

	following, err := h.followStorage.IsFollowing(ctx, follower.ID, followee.ID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to check follow", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(h.logger, w, api.FollowingResponse{Following: following}, http.StatusOK)
}

// fetchTarget достает пользователя по path параметру username.
// При ошибке сам пишет ответ и возвращает false.
func (h *UserHandler) fetchTarget(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	ctx := r.Context()

	username := r.PathValue("username")
	if err := validation.ValidateUsername(username); err != nil {
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return nil, false
	}

	user, err := h.userStorage.GetUserByUsername(ctx, username)
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
