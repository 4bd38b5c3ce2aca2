package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/yunxin2415/noke/internal/captcha"
	"github.com/yunxin2415/noke/internal/models"
	"github.com/yunxin2415/noke/internal/server/storage"
	"github.com/yunxin2415/noke/internal/validation"
	"github.com/yunxin2415/noke/pkg/api"
)

// captchaHeader несет session id выданного challenge.
// Сервер выставляет его при выдаче картинки, клиент возвращает при регистрации.
const captchaHeader = "X-Captcha-ID"

// AuthHandler обрабатывает запросы авторизации
type AuthHandler struct {
	logger        *slog.Logger
	userStorage   storage.UserStorage
	challenges    captcha.Store
	authenticator *Authenticator
	jwtConfig     JWTConfig
}

// NewAuthHandler создает новый handler для авторизации
func NewAuthHandler(logger *slog.Logger, userStorage storage.UserStorage, challenges captcha.Store, jwtConfig JWTConfig) *AuthHandler {
	return &AuthHandler{
		logger:        logger,
		userStorage:   userStorage,
		challenges:    challenges,
		authenticator: NewAuthenticator(userStorage),
		jwtConfig:     jwtConfig,
	}
}

// Captcha обрабатывает GET /api/auth/captcha
// Выдает новый challenge: PNG с кодом, session id в заголовке X-Captcha-ID
func (h *AuthHandler) Captcha(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, code, err := h.challenges.Issue(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue captcha", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	img, err := captcha.RenderPNG(code)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to render captcha", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.DebugContext(ctx, "captcha issued", slog.String("session_id", sessionID))

	// Картинка одноразовая, кешировать ее нельзя
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.Header().Set(captchaHeader, sessionID)
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(img); err != nil {
		h.logger.ErrorContext(ctx, "failed to write captcha image", slog.Any("error", err))
	}
}

// Register обрабатывает POST /api/auth/register
// Регистрация нового пользователя: session id challenge'а в X-Captcha-ID
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode register request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	// Валидация входа до всех обращений к хранилищам
	if err := validation.ValidateUsername(req.Username); err != nil {
		h.logger.WarnContext(ctx, "invalid username", slog.String("username", req.Username), slog.Any("error", err))
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.ValidateEmail(req.Email); err != nil {
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Captcha == "" {
		sendError(h.logger, w, "captcha is required", http.StatusBadRequest)
		return
	}

	sessionID := r.Header.Get(captchaHeader)
	if sessionID == "" {
		sendError(h.logger, w, "captcha session is required", http.StatusBadRequest)
		return
	}

	if err := h.challenges.Verify(ctx, sessionID, req.Captcha); err != nil {
		h.logger.WarnContext(ctx, "captcha verification failed",
			slog.String("session_id", sessionID), slog.Any("error", err))
		switch {
		case errors.Is(err, captcha.ErrExpired):
			sendError(h.logger, w, "captcha expired", http.StatusBadRequest)
		case errors.Is(err, captcha.ErrMismatch):
			sendError(h.logger, w, "captcha code is incorrect", http.StatusBadRequest)
		case errors.Is(err, captcha.ErrNotFound):
			sendError(h.logger, w, "captcha not found or already used", http.StatusBadRequest)
		default:
			sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	passwordHash, err := HashPassword(req.Password)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to hash password", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	user := &models.User{
		ID:           uuid.New().String(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         models.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.userStorage.CreateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, storage.ErrUsernameTaken):
			h.logger.WarnContext(ctx, "username already taken", slog.String("username", req.Username))
			sendError(h.logger, w, "username already taken", http.StatusConflict)
		case errors.Is(err, storage.ErrEmailTaken):
			h.logger.WarnContext(ctx, "email already taken", slog.String("email", req.Email))
			sendError(h.logger, w, "email already registered", http.StatusConflict)
		default:
			h.logger.ErrorContext(ctx, "failed to create user", slog.Any("error", err))
			sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	h.logger.InfoContext(ctx, "user registered successfully",
		slog.String("username", user.Username),
		slog.String("user_id", user.ID))

	resp := api.RegisterResponse{
		Message: "User registered successfully",
		User:    api.NewUser(user),
	}

	sendJSON(h.logger, w, resp, http.StatusOK)
}

// Login обрабатывает POST /api/auth/login
// Аутентификация пользователя, выдача JWT
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode login request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Username == "" || req.Password == "" {
		sendError(h.logger, w, "username and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.authenticator.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrBadCredentials) {
			// Один и тот же ответ для неизвестного username и неверного пароля
			h.logger.WarnContext(ctx, "login failed", slog.String("username", req.Username))
			sendError(h.logger, w, ErrBadCredentials.Error(), http.StatusBadRequest)
			return
		}
		h.logger.ErrorContext(ctx, "failed to authenticate user", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	token, err := GenerateAccessToken(h.jwtConfig, user)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate access token", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "user logged in successfully",
		slog.String("username", user.Username),
		slog.String("user_id", user.ID))

	resp := api.LoginResponse{
		Token: token,
		User:  api.NewUser(user),
	}

	sendJSON(h.logger, w, resp, http.StatusOK)
}

// CheckUser обрабатывает GET /api/auth/check/{username}
// Проверка занятости username для клиентской формы регистрации
func (h *AuthHandler) CheckUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	username := r.PathValue("username")
	if err := validation.ValidateUsername(username); err != nil {
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.userStorage.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			sendJSON(h.logger, w, api.CheckUserResponse{Exists: false}, http.StatusOK)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := api.CheckUserResponse{
		Exists: true,
		User:   api.NewUser(user),
	}

	sendJSON(h.logger, w, resp, http.StatusOK)
}
