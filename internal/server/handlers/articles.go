package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yunxin2415/noke/internal/models"
	"github.com/yunxin2415/noke/internal/server/storage"
	"github.com/yunxin2415/noke/pkg/api"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// ArticleHandler обрабатывает запросы к статьям
type ArticleHandler struct {
	logger         *slog.Logger
	articleStorage storage.ArticleStorage
	userStorage    storage.UserStorage
}

// NewArticleHandler создает новый handler для статей
func NewArticleHandler(logger *slog.Logger, articleStorage storage.ArticleStorage, userStorage storage.UserStorage) *ArticleHandler {
	return &ArticleHandler{
		logger:         logger,
		articleStorage: articleStorage,
		userStorage:    userStorage,
	}
}

// authorOf подтягивает публичные данные автора статьи.
// Отсутствие автора не фатально для выдачи статьи.
func (h *ArticleHandler) authorOf(r *http.Request, article *models.Article, cache map[string]*models.User) *models.User {
	if author, ok := cache[article.AuthorID]; ok {
		return author
	}
	author, err := h.userStorage.GetUserByID(r.Context(), article.AuthorID)
	if err != nil {
		h.logger.WarnContext(r.Context(), "failed to get article author",
			slog.String("article_id", article.ID),
			slog.String("author_id", article.AuthorID),
			slog.Any("error", err))
		author = nil
	}
	cache[article.AuthorID] = author
	return author
}

// List обрабатывает GET /api/articles?page=1&size=10&category=tech
// Список статей, новые первыми. Приватные статьи чужих авторов
// отфильтрованы на уровне хранилища.
func (h *ArticleHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page := 1
	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			sendError(h.logger, w, "invalid page parameter", http.StatusBadRequest)
			return
		}
		page = n
	}

	size := defaultPageSize
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxPageSize {
			sendError(h.logger, w, "invalid size parameter", http.StatusBadRequest)
			return
		}
		size = n
	}

	filter := storage.ArticleFilter{
		Category: r.URL.Query().Get("category"),
		Page:     page,
		Size:     size,
	}
	if viewer, ok := GetPrincipal(ctx); ok {
		filter.ViewerID = viewer.ID
	}

	articles, total, err := h.articleStorage.ListArticles(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list articles", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	totalPages := int((total + int64(size) - 1) / int64(size))

	resp := api.ArticleListResponse{
		Content:       make([]*api.Article, 0, len(articles)),
		TotalElements: total,
		TotalPages:    totalPages,
		CurrentPage:   page,
		Size:          size,
		First:         page == 1,
		Last:          page >= totalPages,
	}

	authors := make(map[string]*models.User)
	for _, article := range articles {
		resp.Content = append(resp.Content, api.NewArticle(article, h.authorOf(r, article, authors)))
	}

	sendJSON(h.logger, w, resp, http.StatusOK)
}

// Get обрабатывает GET /api/articles/{id}
// Приватная статья видна только автору
func (h *ArticleHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	article, ok := h.fetchArticle(w, r)
	if !ok {
		return
	}

	viewer, _ := GetPrincipal(ctx)
	if !CanReadArticle(article, viewer) {
		sendError(h.logger, w, "article is private", http.StatusForbidden)
		return
	}

	authors := make(map[string]*models.User)
	sendJSON(h.logger, w, api.NewArticle(article, h.authorOf(r, article, authors)), http.StatusOK)
}

// Create обрабатывает POST /api/articles
func (h *ArticleHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	author, ok := GetPrincipal(ctx)
	if !ok {
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.CreateArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Title) == "" {
		sendError(h.logger, w, "title is required", http.StatusBadRequest)
		return
	}
	if req.Content == "" {
		sendError(h.logger, w, "content is required", http.StatusBadRequest)
		return
	}

	now := time.Now()
	article := &models.Article{
		ID:             uuid.New().String(),
		AuthorID:       author.ID,
		Title:          req.Title,
		Content:        req.Content,
		Category:       req.Category,
		Tags:           req.Tags,
		IsDownloadable: true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if article.Category == "" {
		article.Category = models.DefaultCategory
	}
	if req.IsPrivate != nil {
		article.IsPrivate = *req.IsPrivate
	}
	if req.IsDownloadable != nil {
		article.IsDownloadable = *req.IsDownloadable
	}

	if err := h.articleStorage.CreateArticle(ctx, article); err != nil {
		h.logger.ErrorContext(ctx, "failed to create article", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "article created",
		slog.String("article_id", article.ID),
		slog.String("author_id", author.ID))

	sendJSON(h.logger, w, api.NewArticle(article, author), http.StatusCreated)
}

// Update обрабатывает PUT /api/articles/{id}
// Только автор может менять статью; роль не участвует
func (h *ArticleHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := GetPrincipal(ctx)
	if !ok {
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	article, ok := h.fetchArticle(w, r)
	if !ok {
		return
	}

	if !CanMutateArticle(article, actor) {
		sendError(h.logger, w, "not the author of this article", http.StatusForbidden)
		return
	}

	var req api.UpdateArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			sendError(h.logger, w, "title cannot be blank", http.StatusBadRequest)
			return
		}
		article.Title = *req.Title
	}
	if req.Content != nil {
		article.Content = *req.Content
	}
	if req.Category != nil {
		article.Category = *req.Category
		if article.Category == "" {
			article.Category = models.DefaultCategory
		}
	}
	if req.Tags != nil {
		article.Tags = *req.Tags
	}
	if req.IsPrivate != nil {
		article.IsPrivate = *req.IsPrivate
	}
	if req.IsDownloadable != nil {
		article.IsDownloadable = *req.IsDownloadable
	}
	article.UpdatedAt = time.Now()

	if err := h.articleStorage.UpdateArticle(ctx, article); err != nil {
		if errors.Is(err, storage.ErrArticleNotFound) {
			sendError(h.logger, w, "article not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to update article", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(h.logger, w, api.NewArticle(article, actor), http.StatusOK)
}

// Delete обрабатывает DELETE /api/articles/{id}
func (h *ArticleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := GetPrincipal(ctx)
	if !ok {
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	article, ok := h.fetchArticle(w, r)
	if !ok {
		return
	}

	if !CanMutateArticle(article, actor) {
		sendError(h.logger, w, "not the author of this article", http.StatusForbidden)
		return
	}

	if err := h.articleStorage.DeleteArticle(ctx, article.ID); err != nil {
		if errors.Is(err, storage.ErrArticleNotFound) {
			sendError(h.logger, w, "article not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to delete article", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "article deleted",
		slog.String("article_id", article.ID),
		slog.String("actor_id", actor.ID))

	sendJSON(h.logger, w, api.MessageResponse{Message: "Article deleted"}, http.StatusOK)
}

// Download обрабатывает GET /api/articles/{id}/download
// Отдает markdown файл статьи, если автор разрешил скачивание
func (h *ArticleHandler) Download(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	article, ok := h.fetchArticle(w, r)
	if !ok {
		return
	}

	if !article.IsDownloadable {
		sendError(h.logger, w, "article is not downloadable", http.StatusForbidden)
		return
	}

	viewer, _ := GetPrincipal(ctx)
	if !CanReadArticle(article, viewer) {
		sendError(h.logger, w, "article is private", http.StatusForbidden)
		return
	}

	filename := strconv.Quote(article.Title + ".md")
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.WriteHeader(http.StatusOK)

	body := fmt.Sprintf("# %s\n\n%s\n", article.Title, article.Content)
	if _, err := w.Write([]byte(body)); err != nil {
		h.logger.ErrorContext(ctx, "failed to write article download", slog.Any("error", err))
	}
}

// UserArticles обрабатывает GET /api/articles/user
// Все статьи текущего пользователя, включая приватные
func (h *ArticleHandler) UserArticles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	author, ok := GetPrincipal(ctx)
	if !ok {
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	articles, err := h.articleStorage.ListArticlesByAuthor(ctx, author.ID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list user articles", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := make([]*api.Article, 0, len(articles))
	for _, article := range articles {
		resp = append(resp, api.NewArticle(article, author))
	}

	sendJSON(h.logger, w, resp, http.StatusOK)
}

// fetchArticle достает статью по path параметру id.
// При ошибке сам пишет ответ и возвращает false.
func (h *ArticleHandler) fetchArticle(w http.ResponseWriter, r *http.Request) (*models.Article, bool) {
	ctx := r.Context()

	articleID := r.PathValue("id")
	if articleID == "" {
		sendError(h.logger, w, "article id is required", http.StatusBadRequest)
		return nil, false
	}

	article, err := h.articleStorage.GetArticleByID(ctx, articleID)
	if err != nil {
		if errors.Is(err, storage.ErrArticleNotFound) {
			sendError(h.logger, w, "article not found", http.StatusNotFound)
			return nil, false
		}
		h.logger.ErrorContext(ctx, "failed to get article", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return nil, false
	}

	return article, true
}
