package api

import (
	"time"

	"github.com/yunxin2415/noke/internal/models"
)

// ArticleAuthor представляет автора в составе статьи
type ArticleAuthor struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

// Article представляет статью в ответах API
type Article struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	Content        string        `json:"content"`
	Category       string        `json:"category"`
	Tags           string        `json:"tags"`
	IsPrivate      bool          `json:"isPrivate"`
	IsDownloadable bool          `json:"isDownloadable"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
	Author         ArticleAuthor `json:"author"`
}

// NewArticle собирает DTO статьи вместе с публичными данными автора
func NewArticle(a *models.Article, author *models.User) *Article {
	art := &Article{
		ID:             a.ID,
		Title:          a.Title,
		Content:        a.Content,
		Category:       a.Category,
		Tags:           a.Tags,
		IsPrivate:      a.IsPrivate,
		IsDownloadable: a.IsDownloadable,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
	if author != nil {
		art.Author = ArticleAuthor{
			ID:       author.ID,
			Username: author.Username,
			Avatar:   author.Avatar,
		}
	}
	return art
}

// CreateArticleRequest представляет запрос на создание статьи
type CreateArticleRequest struct {
	Title          string `json:"title"`
	Content        string `json:"content"`
	Category       string `json:"category"`        // пусто — категория по умолчанию
	Tags           string `json:"tags"`
	IsPrivate      *bool  `json:"isPrivate"`       // по умолчанию false
	IsDownloadable *bool  `json:"isDownloadable"`  // по умолчанию true
}

// UpdateArticleRequest представляет частичное обновление статьи:
// nil-поле не трогает значение.
type UpdateArticleRequest struct {
	Title          *string `json:"title"`
	Content        *string `json:"content"`
	Category       *string `json:"category"`
	Tags           *string `json:"tags"`
	IsPrivate      *bool   `json:"isPrivate"`
	IsDownloadable *bool   `json:"isDownloadable"`
}

// ArticleListResponse представляет страницу списка статей
type ArticleListResponse struct {
	Content       []*Article `json:"content"`
	TotalElements int64      `json:"totalElements"`
	TotalPages    int        `json:"totalPages"`
	CurrentPage   int        `json:"currentPage"`
	Size          int        `json:"size"`
	First         bool       `json:"first"`
	Last          bool       `json:"last"`
}
