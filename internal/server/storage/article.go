package storage

import (
	"context"

	"github.com/yunxin2415/noke/internal/models"
)

// ArticleFilter describes a page of the article feed.
// ViewerID narrows visibility: private articles of other authors are
// excluded; empty ViewerID means an anonymous reader.
type ArticleFilter struct {
	Category string // empty means all categories
	ViewerID string // empty means anonymous
	Page     int    // 1-based page number
	Size     int    // page size
}

// ArticleStorage defines interface for article data persistence
type ArticleStorage interface {
	// CreateArticle creates a new article
	CreateArticle(ctx context.Context, article *models.Article) error

	// GetArticleByID retrieves article by ID
	// Returns ErrArticleNotFound if article doesn't exist
	GetArticleByID(ctx context.Context, articleID string) (*models.Article, error)

	// ListArticles returns a visibility-filtered page of articles,
	// newest first, along with the total number of matching articles
	ListArticles(ctx context.Context, filter ArticleFilter) ([]*models.Article, int64, error)

	// ListArticlesByAuthor returns all articles of the author, newest first
	ListArticlesByAuthor(ctx context.Context, authorID string) ([]*models.Article, error)

	// CountArticles returns the total number of articles regardless of visibility
	CountArticles(ctx context.Context) (int64, error)

	// UpdateArticle updates article fields
	// Returns ErrArticleNotFound if article doesn't exist
	UpdateArticle(ctx context.Context, article *models.Article) error

	// DeleteArticle deletes article by ID
	// Returns ErrArticleNotFound if article doesn't exist
	DeleteArticle(ctx context.Context, articleID string) error

	// DeleteArticlesByAuthor deletes all articles of the author,
	// returns the number of deleted rows
	DeleteArticlesByAuthor(ctx context.Context, authorID string) (int, error)
}
