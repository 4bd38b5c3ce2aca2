package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/yunxin2415/noke/internal/models"
	"github.com/yunxin2415/noke/internal/server/storage"
)

const articleColumns = `id, author_id, title, content, category, tags, is_private, is_downloadable, created_at, updated_at`

// CreateArticle creates a new article
func (s *Storage) CreateArticle(ctx context.Context, article *models.Article) error {
	query := `
		INSERT INTO articles (id, author_id, title, content, category, tags, is_private, is_downloadable, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		article.ID,
		article.AuthorID,
		article.Title,
		article.Content,
		article.Category,
		article.Tags,
		article.IsPrivate,
		article.IsDownloadable,
		article.CreatedAt,
		article.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert article: %w", err)
	}

	return nil
}

func scanArticleRow(scan func(dest ...any) error) (*models.Article, error) {
	article := &models.Article{}
	err := scan(
		&article.ID,
		&article.AuthorID,
		&article.Title,
		&article.Content,
		&article.Category,
		&article.Tags,
		&article.IsPrivate,
		&article.IsDownloadable,
		&article.CreatedAt,
		&article.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return article, nil
}

// GetArticleByID retrieves article by ID
func (s *Storage) GetArticleByID(ctx context.Context, articleID string) (*models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE id = ?`

	article, err := scanArticleRow(s.db.QueryRowContext(ctx, query, articleID).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrArticleNotFound
		}
		return nil, fmt.Errorf("failed to get article: %w", err)
	}

	return article, nil
}

// ListArticles returns a visibility-filtered page of articles, newest first.
// Приватные статьи чужих авторов отфильтровываются на уровне запроса —
// это тот же предикат, что и policy.CanRead, примененный к выборке.
func (s *Storage) ListArticles(ctx context.Context, filter storage.ArticleFilter) ([]*models.Article, int64, error) {
	where := `WHERE (is_private = 0 OR author_id = ?)`
	args := []any{filter.ViewerID}

	if filter.Category != "" {
		where += ` AND category = ?`
		args = append(args, filter.Category)
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM articles ` + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count articles: %w", err)
	}

	query := `SELECT ` + articleColumns + ` FROM articles ` + where +
		` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, filter.Size, (filter.Page-1)*filter.Size)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	var articles []*models.Article
	for rows.Next() {
		article, err := scanArticleRow(rows.Scan)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan article: %w", err)
		}
		articles = append(articles, article)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate articles: %w", err)
	}

	return articles, total, nil
}

// ListArticlesByAuthor returns all articles of the author, newest first
func (s *Storage) ListArticlesByAuthor(ctx context.Context, authorID string) ([]*models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE author_id = ? ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, authorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list author articles: %w", err)
	}
	defer rows.Close()

	var articles []*models.Article
	for rows.Next() {
		article, err := scanArticleRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		articles = append(articles, article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate articles: %w", err)
	}

	return articles, nil
}

// UpdateArticle updates article fields
func (s *Storage) UpdateArticle(ctx context.Context, article *models.Article) error {
	query := `
		UPDATE articles
		SET title = ?, content = ?, category = ?, tags = ?, is_private = ?, is_downloadable = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		article.Title,
		article.Content,
		article.Category,
		article.Tags,
		article.IsPrivate,
		article.IsDownloadable,
		article.UpdatedAt,
		article.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update article: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrArticleNotFound
	}

	return nil
}

// DeleteArticle deletes article by ID
func (s *Storage) DeleteArticle(ctx context.Context, articleID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM articles WHERE id = ?`, articleID)
	if err != nil {
		return fmt.Errorf("failed to delete article: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrArticleNotFound
	}

	return nil
}

// DeleteArticlesByAuthor deletes all articles of the author
func (s *Storage) DeleteArticlesByAuthor(ctx context.Context, authorID string) (int, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM articles WHERE author_id = ?`, authorID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete author articles: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rows), nil
}

// CountArticles returns the total number of articles regardless of visibility
func (s *Storage) CountArticles(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return count, nil
}
