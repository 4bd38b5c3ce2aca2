package postgres

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
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
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
	query := `SELECT ` + articleColumns + ` FROM articles WHERE id = $1`

	article, err := scanArticleRow(s.db.QueryRowContext(ctx, query, articleID).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrArticleNotFound
		}
		return nil, fmt.Errorf("failed to get article: %w", err)
	}

	return article, nil
}

// ListArticles returns a visibility-filtered page of articles, newest first
func (s *Storage) ListArticles(ctx context.Context, filter storage.ArticleFilter) ([]*models.Article, int64, error) {
	where := `WHERE (NOT is_private OR author_id::text = $1)`
	args := []any{filter.ViewerID}

	if filter.Category != "" {
		where += ` AND category = $2`
		args = append(args, filter.Category)
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM articles ` + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count articles: %w", err)
	}

	query := fmt.Sprintf(`SELECT `+articleColumns+` FROM articles %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2)
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
	query := `SELECT ` + articleColumns + ` FROM articles WHERE author_id = $1 ORDER BY created_at DESC`

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
		SET title = $1, content = $2, category = $3, tags = $4, is_private = $5, is_downloadable = $6, updated_at = $7
		WHERE id = $8
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
	result, err := s.db.ExecContext(ctx, `DELETE FROM articles WHERE id = $1`, articleID)
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
	result, err := s.db.ExecContext(ctx, `DELETE FROM articles WHERE author_id = $1`, authorID)
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
