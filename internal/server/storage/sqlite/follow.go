package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yunxin2415/noke/internal/server/storage"
)

// CreateFollow records that follower follows followee
func (s *Storage) CreateFollow(ctx context.Context, followerID, followeeID string) error {
	query := `INSERT INTO follows (follower_id, followee_id, created_at) VALUES (?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query, followerID, followeeID, time.Now())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return storage.ErrAlreadyFollowing
		}
		return fmt.Errorf("failed to insert follow: %w", err)
	}

	return nil
}

// DeleteFollow removes the follow relation
func (s *Storage) DeleteFollow(ctx context.Context, followerID, followeeID string) error {
	query := `DELETE FROM follows WHERE follower_id = ? AND followee_id = ?`

	result, err := s.db.ExecContext(ctx, query, followerID, followeeID)
	if err != nil {
		return fmt.Errorf("failed to delete follow: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrFollowNotFound
	}

	return nil
}

// IsFollowing reports whether follower follows followee
func (s *Storage) IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error) {
	query := `SELECT COUNT(*) FROM follows WHERE follower_id = ? AND followee_id = ?`

	var count int
	if err := s.db.QueryRowContext(ctx, query, followerID, followeeID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check follow: %w", err)
	}

	return count > 0, nil
}

// DeleteFollowsOfUser removes all relations the user participates in
func (s *Storage) DeleteFollowsOfUser(ctx context.Context, userID string) error {
	query := `DELETE FROM follows WHERE follower_id = ? OR followee_id = ?`

	if _, err := s.db.ExecContext(ctx, query, userID, userID); err != nil {
		return fmt.Errorf("failed to delete follows: %w", err)
	}

	return nil
}
