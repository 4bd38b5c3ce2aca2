package storage

import "context"

// FollowStorage defines interface for follow-graph persistence
type FollowStorage interface {
	// CreateFollow records that follower follows followee
	// Returns ErrAlreadyFollowing if the relation already exists
	CreateFollow(ctx context.Context, followerID, followeeID string) error

	// DeleteFollow removes the follow relation
	// Returns ErrFollowNotFound if the relation does not exist
	DeleteFollow(ctx context.Context, followerID, followeeID string) error

	// IsFollowing reports whether follower follows followee
	IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error)

	// DeleteFollowsOfUser removes all relations the user participates in,
	// in either direction (used when an account is deleted)
	DeleteFollowsOfUser(ctx context.Context, userID string) error
}
