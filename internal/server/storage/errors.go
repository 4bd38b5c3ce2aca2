package storage

import "errors"

// Common storage errors
var (
	// ErrUserNotFound indicates that user was not found in storage
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameTaken indicates that user with this username already exists
	ErrUsernameTaken = errors.New("username already taken")

	// ErrEmailTaken indicates that user with this email already exists
	ErrEmailTaken = errors.New("email already taken")

	// ErrArticleNotFound indicates that article was not found in storage
	ErrArticleNotFound = errors.New("article not found")

	// ErrAlreadyFollowing indicates that the follow relation already exists
	ErrAlreadyFollowing = errors.New("already following")

	// ErrFollowNotFound indicates that the follow relation does not exist
	ErrFollowNotFound = errors.New("follow relation not found")
)
