package storage

// Storage bundles all repositories behind a single handle with a
// common lifecycle. Concrete backends: sqlite, postgres.
type Storage interface {
	UserStorage
	ArticleStorage
	FollowStorage

	// Close releases the underlying database connection
	Close() error
}
