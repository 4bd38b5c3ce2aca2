package handlers

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/yunxin2415/noke/internal/models"
	"github.com/yunxin2415/noke/internal/server/storage"
)

// setupTestLogger creates a logger for testing
func setupTestLogger() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelError,
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func testJWTConfig() JWTConfig {
	return JWTConfig{
		Secret:   []byte("test-secret-key"),
		TokenTTL: 15 * time.Minute,
	}
}

// mockUserStorage is a mock implementation of UserStorage for testing
type mockUserStorage struct {
	users       map[string]*models.User // username -> User
	createError error
	getError    error
	updateError error
	deleteError error
	deletedIDs  []string
}

func newMockUserStorage() *mockUserStorage {
	return &mockUserStorage{users: make(map[string]*models.User)}
}

func (m *mockUserStorage) CreateUser(_ context.Context, user *models.User) error {
	if m.createError != nil {
		return m.createError
	}
	if _, exists := m.users[user.Username]; exists {
		return storage.ErrUsernameTaken
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return storage.ErrEmailTaken
		}
	}
	m.users[user.Username] = user
	return nil
}

func (m *mockUserStorage) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	user, ok := m.users[username]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserStorage) GetUserByID(_ context.Context, id string) (*models.User, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (m *mockUserStorage) ListUsers(_ context.Context) ([]*models.User, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	users := make([]*models.User, 0, len(m.users))
	for _, user := range m.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

func (m *mockUserStorage) CountUsers(_ context.Context) (int64, error) {
	if m.getError != nil {
		return 0, m.getError
	}
	return int64(len(m.users)), nil
}

func (m *mockUserStorage) UpdateUser(_ context.Context, user *models.User) error {
	if m.updateError != nil {
		return m.updateError
	}
	m.users[user.Username] = user
	return nil
}

func (m *mockUserStorage) DeleteUser(_ context.Context, id string) error {
	if m.deleteError != nil {
		return m.deleteError
	}
	for username, user := range m.users {
		if user.ID == id {
			delete(m.users, username)
			m.deletedIDs = append(m.deletedIDs, id)
			return nil
		}
	}
	return storage.ErrUserNotFound
}

// mockArticleStorage is a mock implementation of ArticleStorage for testing
type mockArticleStorage struct {
	articles    map[string]*models.Article // id -> Article
	createError error
	getError    error
	listError   error
	updateError error
	deleteError error
}

func newMockArticleStorage() *mockArticleStorage {
	return &mockArticleStorage{articles: make(map[string]*models.Article)}
}

func (m *mockArticleStorage) CreateArticle(_ context.Context, article *models.Article) error {
	if m.createError != nil {
		return m.createError
	}
	m.articles[article.ID] = article
	return nil
}

func (m *mockArticleStorage) GetArticleByID(_ context.Context, id string) (*models.Article, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	article, ok := m.articles[id]
	if !ok {
		return nil, storage.ErrArticleNotFound
	}
	return article, nil
}

func (m *mockArticleStorage) ListArticles(_ context.Context, filter storage.ArticleFilter) ([]*models.Article, int64, error) {
	if m.listError != nil {
		return nil, 0, m.listError
	}
	var matched []*models.Article
	for _, a := range m.articles {
		if a.IsPrivate && a.AuthorID != filter.ViewerID {
			continue
		}
		if filter.Category != "" && a.Category != filter.Category {
			continue
		}
		matched = append(matched, a)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))
	start := (filter.Page - 1) * filter.Size
	if start > len(matched) {
		start = len(matched)
	}
	end := start + filter.Size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (m *mockArticleStorage) ListArticlesByAuthor(_ context.Context, authorID string) ([]*models.Article, error) {
	if m.listError != nil {
		return nil, m.listError
	}
	var articles []*models.Article
	for _, a := range m.articles {
		if a.AuthorID == authorID {
			articles = append(articles, a)
		}
	}
	sort.Slice(articles, func(i, j int) bool { return articles[i].CreatedAt.After(articles[j].CreatedAt) })
	return articles, nil
}

func (m *mockArticleStorage) CountArticles(_ context.Context) (int64, error) {
	if m.listError != nil {
		return 0, m.listError
	}
	return int64(len(m.articles)), nil
}

func (m *mockArticleStorage) UpdateArticle(_ context.Context, article *models.Article) error {
	if m.updateError != nil {
		return m.updateError
	}
	if _, ok := m.articles[article.ID]; !ok {
		return storage.ErrArticleNotFound
	}
	m.articles[article.ID] = article
	return nil
}

func (m *mockArticleStorage) DeleteArticle(_ context.Context, id string) error {
	if m.deleteError != nil {
		return m.deleteError
	}
	if _, ok := m.articles[id]; !ok {
		return storage.ErrArticleNotFound
	}
	delete(m.articles, id)
	return nil
}

func (m *mockArticleStorage) DeleteArticlesByAuthor(_ context.Context, authorID string) (int, error) {
	if m.deleteError != nil {
		return 0, m.deleteError
	}
	deleted := 0
	for id, a := range m.articles {
		if a.AuthorID == authorID {
			delete(m.articles, id)
			deleted++
		}
	}
	return deleted, nil
}

// mockFollowStorage is a mock implementation of FollowStorage for testing
type mockFollowStorage struct {
	follows     map[[2]string]bool // {follower, followee}
	createError error
	deleteError error
}

func newMockFollowStorage() *mockFollowStorage {
	return &mockFollowStorage{follows: make(map[[2]string]bool)}
}

func (m *mockFollowStorage) CreateFollow(_ context.Context, followerID, followeeID string) error {
	if m.createError != nil {
		return m.createError
	}
	key := [2]string{followerID, followeeID}
	if m.follows[key] {
		return storage.ErrAlreadyFollowing
	}
	m.follows[key] = true
	return nil
}

func (m *mockFollowStorage) DeleteFollow(_ context.Context, followerID, followeeID string) error {
	if m.deleteError != nil {
		return m.deleteError
	}
	key := [2]string{followerID, followeeID}
	if !m.follows[key] {
		return storage.ErrFollowNotFound
	}
	delete(m.follows, key)
	return nil
}

func (m *mockFollowStorage) IsFollowing(_ context.Context, followerID, followeeID string) (bool, error) {
	return m.follows[[2]string{followerID, followeeID}], nil
}

func (m *mockFollowStorage) DeleteFollowsOfUser(_ context.Context, userID string) error {
	if m.deleteError != nil {
		return m.deleteError
	}
	for key := range m.follows {
		if key[0] == userID || key[1] == userID {
			delete(m.follows, key)
		}
	}
	return nil
}

// newStoredUser создает пользователя с захешированным паролем
// и кладет его в mock storage
func newStoredUser(m *mockUserStorage, username, password, role string) *models.User {
	hash, err := HashPassword(password)
	if err != nil {
		panic(err)
	}
	now := time.Now()
	user := &models.User{
		ID:           "id-" + username,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.users[username] = user
	return user
}
