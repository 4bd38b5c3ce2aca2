package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yunxin2415/noke/internal/models"
	"github.com/yunxin2415/noke/pkg/api"
)

func withUser(r *http.Request, user *models.User) *http.Request {
	if user == nil {
		return r
	}
	return r.WithContext(WithPrincipal(r.Context(), user))
}

func storedArticle(m *mockArticleStorage, id, authorID string, private bool, age time.Duration) *models.Article {
	article := &models.Article{
		ID:             id,
		AuthorID:       authorID,
		Title:          "Title " + id,
		Content:        "content of " + id,
		Category:       models.DefaultCategory,
		IsPrivate:      private,
		IsDownloadable: true,
		CreatedAt:      time.Now().Add(-age),
		UpdatedAt:      time.Now().Add(-age),
	}
	m.articles[id] = article
	return article
}

func newArticleHandler(articles *mockArticleStorage, users *mockUserStorage) *ArticleHandler {
	return NewArticleHandler(setupTestLogger(), articles, users)
}

func TestArticleHandler_List(t *testing.T) {
	users := newMockUserStorage()
	alice := newStoredUser(users, "alice", "secret123", models.RoleUser)

	articles := newMockArticleStorage()
	storedArticle(articles, "a1", alice.ID, false, 3*time.Hour)
	storedArticle(articles, "a2", alice.ID, true, 2*time.Hour)
	storedArticle(articles, "a3", alice.ID, false, time.Hour)

	h := newArticleHandler(articles, users)

	t.Run("anonymous sees public only", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/articles", nil)
		w := httptest.NewRecorder()
		h.List(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var resp api.ArticleListResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.EqualValues(t, 2, resp.TotalElements)
		require.Len(t, resp.Content, 2)
		// Новые первыми
		assert.Equal(t, "a3", resp.Content[0].ID)
		assert.Equal(t, "a1", resp.Content[1].ID)
		assert.True(t, resp.First)
		assert.True(t, resp.Last)
	})

	t.Run("author sees own private", func(t *testing.T) {
		req := withUser(httptest.NewRequest(http.MethodGet, "/api/articles", nil), alice)
		w := httptest.NewRecorder()
		h.List(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var resp api.ArticleListResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.EqualValues(t, 3, resp.TotalElements)
	})

	t.Run("pagination meta", func(t *testing.T) {
		req := withUser(httptest.NewRequest(http.MethodGet, "/api/articles?page=2&size=2", nil), alice)
		w := httptest.NewRecorder()
		h.List(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var resp api.ArticleListResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, 2, resp.CurrentPage)
		assert.Equal(t, 2, resp.TotalPages)
		assert.Len(t, resp.Content, 1)
		assert.False(t, resp.First)
		assert.True(t, resp.Last)
	})

	t.Run("bad page params", func(t *testing.T) {
		for _, target := range []string{
			"/api/articles?page=0",
			"/api/articles?page=x",
			"/api/articles?size=0",
			"/api/articles?size=1000",
		} {
			req := httptest.NewRequest(http.MethodGet, target, nil)
			w := httptest.NewRecorder()
			h.List(w, req)
			assert.Equal(t, http.StatusBadRequest, w.Code, target)
		}
	})
}

func TestArticleHandler_Get(t *testing.T) {
	users := newMockUserStorage()
	alice := newStoredUser(users, "alice", "secret123", models.RoleUser)
	bob := newStoredUser(users, "bob", "secret123", models.RoleUser)

	articles := newMockArticleStorage()
	private := storedArticle(articles, "p1", alice.ID, true, time.Hour)

	h := newArticleHandler(articles, users)

	get := func(user *models.User) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/articles/p1", nil)
		req.SetPathValue("id", private.ID)
		w := httptest.NewRecorder()
		h.Get(w, withUser(req, user))
		return w
	}

	t.Run("author", func(t *testing.T) {
		w := get(alice)
		require.Equal(t, http.StatusOK, w.Code)

		var resp api.Article
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "p1", resp.ID)
		assert.Equal(t, "alice", resp.Author.Username)
	})

	t.Run("anonymous forbidden", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, get(nil).Code)
	})

	t.Run("other user forbidden", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, get(bob).Code)
	})

	t.Run("not found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/articles/missing", nil)
		req.SetPathValue("id", "missing")
		w := httptest.NewRecorder()
		h.Get(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestArticleHandler_Create(t *testing.T) {
	users := newMockUserStorage()
	alice := newStoredUser(users, "alice", "secret123", models.RoleUser)

	articles := newMockArticleStorage()
	h := newArticleHandler(articles, users)

	t.Run("defaults", func(t *testing.T) {
		body, err := json.Marshal(api.CreateArticleRequest{Title: "Hello", Content: "world"})
		require.NoError(t, err)

		req := withUser(httptest.NewRequest(http.MethodPost, "/api/articles", bytes.NewBuffer(body)), alice)
		w := httptest.NewRecorder()
		h.Create(w, req)

		require.Equal(t, http.StatusCreated, w.Code)

		var resp api.Article
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, models.DefaultCategory, resp.Category)
		assert.False(t, resp.IsPrivate)
		assert.True(t, resp.IsDownloadable)
		assert.Equal(t, alice.ID, resp.Author.ID)

		stored := articles.articles[resp.ID]
		require.NotNil(t, stored)
		assert.Equal(t, alice.ID, stored.AuthorID)
	})

	t.Run("explicit flags", func(t *testing.T) {
		private := true
		downloadable := false
		body, err := json.Marshal(api.CreateArticleRequest{
			Title:          "Secret",
			Content:        "draft",
			Category:       "tech",
			IsPrivate:      &private,
			IsDownloadable: &downloadable,
		})
		require.NoError(t, err)

		req := withUser(httptest.NewRequest(http.MethodPost, "/api/articles", bytes.NewBuffer(body)), alice)
		w := httptest.NewRecorder()
		h.Create(w, req)

		require.Equal(t, http.StatusCreated, w.Code)

		var resp api.Article
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.True(t, resp.IsPrivate)
		assert.False(t, resp.IsDownloadable)
		assert.Equal(t, "tech", resp.Category)
	})

	t.Run("anonymous", func(t *testing.T) {
		body, err := json.Marshal(api.CreateArticleRequest{Title: "x", Content: "y"})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/articles", bytes.NewBuffer(body))
		w := httptest.NewRecorder()
		h.Create(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("blank title", func(t *testing.T) {
		body, err := json.Marshal(api.CreateArticleRequest{Title: "   ", Content: "y"})
		require.NoError(t, err)

		req := withUser(httptest.NewRequest(http.MethodPost, "/api/articles", bytes.NewBuffer(body)), alice)
		w := httptest.NewRecorder()
		h.Create(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestArticleHandler_Update_Ownership(t *testing.T) {
	users := newMockUserStorage()
	alice := newStoredUser(users, "alice", "secret123", models.RoleUser)
	bob := newStoredUser(users, "bob", "secret123", models.RoleUser)
	admin := newStoredUser(users, "root", "secret123", models.RoleAdmin)

	articles := newMockArticleStorage()
	storedArticle(articles, "a1", alice.ID, false, time.Hour)

	h := newArticleHandler(articles, users)

	update := func(user *models.User) *httptest.ResponseRecorder {
		title := "Renamed"
		body, err := json.Marshal(api.UpdateArticleRequest{Title: &title})
		if err != nil {
			panic(err)
		}
		req := httptest.NewRequest(http.MethodPut, "/api/articles/a1", bytes.NewBuffer(body))
		req.SetPathValue("id", "a1")
		w := httptest.NewRecorder()
		h.Update(w, withUser(req, user))
		return w
	}

	assert.Equal(t, http.StatusUnauthorized, update(nil).Code)
	assert.Equal(t, http.StatusForbidden, update(bob).Code)
	// Администратор не наследует права автора
	assert.Equal(t, http.StatusForbidden, update(admin).Code)

	w := update(alice)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Renamed", articles.articles["a1"].Title)
}

func TestArticleHandler_Update_PartialFields(t *testing.T) {
	users := newMockUserStorage()
	alice := newStoredUser(users, "alice", "secret123", models.RoleUser)

	articles := newMockArticleStorage()
	article := storedArticle(articles, "a1", alice.ID, false, time.Hour)
	article.Tags = "go,web"

	h := newArticleHandler(articles, users)

	private := true
	body, err := json.Marshal(api.UpdateArticleRequest{IsPrivate: &private})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, "/api/articles/a1", bytes.NewBuffer(body))
	req.SetPathValue("id", "a1")
	w := httptest.NewRecorder()
	h.Update(w, withUser(req, alice))

	require.Equal(t, http.StatusOK, w.Code)

	updated := articles.articles["a1"]
	assert.True(t, updated.IsPrivate)
	// Остальные поля не тронуты
	assert.Equal(t, "Title a1", updated.Title)
	assert.Equal(t, "go,web", updated.Tags)
}

func TestArticleHandler_Delete(t *testing.T) {
	users := newMockUserStorage()
	alice := newStoredUser(users, "alice", "secret123", models.RoleUser)
	bob := newStoredUser(users, "bob", "secret123", models.RoleUser)

	articles := newMockArticleStorage()
	storedArticle(articles, "a1", alice.ID, false, time.Hour)

	h := newArticleHandler(articles, users)

	del := func(user *models.User) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodDelete, "/api/articles/a1", nil)
		req.SetPathValue("id", "a1")
		w := httptest.NewRecorder()
		h.Delete(w, withUser(req, user))
		return w
	}

	assert.Equal(t, http.StatusForbidden, del(bob).Code)
	require.Contains(t, articles.articles, "a1")

	require.Equal(t, http.StatusOK, del(alice).Code)
	assert.NotContains(t, articles.articles, "a1")

	// Повторное удаление — статьи больше нет
	assert.Equal(t, http.StatusNotFound, del(alice).Code)
}

func TestArticleHandler_Download(t *testing.T) {
	users := newMockUserStorage()
	alice := newStoredUser(users, "alice", "secret123", models.RoleUser)

	articles := newMockArticleStorage()
	article := storedArticle(articles, "a1", alice.ID, false, time.Hour)

	h := newArticleHandler(articles, users)

	download := func(id string, user *models.User) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/articles/"+id+"/download", nil)
		req.SetPathValue("id", id)
		w := httptest.NewRecorder()
		h.Download(w, withUser(req, user))
		return w
	}

	t.Run("success", func(t *testing.T) {
		w := download("a1", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/markdown; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
		assert.Equal(t, fmt.Sprintf("# %s\n\n%s\n", article.Title, article.Content), w.Body.String())
	})

	t.Run("not downloadable", func(t *testing.T) {
		storedArticle(articles, "nd", alice.ID, false, time.Hour).IsDownloadable = false
		assert.Equal(t, http.StatusForbidden, download("nd", nil).Code)
	})

	t.Run("private for anonymous", func(t *testing.T) {
		storedArticle(articles, "pr", alice.ID, true, time.Hour)
		assert.Equal(t, http.StatusForbidden, download("pr", nil).Code)
		assert.Equal(t, http.StatusOK, download("pr", alice).Code)
	})
}

func TestArticleHandler_UserArticles(t *testing.T) {
	users := newMockUserStorage()
	alice := newStoredUser(users, "alice", "secret123", models.RoleUser)
	bob := newStoredUser(users, "bob", "secret123", models.RoleUser)

	articles := newMockArticleStorage()
	storedArticle(articles, "a1", alice.ID, false, 2*time.Hour)
	storedArticle(articles, "a2", alice.ID, true, time.Hour)
	storedArticle(articles, "b1", bob.ID, false, time.Hour)

	h := newArticleHandler(articles, users)

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/articles/user", nil), alice)
	w := httptest.NewRecorder()
	h.UserArticles(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp []*api.Article
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	// Свои статьи целиком, включая приватные, новые первыми
	require.Len(t, resp, 2)
	assert.Equal(t, "a2", resp[0].ID)
	assert.Equal(t, "a1", resp[1].ID)
}
