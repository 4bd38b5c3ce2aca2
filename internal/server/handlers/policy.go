package handlers

import "github.com/yunxin2415/noke/internal/models"

// CanReadArticle решает, виден ли article пользователю viewer.
// Публичные статьи видны всем, включая анонимов (viewer == nil).
// Приватные — только автору.
func CanReadArticle(article *models.Article, viewer *models.User) bool {
	if !article.IsPrivate {
		return true
	}
	return viewer != nil && viewer.ID == article.AuthorID
}

// CanMutateArticle решает, может ли пользователь изменить или удалить
// article. Только автор; роль не участвует. Административная поверхность
// (управление пользователями) гейтится отдельной проверкой роли и
// никогда не смешивается с владением контентом.
func CanMutateArticle(article *models.Article, actor *models.User) bool {
	return actor != nil && actor.ID == article.AuthorID
}
