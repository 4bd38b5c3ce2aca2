package api

// HomeResponse представляет сводку для главной страницы
type HomeResponse struct {
	TotalArticles int64 `json:"totalArticles"` // всего статей, включая приватные
	TotalUsers    int64 `json:"totalUsers"`    // всего зарегистрированных пользователей
}
