package models

import "time"

// Article представляет статью блога
type Article struct {
	ID             string    `json:"id"`              // UUID статьи
	AuthorID       string    `json:"author_id"`       // ID автора (ровно один автор)
	Title          string    `json:"title"`           // заголовок
	Content        string    `json:"content"`         // тело статьи (markdown)
	Category       string    `json:"category"`        // категория (tech, life, ...)
	Tags           string    `json:"tags"`            // теги через запятую
	IsPrivate      bool      `json:"is_private"`      // видимость: true — только автор
	IsDownloadable bool      `json:"is_downloadable"` // разрешено ли скачивание
	CreatedAt      time.Time `json:"created_at"`      // время создания
	UpdatedAt      time.Time `json:"updated_at"`      // время последнего обновления
}

// DefaultCategory категория по умолчанию для новых статей
const DefaultCategory = "default"
