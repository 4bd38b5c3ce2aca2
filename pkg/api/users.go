package api

import (
	"time"

	"github.com/yunxin2415/noke/internal/models"
)

// User представляет пользователя в ответах API. Хеш пароля сюда
// не попадает никогда.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role"`
	Bio       string    `json:"bio,omitempty"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewUser конвертирует доменную модель в DTO, отбрасывая хеш пароля
func NewUser(u *models.User) *User {
	if u == nil {
		return nil
	}
	return &User{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		Bio:       u.Bio,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// UpdateProfileRequest представляет запрос на обновление профиля.
// Обновляются только email, bio и avatar; nil-поле не трогает значение.
type UpdateProfileRequest struct {
	Email  *string `json:"email"`
	Bio    *string `json:"bio"`
	Avatar *string `json:"avatar"`
}

// UpdatePasswordRequest представляет запрос на смену пароля
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// DeleteAccountRequest представляет запрос на удаление своего аккаунта.
// Пароль проверяется повторно перед удалением.
type DeleteAccountRequest struct {
	Password string `json:"password"`
}

// FollowingResponse представляет ответ проверки подписки
type FollowingResponse struct {
	Following bool `json:"following"`
}

// AdminUpdateUserRequest представляет административное обновление
// пользователя: допускаются только email и role.
type AdminUpdateUserRequest struct {
	Email *string `json:"email"`
	Role  *string `json:"role"`
}

// AdminUpdateUserResponse представляет ответ на обновление пользователя
type AdminUpdateUserResponse struct {
	Message string `json:"message"`
	User    *User  `json:"user"`
}

// UploadResponse представляет ответ на загрузку файла
type UploadResponse struct {
	URL string `json:"url"` // адрес загруженного объекта
}
