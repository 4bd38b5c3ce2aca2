package models

import "time"

// Роли пользователей. Административная поверхность (управление
// пользователями) проверяет RoleAdmin отдельно; владение контентом
// проверяется только по author_id и от роли не зависит.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User представляет пользователя (principal) в системе
type User struct {
	ID           string    `json:"id"`               // UUID пользователя
	Username     string    `json:"username"`         // уникальный username
	Email        string    `json:"email"`            // уникальный email
	PasswordHash string    `json:"-"`                // bcrypt хеш пароля, никогда не сериализуется
	Role         string    `json:"role"`             // USER или ADMIN
	Bio          string    `json:"bio,omitempty"`    // о себе
	Avatar       string    `json:"avatar,omitempty"` // URL аватара
	CreatedAt    time.Time `json:"created_at"`       // время создания
	UpdatedAt    time.Time `json:"updated_at"`       // время последнего обновления
}

// IsAdmin сообщает, относится ли пользователь к административной роли
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
