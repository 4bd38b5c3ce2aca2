package handlers

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/yunxin2415/noke/internal/models"
	"github.com/yunxin2415/noke/internal/server/storage"
)

// ErrBadCredentials возвращается при неверном username или пароле.
// Одна ошибка на оба случая: логин не раскрывает, существует ли пользователь.
var ErrBadCredentials = errors.New("invalid username or password")

// Authenticator проверяет пару username/password по сохраненному bcrypt хешу
type Authenticator struct {
	users storage.UserStorage
}

// NewAuthenticator создает новый Authenticator
func NewAuthenticator(users storage.UserStorage) *Authenticator {
	return &Authenticator{users: users}
}

// Authenticate ищет пользователя и сверяет пароль с хешем.
// Любой провал (нет пользователя, не сошелся хеш) дает ErrBadCredentials.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := a.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrBadCredentials
	}

	return user, nil
}

// HashPassword хеширует пароль bcrypt'ом со стандартной стоимостью
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
