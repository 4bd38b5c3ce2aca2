// Package captcha реализует выдачу и проверку короткоживущих
// challenge-кодов для регистрации. Код живет 5 минут, строго одноразовый:
// успешная проверка или истечение срока удаляют запись из хранилища.
package captcha

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

const (
	// CodeLength длина кода challenge
	CodeLength = 4
	// TTL время жизни challenge с момента выдачи
	TTL = 5 * time.Minute

	// codeChars алфавит кода: заглавные латинские буквы и цифры
	codeChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Ошибки проверки challenge. Все три — ожидаемые пользовательские
// исходы, на границе запроса превращаются в структурированный ответ.
var (
	// ErrNotFound challenge с таким session id не выдавался или уже потреблен
	ErrNotFound = errors.New("captcha challenge not found")

	// ErrExpired challenge просрочен (запись при этом удаляется)
	ErrExpired = errors.New("captcha challenge expired")

	// ErrMismatch код не совпал со сохраненным
	ErrMismatch = errors.New("captcha code mismatch")
)

// Challenge представляет выданный challenge
type Challenge struct {
	Code      string    `json:"code"`       // 4 символа [A-Z0-9]
	CreatedAt time.Time `json:"created_at"` // время выдачи
}

// ExpiresAt возвращает момент истечения challenge
func (c Challenge) ExpiresAt() time.Time {
	return c.CreatedAt.Add(TTL)
}

// Store определяет интерфейс хранилища challenge.
// Реализация обязана быть безопасной для конкурентных Issue/Verify и
// гарантировать атомарность verify-and-evict: challenge, потребленный
// одним запросом, не должен быть виден гонящемуся Verify по тому же
// session id.
type Store interface {
	// Issue выдает новый challenge и возвращает session id вместе с кодом.
	// Попутно выметает все просроченные записи.
	Issue(ctx context.Context) (sessionID, code string, err error)

	// Verify сверяет код (без учета регистра) и потребляет challenge.
	// Возвращает ErrNotFound, ErrExpired или ErrMismatch.
	Verify(ctx context.Context, sessionID, submittedCode string) error

	// Close освобождает ресурсы хранилища
	Close() error
}

// NewSessionID генерирует непредсказуемый идентификатор сессии challenge
func NewSessionID() string {
	return uuid.New().String()
}

// NewCode генерирует код из CodeLength символов, равномерно по codeChars
func NewCode() (string, error) {
	buf := make([]byte, CodeLength)
	max := big.NewInt(int64(len(codeChars)))

	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate captcha code: %w", err)
		}
		buf[i] = codeChars[n.Int64()]
	}

	return string(buf), nil
}
