package captcha

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryStore хранит challenge в памяти процесса.
// Конструируется один раз на старте и передается обработчикам явно;
// при горизонтальном масштабировании заменяется на общее хранилище
// с тем же интерфейсом Store.
type MemoryStore struct {
	mu         sync.Mutex
	challenges map[string]Challenge
	now        func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore создает новое in-memory хранилище challenge
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		challenges: make(map[string]Challenge),
		now:        time.Now,
	}
}

// Issue выдает новый challenge. Перед сохранением выметает все
// просроченные записи (амортизированная очистка, фоновый таймер не нужен).
func (s *MemoryStore) Issue(_ context.Context) (string, string, error) {
	code, err := NewCode()
	if err != nil {
		return "", "", err
	}

	sessionID := NewSessionID()

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, ch := range s.challenges {
		if now.After(ch.ExpiresAt()) {
			delete(s.challenges, id)
		}
	}

	s.challenges[sessionID] = Challenge{Code: code, CreatedAt: now}

	return sessionID, code, nil
}

// Verify сверяет код и потребляет challenge. Весь путь проверки
// выполняется под одной блокировкой, поэтому двойное потребление
// одного session id невозможно.
func (s *MemoryStore) Verify(_ context.Context, sessionID, submittedCode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.challenges[sessionID]
	if !ok {
		return ErrNotFound
	}

	if s.now().After(ch.ExpiresAt()) {
		delete(s.challenges, sessionID)
		return ErrExpired
	}

	if !strings.EqualFold(ch.Code, strings.TrimSpace(submittedCode)) {
		return ErrMismatch
	}

	delete(s.challenges, sessionID)
	return nil
}

// Close реализует Store; для in-memory хранилища освобождать нечего
func (s *MemoryStore) Close() error {
	return nil
}

// Len возвращает количество живых записей (используется в тестах)
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.challenges)
}
