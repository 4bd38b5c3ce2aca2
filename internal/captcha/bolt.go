package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.etcd.io/bbolt"
)

// bucketChallenges bucket с выданными challenge, ключ — session id
var bucketChallenges = []byte("challenges")

// BoltStore хранит challenge в BoltDB-файле.
// Используется, когда выданные коды должны переживать рестарт процесса.
// Атомарность verify-and-evict обеспечивается транзакцией Update:
// BoltDB допускает только одного писателя одновременно.
type BoltStore struct {
	db  *bbolt.DB
	now func() time.Time
}

var _ Store = (*BoltStore)(nil)

// NewBoltStore открывает BoltDB-файл по пути dbPath
func NewBoltStore(dbPath string) (*BoltStore, error) {
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketChallenges)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create challenges bucket: %w", err)
	}

	return &BoltStore{db: db, now: time.Now}, nil
}

// Issue выдает новый challenge и выметает просроченные записи
func (s *BoltStore) Issue(_ context.Context) (string, string, error) {
	code, err := NewCode()
	if err != nil {
		return "", "", err
	}

	sessionID := NewSessionID()
	now := s.now()

	err = s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketChallenges)

		// Амортизированная очистка просроченных challenge
		c := b.Cursor()
		var stale [][]byte
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var ch Challenge
			if err := json.Unmarshal(v, &ch); err != nil || now.After(ch.ExpiresAt()) {
				stale = append(stale, append([]byte(nil), k...))
			}
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return fmt.Errorf("failed to delete stale challenge: %w", err)
			}
		}

		data, err := json.Marshal(Challenge{Code: code, CreatedAt: now})
		if err != nil {
			return fmt.Errorf("failed to marshal challenge: %w", err)
		}

		return b.Put([]byte(sessionID), data)
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to store challenge: %w", err)
	}

	return sessionID, code, nil
}

// Verify сверяет код и потребляет challenge внутри одной write-транзакции
func (s *BoltStore) Verify(_ context.Context, sessionID, submittedCode string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketChallenges)

		data := b.Get([]byte(sessionID))
		if data == nil {
			return ErrNotFound
		}

		var ch Challenge
		if err := json.Unmarshal(data, &ch); err != nil {
			return fmt.Errorf("failed to unmarshal challenge: %w", err)
		}

		if s.now().After(ch.ExpiresAt()) {
			if err := b.Delete([]byte(sessionID)); err != nil {
				return fmt.Errorf("failed to delete expired challenge: %w", err)
			}
			return ErrExpired
		}

		if !strings.EqualFold(ch.Code, strings.TrimSpace(submittedCode)) {
			return ErrMismatch
		}

		return b.Delete([]byte(sessionID))
	})
}

// Close закрывает BoltDB-файл
func (s *BoltStore) Close() error {
	return s.db.Close()
}
